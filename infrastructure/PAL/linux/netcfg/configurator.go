package netcfg

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"

	"cdtun/application"
	"cdtun/infrastructure/PAL"
	"cdtun/infrastructure/PAL/linux/network_tools/ip"
	"cdtun/infrastructure/settings"
)

// Configurator programs addresses, MTU and routes through iproute2.
type Configurator struct {
	ip     ip.Contract
	logger application.Logger
}

func NewConfigurator(commander PAL.Commander, logger application.Logger) application.Configurator {
	return &Configurator{ip: ip.NewWrapper(commander), logger: logger}
}

// Configure assigns addr/64 to the interface and brings it up with mtu.
// Inputs are validated before any command runs.
func (c *Configurator) Configure(ifName string, addr netip.Addr, mtu int) error {
	if err := application.ValidateAddress(addr); err != nil {
		return err
	}
	if err := application.ValidateMTU(mtu); err != nil {
		return err
	}

	cidr := fmt.Sprintf("%s/%d", addr, settings.InterfacePrefixLength)
	out, err := c.ip.Addr6Add(ifName, cidr)
	if err != nil {
		if !PAL.IsAlreadyExists(out) {
			return PAL.ClassifyCommandError("ip", err, out)
		}
		c.logger.Printf("address %s already present on %s", cidr, ifName)
	}

	if out, err = c.ip.LinkSetUpMTU(ifName, mtu); err != nil {
		return PAL.ClassifyCommandError("ip", err, out)
	}
	return nil
}

func (c *Configurator) AddRoute(ifName string, cidr string) error {
	if cidr == "" {
		return fmt.Errorf("%w: empty route", application.ErrInvalidArgument)
	}
	out, err := c.ip.Route6Add(cidr, ifName)
	if err != nil {
		if !PAL.IsAlreadyExists(out) {
			return PAL.ClassifyCommandError("ip", err, out)
		}
		c.logger.Printf("route %s already present on %s", cidr, ifName)
	}
	return nil
}

func (c *Configurator) RemoveRoute(ifName string, cidr string) error {
	if cidr == "" {
		return fmt.Errorf("%w: empty route", application.ErrInvalidArgument)
	}
	out, err := c.ip.Route6Del(cidr, ifName)
	if err != nil {
		if strings.Contains(strings.ToLower(string(out)), "no such process") {
			c.logger.Printf("route %s already absent on %s", cidr, ifName)
			return nil
		}
		return PAL.ClassifyCommandError("ip", err, out)
	}
	return nil
}

// Stats parses the RX/TX byte counters out of `ip -s link show`.
func (c *Configurator) Stats(ifName string) (application.TrafficStats, error) {
	out, err := c.ip.LinkStats(ifName)
	if err != nil {
		return application.TrafficStats{}, PAL.ClassifyCommandError("ip", err, out)
	}

	var (
		stats   application.TrafficStats
		gotRx   bool
		gotTx   bool
		pending string
	)
	for _, line := range strings.Split(string(out), "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case pending != "":
			fields := strings.Fields(trimmed)
			if len(fields) > 0 {
				if bytes, parseErr := strconv.ParseUint(fields[0], 10, 64); parseErr == nil {
					if pending == "RX" {
						stats.RxBytes, gotRx = bytes, true
					} else {
						stats.TxBytes, gotTx = bytes, true
					}
				}
			}
			pending = ""
		case strings.HasPrefix(trimmed, "RX:"):
			pending = "RX"
		case strings.HasPrefix(trimmed, "TX:"):
			pending = "TX"
		}
	}
	if !gotRx || !gotTx {
		return application.TrafficStats{}, fmt.Errorf("%w: no RX/TX counters for %s", application.ErrStatsUnavailable, ifName)
	}
	return stats, nil
}
