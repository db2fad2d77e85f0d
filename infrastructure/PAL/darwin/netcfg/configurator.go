package netcfg

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"

	"cdtun/application"
	"cdtun/infrastructure/PAL"
	"cdtun/infrastructure/PAL/darwin/network_tools/ifconfig"
	"cdtun/infrastructure/PAL/darwin/network_tools/netstat"
	"cdtun/infrastructure/PAL/darwin/network_tools/route"
	"cdtun/infrastructure/settings"
)

// Configurator programs addresses, MTU and routes through ifconfig and route.
type Configurator struct {
	ifconfig ifconfig.Contract
	route    route.Contract
	netstat  netstat.Contract
	logger   application.Logger
}

func NewConfigurator(commander PAL.Commander, logger application.Logger) application.Configurator {
	return &Configurator{
		ifconfig: ifconfig.NewWrapper(commander),
		route:    route.NewWrapper(commander),
		netstat:  netstat.NewWrapper(commander),
		logger:   logger,
	}
}

func (c *Configurator) Configure(ifName string, addr netip.Addr, mtu int) error {
	if err := application.ValidateAddress(addr); err != nil {
		return err
	}
	if err := application.ValidateMTU(mtu); err != nil {
		return err
	}

	out, err := c.ifconfig.Addr6Add(ifName, addr.String(), settings.InterfacePrefixLength)
	if err != nil {
		if !PAL.IsAlreadyExists(out) {
			return PAL.ClassifyCommandError("ifconfig", err, out)
		}
		c.logger.Printf("address %s already present on %s", addr, ifName)
	}

	if out, err = c.ifconfig.SetMTU(ifName, mtu); err != nil {
		return PAL.ClassifyCommandError("ifconfig", err, out)
	}
	return nil
}

func (c *Configurator) AddRoute(ifName string, cidr string) error {
	if cidr == "" {
		return fmt.Errorf("%w: empty route", application.ErrInvalidArgument)
	}
	out, err := c.route.Add6(cidr, ifName)
	if err != nil {
		if !PAL.IsAlreadyExists(out) {
			return PAL.ClassifyCommandError("route", err, out)
		}
		c.logger.Printf("route %s already present on %s", cidr, ifName)
	}
	return nil
}

func (c *Configurator) RemoveRoute(ifName string, cidr string) error {
	if cidr == "" {
		return fmt.Errorf("%w: empty route", application.ErrInvalidArgument)
	}
	out, err := c.route.Delete6(cidr, ifName)
	if err != nil {
		if strings.Contains(strings.ToLower(string(out)), "not in table") {
			c.logger.Printf("route %s already absent on %s", cidr, ifName)
			return nil
		}
		return PAL.ClassifyCommandError("route", err, out)
	}
	return nil
}

// Stats parses Ibytes/Obytes out of `netstat -I <if> -b`. Columns are
// addressed from the line end because the Network/Address columns may be
// blank on point-to-point interfaces.
func (c *Configurator) Stats(ifName string) (application.TrafficStats, error) {
	out, err := c.netstat.InterfaceStats(ifName)
	if err != nil {
		return application.TrafficStats{}, PAL.ClassifyCommandError("netstat", err, out)
	}

	for _, line := range strings.Split(string(out), "\n")[1:] {
		fields := strings.Fields(line)
		if len(fields) < 7 || !strings.HasPrefix(fields[0], ifName) {
			continue
		}
		ibytes, ibErr := strconv.ParseUint(fields[len(fields)-5], 10, 64)
		obytes, obErr := strconv.ParseUint(fields[len(fields)-2], 10, 64)
		if ibErr != nil || obErr != nil {
			continue
		}
		return application.TrafficStats{RxBytes: ibytes, TxBytes: obytes}, nil
	}
	return application.TrafficStats{}, fmt.Errorf("%w: no counters for %s", application.ErrStatsUnavailable, ifName)
}
