//go:build windows

package ipcfg

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"

	"golang.org/x/sys/windows"
	"golang.zx2c4.com/wireguard/windows/tunnel/winipcfg"

	"cdtun/application"
	"cdtun/infrastructure/settings"
)

// Configurator programs addresses, MTU and routes through the Windows IP
// helper API instead of shelling out; the adapter is located by name via
// the system adapter table.
type Configurator struct {
	logger application.Logger
}

func NewConfigurator(logger application.Logger) application.Configurator {
	return &Configurator{logger: logger}
}

func (c *Configurator) Configure(ifName string, addr netip.Addr, mtu int) error {
	if err := application.ValidateAddress(addr); err != nil {
		return err
	}
	if err := application.ValidateMTU(mtu); err != nil {
		return err
	}

	luid, err := c.adapterByName(ifName)
	if err != nil {
		return err
	}

	prefix := netip.PrefixFrom(addr, settings.InterfacePrefixLength)
	if addrErr := luid.AddIPAddress(prefix); addrErr != nil {
		if errors.Is(addrErr, windows.ERROR_OBJECT_ALREADY_EXISTS) {
			c.logger.Printf("address %s already present on %s", prefix, ifName)
		} else {
			return classifyAPIError("add address", addrErr)
		}
	}

	row, rowErr := luid.IPInterface(winipcfg.AddressFamily(windows.AF_INET6))
	if rowErr != nil {
		return classifyAPIError("ip interface", rowErr)
	}
	row.NLMTU = uint32(mtu)
	if setErr := row.Set(); setErr != nil {
		return classifyAPIError("set mtu", setErr)
	}
	return nil
}

func (c *Configurator) AddRoute(ifName string, cidr string) error {
	luid, prefix, err := c.routeTarget(ifName, cidr)
	if err != nil {
		return err
	}
	if routeErr := luid.AddRoute(prefix, netip.IPv6Unspecified(), 0); routeErr != nil {
		if errors.Is(routeErr, windows.ERROR_OBJECT_ALREADY_EXISTS) {
			c.logger.Printf("route %s already present on %s", cidr, ifName)
			return nil
		}
		return classifyAPIError("add route", routeErr)
	}
	return nil
}

func (c *Configurator) RemoveRoute(ifName string, cidr string) error {
	luid, prefix, err := c.routeTarget(ifName, cidr)
	if err != nil {
		return err
	}
	if routeErr := luid.DeleteRoute(prefix, netip.IPv6Unspecified()); routeErr != nil {
		if errors.Is(routeErr, windows.ERROR_NOT_FOUND) {
			c.logger.Printf("route %s already absent on %s", cidr, ifName)
			return nil
		}
		return classifyAPIError("delete route", routeErr)
	}
	return nil
}

func (c *Configurator) Stats(ifName string) (application.TrafficStats, error) {
	luid, err := c.adapterByName(ifName)
	if err != nil {
		return application.TrafficStats{}, err
	}
	row, rowErr := luid.Interface()
	if rowErr != nil {
		return application.TrafficStats{}, fmt.Errorf("%w: %v", application.ErrStatsUnavailable, rowErr)
	}
	return application.TrafficStats{RxBytes: row.InOctets, TxBytes: row.OutOctets}, nil
}

func (c *Configurator) routeTarget(ifName string, cidr string) (winipcfg.LUID, netip.Prefix, error) {
	if cidr == "" {
		return 0, netip.Prefix{}, fmt.Errorf("%w: empty route", application.ErrInvalidArgument)
	}
	prefix, parseErr := netip.ParsePrefix(cidr)
	if parseErr != nil {
		return 0, netip.Prefix{}, fmt.Errorf("%w: route %q", application.ErrInvalidArgument, cidr)
	}
	luid, err := c.adapterByName(ifName)
	if err != nil {
		return 0, netip.Prefix{}, err
	}
	return luid, prefix, nil
}

func (c *Configurator) adapterByName(ifName string) (winipcfg.LUID, error) {
	adapters, err := winipcfg.GetAdaptersAddresses(winipcfg.AddressFamily(windows.AF_UNSPEC), 0)
	if err != nil {
		return 0, classifyAPIError("adapter table", err)
	}
	for _, adapter := range adapters {
		if strings.EqualFold(strings.TrimSpace(adapter.FriendlyName()), strings.TrimSpace(ifName)) {
			return adapter.LUID, nil
		}
	}
	return 0, fmt.Errorf("%w: adapter %q not found", application.ErrConfigurationFailed, ifName)
}

func classifyAPIError(op string, err error) error {
	if errors.Is(err, windows.ERROR_ACCESS_DENIED) {
		return fmt.Errorf("%w: %s: %v", application.ErrPermissionDenied, op, err)
	}
	return fmt.Errorf("%w: %s: %v", application.ErrConfigurationFailed, op, err)
}
