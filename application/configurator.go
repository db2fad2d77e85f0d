package application

import "net/netip"

// TrafficStats are cumulative byte counters of a network interface.
type TrafficStats struct {
	RxBytes uint64
	TxBytes uint64
}

// Configurator programs addresses, MTU and routes on a created tun interface
// through OS-native administrative tooling. Inputs are validated before any
// side effect; "already exists" results are reported as success.
type Configurator interface {
	// Configure assigns addr to the interface and brings it up with mtu.
	Configure(ifName string, addr netip.Addr, mtu int) error
	AddRoute(ifName string, cidr string) error
	RemoveRoute(ifName string, cidr string) error
	Stats(ifName string) (TrafficStats, error)
}
