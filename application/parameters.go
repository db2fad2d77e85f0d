package application

import (
	"fmt"
	"net/netip"

	"cdtun/infrastructure/settings"
)

// TunnelParameters are the negotiated parameters of a tunnel, produced by the
// handshake and immutable afterwards.
type TunnelParameters struct {
	// Address is the IPv6 address assigned to the local tun interface.
	Address netip.Addr
	// MTU is the negotiated interface MTU.
	MTU int
	// ServerAddress is the peer's in-tunnel IPv6 address; a /128 host route
	// to it is programmed on the interface.
	ServerAddress netip.Addr
	// RSDPort is the optional remote service discovery port advertised by
	// the server; zero when absent.
	RSDPort uint16
}

// Validate checks the invariants every TunnelParameters value must hold.
func (p TunnelParameters) Validate() error {
	if err := ValidateAddress(p.Address); err != nil {
		return fmt.Errorf("client address: %w", err)
	}
	if err := ValidateMTU(p.MTU); err != nil {
		return err
	}
	if err := ValidateAddress(p.ServerAddress); err != nil {
		return fmt.Errorf("server address: %w", err)
	}
	return nil
}

// ValidateAddress accepts canonical, compressed, zoned and IPv4-mapped IPv6
// addresses; everything else is an invalid argument.
func ValidateAddress(addr netip.Addr) error {
	if !addr.IsValid() || !addr.Is6() {
		return fmt.Errorf("%w: %q is not an IPv6 address", ErrInvalidArgument, addr)
	}
	return nil
}

// ParseAddress parses s as an IPv6 literal.
func ParseAddress(s string) (netip.Addr, error) {
	addr, err := netip.ParseAddr(s)
	if err != nil || !addr.Is6() {
		return netip.Addr{}, fmt.Errorf("%w: %q is not an IPv6 address", ErrInvalidArgument, s)
	}
	return addr, nil
}

// ValidateMTU bounds the MTU to the IPv6 minimum link MTU and the 16-bit
// payload length ceiling.
func ValidateMTU(mtu int) error {
	if mtu < settings.MinMTU || mtu > settings.MaxMTU {
		return fmt.Errorf("%w: MTU must be between %d and %d", ErrInvalidArgument, settings.MinMTU, settings.MaxMTU)
	}
	return nil
}
