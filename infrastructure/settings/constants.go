package settings

import "time"

const (
	// MinMTU is the IPv6 minimum link MTU.
	MinMTU = 1280
	// MaxMTU is the largest MTU a 16-bit IPv6 payload length can carry.
	MaxMTU = 65535

	// RequestedMTU is the MTU asked for in the client handshake request.
	RequestedMTU = 16000

	// InterfacePrefixLength is the prefix length the negotiated client
	// address is installed with.
	InterfacePrefixLength = 64

	// HandshakeTimeout bounds the whole request-to-response exchange.
	HandshakeTimeout = 30 * time.Second

	// PollInterval is the tun read poll period on the egress path.
	PollInterval = 5 * time.Millisecond

	// ReadBudget is the per-poll tun read buffer size.
	ReadBudget = 16384
)
