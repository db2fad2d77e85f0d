package application

// Protocol identifies the transport protocol of a parsed packet.
type Protocol string

const (
	ProtocolTCP Protocol = "TCP"
	ProtocolUDP Protocol = "UDP"
)

// PacketRecord is the parsed view of a forwarded TCP or UDP datagram handed
// to subscribers. Payload is an independent copy; consumers may retain it.
type PacketRecord struct {
	Protocol        Protocol
	Source          string
	Destination     string
	SourcePort      uint16
	DestinationPort uint16
	Payload         []byte
}

// PacketConsumer receives parsed packets on the forwarding path.
// OnPacket is invoked synchronously; a panicking consumer is logged and
// suppressed without starving the remaining consumers.
type PacketConsumer interface {
	OnPacket(record PacketRecord)
}
