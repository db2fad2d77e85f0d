package ipv6

import (
	"encoding/binary"
	"fmt"
	"strings"

	"cdtun/application"
)

const (
	// HeaderLength is the fixed IPv6 header size.
	HeaderLength = 40

	// Version is the value of the version nibble in every IPv6 header.
	Version = 6

	ProtocolTCP = 6
	ProtocolUDP = 17
)

const (
	udpHeaderLength    = 8
	tcpMinHeaderLength = 20
)

// HeaderVersion returns the version nibble of b, which must hold at least one
// byte.
func HeaderVersion(b []byte) int {
	return int(b[0]>>4) & 0x0F
}

// PayloadLength returns the payload length field of a 40-byte header.
func PayloadLength(header []byte) int {
	return int(binary.BigEndian.Uint16(header[4:6]))
}

// NextHeader returns the upper-layer protocol of a 40-byte header.
func NextHeader(header []byte) byte {
	return header[6]
}

// SourceAddress and DestinationAddress alias into header; callers must not
// retain the slices past the datagram's lifetime.
func SourceAddress(header []byte) []byte      { return header[8:24] }
func DestinationAddress(header []byte) []byte { return header[24:40] }

// FormatAddress renders a 16-byte address as eight colon-joined zero-padded
// lowercase hex groups, without zero compression. A slice of any other
// length renders as "invalid-address".
func FormatAddress(addr []byte) string {
	if len(addr) != 16 {
		return "invalid-address"
	}
	var sb strings.Builder
	sb.Grow(39)
	for i := 0; i < 16; i += 2 {
		if i > 0 {
			sb.WriteByte(':')
		}
		fmt.Fprintf(&sb, "%04x", binary.BigEndian.Uint16(addr[i:i+2]))
	}
	return sb.String()
}

// ParseRecord extracts the TCP/UDP view of a complete IPv6 datagram. The
// boolean is false when the datagram carries another protocol or is too short
// for its transport header; such datagrams are still forwarded, they just
// produce no subscriber event. The returned payload is an independent copy.
func ParseRecord(datagram []byte) (application.PacketRecord, bool) {
	if len(datagram) < HeaderLength {
		return application.PacketRecord{}, false
	}
	payload := datagram[HeaderLength:]

	record := application.PacketRecord{
		Source:      FormatAddress(SourceAddress(datagram)),
		Destination: FormatAddress(DestinationAddress(datagram)),
	}

	switch NextHeader(datagram) {
	case ProtocolUDP:
		if len(payload) < udpHeaderLength {
			return application.PacketRecord{}, false
		}
		record.Protocol = application.ProtocolUDP
		record.SourcePort = binary.BigEndian.Uint16(payload[0:2])
		record.DestinationPort = binary.BigEndian.Uint16(payload[2:4])
		record.Payload = append([]byte(nil), payload[udpHeaderLength:]...)
		return record, true

	case ProtocolTCP:
		if len(payload) < tcpMinHeaderLength {
			return application.PacketRecord{}, false
		}
		record.Protocol = application.ProtocolTCP
		record.SourcePort = binary.BigEndian.Uint16(payload[0:2])
		record.DestinationPort = binary.BigEndian.Uint16(payload[2:4])
		headerLength := int((payload[12]>>4)&0x0F) * 4
		if len(payload) >= headerLength {
			record.Payload = append([]byte(nil), payload[headerLength:]...)
		}
		return record, true
	}

	return application.PacketRecord{}, false
}
