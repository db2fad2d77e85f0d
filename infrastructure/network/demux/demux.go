package demux

import (
	"cdtun/infrastructure/network/ipv6"
)

// Demultiplexer cuts a continuous byte stream into discrete IPv6 datagrams.
// It keeps a single growing buffer; bytes that do not start with an IPv6
// version nibble are skipped one at a time until the parser resynchronizes
// on the next valid header.
type Demultiplexer struct {
	buf []byte
}

func NewDemultiplexer() *Demultiplexer {
	return &Demultiplexer{}
}

// Feed appends p to the internal buffer and returns every datagram that is
// now complete, in wire order. Each returned slice is an independent copy.
func (d *Demultiplexer) Feed(p []byte) [][]byte {
	d.buf = append(d.buf, p...)

	var datagrams [][]byte
	offset := 0
	for len(d.buf)-offset >= ipv6.HeaderLength {
		header := d.buf[offset : offset+ipv6.HeaderLength]
		if ipv6.HeaderVersion(header) != ipv6.Version {
			offset++
			continue
		}
		required := ipv6.HeaderLength + ipv6.PayloadLength(header)
		if len(d.buf)-offset < required {
			break
		}
		datagram := make([]byte, required)
		copy(datagram, d.buf[offset:offset+required])
		datagrams = append(datagrams, datagram)
		offset += required
	}

	if offset > 0 {
		remaining := copy(d.buf, d.buf[offset:])
		d.buf = d.buf[:remaining]
	}
	return datagrams
}

// Pending reports how many unconsumed bytes are buffered.
func (d *Demultiplexer) Pending() int {
	return len(d.buf)
}

// Reset discards all buffered bytes.
func (d *Demultiplexer) Reset() {
	d.buf = nil
}
