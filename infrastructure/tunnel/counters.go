package tunnel

import "sync/atomic"

// Counters track forwarded traffic per direction.
type Counters struct {
	packetsIn  atomic.Uint64
	packetsOut atomic.Uint64
	bytesIn    atomic.Uint64
	bytesOut   atomic.Uint64
}

// CountersSnapshot is a point-in-time copy of the forwarding counters.
type CountersSnapshot struct {
	PacketsIn  uint64
	PacketsOut uint64
	BytesIn    uint64
	BytesOut   uint64
}

func (c *Counters) recordIngress(bytes int) {
	c.packetsIn.Add(1)
	c.bytesIn.Add(uint64(bytes))
}

func (c *Counters) recordEgress(bytes int) {
	c.packetsOut.Add(1)
	c.bytesOut.Add(uint64(bytes))
}

func (c *Counters) Snapshot() CountersSnapshot {
	return CountersSnapshot{
		PacketsIn:  c.packetsIn.Load(),
		PacketsOut: c.packetsOut.Load(),
		BytesIn:    c.bytesIn.Load(),
		BytesOut:   c.bytesOut.Load(),
	}
}
