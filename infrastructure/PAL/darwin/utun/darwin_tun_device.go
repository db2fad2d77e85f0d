package utun

import (
	"encoding/binary"
	"fmt"
	"sync"

	"cdtun/application"
)

const (
	headerSize = 4
	// afInet6 is the Darwin AF_INET6 value; it is part of the utun wire
	// framing, not a host constant, so it is spelled out here.
	afInet6 = 30
)

// PacketSocket is the raw frame surface of a utun control socket: one
// datagram per call, 4-byte AF header included on both directions, and
// (0, nil) when no datagram is pending.
type PacketSocket interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
	Name() string
	Handle() uintptr
}

// DarwinTunDevice strips and prepends the 4-byte utun AF header so callers
// exchange clean IPv6 packets. All operations serialize on one lock; close
// is sticky and idempotent.
type DarwinTunDevice struct {
	mu     sync.Mutex
	sock   PacketSocket
	name   string
	handle uintptr
	closed bool

	readBuffer  []byte
	writeBuffer []byte
}

func NewDevice(sock PacketSocket) application.TunDevice {
	return &DarwinTunDevice{
		sock:        sock,
		name:        sock.Name(),
		handle:      sock.Handle(),
		readBuffer:  make([]byte, application.MaxReadBufferSize+headerSize),
		writeBuffer: make([]byte, application.MaxWriteSize+headerSize),
	}
}

// Read copies one IP packet, without the AF header, into p. A kernel return
// of at most header length reads as empty.
func (d *DarwinTunDevice) Read(p []byte) (int, error) {
	if len(p) < application.MinReadBufferSize || len(p) > application.MaxReadBufferSize {
		return 0, fmt.Errorf("%w: read buffer of %d bytes", application.ErrInvalidArgument, len(p))
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return 0, application.ErrAlreadyClosed
	}

	n, err := d.sock.Read(d.readBuffer[:len(p)+headerSize])
	if err != nil {
		return 0, err
	}
	if n <= headerSize {
		return 0, nil
	}
	copy(p, d.readBuffer[headerSize:n])
	return n - headerSize, nil
}

// Write prepends the AF_INET6 header and transmits p. The returned count
// excludes the header so callers observe the original payload length.
func (d *DarwinTunDevice) Write(p []byte) (int, error) {
	if len(p) > application.MaxWriteSize {
		return 0, fmt.Errorf("%w: write payload of %d bytes", application.ErrInvalidArgument, len(p))
	}
	if len(p) == 0 {
		return 0, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return 0, application.ErrAlreadyClosed
	}

	binary.BigEndian.PutUint32(d.writeBuffer[:headerSize], afInet6)
	copy(d.writeBuffer[headerSize:], p)

	n, err := d.sock.Write(d.writeBuffer[:len(p)+headerSize])
	if err != nil {
		return 0, err
	}
	if n < headerSize {
		return 0, nil
	}
	return n - headerSize, nil
}

func (d *DarwinTunDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return d.sock.Close()
}

func (d *DarwinTunDevice) Name() string { return d.name }

func (d *DarwinTunDevice) Handle() uintptr { return d.handle }
