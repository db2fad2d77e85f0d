package tun

import (
	"fmt"
	"sync"

	"cdtun/application"
)

// PacketFile is the raw /dev/net/tun surface after TUNSETIFF: one IP packet
// per read or write, no packet-information header, (0, nil) when idle.
type PacketFile interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
	Name() string
	Handle() uintptr
}

// LinuxTunDevice serializes device I/O on one lock and makes close sticky.
// With IFF_NO_PI set there is no framing to add or strip.
type LinuxTunDevice struct {
	mu     sync.Mutex
	file   PacketFile
	name   string
	handle uintptr
	closed bool
}

func NewDevice(file PacketFile) application.TunDevice {
	return &LinuxTunDevice{
		file:   file,
		name:   file.Name(),
		handle: file.Handle(),
	}
}

func (d *LinuxTunDevice) Read(p []byte) (int, error) {
	if len(p) < application.MinReadBufferSize || len(p) > application.MaxReadBufferSize {
		return 0, fmt.Errorf("%w: read buffer of %d bytes", application.ErrInvalidArgument, len(p))
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return 0, application.ErrAlreadyClosed
	}
	return d.file.Read(p)
}

func (d *LinuxTunDevice) Write(p []byte) (int, error) {
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
	return d.file.Write(p)
}

func (d *LinuxTunDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return d.file.Close()
}

func (d *LinuxTunDevice) Name() string { return d.name }

func (d *LinuxTunDevice) Handle() uintptr { return d.handle }
