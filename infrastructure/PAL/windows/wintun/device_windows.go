//go:build windows

package wintun

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sys/windows"
	"golang.zx2c4.com/wintun"

	"cdtun/application"
)

const (
	// ringCapacity is the shared ring buffer size of a session.
	ringCapacity = 0x400000 // 4 MiB

	tunnelType           = "CDTunnel"
	maxAdapterNameLength = 128
)

// WintunDevice drives a Wintun adapter session. Reads drain the receive
// ring without blocking; an empty ring probes the session's read-wait event
// once so a freshly arrived packet is not deferred to the next poll tick.
type WintunDevice struct {
	mu      sync.Mutex
	adapter *wintun.Adapter
	session wintun.Session
	name    string
	closed  bool
}

// Open creates a Wintun adapter under the given name with a freshly
// generated GUID and starts a session on it. Requires wintun.dll to be
// loadable and the process to hold administrative rights.
func Open(name string) (application.TunDevice, error) {
	if name == "" || len(name) > maxAdapterNameLength {
		return nil, fmt.Errorf("%w: adapter name must be non-empty and at most %d characters", application.ErrInvalidArgument, maxAdapterNameLength)
	}

	guid, err := windows.GUIDFromString("{" + uuid.NewString() + "}")
	if err != nil {
		return nil, fmt.Errorf("%w: adapter GUID: %v", application.ErrDeviceUnavailable, err)
	}

	adapter, err := wintun.CreateAdapter(name, tunnelType, &guid)
	if err != nil {
		return nil, classifyOpenError(err)
	}

	session, err := adapter.StartSession(ringCapacity)
	if err != nil {
		_ = adapter.Close()
		return nil, fmt.Errorf("%w: start session: %v", application.ErrDeviceUnavailable, err)
	}

	return &WintunDevice{adapter: adapter, session: session, name: name}, nil
}

func classifyOpenError(err error) error {
	if errors.Is(err, windows.ERROR_ACCESS_DENIED) {
		return fmt.Errorf("%w: wintun: %w", application.ErrPermissionDenied, err)
	}
	return fmt.Errorf("%w: wintun: %w", application.ErrDeviceUnavailable, err)
}

func (d *WintunDevice) Read(p []byte) (int, error) {
	if len(p) < application.MinReadBufferSize || len(p) > application.MaxReadBufferSize {
		return 0, fmt.Errorf("%w: read buffer of %d bytes", application.ErrInvalidArgument, len(p))
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return 0, application.ErrAlreadyClosed
	}

	for attempt := 0; attempt < 2; attempt++ {
		packet, err := d.session.ReceivePacket()
		switch {
		case err == nil:
			if len(packet) > len(p) {
				d.session.ReleaseReceivePacket(packet)
				return 0, fmt.Errorf("%w: packet of %d bytes exceeds read buffer", application.ErrIO, len(packet))
			}
			n := copy(p, packet)
			d.session.ReleaseReceivePacket(packet)
			return n, nil

		case errors.Is(err, windows.ERROR_NO_MORE_ITEMS):
			// Probe the wait event without blocking; if it is already
			// signaled a packet landed between the two calls.
			status, waitErr := windows.WaitForSingleObject(d.session.ReadWaitEvent(), 0)
			if waitErr != nil || status != windows.WAIT_OBJECT_0 {
				return 0, nil
			}

		case errors.Is(err, windows.ERROR_HANDLE_EOF), errors.Is(err, windows.ERROR_OPERATION_ABORTED):
			return 0, application.ErrAlreadyClosed

		default:
			return 0, fmt.Errorf("%w: wintun receive: %v", application.ErrIO, err)
		}
	}
	return 0, nil
}

func (d *WintunDevice) Write(p []byte) (int, error) {
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

	buf, err := d.session.AllocateSendPacket(len(p))
	if err != nil {
		if errors.Is(err, windows.ERROR_HANDLE_EOF) {
			return 0, application.ErrAlreadyClosed
		}
		return 0, fmt.Errorf("%w: wintun send: %v", application.ErrIO, err)
	}
	copy(buf, p)
	d.session.SendPacket(buf)
	return len(p), nil
}

func (d *WintunDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	d.session.End()
	_ = d.adapter.Close()
	return nil
}

func (d *WintunDevice) Name() string { return d.name }

func (d *WintunDevice) Handle() uintptr {
	return uintptr(d.session.ReadWaitEvent())
}
