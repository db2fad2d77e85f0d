package application

// TunDevice provides a single and trivial API for any supported tun devices.
//
// Read fills p with exactly one IP packet and returns its length, or (0, nil)
// when no packet is pending. Write transmits exactly one packet and returns
// the number of payload bytes accepted, excluding any platform framing.
type TunDevice interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
	// Name is the OS-visible interface name (utunN, tunN, adapter name).
	Name() string
	// Handle exposes the underlying OS handle for diagnostics.
	Handle() uintptr
}

const (
	// MinReadBufferSize and MaxReadBufferSize bound the destination slice
	// accepted by TunDevice.Read.
	MinReadBufferSize = 1
	MaxReadBufferSize = 65536

	// MaxWriteSize bounds a single TunDevice.Write payload.
	MaxWriteSize = 65536
)
