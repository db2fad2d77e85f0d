//go:build linux

package tun

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"

	"cdtun/application"
)

const clonePath = "/dev/net/tun"

// rawTun is the clone device fd after TUNSETIFF, non-blocking.
type rawTun struct {
	fd   int
	name string
}

// Open attaches to the tun clone device. nameHint is suggested to the
// kernel via ifr_name; empty defaults to the kernel's tun%d pattern.
func Open(nameHint string) (*rawTun, error) {
	fd, err := unix.Open(clonePath, unix.O_RDWR, 0)
	if err != nil {
		return nil, classifyOpenError(err)
	}

	if nameHint == "" {
		nameHint = "tun%d"
	}
	ifr, err := unix.NewIfreq(nameHint)
	if err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("%w: interface name %q", application.ErrInvalidArgument, nameHint)
	}
	ifr.SetUint16(unix.IFF_TUN | unix.IFF_NO_PI)
	if ioctlErr := unix.IoctlIfreq(fd, unix.TUNSETIFF, ifr); ioctlErr != nil {
		_ = unix.Close(fd)
		return nil, classifyOpenError(ioctlErr)
	}

	if nonblockErr := unix.SetNonblock(fd, true); nonblockErr != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("%w: set non-blocking: %v", application.ErrIO, nonblockErr)
	}

	return &rawTun{fd: fd, name: ifr.Name()}, nil
}

func classifyOpenError(err error) error {
	switch {
	case errors.Is(err, unix.EPERM), errors.Is(err, unix.EACCES):
		return fmt.Errorf("%w: %s: %w", application.ErrPermissionDenied, clonePath, err)
	default:
		return fmt.Errorf("%w: %s: %w", application.ErrDeviceUnavailable, clonePath, err)
	}
}

func (t *rawTun) Name() string { return t.name }

func (t *rawTun) Handle() uintptr { return uintptr(t.fd) }

func (t *rawTun) Read(p []byte) (int, error) {
	n, err := unix.Read(t.fd, p)
	if err != nil {
		if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: tun read: %v", application.ErrIO, err)
	}
	return n, nil
}

func (t *rawTun) Write(p []byte) (int, error) {
	n, err := unix.Write(t.fd, p)
	if err != nil {
		return 0, fmt.Errorf("%w: tun write: %v", application.ErrIO, err)
	}
	return n, nil
}

func (t *rawTun) Close() error {
	return unix.Close(t.fd)
}
