//go:build darwin

package utun

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	"cdtun/application"
)

const (
	uTunControlName = "com.apple.net.utun_control"
	uTunOptIfName   = 2 // getsockopt -> interface name like "utun3"

	// Unit scan range when no usable name hint is given; unit 0 is reserved
	// for kernel auto-assignment and deliberately not used so the chosen
	// unit stays predictable.
	minUnit = 1
	maxUnit = 255
)

// rawUTUN is the kernel control socket behind a utun interface. The fd is
// switched to non-blocking after connect; reads on an idle interface return
// EAGAIN rather than parking the caller.
type rawUTUN struct {
	fd   int
	name string
}

// Open acquires a utun unit. A hint of the form "utun<N>" selects unit N+1
// (the kernel names the interface utun<unit-1>); any other hint, or none,
// takes the first free unit.
func Open(nameHint string) (*rawUTUN, error) {
	if unit, ok := unitFromName(nameHint); ok {
		return openUnit(unit)
	}
	for unit := minUnit; unit < maxUnit; unit++ {
		raw, err := openUnit(unit)
		if err == nil {
			return raw, nil
		}
		if errors.Is(err, unix.EBUSY) || errors.Is(err, unix.EADDRINUSE) {
			continue
		}
		return nil, err
	}
	return nil, fmt.Errorf("%w: no free utun unit in [%d,%d)", application.ErrDeviceUnavailable, minUnit, maxUnit)
}

func openUnit(unit int) (*rawUTUN, error) {
	fd, err := unix.Socket(unix.AF_SYSTEM, unix.SOCK_DGRAM, unix.SYSPROTO_CONTROL)
	if err != nil {
		return nil, classifyOpenError(err)
	}

	var info unix.CtlInfo
	copy(info.Name[:], uTunControlName)
	if infoErr := unix.IoctlCtlInfo(fd, &info); infoErr != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("%w: utun control lookup: %v", application.ErrDeviceUnavailable, infoErr)
	}

	sa := &unix.SockaddrCtl{ID: info.Id, Unit: uint32(unit)}
	if connectErr := unix.Connect(fd, sa); connectErr != nil {
		_ = unix.Close(fd)
		return nil, classifyOpenError(connectErr)
	}

	name, nameErr := unix.GetsockoptString(fd, unix.SYSPROTO_CONTROL, uTunOptIfName)
	if nameErr != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("%w: resolve utun name: %v", application.ErrIO, nameErr)
	}
	name = strings.TrimRight(name, "\x00")

	if nonblockErr := unix.SetNonblock(fd, true); nonblockErr != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("%w: set non-blocking: %v", application.ErrIO, nonblockErr)
	}

	return &rawUTUN{fd: fd, name: name}, nil
}

// unitFromName maps a "utun<N>" hint to control unit N+1.
func unitFromName(name string) (int, bool) {
	rest, ok := strings.CutPrefix(name, "utun")
	if !ok || rest == "" {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 || n+1 >= maxUnit {
		return 0, false
	}
	return n + 1, true
}

func classifyOpenError(err error) error {
	switch {
	case errors.Is(err, unix.EPERM), errors.Is(err, unix.EACCES):
		return fmt.Errorf("%w: utun: %w", application.ErrPermissionDenied, err)
	default:
		return fmt.Errorf("%w: utun: %w", application.ErrDeviceUnavailable, err)
	}
}

func (u *rawUTUN) Name() string { return u.name }

func (u *rawUTUN) Handle() uintptr { return uintptr(u.fd) }

// Read fills p with one raw frame, 4-byte AF header included. A would-block
// condition reads as (0, nil).
func (u *rawUTUN) Read(p []byte) (int, error) {
	n, err := unix.Read(u.fd, p)
	if err != nil {
		if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: utun read: %v", application.ErrIO, err)
	}
	return n, nil
}

// Write transmits one raw frame; p must already carry the AF header.
func (u *rawUTUN) Write(p []byte) (int, error) {
	n, err := unix.Write(u.fd, p)
	if err != nil {
		return 0, fmt.Errorf("%w: utun write: %v", application.ErrIO, err)
	}
	return n, nil
}

func (u *rawUTUN) Close() error {
	return unix.Close(u.fd)
}
