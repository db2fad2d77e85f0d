package application

import "errors"

// Error taxonomy surfaced to callers. Implementations wrap these sentinels
// with fmt.Errorf("...: %w", ...) so call sites can match with errors.Is.
var (
	// ErrPermissionDenied - OS refused a device open or command execution.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrDeviceUnavailable - kernel module missing, no free utun unit,
	// wintun.dll not found.
	ErrDeviceUnavailable = errors.New("device unavailable")

	// ErrPlatformUnsupported - host OS is none of linux, darwin, windows.
	ErrPlatformUnsupported = errors.New("platform unsupported")

	// ErrInvalidArgument - bad IPv6 literal, MTU out of range, buffer size
	// out of range.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrAlreadyClosed - operation on a session or device after Close.
	ErrAlreadyClosed = errors.New("already closed")

	// ErrProtocol - malformed handshake bytes or handshake response.
	ErrProtocol = errors.New("protocol error")

	// ErrHandshakeTimeout - no complete handshake response within the
	// handshake deadline.
	ErrHandshakeTimeout = errors.New("handshake timeout")

	// ErrConfigurationFailed - an address, route or MTU command failed for a
	// reason other than the idempotent "already exists".
	ErrConfigurationFailed = errors.New("configuration failed")

	// ErrToolingMissing - a required administrative command is not present.
	ErrToolingMissing = errors.New("tooling missing")

	// ErrStatsUnavailable - interface statistics could not be read.
	ErrStatsUnavailable = errors.New("statistics unavailable")

	// ErrIO - a read or write syscall failed for a reason other than
	// would-block.
	ErrIO = errors.New("i/o error")
)
