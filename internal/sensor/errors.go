package sensor

import "errors"

// Domain-specific errors for sensor handling.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrAcquireFailed is returned when data acquisition exhausts its retry
	// budget without obtaining a complete reading.
	ErrAcquireFailed = errors.New("sensor: data acquisition failed")

	// ErrInvalidAddress is returned when a configured MAC address does not
	// match the device family's address pattern.
	ErrInvalidAddress = errors.New("sensor: invalid hardware address")

	// ErrDuplicateName is returned when two configured sensors of the same
	// family resolve to the same internal name.
	ErrDuplicateName = errors.New("sensor: duplicate sensor name")

	// ErrUnknownParam is returned by readers when asked for a parameter the
	// device does not provide.
	ErrUnknownParam = errors.New("sensor: unknown parameter")
)
