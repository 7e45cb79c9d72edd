package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrDeviceNotFound) {
//	    // handle not found case
//	}
var (
	// ErrDeviceNotFound is returned when no device matches a name or key.
	ErrDeviceNotFound = errors.New("device: not found")

	// ErrDeviceExists is returned when creating a device whose name (or,
	// under the unique-key policy, whose key) is already stored.
	ErrDeviceExists = errors.New("device: already exists")

	// ErrInvalidName is returned when a device name is empty, too long or
	// contains control characters.
	ErrInvalidName = errors.New("device: invalid name")

	// ErrInvalidKey is returned when a key is empty, too long or contains
	// whitespace.
	ErrInvalidKey = errors.New("device: invalid key")
)
