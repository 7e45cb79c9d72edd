package autoremote

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nerrad567/autoremote/internal/device"
	"github.com/nerrad567/autoremote/internal/hostinfo"
	"github.com/nerrad567/autoremote/internal/remote"
)

// Error kinds returned by Service. Match them with errors.Is.
var (
	// ErrDeviceNotFound is returned when a named device is not registered.
	ErrDeviceNotFound = device.ErrDeviceNotFound

	// ErrDeviceAlreadyExists is returned when adding a device whose name
	// or key is already registered.
	ErrDeviceAlreadyExists = device.ErrDeviceExists

	// ErrInvalidKey is returned when the relay rejects a key, or a short
	// link does not resolve to one. A rejected message delivery also
	// reports this, since the relay gives no finer reason.
	ErrInvalidKey = errors.New("autoremote: the key is invalid")

	// ErrInvalidArgument is returned for malformed caller input, before
	// any network call is made.
	ErrInvalidArgument = errors.New("autoremote: invalid argument")

	// ErrNetwork is returned when the relay cannot be reached.
	ErrNetwork = remote.ErrNetwork

	// ErrNoLocalAddress is returned when the host has no private IPv4
	// address to register.
	ErrNoLocalAddress = hostinfo.ErrNoLocalAddress

	// ErrNoHostname is returned when the host name cannot be determined.
	ErrNoHostname = hostinfo.ErrNoHostname

	// ErrRegistrationFailed is returned when the relay refuses a
	// registration request.
	ErrRegistrationFailed = errors.New("autoremote: registration failed")
)

// Error records the operation, device and input field a failure relates to.
type Error struct {
	Op     string
	Device string
	Field  string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("autoremote: ")
	b.WriteString(e.Op)
	if e.Device != "" {
		fmt.Fprintf(&b, " device %q", e.Device)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, " (%s)", e.Field)
	}
	b.WriteString(": ")
	b.WriteString(strings.TrimPrefix(e.Err.Error(), "autoremote: "))
	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// opError wraps err unless it is nil.
func opError(op, deviceName, field string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Device: deviceName, Field: field, Err: err}
}

// invalidArgument joins a device validation failure to ErrInvalidArgument.
func invalidArgument(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
}
