package device

import "time"

// keyHintLength is how many leading key characters KeyHint reveals.
const keyHintLength = 8

// Device is one named AutoRemote endpoint in the local registry.
// This matches the devices table in migrations/20260301_120000_devices.up.sql.
type Device struct {
	// ID is the storage identity. Callers address devices by Name.
	ID string `json:"id"`

	// Name is chosen by the caller and unique within the registry.
	Name string `json:"name"`

	// Key is the opaque token issued by the relay. It is immutable once stored.
	Key string `json:"key"`

	CreatedAt time.Time `json:"created_at"`
}

// KeyHint returns a short, log-safe prefix of the device key.
func (d *Device) KeyHint() string {
	if d == nil {
		return ""
	}
	if len(d.Key) <= keyHintLength {
		return "..."
	}
	return d.Key[:keyHintLength] + "..."
}

// Ref identifies a device either by value or by name.
//
// It is implemented by *Device and Name only. Operations that accept a Ref
// treat both forms interchangeably:
//
//	svc.SendMessage(ctx, device.Name("Phone"), "hello")
//	svc.SendMessage(ctx, dev, "hello") // dev is a *device.Device
type Ref interface {
	isRef()
}

// Name refers to a device by its registry name.
type Name string

func (Name) isRef() {}

func (*Device) isRef() {}

// String returns the name.
func (n Name) String() string {
	return string(n)
}

// RefName returns the name a Ref points at, for error messages and logs.
func RefName(ref Ref) string {
	switch r := ref.(type) {
	case Name:
		return string(r)
	case *Device:
		if r != nil {
			return r.Name
		}
	}
	return ""
}
