// Package device provides the local device registry for AutoRemote.
//
// A device is a name bound to the opaque key the AutoRemote relay uses to
// reach one phone or tablet. The registry persists these bindings in SQLite
// and enforces that names (and, by default, keys) are unique.
//
// # Architecture
//
//	┌──────────────────┐    ┌──────────────────┐    ┌──────────────────┐
//	│     Registry     │    │    Repository    │    │    Validation    │
//	│   (registry.go)  │───▶│  (repository.go) │    │ (validation.go)  │
//	│                  │    │                  │    │                  │
//	│ • Create/Delete  │    │ • SQLite queries │    │ • Name checks    │
//	│ • Ref resolution │    │ • Unique names   │    │ • Key shape      │
//	└──────────────────┘    └──────────────────┘    └──────────────────┘
//
// # Usage
//
//	repo := device.NewSQLiteRepository(db.DB)
//	registry := device.NewRegistry(repo)
//	registry.SetLogger(log)
//
//	dev, err := registry.Create(ctx, "Phone", key)
//	if errors.Is(err, device.ErrDeviceExists) {
//	    // name or key already registered
//	}
//
//	dev, err = registry.Resolve(ctx, device.Name("Phone"))
//
// # Thread Safety
//
// All Registry methods are safe for concurrent use.
package device
