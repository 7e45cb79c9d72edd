package device

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry is the name-keyed device catalogue.
//
// Reads go straight to the repository so that several processes sharing
// one database file always see each other's writes. Create holds a mutex
// across its existence checks and insert, which makes name uniqueness
// race-free within a process; the UNIQUE column covers the rest.
//
// All public methods are thread-safe.
type Registry struct {
	repo       Repository
	mu         sync.Mutex // Serialises check-then-write sequences
	uniqueKeys bool
	now        func() time.Time
	logger     Logger
}

// NewRegistry creates a new device registry over repo.
// Keys are required to be unique across devices unless
// SetUniqueKeys(false) is called.
func NewRegistry(repo Repository) *Registry {
	return &Registry{
		repo:       repo,
		uniqueKeys: true,
		now:        func() time.Time { return time.Now().UTC() },
		logger:     noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// SetUniqueKeys controls whether Create rejects a key that another device
// already holds.
func (r *Registry) SetUniqueKeys(unique bool) {
	r.mu.Lock()
	r.uniqueKeys = unique
	r.mu.Unlock()
}

// Create validates and stores a new device.
//
// Returns ErrInvalidName or ErrInvalidKey for malformed input, and
// ErrDeviceExists when the name is taken (or the key is, under the
// unique-key policy). The stored device is returned.
func (r *Registry) Create(ctx context.Context, name, key string) (*Device, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkAvailable(ctx, name, key); err != nil {
		return nil, err
	}

	device := &Device{
		ID:        GenerateID(),
		Name:      name,
		Key:       key,
		CreatedAt: r.now().Truncate(time.Second),
	}
	if err := r.repo.Create(ctx, device); err != nil {
		return nil, err
	}

	r.logger.Info("device created", "name", device.Name, "key", device.KeyHint())
	return device, nil
}

// checkAvailable reports ErrDeviceExists if name or key is already taken.
// Caller must hold r.mu.
func (r *Registry) checkAvailable(ctx context.Context, name, key string) error {
	_, err := r.repo.GetByName(ctx, name)
	switch {
	case err == nil:
		return fmt.Errorf("%w: name %q is taken", ErrDeviceExists, name)
	case !errors.Is(err, ErrDeviceNotFound):
		return err
	}

	if !r.uniqueKeys {
		return nil
	}

	holder, err := r.repo.GetByKey(ctx, key)
	switch {
	case err == nil:
		return fmt.Errorf("%w: key already belongs to %q", ErrDeviceExists, holder.Name)
	case !errors.Is(err, ErrDeviceNotFound):
		return err
	}
	return nil
}

// Exists reports whether a device with this name or key is already stored,
// using the same rules as Create.
func (r *Registry) Exists(ctx context.Context, name, key string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.checkAvailable(ctx, name, key)
	if errors.Is(err, ErrDeviceExists) {
		return true, nil
	}
	return false, err
}

// FindByName returns the device called name.
// Returns ErrDeviceNotFound if there is none.
func (r *Registry) FindByName(ctx context.Context, name string) (*Device, error) {
	return r.repo.GetByName(ctx, name)
}

// FindByKey returns the first device (by name) holding key.
// Returns ErrDeviceNotFound if there is none.
func (r *Registry) FindByKey(ctx context.Context, key string) (*Device, error) {
	return r.repo.GetByKey(ctx, key)
}

// List returns every device ordered by name.
func (r *Registry) List(ctx context.Context) ([]Device, error) {
	return r.repo.List(ctx)
}

// Delete removes the device called name.
// Returns ErrDeviceNotFound if there is none.
func (r *Registry) Delete(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.repo.Delete(ctx, name); err != nil {
		return err
	}

	r.logger.Info("device deleted", "name", name)
	return nil
}

// Resolve turns a Ref into a stored device.
//
// A *Device is returned unchanged without touching storage. A Name is
// looked up. A nil Ref or nil *Device yields ErrDeviceNotFound.
func (r *Registry) Resolve(ctx context.Context, ref Ref) (*Device, error) {
	switch v := ref.(type) {
	case *Device:
		if v == nil {
			return nil, ErrDeviceNotFound
		}
		return v, nil
	case Name:
		return r.FindByName(ctx, string(v))
	default:
		return nil, ErrDeviceNotFound
	}
}
