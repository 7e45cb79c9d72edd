package device

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Validation constants.
const (
	maxNameLength = 100

	// Relay keys are long GCM/FCM registration tokens; this is a generous cap.
	maxKeyLength = 4096
)

// ValidateName checks that a device name is usable as a registry key.
// Names are compared exactly; no case folding or trimming is applied.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidName)
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is blank", ErrInvalidName)
	}
	if !utf8.ValidString(name) {
		return fmt.Errorf("%w: name is not valid UTF-8", ErrInvalidName)
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidName, maxNameLength)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: name contains control characters", ErrInvalidName)
		}
	}
	return nil
}

// ValidateKey checks the shape of a relay key. It says nothing about
// whether the relay accepts the key.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: key is required", ErrInvalidKey)
	}
	if len(key) > maxKeyLength {
		return fmt.Errorf("%w: key exceeds %d bytes", ErrInvalidKey, maxKeyLength)
	}
	if strings.IndexFunc(key, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%w: key contains whitespace", ErrInvalidKey)
	}
	return nil
}

// GenerateID creates a new UUID for a device row.
func GenerateID() string {
	return uuid.New().String()
}
