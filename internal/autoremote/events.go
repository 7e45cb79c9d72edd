package autoremote

import (
	"context"
	"time"
)

// Event types published after successful operations.
const (
	EventDeviceAdded      = "device.added"
	EventDeviceRemoved    = "device.removed"
	EventMessageSent      = "message.sent"
	EventDeviceRegistered = "device.registered"
)

// Event describes a completed operation. It never carries a device key.
type Event struct {
	Type   string            `json:"type"`
	Device string            `json:"device"`
	Time   time.Time         `json:"time"`
	Detail map[string]string `json:"detail,omitempty"`
}

// Publisher receives lifecycle events. Failures are logged by the Service
// and never fail the operation that produced the event.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Recorder receives one sample per relay call.
type Recorder interface {
	RecordCall(op, device string, ok bool, latency time.Duration)
}

// Logger defines the logging interface used by the Service.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

type noopRecorder struct{}

func (noopRecorder) RecordCall(string, string, bool, time.Duration) {}
