package autoremote

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"
	"unicode/utf8"

	"github.com/nerrad567/autoremote/internal/device"
	"github.com/nerrad567/autoremote/internal/hostinfo"
	"github.com/nerrad567/autoremote/internal/remote"
)

const (
	// minRemoteHostLength is the shortest public host accepted by RegisterOnDevice.
	minRemoteHostLength = 5

	publishTimeout = 5 * time.Second
)

// Operation names used in errors, logs and metrics.
const (
	opAddDevice    = "add_device"
	opRemoveDevice = "remove_device"
	opGetDevice    = "get_device"
	opListDevices  = "list_devices"
	opSendMessage  = "send_message"
	opRegister     = "register"
	opValidateKey  = "validate_key"
	opResolveShort = "resolve_short_link"
)

// Input fields named in errors.
const (
	fieldKey        = "key"
	fieldName       = "name"
	fieldMessage    = "message"
	fieldRemoteHost = "remote_host"
)

// DefaultShortLinkPattern recognises shortened personal URLs such as
// goo.gl/AbC123, with or without a scheme.
var DefaultShortLinkPattern = regexp.MustCompile(`(?i)^(https?://)?[a-z0-9-]+(\.[a-z0-9-]+)+(:\d+)?/\S+$`)

// Relay is the subset of the relay client the Service needs.
// *remote.Client satisfies it.
type Relay interface {
	ValidateKey(ctx context.Context, key string) (*remote.Result, error)
	SendMessage(ctx context.Context, key, sender, message string) (*remote.Result, error)
	RegisterDevice(ctx context.Context, reg remote.Registration) (*remote.Result, error)
	ResolveShortLink(ctx context.Context, raw string) (*remote.Result, error)
}

// Service is the entry point for every AutoRemote operation.
//
// It holds no per-call state; each method depends only on the registry
// contents and its arguments.
type Service struct {
	registry   *device.Registry
	relay      Relay
	env        hostinfo.Environment
	shortLink  *regexp.Regexp
	publishers []Publisher
	recorder   Recorder
	logger     Logger
	now        func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPublisher adds a lifecycle event sink. Sinks receive events in the
// order they were added.
func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publishers = append(s.publishers, p)
		}
	}
}

// WithRecorder sets the relay call metrics sink.
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithShortLinkPattern replaces DefaultShortLinkPattern.
func WithShortLinkPattern(re *regexp.Regexp) Option {
	return func(s *Service) {
		if re != nil {
			s.shortLink = re
		}
	}
}

// New creates a Service.
func New(registry *device.Registry, relay Relay, env hostinfo.Environment, opts ...Option) *Service {
	s := &Service{
		registry:  registry,
		relay:     relay,
		env:       env,
		shortLink: DefaultShortLinkPattern,
		recorder:  noopRecorder{},
		logger:    noopLogger{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IsShortLink reports whether input looks like a shortened personal URL
// rather than a raw key.
func (s *Service) IsShortLink(input string) bool {
	return s.shortLink.MatchString(input)
}

// AddDevice registers a device under name.
//
// input is either the raw key or a short link to the device's personal
// URL. A raw key must be accepted by the relay; a short link must
// redirect to a URL carrying a key. Returns ErrInvalidKey otherwise, and
// ErrDeviceAlreadyExists if the name or key is already registered.
func (s *Service) AddDevice(ctx context.Context, name, input string) (*device.Device, error) {
	if err := device.ValidateName(name); err != nil {
		return nil, opError(opAddDevice, name, fieldName, invalidArgument(err))
	}

	key, err := s.keyFromInput(ctx, name, input)
	if err != nil {
		return nil, opError(opAddDevice, name, fieldKey, err)
	}

	exists, err := s.registry.Exists(ctx, name, key)
	if err != nil {
		return nil, opError(opAddDevice, name, "", err)
	}
	if exists {
		return nil, opError(opAddDevice, name, "", ErrDeviceAlreadyExists)
	}

	dev, err := s.registry.Create(ctx, name, key)
	if err != nil {
		if errors.Is(err, device.ErrInvalidKey) {
			err = fmt.Errorf("%w: %w", ErrInvalidKey, err)
		}
		return nil, opError(opAddDevice, name, "", err)
	}

	s.logger.Info("device added", "device", dev.Name, "key", dev.KeyHint())
	s.publish(ctx, EventDeviceAdded, dev.Name, nil)
	return dev, nil
}

// keyFromInput turns AddDevice input into a relay-approved key.
func (s *Service) keyFromInput(ctx context.Context, name, input string) (string, error) {
	if s.IsShortLink(input) {
		start := time.Now()
		res, err := s.relay.ResolveShortLink(ctx, input)
		s.recorder.RecordCall(opResolveShort, name, err == nil, time.Since(start))
		if err != nil {
			return "", err
		}

		key, ok := remote.KeyFromURL(res.FinalURL)
		if !ok {
			return "", fmt.Errorf("%w: short link did not lead to a personal URL", ErrInvalidKey)
		}
		if err := device.ValidateKey(key); err != nil {
			return "", fmt.Errorf("%w: %w", ErrInvalidKey, err)
		}
		return key, nil
	}

	if err := device.ValidateKey(input); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}

	start := time.Now()
	res, err := s.relay.ValidateKey(ctx, input)
	s.recorder.RecordCall(opValidateKey, name, err == nil && res.OK(), time.Since(start))
	if err != nil {
		return "", err
	}
	if !res.OK() {
		return "", ErrInvalidKey
	}
	return input, nil
}

// RemoveDevice deletes the device called name.
// Returns ErrDeviceNotFound if there is none.
func (s *Service) RemoveDevice(ctx context.Context, name string) error {
	if err := s.registry.Delete(ctx, name); err != nil {
		return opError(opRemoveDevice, name, "", err)
	}

	s.logger.Info("device removed", "device", name)
	s.publish(ctx, EventDeviceRemoved, name, nil)
	return nil
}

// ListDevices returns every registered device ordered by name.
func (s *Service) ListDevices(ctx context.Context) ([]device.Device, error) {
	devices, err := s.registry.List(ctx)
	if err != nil {
		return nil, opError(opListDevices, "", "", err)
	}
	return devices, nil
}

// GetDevice looks up a device by name. A missing device is reported as
// found == false with a nil error.
func (s *Service) GetDevice(ctx context.Context, name string) (*device.Device, bool, error) {
	dev, err := s.registry.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			return nil, false, nil
		}
		return nil, false, opError(opGetDevice, name, "", err)
	}
	return dev, true, nil
}

// SendMessage delivers message to the device ref points at, with this
// host's name as the sender.
//
// message must be non-empty valid UTF-8 (ErrInvalidArgument). A message
// the relay does not acknowledge yields ErrInvalidKey.
func (s *Service) SendMessage(ctx context.Context, ref device.Ref, message string) error {
	refName := device.RefName(ref)

	dev, err := s.registry.Resolve(ctx, ref)
	if err != nil {
		return opError(opSendMessage, refName, "", err)
	}

	if message == "" {
		return opError(opSendMessage, dev.Name, fieldMessage,
			fmt.Errorf("%w: message is empty", ErrInvalidArgument))
	}
	if !utf8.ValidString(message) {
		return opError(opSendMessage, dev.Name, fieldMessage,
			fmt.Errorf("%w: message is not valid UTF-8", ErrInvalidArgument))
	}

	sender, err := s.env.Hostname(ctx)
	if err != nil {
		return opError(opSendMessage, dev.Name, "", err)
	}

	start := time.Now()
	res, err := s.relay.SendMessage(ctx, dev.Key, sender, message)
	ok := err == nil && res.OK()
	s.recorder.RecordCall(opSendMessage, dev.Name, ok, time.Since(start))
	if err != nil {
		return opError(opSendMessage, dev.Name, "", err)
	}
	if !ok {
		s.logger.Warn("relay rejected message", "device", dev.Name, "status", res.StatusCode)
		return opError(opSendMessage, dev.Name, fieldKey, ErrInvalidKey)
	}

	s.logger.Debug("message sent", "device", dev.Name, "bytes", len(message))
	s.publish(ctx, EventMessageSent, dev.Name, map[string]string{"sender": sender})
	return nil
}

// RegisterOnDevice registers this host on the device ref points at, so the
// device can reach it at remoteHost from outside the LAN or at the host's
// private IPv4 address from inside it.
//
// remoteHost shorter than five characters yields ErrInvalidArgument before
// any network call. A refused registration yields ErrRegistrationFailed.
func (s *Service) RegisterOnDevice(ctx context.Context, ref device.Ref, remoteHost string) error {
	refName := device.RefName(ref)

	dev, err := s.registry.Resolve(ctx, ref)
	if err != nil {
		return opError(opRegister, refName, "", err)
	}

	if utf8.RuneCountInString(remoteHost) < minRemoteHostLength {
		return opError(opRegister, dev.Name, fieldRemoteHost,
			fmt.Errorf("%w: remote host must be at least %d characters", ErrInvalidArgument, minRemoteHostLength))
	}

	hostname, err := s.env.Hostname(ctx)
	if err != nil {
		return opError(opRegister, dev.Name, "", err)
	}
	localIP, err := s.env.LocalIPv4(ctx)
	if err != nil {
		return opError(opRegister, dev.Name, "", err)
	}

	start := time.Now()
	res, err := s.relay.RegisterDevice(ctx, remote.Registration{
		Key:        dev.Key,
		ID:         hostname,
		Name:       hostname,
		PublicHost: remoteHost,
		LocalIP:    localIP,
	})
	ok := err == nil && res.OK()
	s.recorder.RecordCall(opRegister, dev.Name, ok, time.Since(start))
	if err != nil {
		return opError(opRegister, dev.Name, "", err)
	}
	if !ok {
		s.logger.Warn("relay refused registration", "device", dev.Name, "status", res.StatusCode)
		return opError(opRegister, dev.Name, "", ErrRegistrationFailed)
	}

	s.logger.Info("registered on device", "device", dev.Name, "host", hostname, "local_ip", localIP)
	s.publish(ctx, EventDeviceRegistered, dev.Name, map[string]string{
		"host":        hostname,
		"local_ip":    localIP,
		"public_host": remoteHost,
	})
	return nil
}

// publish hands an event to every publisher, logging any failure.
func (s *Service) publish(ctx context.Context, eventType, deviceName string, detail map[string]string) {
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	event := Event{
		Type:   eventType,
		Device: deviceName,
		Time:   s.now().UTC(),
		Detail: detail,
	}
	for _, p := range s.publishers {
		if err := p.Publish(pubCtx, event); err != nil {
			s.logger.Warn("event publish failed", "type", eventType, "device", deviceName, "error", err)
		}
	}
}
