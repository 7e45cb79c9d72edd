package mqtt

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nerrad567/autoremote/internal/autoremote"
)

// publisher is the part of Client used by EventPublisher.
type publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// EventPublisher forwards autoremote lifecycle events to the broker as JSON.
// Events are not retained.
type EventPublisher struct {
	client publisher
	topics Topics
	qos    byte
}

// NewEventPublisher publishes through client using the prefix and QoS
// from cfg.
func NewEventPublisher(client *Client) *EventPublisher {
	return &EventPublisher{
		client: client,
		topics: NewTopics(client.cfg.TopicPrefix),
		qos:    byte(client.cfg.QoS), //nolint:gosec // QoS validated by config (0-2)
	}
}

// Publish implements autoremote.Publisher.
func (p *EventPublisher) Publish(ctx context.Context, event autoremote.Event) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%w: encoding event: %w", ErrPublishFailed, err)
	}

	return p.client.Publish(p.topics.Event(event.Type), payload, p.qos, false)
}
