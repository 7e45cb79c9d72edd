package mqtt

import "strings"

// DefaultTopicPrefix is used when no prefix is configured.
const DefaultTopicPrefix = "autoremote"

// Topics builds AutoRemote MQTT topic names under a configurable prefix.
//
//	topics := mqtt.NewTopics("home/autoremote")
//	topics.Event("message.sent")
//	// Returns: "home/autoremote/events/message.sent"
type Topics struct {
	prefix string
}

// NewTopics returns topic builders rooted at prefix. Surrounding slashes
// are ignored; an empty prefix selects DefaultTopicPrefix.
func NewTopics(prefix string) Topics {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{prefix: prefix}
}

// root returns the topic prefix, defaulting for the zero Topics.
func (t Topics) root() string {
	if t.prefix == "" {
		return DefaultTopicPrefix
	}
	return t.prefix
}

// Event returns the topic for one event type.
func (t Topics) Event(eventType string) string {
	return t.root() + "/events/" + eventType
}
