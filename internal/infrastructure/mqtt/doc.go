// Package mqtt publishes AutoRemote lifecycle events to an MQTT broker.
//
// When enabled in config, every successful add, remove, send and register
// produces one JSON message on <topic_prefix>/events/<type>, for example:
//
//	autoremote/events/message.sent
//	{"type":"message.sent","device":"Phone","time":"2026-03-01T12:00:00Z","detail":{"sender":"laptop"}}
//
// Keys never appear in payloads.
//
// # Security Considerations
//
//   - Use TLS (cfg.Broker.TLS=true) for brokers outside localhost
//   - Credentials come from config or AUTOREMOTE_MQTT_USERNAME/PASSWORD
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	svc := autoremote.New(registry, relay, env,
//	    autoremote.WithPublisher(mqtt.NewEventPublisher(client)),
//	)
package mqtt
