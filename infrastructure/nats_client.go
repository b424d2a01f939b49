package infrastructure

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

// StreamSettings bounds the event stream
type StreamSettings struct {
	MaxAge      time.Duration
	MaxMsgs     int64
	DedupWindow time.Duration
}

// DefaultStreamSettings keeps a week of events and drops redeliveries seen within two minutes
var DefaultStreamSettings = StreamSettings{
	MaxAge:      7 * 24 * time.Hour,
	MaxMsgs:     1_000_000,
	DedupWindow: 2 * time.Minute,
}

// NATSClient publishes domain events to NATS JetStream
type NATSClient struct {
	servers              string
	nc                   *nats.Conn
	js                   nats.JetStreamContext
	reconnectDelay       time.Duration
	maxReconnectAttempts int
}

func NewNATSClient(servers string) *NATSClient {
	return &NATSClient{
		servers:              servers,
		reconnectDelay:       2 * time.Second,
		maxReconnectAttempts: 10,
	}
}

// Connect dials the servers and opens a JetStream context
func (c *NATSClient) Connect() error {
	nc, err := nats.Connect(c.servers,
		nats.Name(sourceService),
		nats.MaxReconnects(c.maxReconnectAttempts),
		nats.ReconnectWait(c.reconnectDelay),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.WithError(err).Warn("NATS disconnected, buffering event publishes")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.WithField("server", nc.ConnectedUrlRedacted()).Info("NATS reconnected")
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	c.nc = nc
	c.js = js
	log.WithField("servers", c.servers).Info("Connected to NATS JetStream")
	return nil
}

// Close drains pending publishes and closes the connection
func (c *NATSClient) Close() error {
	if c.nc == nil {
		return nil
	}
	if err := c.nc.Drain(); err != nil {
		c.nc.Close()
		return fmt.Errorf("failed to drain NATS connection: %w", err)
	}
	return nil
}

func (c *NATSClient) IsConnected() bool {
	return c.nc != nil && c.nc.IsConnected()
}

// EnsureStream creates the event stream, or widens an existing one whose subjects
// predate newer event types.
func (c *NATSClient) EnsureStream(streamName string, subjects []string, settings StreamSettings) error {
	if c.js == nil {
		return fmt.Errorf("not connected to NATS JetStream")
	}

	cfg := &nats.StreamConfig{
		Name:        streamName,
		Description: "sessionbot domain events",
		Subjects:    subjects,
		Retention:   nats.LimitsPolicy,
		Storage:     nats.FileStorage,
		MaxAge:      settings.MaxAge,
		MaxMsgs:     settings.MaxMsgs,
		Duplicates:  settings.DedupWindow,
		Replicas:    1,
	}

	info, err := c.js.StreamInfo(streamName)
	switch {
	case err == nil && sameSubjects(info.Config.Subjects, subjects):
		log.WithField("stream", streamName).Debug("JetStream stream up to date")
		return nil
	case err == nil:
		if _, err := c.js.UpdateStream(cfg); err != nil {
			return fmt.Errorf("failed to update stream %s: %w", streamName, err)
		}
		log.WithFields(log.Fields{
			"stream":   streamName,
			"subjects": subjects,
		}).Info("Updated JetStream stream subjects")
		return nil
	}

	if _, err := c.js.AddStream(cfg); err != nil {
		return fmt.Errorf("failed to create stream %s: %w", streamName, err)
	}
	log.WithFields(log.Fields{
		"stream":   streamName,
		"subjects": subjects,
	}).Info("Created JetStream stream")
	return nil
}

// Publish sends data with msgID as the JetStream deduplication id
func (c *NATSClient) Publish(ctx context.Context, subject, msgID string, data []byte) error {
	if c.js == nil {
		return fmt.Errorf("not connected to NATS JetStream")
	}

	ack, err := c.js.Publish(subject, data, nats.Context(ctx), nats.MsgId(msgID))
	if err != nil {
		return fmt.Errorf("failed to publish message to subject %s: %w", subject, err)
	}
	if ack.Duplicate {
		log.WithField("msgID", msgID).Debug("Stream dropped duplicate event")
	}
	return nil
}

func sameSubjects(a, b []string) bool {
	a, b = slices.Clone(a), slices.Clone(b)
	slices.Sort(a)
	slices.Sort(b)
	return slices.Equal(a, b)
}
