package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"sessionbot/events"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

const (
	// EventStreamName is the JetStream stream holding forwarded domain events
	EventStreamName = "SESSIONBOT_EVENTS"

	eventSubjectPrefix = "sessionbot.events."
	sourceService      = "sessionbot"
	publishTimeout     = 5 * time.Second
)

// EventEnvelope wraps a domain event on the wire
type EventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	Timestamp     time.Time       `json:"timestamp"`
	SourceService string          `json:"source_service"`
	Payload       json.RawMessage `json:"payload"`
}

// SubjectFor maps an event type to its NATS subject
func SubjectFor(eventType events.EventType) string {
	return eventSubjectPrefix + string(eventType)
}

// EventSubjects returns every subject the bot publishes to
func EventSubjects() []string {
	subjects := make([]string, 0, len(events.AllEventTypes))
	for _, eventType := range events.AllEventTypes {
		subjects = append(subjects, SubjectFor(eventType))
	}
	return subjects
}

// PublishCounter counts forwarded events
type PublishCounter interface {
	RecordEventPublished(eventType string)
}

// NATSEventPublisher forwards domain events to NATS
type NATSEventPublisher struct {
	publisher MessagePublisher
	counter   PublishCounter
}

// NewNATSEventPublisher creates a new NATS event publisher. counter may be nil.
func NewNATSEventPublisher(publisher MessagePublisher, counter PublishCounter) *NATSEventPublisher {
	return &NATSEventPublisher{
		publisher: publisher,
		counter:   counter,
	}
}

// Publish wraps the event in an envelope and publishes it to its subject
func (p *NATSEventPublisher) Publish(ctx context.Context, event events.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	envelope := EventEnvelope{
		EventID:       uuid.New().String(),
		EventType:     string(event.Type()),
		Timestamp:     time.Now().UTC(),
		SourceService: sourceService,
		Payload:       payload,
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal event envelope: %w", err)
	}

	subject := SubjectFor(event.Type())
	if err := p.publisher.Publish(ctx, subject, envelope.EventID, data); err != nil {
		// No stream bound to the subject; the event has no consumers
		if errors.Is(err, nats.ErrNoStreamResponse) {
			return nil
		}
		return fmt.Errorf("failed to publish event to NATS: %w", err)
	}

	if p.counter != nil {
		p.counter.RecordEventPublished(envelope.EventType)
	}

	log.WithFields(log.Fields{
		"eventType": event.Type(),
		"eventId":   envelope.EventID,
		"subject":   subject,
	}).Debug("Published event to NATS")
	return nil
}

// Forward subscribes to every event type on the bus and publishes each event to NATS.
// Failures are logged; the bus has already committed the change the event describes.
func (p *NATSEventPublisher) Forward(bus *events.Bus) {
	bus.SubscribeAll(func(ctx context.Context, event events.Event) {
		ctx, cancel := context.WithTimeout(ctx, publishTimeout)
		defer cancel()

		if err := p.Publish(ctx, event); err != nil {
			log.WithFields(log.Fields{
				"eventType": event.Type(),
				"error":     err,
			}).Error("Failed to forward event to NATS")
		}
	})
}
