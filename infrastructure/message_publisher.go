package infrastructure

import (
	"context"
)

// MessagePublisher sends one message to a subject. msgID identifies the message so the
// broker can drop redeliveries of the same event.
type MessagePublisher interface {
	Publish(ctx context.Context, subject, msgID string, data []byte) error
}
