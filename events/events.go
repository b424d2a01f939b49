package events

import (
	"context"
	"sync"

	"sessionbot/models"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange         EventType = "balance_change"
	EventTypeUserCreated           EventType = "user_created"
	EventTypeNumberPurchased       EventType = "number_purchased"
	EventTypeReservationRolledBack EventType = "reservation_rolled_back"
	EventTypePaymentVerified       EventType = "payment_verified"
)

// AllEventTypes lists every event type emitted by the services
var AllEventTypes = []EventType{
	EventTypeBalanceChange,
	EventTypeUserCreated,
	EventTypeNumberPurchased,
	EventTypeReservationRolledBack,
	EventTypePaymentVerified,
}

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent represents a balance change that occurred
type BalanceChangeEvent struct {
	UserID          int64                  `json:"user_id"`
	OldBalance      int64                  `json:"old_balance"`
	NewBalance      int64                  `json:"new_balance"`
	TransactionType models.TransactionType `json:"transaction_type"`
	ChangeAmount    int64                  `json:"change_amount"`
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// UserCreatedEvent represents a new user creation
type UserCreatedEvent struct {
	UserID     int64  `json:"user_id"`
	Username   string `json:"username"`
	FirstName  string `json:"first_name"`
	ReferredBy *int64 `json:"referred_by,omitempty"`
}

func (e UserCreatedEvent) Type() EventType {
	return EventTypeUserCreated
}

// NumberPurchasedEvent represents a completed sale
type NumberPurchasedEvent struct {
	UserID           int64  `json:"user_id"`
	NumberID         int64  `json:"number_id"`
	Platform         string `json:"platform"`
	Country          string `json:"country"`
	PhoneNumber      string `json:"phone_number"`
	Price            int64  `json:"price"`
	RemainingBalance int64  `json:"remaining_balance"`
}

func (e NumberPurchasedEvent) Type() EventType {
	return EventTypeNumberPurchased
}

// ReservationRolledBackEvent represents a compensating release after a failed debit.
// Released is false when the record still needs manual reconciliation.
type ReservationRolledBackEvent struct {
	UserID   int64  `json:"user_id"`
	NumberID int64  `json:"number_id"`
	Price    int64  `json:"price"`
	Reason   string `json:"reason"`
	Released bool   `json:"released"`
}

func (e ReservationRolledBackEvent) Type() EventType {
	return EventTypeReservationRolledBack
}

// PaymentVerifiedEvent represents a recharge credited to a wallet
type PaymentVerifiedEvent struct {
	UserID     int64  `json:"user_id"`
	PaymentID  int64  `json:"payment_id"`
	Reference  string `json:"reference"`
	Amount     int64  `json:"amount"`
	NewBalance int64  `json:"new_balance"`
}

func (e PaymentVerifiedEvent) Type() EventType {
	return EventTypePaymentVerified
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// SubscribeAll adds a handler for every known event type
func (b *Bus) SubscribeAll(handler Handler) {
	for _, eventType := range AllEventTypes {
		b.Subscribe(eventType, handler)
	}
}

// Emit dispatches an event to all registered handlers, each on its own goroutine
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event")

	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// Publish emits the event immediately, for publishers outside a unit of work
func (b *Bus) Publish(event Event) {
	b.Emit(context.Background(), event)
}

// TransactionalBus holds events raised inside a unit of work until it commits.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Pending returns the events waiting for commit
func (b *TransactionalBus) Pending() []Event {
	return b.pending
}

// Flush is called after a successful commit. Events are emitted with a background
// context because the transaction context may already be done.
func (b *TransactionalBus) Flush() {
	log.WithField("pendingEventCount", len(b.pending)).Debug("Flushing pending events")

	for _, ev := range b.pending {
		b.real.Emit(context.Background(), ev)
	}
	b.pending = nil
}

// Discard is called after a rollback
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
