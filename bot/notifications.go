package bot

import (
	"context"
	"fmt"
	"time"

	"sessionbot/bot/common"
	"sessionbot/events"
	"sessionbot/models"

	log "github.com/sirupsen/logrus"
)

const notifyTimeout = 10 * time.Second

// Notifier turns committed domain events into Telegram messages
type Notifier struct {
	messenger    common.Messenger
	logChannelID int64
}

func NewNotifier(messenger common.Messenger, logChannelID int64) *Notifier {
	return &Notifier{
		messenger:    messenger,
		logChannelID: logChannelID,
	}
}

// Subscribe registers the notifier on the bus
func (n *Notifier) Subscribe(bus *events.Bus) {
	bus.Subscribe(events.EventTypePaymentVerified, n.onPaymentVerified)
	if n.logChannelID == 0 {
		log.Info("LOG_CHANNEL_ID not set, purchase log disabled")
		return
	}
	bus.Subscribe(events.EventTypeNumberPurchased, n.onNumberPurchased)
	bus.Subscribe(events.EventTypeReservationRolledBack, n.onReservationRolledBack)
}

func (n *Notifier) onNumberPurchased(ctx context.Context, event events.Event) {
	e, ok := event.(events.NumberPurchasedEvent)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()

	common.Reply(ctx, n.messenger, n.logChannelID,
		common.FormatPurchaseLog(e.UserID, e.PhoneNumber, e.Platform, e.Country, e.Price, e.RemainingBalance), nil)
}

func (n *Notifier) onPaymentVerified(ctx context.Context, event events.Event) {
	e, ok := event.(events.PaymentVerifiedEvent)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()

	common.Reply(ctx, n.messenger, e.UserID, fmt.Sprintf(
		"✅ Recharge successful! %s has been added to your wallet.\n<b>New Balance:</b> %s",
		models.FormatINR(e.Amount), models.FormatINR(e.NewBalance)),
		common.BackButton(common.CallbackMainMenu))
}

// onReservationRolledBack alerts the log channel when a record is stuck reserved
func (n *Notifier) onReservationRolledBack(ctx context.Context, event events.Event) {
	e, ok := event.(events.ReservationRolledBackEvent)
	if !ok || e.Released {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()

	common.Reply(ctx, n.messenger, n.logChannelID, fmt.Sprintf(
		"⚠️ Number <code>%d</code> is reserved for user <code>%d</code> but was not charged. Run /reconcile.",
		e.NumberID, e.UserID), nil)
}
