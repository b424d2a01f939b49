package balance

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"sessionbot/bot/common"
	"sessionbot/models"
	"sessionbot/service"
	"sessionbot/session"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	log "github.com/sirupsen/logrus"
)

// HandleBalance shows the wallet summary for /balance and the balance button
func (f *Feature) HandleBalance(ctx context.Context, update telego.Update) error {
	common.Answer(ctx, f.messenger, common.CallbackID(update), "")
	sender, ok := common.SenderOf(update)
	if !ok {
		return nil
	}

	user, err := f.userService.GetOrCreateUser(ctx, sender.ID, sender.Username, sender.FirstName, "")
	if err != nil {
		common.RespondWithError(ctx, f.messenger, sender.ID)
		return fmt.Errorf("failed to load balance for user %d: %w", sender.ID, err)
	}

	keyboard := tu.InlineKeyboard(
		tu.InlineKeyboardRow(tu.InlineKeyboardButton("💳 Recharge Wallet").WithCallbackData(common.CallbackRecharge)),
		tu.InlineKeyboardRow(tu.InlineKeyboardButton("📜 History").WithCallbackData(common.CallbackHistory)),
		tu.InlineKeyboardRow(tu.InlineKeyboardButton("🔙 Back").WithCallbackData(common.CallbackMainMenu)),
	)
	common.Reply(ctx, f.messenger, sender.ID, common.FormatBalance(user, f.paymentService.MinRecharge()), keyboard)
	return nil
}

// HandleHistory shows the ledger balance with recent balance changes and recharges
func (f *Feature) HandleHistory(ctx context.Context, update telego.Update) error {
	common.Answer(ctx, f.messenger, common.CallbackID(update), "")
	sender, ok := common.SenderOf(update)
	if !ok {
		return nil
	}

	balance, err := f.ledgerService.GetBalance(ctx, sender.ID)
	if err != nil {
		common.RespondWithError(ctx, f.messenger, sender.ID)
		return fmt.Errorf("failed to load balance for user %d: %w", sender.ID, err)
	}

	entries, err := f.ledgerService.History(ctx, sender.ID, historyLimit)
	if err != nil {
		common.RespondWithError(ctx, f.messenger, sender.ID)
		return fmt.Errorf("failed to load history for user %d: %w", sender.ID, err)
	}

	payments, err := f.paymentService.RecentRecharges(ctx, sender.ID, historyLimit)
	if err != nil {
		common.RespondWithError(ctx, f.messenger, sender.ID)
		return fmt.Errorf("failed to load recharges for user %d: %w", sender.ID, err)
	}

	common.Reply(ctx, f.messenger, sender.ID,
		common.FormatHistory(balance, entries, payments),
		common.BackButton(common.CallbackBalance))
	return nil
}

// HandleRecharge asks for an amount and waits for it
func (f *Feature) HandleRecharge(ctx context.Context, update telego.Update) error {
	common.Answer(ctx, f.messenger, common.CallbackID(update), "")
	sender, ok := common.SenderOf(update)
	if !ok {
		return nil
	}

	if err := f.states.Set(ctx, sender.ID, session.State{Step: session.StepAwaitingRechargeAmount}); err != nil {
		common.RespondWithError(ctx, f.messenger, sender.ID)
		return fmt.Errorf("failed to start recharge for user %d: %w", sender.ID, err)
	}

	common.Reply(ctx, f.messenger, sender.ID, fmt.Sprintf("<b>💳 Recharge Wallet</b>\n\n"+
		"<b>Minimum Recharge:</b> ₹%d\n\n"+
		"Please enter the amount you want to recharge in rupees.\n"+
		"<b>Example:</b> <code>50</code>", f.paymentService.MinRecharge()), nil)
	return nil
}

// HandleAmount reads a recharge amount typed while a recharge is pending
func (f *Feature) HandleAmount(ctx context.Context, update telego.Update) error {
	sender, ok := common.SenderOf(update)
	if !ok {
		return nil
	}

	rupees, err := strconv.ParseInt(strings.TrimSpace(update.Message.Text), 10, 64)
	if err != nil {
		common.Reply(ctx, f.messenger, sender.ID, "❌ Please enter a valid number only!", nil)
		return nil
	}

	link, err := f.paymentService.InitiateRecharge(ctx, sender.ID, rupees)
	if errors.Is(err, service.ErrRechargeBelowMinimum) {
		minimum := f.paymentService.MinRecharge()
		common.Reply(ctx, f.messenger, sender.ID, fmt.Sprintf(
			"❌ Minimum recharge amount is ₹%d. Please enter %d or more.", minimum, minimum), nil)
		return nil
	}
	if err != nil {
		common.Reply(ctx, f.messenger, sender.ID, "❌ Payment gateway error. Try again later.", nil)
		return fmt.Errorf("failed to create recharge for user %d: %w", sender.ID, err)
	}

	if err := f.states.Clear(ctx, sender.ID); err != nil {
		log.WithFields(log.Fields{
			"userID": sender.ID,
			"error":  err,
		}).Warn("Failed to clear recharge state")
	}

	keyboard := tu.InlineKeyboard(
		tu.InlineKeyboardRow(tu.InlineKeyboardButton("📱 Payment Link").WithURL(link.ShortURL)),
		tu.InlineKeyboardRow(tu.InlineKeyboardButton("✅ Payment Done").WithCallbackData(common.PrefixPaymentDone+link.ID)),
	)
	f.sendPaymentLink(ctx, sender.ID, link, keyboard)
	return nil
}

// sendPaymentLink sends the link as a QR card, falling back to plain text
func (f *Feature) sendPaymentLink(ctx context.Context, chatID int64, link *models.PaymentLink, keyboard *telego.InlineKeyboardMarkup) {
	caption := common.FormatPaymentLink(link)
	fields := log.Fields{
		"userID":    chatID,
		"reference": link.ID,
	}

	card, err := f.cards.Render(link.ShortURL, link.Amount)
	if err == nil {
		err = common.ReplyPhoto(ctx, f.messenger, chatID, card, "recharge.png", caption, keyboard)
		if err == nil {
			return
		}
	}

	fields["error"] = err
	log.WithFields(fields).Warn("Failed to send payment QR code, sending text link")
	common.Reply(ctx, f.messenger, chatID, caption, keyboard)
}

// HandlePaymentDone checks a recharge with the gateway and credits it once paid
func (f *Feature) HandlePaymentDone(ctx context.Context, update telego.Update) error {
	sender, ok := common.SenderOf(update)
	if !ok {
		return nil
	}
	callbackID := common.CallbackID(update)
	reference := common.CallbackSuffix(update, common.PrefixPaymentDone)

	payment, err := f.paymentService.VerifyRecharge(ctx, sender.ID, reference)
	switch {
	case errors.Is(err, service.ErrPaymentNotPaid):
		common.Answer(ctx, f.messenger, callbackID, "⏳ Payment not received yet. Please complete it and try again.")
		return nil
	case errors.Is(err, service.ErrPaymentNotFound), errors.Is(err, service.ErrPaymentNotOwned):
		common.Answer(ctx, f.messenger, callbackID, "❌ Payment not found!")
		return nil
	case err != nil:
		common.Answer(ctx, f.messenger, callbackID, "")
		common.RespondWithError(ctx, f.messenger, sender.ID)
		return fmt.Errorf("failed to verify payment %s: %w", reference, err)
	}

	// The credit notification itself is sent by the PaymentVerifiedEvent subscriber
	common.Answer(ctx, f.messenger, callbackID, fmt.Sprintf("✅ Payment of %s verified!", models.FormatINR(payment.Amount)))
	return nil
}
