package admin

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"sessionbot/bot/common"
	"sessionbot/models"
	"sessionbot/service"
	"sessionbot/session"

	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"
)

const (
	replyAdminOnly = "❌ Admin access required!"
	usageAddFile   = "<b>📁 Add Number File</b>\n\n" +
		"Usage: <code>/addfile platform country price</code>\n" +
		"Example: <code>/addfile telegram india 10</code>\n\n" +
		"Then send the ZIP file."
)

// requireAdmin replies and returns false unless the sender is an admin
func (f *Feature) requireAdmin(ctx context.Context, update telego.Update) (common.Sender, bool, error) {
	sender, ok := common.SenderOf(update)
	if !ok {
		return sender, false, nil
	}

	isAdmin, err := f.userService.IsAdmin(ctx, sender.ID)
	if err != nil {
		common.RespondWithError(ctx, f.messenger, sender.ID)
		return sender, false, fmt.Errorf("failed to check admin %d: %w", sender.ID, err)
	}
	if !isAdmin {
		common.Reply(ctx, f.messenger, sender.ID, replyAdminOnly, nil)
		return sender, false, nil
	}
	return sender, true, nil
}

// singleID parses the lone numeric argument of a command
func (f *Feature) singleID(ctx context.Context, chatID int64, text, usage string) (int64, bool) {
	args := common.CommandArgs(text)
	if len(args) != 1 {
		common.Reply(ctx, f.messenger, chatID, usage, nil)
		return 0, false
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		common.Reply(ctx, f.messenger, chatID, usage, nil)
		return 0, false
	}
	return id, true
}

// HandleAddFile stores the upload parameters and waits for the archive
func (f *Feature) HandleAddFile(ctx context.Context, update telego.Update) error {
	sender, ok, err := f.requireAdmin(ctx, update)
	if !ok {
		return err
	}

	args := common.CommandArgs(update.Message.Text)
	if len(args) != 3 {
		common.Reply(ctx, f.messenger, sender.ID, usageAddFile, nil)
		return nil
	}
	price, err := strconv.ParseInt(args[2], 10, 64)
	if err != nil || price <= 0 {
		common.Reply(ctx, f.messenger, sender.ID, "❌ Price must be a whole number of rupees.", nil)
		return nil
	}

	state := session.State{
		Step:        session.StepAwaitingFile,
		Platform:    args[0],
		Country:     args[1],
		PriceRupees: price,
	}
	if err := f.states.Set(ctx, sender.ID, state); err != nil {
		common.RespondWithError(ctx, f.messenger, sender.ID)
		return fmt.Errorf("failed to store upload state: %w", err)
	}

	common.Reply(ctx, f.messenger, sender.ID, fmt.Sprintf(
		"📁 Send the ZIP file for <b>%s / %s</b> at ₹%d.",
		common.Escape(common.Title(state.Platform)), common.Escape(common.Title(state.Country)), price), nil)
	return nil
}

// HandleDocument ingests an archive sent after /addfile. Other documents are ignored.
func (f *Feature) HandleDocument(ctx context.Context, update telego.Update) error {
	sender, ok := common.SenderOf(update)
	if !ok || update.Message.Document == nil {
		return nil
	}

	state, err := f.states.Get(ctx, sender.ID)
	if err != nil {
		return fmt.Errorf("failed to load upload state: %w", err)
	}
	if state == nil || state.Step != session.StepAwaitingFile {
		return nil
	}

	if _, ok, err := f.requireAdmin(ctx, update); !ok {
		return err
	}

	doc := update.Message.Document
	if int64(doc.FileSize) > maxUploadBytes {
		common.Reply(ctx, f.messenger, sender.ID, "❌ File is too large (max 20 MB).", nil)
		return nil
	}

	payload, err := f.files.Fetch(ctx, doc.FileID)
	if err != nil {
		common.RespondWithError(ctx, f.messenger, sender.ID)
		return fmt.Errorf("failed to download %s: %w", doc.FileName, err)
	}

	record, err := f.inventoryService.Ingest(ctx, state.Platform, state.Country, state.PriceRupees, payload)
	if errors.Is(err, service.ErrInvalidIngest) {
		common.Reply(ctx, f.messenger, sender.ID, "❌ "+common.Escape(err.Error()), nil)
		return f.states.Clear(ctx, sender.ID)
	}
	if err != nil {
		common.RespondWithError(ctx, f.messenger, sender.ID)
		return fmt.Errorf("failed to ingest %s: %w", doc.FileName, err)
	}

	if err := f.states.Clear(ctx, sender.ID); err != nil {
		log.WithError(err).Warn("Failed to clear upload state")
	}

	log.WithFields(log.Fields{
		"adminID":  sender.ID,
		"numberID": record.ID,
		"fileName": doc.FileName,
	}).Info("Admin added number file")

	common.Reply(ctx, f.messenger, sender.ID, fmt.Sprintf(
		"✅ Number <code>%d</code> added: %s / %s at %s.",
		record.ID,
		common.Escape(common.Title(record.Platform)),
		common.Escape(common.Title(record.Country)),
		models.FormatINR(record.Price)), nil)
	return nil
}

func (f *Feature) HandleBan(ctx context.Context, update telego.Update) error {
	return f.setBanned(ctx, update, true)
}

func (f *Feature) HandleUnban(ctx context.Context, update telego.Update) error {
	return f.setBanned(ctx, update, false)
}

func (f *Feature) setBanned(ctx context.Context, update telego.Update, banned bool) error {
	sender, ok, err := f.requireAdmin(ctx, update)
	if !ok {
		return err
	}

	command := "/unban"
	if banned {
		command = "/ban"
	}
	target, ok := f.singleID(ctx, sender.ID, update.Message.Text, "Usage: <code>"+command+" user_id</code>")
	if !ok {
		return nil
	}

	err = f.userService.SetBanned(ctx, target, banned)
	if errors.Is(err, service.ErrUserNotFound) {
		common.Reply(ctx, f.messenger, sender.ID, "❌ User not found.", nil)
		return nil
	}
	if err != nil {
		common.RespondWithError(ctx, f.messenger, sender.ID)
		return fmt.Errorf("failed to update ban for %d: %w", target, err)
	}

	verb := "unbanned"
	if banned {
		verb = "banned"
	}
	common.Reply(ctx, f.messenger, sender.ID, fmt.Sprintf("✅ User <code>%d</code> %s.", target, verb), nil)
	return nil
}

// HandleAddSudo grants admin rights to another user
func (f *Feature) HandleAddSudo(ctx context.Context, update telego.Update) error {
	sender, ok, err := f.requireAdmin(ctx, update)
	if !ok {
		return err
	}

	target, ok := f.singleID(ctx, sender.ID, update.Message.Text, "Usage: <code>/addsudo user_id</code>")
	if !ok {
		return nil
	}

	if err := f.userService.AddAdmin(ctx, target, sender.ID); err != nil {
		common.RespondWithError(ctx, f.messenger, sender.ID)
		return fmt.Errorf("failed to add admin %d: %w", target, err)
	}

	common.Reply(ctx, f.messenger, sender.ID, fmt.Sprintf("✅ User <code>%d</code> is now an admin.", target), nil)
	return nil
}

// HandleAddBalance applies a signed rupee adjustment: /addbalance user_id rupees
func (f *Feature) HandleAddBalance(ctx context.Context, update telego.Update) error {
	sender, ok, err := f.requireAdmin(ctx, update)
	if !ok {
		return err
	}

	const usage = "Usage: <code>/addbalance user_id rupees</code> (negative to deduct)"
	args := common.CommandArgs(update.Message.Text)
	if len(args) != 2 {
		common.Reply(ctx, f.messenger, sender.ID, usage, nil)
		return nil
	}
	target, err1 := strconv.ParseInt(args[0], 10, 64)
	rupees, err2 := strconv.ParseInt(args[1], 10, 64)
	if err1 != nil || err2 != nil || rupees == 0 {
		common.Reply(ctx, f.messenger, sender.ID, usage, nil)
		return nil
	}

	newBalance, err := f.ledgerService.Adjust(ctx, target, rupees*models.PaisePerRupee,
		models.TransactionTypeAdminAdjustment, map[string]any{"admin_id": sender.ID})
	switch {
	case errors.Is(err, service.ErrInsufficientBalance):
		common.Reply(ctx, f.messenger, sender.ID, "❌ The balance cannot go below zero.", nil)
		return nil
	case errors.Is(err, service.ErrUserNotFound):
		common.Reply(ctx, f.messenger, sender.ID, "❌ User not found.", nil)
		return nil
	case err != nil:
		common.RespondWithError(ctx, f.messenger, sender.ID)
		return fmt.Errorf("failed to adjust balance of %d: %w", target, err)
	}

	common.Reply(ctx, f.messenger, sender.ID, fmt.Sprintf(
		"✅ Balance of <code>%d</code> is now %s.", target, models.FormatINR(newBalance)), nil)
	return nil
}

// HandleReadOTP lets an admin read the code of any sold number: /readotp number_id
func (f *Feature) HandleReadOTP(ctx context.Context, update telego.Update) error {
	sender, ok, err := f.requireAdmin(ctx, update)
	if !ok {
		return err
	}

	numberID, ok := f.singleID(ctx, sender.ID, update.Message.Text, "Usage: <code>/readotp number_id</code>")
	if !ok {
		return nil
	}

	reveal, err := f.otpService.RevealCode(ctx, sender.ID, numberID)
	if errors.Is(err, service.ErrNumberNotFound) {
		common.Reply(ctx, f.messenger, sender.ID, "❌ Number data not found!", nil)
		return nil
	}
	if err != nil {
		common.RespondWithError(ctx, f.messenger, sender.ID)
		return fmt.Errorf("failed to reveal code for number %d: %w", numberID, err)
	}

	common.Reply(ctx, f.messenger, sender.ID, common.FormatCodeReveal(reveal), nil)
	return nil
}

// HandleStock reports unused inventory and the user count
func (f *Feature) HandleStock(ctx context.Context, update telego.Update) error {
	sender, ok, err := f.requireAdmin(ctx, update)
	if !ok {
		return err
	}

	levels, err := f.inventoryService.Stock(ctx)
	if err != nil {
		common.RespondWithError(ctx, f.messenger, sender.ID)
		return fmt.Errorf("failed to load stock: %w", err)
	}
	users, err := f.userService.CountUsers(ctx)
	if err != nil {
		common.RespondWithError(ctx, f.messenger, sender.ID)
		return fmt.Errorf("failed to count users: %w", err)
	}

	common.Reply(ctx, f.messenger, sender.ID, common.FormatStock(levels, users), nil)
	return nil
}

// HandleReconcile lists reservations whose compensating release failed
func (f *Feature) HandleReconcile(ctx context.Context, update telego.Update) error {
	sender, ok, err := f.requireAdmin(ctx, update)
	if !ok {
		return err
	}

	rollbacks, err := f.allocationService.UnreleasedReservations(ctx)
	if err != nil {
		common.RespondWithError(ctx, f.messenger, sender.ID)
		return fmt.Errorf("failed to list unreleased reservations: %w", err)
	}

	common.Reply(ctx, f.messenger, sender.ID, common.FormatUnreleased(rollbacks), nil)
	return nil
}
