package menu

import (
	"context"
	"fmt"

	"sessionbot/bot/common"

	"github.com/mymmrac/telego"
	log "github.com/sirupsen/logrus"
)

// HandleStart registers the sender, applying a referral code passed as /start <code>
func (f *Feature) HandleStart(ctx context.Context, update telego.Update) error {
	sender, ok := common.SenderOf(update)
	if !ok {
		return nil
	}

	referralCode := ""
	if args := common.CommandArgs(update.Message.Text); len(args) > 0 {
		referralCode = args[0]
	}

	user, err := f.userService.GetOrCreateUser(ctx, sender.ID, sender.Username, sender.FirstName, referralCode)
	if err != nil {
		common.RespondWithError(ctx, f.messenger, sender.ID)
		return fmt.Errorf("failed to register user %d: %w", sender.ID, err)
	}

	if user.Banned {
		common.Reply(ctx, f.messenger, sender.ID, "❌ You are banned from using this bot!", nil)
		return nil
	}

	log.WithFields(log.Fields{
		"userID":   sender.ID,
		"referral": referralCode,
	}).Debug("Start command")

	common.Reply(ctx, f.messenger, sender.ID, common.FormatWelcome(), common.MainMenu(f.supportURL))
	return nil
}

// HandleMainMenu shows the main menu again
func (f *Feature) HandleMainMenu(ctx context.Context, update telego.Update) error {
	common.Answer(ctx, f.messenger, common.CallbackID(update), "")
	sender, ok := common.SenderOf(update)
	if !ok {
		return nil
	}

	common.Reply(ctx, f.messenger, sender.ID, common.FormatWelcome(), common.MainMenu(f.supportURL))
	return nil
}

// HandleProfile shows the sender's profile card
func (f *Feature) HandleProfile(ctx context.Context, update telego.Update) error {
	common.Answer(ctx, f.messenger, common.CallbackID(update), "")
	sender, ok := common.SenderOf(update)
	if !ok {
		return nil
	}

	user, err := f.userService.GetOrCreateUser(ctx, sender.ID, sender.Username, sender.FirstName, "")
	if err != nil {
		common.RespondWithError(ctx, f.messenger, sender.ID)
		return fmt.Errorf("failed to load profile for user %d: %w", sender.ID, err)
	}

	common.Reply(ctx, f.messenger, sender.ID,
		common.FormatProfile(user, f.referralBonus),
		common.BackButton(common.CallbackMainMenu))
	return nil
}

func (f *Feature) HandleHowToUse(ctx context.Context, update telego.Update) error {
	common.Answer(ctx, f.messenger, common.CallbackID(update), "")
	sender, ok := common.SenderOf(update)
	if !ok {
		return nil
	}

	common.Reply(ctx, f.messenger, sender.ID, common.FormatHowToUse(), common.BackButton(common.CallbackMainMenu))
	return nil
}
