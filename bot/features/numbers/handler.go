package numbers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"sessionbot/bot/common"
	"sessionbot/models"
	"sessionbot/service"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	log "github.com/sirupsen/logrus"
)

const (
	alertBanned      = "❌ You are banned from using this bot!"
	alertNoNumbers   = "❌ No numbers available currently!"
	alertNoPlatform  = "❌ No numbers available for this platform!"
	alertNoCountry   = "❌ No numbers available for this country!"
	alertNotFound    = "❌ Number data not found!"
	alertBadCallback = "❌ Invalid selection."
)

// HandleGetNumber lists the platforms that have stock
func (f *Feature) HandleGetNumber(ctx context.Context, update telego.Update) error {
	sender, ok := common.SenderOf(update)
	if !ok {
		return nil
	}
	callbackID := common.CallbackID(update)

	user, err := f.userService.GetUser(ctx, sender.ID)
	if err != nil && !errors.Is(err, service.ErrUserNotFound) {
		common.Answer(ctx, f.messenger, callbackID, "")
		common.RespondWithError(ctx, f.messenger, sender.ID)
		return fmt.Errorf("failed to load user %d: %w", sender.ID, err)
	}
	if user != nil && user.Banned {
		common.Answer(ctx, f.messenger, callbackID, alertBanned)
		return nil
	}

	platforms, err := f.inventoryService.ListAvailablePlatforms(ctx)
	if err != nil {
		common.Answer(ctx, f.messenger, callbackID, "")
		common.RespondWithError(ctx, f.messenger, sender.ID)
		return fmt.Errorf("failed to list platforms: %w", err)
	}
	if len(platforms) == 0 {
		common.Answer(ctx, f.messenger, callbackID, alertNoNumbers)
		return nil
	}

	common.Answer(ctx, f.messenger, callbackID, "")
	keyboard := common.ChoiceKeyboard(platforms,
		func(p string) string { return "📱 " + common.Title(p) },
		func(p string) string { return common.PrefixPlatform + p },
		common.CallbackMainMenu,
	)
	common.Reply(ctx, f.messenger, sender.ID, "<b>📱 Select Platform</b>\n\nChoose the platform you need a number for:", keyboard)
	return nil
}

// HandlePlatform lists the countries in stock for platform_<platform>
func (f *Feature) HandlePlatform(ctx context.Context, update telego.Update) error {
	sender, ok := common.SenderOf(update)
	if !ok {
		return nil
	}
	callbackID := common.CallbackID(update)
	platform := common.CallbackSuffix(update, common.PrefixPlatform)

	countries, err := f.inventoryService.ListAvailableCountries(ctx, platform)
	if err != nil {
		common.Answer(ctx, f.messenger, callbackID, "")
		common.RespondWithError(ctx, f.messenger, sender.ID)
		return fmt.Errorf("failed to list countries for %s: %w", platform, err)
	}
	if len(countries) == 0 {
		common.Answer(ctx, f.messenger, callbackID, alertNoPlatform)
		return nil
	}

	common.Answer(ctx, f.messenger, callbackID, "")
	keyboard := common.ChoiceKeyboard(countries,
		func(c string) string { return "🌍 " + common.Title(c) },
		func(c string) string { return common.PrefixCountry + platform + "_" + c },
		common.CallbackGetNumber,
	)
	common.Reply(ctx, f.messenger, sender.ID,
		fmt.Sprintf("<b>🌍 Select Country</b>\n\nPlatform: %s", common.Escape(common.Title(platform))),
		keyboard)
	return nil
}

// HandleCountry buys a number for country_<platform>_<country>
func (f *Feature) HandleCountry(ctx context.Context, update telego.Update) error {
	sender, ok := common.SenderOf(update)
	if !ok {
		return nil
	}
	callbackID := common.CallbackID(update)

	platform, country, found := strings.Cut(common.CallbackSuffix(update, common.PrefixCountry), "_")
	if !found || platform == "" || country == "" {
		common.Answer(ctx, f.messenger, callbackID, alertBadCallback)
		return nil
	}

	result, err := f.allocationService.Purchase(ctx, sender.ID, platform, country)
	if err != nil {
		common.Answer(ctx, f.messenger, callbackID, "")
		if errors.Is(err, service.ErrReconciliationRequired) {
			common.Reply(ctx, f.messenger, sender.ID,
				"❌ Your purchase could not be completed and has been flagged for review. Please contact support.", nil)
		} else {
			common.RespondWithError(ctx, f.messenger, sender.ID)
		}
		return fmt.Errorf("failed to purchase %s/%s for user %d: %w", platform, country, sender.ID, err)
	}

	switch result.Outcome {
	case models.PurchaseBuyerBanned:
		common.Answer(ctx, f.messenger, callbackID, alertBanned)

	case models.PurchaseNoInventory:
		common.Answer(ctx, f.messenger, callbackID, alertNoCountry)

	case models.PurchaseInsufficientFunds:
		common.Answer(ctx, f.messenger, callbackID, "")
		keyboard := tu.InlineKeyboard(
			tu.InlineKeyboardRow(tu.InlineKeyboardButton("💰 Recharge Wallet").WithCallbackData(common.CallbackRecharge)),
			tu.InlineKeyboardRow(tu.InlineKeyboardButton("🔙 Back").WithCallbackData(common.PrefixPlatform+platform)),
		)
		common.Reply(ctx, f.messenger, sender.ID, common.FormatInsufficientFunds(result), keyboard)

	case models.PurchaseSuccess:
		common.Answer(ctx, f.messenger, callbackID, "")
		keyboard := tu.InlineKeyboard(
			tu.InlineKeyboardRow(tu.InlineKeyboardButton("📲 I Requested OTP").
				WithCallbackData(common.PrefixReadOTP+strconv.FormatInt(result.NumberID, 10))),
			tu.InlineKeyboardRow(tu.InlineKeyboardButton("🔄 Get Another Number").WithCallbackData(common.CallbackGetNumber)),
		)
		common.Reply(ctx, f.messenger, sender.ID, common.FormatPurchaseSuccess(result), keyboard)

	default:
		log.WithField("outcome", result.Outcome).Warn("Unhandled purchase outcome")
		common.Answer(ctx, f.messenger, callbackID, "")
	}
	return nil
}

// HandleReadOTP reveals the code of a purchased number for read_otp_<id>
func (f *Feature) HandleReadOTP(ctx context.Context, update telego.Update) error {
	sender, ok := common.SenderOf(update)
	if !ok {
		return nil
	}
	callbackID := common.CallbackID(update)

	numberID, err := strconv.ParseInt(common.CallbackSuffix(update, common.PrefixReadOTP), 10, 64)
	if err != nil {
		common.Answer(ctx, f.messenger, callbackID, alertNotFound)
		return nil
	}

	reveal, err := f.otpService.RevealCode(ctx, sender.ID, numberID)
	if errors.Is(err, service.ErrNumberNotFound) || errors.Is(err, service.ErrNumberNotOwned) {
		common.Answer(ctx, f.messenger, callbackID, alertNotFound)
		return nil
	}
	if err != nil {
		common.Answer(ctx, f.messenger, callbackID, "")
		common.RespondWithError(ctx, f.messenger, sender.ID)
		return fmt.Errorf("failed to reveal code for number %d: %w", numberID, err)
	}

	common.Answer(ctx, f.messenger, callbackID, "")
	common.Reply(ctx, f.messenger, sender.ID, common.FormatCodeReveal(reveal), f.revealKeyboard(reveal, update.CallbackQuery.Data))
	return nil
}

func (f *Feature) revealKeyboard(reveal *models.CodeReveal, retryData string) *telego.InlineKeyboardMarkup {
	if reveal.Found {
		return tu.InlineKeyboard(
			tu.InlineKeyboardRow(tu.InlineKeyboardButton("🔄 Get Another Number").WithCallbackData(common.CallbackGetNumber)),
			tu.InlineKeyboardRow(tu.InlineKeyboardButton("🏠 Main Menu").WithCallbackData(common.CallbackMainMenu)),
		)
	}

	rows := [][]telego.InlineKeyboardButton{
		tu.InlineKeyboardRow(tu.InlineKeyboardButton("🔄 Try Again").WithCallbackData(retryData)),
	}
	if f.supportURL != "" {
		rows = append(rows, tu.InlineKeyboardRow(tu.InlineKeyboardButton("📞 Support").WithURL(f.supportURL)))
	}
	return tu.InlineKeyboard(rows...)
}
