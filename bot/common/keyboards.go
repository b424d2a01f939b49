package common

import (
	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

// Callback data shared across features
const (
	CallbackMainMenu  = "main_menu"
	CallbackProfile   = "profile"
	CallbackGetNumber = "get_number"
	CallbackBalance   = "balance"
	CallbackRecharge  = "recharge"
	CallbackHistory   = "history"
	CallbackHowToUse  = "how_to_use"

	PrefixPlatform    = "platform_"
	PrefixCountry     = "country_"
	PrefixReadOTP     = "read_otp_"
	PrefixPaymentDone = "payment_done_"
)

// MainMenu is the keyboard shown by /start
func MainMenu(supportURL string) *telego.InlineKeyboardMarkup {
	support := tu.InlineKeyboardButton("📞 Support").WithCallbackData(CallbackHowToUse)
	if supportURL != "" {
		support = tu.InlineKeyboardButton("📞 Support").WithURL(supportURL)
	}

	return tu.InlineKeyboard(
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("👤 Profile").WithCallbackData(CallbackProfile),
			tu.InlineKeyboardButton("🔢 Get Number").WithCallbackData(CallbackGetNumber),
		),
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("💰 Balance").WithCallbackData(CallbackBalance),
			support,
		),
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton("ℹ️ How to Use").WithCallbackData(CallbackHowToUse),
		),
	)
}

// BackButton returns a single-row keyboard leading to data
func BackButton(data string) *telego.InlineKeyboardMarkup {
	return tu.InlineKeyboard(
		tu.InlineKeyboardRow(tu.InlineKeyboardButton("🔙 Back").WithCallbackData(data)),
	)
}

// ChoiceKeyboard lays out one button per option, two per row, followed by a back button
func ChoiceKeyboard(options []string, label func(string) string, data func(string) string, back string) *telego.InlineKeyboardMarkup {
	var rows [][]telego.InlineKeyboardButton
	var row []telego.InlineKeyboardButton
	for _, option := range options {
		row = append(row, tu.InlineKeyboardButton(label(option)).WithCallbackData(data(option)))
		if len(row) == 2 {
			rows = append(rows, tu.InlineKeyboardRow(row...))
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, tu.InlineKeyboardRow(row...))
	}
	rows = append(rows, tu.InlineKeyboardRow(tu.InlineKeyboardButton("🔙 Back").WithCallbackData(back)))
	return tu.InlineKeyboard(rows...)
}
