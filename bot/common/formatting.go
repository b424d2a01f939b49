package common

import (
	"fmt"
	"html"
	"strings"

	"sessionbot/models"
)

// Title renders an inventory tag for display, e.g. "telegram" -> "Telegram"
func Title(tag string) string {
	if tag == "" {
		return tag
	}
	return strings.ToUpper(tag[:1]) + tag[1:]
}

// Escape makes user-controlled text safe for HTML parse mode
func Escape(s string) string {
	return html.EscapeString(s)
}

// FormatWelcome is the /start text
func FormatWelcome() string {
	return "<b>🤖 Welcome to Session Bot!</b>\n\n" +
		"Get ready-made sessions for popular platforms.\n\n" +
		"<b>Features:</b>\n" +
		"• Instant number assignment\n" +
		"• Automatic OTP reading\n" +
		"• Secure UPI recharge\n\n" +
		"Select an option below to get started:"
}

// FormatHowToUse explains the purchase flow
func FormatHowToUse() string {
	return "<b>ℹ️ How to Use</b>\n\n" +
		"1. Recharge your wallet from 💰 Balance\n" +
		"2. Tap 🔢 Get Number and pick a platform and country\n" +
		"3. Request a login code on the number in the official app\n" +
		"4. Tap 📲 I Requested OTP to read the code"
}

// FormatProfile renders a user's profile card
func FormatProfile(user *models.User, referralBonus int64) string {
	return fmt.Sprintf("<b>👤 User Profile</b>\n\n"+
		"<b>🆔 User ID:</b> <code>%d</code>\n"+
		"<b>👤 Name:</b> %s\n"+
		"<b>💰 Wallet Balance:</b> %s\n"+
		"<b>📊 Total Spent:</b> %s\n"+
		"<b>👥 Referrals:</b> %d users\n"+
		"<b>🔗 Referral Code:</b> <code>%s</code>\n"+
		"<b>🎁 Referral Bonus:</b> %s per user\n\n"+
		"Invite friends with <code>/start %s</code> and earn money!",
		user.UserID,
		Escape(user.FirstName),
		models.FormatINR(user.Balance),
		models.FormatINR(user.TotalSpent),
		user.ReferralCount,
		user.ReferralCode,
		models.FormatINR(referralBonus),
		user.ReferralCode,
	)
}

// FormatBalance renders the wallet summary
func FormatBalance(user *models.User, minRecharge int64) string {
	return fmt.Sprintf("<b>💰 Wallet Balance</b>\n\n"+
		"<b>Current Balance:</b> %s\n"+
		"<b>Total Spent:</b> %s\n\n"+
		"<b>💸 Recharge:</b> minimum ₹%d by UPI, verified automatically",
		models.FormatINR(user.Balance),
		models.FormatINR(user.TotalSpent),
		minRecharge,
	)
}

var transactionLabels = map[models.TransactionType]string{
	models.TransactionTypeInitial:         "Opening balance",
	models.TransactionTypeRecharge:        "Recharge",
	models.TransactionTypePurchase:        "Purchase",
	models.TransactionTypeRefund:          "Refund",
	models.TransactionTypeReferralBonus:   "Referral bonus",
	models.TransactionTypeAdminAdjustment: "Adjustment",
}

// FormatHistory renders the wallet balance with its latest ledger entries and recharges
func FormatHistory(balance int64, entries []*models.BalanceHistory, payments []*models.Payment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>📜 Wallet History</b>\n\n<b>Current Balance:</b> %s\n\n", models.FormatINR(balance))

	b.WriteString("<b>Recent transactions</b>\n")
	if len(entries) == 0 {
		b.WriteString("No transactions yet.\n")
	}
	for _, e := range entries {
		label, ok := transactionLabels[e.TransactionType]
		if !ok {
			label = string(e.TransactionType)
		}
		sign := ""
		if e.ChangeAmount > 0 {
			sign = "+"
		}
		fmt.Fprintf(&b, "• %s %s %s%s → %s\n",
			e.CreatedAt.UTC().Format("02 Jan 15:04"),
			Escape(label),
			sign,
			models.FormatINR(e.ChangeAmount),
			models.FormatINR(e.BalanceAfter),
		)
	}

	b.WriteString("\n<b>Recent recharges</b>\n")
	if len(payments) == 0 {
		b.WriteString("No recharges yet.")
	}
	for _, p := range payments {
		status := "⏳ pending"
		if p.Status == models.PaymentStatusVerified {
			status = "✅ verified"
		}
		fmt.Fprintf(&b, "• %s %s %s\n",
			p.CreatedAt.UTC().Format("02 Jan 15:04"),
			models.FormatINR(p.Amount),
			status,
		)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatInsufficientFunds is shown when the buyer cannot afford the cheapest record
func FormatInsufficientFunds(result *models.PurchaseResult) string {
	return fmt.Sprintf("<b>❌ Insufficient Balance!</b>\n\n"+
		"<b>Number Price:</b> %s\n"+
		"<b>Your Balance:</b> %s\n\n"+
		"Please recharge your wallet to continue.",
		models.FormatINR(result.Price),
		models.FormatINR(result.Balance),
	)
}

// FormatPurchaseSuccess is shown after a number is assigned
func FormatPurchaseSuccess(result *models.PurchaseResult) string {
	return fmt.Sprintf("<b>✅ Number Assigned Successfully!</b>\n\n"+
		"<b>📞 Your Number:</b> <code>%s</code>\n"+
		"<b>📱 Platform:</b> %s\n"+
		"<b>🌍 Country:</b> %s\n"+
		"<b>💰 Deducted:</b> %s\n"+
		"<b>💳 Remaining Balance:</b> %s\n\n"+
		"<b>📝 Instructions:</b>\n"+
		"1. Open the official app\n"+
		"2. Request an OTP on this number\n"+
		"3. Tap 'I Requested OTP' below\n\n"+
		"⚠️ Use only official apps.",
		Escape(result.PhoneNumber),
		Escape(Title(result.Platform)),
		Escape(Title(result.Country)),
		models.FormatINR(result.Price),
		models.FormatINR(result.RemainingBalance),
	)
}

// FormatCodeReveal renders a found or missing one-time code
func FormatCodeReveal(reveal *models.CodeReveal) string {
	if !reveal.Found {
		return "<b>❌ OTP Not Found!</b>\n\nPlease wait for the OTP to arrive and try again."
	}
	return fmt.Sprintf("<b>✅ OTP Code Found!</b>\n\n"+
		"<b>📞 Number:</b> <code>%s</code>\n"+
		"<b>📱 Platform:</b> %s\n"+
		"<b>🔢 OTP Code:</b> <code>%s</code>\n\n"+
		"<b>⚠️ Important:</b>\n"+
		"- Use this OTP within 5 minutes\n"+
		"- Don't share it with anyone",
		Escape(reveal.PhoneNumber),
		Escape(Title(reveal.Platform)),
		reveal.Code,
	)
}

// FormatPaymentLink is shown after a recharge link is created, as text or as a QR caption
func FormatPaymentLink(link *models.PaymentLink) string {
	return fmt.Sprintf("<b>💰 Payment Details</b>\n\n"+
		"<b>Amount:</b> %s\n"+
		"<b>Payment ID:</b> <code>%s</code>\n\n"+
		"<b>Steps:</b>\n"+
		"1. Scan the QR code or open the payment link\n"+
		"2. Pay with any UPI app\n"+
		"3. Tap 'Payment Done'",
		models.FormatINR(link.Amount),
		Escape(link.ID),
	)
}

// FormatStock renders the admin stock report
func FormatStock(levels []*models.StockLevel, users int64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>📦 Stock</b> (%d users)\n\n", users)
	if len(levels) == 0 {
		b.WriteString("No numbers in stock.")
		return b.String()
	}
	for _, level := range levels {
		fmt.Fprintf(&b, "• %s / %s: %d from %s\n",
			Escape(Title(level.Platform)),
			Escape(Title(level.Country)),
			level.Available,
			models.FormatINR(level.MinPrice),
		)
	}
	return b.String()
}

// FormatUnreleased renders reservations waiting for manual reconciliation
func FormatUnreleased(rollbacks []*models.ReservationRollback) string {
	if len(rollbacks) == 0 {
		return "✅ No reservations need reconciliation."
	}

	var b strings.Builder
	b.WriteString("<b>⚠️ Reservations needing reconciliation</b>\n\n")
	for _, r := range rollbacks {
		fmt.Fprintf(&b, "• number <code>%d</code> held for user <code>%d</code> at %s: %s (%s)\n",
			r.NumberID,
			r.UserID,
			models.FormatINR(r.Price),
			Escape(r.Reason),
			r.CreatedAt.UTC().Format("2006-01-02 15:04"),
		)
	}
	return b.String()
}

// FormatPurchaseLog is posted to the log channel after each sale
func FormatPurchaseLog(userID int64, phone, platform, country string, price, remaining int64) string {
	return fmt.Sprintf("<b>📊 Number Purchased</b>\n\n"+
		"<b>🆔 User:</b> <code>%d</code>\n"+
		"<b>📞 Number:</b> <code>%s</code>\n"+
		"<b>📱 Platform:</b> %s\n"+
		"<b>🌍 Country:</b> %s\n"+
		"<b>💰 Price:</b> %s\n"+
		"<b>💳 Balance Left:</b> %s",
		userID,
		Escape(phone),
		Escape(Title(platform)),
		Escape(Title(country)),
		models.FormatINR(price),
		models.FormatINR(remaining),
	)
}
