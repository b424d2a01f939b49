package common

import (
	"strings"

	"github.com/mymmrac/telego"
)

// Sender is the user behind a message or callback
type Sender struct {
	ID        int64
	Username  string
	FirstName string
}

// SenderOf returns the user who produced the update
func SenderOf(update telego.Update) (Sender, bool) {
	var from *telego.User
	switch {
	case update.Message != nil:
		from = update.Message.From
	case update.CallbackQuery != nil:
		from = &update.CallbackQuery.From
	}
	if from == nil {
		return Sender{}, false
	}
	return Sender{ID: from.ID, Username: from.Username, FirstName: from.FirstName}, true
}

// CommandArgs returns the words after the command in a message
func CommandArgs(text string) []string {
	fields := strings.Fields(text)
	if len(fields) <= 1 {
		return nil
	}
	return fields[1:]
}

// CallbackSuffix returns the callback data after prefix
func CallbackSuffix(update telego.Update, prefix string) string {
	if update.CallbackQuery == nil {
		return ""
	}
	return strings.TrimPrefix(update.CallbackQuery.Data, prefix)
}

// CallbackID returns the id to answer, or "" for non-callback updates
func CallbackID(update telego.Update) string {
	if update.CallbackQuery == nil {
		return ""
	}
	return update.CallbackQuery.ID
}
