package common

import (
	"bytes"
	"context"

	"sessionbot/session"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	log "github.com/sirupsen/logrus"
)

// GenericError is shown when an infrastructure error interrupts a request
const GenericError = "❌ Something went wrong. Please try again later."

// Messenger is the part of the Bot API the handlers use
type Messenger interface {
	SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error)
	SendPhoto(ctx context.Context, params *telego.SendPhotoParams) (*telego.Message, error)
	AnswerCallbackQuery(ctx context.Context, params *telego.AnswerCallbackQueryParams) error
}

// FileFetcher downloads a document sent to the bot
type FileFetcher interface {
	Fetch(ctx context.Context, fileID string) ([]byte, error)
}

// Reply sends an HTML message to chatID with an optional inline keyboard
func Reply(ctx context.Context, m Messenger, chatID int64, text string, keyboard *telego.InlineKeyboardMarkup) {
	params := tu.Message(tu.ID(chatID), text).WithParseMode(telego.ModeHTML)
	if keyboard != nil {
		params = params.WithReplyMarkup(keyboard)
	}

	if _, err := m.SendMessage(ctx, params); err != nil {
		log.WithFields(log.Fields{
			"chatID": chatID,
			"error":  err,
		}).Error("Failed to send message")
	}
}

// ReplyPhoto sends a PNG with an HTML caption and an optional inline keyboard
func ReplyPhoto(ctx context.Context, m Messenger, chatID int64, png []byte, name, caption string, keyboard *telego.InlineKeyboardMarkup) error {
	params := tu.Photo(tu.ID(chatID), tu.File(tu.NameReader(bytes.NewReader(png), name))).
		WithCaption(caption).
		WithParseMode(telego.ModeHTML)
	if keyboard != nil {
		params = params.WithReplyMarkup(keyboard)
	}

	_, err := m.SendPhoto(ctx, params)
	return err
}

// RespondWithError tells the user the request failed without exposing details
func RespondWithError(ctx context.Context, m Messenger, chatID int64) {
	Reply(ctx, m, chatID, GenericError, nil)
}

// Answer acknowledges a callback query, showing alert as a popup when set
func Answer(ctx context.Context, m Messenger, callbackID, alert string) {
	if callbackID == "" {
		return
	}
	params := tu.CallbackQuery(callbackID)
	if alert != "" {
		params = params.WithText(alert).WithShowAlert()
	}

	if err := m.AnswerCallbackQuery(ctx, params); err != nil {
		log.WithError(err).Debug("Failed to answer callback query")
	}
}

// StateStore keeps per-chat conversation state
type StateStore interface {
	Get(ctx context.Context, chatID int64) (*session.State, error)
	Set(ctx context.Context, chatID int64, state session.State) error
	Clear(ctx context.Context, chatID int64) error
}
