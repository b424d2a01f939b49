package testhelpers

import (
	"context"
	"sync"

	"github.com/mymmrac/telego"
)

// FakeMessenger records everything the handlers send
type FakeMessenger struct {
	mu       sync.Mutex
	Messages []*telego.SendMessageParams
	Photos   []*telego.SendPhotoParams
	Answers  []*telego.AnswerCallbackQueryParams

	// PhotoErr fails every SendPhoto call when set
	PhotoErr error
}

func (f *FakeMessenger) SendMessage(_ context.Context, params *telego.SendMessageParams) (*telego.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Messages = append(f.Messages, params)
	return &telego.Message{MessageID: len(f.Messages)}, nil
}

func (f *FakeMessenger) SendPhoto(_ context.Context, params *telego.SendPhotoParams) (*telego.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PhotoErr != nil {
		return nil, f.PhotoErr
	}
	f.Photos = append(f.Photos, params)
	return &telego.Message{MessageID: len(f.Messages) + len(f.Photos)}, nil
}

// SentPhotos returns a copy of the photos sent so far
func (f *FakeMessenger) SentPhotos() []*telego.SendPhotoParams {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*telego.SendPhotoParams(nil), f.Photos...)
}

func (f *FakeMessenger) AnswerCallbackQuery(_ context.Context, params *telego.AnswerCallbackQueryParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Answers = append(f.Answers, params)
	return nil
}

// Sent returns a copy of the messages sent so far
func (f *FakeMessenger) Sent() []*telego.SendMessageParams {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*telego.SendMessageParams(nil), f.Messages...)
}

// LastText returns the text of the most recent message, or ""
func (f *FakeMessenger) LastText() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Messages) == 0 {
		return ""
	}
	return f.Messages[len(f.Messages)-1].Text
}

// LastAlert returns the text of the most recent callback answer, or ""
func (f *FakeMessenger) LastAlert() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Answers) == 0 {
		return ""
	}
	return f.Answers[len(f.Answers)-1].Text
}

// CallbackData lists the callback data of every button in the most recent message
func (f *FakeMessenger) CallbackData() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Messages) == 0 {
		return nil
	}
	markup, ok := f.Messages[len(f.Messages)-1].ReplyMarkup.(*telego.InlineKeyboardMarkup)
	if !ok {
		return nil
	}
	var data []string
	for _, row := range markup.InlineKeyboard {
		for _, button := range row {
			if button.CallbackData != "" {
				data = append(data, button.CallbackData)
			}
		}
	}
	return data
}

// FakeFileFetcher returns fixed content for any file id
type FakeFileFetcher struct {
	Content []byte
	Err     error
}

func (f *FakeFileFetcher) Fetch(context.Context, string) ([]byte, error) {
	return f.Content, f.Err
}

// CommandUpdate builds a private message update from userID
func CommandUpdate(userID int64, text string) telego.Update {
	return telego.Update{
		Message: &telego.Message{
			Chat: telego.Chat{ID: userID, Type: telego.ChatTypePrivate},
			From: &telego.User{ID: userID, FirstName: "Test", Username: "tester"},
			Text: text,
		},
	}
}

// DocumentUpdate builds a private message update carrying a document
func DocumentUpdate(userID int64, fileName string) telego.Update {
	update := CommandUpdate(userID, "")
	update.Message.Document = &telego.Document{FileID: "file-1", FileName: fileName}
	return update
}

// CallbackUpdate builds a callback query update from userID
func CallbackUpdate(userID int64, data string) telego.Update {
	return telego.Update{
		CallbackQuery: &telego.CallbackQuery{
			ID:   "cb-1",
			From: telego.User{ID: userID, FirstName: "Test", Username: "tester"},
			Data: data,
		},
	}
}
