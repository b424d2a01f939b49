package menu

import (
	"context"
	"errors"
	"testing"

	"sessionbot/bot/testhelpers"
	"sessionbot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestHandleStart(t *testing.T) {
	tests := []struct {
		name         string
		text         string
		wantReferral string
		user         *models.User
		wantText     string
	}{
		{
			name:         "plain start shows the menu",
			text:         "/start",
			wantReferral: "",
			user:         &models.User{UserID: 42},
			wantText:     "Welcome to Session Bot",
		},
		{
			name:         "referral code is passed through",
			text:         "/start REF7",
			wantReferral: "REF7",
			user:         &models.User{UserID: 42},
			wantText:     "Welcome to Session Bot",
		},
		{
			name:         "banned user is turned away",
			text:         "/start",
			wantReferral: "",
			user:         &models.User{UserID: 42, Banned: true},
			wantText:     "banned",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			messenger := &testhelpers.FakeMessenger{}
			users := &testhelpers.MockUserService{}
			users.On("GetOrCreateUser", mock.Anything, int64(42), "tester", "Test", tt.wantReferral).Return(tt.user, nil)
			feature := New(messenger, users, "https://t.me/support", 50)

			err := feature.HandleStart(context.Background(), testhelpers.CommandUpdate(42, tt.text))

			require.NoError(t, err)
			assert.Contains(t, messenger.LastText(), tt.wantText)
			users.AssertExpectations(t)
		})
	}
}

func TestHandleStart_ServiceError(t *testing.T) {
	messenger := &testhelpers.FakeMessenger{}
	users := &testhelpers.MockUserService{}
	users.On("GetOrCreateUser", mock.Anything, int64(42), "tester", "Test", "").Return(nil, errors.New("db down"))
	feature := New(messenger, users, "", 50)

	err := feature.HandleStart(context.Background(), testhelpers.CommandUpdate(42, "/start"))

	assert.Error(t, err)
	assert.Contains(t, messenger.LastText(), "Something went wrong")
}

func TestHandleProfile(t *testing.T) {
	messenger := &testhelpers.FakeMessenger{}
	users := &testhelpers.MockUserService{}
	users.On("GetOrCreateUser", mock.Anything, int64(42), "tester", "Test", "").Return(&models.User{
		UserID:        42,
		FirstName:     "Test",
		Balance:       12550,
		TotalSpent:    3000,
		ReferralCode:  "REF42",
		ReferralCount: 2,
	}, nil)
	feature := New(messenger, users, "", 50)

	err := feature.HandleProfile(context.Background(), testhelpers.CallbackUpdate(42, "profile"))

	require.NoError(t, err)
	text := messenger.LastText()
	assert.Contains(t, text, "₹125.50")
	assert.Contains(t, text, "REF42")
	assert.Equal(t, []string{"main_menu"}, messenger.CallbackData())
	assert.Len(t, messenger.Answers, 1)
}

func TestHandleMainMenu(t *testing.T) {
	messenger := &testhelpers.FakeMessenger{}
	feature := New(messenger, &testhelpers.MockUserService{}, "", 50)

	require.NoError(t, feature.HandleMainMenu(context.Background(), testhelpers.CallbackUpdate(42, "main_menu")))

	assert.Contains(t, messenger.CallbackData(), "get_number")
	assert.Contains(t, messenger.CallbackData(), "profile")
}
