package bot

import (
	"context"
	"errors"
	"testing"

	"sessionbot/bot/features/admin"
	"sessionbot/bot/features/balance"
	"sessionbot/bot/testhelpers"
	"sessionbot/models"
	"sessionbot/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type routingFixture struct {
	messenger *testhelpers.FakeMessenger
	states    *testhelpers.MockStateStore
	users     *testhelpers.MockUserService
	payments  *testhelpers.MockPaymentService
	inventory *testhelpers.MockInventoryService
	bot       *Bot
}

func newRoutingFixture() *routingFixture {
	f := &routingFixture{
		messenger: &testhelpers.FakeMessenger{},
		states:    &testhelpers.MockStateStore{},
		users:     &testhelpers.MockUserService{},
		payments:  &testhelpers.MockPaymentService{},
		inventory: &testhelpers.MockInventoryService{},
	}
	f.bot = &Bot{
		messenger: f.messenger,
		states:    f.states,
		balance:   balance.New(f.messenger, f.users, f.payments, &testhelpers.MockLedgerService{}, f.states),
		admin: admin.New(f.messenger, &testhelpers.FakeFileFetcher{Content: []byte("zip")}, f.states, admin.Deps{
			UserService:      f.users,
			InventoryService: f.inventory,
		}),
	}
	return f
}

func TestHandleMessage_RechargeAmount(t *testing.T) {
	f := newRoutingFixture()
	f.states.On("Get", mock.Anything, int64(42)).Return(&session.State{Step: session.StepAwaitingRechargeAmount}, nil)
	f.states.On("Clear", mock.Anything, int64(42)).Return(nil)
	f.payments.On("InitiateRecharge", mock.Anything, int64(42), int64(100)).
		Return(&models.PaymentLink{ID: "plink_9", ShortURL: "https://rzp.io/i/y", Amount: 10000}, nil)

	require.NoError(t, f.bot.handleMessage(context.Background(), testhelpers.CommandUpdate(42, "100")))

	photos := f.messenger.SentPhotos()
	require.Len(t, photos, 1)
	assert.Contains(t, photos[0].Caption, "plink_9")
	f.payments.AssertExpectations(t)
}

func TestHandleMessage_AwaitingFileWantsADocument(t *testing.T) {
	f := newRoutingFixture()
	f.states.On("Get", mock.Anything, int64(1)).Return(&session.State{Step: session.StepAwaitingFile}, nil)

	require.NoError(t, f.bot.handleMessage(context.Background(), testhelpers.CommandUpdate(1, "here you go")))

	assert.Contains(t, f.messenger.LastText(), "ZIP file")
}

func TestHandleMessage_DocumentGoesToIngest(t *testing.T) {
	f := newRoutingFixture()
	f.states.On("Get", mock.Anything, int64(1)).Return(&session.State{
		Step:        session.StepAwaitingFile,
		Platform:    "telegram",
		Country:     "india",
		PriceRupees: 10,
	}, nil)
	f.states.On("Clear", mock.Anything, int64(1)).Return(nil)
	f.users.On("IsAdmin", mock.Anything, int64(1)).Return(true, nil)
	f.inventory.On("Ingest", mock.Anything, "telegram", "india", int64(10), []byte("zip")).
		Return(&models.NumberRecord{ID: 5, Platform: "telegram", Country: "india", Price: 1000}, nil)

	require.NoError(t, f.bot.handleMessage(context.Background(), testhelpers.DocumentUpdate(1, "batch.zip")))

	f.inventory.AssertExpectations(t)
}

func TestHandleMessage_Ignored(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		state *session.State
	}{
		{name: "commands are routed elsewhere", text: "/start"},
		{name: "blank text", text: "   "},
		{name: "no conversation in progress", text: "hello", state: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRoutingFixture()
			f.states.On("Get", mock.Anything, int64(42)).Return(tt.state, nil).Maybe()

			require.NoError(t, f.bot.handleMessage(context.Background(), testhelpers.CommandUpdate(42, tt.text)))

			assert.Empty(t, f.messenger.Sent())
		})
	}
}

func TestHandleMessage_StateStoreDown(t *testing.T) {
	f := newRoutingFixture()
	f.states.On("Get", mock.Anything, int64(42)).Return(nil, errors.New("redis down"))

	assert.Error(t, f.bot.handleMessage(context.Background(), testhelpers.CommandUpdate(42, "100")))
}
