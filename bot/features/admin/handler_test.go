package admin

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"sessionbot/bot/testhelpers"
	"sessionbot/models"
	"sessionbot/service"
	"sessionbot/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const adminID = int64(1)

type fixture struct {
	messenger  *testhelpers.FakeMessenger
	files      *testhelpers.FakeFileFetcher
	states     *testhelpers.MockStateStore
	users      *testhelpers.MockUserService
	inventory  *testhelpers.MockInventoryService
	allocation *testhelpers.MockAllocationService
	ledger     *testhelpers.MockLedgerService
	otp        *testhelpers.MockOTPService
	feature    *Feature
}

func newFixture() *fixture {
	f := &fixture{
		messenger:  &testhelpers.FakeMessenger{},
		files:      &testhelpers.FakeFileFetcher{Content: []byte("zip")},
		states:     &testhelpers.MockStateStore{},
		users:      &testhelpers.MockUserService{},
		inventory:  &testhelpers.MockInventoryService{},
		allocation: &testhelpers.MockAllocationService{},
		ledger:     &testhelpers.MockLedgerService{},
		otp:        &testhelpers.MockOTPService{},
	}
	f.users.On("IsAdmin", mock.Anything, adminID).Return(true, nil).Maybe()
	f.users.On("IsAdmin", mock.Anything, int64(42)).Return(false, nil).Maybe()
	f.feature = New(f.messenger, f.files, f.states, Deps{
		UserService:       f.users,
		InventoryService:  f.inventory,
		AllocationService: f.allocation,
		LedgerService:     f.ledger,
		OTPService:        f.otp,
	})
	return f
}

func TestAdminCommands_RejectNonAdmins(t *testing.T) {
	f := newFixture()
	handlers := map[string]func(context.Context, string) error{
		"/addfile telegram india 10": func(ctx context.Context, text string) error {
			return f.feature.HandleAddFile(ctx, testhelpers.CommandUpdate(42, text))
		},
		"/ban 7": func(ctx context.Context, text string) error {
			return f.feature.HandleBan(ctx, testhelpers.CommandUpdate(42, text))
		},
		"/addbalance 7 100": func(ctx context.Context, text string) error {
			return f.feature.HandleAddBalance(ctx, testhelpers.CommandUpdate(42, text))
		},
		"/stock": func(ctx context.Context, text string) error {
			return f.feature.HandleStock(ctx, testhelpers.CommandUpdate(42, text))
		},
		"/reconcile": func(ctx context.Context, text string) error {
			return f.feature.HandleReconcile(ctx, testhelpers.CommandUpdate(42, text))
		},
	}

	for text, handle := range handlers {
		require.NoError(t, handle(context.Background(), text), text)
		assert.Equal(t, replyAdminOnly, f.messenger.LastText(), text)
	}
	f.states.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything)
	f.ledger.AssertNotCalled(t, "Adjust", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleAddFile(t *testing.T) {
	t.Run("stores the upload parameters", func(t *testing.T) {
		f := newFixture()
		want := session.State{Step: session.StepAwaitingFile, Platform: "telegram", Country: "india", PriceRupees: 10}
		f.states.On("Set", mock.Anything, adminID, want).Return(nil)

		require.NoError(t, f.feature.HandleAddFile(context.Background(), testhelpers.CommandUpdate(adminID, "/addfile telegram india 10")))

		assert.Contains(t, f.messenger.LastText(), "Send the ZIP file")
		f.states.AssertExpectations(t)
	})

	for _, text := range []string{"/addfile", "/addfile telegram india", "/addfile telegram india ten", "/addfile telegram india -5"} {
		t.Run(text, func(t *testing.T) {
			f := newFixture()

			require.NoError(t, f.feature.HandleAddFile(context.Background(), testhelpers.CommandUpdate(adminID, text)))

			f.states.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestHandleDocument(t *testing.T) {
	awaiting := &session.State{Step: session.StepAwaitingFile, Platform: "telegram", Country: "india", PriceRupees: 10}

	t.Run("ignored without a pending upload", func(t *testing.T) {
		f := newFixture()
		f.states.On("Get", mock.Anything, adminID).Return(nil, nil)

		require.NoError(t, f.feature.HandleDocument(context.Background(), testhelpers.DocumentUpdate(adminID, "numbers.zip")))

		assert.Empty(t, f.messenger.Messages)
		f.inventory.AssertNotCalled(t, "Ingest", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("ingests the archive", func(t *testing.T) {
		f := newFixture()
		f.states.On("Get", mock.Anything, adminID).Return(awaiting, nil)
		f.states.On("Clear", mock.Anything, adminID).Return(nil)
		f.inventory.On("Ingest", mock.Anything, "telegram", "india", int64(10), []byte("zip")).
			Return(&models.NumberRecord{ID: 99, Platform: "telegram", Country: "india", Price: 1000}, nil)

		require.NoError(t, f.feature.HandleDocument(context.Background(), testhelpers.DocumentUpdate(adminID, "numbers.zip")))

		assert.Contains(t, f.messenger.LastText(), "<code>99</code>")
		assert.Contains(t, f.messenger.LastText(), "₹10.00")
		f.states.AssertCalled(t, "Clear", mock.Anything, adminID)
	})

	t.Run("invalid archive clears the upload", func(t *testing.T) {
		f := newFixture()
		f.states.On("Get", mock.Anything, adminID).Return(awaiting, nil)
		f.states.On("Clear", mock.Anything, adminID).Return(nil)
		f.inventory.On("Ingest", mock.Anything, "telegram", "india", int64(10), []byte("zip")).
			Return(nil, fmt.Errorf("%w: not a zip archive", service.ErrInvalidIngest))

		require.NoError(t, f.feature.HandleDocument(context.Background(), testhelpers.DocumentUpdate(adminID, "numbers.zip")))

		assert.Contains(t, f.messenger.LastText(), "not a zip archive")
		f.states.AssertCalled(t, "Clear", mock.Anything, adminID)
	})

	t.Run("download failure keeps the upload pending", func(t *testing.T) {
		f := newFixture()
		f.files.Err = errors.New("telegram unavailable")
		f.states.On("Get", mock.Anything, adminID).Return(awaiting, nil)

		assert.Error(t, f.feature.HandleDocument(context.Background(), testhelpers.DocumentUpdate(adminID, "numbers.zip")))

		f.states.AssertNotCalled(t, "Clear", mock.Anything, mock.Anything)
	})
}

func TestHandleBan(t *testing.T) {
	t.Run("bans the user", func(t *testing.T) {
		f := newFixture()
		f.users.On("SetBanned", mock.Anything, int64(7), true).Return(nil)

		require.NoError(t, f.feature.HandleBan(context.Background(), testhelpers.CommandUpdate(adminID, "/ban 7")))

		assert.Contains(t, f.messenger.LastText(), "banned")
	})

	t.Run("unknown user", func(t *testing.T) {
		f := newFixture()
		f.users.On("SetBanned", mock.Anything, int64(7), false).Return(service.ErrUserNotFound)

		require.NoError(t, f.feature.HandleUnban(context.Background(), testhelpers.CommandUpdate(adminID, "/unban 7")))

		assert.Contains(t, f.messenger.LastText(), "User not found")
	})

	t.Run("bad argument", func(t *testing.T) {
		f := newFixture()

		require.NoError(t, f.feature.HandleBan(context.Background(), testhelpers.CommandUpdate(adminID, "/ban someone")))

		assert.Contains(t, f.messenger.LastText(), "Usage")
		f.users.AssertNotCalled(t, "SetBanned", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestHandleAddSudo(t *testing.T) {
	f := newFixture()
	f.users.On("AddAdmin", mock.Anything, int64(7), adminID).Return(nil)

	require.NoError(t, f.feature.HandleAddSudo(context.Background(), testhelpers.CommandUpdate(adminID, "/addsudo 7")))

	assert.Contains(t, f.messenger.LastText(), "now an admin")
	f.users.AssertExpectations(t)
}

func TestHandleAddBalance(t *testing.T) {
	metadata := map[string]any{"admin_id": adminID}
	tests := []struct {
		name     string
		text     string
		delta    int64
		result   int64
		err      error
		wantText string
	}{
		{name: "credit", text: "/addbalance 7 100", delta: 10000, result: 15000, wantText: "₹150.00"},
		{name: "debit", text: "/addbalance 7 -20", delta: -2000, result: 3000, wantText: "₹30.00"},
		{name: "would go negative", text: "/addbalance 7 -500", delta: -50000, err: service.ErrInsufficientBalance, wantText: "below zero"},
		{name: "unknown user", text: "/addbalance 8 10", delta: 1000, err: service.ErrUserNotFound, wantText: "User not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.ledger.On("Adjust", mock.Anything, mock.AnythingOfType("int64"), tt.delta, models.TransactionTypeAdminAdjustment, metadata).
				Return(tt.result, tt.err)

			require.NoError(t, f.feature.HandleAddBalance(context.Background(), testhelpers.CommandUpdate(adminID, tt.text)))

			assert.Contains(t, f.messenger.LastText(), tt.wantText)
			f.ledger.AssertExpectations(t)
		})
	}
}

func TestHandleAddBalance_Usage(t *testing.T) {
	for _, text := range []string{"/addbalance", "/addbalance 7", "/addbalance 7 0", "/addbalance x 10"} {
		f := newFixture()

		require.NoError(t, f.feature.HandleAddBalance(context.Background(), testhelpers.CommandUpdate(adminID, text)))

		assert.Contains(t, f.messenger.LastText(), "Usage", text)
		f.ledger.AssertNotCalled(t, "Adjust", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	}
}

func TestHandleReadOTP_Admin(t *testing.T) {
	f := newFixture()
	f.otp.On("RevealCode", mock.Anything, adminID, int64(7)).Return(&models.CodeReveal{
		NumberID:    7,
		Platform:    "telegram",
		PhoneNumber: "+15550001111",
		Code:        "67890",
		Found:       true,
	}, nil)

	require.NoError(t, f.feature.HandleReadOTP(context.Background(), testhelpers.CommandUpdate(adminID, "/readotp 7")))

	assert.Contains(t, f.messenger.LastText(), "67890")
}

func TestHandleStock(t *testing.T) {
	f := newFixture()
	f.inventory.On("Stock", mock.Anything).Return([]*models.StockLevel{
		{Platform: "telegram", Country: "india", Available: 3, MinPrice: 1000},
	}, nil)
	f.users.On("CountUsers", mock.Anything).Return(int64(12), nil)

	require.NoError(t, f.feature.HandleStock(context.Background(), testhelpers.CommandUpdate(adminID, "/stock")))

	text := f.messenger.LastText()
	assert.Contains(t, text, "12 users")
	assert.Contains(t, text, "Telegram / India: 3 from ₹10.00")
}

func TestHandleReconcile(t *testing.T) {
	f := newFixture()
	f.allocation.On("UnreleasedReservations", mock.Anything).Return([]*models.ReservationRollback{}, nil)

	require.NoError(t, f.feature.HandleReconcile(context.Background(), testhelpers.CommandUpdate(adminID, "/reconcile")))

	assert.Contains(t, f.messenger.LastText(), "No reservations need reconciliation")
}
