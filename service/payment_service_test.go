package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"sessionbot/events"
	"sessionbot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type paymentFixture struct {
	uow      *MockUnitOfWork
	users    *MockUserRepository
	history  *MockBalanceHistoryRepository
	payments *MockPaymentRepository
	gateway  *MockPaymentGateway
	metrics  *MockMetricsRecorder
	service  PaymentService
}

func newPaymentFixture() *paymentFixture {
	f := &paymentFixture{
		uow:      new(MockUnitOfWork),
		users:    new(MockUserRepository),
		history:  new(MockBalanceHistoryRepository),
		payments: new(MockPaymentRepository),
		gateway:  new(MockPaymentGateway),
		metrics:  new(MockMetricsRecorder),
	}
	factory := new(MockUnitOfWorkFactory)
	f.uow.SetRepositories(f.users, f.history, nil, f.payments, nil, nil)
	factory.On("Create").Return(f.uow)
	f.uow.On("Begin", mock.Anything).Return(nil)
	f.uow.On("Commit").Return(nil).Maybe()
	f.uow.On("Rollback").Return(nil)
	f.service = NewPaymentService(factory, f.gateway, f.metrics, 20)
	return f
}

func pendingPayment(userID int64) *models.Payment {
	return &models.Payment{
		ID:        3,
		UserID:    userID,
		Amount:    5000,
		Reference: "plink_abc",
		Status:    models.PaymentStatusPending,
	}
}

func verifiedPayment(userID int64) *models.Payment {
	payment := pendingPayment(userID)
	now := time.Now()
	payment.Status = models.PaymentStatusVerified
	payment.VerifiedAt = &now
	return payment
}

func TestPaymentService_InitiateRecharge(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture()

	link := &models.PaymentLink{ID: "plink_abc", ShortURL: "https://rzp.io/i/abc", Amount: 5000, Status: "created"}
	f.gateway.On("CreatePaymentLink", ctx, int64(42), int64(5000)).Return(link, nil)
	f.payments.On("Create", ctx, mock.MatchedBy(func(p *models.Payment) bool {
		return p.UserID == 42 && p.Amount == 5000 && p.Reference == "plink_abc"
	})).Return(pendingPayment(42), nil)

	got, err := f.service.InitiateRecharge(ctx, 42, 50)

	require.NoError(t, err)
	assert.Equal(t, link, got)
	f.gateway.AssertExpectations(t)
	f.payments.AssertExpectations(t)
}

func TestPaymentService_InitiateRecharge_BelowMinimum(t *testing.T) {
	f := newPaymentFixture()

	_, err := f.service.InitiateRecharge(context.Background(), 42, 19)

	assert.ErrorIs(t, err, ErrRechargeBelowMinimum)
	f.gateway.AssertNotCalled(t, "CreatePaymentLink", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, int64(20), f.service.MinRecharge())
}

func TestPaymentService_InitiateRecharge_GatewayError(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture()

	f.gateway.On("CreatePaymentLink", ctx, int64(42), int64(2000)).Return(nil, errors.New("gateway down"))

	_, err := f.service.InitiateRecharge(ctx, 42, 20)

	assert.ErrorContains(t, err, "failed to create payment link")
	f.payments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestPaymentService_ConfirmRecharge_CreditsOnce(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture()

	f.payments.On("MarkVerified", ctx, "plink_abc").Return(verifiedPayment(42), nil).Once()
	f.payments.On("MarkVerified", ctx, "plink_abc").Return(nil, nil).Once()
	f.users.On("AdjustBalance", ctx, int64(42), int64(5000)).Return(int64(6000), nil).Once()
	f.history.On("Record", ctx, mock.MatchedBy(func(h *models.BalanceHistory) bool {
		return h.UserID == 42 &&
			h.BalanceBefore == 1000 &&
			h.BalanceAfter == 6000 &&
			h.TransactionType == models.TransactionTypeRecharge &&
			h.RelatedType != nil && *h.RelatedType == models.RelatedTypePayment
	})).Return(nil).Once()
	f.metrics.On("RecordPaymentVerified", int64(5000)).Return().Once()

	first, err := f.service.ConfirmRecharge(ctx, "plink_abc")
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, models.PaymentStatusVerified, first.Status)

	replay, err := f.service.ConfirmRecharge(ctx, "plink_abc")
	require.NoError(t, err)
	assert.Nil(t, replay)

	verified := f.uow.Events().EventsOfType(events.EventTypePaymentVerified)
	require.Len(t, verified, 1)
	assert.Equal(t, int64(6000), verified[0].(events.PaymentVerifiedEvent).NewBalance)

	f.payments.AssertExpectations(t)
	f.users.AssertExpectations(t)
	f.history.AssertExpectations(t)
	f.metrics.AssertExpectations(t)
}

func TestPaymentService_VerifyRecharge(t *testing.T) {
	tests := []struct {
		name        string
		stored      *models.Payment
		linkStatus  string
		expectedErr error
		expectFetch bool
		expectPaid  bool
	}{
		{name: "unknown reference", expectedErr: ErrPaymentNotFound},
		{name: "another user's payment", stored: pendingPayment(7), expectedErr: ErrPaymentNotOwned},
		{name: "already verified", stored: verifiedPayment(42)},
		{name: "not paid yet", stored: pendingPayment(42), linkStatus: "created", expectFetch: true, expectedErr: ErrPaymentNotPaid},
		{name: "paid", stored: pendingPayment(42), linkStatus: PaymentLinkPaid, expectFetch: true, expectPaid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newPaymentFixture()

			f.payments.On("GetByReference", ctx, "plink_abc").Return(tt.stored, nil)
			if tt.expectFetch {
				f.gateway.On("FetchPaymentLink", ctx, "plink_abc").Return(&models.PaymentLink{ID: "plink_abc", Status: tt.linkStatus}, nil)
			}
			if tt.expectPaid {
				f.payments.On("MarkVerified", ctx, "plink_abc").Return(verifiedPayment(42), nil)
				f.users.On("AdjustBalance", ctx, int64(42), int64(5000)).Return(int64(5000), nil)
				f.history.On("Record", ctx, mock.Anything).Return(nil)
				f.metrics.On("RecordPaymentVerified", int64(5000)).Return()
			}

			payment, err := f.service.VerifyRecharge(ctx, 42, "plink_abc")

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Nil(t, payment)
			} else {
				require.NoError(t, err)
				assert.Equal(t, models.PaymentStatusVerified, payment.Status)
			}
			if !tt.expectFetch {
				f.gateway.AssertNotCalled(t, "FetchPaymentLink", mock.Anything, mock.Anything)
			}
			f.gateway.AssertExpectations(t)
			f.users.AssertExpectations(t)
			f.metrics.AssertExpectations(t)
		})
	}
}

func TestPaymentService_VerifyRecharge_WebhookWonRace(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture()

	f.payments.On("GetByReference", ctx, "plink_abc").Return(pendingPayment(42), nil).Once()
	f.gateway.On("FetchPaymentLink", ctx, "plink_abc").Return(&models.PaymentLink{ID: "plink_abc", Status: PaymentLinkPaid}, nil)
	f.payments.On("MarkVerified", ctx, "plink_abc").Return(nil, nil)
	f.payments.On("GetByReference", ctx, "plink_abc").Return(verifiedPayment(42), nil).Once()

	payment, err := f.service.VerifyRecharge(ctx, 42, "plink_abc")

	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusVerified, payment.Status)
	f.users.AssertNotCalled(t, "AdjustBalance", mock.Anything, mock.Anything, mock.Anything)
	f.metrics.AssertNotCalled(t, "RecordPaymentVerified", mock.Anything)
}

func TestPaymentService_RecentRecharges(t *testing.T) {
	ctx := context.Background()
	f := newPaymentFixture()

	rows := []*models.Payment{verifiedPayment(42), pendingPayment(42)}
	f.payments.On("ListByUser", ctx, int64(42), 5).Return(rows, nil).Once()
	f.payments.On("ListByUser", ctx, int64(7), 5).Return(nil, errors.New("timeout")).Once()

	payments, err := f.service.RecentRecharges(ctx, 42, 5)
	require.NoError(t, err)
	assert.Equal(t, rows, payments)

	_, err = f.service.RecentRecharges(ctx, 7, 5)
	assert.ErrorContains(t, err, "failed to list recharges")
	f.payments.AssertExpectations(t)
}
