package testhelpers

import (
	"context"

	"sessionbot/models"
	"sessionbot/session"

	"github.com/stretchr/testify/mock"
)

// MockUserService is a mock implementation of service.UserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) GetOrCreateUser(ctx context.Context, userID int64, username, firstName, referralCode string) (*models.User, error) {
	args := m.Called(ctx, userID, username, firstName, referralCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) SetBanned(ctx context.Context, userID int64, banned bool) error {
	args := m.Called(ctx, userID, banned)
	return args.Error(0)
}

func (m *MockUserService) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserService) AddAdmin(ctx context.Context, userID int64, addedBy int64) error {
	args := m.Called(ctx, userID, addedBy)
	return args.Error(0)
}

func (m *MockUserService) CountUsers(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockAllocationService is a mock implementation of service.AllocationService
type MockAllocationService struct {
	mock.Mock
}

func (m *MockAllocationService) Purchase(ctx context.Context, buyer int64, platform, country string) (*models.PurchaseResult, error) {
	args := m.Called(ctx, buyer, platform, country)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PurchaseResult), args.Error(1)
}

func (m *MockAllocationService) UnreleasedReservations(ctx context.Context) ([]*models.ReservationRollback, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ReservationRollback), args.Error(1)
}

// MockInventoryService is a mock implementation of service.InventoryService
type MockInventoryService struct {
	mock.Mock
}

func (m *MockInventoryService) ListAvailablePlatforms(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockInventoryService) ListAvailableCountries(ctx context.Context, platform string) ([]string, error) {
	args := m.Called(ctx, platform)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockInventoryService) PeekAvailable(ctx context.Context, platform, country string) (*models.NumberRecord, error) {
	args := m.Called(ctx, platform, country)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.NumberRecord), args.Error(1)
}

func (m *MockInventoryService) Ingest(ctx context.Context, platform, country string, priceRupees int64, payload []byte) (*models.NumberRecord, error) {
	args := m.Called(ctx, platform, country, priceRupees, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.NumberRecord), args.Error(1)
}

func (m *MockInventoryService) Stock(ctx context.Context) ([]*models.StockLevel, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.StockLevel), args.Error(1)
}

// MockOTPService is a mock implementation of service.OTPService
type MockOTPService struct {
	mock.Mock
}

func (m *MockOTPService) RevealCode(ctx context.Context, userID int64, numberID int64) (*models.CodeReveal, error) {
	args := m.Called(ctx, userID, numberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CodeReveal), args.Error(1)
}

// MockPaymentService is a mock implementation of service.PaymentService
type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) InitiateRecharge(ctx context.Context, userID int64, rupees int64) (*models.PaymentLink, error) {
	args := m.Called(ctx, userID, rupees)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentLink), args.Error(1)
}

func (m *MockPaymentService) VerifyRecharge(ctx context.Context, userID int64, reference string) (*models.Payment, error) {
	args := m.Called(ctx, userID, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *MockPaymentService) ConfirmRecharge(ctx context.Context, reference string) (*models.Payment, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *MockPaymentService) RecentRecharges(ctx context.Context, userID int64, limit int) ([]*models.Payment, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Payment), args.Error(1)
}

func (m *MockPaymentService) MinRecharge() int64 {
	args := m.Called()
	return args.Get(0).(int64)
}

// MockStateStore is a mock of the conversation state store
type MockStateStore struct {
	mock.Mock
}

func (m *MockStateStore) Get(ctx context.Context, chatID int64) (*session.State, error) {
	args := m.Called(ctx, chatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.State), args.Error(1)
}

func (m *MockStateStore) Set(ctx context.Context, chatID int64, state session.State) error {
	args := m.Called(ctx, chatID, state)
	return args.Error(0)
}

func (m *MockStateStore) Clear(ctx context.Context, chatID int64) error {
	args := m.Called(ctx, chatID)
	return args.Error(0)
}

// MockLedgerService is a mock implementation of service.LedgerService
type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) GetBalance(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLedgerService) Adjust(ctx context.Context, userID int64, delta int64, txType models.TransactionType, metadata map[string]any) (int64, error) {
	args := m.Called(ctx, userID, delta, txType, metadata)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLedgerService) History(ctx context.Context, userID int64, limit int) ([]*models.BalanceHistory, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BalanceHistory), args.Error(1)
}
