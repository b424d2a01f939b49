package service

import (
	"context"
	"sync"

	"sessionbot/events"
	"sessionbot/models"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, userID int64) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, bool, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.User), args.Bool(1), args.Error(2)
}

func (m *MockUserRepository) AdjustBalance(ctx context.Context, userID int64, delta int64) (int64, error) {
	args := m.Called(ctx, userID, delta)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) DebitForPurchase(ctx context.Context, userID int64, amount int64) (int64, bool, error) {
	args := m.Called(ctx, userID, amount)
	return args.Get(0).(int64), args.Bool(1), args.Error(2)
}

func (m *MockUserRepository) SetBanned(ctx context.Context, userID int64, banned bool) (bool, error) {
	args := m.Called(ctx, userID, banned)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) SetReferrer(ctx context.Context, userID int64, referrerID int64) (bool, error) {
	args := m.Called(ctx, userID, referrerID)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) IncrementReferralCount(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockUserRepository) GetByReferralCode(ctx context.Context, code string) (*models.User, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) CountUsers(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockBalanceHistoryRepository is a mock implementation of BalanceHistoryRepository
type MockBalanceHistoryRepository struct {
	mock.Mock
}

func (m *MockBalanceHistoryRepository) Record(ctx context.Context, history *models.BalanceHistory) error {
	args := m.Called(ctx, history)
	return args.Error(0)
}

func (m *MockBalanceHistoryRepository) GetByUser(ctx context.Context, userID int64, limit int) ([]*models.BalanceHistory, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BalanceHistory), args.Error(1)
}

func (m *MockBalanceHistoryRepository) FindPurchase(ctx context.Context, userID, numberID int64) (*models.BalanceHistory, error) {
	args := m.Called(ctx, userID, numberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BalanceHistory), args.Error(1)
}

// MockNumberRepository is a mock implementation of NumberRepository
type MockNumberRepository struct {
	mock.Mock
}

func (m *MockNumberRepository) Create(ctx context.Context, record *models.NumberRecord) (*models.NumberRecord, error) {
	args := m.Called(ctx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.NumberRecord), args.Error(1)
}

func (m *MockNumberRepository) GetByID(ctx context.Context, id int64) (*models.NumberRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.NumberRecord), args.Error(1)
}

func (m *MockNumberRepository) ListAvailablePlatforms(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockNumberRepository) ListAvailableCountries(ctx context.Context, platform string) ([]string, error) {
	args := m.Called(ctx, platform)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockNumberRepository) PeekAvailable(ctx context.Context, platform, country string) (*models.NumberRecord, error) {
	args := m.Called(ctx, platform, country)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.NumberRecord), args.Error(1)
}

func (m *MockNumberRepository) Reserve(ctx context.Context, platform, country string, buyer int64) (*models.NumberRecord, error) {
	args := m.Called(ctx, platform, country, buyer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.NumberRecord), args.Error(1)
}

func (m *MockNumberRepository) Release(ctx context.Context, id int64, buyer int64) (bool, error) {
	args := m.Called(ctx, id, buyer)
	return args.Bool(0), args.Error(1)
}

func (m *MockNumberRepository) StockLevels(ctx context.Context) ([]*models.StockLevel, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.StockLevel), args.Error(1)
}

// MockPaymentRepository is a mock implementation of PaymentRepository
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	args := m.Called(ctx, payment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *MockPaymentRepository) GetByReference(ctx context.Context, reference string) (*models.Payment, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *MockPaymentRepository) MarkVerified(ctx context.Context, reference string) (*models.Payment, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *MockPaymentRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]*models.Payment, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Payment), args.Error(1)
}

// MockReservationRollbackRepository is a mock implementation of ReservationRollbackRepository
type MockReservationRollbackRepository struct {
	mock.Mock
}

func (m *MockReservationRollbackRepository) Record(ctx context.Context, rollback *models.ReservationRollback) error {
	args := m.Called(ctx, rollback)
	return args.Error(0)
}

func (m *MockReservationRollbackRepository) ListUnreleased(ctx context.Context) ([]*models.ReservationRollback, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ReservationRollback), args.Error(1)
}

// MockAdminRepository is a mock implementation of AdminRepository
type MockAdminRepository struct {
	mock.Mock
}

func (m *MockAdminRepository) Add(ctx context.Context, admin *models.Admin) error {
	args := m.Called(ctx, admin)
	return args.Error(0)
}

func (m *MockAdminRepository) Exists(ctx context.Context, userID int64) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

// MockEventPublisher records published events
type MockEventPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}

// Events returns everything published so far
func (m *MockEventPublisher) Events() []events.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]events.Event, len(m.events))
	copy(out, m.events)
	return out
}

// EventsOfType returns the published events of one type
func (m *MockEventPublisher) EventsOfType(eventType events.EventType) []events.Event {
	var out []events.Event
	for _, e := range m.Events() {
		if e.Type() == eventType {
			out = append(out, e)
		}
	}
	return out
}

// MockUnitOfWork is a mock implementation of UnitOfWork. Begin, Commit and Rollback
// are expectations; the repositories are fixed with SetRepositories.
type MockUnitOfWork struct {
	mock.Mock
	userRepo                UserRepository
	balanceHistoryRepo      BalanceHistoryRepository
	numberRepo              NumberRepository
	paymentRepo             PaymentRepository
	reservationRollbackRepo ReservationRollbackRepository
	adminRepo               AdminRepository
	eventBus                *MockEventPublisher
}

// SetRepositories wires the repositories returned by the getters. Any of them may be nil
// when the code under test does not use it.
func (m *MockUnitOfWork) SetRepositories(
	userRepo UserRepository,
	balanceHistoryRepo BalanceHistoryRepository,
	numberRepo NumberRepository,
	paymentRepo PaymentRepository,
	reservationRollbackRepo ReservationRollbackRepository,
	adminRepo AdminRepository,
) {
	m.userRepo = userRepo
	m.balanceHistoryRepo = balanceHistoryRepo
	m.numberRepo = numberRepo
	m.paymentRepo = paymentRepo
	m.reservationRollbackRepo = reservationRollbackRepo
	m.adminRepo = adminRepo
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) UserRepository() UserRepository {
	return m.userRepo
}

func (m *MockUnitOfWork) BalanceHistoryRepository() BalanceHistoryRepository {
	return m.balanceHistoryRepo
}

func (m *MockUnitOfWork) NumberRepository() NumberRepository {
	return m.numberRepo
}

func (m *MockUnitOfWork) PaymentRepository() PaymentRepository {
	return m.paymentRepo
}

func (m *MockUnitOfWork) ReservationRollbackRepository() ReservationRollbackRepository {
	return m.reservationRollbackRepo
}

func (m *MockUnitOfWork) AdminRepository() AdminRepository {
	return m.adminRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	return m.Events()
}

// Events returns the publisher backing EventBus
func (m *MockUnitOfWork) Events() *MockEventPublisher {
	if m.eventBus == nil {
		m.eventBus = &MockEventPublisher{}
	}
	return m.eventBus
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}

// MockMetricsRecorder is a mock implementation of MetricsRecorder
type MockMetricsRecorder struct {
	mock.Mock
}

func (m *MockMetricsRecorder) RecordPurchase(outcome models.PurchaseOutcome) {
	m.Called(outcome)
}

func (m *MockMetricsRecorder) RecordReservationRollback(released bool) {
	m.Called(released)
}

func (m *MockMetricsRecorder) RecordPaymentVerified(amount int64) {
	m.Called(amount)
}

func (m *MockMetricsRecorder) RecordCodeReveal(found bool) {
	m.Called(found)
}

// MockPaymentGateway is a mock implementation of PaymentGateway
type MockPaymentGateway struct {
	mock.Mock
}

func (m *MockPaymentGateway) CreatePaymentLink(ctx context.Context, userID int64, amount int64) (*models.PaymentLink, error) {
	args := m.Called(ctx, userID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentLink), args.Error(1)
}

func (m *MockPaymentGateway) FetchPaymentLink(ctx context.Context, linkID string) (*models.PaymentLink, error) {
	args := m.Called(ctx, linkID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentLink), args.Error(1)
}
