package service

import (
	"context"

	"sessionbot/events"
	"sessionbot/models"
)

// UserRepository defines the interface for user and wallet data access.
// Balance mutations are single atomic statements; none of them read then write.
type UserRepository interface {
	// GetByID retrieves a user by their Telegram ID, returning nil when absent
	GetByID(ctx context.Context, userID int64) (*models.User, error)

	// Create inserts the user if absent. created is false when the user already existed,
	// in which case the stored row is returned unchanged.
	Create(ctx context.Context, user *models.User) (stored *models.User, created bool, err error)

	// AdjustBalance adds delta (which may be negative) to the balance and returns the new balance
	AdjustBalance(ctx context.Context, userID int64, delta int64) (int64, error)

	// DebitForPurchase subtracts amount and adds it to total spent, only if the balance covers it.
	// ok is false when the balance was insufficient and nothing changed.
	DebitForPurchase(ctx context.Context, userID int64, amount int64) (newBalance int64, ok bool, err error)

	// SetBanned sets the banned flag, reporting whether the user exists
	SetBanned(ctx context.Context, userID int64, banned bool) (bool, error)

	// SetReferrer records who referred the user, only if no referrer is set yet
	SetReferrer(ctx context.Context, userID int64, referrerID int64) (bool, error)

	// IncrementReferralCount adds one to the referrer's referral count
	IncrementReferralCount(ctx context.Context, userID int64) error

	// GetByReferralCode finds the owner of a referral code
	GetByReferralCode(ctx context.Context, code string) (*models.User, error)

	// CountUsers returns the number of registered users
	CountUsers(ctx context.Context) (int64, error)
}

// BalanceHistoryRepository defines the interface for balance history tracking
type BalanceHistoryRepository interface {
	// Record creates a new balance history entry
	Record(ctx context.Context, history *models.BalanceHistory) error

	// GetByUser returns the most recent balance history for a user
	GetByUser(ctx context.Context, userID int64, limit int) ([]*models.BalanceHistory, error)

	// FindPurchase returns the debit recorded when numberID was sold to userID, or nil
	FindPurchase(ctx context.Context, userID, numberID int64) (*models.BalanceHistory, error)
}

// NumberRepository defines the inventory store
type NumberRepository interface {
	// Create stores a new unused record
	Create(ctx context.Context, record *models.NumberRecord) (*models.NumberRecord, error)

	// GetByID retrieves a record, returning nil when absent
	GetByID(ctx context.Context, id int64) (*models.NumberRecord, error)

	// ListAvailablePlatforms returns the sorted distinct platforms with unused records
	ListAvailablePlatforms(ctx context.Context) ([]string, error)

	// ListAvailableCountries returns the sorted distinct countries with unused records for a platform
	ListAvailableCountries(ctx context.Context, platform string) ([]string, error)

	// PeekAvailable returns one unused record for display without reserving it
	PeekAvailable(ctx context.Context, platform, country string) (*models.NumberRecord, error)

	// Reserve atomically marks one unused matching record as used by buyer.
	// It returns nil when nothing was available at the moment of the attempt.
	Reserve(ctx context.Context, platform, country string, buyer int64) (*models.NumberRecord, error)

	// Release returns a record reserved by buyer to the unused state.
	// It reports false when the record was not held by buyer.
	Release(ctx context.Context, id int64, buyer int64) (bool, error)

	// StockLevels summarises unused records per platform and country
	StockLevels(ctx context.Context) ([]*models.StockLevel, error)
}

// PaymentRepository defines the payment ledger store
type PaymentRepository interface {
	// Create stores a pending payment
	Create(ctx context.Context, payment *models.Payment) (*models.Payment, error)

	// GetByReference retrieves a payment by its gateway reference, returning nil when absent
	GetByReference(ctx context.Context, reference string) (*models.Payment, error)

	// MarkVerified moves a pending payment to verified. It returns nil if the payment
	// is unknown or was already verified.
	MarkVerified(ctx context.Context, reference string) (*models.Payment, error)

	// ListByUser returns a user's most recent payments
	ListByUser(ctx context.Context, userID int64, limit int) ([]*models.Payment, error)
}

// ReservationRollbackRepository audits compensating releases
type ReservationRollbackRepository interface {
	// Record stores an audit entry
	Record(ctx context.Context, rollback *models.ReservationRollback) error

	// ListUnreleased returns entries whose release failed and which need manual reconciliation
	ListUnreleased(ctx context.Context) ([]*models.ReservationRollback, error)
}

// AdminRepository stores admins granted at runtime
type AdminRepository interface {
	// Add grants a role, doing nothing if the user is already an admin
	Add(ctx context.Context, admin *models.Admin) error

	// Exists reports whether the user has been granted a role
	Exists(ctx context.Context, userID int64) (bool, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes pending events
	Commit() error

	// Rollback rolls back the transaction and discards pending events
	Rollback() error

	// Repository getters
	UserRepository() UserRepository
	BalanceHistoryRepository() BalanceHistoryRepository
	NumberRepository() NumberRepository
	PaymentRepository() PaymentRepository
	ReservationRollbackRepository() ReservationRollbackRepository
	AdminRepository() AdminRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	// Create creates a new UnitOfWork instance
	Create() UnitOfWork
}

// MetricsRecorder receives business telemetry from the services
type MetricsRecorder interface {
	RecordPurchase(outcome models.PurchaseOutcome)
	RecordReservationRollback(released bool)
	RecordPaymentVerified(amount int64)
	RecordCodeReveal(found bool)
}

// PaymentGateway creates and inspects hosted payment links
type PaymentGateway interface {
	// CreatePaymentLink creates a link collecting amount paise from userID
	CreatePaymentLink(ctx context.Context, userID int64, amount int64) (*models.PaymentLink, error)

	// FetchPaymentLink returns the current state of a link
	FetchPaymentLink(ctx context.Context, linkID string) (*models.PaymentLink, error)
}

// AllocationService sells number records
type AllocationService interface {
	// Purchase reserves one record for the buyer and debits its price
	Purchase(ctx context.Context, buyer int64, platform, country string) (*models.PurchaseResult, error)

	// UnreleasedReservations lists reservations whose compensating release failed
	UnreleasedReservations(ctx context.Context) ([]*models.ReservationRollback, error)
}

// AdminChecker reports whether a user may act as an admin
type AdminChecker interface {
	IsAdmin(ctx context.Context, userID int64) (bool, error)
}

// InventoryService exposes the inventory to the chat transport and to ingestion
type InventoryService interface {
	ListAvailablePlatforms(ctx context.Context) ([]string, error)
	ListAvailableCountries(ctx context.Context, platform string) ([]string, error)
	PeekAvailable(ctx context.Context, platform, country string) (*models.NumberRecord, error)

	// Ingest stores a new unused record priced in whole rupees
	Ingest(ctx context.Context, platform, country string, priceRupees int64, payload []byte) (*models.NumberRecord, error)

	// Stock summarises unused inventory
	Stock(ctx context.Context) ([]*models.StockLevel, error)
}

// LedgerService exposes wallet balances and adjustments
type LedgerService interface {
	GetBalance(ctx context.Context, userID int64) (int64, error)

	// Adjust applies delta and records it in balance history, refusing to go below zero
	Adjust(ctx context.Context, userID int64, delta int64, txType models.TransactionType, metadata map[string]any) (int64, error)

	History(ctx context.Context, userID int64, limit int) ([]*models.BalanceHistory, error)
}

// OTPService reveals one-time codes for purchased records
type OTPService interface {
	RevealCode(ctx context.Context, userID int64, numberID int64) (*models.CodeReveal, error)
}

// PaymentService manages wallet recharges
type PaymentService interface {
	InitiateRecharge(ctx context.Context, userID int64, rupees int64) (*models.PaymentLink, error)
	VerifyRecharge(ctx context.Context, userID int64, reference string) (*models.Payment, error)
	ConfirmRecharge(ctx context.Context, reference string) (*models.Payment, error)
	RecentRecharges(ctx context.Context, userID int64, limit int) ([]*models.Payment, error)
	MinRecharge() int64
}

// UserService manages accounts, referrals and roles
type UserService interface {
	GetOrCreateUser(ctx context.Context, userID int64, username, firstName, referralCode string) (*models.User, error)
	GetUser(ctx context.Context, userID int64) (*models.User, error)
	SetBanned(ctx context.Context, userID int64, banned bool) error
	IsAdmin(ctx context.Context, userID int64) (bool, error)
	AddAdmin(ctx context.Context, userID int64, addedBy int64) error
	CountUsers(ctx context.Context) (int64, error)
}
