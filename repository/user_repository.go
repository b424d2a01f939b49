package repository

import (
	"context"
	"errors"
	"fmt"

	"sessionbot/database"
	"sessionbot/models"

	"github.com/jackc/pgx/v5"
)

const userColumns = `user_id, username, first_name, balance, total_spent, referral_code,
		referred_by, referral_count, banned, created_at, updated_at`

// UserRepository implements the UserRepository interface and is the ledger store
type UserRepository struct {
	q queryable
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{q: db.Pool}
}

// newUserRepositoryWithTx creates a new user repository with a transaction
func newUserRepositoryWithTx(tx queryable) *UserRepository {
	return &UserRepository{q: tx}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.UserID,
		&user.Username,
		&user.FirstName,
		&user.Balance,
		&user.TotalSpent,
		&user.ReferralCode,
		&user.ReferredBy,
		&user.ReferralCount,
		&user.Banned,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByID retrieves a user by their Telegram ID
func (r *UserRepository) GetByID(ctx context.Context, userID int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`

	user, err := scanUser(r.q.QueryRow(ctx, query, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}

	return user, nil
}

// Create inserts the user unless one with the same ID exists
func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, bool, error) {
	query := `
		INSERT INTO users (user_id, username, first_name, balance, referral_code)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO NOTHING
		RETURNING ` + userColumns

	created, err := scanUser(r.q.QueryRow(ctx, query,
		user.UserID,
		user.Username,
		user.FirstName,
		user.Balance,
		models.ReferralCodeFor(user.UserID),
	))
	if err == nil {
		return created, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("failed to create user %d: %w", user.UserID, err)
	}

	existing, err := r.GetByID(ctx, user.UserID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// AdjustBalance adds delta to the user's balance in one statement and returns the new balance
func (r *UserRepository) AdjustBalance(ctx context.Context, userID int64, delta int64) (int64, error) {
	query := `
		UPDATE users
		SET balance = balance + $1, updated_at = NOW()
		WHERE user_id = $2
		RETURNING balance
	`

	var balance int64
	err := r.q.QueryRow(ctx, query, delta, userID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("user %d not found", userID)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to adjust balance for user %d: %w", userID, err)
	}

	return balance, nil
}

// DebitForPurchase subtracts amount and records it as spend, guarded by the current balance
func (r *UserRepository) DebitForPurchase(ctx context.Context, userID int64, amount int64) (int64, bool, error) {
	if amount <= 0 {
		return 0, false, fmt.Errorf("amount must be positive")
	}

	query := `
		UPDATE users
		SET balance = balance - $1, total_spent = total_spent + $1, updated_at = NOW()
		WHERE user_id = $2 AND balance >= $1
		RETURNING balance
	`

	var balance int64
	err := r.q.QueryRow(ctx, query, amount, userID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to debit user %d: %w", userID, err)
	}

	return balance, true, nil
}

// SetBanned sets the banned flag
func (r *UserRepository) SetBanned(ctx context.Context, userID int64, banned bool) (bool, error) {
	query := `UPDATE users SET banned = $1, updated_at = NOW() WHERE user_id = $2`

	result, err := r.q.Exec(ctx, query, banned, userID)
	if err != nil {
		return false, fmt.Errorf("failed to set banned for user %d: %w", userID, err)
	}

	return result.RowsAffected() > 0, nil
}

// SetReferrer records the referrer if none is set and the user is not referring themselves
func (r *UserRepository) SetReferrer(ctx context.Context, userID int64, referrerID int64) (bool, error) {
	query := `
		UPDATE users
		SET referred_by = $1, updated_at = NOW()
		WHERE user_id = $2 AND referred_by IS NULL AND user_id <> $1
	`

	result, err := r.q.Exec(ctx, query, referrerID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to set referrer for user %d: %w", userID, err)
	}

	return result.RowsAffected() > 0, nil
}

// IncrementReferralCount adds one to the user's referral count
func (r *UserRepository) IncrementReferralCount(ctx context.Context, userID int64) error {
	query := `UPDATE users SET referral_count = referral_count + 1, updated_at = NOW() WHERE user_id = $1`

	result, err := r.q.Exec(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to increment referral count for user %d: %w", userID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %d not found", userID)
	}

	return nil
}

// GetByReferralCode finds the owner of a referral code
func (r *UserRepository) GetByReferralCode(ctx context.Context, code string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE referral_code = $1`

	user, err := scanUser(r.q.QueryRow(ctx, query, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by referral code: %w", err)
	}

	return user, nil
}

// CountUsers returns the number of registered users
func (r *UserRepository) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}
