package repository

import (
	"context"
	"errors"
	"fmt"

	"sessionbot/database"
	"sessionbot/models"

	"github.com/jackc/pgx/v5"
)

const paymentColumns = `id, user_id, amount, reference, status, created_at, verified_at`

// PaymentRepository implements the PaymentRepository interface
type PaymentRepository struct {
	q queryable
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *database.DB) *PaymentRepository {
	return &PaymentRepository{q: db.Pool}
}

// newPaymentRepositoryWithTx creates a new payment repository with a transaction
func newPaymentRepositoryWithTx(tx queryable) *PaymentRepository {
	return &PaymentRepository{q: tx}
}

func scanPayment(row pgx.Row) (*models.Payment, error) {
	var payment models.Payment
	err := row.Scan(
		&payment.ID,
		&payment.UserID,
		&payment.Amount,
		&payment.Reference,
		&payment.Status,
		&payment.CreatedAt,
		&payment.VerifiedAt,
	)
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// Create stores a pending payment
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	query := `
		INSERT INTO payments (user_id, amount, reference, status)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + paymentColumns

	created, err := scanPayment(r.q.QueryRow(ctx, query,
		payment.UserID,
		payment.Amount,
		payment.Reference,
		models.PaymentStatusPending,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create payment for user %d: %w", payment.UserID, err)
	}

	return created, nil
}

// GetByReference retrieves a payment by its gateway reference
func (r *PaymentRepository) GetByReference(ctx context.Context, reference string) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE reference = $1`

	payment, err := scanPayment(r.q.QueryRow(ctx, query, reference))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment %s: %w", reference, err)
	}

	return payment, nil
}

// MarkVerified moves a pending payment to verified, returning nil if it was not pending
func (r *PaymentRepository) MarkVerified(ctx context.Context, reference string) (*models.Payment, error) {
	query := `
		UPDATE payments
		SET status = 'verified', verified_at = NOW()
		WHERE reference = $1 AND status = 'pending'
		RETURNING ` + paymentColumns

	payment, err := scanPayment(r.q.QueryRow(ctx, query, reference))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to verify payment %s: %w", reference, err)
	}

	return payment, nil
}

// ListByUser returns a user's most recent payments
func (r *PaymentRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]*models.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments for user %d: %w", userID, err)
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, payment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payments: %w", err)
	}

	return payments, nil
}
