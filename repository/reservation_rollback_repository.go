package repository

import (
	"context"
	"fmt"

	"sessionbot/database"
	"sessionbot/models"
)

// ReservationRollbackRepository implements the ReservationRollbackRepository interface
type ReservationRollbackRepository struct {
	q queryable
}

// NewReservationRollbackRepository creates a new reservation rollback repository
func NewReservationRollbackRepository(db *database.DB) *ReservationRollbackRepository {
	return &ReservationRollbackRepository{q: db.Pool}
}

func newReservationRollbackRepositoryWithTx(tx queryable) *ReservationRollbackRepository {
	return &ReservationRollbackRepository{q: tx}
}

// Record stores an audit entry
func (r *ReservationRollbackRepository) Record(ctx context.Context, rollback *models.ReservationRollback) error {
	query := `
		INSERT INTO reservation_rollbacks (number_id, user_id, price, reason, released)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		rollback.NumberID,
		rollback.UserID,
		rollback.Price,
		rollback.Reason,
		rollback.Released,
	).Scan(&rollback.ID, &rollback.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record reservation rollback for number %d: %w", rollback.NumberID, err)
	}

	return nil
}

// ListUnreleased returns entries whose release failed
func (r *ReservationRollbackRepository) ListUnreleased(ctx context.Context) ([]*models.ReservationRollback, error) {
	query := `
		SELECT id, number_id, user_id, price, reason, released, created_at
		FROM reservation_rollbacks
		WHERE released = FALSE
		ORDER BY created_at
	`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list unreleased rollbacks: %w", err)
	}
	defer rows.Close()

	var rollbacks []*models.ReservationRollback
	for rows.Next() {
		var rb models.ReservationRollback
		if err := rows.Scan(&rb.ID, &rb.NumberID, &rb.UserID, &rb.Price, &rb.Reason, &rb.Released, &rb.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rollback: %w", err)
		}
		rollbacks = append(rollbacks, &rb)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rollbacks: %w", err)
	}

	return rollbacks, nil
}
