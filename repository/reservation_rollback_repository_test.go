package repository

import (
	"context"
	"testing"
	"time"

	"sessionbot/models"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReservationRollbackRepository_Record(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	repo := newReservationRollbackRepositoryWithTx(mock)

	now := time.Now()
	mock.ExpectQuery(`INSERT INTO reservation_rollbacks \(number_id, user_id, price, reason, released\)`).
		WithArgs(int64(7), int64(42), int64(1000), "insufficient funds at debit", false).
		WillReturnRows(mock.NewRows([]string{"id", "created_at"}).AddRow(int64(3), now))

	rollback := &models.ReservationRollback{NumberID: 7, UserID: 42, Price: 1000, Reason: "insufficient funds at debit"}
	require.NoError(t, repo.Record(context.Background(), rollback))

	assert.Equal(t, int64(3), rollback.ID)
	assert.Equal(t, now, rollback.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRollbackRepository_ListUnreleased(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	repo := newReservationRollbackRepositoryWithTx(mock)

	now := time.Now()
	mock.ExpectQuery(`FROM reservation_rollbacks\s+WHERE released = FALSE\s+ORDER BY created_at`).
		WillReturnRows(mock.NewRows([]string{"id", "number_id", "user_id", "price", "reason", "released", "created_at"}).
			AddRow(int64(1), int64(7), int64(42), int64(1000), "release failed", false, now).
			AddRow(int64(2), int64(8), int64(43), int64(2000), "release failed", false, now))

	rollbacks, err := repo.ListUnreleased(context.Background())

	require.NoError(t, err)
	require.Len(t, rollbacks, 2)
	assert.Equal(t, int64(8), rollbacks[1].NumberID)
	assert.False(t, rollbacks[0].Released)
	assert.NoError(t, mock.ExpectationsWereMet())
}
