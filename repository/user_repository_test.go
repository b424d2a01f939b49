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

var userRowColumns = []string{
	"user_id", "username", "first_name", "balance", "total_spent", "referral_code",
	"referred_by", "referral_count", "banned", "created_at", "updated_at",
}

func newMockUserRepository(t *testing.T) (*UserRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return newUserRepositoryWithTx(mock), mock
}

func TestUserRepository_AdjustBalance_IsAtomicIncrement(t *testing.T) {
	repo, mock := newMockUserRepository(t)

	mock.ExpectQuery(`UPDATE users SET balance = balance \+ \$1, updated_at = NOW\(\) WHERE user_id = \$2 RETURNING balance`).
		WithArgs(int64(-250), int64(42)).
		WillReturnRows(mock.NewRows([]string{"balance"}).AddRow(int64(750)))

	balance, err := repo.AdjustBalance(context.Background(), 42, -250)

	require.NoError(t, err)
	assert.Equal(t, int64(750), balance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_AdjustBalance_UnknownUser(t *testing.T) {
	repo, mock := newMockUserRepository(t)

	mock.ExpectQuery(`UPDATE users SET balance = balance \+ \$1`).
		WithArgs(int64(100), int64(404)).
		WillReturnRows(mock.NewRows([]string{"balance"}))

	_, err := repo.AdjustBalance(context.Background(), 404, 100)

	assert.ErrorContains(t, err, "not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_DebitForPurchase(t *testing.T) {
	tests := []struct {
		name        string
		rows        func(mock pgxmock.PgxPoolIface) *pgxmock.Rows
		wantOK      bool
		wantBalance int64
	}{
		{
			name: "balance covers amount",
			rows: func(mock pgxmock.PgxPoolIface) *pgxmock.Rows {
				return mock.NewRows([]string{"balance"}).AddRow(int64(0))
			},
			wantOK:      true,
			wantBalance: 0,
		},
		{
			name: "guard rejects insufficient balance",
			rows: func(mock pgxmock.PgxPoolIface) *pgxmock.Rows {
				return mock.NewRows([]string{"balance"})
			},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockUserRepository(t)

			mock.ExpectQuery(`UPDATE users SET balance = balance - \$1, total_spent = total_spent \+ \$1, updated_at = NOW\(\) WHERE user_id = \$2 AND balance >= \$1 RETURNING balance`).
				WithArgs(int64(1500), int64(42)).
				WillReturnRows(tt.rows(mock))

			balance, ok, err := repo.DebitForPurchase(context.Background(), 42, 1500)

			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantBalance, balance)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_DebitForPurchase_RejectsNonPositiveAmount(t *testing.T) {
	repo, mock := newMockUserRepository(t)

	_, _, err := repo.DebitForPurchase(context.Background(), 42, 0)

	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create_ExistingUserIsReturnedUnchanged(t *testing.T) {
	repo, mock := newMockUserRepository(t)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO users .+ ON CONFLICT \(user_id\) DO NOTHING RETURNING`).
		WithArgs(int64(42), "alice", "Alice", int64(0), "REF42").
		WillReturnRows(mock.NewRows(userRowColumns))
	mock.ExpectQuery(`SELECT .+ FROM users WHERE user_id = \$1`).
		WithArgs(int64(42)).
		WillReturnRows(mock.NewRows(userRowColumns).
			AddRow(int64(42), "alice", "Alice", int64(5000), int64(1500), "REF42", nil, 2, false, now, now))

	user, created, err := repo.Create(context.Background(), &models.User{UserID: 42, Username: "alice", FirstName: "Alice"})

	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int64(5000), user.Balance)
	assert.Equal(t, 2, user.ReferralCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_SetReferrer_OnlyOnce(t *testing.T) {
	repo, mock := newMockUserRepository(t)

	mock.ExpectExec(`UPDATE users SET referred_by = \$1, updated_at = NOW\(\) WHERE user_id = \$2 AND referred_by IS NULL AND user_id <> \$1`).
		WithArgs(int64(7), int64(42)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	set, err := repo.SetReferrer(context.Background(), 42, 7)

	require.NoError(t, err)
	assert.False(t, set)
	assert.NoError(t, mock.ExpectationsWereMet())
}
