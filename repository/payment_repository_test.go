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

var paymentRowColumns = []string{"id", "user_id", "amount", "reference", "status", "created_at", "verified_at"}

func TestPaymentRepository_MarkVerified(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		rows     func(mock pgxmock.PgxPoolIface) *pgxmock.Rows
		wantNil  bool
		wantStat models.PaymentStatus
	}{
		{
			name: "pending payment is verified",
			rows: func(mock pgxmock.PgxPoolIface) *pgxmock.Rows {
				return mock.NewRows(paymentRowColumns).
					AddRow(int64(1), int64(42), int64(5000), "plink_abc", models.PaymentStatusVerified, now, &now)
			},
			wantStat: models.PaymentStatusVerified,
		},
		{
			name: "already verified payment yields nil",
			rows: func(mock pgxmock.PgxPoolIface) *pgxmock.Rows {
				return mock.NewRows(paymentRowColumns)
			},
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()
			repo := newPaymentRepositoryWithTx(mock)

			mock.ExpectQuery(`UPDATE payments SET status = 'verified', verified_at = NOW\(\) WHERE reference = \$1 AND status = 'pending' RETURNING`).
				WithArgs("plink_abc").
				WillReturnRows(tt.rows(mock))

			payment, err := repo.MarkVerified(context.Background(), "plink_abc")

			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, payment)
			} else {
				require.NotNil(t, payment)
				assert.Equal(t, tt.wantStat, payment.Status)
				assert.NotNil(t, payment.VerifiedAt)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
