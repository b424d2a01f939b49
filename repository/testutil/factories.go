package testutil

import (
	"context"
	"testing"
	"time"

	"sessionbot/database"
	"sessionbot/models"

	"github.com/stretchr/testify/require"
)

// CreateTestUser creates a test user with default values
func CreateTestUser(userID int64, username string) *models.User {
	now := time.Now()
	return &models.User{
		UserID:       userID,
		Username:     username,
		FirstName:    username,
		Balance:      10000,
		ReferralCode: models.ReferralCodeFor(userID),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// CreateTestUserWithBalance creates a test user with a specific balance
func CreateTestUserWithBalance(userID int64, username string, balance int64) *models.User {
	user := CreateTestUser(userID, username)
	user.Balance = balance
	return user
}

// CreateTestNumber creates an unused number record whose payload is raw text
func CreateTestNumber(platform, country string, price int64) *models.NumberRecord {
	return &models.NumberRecord{
		Platform: platform,
		Country:  country,
		Price:    price,
		Payload:  []byte("+14155550100 code 48213"),
	}
}

// CreateTestPayment creates a pending payment
func CreateTestPayment(userID int64, amount int64, reference string) *models.Payment {
	return &models.Payment{
		UserID:    userID,
		Amount:    amount,
		Reference: reference,
		Status:    models.PaymentStatusPending,
	}
}

// CreateTestBalanceHistory creates a test balance history entry
func CreateTestBalanceHistory(userID int64, transactionType models.TransactionType) *models.BalanceHistory {
	return &models.BalanceHistory{
		UserID:          userID,
		BalanceBefore:   10000,
		BalanceAfter:    9000,
		ChangeAmount:    -1000,
		TransactionType: transactionType,
		TransactionMetadata: map[string]any{
			"test": true,
		},
		CreatedAt: time.Now(),
	}
}

// SeedUser inserts a user row directly, including its balance
func SeedUser(t *testing.T, db *database.DB, user *models.User) {
	t.Helper()

	_, err := db.Exec(context.Background(), `
		INSERT INTO users (user_id, username, first_name, balance, referral_code, banned)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, user.UserID, user.Username, user.FirstName, user.Balance, models.ReferralCodeFor(user.UserID), user.Banned)
	require.NoError(t, err)
}

// SeedNumbers inserts count unused records for a platform/country pair
func SeedNumbers(t *testing.T, db *database.DB, platform, country string, price int64, count int) {
	t.Helper()

	for i := 0; i < count; i++ {
		record := CreateTestNumber(platform, country, price)
		_, err := db.Exec(context.Background(), `
			INSERT INTO numbers (platform, country, price, payload) VALUES ($1, $2, $3, $4)
		`, record.Platform, record.Country, record.Price, record.Payload)
		require.NoError(t, err)
	}
}

// AvailableCount counts unused records for a platform/country pair
func AvailableCount(t *testing.T, db *database.DB, platform, country string) int64 {
	t.Helper()

	var count int64
	err := db.QueryRow(context.Background(), `
		SELECT COUNT(*) FROM numbers WHERE platform = $1 AND country = $2 AND used = FALSE
	`, platform, country).Scan(&count)
	require.NoError(t, err)
	return count
}
