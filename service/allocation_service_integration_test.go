package service_test

import (
	"context"
	"sync"
	"testing"

	"sessionbot/events"
	"sessionbot/models"
	"sessionbot/repository"
	"sessionbot/repository/testutil"
	"sessionbot/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAllocationService(t *testing.T) (*testutil.TestDatabase, service.AllocationService) {
	t.Helper()
	testDB := testutil.SetupTestDatabase(t)
	factory := repository.NewUnitOfWorkFactory(testDB.DB, events.NewBus())
	return testDB, service.NewAllocationService(factory, nil)
}

func TestAllocationService_ConcurrentPurchases_Integration(t *testing.T) {
	testDB, allocation := newAllocationService(t)
	ctx := context.Background()

	const buyers = 12
	const records = 5
	const price int64 = 1500
	const startingBalance int64 = 10000

	for i := int64(1); i <= buyers; i++ {
		testutil.SeedUser(t, testDB.DB, testutil.CreateTestUserWithBalance(i, "buyer", startingBalance))
	}
	testutil.SeedNumbers(t, testDB.DB, "telegram", "india", price, records)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results = make(map[int64]*models.PurchaseResult)
		errs    []error
	)
	start := make(chan struct{})

	for i := int64(1); i <= buyers; i++ {
		wg.Add(1)
		go func(buyer int64) {
			defer wg.Done()
			<-start
			result, err := allocation.Purchase(ctx, buyer, "telegram", "india")

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			results[buyer] = result
		}(i)
	}
	close(start)
	wg.Wait()

	require.Empty(t, errs)
	require.Len(t, results, buyers)

	users := repository.NewUserRepository(testDB.DB)
	numbers := repository.NewNumberRepository(testDB.DB)
	sold := make(map[int64]int64)

	for buyer, result := range results {
		user, err := users.GetByID(ctx, buyer)
		require.NoError(t, err)

		switch result.Outcome {
		case models.PurchaseSuccess:
			assert.NotContains(t, sold, result.NumberID, "record %d sold twice", result.NumberID)
			sold[result.NumberID] = buyer
			assert.Equal(t, startingBalance-price, result.RemainingBalance)
			assert.Equal(t, result.RemainingBalance, user.Balance)
			assert.Equal(t, price, user.TotalSpent)
		case models.PurchaseNoInventory:
			assert.Equal(t, startingBalance, user.Balance)
			assert.Zero(t, user.TotalSpent)
		default:
			t.Errorf("buyer %d: unexpected outcome %v", buyer, result.Outcome)
		}
	}

	assert.Len(t, sold, records)
	for numberID, buyer := range sold {
		record, err := numbers.GetByID(ctx, numberID)
		require.NoError(t, err)
		assert.True(t, record.IsOwnedBy(buyer))
	}
	assert.Zero(t, testutil.AvailableCount(t, testDB.DB, "telegram", "india"))
}

func TestAllocationService_Purchase_Integration(t *testing.T) {
	testDB, allocation := newAllocationService(t)
	ctx := context.Background()

	testutil.SeedUser(t, testDB.DB, testutil.CreateTestUserWithBalance(1, "alice", 5000))
	testutil.SeedNumbers(t, testDB.DB, "telegram", "india", 1500, 2)

	users := repository.NewUserRepository(testDB.DB)
	numbers := repository.NewNumberRepository(testDB.DB)
	history := repository.NewBalanceHistoryRepository(testDB.DB)

	first, err := allocation.Purchase(ctx, 1, "telegram", "india")
	require.NoError(t, err)
	require.Equal(t, models.PurchaseSuccess, first.Outcome)
	assert.Equal(t, int64(5000)-first.Price, first.RemainingBalance)
	assert.Equal(t, "+14155550100", first.PhoneNumber)

	user, err := users.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, first.RemainingBalance, user.Balance)

	debit, err := history.FindPurchase(ctx, 1, first.NumberID)
	require.NoError(t, err)
	require.NotNil(t, debit)
	assert.Equal(t, -first.Price, debit.ChangeAmount)
	assert.Equal(t, int64(5000), debit.BalanceBefore)

	peek, err := numbers.PeekAvailable(ctx, "telegram", "india")
	require.NoError(t, err)
	require.NotNil(t, peek)
	assert.NotEqual(t, first.NumberID, peek.ID)

	second, err := allocation.Purchase(ctx, 1, "telegram", "india")
	require.NoError(t, err)
	require.Equal(t, models.PurchaseSuccess, second.Outcome)
	assert.Equal(t, peek.ID, second.NumberID)
	assert.Equal(t, int64(2000), second.RemainingBalance)

	third, err := allocation.Purchase(ctx, 1, "telegram", "india")
	require.NoError(t, err)
	assert.Equal(t, models.PurchaseNoInventory, third.Outcome)

	user, err = users.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), user.Balance)
	assert.Equal(t, int64(3000), user.TotalSpent)
}

func TestAllocationService_Purchase_RefusalsChangeNothing_Integration(t *testing.T) {
	testDB, allocation := newAllocationService(t)
	ctx := context.Background()

	banned := testutil.CreateTestUserWithBalance(1, "mallory", 5000)
	banned.Banned = true
	testutil.SeedUser(t, testDB.DB, banned)
	testutil.SeedUser(t, testDB.DB, testutil.CreateTestUserWithBalance(2, "bob", 1000))
	testutil.SeedNumbers(t, testDB.DB, "telegram", "india", 1500, 1)

	tests := []struct {
		name    string
		buyer   int64
		balance int64
		want    models.PurchaseOutcome
	}{
		{name: "banned buyer", buyer: 1, balance: 5000, want: models.PurchaseBuyerBanned},
		{name: "insufficient balance", buyer: 2, balance: 1000, want: models.PurchaseInsufficientFunds},
	}

	users := repository.NewUserRepository(testDB.DB)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := allocation.Purchase(ctx, tt.buyer, "telegram", "india")
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Outcome)

			user, err := users.GetByID(ctx, tt.buyer)
			require.NoError(t, err)
			assert.Equal(t, tt.balance, user.Balance)
			assert.Zero(t, user.TotalSpent)
			assert.Equal(t, int64(1), testutil.AvailableCount(t, testDB.DB, "telegram", "india"))
		})
	}
}
