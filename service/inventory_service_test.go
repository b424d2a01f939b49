package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"sessionbot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newInventoryMocks() (InventoryService, *MockUnitOfWork, *MockNumberRepository) {
	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockNumberRepo := new(MockNumberRepository)

	mockUoW.SetRepositories(nil, nil, mockNumberRepo, nil, nil, nil)
	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", mock.Anything).Return(nil)
	mockUoW.On("Commit").Return(nil).Maybe()
	mockUoW.On("Rollback").Return(nil)

	return NewInventoryService(mockFactory), mockUoW, mockNumberRepo
}

func TestInventoryService_Ingest(t *testing.T) {
	ctx := context.Background()
	service, mockUoW, mockNumberRepo := newInventoryMocks()

	mockNumberRepo.On("Create", ctx, mock.MatchedBy(func(r *models.NumberRecord) bool {
		return r.Platform == "telegram" &&
			r.Country == "india" &&
			r.Price == 1500 &&
			string(r.Payload) == "archive"
	})).Return(&models.NumberRecord{ID: 11, Platform: "telegram", Country: "india", Price: 1500}, nil)

	record, err := service.Ingest(ctx, " Telegram ", "INDIA", 15, []byte("archive"))

	require.NoError(t, err)
	assert.Equal(t, int64(11), record.ID)
	mockUoW.AssertCalled(t, "Commit")
	mockNumberRepo.AssertExpectations(t)
}

func TestInventoryService_Ingest_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		platform string
		country  string
		price    int64
		payload  []byte
	}{
		{name: "missing platform", platform: " ", country: "india", price: 10, payload: []byte("x")},
		{name: "missing country", platform: "telegram", country: "", price: 10, payload: []byte("x")},
		{name: "zero price", platform: "telegram", country: "india", price: 0, payload: []byte("x")},
		{name: "negative price", platform: "telegram", country: "india", price: -5, payload: []byte("x")},
		{name: "empty payload", platform: "telegram", country: "india", price: 10},
		{name: "underscore in platform", platform: "tele_gram", country: "india", price: 10, payload: []byte("x")},
		{name: "tags too long", platform: "telegram", country: strings.Repeat("x", 60), price: 10, payload: []byte("x")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			service, _, mockNumberRepo := newInventoryMocks()

			_, err := service.Ingest(context.Background(), tt.platform, tt.country, tt.price, tt.payload)

			assert.ErrorIs(t, err, ErrInvalidIngest)
			mockNumberRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestInventoryService_Listings(t *testing.T) {
	ctx := context.Background()
	service, _, mockNumberRepo := newInventoryMocks()

	mockNumberRepo.On("ListAvailablePlatforms", ctx).Return([]string{"instagram", "telegram"}, nil)
	mockNumberRepo.On("ListAvailableCountries", ctx, "telegram").Return([]string{"india"}, nil)
	mockNumberRepo.On("PeekAvailable", ctx, "telegram", "india").Return(&models.NumberRecord{ID: 3, Price: 1500}, nil)
	mockNumberRepo.On("StockLevels", ctx).Return(nil, errors.New("timeout"))

	platforms, err := service.ListAvailablePlatforms(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"instagram", "telegram"}, platforms)

	countries, err := service.ListAvailableCountries(ctx, "telegram")
	require.NoError(t, err)
	assert.Equal(t, []string{"india"}, countries)

	offer, err := service.PeekAvailable(ctx, "telegram", "india")
	require.NoError(t, err)
	assert.Equal(t, int64(1500), offer.Price)

	_, err = service.Stock(ctx)
	assert.ErrorContains(t, err, "failed to get stock levels")
}
