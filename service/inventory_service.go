package service

import (
	"context"
	"fmt"
	"strings"

	"sessionbot/models"

	log "github.com/sirupsen/logrus"
)

type inventoryService struct {
	uowFactory UnitOfWorkFactory
}

// Telegram callback data is limited to 64 bytes
const maxTagBytes = 64 - len("country__")

// NewInventoryService creates a new inventory service
func NewInventoryService(uowFactory UnitOfWorkFactory) InventoryService {
	return &inventoryService{uowFactory: uowFactory}
}

func (s *inventoryService) ListAvailablePlatforms(ctx context.Context) ([]string, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return uow.NumberRepository().ListAvailablePlatforms(ctx)
}

func (s *inventoryService) ListAvailableCountries(ctx context.Context, platform string) ([]string, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return uow.NumberRepository().ListAvailableCountries(ctx, platform)
}

func (s *inventoryService) PeekAvailable(ctx context.Context, platform, country string) (*models.NumberRecord, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return uow.NumberRepository().PeekAvailable(ctx, platform, country)
}

// Ingest validates and stores a new record. Tags are stored lower case.
func (s *inventoryService) Ingest(ctx context.Context, platform, country string, priceRupees int64, payload []byte) (*models.NumberRecord, error) {
	platform = strings.ToLower(strings.TrimSpace(platform))
	country = strings.ToLower(strings.TrimSpace(country))

	switch {
	case platform == "":
		return nil, fmt.Errorf("%w: platform is required", ErrInvalidIngest)
	case country == "":
		return nil, fmt.Errorf("%w: country is required", ErrInvalidIngest)
	case strings.Contains(platform, "_"):
		// Callback data is "country_<platform>_<country>"
		return nil, fmt.Errorf("%w: platform must not contain underscores", ErrInvalidIngest)
	case len(platform)+len(country) > maxTagBytes:
		return nil, fmt.Errorf("%w: platform and country are too long", ErrInvalidIngest)
	case priceRupees <= 0:
		return nil, fmt.Errorf("%w: price must be positive", ErrInvalidIngest)
	case len(payload) == 0:
		return nil, fmt.Errorf("%w: payload is empty", ErrInvalidIngest)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	record, err := uow.NumberRepository().Create(ctx, &models.NumberRecord{
		Platform: platform,
		Country:  country,
		Price:    priceRupees * models.PaisePerRupee,
		Payload:  payload,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store number record: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"numberID": record.ID,
		"platform": platform,
		"country":  country,
		"price":    record.Price,
		"size":     len(payload),
	}).Info("Number record ingested")

	return record, nil
}

func (s *inventoryService) Stock(ctx context.Context) ([]*models.StockLevel, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	levels, err := uow.NumberRepository().StockLevels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get stock levels: %w", err)
	}
	return levels, nil
}
