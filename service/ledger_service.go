package service

import (
	"context"
	"fmt"

	"sessionbot/models"

	log "github.com/sirupsen/logrus"
)

type ledgerService struct {
	uowFactory UnitOfWorkFactory
}

// NewLedgerService creates a new ledger service
func NewLedgerService(uowFactory UnitOfWorkFactory) LedgerService {
	return &ledgerService{uowFactory: uowFactory}
}

// GetBalance returns the wallet balance, zero for unknown users
func (s *ledgerService) GetBalance(ctx context.Context, userID int64) (int64, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return 0, nil
	}

	return user.Balance, nil
}

func (s *ledgerService) Adjust(ctx context.Context, userID int64, delta int64, txType models.TransactionType, metadata map[string]any) (int64, error) {
	if delta == 0 {
		return 0, fmt.Errorf("adjustment amount must be non-zero")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return 0, ErrUserNotFound
	}

	newBalance, err := uow.UserRepository().AdjustBalance(ctx, userID, delta)
	if err != nil {
		return 0, fmt.Errorf("failed to adjust balance: %w", err)
	}
	if newBalance < 0 {
		return 0, fmt.Errorf("%w: balance would be %s", ErrInsufficientBalance, models.FormatINR(newBalance))
	}

	history := &models.BalanceHistory{
		UserID:              userID,
		BalanceBefore:       newBalance - delta,
		BalanceAfter:        newBalance,
		ChangeAmount:        delta,
		TransactionType:     txType,
		TransactionMetadata: metadata,
	}
	if err := RecordBalanceChange(ctx, uow, history); err != nil {
		return 0, err
	}

	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"userID":          userID,
		"delta":           delta,
		"transactionType": txType,
		"newBalance":      newBalance,
	}).Info("Balance adjusted")

	return newBalance, nil
}

func (s *ledgerService) History(ctx context.Context, userID int64, limit int) ([]*models.BalanceHistory, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	history, err := uow.BalanceHistoryRepository().GetByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance history: %w", err)
	}
	return history, nil
}
