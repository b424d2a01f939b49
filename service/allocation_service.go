package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sessionbot/events"
	"sessionbot/extractor"
	"sessionbot/models"

	log "github.com/sirupsen/logrus"
)

// compensationTimeout bounds the release that follows a failed charge. It runs detached
// from the caller's context so a cancelled request still returns the record to stock.
const compensationTimeout = 10 * time.Second

var (
	// errDebitRefused means the balance guard rejected the debit after the record was reserved
	errDebitRefused = errors.New("balance no longer covers price")

	// errChargeUncertain means the purchase commit failed in a way that may still have persisted it
	errChargeUncertain = errors.New("purchase commit outcome unknown")
)

type allocationService struct {
	uowFactory UnitOfWorkFactory
	metrics    MetricsRecorder
}

// NewAllocationService creates a new allocation service
func NewAllocationService(uowFactory UnitOfWorkFactory, metrics MetricsRecorder) AllocationService {
	return &allocationService{
		uowFactory: uowFactory,
		metrics:    metricsOrNoop(metrics),
	}
}

func (s *allocationService) Purchase(ctx context.Context, buyer int64, platform, country string) (*models.PurchaseResult, error) {
	result, err := s.purchase(ctx, buyer, platform, country)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordPurchase(result.Outcome)
	return result, nil
}

func (s *allocationService) purchase(ctx context.Context, buyer int64, platform, country string) (*models.PurchaseResult, error) {
	user, offer, err := s.loadOffer(ctx, buyer, platform, country)
	if err != nil {
		return nil, err
	}

	if user != nil && user.Banned {
		return &models.PurchaseResult{Outcome: models.PurchaseBuyerBanned}, nil
	}
	if offer == nil {
		return &models.PurchaseResult{Outcome: models.PurchaseNoInventory}, nil
	}

	var balance int64
	if user != nil {
		balance = user.Balance
	}
	if balance < offer.Price {
		return &models.PurchaseResult{
			Outcome: models.PurchaseInsufficientFunds,
			Price:   offer.Price,
			Balance: balance,
		}, nil
	}

	reserved, err := s.reserve(ctx, buyer, platform, country)
	if err != nil {
		return nil, err
	}
	if reserved == nil {
		// Another buyer took the last record between the peek and the reserve
		return &models.PurchaseResult{Outcome: models.PurchaseNoInventory}, nil
	}

	result, chargeErr := s.charge(ctx, buyer, reserved)
	if chargeErr == nil {
		log.WithFields(log.Fields{
			"userID":   buyer,
			"numberID": reserved.ID,
			"platform": reserved.Platform,
			"country":  reserved.Country,
			"price":    reserved.Price,
		}).Info("Number purchased")
		return result, nil
	}

	return s.compensate(ctx, buyer, reserved, chargeErr)
}

// loadOffer reads the buyer and the record that would be sold to them
func (s *allocationService) loadOffer(ctx context.Context, buyer int64, platform, country string) (*models.User, *models.NumberRecord, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByID(ctx, buyer)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get buyer: %w", err)
	}
	if user != nil && user.Banned {
		return user, nil, nil
	}

	offer, err := uow.NumberRepository().PeekAvailable(ctx, platform, country)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to peek inventory: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return user, offer, nil
}

// reserve commits the reservation on its own so the record is claimed before any money moves
func (s *allocationService) reserve(ctx context.Context, buyer int64, platform, country string) (*models.NumberRecord, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	reserved, err := uow.NumberRepository().Reserve(ctx, platform, country, buyer)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve number: %w", err)
	}
	if reserved == nil {
		return nil, nil
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit reservation: %w", err)
	}

	return reserved, nil
}

// charge debits the reserved record's price and records the sale
func (s *allocationService) charge(ctx context.Context, buyer int64, reserved *models.NumberRecord) (*models.PurchaseResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	newBalance, ok, err := uow.UserRepository().DebitForPurchase(ctx, buyer, reserved.Price)
	if err != nil {
		return nil, fmt.Errorf("failed to debit buyer: %w", err)
	}
	if !ok {
		return nil, errDebitRefused
	}

	relatedType := models.RelatedTypeNumber
	history := &models.BalanceHistory{
		UserID:          buyer,
		BalanceBefore:   newBalance + reserved.Price,
		BalanceAfter:    newBalance,
		ChangeAmount:    -reserved.Price,
		TransactionType: models.TransactionTypePurchase,
		TransactionMetadata: map[string]any{
			"platform":  reserved.Platform,
			"country":   reserved.Country,
			"number_id": reserved.ID,
		},
		RelatedID:   &reserved.ID,
		RelatedType: &relatedType,
	}
	if err := RecordBalanceChange(ctx, uow, history); err != nil {
		return nil, err
	}

	result := purchaseResult(reserved, newBalance)
	uow.EventBus().Publish(purchasedEvent(buyer, result))

	if err := uow.Commit(); err != nil {
		if errors.Is(err, ErrCommitRolledBack) {
			return nil, fmt.Errorf("failed to commit purchase: %w", err)
		}
		return nil, fmt.Errorf("%w: %w", errChargeUncertain, err)
	}

	return result, nil
}

func purchaseResult(reserved *models.NumberRecord, remaining int64) *models.PurchaseResult {
	phone, found := extractor.ExtractPhoneNumber(reserved.Payload)
	if !found {
		phone = models.PhonePlaceholder
	}

	return &models.PurchaseResult{
		Outcome:          models.PurchaseSuccess,
		NumberID:         reserved.ID,
		Platform:         reserved.Platform,
		Country:          reserved.Country,
		PhoneNumber:      phone,
		Price:            reserved.Price,
		RemainingBalance: remaining,
	}
}

func purchasedEvent(buyer int64, result *models.PurchaseResult) events.NumberPurchasedEvent {
	return events.NumberPurchasedEvent{
		UserID:           buyer,
		NumberID:         result.NumberID,
		Platform:         result.Platform,
		Country:          result.Country,
		PhoneNumber:      result.PhoneNumber,
		Price:            result.Price,
		RemainingBalance: result.RemainingBalance,
	}
}

// compensate returns a reserved record to stock after its charge failed and audits the release
func (s *allocationService) compensate(ctx context.Context, buyer int64, reserved *models.NumberRecord, chargeErr error) (*models.PurchaseResult, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	fields := log.Fields{
		"userID":   buyer,
		"numberID": reserved.ID,
		"price":    reserved.Price,
		"error":    chargeErr,
	}

	if errors.Is(chargeErr, errChargeUncertain) {
		return s.resolveUncertainCharge(ctx, buyer, reserved, chargeErr, fields)
	}

	releaseErr := s.releaseWithAudit(ctx, buyer, reserved, chargeErr.Error())
	if releaseErr != nil {
		fields["releaseError"] = releaseErr
		return nil, s.escalate(ctx, buyer, reserved, fmt.Errorf("%w; %w", chargeErr, releaseErr), fields)
	}

	s.metrics.RecordReservationRollback(true)
	log.WithFields(fields).Error("Released reserved number after failed charge")

	if !errors.Is(chargeErr, errDebitRefused) {
		return nil, fmt.Errorf("failed to charge for number %d: %w", reserved.ID, chargeErr)
	}

	balance, err := s.currentBalance(ctx, buyer)
	if err != nil {
		return nil, err
	}

	return &models.PurchaseResult{
		Outcome: models.PurchaseInsufficientFunds,
		Price:   reserved.Price,
		Balance: balance,
	}, nil
}

// resolveUncertainCharge settles a purchase whose commit may have landed. A recorded debit
// means the sale went through; anything else leaves the record reserved for an admin.
func (s *allocationService) resolveUncertainCharge(ctx context.Context, buyer int64, reserved *models.NumberRecord, chargeErr error, fields log.Fields) (*models.PurchaseResult, error) {
	result, err := s.recoverPurchase(ctx, buyer, reserved)
	if err != nil {
		fields["lookupError"] = err
		return nil, s.escalate(ctx, buyer, reserved, fmt.Errorf("%w; %w", chargeErr, err), fields)
	}
	if result == nil {
		return nil, s.escalate(ctx, buyer, reserved, chargeErr, fields)
	}

	log.WithFields(fields).Warn("Purchase commit reported an error but the debit was recorded")
	return result, nil
}

// recoverPurchase looks for the debit of reserved and, when present, re-announces the sale
func (s *allocationService) recoverPurchase(ctx context.Context, buyer int64, reserved *models.NumberRecord) (*models.PurchaseResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	debit, err := uow.BalanceHistoryRepository().FindPurchase(ctx, buyer, reserved.ID)
	if err != nil {
		return nil, err
	}
	if debit == nil {
		return nil, nil
	}

	result := purchaseResult(reserved, debit.BalanceAfter)
	uow.EventBus().Publish(purchasedEvent(buyer, result))

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return result, nil
}

// escalate leaves the record reserved, audits it as unreleased and reports ErrReconciliationRequired
func (s *allocationService) escalate(ctx context.Context, buyer int64, reserved *models.NumberRecord, cause error, fields log.Fields) error {
	s.metrics.RecordReservationRollback(false)
	if auditErr := s.recordUnreleased(ctx, buyer, reserved, cause.Error()); auditErr != nil {
		fields["auditError"] = auditErr
	}
	log.WithFields(fields).Error("Reserved number left unreleased after failed charge, manual reconciliation required")
	return fmt.Errorf("%w: number %d for user %d: %w", ErrReconciliationRequired, reserved.ID, buyer, cause)
}

func (s *allocationService) releaseWithAudit(ctx context.Context, buyer int64, reserved *models.NumberRecord, reason string) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	released, err := uow.NumberRepository().Release(ctx, reserved.ID, buyer)
	if err != nil {
		return err
	}
	if !released {
		return fmt.Errorf("number %d is not held by user %d", reserved.ID, buyer)
	}

	if err := s.recordRollback(ctx, uow, buyer, reserved, reason, true); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit release: %w", err)
	}
	return nil
}

// recordUnreleased writes the audit row for a release that did not happen
func (s *allocationService) recordUnreleased(ctx context.Context, buyer int64, reserved *models.NumberRecord, reason string) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := s.recordRollback(ctx, uow, buyer, reserved, reason, false); err != nil {
		return err
	}

	return uow.Commit()
}

func (s *allocationService) recordRollback(ctx context.Context, uow UnitOfWork, buyer int64, reserved *models.NumberRecord, reason string, released bool) error {
	rollback := &models.ReservationRollback{
		NumberID: reserved.ID,
		UserID:   buyer,
		Price:    reserved.Price,
		Reason:   reason,
		Released: released,
	}
	if err := uow.ReservationRollbackRepository().Record(ctx, rollback); err != nil {
		return fmt.Errorf("failed to record reservation rollback: %w", err)
	}

	uow.EventBus().Publish(events.ReservationRolledBackEvent{
		UserID:   buyer,
		NumberID: reserved.ID,
		Price:    reserved.Price,
		Reason:   reason,
		Released: released,
	})
	return nil
}

func (s *allocationService) currentBalance(ctx context.Context, userID int64) (int64, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	if user == nil {
		return 0, nil
	}
	return user.Balance, nil
}

func (s *allocationService) UnreleasedReservations(ctx context.Context) ([]*models.ReservationRollback, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	rollbacks, err := uow.ReservationRollbackRepository().ListUnreleased(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list unreleased reservations: %w", err)
	}
	return rollbacks, nil
}
