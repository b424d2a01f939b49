package service

import (
	"context"
	"fmt"

	"sessionbot/events"
	"sessionbot/models"

	log "github.com/sirupsen/logrus"
)

// PaymentLinkPaid is the gateway status of a link that has collected its amount
const PaymentLinkPaid = "paid"

type paymentService struct {
	uowFactory  UnitOfWorkFactory
	gateway     PaymentGateway
	metrics     MetricsRecorder
	minRecharge int64
}

// NewPaymentService creates a new payment service. minRecharge is in whole rupees.
func NewPaymentService(uowFactory UnitOfWorkFactory, gateway PaymentGateway, metrics MetricsRecorder, minRecharge int64) PaymentService {
	return &paymentService{
		uowFactory:  uowFactory,
		gateway:     gateway,
		metrics:     metricsOrNoop(metrics),
		minRecharge: minRecharge,
	}
}

func (s *paymentService) MinRecharge() int64 {
	return s.minRecharge
}

// InitiateRecharge creates a payment link and records it as a pending payment
func (s *paymentService) InitiateRecharge(ctx context.Context, userID int64, rupees int64) (*models.PaymentLink, error) {
	if rupees < s.minRecharge {
		return nil, fmt.Errorf("%w: minimum is ₹%d", ErrRechargeBelowMinimum, s.minRecharge)
	}

	amount := rupees * models.PaisePerRupee
	link, err := s.gateway.CreatePaymentLink(ctx, userID, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment link: %w", err)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if _, err := uow.PaymentRepository().Create(ctx, &models.Payment{
		UserID:    userID,
		Amount:    amount,
		Reference: link.ID,
	}); err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"userID":    userID,
		"amount":    amount,
		"reference": link.ID,
	}).Info("Recharge initiated")

	return link, nil
}

// VerifyRecharge asks the gateway whether the user's link was paid and credits it if so.
// An already verified payment is returned as is.
func (s *paymentService) VerifyRecharge(ctx context.Context, userID int64, reference string) (*models.Payment, error) {
	payment, err := s.getPayment(ctx, reference)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}
	if payment.UserID != userID {
		return nil, ErrPaymentNotOwned
	}
	if payment.Status == models.PaymentStatusVerified {
		return payment, nil
	}

	link, err := s.gateway.FetchPaymentLink(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch payment link: %w", err)
	}
	if link.Status != PaymentLinkPaid {
		return nil, ErrPaymentNotPaid
	}

	confirmed, err := s.ConfirmRecharge(ctx, reference)
	if err != nil {
		return nil, err
	}
	if confirmed == nil {
		// The webhook confirmed it first
		return s.getPayment(ctx, reference)
	}
	return confirmed, nil
}

// ConfirmRecharge credits a pending payment exactly once. It returns nil when the
// payment is unknown or was already credited.
func (s *paymentService) ConfirmRecharge(ctx context.Context, reference string) (*models.Payment, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	payment, err := uow.PaymentRepository().MarkVerified(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("failed to mark payment verified: %w", err)
	}
	if payment == nil {
		log.WithField("reference", reference).Debug("Payment already verified or unknown")
		return nil, nil
	}

	newBalance, err := uow.UserRepository().AdjustBalance(ctx, payment.UserID, payment.Amount)
	if err != nil {
		return nil, fmt.Errorf("failed to credit recharge: %w", err)
	}

	relatedType := models.RelatedTypePayment
	history := &models.BalanceHistory{
		UserID:          payment.UserID,
		BalanceBefore:   newBalance - payment.Amount,
		BalanceAfter:    newBalance,
		ChangeAmount:    payment.Amount,
		TransactionType: models.TransactionTypeRecharge,
		TransactionMetadata: map[string]any{
			"reference": reference,
		},
		RelatedID:   &payment.ID,
		RelatedType: &relatedType,
	}
	if err := RecordBalanceChange(ctx, uow, history); err != nil {
		return nil, err
	}

	uow.EventBus().Publish(events.PaymentVerifiedEvent{
		UserID:     payment.UserID,
		PaymentID:  payment.ID,
		Reference:  reference,
		Amount:     payment.Amount,
		NewBalance: newBalance,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.metrics.RecordPaymentVerified(payment.Amount)
	log.WithFields(log.Fields{
		"userID":     payment.UserID,
		"amount":     payment.Amount,
		"reference":  reference,
		"newBalance": newBalance,
	}).Info("Recharge credited")

	return payment, nil
}

// RecentRecharges returns the user's latest recharge attempts, newest first
func (s *paymentService) RecentRecharges(ctx context.Context, userID int64, limit int) ([]*models.Payment, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	payments, err := uow.PaymentRepository().ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recharges: %w", err)
	}
	return payments, nil
}

func (s *paymentService) getPayment(ctx context.Context, reference string) (*models.Payment, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	payment, err := uow.PaymentRepository().GetByReference(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return payment, nil
}
