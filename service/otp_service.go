package service

import (
	"context"
	"fmt"

	"sessionbot/extractor"
	"sessionbot/models"
)

type otpService struct {
	uowFactory UnitOfWorkFactory
	admins     AdminChecker
	metrics    MetricsRecorder
}

// NewOTPService creates a new OTP service. Admins may reveal codes of records they did not buy.
func NewOTPService(uowFactory UnitOfWorkFactory, admins AdminChecker, metrics MetricsRecorder) OTPService {
	return &otpService{
		uowFactory: uowFactory,
		admins:     admins,
		metrics:    metricsOrNoop(metrics),
	}
}

func (s *otpService) RevealCode(ctx context.Context, userID int64, numberID int64) (*models.CodeReveal, error) {
	record, err := s.loadRecord(ctx, numberID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrNumberNotFound
	}

	if !record.IsOwnedBy(userID) {
		isAdmin, err := s.admins.IsAdmin(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to check admin: %w", err)
		}
		if !isAdmin {
			return nil, ErrNumberNotOwned
		}
	}

	phone, ok := extractor.ExtractPhoneNumber(record.Payload)
	if !ok {
		phone = models.PhonePlaceholder
	}
	code, found := extractor.ExtractOneTimeCode(record.Payload)

	s.metrics.RecordCodeReveal(found)

	return &models.CodeReveal{
		NumberID:    record.ID,
		Platform:    record.Platform,
		Country:     record.Country,
		PhoneNumber: phone,
		Code:        code,
		Found:       found,
	}, nil
}

func (s *otpService) loadRecord(ctx context.Context, numberID int64) (*models.NumberRecord, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	record, err := uow.NumberRepository().GetByID(ctx, numberID)
	if err != nil {
		return nil, fmt.Errorf("failed to get number record: %w", err)
	}
	return record, nil
}
