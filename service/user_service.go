package service

import (
	"context"
	"fmt"
	"slices"

	"sessionbot/events"
	"sessionbot/models"

	log "github.com/sirupsen/logrus"
)

// userService implements the UserService interface
type userService struct {
	uowFactory    UnitOfWorkFactory
	adminIDs      []int64
	referralBonus int64
}

// NewUserService creates a new user service. adminIDs are the configured admins and
// referralBonus is credited to a referrer, in paise, when a referred user first joins.
func NewUserService(uowFactory UnitOfWorkFactory, adminIDs []int64, referralBonus int64) UserService {
	return &userService{
		uowFactory:    uowFactory,
		adminIDs:      adminIDs,
		referralBonus: referralBonus,
	}
}

// GetOrCreateUser returns the user, registering them on first contact. A referral code
// only counts when the account is new and the code belongs to someone else.
func (s *userService) GetOrCreateUser(ctx context.Context, userID int64, username, firstName, referralCode string) (*models.User, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	// Create is a no-op on conflict, so concurrent first contacts register once
	user, created, err := uow.UserRepository().Create(ctx, &models.User{
		UserID:    userID,
		Username:  username,
		FirstName: firstName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	if !created {
		if err := uow.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit transaction: %w", err)
		}
		return user, nil
	}

	history := &models.BalanceHistory{
		UserID:          userID,
		BalanceBefore:   0,
		BalanceAfter:    user.Balance,
		ChangeAmount:    user.Balance,
		TransactionType: models.TransactionTypeInitial,
		TransactionMetadata: map[string]any{
			"username": username,
		},
	}
	if err := RecordBalanceChange(ctx, uow, history); err != nil {
		return nil, fmt.Errorf("failed to record initial balance: %w", err)
	}

	if referralCode != "" {
		referrerID, err := s.applyReferral(ctx, uow, userID, referralCode)
		if err != nil {
			return nil, err
		}
		user.ReferredBy = referrerID
	}

	uow.EventBus().Publish(events.UserCreatedEvent{
		UserID:     userID,
		Username:   username,
		FirstName:  firstName,
		ReferredBy: user.ReferredBy,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"userID":     userID,
		"username":   username,
		"referredBy": user.ReferredBy,
	}).Info("User registered")

	return user, nil
}

// applyReferral links a new user to the owner of code and credits the referrer.
// Unknown codes and self referral are ignored.
func (s *userService) applyReferral(ctx context.Context, uow UnitOfWork, userID int64, code string) (*int64, error) {
	referrer, err := uow.UserRepository().GetByReferralCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to look up referral code: %w", err)
	}
	if referrer == nil || referrer.UserID == userID {
		return nil, nil
	}

	set, err := uow.UserRepository().SetReferrer(ctx, userID, referrer.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to set referrer: %w", err)
	}
	if !set {
		return nil, nil
	}

	if err := uow.UserRepository().IncrementReferralCount(ctx, referrer.UserID); err != nil {
		return nil, fmt.Errorf("failed to increment referral count: %w", err)
	}

	if s.referralBonus > 0 {
		newBalance, err := uow.UserRepository().AdjustBalance(ctx, referrer.UserID, s.referralBonus)
		if err != nil {
			return nil, fmt.Errorf("failed to credit referral bonus: %w", err)
		}

		relatedType := models.RelatedTypeUser
		relatedID := userID
		history := &models.BalanceHistory{
			UserID:          referrer.UserID,
			BalanceBefore:   newBalance - s.referralBonus,
			BalanceAfter:    newBalance,
			ChangeAmount:    s.referralBonus,
			TransactionType: models.TransactionTypeReferralBonus,
			TransactionMetadata: map[string]any{
				"referred_user_id": userID,
			},
			RelatedID:   &relatedID,
			RelatedType: &relatedType,
		}
		if err := RecordBalanceChange(ctx, uow, history); err != nil {
			return nil, fmt.Errorf("failed to record referral bonus: %w", err)
		}
	}

	referrerID := referrer.UserID
	return &referrerID, nil
}

func (s *userService) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *userService) SetBanned(ctx context.Context, userID int64, banned bool) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	found, err := uow.UserRepository().SetBanned(ctx, userID, banned)
	if err != nil {
		return fmt.Errorf("failed to set banned: %w", err)
	}
	if !found {
		return ErrUserNotFound
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"userID": userID,
		"banned": banned,
	}).Info("User ban status changed")
	return nil
}

// IsAdmin reports whether the user is a configured admin or was granted sudo
func (s *userService) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	if slices.Contains(s.adminIDs, userID) {
		return true, nil
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	exists, err := uow.AdminRepository().Exists(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to check admin: %w", err)
	}
	return exists, nil
}

func (s *userService) AddAdmin(ctx context.Context, userID int64, addedBy int64) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.AdminRepository().Add(ctx, &models.Admin{
		UserID:  userID,
		Role:    models.AdminRoleSudo,
		AddedBy: &addedBy,
	}); err != nil {
		return fmt.Errorf("failed to add admin: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"userID":  userID,
		"addedBy": addedBy,
	}).Info("Admin added")
	return nil
}

func (s *userService) CountUsers(ctx context.Context) (int64, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return uow.UserRepository().CountUsers(ctx)
}
