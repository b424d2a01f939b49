package service

import "errors"

var (
	// ErrReconciliationRequired means a record was reserved but neither debited nor released.
	// An audit row with released=false has been written.
	ErrReconciliationRequired = errors.New("reservation needs manual reconciliation")

	// ErrCommitRolledBack wraps a commit failure the database reported before anything was
	// persisted. A commit error without it may have landed.
	ErrCommitRolledBack = errors.New("transaction rolled back")

	ErrNumberNotFound       = errors.New("number not found")
	ErrNumberNotOwned       = errors.New("number not owned by user")
	ErrRechargeBelowMinimum = errors.New("recharge amount below minimum")
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrPaymentNotOwned      = errors.New("payment not owned by user")
	ErrPaymentNotPaid       = errors.New("payment not completed")
	ErrInsufficientBalance  = errors.New("insufficient balance")
	ErrInvalidIngest        = errors.New("invalid number record")
	ErrUserNotFound         = errors.New("user not found")
)
