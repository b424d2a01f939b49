package models

import (
	"fmt"
	"time"
)

// User represents a Telegram user with a wallet balance in paise
type User struct {
	UserID        int64     `db:"user_id"`
	Username      string    `db:"username"`
	FirstName     string    `db:"first_name"`
	Balance       int64     `db:"balance"`
	TotalSpent    int64     `db:"total_spent"`
	ReferralCode  string    `db:"referral_code"`
	ReferredBy    *int64    `db:"referred_by"`
	ReferralCount int       `db:"referral_count"`
	Banned        bool      `db:"banned"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// ReferralCodeFor derives the referral code handed out to a user.
func ReferralCodeFor(userID int64) string {
	return fmt.Sprintf("REF%d", userID)
}

// Admin is a user granted sudo rights at runtime, in addition to the configured admin IDs
type Admin struct {
	UserID    int64     `db:"user_id"`
	Role      string    `db:"role"`
	AddedBy   *int64    `db:"added_by"`
	CreatedAt time.Time `db:"created_at"`
}

const AdminRoleSudo = "sudo"
