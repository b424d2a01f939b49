package models

import (
	"time"
)

// PaymentStatus represents the verification state of a recharge
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusVerified PaymentStatus = "verified"
)

// Payment records a wallet recharge attempt. Status only moves from pending to verified.
type Payment struct {
	ID         int64         `db:"id"`
	UserID     int64         `db:"user_id"`
	Amount     int64         `db:"amount"`
	Reference  string        `db:"reference"`
	Status     PaymentStatus `db:"status"`
	CreatedAt  time.Time     `db:"created_at"`
	VerifiedAt *time.Time    `db:"verified_at"`
}

// PaymentLink is a hosted checkout page created for a recharge
type PaymentLink struct {
	ID       string
	ShortURL string
	Amount   int64
	Status   string
}
