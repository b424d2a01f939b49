package models

import (
	"time"
)

// NumberRecord is one sellable phone-number session package and its archive payload.
// Once Used is true, UsedBy and UsedAt are set and the record never becomes available again
// except through a compensating release.
type NumberRecord struct {
	ID        int64      `db:"id"`
	Platform  string     `db:"platform"`
	Country   string     `db:"country"`
	Price     int64      `db:"price"`
	Payload   []byte     `db:"payload"`
	Used      bool       `db:"used"`
	UsedBy    *int64     `db:"used_by"`
	UsedAt    *time.Time `db:"used_at"`
	CreatedAt time.Time  `db:"created_at"`
}

// IsOwnedBy reports whether the record was sold to userID
func (n *NumberRecord) IsOwnedBy(userID int64) bool {
	return n.Used && n.UsedBy != nil && *n.UsedBy == userID
}

// StockLevel is the number of unused records for one platform/country pair
type StockLevel struct {
	Platform  string `db:"platform"`
	Country   string `db:"country"`
	Available int64  `db:"available"`
	MinPrice  int64  `db:"min_price"`
}

// ReservationRollback audits a compensating release of a reserved record.
// Released is false when the release itself failed and the record needs manual reconciliation.
type ReservationRollback struct {
	ID        int64     `db:"id"`
	NumberID  int64     `db:"number_id"`
	UserID    int64     `db:"user_id"`
	Price     int64     `db:"price"`
	Reason    string    `db:"reason"`
	Released  bool      `db:"released"`
	CreatedAt time.Time `db:"created_at"`
}

// CodeReveal is what a buyer sees when asking for the one-time code of a purchased record
type CodeReveal struct {
	NumberID    int64
	Platform    string
	Country     string
	PhoneNumber string
	Code        string
	Found       bool
}
