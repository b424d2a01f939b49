package models

// PurchaseOutcome is the business result of a buy-number request
type PurchaseOutcome string

const (
	PurchaseSuccess           PurchaseOutcome = "success"
	PurchaseInsufficientFunds PurchaseOutcome = "insufficient_funds"
	PurchaseNoInventory       PurchaseOutcome = "no_inventory"
	PurchaseBuyerBanned       PurchaseOutcome = "buyer_banned"
)

// PhonePlaceholder is shown when a sold record's payload yields no phone number
const PhonePlaceholder = "Unknown"

// PurchaseResult carries the outcome of a purchase and the values needed to display it.
// Price and Balance are filled for PurchaseInsufficientFunds; NumberID, PhoneNumber, Price
// and RemainingBalance for PurchaseSuccess.
type PurchaseResult struct {
	Outcome          PurchaseOutcome
	NumberID         int64
	Platform         string
	Country          string
	PhoneNumber      string
	Price            int64
	Balance          int64
	RemainingBalance int64
}
