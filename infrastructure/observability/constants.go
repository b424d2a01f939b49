package observability

// Metric name prefixes
const (
	MetricPrefix = "sessionbot"
)

// Metric names
const (
	// Allocation metrics
	PurchasesTotal            = MetricPrefix + ".allocation.purchases_total"
	ReservationRollbacksTotal = MetricPrefix + ".allocation.reservation_rollbacks_total"

	// Payment metrics
	PaymentsVerifiedTotal = MetricPrefix + ".payments.verified_total"
	PaymentsVerifiedPaise = MetricPrefix + ".payments.verified_paise"

	// OTP metrics
	CodeRevealsTotal = MetricPrefix + ".otp.reveals_total"

	// NATS metrics
	NATSMessagesPublishedTotal = MetricPrefix + ".nats.messages_published_total"
)

// Label keys
const (
	LabelOutcome   = "outcome"
	LabelReleased  = "released"
	LabelFound     = "found"
	LabelEventType = "event_type"
)
