package audithook

// Action constants for audit events.
const (
	// Payment stream actions
	ActionPaymentCreated  = "payment.created"
	ActionPaymentReleased = "payment.released"
	ActionPaymentCanceled = "payment.canceled"

	// Transfer actions
	ActionTransferFailed = "transfer.failed"
)

// Resource constants for audit events.
const (
	ResourcePayment  = "payment"
	ResourceTransfer = "transfer"
)

// Category constants for audit events.
const (
	CategoryEscrow  = "escrow"
	CategoryPayout  = "payout"
	CategoryFailure = "failure"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)
