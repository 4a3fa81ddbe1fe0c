package enum

// ── Group A: Reason codes (returned in the "error" field of failed responses) ──

const (
	ReasonUnauthorized        = "unauthorized"
	ReasonServerMisconfigured = "server_misconfigured"
	ReasonInvalidRequest      = "invalid_request"
	ReasonValidationFailed    = "validation_failed"
	ReasonInvalidSalePrice    = "invalid_sale_price"
	ReasonInvalidAmount       = "invalid_amount"
	ReasonAgentNotFound       = "agent_not_found"
	ReasonCustomerNotFound    = "customer_not_found"
	ReasonInsufficientBalance = "insufficient_balance"
	ReasonLicenseKeyExists    = "license_key_exists"
	ReasonLedgerBusy          = "ledger_busy"
	ReasonRateLimited         = "rate_limited"
	ReasonNotFound            = "not_found"
	ReasonInternalError       = "internal_error"
)

// ── Group B: Ledger operations and feed events ──

const (
	OpSale   = "sale"
	OpPayout = "payout"
)

const (
	EventSaleRecorded   = "sale.recorded"
	EventPayoutRecorded = "payout.recorded"
)

// ── Group C: Customer listing ──

const (
	SortCreatedAt    = "createdAt"
	SortCustomerName = "customerName"
	SortProductID    = "productId"
	SortExpiryDate   = "expiryDate"
)

const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)
