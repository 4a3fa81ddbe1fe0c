package ledger

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/licensedesk/api/internal/enum"
)

// Errors returned by the ledger service.
var (
	ErrInvalidSalePrice    = errors.New("invalid sale price")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrAgentNotFound       = errors.New("agent not found")
	ErrCustomerNotFound    = errors.New("customer not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrLedgerBusy          = errors.New("ledger busy, retry later")
)

// Postgres error codes the ledger reacts to.
const (
	pgLockNotAvailable     = "55P03"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgQueryCanceled        = "57014"
	pgForeignKeyViolation  = "23503"
)

// IsRetryable reports whether err means the caller may retry the same request.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrLedgerBusy)
}

// classify wraps store errors. Lock and serialization failures become
// ErrLedgerBusy so callers can answer with a retryable status.
func classify(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgLockNotAvailable, pgSerializationFailure, pgDeadlockDetected, pgQueryCanceled:
			return fmt.Errorf("%s: %w: %w", op, ErrLedgerBusy, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isForeignKeyViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgForeignKeyViolation && pgErr.ConstraintName == constraint
	}
	return false
}

// Reason maps an error from this package to its response reason code.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidSalePrice):
		return enum.ReasonInvalidSalePrice
	case errors.Is(err, ErrInvalidAmount):
		return enum.ReasonInvalidAmount
	case errors.Is(err, ErrAgentNotFound):
		return enum.ReasonAgentNotFound
	case errors.Is(err, ErrCustomerNotFound):
		return enum.ReasonCustomerNotFound
	case errors.Is(err, ErrInsufficientBalance):
		return enum.ReasonInsufficientBalance
	case errors.Is(err, ErrLedgerBusy):
		return enum.ReasonLedgerBusy
	}
	return enum.ReasonInternalError
}
