package ledger

import (
	"errors"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of fractional digits stored for amounts.
const MoneyPlaces = 2

// maxMoney is the exclusive upper bound of numeric(14,2).
var maxMoney = decimal.New(1, 12)

var (
	errNotPositive = errors.New("must be greater than zero")
	errTooPrecise  = errors.New("must have at most two decimal places")
	errTooLarge    = errors.New("exceeds the maximum amount")
)

// CheckMoney validates an amount entering the ledger.
func CheckMoney(d decimal.Decimal) error {
	switch {
	case !d.IsPositive():
		return errNotPositive
	case !d.Equal(d.Round(MoneyPlaces)):
		return errTooPrecise
	case d.GreaterThanOrEqual(maxMoney):
		return errTooLarge
	}
	return nil
}

// CommissionFor computes price * percent / 100, rounded half away from zero
// to two places.
func CommissionFor(price, percent decimal.Decimal) decimal.Decimal {
	return price.Mul(percent).Shift(-2).Round(MoneyPlaces)
}

// NumericToDecimal converts a pgtype.Numeric. Null and NaN map to zero.
func NumericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.NaN || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}

// DecimalToNumeric converts d to a two-place pgtype.Numeric.
func DecimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(MoneyPlaces))
	return n
}
