// Package trade defines the canonical, exchange-independent trade entity
// produced by the integration pipeline and the shared normalisation rules
// applied to every exchange's raw records.
package trade

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/trackfolio/exchangesync/currency"
)

// ErrMalformedRecord is returned when one raw record cannot be normalised —
// a missing required field or a non-positive amount for rate derivation.
// The record is skipped with a logged warning; it never aborts the batch.
var ErrMalformedRecord = errors.New("malformed trade record")

var errTradeTypeInvalid = errors.New("trade type invalid")

// Type enumerates the canonical trade directions
type Type uint8

// Canonical trade directions
const (
	UnknownType Type = iota
	Buy
	Sell
)

// String implements the stringer interface
func (t Type) String() string {
	switch t {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

// Key identifies a trade for de-duplication across repeated history queries
type Key struct {
	Location   string
	ExternalID string
}

// Trade is the canonical trade entity. Created once per raw record by the
// per-exchange normaliser and immutable afterwards.
type Trade struct {
	// Timestamp is when the trade settled
	Timestamp time.Time
	// Location names the exchange the trade occurred on
	Location string
	// Base is the transacted asset
	Base currency.Code
	// Quote is the native asset the trade was priced in
	Quote currency.Code
	// Side is the trade direction
	Side Type
	// Amount is the transacted amount, strictly positive
	Amount decimal.Decimal
	// Rate is always derived as native amount / transacted amount, never
	// trusted from the payload's own price field
	Rate decimal.Decimal
	// Fee is the fee amount in FeeAsset, non-negative
	Fee decimal.Decimal
	// FeeAsset is the currency the exchange charged the fee in
	FeeAsset currency.Code
	// ExternalID is the exchange's identifier for the trade
	ExternalID string
}

// Key returns the de-duplication identity of the trade
func (t *Trade) Key() Key {
	return Key{Location: t.Location, ExternalID: t.ExternalID}
}

// Validate checks the canonical invariants hold
func (t *Trade) Validate() error {
	if t.Side != Buy && t.Side != Sell {
		return fmt.Errorf("%w: %w %s", ErrMalformedRecord, errTradeTypeInvalid, t.Side)
	}
	if t.Amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: amount %s not positive", ErrMalformedRecord, t.Amount)
	}
	if t.Rate.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: rate %s not positive", ErrMalformedRecord, t.Rate)
	}
	if t.Fee.IsNegative() {
		return fmt.Errorf("%w: fee %s negative", ErrMalformedRecord, t.Fee)
	}
	if t.ExternalID == "" {
		return fmt.Errorf("%w: external id unset", ErrMalformedRecord)
	}
	return nil
}

// DeriveRate computes the canonical rate native/transacted. Both operands
// must be strictly positive; a zero transacted amount is a malformed record,
// not a crash.
func DeriveRate(native, transacted decimal.Decimal) (decimal.Decimal, error) {
	if transacted.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, fmt.Errorf("%w: transacted amount %s not positive", ErrMalformedRecord, transacted)
	}
	if native.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, fmt.Errorf("%w: native amount %s not positive", ErrMalformedRecord, native)
	}
	return native.Div(transacted), nil
}

// ParseType maps an exchange buy/sell discriminator onto the canonical type
func ParseType(raw string) (Type, error) {
	switch raw {
	case "buy":
		return Buy, nil
	case "sell":
		return Sell, nil
	default:
		return UnknownType, fmt.Errorf("%w: %w %q", ErrMalformedRecord, errTradeTypeInvalid, raw)
	}
}

// FilterWindow returns the trades whose timestamp lies within
// [start, end], bounds inclusive, preserving order
func FilterWindow(trades []Trade, start, end time.Time) []Trade {
	filtered := make([]Trade, 0, len(trades))
	for i := range trades {
		ts := trades[i].Timestamp
		if ts.Before(start) || ts.After(end) {
			continue
		}
		filtered = append(filtered, trades[i])
	}
	return filtered
}
