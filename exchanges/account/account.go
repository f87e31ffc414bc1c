// Package account defines the canonical balance entity and the valuation
// step shared by every exchange's balance aggregation. Holdings are
// recomputed in full on every query; balances carry no persisted identity.
package account

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/trackfolio/exchangesync/currency"
	"github.com/trackfolio/exchangesync/pricing"
)

// Balance is the canonical holding for one asset
type Balance struct {
	// Currency is the held asset
	Currency currency.Code
	// Total is the held amount, non-negative; zero-amount holdings are
	// legitimate entries
	Total decimal.Decimal
	// USDValue is always recomputed through the price oracle. Some exchange
	// payloads carry their own valuation field, but at least one is
	// documented to return it in the wrong currency, so the payload value is
	// never trusted.
	USDValue decimal.Decimal
}

// HoldingsSnapshot maps assets to their canonical balances for one query
type HoldingsSnapshot map[currency.Code]Balance

// Valuate prices one holding through the oracle. A failed lookup is
// entry-fatal only: the caller skips the entry with a logged error and the
// aggregate call still returns the successfully priced subset.
func Valuate(ctx context.Context, c currency.Code, amount decimal.Decimal, oracle pricing.Oracle) (Balance, error) {
	price, err := oracle.USDPrice(ctx, c)
	if err != nil {
		return Balance{}, errors.Wrapf(err, "unable to query USD price for %s", c)
	}
	return Balance{
		Currency: c,
		Total:    amount,
		USDValue: amount.Mul(price),
	}, nil
}
