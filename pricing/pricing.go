// Package pricing declares the price-oracle capability the balance pipeline
// consumes. The oracle itself is owned by the host application; this core
// only calls it, once per distinct asset encountered, with no batching
// contract assumed.
package pricing

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/trackfolio/exchangesync/currency"
)

// Oracle resolves the current USD price of an asset
type Oracle interface {
	USDPrice(ctx context.Context, c currency.Code) (decimal.Decimal, error)
}

// OracleFunc adapts a plain function to the Oracle interface
type OracleFunc func(ctx context.Context, c currency.Code) (decimal.Decimal, error)

// USDPrice implements the Oracle interface
func (f OracleFunc) USDPrice(ctx context.Context, c currency.Code) (decimal.Decimal, error) {
	return f(ctx, c)
}
