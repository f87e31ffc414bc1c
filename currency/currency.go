// Package currency provides the canonical asset identifiers shared by all
// exchange integrations. The asset registry proper (naming, metadata) is
// owned by the host application; this package only guarantees a normalised
// symbol and a typed unknown-asset failure that batch loops can skip on.
package currency

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrCurrencyCodeEmpty defines an error if the currency code is empty
	ErrCurrencyCodeEmpty = errors.New("currency code is empty")
	// ErrUnknownAsset is returned when an exchange reports an asset symbol
	// that the integration does not recognise. Callers skip the offending
	// record with a logged warning instead of aborting the batch.
	ErrUnknownAsset = errors.New("unknown asset")

	// EUR is the native fiat currency for European marketplace exchanges
	EUR = NewCode("EUR")
	// USD is the valuation currency used by the price oracle
	USD = NewCode("USD")
)

// Code is a normalised upper-case asset symbol
type Code string

// NewCode normalises a raw exchange ticker into a Code
func NewCode(ticker string) Code {
	return Code(strings.ToUpper(strings.TrimSpace(ticker)))
}

// IsEmpty returns true when no symbol is set
func (c Code) IsEmpty() bool {
	return c == ""
}

// String implements the stringer interface
func (c Code) String() string {
	return string(c)
}

// List is an immutable collection of codes, typically a per-exchange
// supported or unsupported table injected at construction
type List []Code

// NewList builds a List from raw tickers
func NewList(tickers ...string) List {
	l := make(List, len(tickers))
	for i := range tickers {
		l[i] = NewCode(tickers[i])
	}
	return l
}

// Contains reports whether the code is present in the list
func (l List) Contains(c Code) bool {
	for i := range l {
		if l[i] == c {
			return true
		}
	}
	return false
}

// Resolve normalises a raw ticker and rejects entries present on the deny
// list with ErrUnknownAsset
func Resolve(ticker string, deny List) (Code, error) {
	c := NewCode(ticker)
	if c.IsEmpty() {
		return c, ErrCurrencyCodeEmpty
	}
	if deny.Contains(c) {
		return "", fmt.Errorf("%w: %s", ErrUnknownAsset, c)
	}
	return c, nil
}
