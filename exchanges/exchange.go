// Package exchange defines the common façade implemented by every exchange
// integration and the shared base type they embed. Each integration composes
// the signing, dispatch, pagination and normalisation strategies; nothing is
// inherited through overridable hooks.
package exchange

import (
	"context"
	"errors"
	"time"

	"github.com/trackfolio/exchangesync/exchanges/account"
	"github.com/trackfolio/exchangesync/exchanges/request"
	"github.com/trackfolio/exchangesync/exchanges/trade"
	"github.com/trackfolio/exchangesync/pricing"
)

// ErrCredentialsUnset is returned when an authenticated operation is
// attempted before credentials are bound
var ErrCredentialsUnset = errors.New("api credentials unset")

// CredentialState tracks the advisory validation lifecycle of bound
// credentials. It never gates fetch operations; those surface their own
// remote errors on auth failure.
type CredentialState uint8

// Credential lifecycle states
const (
	Uninitialized CredentialState = iota
	CredentialsBound
	Validated
	Invalid
)

// Credentials holds one exchange's API keypair, immutable for the lifetime
// of the client instance
type Credentials struct {
	Key    string
	Secret []byte
}

// Integration enforces the operations every exchange integration exposes to
// the portfolio-tracking host
type Integration interface {
	GetName() string
	// ValidateCredentials performs one lightweight authenticated call and
	// reports whether the bound credentials are usable
	ValidateCredentials(ctx context.Context) (bool, string)
	// FetchBalances returns the canonical holdings snapshot, valued through
	// the price oracle. Per-entry failures are skipped with a logged
	// warning; only call-level remote failures return an error.
	FetchBalances(ctx context.Context, oracle pricing.Oracle) (account.HoldingsSnapshot, error)
	// FetchTradeHistory returns settled canonical trades with
	// start <= timestamp <= end, bounds inclusive
	FetchTradeHistory(ctx context.Context, start, end time.Time) ([]trade.Trade, error)
}

// Base holds the state shared by every exchange integration. Call
// discipline is single threaded; hosts issuing concurrent calls against one
// client must serialise access themselves.
type Base struct {
	Name      string
	Verbose   bool
	Requester *request.Requester

	credentials Credentials
	state       CredentialState
}

// SetCredentials binds the API keypair to the client
func (b *Base) SetCredentials(apiKey string, apiSecret []byte) {
	b.credentials = Credentials{Key: apiKey, Secret: apiSecret}
	b.state = CredentialsBound
}

// GetCredentials returns the bound credentials
func (b *Base) GetCredentials() (Credentials, error) {
	if b.credentials.Key == "" || len(b.credentials.Secret) == 0 {
		return Credentials{}, ErrCredentialsUnset
	}
	return b.credentials, nil
}

// GetName returns the exchange name
func (b *Base) GetName() string {
	return b.Name
}

// CredentialState returns the advisory validation state
func (b *Base) CredentialState() CredentialState {
	return b.state
}

// SetValidated records the outcome of the last credential validation. The
// state is advisory only.
func (b *Base) SetValidated(ok bool) {
	if ok {
		b.state = Validated
	} else {
		b.state = Invalid
	}
}
