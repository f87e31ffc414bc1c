package request

import (
	"errors"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/trackfolio/exchangesync/exchanges/nonce"
)

// Defaults for the outbound HTTP client
const (
	// DefaultTimeout bounds every HTTP call; a call exceeding it fails with
	// a transport error
	DefaultTimeout = 30 * time.Second

	userAgent = "User-Agent"
)

var (
	// ErrRemote classifies network, protocol and exchange-reported failures.
	// A remote error is batch-fatal for the call in progress; callers of the
	// public façade operations convert it to an empty result plus message so
	// one failing integration never aborts a multi-exchange run.
	ErrRemote = errors.New("remote error")

	errRequestSystemIsNil   = errors.New("request system is nil")
	errRequestFunctionIsNil = errors.New("request function is nil")
	errRequestItemNil       = errors.New("request item is nil")
	errInvalidPath          = errors.New("invalid path")
	errInvalidMethod        = errors.New("invalid HTTP method")
)

// Requester struct for the exchange. It owns the underlying HTTP client
// exclusively; a single logical thread of execution per exchange client is
// assumed, the only internal locking covers the nonce and the rate limiter.
type Requester struct {
	name      string
	client    *http.Client
	limiter   *rate.Limiter
	nonce     nonce.Nonce
	userAgent string
}

// Item is a request item to send through the Requester. Constructed fresh
// per call by a Generate closure so the freshness token and signature are
// produced immediately before dispatch, never cached.
type Item struct {
	Method  string
	Path    string
	Headers map[string]string
	Body    io.Reader
	// Result, when non-nil, receives the unmarshalled response body
	Result interface{}
	// AuthRequest marks the request as authenticated for diagnostics
	AuthRequest bool
	Verbose     bool
	// StatusAccepted lists the HTTP status codes whose bodies are treated as
	// parseable results; exchanges differ here. Empty means 200 only.
	StatusAccepted []int
	// RequireObject rejects parseable responses whose top-level JSON value
	// is not an object
	RequireObject bool
	// ErrorParser inspects the parsed body of a rejected status for a
	// structured exchange error and returns it verbatim; returning nil falls
	// back to the generic status-code error
	ErrorParser func(status int, body []byte) error
}

// Generate defines a closure for the request constructor so a fresh
// signature can be built per dispatch
type Generate func() (*Item, error)

// RequesterOption is a function option for the Requester
type RequesterOption func(*Requester)

// WithLimiter sets a rate limiter on outbound calls
func WithLimiter(l *rate.Limiter) RequesterOption {
	return func(r *Requester) {
		r.limiter = l
	}
}

// WithUserAgent sets the user agent header applied when none is supplied
func WithUserAgent(ua string) RequesterOption {
	return func(r *Requester) {
		r.userAgent = ua
	}
}

// NewRateLimit creates a new rate limiter based on a time interval and how
// many actions are allowed within it. Burst is kept at one; exchange rate
// limits make concurrent dispatch counter-productive.
func NewRateLimit(interval time.Duration, actions int) *rate.Limiter {
	if actions <= 0 || interval <= 0 {
		// Returns an un-restricted rate limiter
		return rate.NewLimiter(rate.Inf, 1)
	}

	rps := float64(actions) / interval.Seconds()
	return rate.NewLimiter(rate.Limit(rps), 1)
}

// NewHTTPClient returns a client with the default bounded timeout
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: DefaultTimeout}
}
