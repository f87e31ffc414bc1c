// Package signer implements the per-exchange request signing schemes as
// interchangeable strategies. A signer is a pure function of the secret and
// the request metadata; it performs no I/O and cannot observe the clock —
// the freshness token is supplied by the caller at the moment of signing.
package signer

import (
	"errors"
	"strings"

	"github.com/trackfolio/exchangesync/common/crypto"
)

// ErrSecretUnset is returned when signing is attempted without credentials.
// This is a programmer error, not a remote failure.
var ErrSecretUnset = errors.New("api secret unset")

// Request carries the metadata a signing scheme may draw on. Schemes differ
// in which fields they consume; unused fields are ignored.
type Request struct {
	// Method is the HTTP verb, upper-cased by the signer
	Method string
	// FullURL is the complete request URL including any query string
	FullURL string
	// Path is the request path without the query string
	Path string
	// Token is the freshness token, a millisecond epoch string
	Token string
	// Body is the raw request body, empty for GET requests
	Body string
}

// Signer produces an exchange authentication signature over request metadata
type Signer interface {
	Sign(secret []byte, r Request) (string, error)
}

// HexSHA256 signs the #-joined message
// {METHOD, full URL, api key, token, hash of body} with HMAC-SHA256 and
// renders the digest as lowercase hex. The body hash is the hex MD5 digest,
// which for the empty body is the documented constant
// d41d8cd98f00b204e9800998ecf8427e — the exchange requires it verbatim even
// when no body is sent.
type HexSHA256 struct {
	APIKey string
}

// Sign implements the Signer interface
func (h HexSHA256) Sign(secret []byte, r Request) (string, error) {
	if len(secret) == 0 {
		return "", ErrSecretUnset
	}
	bodyHash := crypto.HexEncodeToString(crypto.GetMD5([]byte(r.Body)))
	msg := strings.Join([]string{
		strings.ToUpper(r.Method),
		r.FullURL,
		h.APIKey,
		r.Token,
		bodyHash,
	}, "#")
	hmac := crypto.GetHMAC(crypto.HashSHA256, []byte(msg), secret)
	return crypto.HexEncodeToString(hmac), nil
}

// Base64SHA512 signs the concatenated message
// {token, METHOD, path without query, body} with HMAC-SHA512 and renders the
// digest as base64
type Base64SHA512 struct{}

// Sign implements the Signer interface
func (Base64SHA512) Sign(secret []byte, r Request) (string, error) {
	if len(secret) == 0 {
		return "", ErrSecretUnset
	}
	msg := r.Token + strings.ToUpper(r.Method) + r.Path + r.Body
	hmac := crypto.GetHMAC(crypto.HashSHA512, []byte(msg), secret)
	return crypto.Base64Encode(hmac), nil
}
