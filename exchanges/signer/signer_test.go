package signer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Known-answer vectors recorded against the reference signing
// implementations. Signatures must be byte-exact or the exchange rejects the
// call, so these assert the full rendered string.

func TestHexSHA256Sign(t *testing.T) {
	t.Parallel()
	s := HexSHA256{APIKey: "apikey"}
	sig, err := s.Sign([]byte("secretkey"), Request{
		Method:  "get",
		FullURL: "https://api.bitcoin.de/v4/account",
		Token:   "1572183680000",
	})
	require.NoError(t, err)
	assert.Equal(t, "c7076f7ca0938896fb17c5b0b6e42b64d84e76f498c085801c3c49a47fc1da6b", sig)
}

func TestHexSHA256SignWithQuery(t *testing.T) {
	t.Parallel()
	s := HexSHA256{APIKey: "k2"}
	sig, err := s.Sign([]byte("other-secret"), Request{
		Method:  "POST",
		FullURL: "https://api.bitcoin.de/v4/trades?page=2&state=1",
		Token:   "1600000000123",
	})
	require.NoError(t, err)
	assert.Equal(t, "37127ac25be9e47578ff5a5c99bc77a8b784d54b3bc3a0755bd9b66cd1dad1e8", sig)
}

func TestBase64SHA512Sign(t *testing.T) {
	t.Parallel()
	sig, err := Base64SHA512{}.Sign([]byte("secretkey"), Request{
		Method: "get",
		Path:   "/v1/user/balance",
		Token:  "1572183680000",
	})
	require.NoError(t, err)
	assert.Equal(t,
		"gi0kdodjqgksxKQC5oNSLnUmJgM1s9kTYOFSXJ4VtCwXp4ehUdaQjqiScGBPy8EWYcR6ukQKsMewUh4IUkMKZA==",
		sig)
}

func TestBase64SHA512SignWithBodylessPost(t *testing.T) {
	t.Parallel()
	sig, err := Base64SHA512{}.Sign([]byte("other-secret"), Request{
		Method: "post",
		Path:   "/v1/user/activity",
		Token:  "1600000000123",
	})
	require.NoError(t, err)
	assert.Equal(t,
		"Te8td4vGjNqdONuFRkzLSsgm98HB7DEx4lLlxyC1QaQ+5Jf9ds5X/y0GctUaJRnNpNWr9o1XmIxM3DX0Tr4o2A==",
		sig)
}

func TestSignDeterministic(t *testing.T) {
	t.Parallel()
	r := Request{Method: "GET", FullURL: "https://example.com/v4/trades", Path: "/v4/trades", Token: "1"}
	a1, err := HexSHA256{APIKey: "k"}.Sign([]byte("s"), r)
	require.NoError(t, err)
	a2, err := HexSHA256{APIKey: "k"}.Sign([]byte("s"), r)
	require.NoError(t, err)
	assert.Equal(t, a1, a2)

	b1, err := Base64SHA512{}.Sign([]byte("s"), r)
	require.NoError(t, err)
	b2, err := Base64SHA512{}.Sign([]byte("s"), r)
	require.NoError(t, err)
	assert.Equal(t, b1, b2)
}

func TestSignSecretUnset(t *testing.T) {
	t.Parallel()
	_, err := HexSHA256{APIKey: "k"}.Sign(nil, Request{})
	require.ErrorIs(t, err, ErrSecretUnset)
	_, err = Base64SHA512{}.Sign(nil, Request{})
	require.ErrorIs(t, err, ErrSecretUnset)
}
