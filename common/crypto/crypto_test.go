package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHexEncodeToString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "68656c6c6f", HexEncodeToString([]byte("hello")))
}

func TestBase64EncodeDecode(t *testing.T) {
	t.Parallel()
	encoded := Base64Encode([]byte("hello"))
	assert.Equal(t, "aGVsbG8=", encoded)

	decoded, err := Base64Decode(encoded)
	require.NoError(t, err, "Base64Decode must not error")
	assert.Equal(t, []byte("hello"), decoded)

	_, err = Base64Decode("-")
	assert.Error(t, err, "Base64Decode should error on invalid input")
}

func TestGetMD5(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "5d41402abc4b2a76b9719d911017c592", HexEncodeToString(GetMD5([]byte("hello"))))
	// The empty-input digest is embedded in some exchange signing schemes
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", HexEncodeToString(GetMD5(nil)))
}

func TestGetSHA256(t *testing.T) {
	t.Parallel()
	assert.Equal(t,
		"2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824",
		HexEncodeToString(GetSHA256([]byte("hello"))))
}

func TestGetHMAC(t *testing.T) {
	t.Parallel()
	assert.Equal(t,
		"9307b3b915efb5171ff14d8cb55fbcc798c6c0ef1456d66ded1a6aa723a58b7b",
		HexEncodeToString(GetHMAC(HashSHA256, []byte("hello"), []byte("key"))))
	assert.Equal(t,
		"/warNnV3d4FcAI0yyOFKcFtOe/MQNRoGojthLcTHQz53V9IFJaVZO3ECDqLuFi0jEbJH6YVYYrJwEiQZZSwMkg==",
		Base64Encode(GetHMAC(HashSHA512, []byte("hello"), []byte("key"))))
}
