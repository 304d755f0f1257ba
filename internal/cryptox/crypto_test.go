package cryptox

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKey_Deterministic(t *testing.T) {
	key1, err := DeriveKey([]byte("secret"), "cookie")
	require.NoError(t, err)
	key2, err := DeriveKey([]byte("secret"), "cookie")
	require.NoError(t, err)

	assert.Len(t, key1, KeySize)
	assert.True(t, bytes.Equal(key1, key2))
}

func TestDeriveKey_DifferentInputs(t *testing.T) {
	a, err := DeriveKey([]byte("secret"), "cookie")
	require.NoError(t, err)
	b, err := DeriveKey([]byte("secret"), "csrf")
	require.NoError(t, err)
	c, err := DeriveKey([]byte("other"), "cookie")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestDeriveKey_EmptySecret(t *testing.T) {
	_, err := DeriveKey(nil, "cookie")
	assert.ErrorIs(t, err, ErrEmptySecret)
}

func TestMAC(t *testing.T) {
	key := []byte("k")
	mac := MAC(key, "sid-1")

	_, err := hex.DecodeString(mac)
	require.NoError(t, err)
	assert.Len(t, mac, 64)

	assert.True(t, VerifyMAC(key, "sid-1", mac))
	assert.False(t, VerifyMAC(key, "sid-2", mac))
	assert.False(t, VerifyMAC([]byte("other"), "sid-1", mac))
	assert.False(t, VerifyMAC(key, "sid-1", ""))
}
