package web

import (
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/elibrary/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionToken_RoundTrip(t *testing.T) {
	t.Parallel()

	key := []byte("super-secret")
	tok, err := generateSessionToken("sid-123", key, time.Hour)
	require.NoError(t, err)

	sid, err := sessionIDFromToken(tok, key)
	require.NoError(t, err)
	assert.Equal(t, "sid-123", sid)
}

func TestSessionToken_Expired(t *testing.T) {
	t.Parallel()

	key := []byte("secret")
	tok, err := generateSessionToken("sid", key, -time.Second)
	require.NoError(t, err)

	_, err = sessionIDFromToken(tok, key)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
	assert.True(t, errors.Is(err, jwt.ErrTokenExpired))
}

func TestSessionToken_WrongKeyAndMalformed(t *testing.T) {
	t.Parallel()

	tok, err := generateSessionToken("sid", []byte("right"), time.Hour)
	require.NoError(t, err)

	_, err = sessionIDFromToken(tok, []byte("wrong"))
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	_, err = sessionIDFromToken("not.a.jwt", []byte("k"))
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestSessionToken_RejectsUnsignedAlg(t *testing.T) {
	t.Parallel()

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{SessionID: "sid"})
	tok, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = sessionIDFromToken(tok, []byte("k"))
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestSessionToken_EmptySessionID(t *testing.T) {
	t.Parallel()

	key := []byte("k")
	tok, err := generateSessionToken("", key, time.Hour)
	require.NoError(t, err)

	_, err = sessionIDFromToken(tok, key)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestDeriveKeys(t *testing.T) {
	t.Parallel()

	a, err := deriveKeys("secret")
	require.NoError(t, err)
	b, err := deriveKeys("secret")
	require.NoError(t, err)

	assert.Equal(t, a, b, "derivation is deterministic")
	assert.Len(t, a.cookie, 32)
	assert.NotEqual(t, a.cookie, a.csrf)

	_, err = deriveKeys("")
	assert.Error(t, err)
}

func TestCSRFToken(t *testing.T) {
	t.Parallel()

	key := []byte("csrf-key")
	tok := csrfToken(key, "sid-1")

	assert.True(t, validCSRF(key, "sid-1", tok))
	assert.False(t, validCSRF(key, "sid-2", tok), "bound to the session")
	assert.False(t, validCSRF(key, "sid-1", ""))
	assert.False(t, validCSRF(key, "", tok))
}

func TestIPLimiter(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	l := newIPLimiter(1, 2, nil)
	l.now = func() time.Time { return now }

	assert.True(t, l.allow("10.0.0.1"))
	assert.True(t, l.allow("10.0.0.1"))
	assert.False(t, l.allow("10.0.0.1"))
	assert.True(t, l.allow("10.0.0.2"), "buckets are per IP")

	now = now.Add(time.Second)
	assert.True(t, l.allow("10.0.0.1"), "refilled")

	now = now.Add(visitorIdle + time.Second)
	assert.Equal(t, 2, l.sweep())
	assert.Empty(t, l.visitors)
}

func TestLocalPath(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"":                  "/",
		"/books/1":          "/books/1",
		"//evil.test":       "/",
		"/\\evil.test":      "/",
		"https://evil.test": "/",
		"books":             "/",
	}
	for in, want := range cases {
		assert.Equal(t, want, localPath(in, "/"), in)
	}
}

func TestCatalogURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/books", catalogURL("Barchasi", "", "title", 1))
	assert.Equal(t, "/books?category=Ilmiy&page=3&search=go&sort=year", catalogURL("Ilmiy", "go", "year", 3))
}
