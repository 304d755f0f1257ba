package web

import (
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/elibrary/internal/common"
	"github.com/dmitrijs2005/elibrary/internal/cryptox"
	"github.com/golang-jwt/jwt/v5"
)

const sessionCookieName = "elibrary_session"

// Claims identify a browser session. The session id names the storage
// namespace that holds that browser's user and token.
type Claims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid"`
}

// keys are derived from the configured secret so the cookie and CSRF MACs
// never share key material.
type keys struct {
	cookie []byte
	csrf   []byte
}

func deriveKeys(secret string) (keys, error) {
	cookie, err := cryptox.DeriveKey([]byte(secret), "elibrary session cookie")
	if err != nil {
		return keys{}, err
	}
	csrf, err := cryptox.DeriveKey([]byte(secret), "elibrary csrf")
	if err != nil {
		return keys{}, err
	}
	return keys{cookie: cookie, csrf: csrf}, nil
}

func generateSessionToken(sid string, key []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		SessionID: sid,
	})
	return token.SignedString(key)
}

func sessionIDFromToken(tokenString string, key []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
	}
	if !token.Valid || claims.SessionID == "" {
		return "", common.ErrInvalidToken
	}
	return claims.SessionID, nil
}

func setSessionCookie(w http.ResponseWriter, r *http.Request, value string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}
