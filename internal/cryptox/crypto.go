// Package cryptox derives purpose-bound keys from the configured secret and
// computes the MACs built on them.
package cryptox

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const KeySize = 32

var ErrEmptySecret = errors.New("secret key is empty")

// DeriveKey expands secret into a KeySize key bound to info. Different info
// strings give independent keys.
func DeriveKey(secret []byte, info string) ([]byte, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	k := make([]byte, KeySize)
	r := hkdf.New(sha256.New, secret, nil, []byte(info))
	if _, err := io.ReadFull(r, k); err != nil {
		return nil, fmt.Errorf("derive %s key: %w", info, err)
	}
	return k, nil
}

// MAC returns hex(HMAC-SHA256(key, msg)).
func MAC(key []byte, msg string) string {
	m := hmac.New(sha256.New, key)
	m.Write([]byte(msg))
	return hex.EncodeToString(m.Sum(nil))
}

// VerifyMAC compares got with MAC(key, msg) in constant time.
func VerifyMAC(key []byte, msg, got string) bool {
	if got == "" {
		return false
	}
	return hmac.Equal([]byte(MAC(key, msg)), []byte(got))
}
