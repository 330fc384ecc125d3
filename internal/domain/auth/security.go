package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// HashKey computes the hex-encoded HMAC-SHA256 of an API key under the given
// pepper. The same function is used at seed time and at request time, so the
// database only ever stores hashes.
func HashKey(pepper []byte, key string) string {
	mac := hmac.New(sha256.New, pepper)
	mac.Write([]byte(key))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verifier authenticates raw API keys against their stored HMAC-SHA256 hashes.
type Verifier struct {
	apikeys Repository
	pepper  []byte
}

// NewVerifier creates a Verifier with the given API key repository and HMAC
// pepper.
func NewVerifier(apikeys Repository, pepper []byte) *Verifier {
	return &Verifier{
		apikeys: apikeys,
		pepper:  pepper,
	}
}

// Authenticate computes the HMAC-SHA256 of the presented key, looks it up in
// the repository, and performs a constant-time comparison to prevent timing
// attacks. Every failure mode collapses to ErrUnauthorized.
func (v *Verifier) Authenticate(ctx context.Context, key string) (*APIKeyInfo, error) {
	mac := hmac.New(sha256.New, v.pepper)
	mac.Write([]byte(key))
	hash := mac.Sum(nil)

	info, err := v.apikeys.FindByHash(ctx, hex.EncodeToString(hash))
	if err != nil {
		return nil, ErrUnauthorized
	}

	storedBytes, err := hex.DecodeString(info.KeyHash)
	if err != nil {
		return nil, ErrUnauthorized
	}

	if subtle.ConstantTimeCompare(hash, storedBytes) != 1 {
		return nil, ErrUnauthorized
	}

	return info, nil
}
