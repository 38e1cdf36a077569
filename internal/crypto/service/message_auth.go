package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"

	"golang.org/x/crypto/hkdf"

	cryptoDomain "github.com/incomeclarity/vault/internal/crypto/domain"
	apperrors "github.com/incomeclarity/vault/internal/errors"
)

// HMACAuthenticator implements MessageAuthenticator with HKDF-SHA256 key
// derivation and HMAC-SHA256 signatures.
type HMACAuthenticator struct {
	secret []byte
}

// NewMessageAuthenticator creates an authenticator with the given default
// secret. The secret may be empty if every call supplies an explicit key.
func NewMessageAuthenticator(secret []byte) *HMACAuthenticator {
	return &HMACAuthenticator{secret: secret}
}

// signingKey derives a 32-byte signing key from the raw secret via
// HKDF-SHA256. Separates signing key usage from any encryption use of the
// same secret. Info parameter is versioned for future algorithm changes.
func (a *HMACAuthenticator) signingKey(key []byte) ([]byte, error) {
	if key == nil {
		key = a.secret
	}
	if len(key) == 0 {
		return nil, apperrors.Wrap(apperrors.ErrConfiguration, "no HMAC key available")
	}

	reader := hkdf.New(sha256.New, key, nil, []byte("message-auth-v1"))
	signingKey := make([]byte, 32)
	if _, err := io.ReadFull(reader, signingKey); err != nil {
		return nil, apperrors.Wrap(err, "failed to derive signing key")
	}
	return signingKey, nil
}

// Sign returns the hex-encoded HMAC-SHA256 digest of data.
func (a *HMACAuthenticator) Sign(data string, key []byte) (string, error) {
	signingKey, err := a.signingKey(key)
	if err != nil {
		return "", err
	}
	defer cryptoDomain.Zero(signingKey)

	mac := hmac.New(sha256.New, signingKey)
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// Verify recomputes the signature and compares raw digest bytes with
// hmac.Equal. Hex strings are decoded first: comparing them as strings would
// leak timing proportional to the matching prefix. Any internal failure
// (malformed hex, missing key) counts as "not verified".
func (a *HMACAuthenticator) Verify(data, signature string, key []byte) bool {
	expected, err := a.Sign(data, key)
	if err != nil {
		return false
	}

	rawExpected, err := hex.DecodeString(expected)
	if err != nil {
		return false
	}
	rawGot, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}

	return hmac.Equal(rawExpected, rawGot)
}
