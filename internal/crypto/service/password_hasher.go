package service

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"

	"golang.org/x/crypto/scrypt"

	cryptoDomain "github.com/incomeclarity/vault/internal/crypto/domain"
	apperrors "github.com/incomeclarity/vault/internal/errors"
)

// ScryptPasswordHasher implements PasswordHasher with scrypt and a random
// per-password salt. It is deliberately independent from the context key
// hierarchy: password hashes must not be derivable from the master key.
type ScryptPasswordHasher struct {
	n, r, p int
}

// NewPasswordHasher creates a password hasher with the given scrypt cost
// parameters.
func NewPasswordHasher(n, r, p int) *ScryptPasswordHasher {
	return &ScryptPasswordHasher{n: n, r: r, p: p}
}

// HashPassword stretches password into a 64-byte hash. A nil salt generates a
// fresh 32-byte random salt, so hashing the same password twice yields
// different results.
func (h *ScryptPasswordHasher) HashPassword(password string, salt []byte) (PasswordHash, error) {
	if salt == nil {
		salt = make([]byte, cryptoDomain.PasswordSaltSize)
		if _, err := rand.Read(salt); err != nil {
			return PasswordHash{}, apperrors.Wrap(err, "failed to generate salt")
		}
	}

	hash, err := scrypt.Key([]byte(password), salt, h.n, h.r, h.p, cryptoDomain.PasswordHashSize)
	if err != nil {
		return PasswordHash{}, apperrors.Wrap(err, "failed to hash password")
	}

	return PasswordHash{
		Hash: base64.StdEncoding.EncodeToString(hash),
		Salt: base64.StdEncoding.EncodeToString(salt),
	}, nil
}

// VerifyPassword recomputes the hash with the supplied salt and compares it
// to expectedHash in constant time. Malformed base64 or an internal scrypt
// failure is treated as verification failure, never surfaced as an error.
func (h *ScryptPasswordHasher) VerifyPassword(password, expectedHash, salt string) bool {
	rawSalt, err := base64.StdEncoding.DecodeString(salt)
	if err != nil {
		return false
	}
	rawExpected, err := base64.StdEncoding.DecodeString(expectedHash)
	if err != nil {
		return false
	}

	computed, err := scrypt.Key([]byte(password), rawSalt, h.n, h.r, h.p, cryptoDomain.PasswordHashSize)
	if err != nil {
		return false
	}

	return subtle.ConstantTimeCompare(computed, rawExpected) == 1
}
