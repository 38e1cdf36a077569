// Package service implements the field-level encryption engine: master key
// stretching, cached context-scoped key derivation, authenticated field
// encryption, password hashing and message authentication.
package service

import (
	"context"

	cryptoDomain "github.com/incomeclarity/vault/internal/crypto/domain"
)

// KeyDeriver produces deterministic, cached, context-scoped symmetric keys
// from a single master secret.
type KeyDeriver interface {
	// Initialize stretches the master secret into the master key. Idempotent;
	// a second call replaces the master key and invalidates the derived-key cache.
	Initialize(ctx context.Context, masterSecret string) error

	// DeriveKey returns the context-scoped key for (keyContext, salt). A nil
	// salt selects the deterministic context salt sha256(keyContext + ":salt:v1").
	// The same (keyContext, salt) pair always yields the identical key, and the
	// context label is bound into the derivation itself, so the same salt under
	// two contexts yields two different keys.
	DeriveKey(ctx context.Context, keyContext string, salt []byte) ([]byte, error)

	// Close zeroizes the master key and all cached derived keys.
	Close()
}

// FieldCipher encrypts and decrypts byte payloads under context-scoped keys.
type FieldCipher interface {
	// Encrypt seals plaintext with AES-256-GCM under the (keyContext, entitySalt)
	// key, binding the context label as additional authenticated data.
	Encrypt(ctx context.Context, plaintext []byte, keyContext string, entitySalt []byte) (cryptoDomain.EncryptedField, error)

	// EncryptCBC seals plaintext with AES-256-CBC. The returned envelope has an
	// empty tag and carries no authenticity guarantee.
	EncryptCBC(ctx context.Context, plaintext []byte, keyContext string, entitySalt []byte) (cryptoDomain.EncryptedField, error)

	// Decrypt opens an envelope produced by Encrypt or EncryptCBC; the mode is
	// inferred from the envelope. Returns ErrDecryptionFailed on tag mismatch
	// or malformed ciphertext.
	Decrypt(ctx context.Context, field cryptoDomain.EncryptedField, keyContext string, entitySalt []byte) ([]byte, error)

	// EncryptJSON marshals value to JSON and encrypts it with Encrypt.
	EncryptJSON(ctx context.Context, value any, keyContext string, entitySalt []byte) (cryptoDomain.EncryptedField, error)

	// DecryptJSON decrypts an envelope and unmarshals the plaintext into target.
	DecryptJSON(ctx context.Context, field cryptoDomain.EncryptedField, keyContext string, entitySalt []byte, target any) error
}

// PasswordHash holds a derived password hash and the random salt used to
// produce it, both base64-encoded.
type PasswordHash struct {
	Hash string
	Salt string
}

// PasswordHasher provides one-way password hashing with per-password random
// salts, independent from field-level context keys.
type PasswordHasher interface {
	// HashPassword stretches password with salt. A nil salt generates a fresh
	// 32-byte random salt.
	HashPassword(password string, salt []byte) (PasswordHash, error)

	// VerifyPassword recomputes the hash and compares in constant time. Never
	// returns an error: any internal failure counts as "not verified".
	VerifyPassword(password, expectedHash, salt string) bool
}

// MessageAuthenticator detects tampering of string payloads using HMAC-SHA256.
type MessageAuthenticator interface {
	// Sign returns the hex HMAC-SHA256 digest of data. A nil key selects the
	// configured secret.
	Sign(data string, key []byte) (string, error)

	// Verify recomputes the signature and compares the raw digest bytes in
	// constant time. Never returns an error: any internal failure counts as
	// "not verified".
	Verify(data, signature string, key []byte) bool
}
