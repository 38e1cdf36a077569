package domain

import (
	"github.com/incomeclarity/vault/internal/errors"
)

// Cryptographic operation error definitions.
//
// Domain-specific errors wrap the standard sentinels from internal/errors so
// callers can branch on the category (configuration vs. bad input) while still
// seeing the cryptographic cause.
var (
	// ErrMasterSecretNotSet indicates no master secret could be resolved from
	// any configuration source. This is a hard failure: the service refuses to
	// run with a default secret.
	ErrMasterSecretNotSet = errors.Wrap(errors.ErrConfiguration, "master secret not set")

	// ErrNotInitialized indicates a key was requested before the master key
	// was derived.
	ErrNotInitialized = errors.Wrap(errors.ErrConfiguration, "key derivation service not initialized")

	// ErrUnsupportedAlgorithm indicates the requested key-stretching algorithm
	// is not supported. Supported: scrypt, pbkdf2-sha256.
	ErrUnsupportedAlgorithm = errors.Wrap(errors.ErrInvalidInput, "unsupported algorithm")

	// ErrUnsupportedMode indicates the requested cipher mode is not supported.
	// Supported: aes-256-gcm, aes-256-cbc.
	ErrUnsupportedMode = errors.Wrap(errors.ErrInvalidInput, "unsupported cipher mode")

	// ErrInvalidKeySize indicates key material of the wrong length was supplied.
	ErrInvalidKeySize = errors.Wrap(errors.ErrInvalidInput, "invalid key size")

	// ErrInvalidField indicates an encrypted field envelope is structurally
	// malformed: bad base64, wrong IV length, or an unknown version.
	ErrInvalidField = errors.Wrap(errors.ErrInvalidInput, "invalid encrypted field")

	// ErrDecryptionFailed indicates authentication tag verification or
	// decryption failed. The ciphertext was tampered with, or the wrong
	// key, context or salt was used; the cause is deliberately not
	// distinguished.
	ErrDecryptionFailed = errors.Wrap(errors.ErrInvalidInput, "decryption failed")
)
