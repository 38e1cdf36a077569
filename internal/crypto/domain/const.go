// Package domain defines the core types for field-level encryption: key
// derivation algorithms, cipher modes and the portable encrypted field envelope.
package domain

// KDFAlgorithm identifies the key-stretching function used to derive keys.
type KDFAlgorithm string

const (
	// Scrypt is the default key-stretching function.
	Scrypt KDFAlgorithm = "scrypt"
	// PBKDF2SHA256 is the alternative key-stretching function.
	PBKDF2SHA256 KDFAlgorithm = "pbkdf2-sha256"
)

// CipherMode identifies the symmetric cipher mode used for field encryption.
type CipherMode string

const (
	// ModeGCM is AES-256-GCM, the authenticated default.
	ModeGCM CipherMode = "aes-256-gcm"
	// ModeCBC is AES-256-CBC. It produces no authentication tag and therefore
	// gives no integrity guarantee; callers must not rely on tamper detection
	// in this mode.
	ModeCBC CipherMode = "aes-256-cbc"
)

const (
	// KeySize is the symmetric key size in bytes (AES-256).
	KeySize = 32
	// GCMIVSize is the initialization vector size in bytes for AES-GCM.
	GCMIVSize = 12
	// CBCIVSize is the initialization vector size in bytes for AES-CBC (one block).
	CBCIVSize = 16
	// TagSize is the GCM authentication tag size in bytes.
	TagSize = 16
	// PasswordHashSize is the derived length of password hashes in bytes.
	PasswordHashSize = 64
	// PasswordSaltSize is the random salt length for password hashing in bytes.
	PasswordSaltSize = 32
)

// FieldVersion is the current encrypted field envelope version.
const FieldVersion = "v1"

// ContextSaltSuffix is appended to a context label before hashing when no
// explicit salt is supplied. Versioned so the salt scheme can change without
// breaking existing ciphertexts.
const ContextSaltSuffix = ":salt:v1"
