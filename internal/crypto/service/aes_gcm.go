package service

import (
	"crypto/aes"
	"crypto/cipher"

	cryptoDomain "github.com/incomeclarity/vault/internal/crypto/domain"
	apperrors "github.com/incomeclarity/vault/internal/errors"
)

// aesGCM wraps an AES-256-GCM AEAD and exposes it with the ciphertext and
// authentication tag split apart, matching the encrypted field envelope.
type aesGCM struct {
	aead cipher.AEAD
}

func newAESGCM(key []byte) (*aesGCM, error) {
	if len(key) != cryptoDomain.KeySize {
		return nil, cryptoDomain.ErrInvalidKeySize
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create AES cipher")
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create GCM")
	}

	return &aesGCM{aead: aead}, nil
}

// Seal encrypts plaintext with the given IV, authenticating aad, and returns
// ciphertext and tag separately. The IV must never be reused with the same key.
func (g *aesGCM) Seal(iv, plaintext, aad []byte) (ciphertext, tag []byte, err error) {
	if len(iv) != g.aead.NonceSize() {
		return nil, nil, cryptoDomain.ErrInvalidField
	}

	sealed := g.aead.Seal(nil, iv, plaintext, aad)
	split := len(sealed) - g.aead.Overhead()
	return sealed[:split], sealed[split:], nil
}

// Open verifies the tag and decrypts the ciphertext. Any failure is reported
// as ErrDecryptionFailed without distinguishing the cause.
func (g *aesGCM) Open(iv, ciphertext, tag, aad []byte) ([]byte, error) {
	if len(iv) != g.aead.NonceSize() || len(tag) != g.aead.Overhead() {
		return nil, cryptoDomain.ErrDecryptionFailed
	}

	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := g.aead.Open(nil, iv, sealed, aad)
	if err != nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}
	if plaintext == nil {
		// A tag-only envelope opens to an empty, not absent, plaintext.
		plaintext = []byte{}
	}
	return plaintext, nil
}
