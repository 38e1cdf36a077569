package service

import (
	"context"
	"crypto/rand"
	"encoding/json"

	cryptoDomain "github.com/incomeclarity/vault/internal/crypto/domain"
	apperrors "github.com/incomeclarity/vault/internal/errors"
)

// FieldCipherService implements FieldCipher on top of a KeyDeriver.
//
// Every encryption generates a fresh random IV, and the UTF-8 bytes of the
// context label are bound as additional authenticated data, so a GCM
// ciphertext cannot be replayed under a different context even with the same
// key. The invariant Decrypt(Encrypt(x, ctx, salt), ctx, salt) == x holds for
// every (ctx, salt) pair and every byte sequence x.
type FieldCipherService struct {
	deriver KeyDeriver
}

// NewFieldCipher creates a FieldCipherService using the provided key deriver.
func NewFieldCipher(deriver KeyDeriver) *FieldCipherService {
	return &FieldCipherService{deriver: deriver}
}

// Encrypt seals plaintext with AES-256-GCM under the (keyContext, entitySalt) key.
func (s *FieldCipherService) Encrypt(
	ctx context.Context,
	plaintext []byte,
	keyContext string,
	entitySalt []byte,
) (cryptoDomain.EncryptedField, error) {
	key, err := s.deriver.DeriveKey(ctx, keyContext, entitySalt)
	if err != nil {
		return cryptoDomain.EncryptedField{}, err
	}
	defer cryptoDomain.Zero(key)

	gcm, err := newAESGCM(key)
	if err != nil {
		return cryptoDomain.EncryptedField{}, err
	}

	iv := make([]byte, cryptoDomain.GCMIVSize)
	if _, err := rand.Read(iv); err != nil {
		return cryptoDomain.EncryptedField{}, apperrors.Wrap(err, "failed to generate IV")
	}

	ciphertext, tag, err := gcm.Seal(iv, plaintext, []byte(keyContext))
	if err != nil {
		return cryptoDomain.EncryptedField{}, err
	}

	return cryptoDomain.NewEncryptedField(ciphertext, iv, tag), nil
}

// EncryptCBC seals plaintext with AES-256-CBC. The envelope carries no
// authentication tag.
func (s *FieldCipherService) EncryptCBC(
	ctx context.Context,
	plaintext []byte,
	keyContext string,
	entitySalt []byte,
) (cryptoDomain.EncryptedField, error) {
	key, err := s.deriver.DeriveKey(ctx, keyContext, entitySalt)
	if err != nil {
		return cryptoDomain.EncryptedField{}, err
	}
	defer cryptoDomain.Zero(key)

	cbc, err := newAESCBC(key)
	if err != nil {
		return cryptoDomain.EncryptedField{}, err
	}

	iv := make([]byte, cryptoDomain.CBCIVSize)
	if _, err := rand.Read(iv); err != nil {
		return cryptoDomain.EncryptedField{}, apperrors.Wrap(err, "failed to generate IV")
	}

	ciphertext, err := cbc.Encrypt(iv, plaintext)
	if err != nil {
		return cryptoDomain.EncryptedField{}, err
	}

	return cryptoDomain.NewEncryptedField(ciphertext, iv, nil), nil
}

// Decrypt opens an envelope, re-deriving the key from (keyContext, entitySalt).
// The cipher mode is inferred from the envelope's tag. Authentication failure
// is surfaced as ErrDecryptionFailed and never suppressed: it signals either
// tampering or the wrong key, context or salt.
func (s *FieldCipherService) Decrypt(
	ctx context.Context,
	field cryptoDomain.EncryptedField,
	keyContext string,
	entitySalt []byte,
) ([]byte, error) {
	if err := field.Validate(); err != nil {
		return nil, cryptoDomain.ErrInvalidField
	}

	ciphertext, iv, tag, err := field.Decode()
	if err != nil {
		return nil, err
	}

	key, err := s.deriver.DeriveKey(ctx, keyContext, entitySalt)
	if err != nil {
		return nil, err
	}
	defer cryptoDomain.Zero(key)

	switch field.Mode() {
	case cryptoDomain.ModeGCM:
		gcm, err := newAESGCM(key)
		if err != nil {
			return nil, err
		}
		return gcm.Open(iv, ciphertext, tag, []byte(keyContext))
	case cryptoDomain.ModeCBC:
		cbc, err := newAESCBC(key)
		if err != nil {
			return nil, err
		}
		return cbc.Decrypt(iv, ciphertext)
	default:
		return nil, cryptoDomain.ErrUnsupportedMode
	}
}

// EncryptJSON marshals value to JSON and encrypts the result.
func (s *FieldCipherService) EncryptJSON(
	ctx context.Context,
	value any,
	keyContext string,
	entitySalt []byte,
) (cryptoDomain.EncryptedField, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return cryptoDomain.EncryptedField{}, apperrors.Wrap(err, "failed to marshal value")
	}
	return s.Encrypt(ctx, raw, keyContext, entitySalt)
}

// DecryptJSON decrypts an envelope and unmarshals the plaintext into target.
func (s *FieldCipherService) DecryptJSON(
	ctx context.Context,
	field cryptoDomain.EncryptedField,
	keyContext string,
	entitySalt []byte,
	target any,
) error {
	raw, err := s.Decrypt(ctx, field, keyContext, entitySalt)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return apperrors.Wrap(err, "failed to unmarshal value")
	}
	return nil
}
