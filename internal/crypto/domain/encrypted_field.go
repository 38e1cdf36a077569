package domain

import (
	"encoding/base64"

	validation "github.com/jellydator/validation"

	appvalidation "github.com/incomeclarity/vault/internal/validation"
)

// EncryptedField is the portable envelope for an encrypted value. It is used
// both for individual record fields and for whole-document encryption of
// backup blobs. Ciphertext, IV and Tag travel together; splitting them makes
// the value undecryptable.
type EncryptedField struct {
	// Ciphertext is the base64-encoded encrypted payload.
	Ciphertext string `json:"encrypted"`
	// IV is the base64-encoded initialization vector (12 bytes for GCM, 16 for CBC).
	IV string `json:"iv"`
	// Tag is the base64-encoded GCM authentication tag. Empty for CBC mode,
	// which provides no authenticity.
	Tag string `json:"tag"`
	// Version is the envelope format version.
	Version string `json:"version"`
}

// Mode reports the cipher mode the envelope was produced with, inferred from
// the presence of the authentication tag.
func (f EncryptedField) Mode() CipherMode {
	if f.Tag == "" {
		return ModeCBC
	}
	return ModeGCM
}

// Validate checks the envelope is structurally sound before decryption is
// attempted. An empty ciphertext is valid in GCM mode: sealing an empty
// plaintext produces a tag-only envelope.
func (f EncryptedField) Validate() error {
	err := validation.ValidateStruct(&f,
		validation.Field(&f.Ciphertext, validation.Required.When(f.Mode() == ModeCBC), appvalidation.Base64),
		validation.Field(&f.IV, validation.Required, appvalidation.Base64),
		validation.Field(&f.Tag, appvalidation.Base64),
		validation.Field(&f.Version, validation.Required, validation.In(FieldVersion)),
	)
	return appvalidation.WrapValidationError(err)
}

// Decode returns the raw ciphertext, IV and tag bytes.
// Returns ErrInvalidField if any part is not valid base64.
func (f EncryptedField) Decode() (ciphertext, iv, tag []byte, err error) {
	ciphertext, err = base64.StdEncoding.DecodeString(f.Ciphertext)
	if err != nil {
		return nil, nil, nil, ErrInvalidField
	}
	iv, err = base64.StdEncoding.DecodeString(f.IV)
	if err != nil {
		return nil, nil, nil, ErrInvalidField
	}
	if f.Tag != "" {
		tag, err = base64.StdEncoding.DecodeString(f.Tag)
		if err != nil {
			return nil, nil, nil, ErrInvalidField
		}
	}
	return ciphertext, iv, tag, nil
}

// NewEncryptedField builds a current-version envelope from raw bytes.
func NewEncryptedField(ciphertext, iv, tag []byte) EncryptedField {
	f := EncryptedField{
		Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
		IV:         base64.StdEncoding.EncodeToString(iv),
		Version:    FieldVersion,
	}
	if len(tag) > 0 {
		f.Tag = base64.StdEncoding.EncodeToString(tag)
	}
	return f
}
