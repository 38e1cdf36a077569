package domain

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/incomeclarity/vault/internal/errors"
)

func TestEncryptedFieldJSONShape(t *testing.T) {
	field := NewEncryptedField([]byte("cipher"), make([]byte, GCMIVSize), make([]byte, TagSize))

	raw, err := json.Marshal(field)
	require.NoError(t, err)

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Contains(t, decoded, "encrypted")
	assert.Contains(t, decoded, "iv")
	assert.Contains(t, decoded, "tag")
	assert.Equal(t, "v1", decoded["version"])
}

func TestEncryptedFieldMode(t *testing.T) {
	gcm := NewEncryptedField([]byte("c"), make([]byte, GCMIVSize), make([]byte, TagSize))
	assert.Equal(t, ModeGCM, gcm.Mode())

	cbc := NewEncryptedField([]byte("c"), make([]byte, CBCIVSize), nil)
	assert.Equal(t, ModeCBC, cbc.Mode())
	assert.Equal(t, "", cbc.Tag)
}

func TestEncryptedFieldValidate(t *testing.T) {
	valid := NewEncryptedField([]byte("c"), make([]byte, GCMIVSize), make([]byte, TagSize))

	t.Run("valid envelope", func(t *testing.T) {
		assert.NoError(t, valid.Validate())
	})

	t.Run("empty ciphertext with tag", func(t *testing.T) {
		// GCM over an empty plaintext seals to a tag-only envelope.
		f := valid
		f.Ciphertext = ""
		assert.NoError(t, f.Validate())
	})

	t.Run("empty ciphertext without tag", func(t *testing.T) {
		f := NewEncryptedField(nil, make([]byte, CBCIVSize), nil)
		assert.ErrorIs(t, f.Validate(), apperrors.ErrInvalidInput)
	})

	t.Run("bad base64", func(t *testing.T) {
		f := valid
		f.IV = "***"
		assert.ErrorIs(t, f.Validate(), apperrors.ErrInvalidInput)
	})

	t.Run("unknown version", func(t *testing.T) {
		f := valid
		f.Version = "v9"
		assert.ErrorIs(t, f.Validate(), apperrors.ErrInvalidInput)
	})
}

func TestEncryptedFieldDecode(t *testing.T) {
	ciphertext := []byte("some ciphertext")
	iv := make([]byte, GCMIVSize)
	tag := make([]byte, TagSize)

	t.Run("round trip", func(t *testing.T) {
		field := NewEncryptedField(ciphertext, iv, tag)

		gotCiphertext, gotIV, gotTag, err := field.Decode()
		require.NoError(t, err)
		assert.Equal(t, ciphertext, gotCiphertext)
		assert.Equal(t, iv, gotIV)
		assert.Equal(t, tag, gotTag)
	})

	t.Run("empty tag decodes to nil", func(t *testing.T) {
		field := NewEncryptedField(ciphertext, iv, nil)

		_, _, gotTag, err := field.Decode()
		require.NoError(t, err)
		assert.Nil(t, gotTag)
	})

	t.Run("malformed base64", func(t *testing.T) {
		field := EncryptedField{
			Ciphertext: "!!!",
			IV:         base64.StdEncoding.EncodeToString(iv),
			Version:    FieldVersion,
		}
		_, _, _, err := field.Decode()
		assert.ErrorIs(t, err, ErrInvalidField)
	})
}

func TestZero(t *testing.T) {
	b := []byte{1, 2, 3}
	Zero(b)
	assert.Equal(t, []byte{0, 0, 0}, b)

	Zero(nil) // must not panic
}
