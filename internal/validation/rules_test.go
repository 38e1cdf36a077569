package validation

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/incomeclarity/vault/internal/errors"
)

func TestBase64(t *testing.T) {
	assert.NoError(t, Base64.Validate("aGVsbG8="))
	assert.NoError(t, Base64.Validate(""))
	assert.Error(t, Base64.Validate("not base64!!!"))
	assert.Error(t, Base64.Validate(42))
}

func TestSHA256Hex(t *testing.T) {
	sum := sha256.Sum256([]byte("payload"))

	assert.NoError(t, SHA256Hex.Validate(hex.EncodeToString(sum[:])))
	assert.NoError(t, SHA256Hex.Validate(""))
	assert.Error(t, SHA256Hex.Validate("abcd"))
	assert.Error(t, SHA256Hex.Validate("zz"))
}

func TestWrapValidationError(t *testing.T) {
	assert.Nil(t, WrapValidationError(nil))

	err := WrapValidationError(apperrors.New("checksum: must be a hex-encoded SHA-256 digest"))
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}
