package service

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/incomeclarity/vault/internal/crypto/domain"
)

func newTestHasher() *ScryptPasswordHasher {
	return NewPasswordHasher(1024, 8, 1)
}

func TestPasswordHasher_HashPassword(t *testing.T) {
	hasher := newTestHasher()

	t.Run("generates random salt when none given", func(t *testing.T) {
		first, err := hasher.HashPassword("hunter2", nil)
		require.NoError(t, err)
		second, err := hasher.HashPassword("hunter2", nil)
		require.NoError(t, err)

		assert.NotEqual(t, first.Salt, second.Salt)
		assert.NotEqual(t, first.Hash, second.Hash)

		salt, err := base64.StdEncoding.DecodeString(first.Salt)
		require.NoError(t, err)
		assert.Len(t, salt, cryptoDomain.PasswordSaltSize)

		hash, err := base64.StdEncoding.DecodeString(first.Hash)
		require.NoError(t, err)
		assert.Len(t, hash, cryptoDomain.PasswordHashSize)
	})

	t.Run("deterministic with explicit salt", func(t *testing.T) {
		salt := make([]byte, cryptoDomain.PasswordSaltSize)
		first, err := hasher.HashPassword("hunter2", salt)
		require.NoError(t, err)
		second, err := hasher.HashPassword("hunter2", salt)
		require.NoError(t, err)

		assert.Equal(t, first.Hash, second.Hash)
	})
}

func TestPasswordHasher_VerifyPassword(t *testing.T) {
	hasher := newTestHasher()

	hashed, err := hasher.HashPassword("correct horse battery staple", nil)
	require.NoError(t, err)

	t.Run("correct password", func(t *testing.T) {
		assert.True(t, hasher.VerifyPassword("correct horse battery staple", hashed.Hash, hashed.Salt))
	})

	t.Run("wrong password", func(t *testing.T) {
		assert.False(t, hasher.VerifyPassword("incorrect", hashed.Hash, hashed.Salt))
	})

	t.Run("malformed salt never panics or errors", func(t *testing.T) {
		assert.False(t, hasher.VerifyPassword("anything", hashed.Hash, "not base64!"))
	})

	t.Run("malformed hash never panics or errors", func(t *testing.T) {
		assert.False(t, hasher.VerifyPassword("anything", "not base64!", hashed.Salt))
	})
}
