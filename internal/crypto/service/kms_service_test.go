package service

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/incomeclarity/vault/internal/crypto/domain"
)

// localKeyURI is a localsecrets keeper (in-process, for tests only).
const localKeyURI = "base64key://smGbjm71Nxd1Ig5FS0wj9SlbzAIrnolCz9bQQ6uAhl4="

func TestResolveMasterSecret(t *testing.T) {
	ctx := context.Background()
	kms := NewKMSService()

	t.Run("explicit secret wins", func(t *testing.T) {
		secret, err := ResolveMasterSecret(ctx, kms, MasterSecretConfig{
			Explicit:  "explicit-secret",
			EnvSecret: "env-secret",
		})
		require.NoError(t, err)
		assert.Equal(t, "explicit-secret", secret)
	})

	t.Run("env secret next", func(t *testing.T) {
		secret, err := ResolveMasterSecret(ctx, kms, MasterSecretConfig{EnvSecret: "env-secret"})
		require.NoError(t, err)
		assert.Equal(t, "env-secret", secret)
	})

	t.Run("KMS-wrapped secret unwraps", func(t *testing.T) {
		keeper, err := kms.OpenKeeper(ctx, localKeyURI)
		require.NoError(t, err)
		defer func() { _ = keeper.Close() }()

		wrapped, err := keeper.Encrypt(ctx, []byte("wrapped-secret"))
		require.NoError(t, err)

		secret, err := ResolveMasterSecret(ctx, kms, MasterSecretConfig{
			WrappedSecret: base64.StdEncoding.EncodeToString(wrapped),
			KMSKeyURI:     localKeyURI,
		})
		require.NoError(t, err)
		assert.Equal(t, "wrapped-secret", secret)
	})

	t.Run("no source is a hard failure", func(t *testing.T) {
		_, err := ResolveMasterSecret(ctx, kms, MasterSecretConfig{})
		assert.ErrorIs(t, err, cryptoDomain.ErrMasterSecretNotSet)
	})

	t.Run("malformed wrapped secret", func(t *testing.T) {
		_, err := ResolveMasterSecret(ctx, kms, MasterSecretConfig{
			WrappedSecret: "!!!",
			KMSKeyURI:     localKeyURI,
		})
		assert.Error(t, err)
	})
}
