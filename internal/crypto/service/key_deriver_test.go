package service

import (
	"context"
	"crypto/sha256"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/incomeclarity/vault/internal/crypto/domain"
)

// testKDFConfig uses low scrypt cost so tests stay fast.
func testKDFConfig() KDFConfig {
	return KDFConfig{
		Algorithm:        cryptoDomain.Scrypt,
		ScryptN:          1024,
		ScryptR:          8,
		ScryptP:          1,
		PBKDF2Iterations: 100000,
		AppSaltSeed:      "test-salt-seed",
		CacheSize:        16,
	}
}

func newTestDeriver(t *testing.T) *KeyDerivationService {
	t.Helper()
	deriver, err := NewKeyDeriver(testKDFConfig())
	require.NoError(t, err)
	require.NoError(t, deriver.Initialize(context.Background(), "test-master-secret"))
	t.Cleanup(deriver.Close)
	return deriver
}

func TestKeyDerivationService_Initialize(t *testing.T) {
	t.Run("empty secret is a hard failure", func(t *testing.T) {
		deriver, err := NewKeyDeriver(testKDFConfig())
		require.NoError(t, err)

		err = deriver.Initialize(context.Background(), "")
		assert.ErrorIs(t, err, cryptoDomain.ErrMasterSecretNotSet)
	})

	t.Run("reinitialize replaces master key and purges cache", func(t *testing.T) {
		deriver := newTestDeriver(t)
		ctx := context.Background()

		before, err := deriver.DeriveKey(ctx, "user:email", nil)
		require.NoError(t, err)

		require.NoError(t, deriver.Initialize(ctx, "another-master-secret"))

		after, err := deriver.DeriveKey(ctx, "user:email", nil)
		require.NoError(t, err)
		assert.NotEqual(t, before, after)
	})
}

func TestKeyDerivationService_DeriveKey(t *testing.T) {
	ctx := context.Background()

	t.Run("not initialized", func(t *testing.T) {
		deriver, err := NewKeyDeriver(testKDFConfig())
		require.NoError(t, err)

		_, err = deriver.DeriveKey(ctx, "user:email", nil)
		assert.ErrorIs(t, err, cryptoDomain.ErrNotInitialized)
	})

	t.Run("deterministic for identical inputs", func(t *testing.T) {
		deriver := newTestDeriver(t)
		salt := sha256.Sum256([]byte("user-123"))

		first, err := deriver.DeriveKey(ctx, "user:email", salt[:])
		require.NoError(t, err)
		second, err := deriver.DeriveKey(ctx, "user:email", salt[:])
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Len(t, first, cryptoDomain.KeySize)
	})

	t.Run("different contexts produce different keys", func(t *testing.T) {
		deriver := newTestDeriver(t)
		salt := sha256.Sum256([]byte("user-123"))

		emailKey, err := deriver.DeriveKey(ctx, "user:email", salt[:])
		require.NoError(t, err)
		taxKey, err := deriver.DeriveKey(ctx, "user:tax", salt[:])
		require.NoError(t, err)

		assert.NotEqual(t, emailKey, taxKey)
	})

	t.Run("nil salt uses the deterministic context salt", func(t *testing.T) {
		deriver := newTestDeriver(t)

		implicit, err := deriver.DeriveKey(ctx, "settings", nil)
		require.NoError(t, err)

		sum := sha256.Sum256([]byte("settings" + cryptoDomain.ContextSaltSuffix))
		explicit, err := deriver.DeriveKey(ctx, "settings", sum[:])
		require.NoError(t, err)

		assert.Equal(t, implicit, explicit)
	})

	t.Run("callers cannot mutate cached keys", func(t *testing.T) {
		deriver := newTestDeriver(t)

		first, err := deriver.DeriveKey(ctx, "user:email", nil)
		require.NoError(t, err)
		for i := range first {
			first[i] = 0xFF
		}

		second, err := deriver.DeriveKey(ctx, "user:email", nil)
		require.NoError(t, err)
		assert.NotEqual(t, first, second)
	})

	t.Run("concurrent derivation is consistent", func(t *testing.T) {
		deriver := newTestDeriver(t)

		keys := make([][]byte, 8)
		var wg sync.WaitGroup
		for i := range keys {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				key, err := deriver.DeriveKey(ctx, "concurrent", nil)
				assert.NoError(t, err)
				keys[i] = key
			}(i)
		}
		wg.Wait()

		for _, key := range keys[1:] {
			assert.Equal(t, keys[0], key)
		}
	})

	t.Run("pbkdf2 alternative algorithm", func(t *testing.T) {
		cfg := testKDFConfig()
		cfg.Algorithm = cryptoDomain.PBKDF2SHA256
		deriver, err := NewKeyDeriver(cfg)
		require.NoError(t, err)
		require.NoError(t, deriver.Initialize(ctx, "test-master-secret"))
		defer deriver.Close()

		key, err := deriver.DeriveKey(ctx, "user:email", nil)
		require.NoError(t, err)
		assert.Len(t, key, cryptoDomain.KeySize)
	})

	t.Run("unsupported algorithm", func(t *testing.T) {
		cfg := testKDFConfig()
		cfg.Algorithm = cryptoDomain.KDFAlgorithm("bcrypt")
		deriver, err := NewKeyDeriver(cfg)
		require.NoError(t, err)

		err = deriver.Initialize(ctx, "test-master-secret")
		assert.ErrorIs(t, err, cryptoDomain.ErrUnsupportedAlgorithm)
	})
}

func TestKeyDerivationService_Close(t *testing.T) {
	deriver := newTestDeriver(t)
	ctx := context.Background()

	_, err := deriver.DeriveKey(ctx, "user:email", nil)
	require.NoError(t, err)

	deriver.Close()

	_, err = deriver.DeriveKey(ctx, "user:email", nil)
	assert.ErrorIs(t, err, cryptoDomain.ErrNotInitialized)
}
