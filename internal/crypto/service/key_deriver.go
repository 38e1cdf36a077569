package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/scrypt"
	"golang.org/x/sync/singleflight"

	cryptoDomain "github.com/incomeclarity/vault/internal/crypto/domain"
	apperrors "github.com/incomeclarity/vault/internal/errors"
)

// KDFConfig holds the key-stretching parameters for the derivation service.
type KDFConfig struct {
	// Algorithm selects the stretching function (scrypt or pbkdf2-sha256).
	Algorithm cryptoDomain.KDFAlgorithm
	// ScryptN, ScryptR, ScryptP are the scrypt cost parameters.
	ScryptN int
	ScryptR int
	ScryptP int
	// PBKDF2Iterations is the iteration count for pbkdf2-sha256.
	PBKDF2Iterations int
	// AppSaltSeed is hashed into the application salt for master key stretching.
	AppSaltSeed string
	// CacheSize bounds the derived-key cache (LRU eviction).
	CacheSize int
}

// DefaultKDFConfig returns scrypt parameters suitable for interactive use.
func DefaultKDFConfig() KDFConfig {
	return KDFConfig{
		Algorithm:        cryptoDomain.Scrypt,
		ScryptN:          32768,
		ScryptR:          8,
		ScryptP:          1,
		PBKDF2Iterations: 600000,
		AppSaltSeed:      "income-clarity-salt",
		CacheSize:        128,
	}
}

// KeyDerivationService implements KeyDeriver.
//
// The service exclusively owns the master key and the derived-key cache;
// callers only ever receive derived context keys, never the master key. The
// cache is bounded (LRU) so per-entity salts cannot grow memory without
// limit, and derivation goes through a singleflight group so concurrent
// requests for the same (context, salt) pair stretch the key once.
type KeyDerivationService struct {
	cfg KDFConfig

	mu        sync.RWMutex
	masterKey []byte

	cache *lru.Cache[string, []byte]
	group singleflight.Group
}

// NewKeyDeriver creates an uninitialized key derivation service.
// Initialize must be called before keys can be derived.
func NewKeyDeriver(cfg KDFConfig) (*KeyDerivationService, error) {
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultKDFConfig().CacheSize
	}
	cache, err := lru.NewWithEvict(cfg.CacheSize, func(_ string, key []byte) {
		cryptoDomain.Zero(key)
	})
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create key cache")
	}

	return &KeyDerivationService{cfg: cfg, cache: cache}, nil
}

// Initialize derives the master key from the master secret and the
// application salt. An empty secret is a hard configuration failure; the
// service never falls back to a built-in default. Calling Initialize again
// replaces the master key and purges the derived-key cache, since cached
// keys derived from the previous master key would otherwise be returned.
func (s *KeyDerivationService) Initialize(ctx context.Context, masterSecret string) error {
	if masterSecret == "" {
		return cryptoDomain.ErrMasterSecretNotSet
	}
	if err := ctx.Err(); err != nil {
		return apperrors.Wrap(err, "initialize canceled")
	}

	appSalt := sha256.Sum256([]byte(s.cfg.AppSaltSeed))
	masterKey, err := s.stretch([]byte(masterSecret), appSalt[:], cryptoDomain.KeySize)
	if err != nil {
		return apperrors.Wrap(err, "failed to stretch master secret")
	}

	s.mu.Lock()
	cryptoDomain.Zero(s.masterKey)
	s.masterKey = masterKey
	s.cache.Purge()
	s.mu.Unlock()

	return nil
}

// DeriveKey returns the context-scoped key for (keyContext, salt), deriving
// and caching it on first use. Identical inputs always yield the identical
// key for the lifetime of the master key. Callers receive a private copy.
func (s *KeyDerivationService) DeriveKey(ctx context.Context, keyContext string, salt []byte) ([]byte, error) {
	s.mu.RLock()
	initialized := s.masterKey != nil
	s.mu.RUnlock()
	if !initialized {
		return nil, cryptoDomain.ErrNotInitialized
	}

	if salt == nil {
		sum := sha256.Sum256([]byte(keyContext + cryptoDomain.ContextSaltSuffix))
		salt = sum[:]
	}
	cacheKey := keyContext + ":" + hex.EncodeToString(salt)

	if key, ok := s.cache.Get(cacheKey); ok {
		return copyKey(key), nil
	}

	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(err, "derive canceled")
	}

	v, err, _ := s.group.Do(cacheKey, func() (any, error) {
		s.mu.RLock()
		masterKey := copyKey(s.masterKey)
		s.mu.RUnlock()
		if masterKey == nil {
			return nil, cryptoDomain.ErrNotInitialized
		}
		defer cryptoDomain.Zero(masterKey)

		// Bind the context label into the stretch. Without this, two
		// contexts sharing an explicit entity salt would derive the
		// identical key and lose domain separation.
		h := sha256.New()
		h.Write([]byte(keyContext))
		h.Write([]byte{0})
		h.Write(salt)

		key, err := s.stretch(masterKey, h.Sum(nil), cryptoDomain.KeySize)
		if err != nil {
			return nil, err
		}
		s.cache.Add(cacheKey, copyKey(key))
		return key, nil
	})
	if err != nil {
		return nil, err
	}

	return copyKey(v.([]byte)), nil
}

// Close zeroizes the master key and every cached derived key.
func (s *KeyDerivationService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	cryptoDomain.Zero(s.masterKey)
	s.masterKey = nil
	s.cache.Purge() // eviction callback zeroizes each entry
}

// stretch runs the configured key-stretching function.
func (s *KeyDerivationService) stretch(secret, salt []byte, length int) ([]byte, error) {
	switch s.cfg.Algorithm {
	case cryptoDomain.Scrypt:
		key, err := scrypt.Key(secret, salt, s.cfg.ScryptN, s.cfg.ScryptR, s.cfg.ScryptP, length)
		if err != nil {
			return nil, apperrors.Wrap(err, "scrypt")
		}
		return key, nil
	case cryptoDomain.PBKDF2SHA256:
		return pbkdf2.Key(secret, salt, s.cfg.PBKDF2Iterations, length, sha256.New), nil
	default:
		return nil, cryptoDomain.ErrUnsupportedAlgorithm
	}
}

func copyKey(key []byte) []byte {
	if key == nil {
		return nil
	}
	out := make([]byte, len(key))
	copy(out, key)
	return out
}
