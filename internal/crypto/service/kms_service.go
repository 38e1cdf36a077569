package service

import (
	"context"
	"encoding/base64"

	"gocloud.dev/secrets"

	cryptoDomain "github.com/incomeclarity/vault/internal/crypto/domain"
	apperrors "github.com/incomeclarity/vault/internal/errors"

	// Register KMS provider drivers
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"
)

// KMSService opens gocloud.dev secret keepers for unwrapping the master secret.
type KMSService interface {
	// OpenKeeper opens a secrets.Keeper for the given key URI.
	// Supports: gcpkms://, awskms://, azurekeyvault://, hashivault://, base64key://
	OpenKeeper(ctx context.Context, keyURI string) (cryptoDomain.KMSKeeper, error)
}

type kmsService struct{}

// NewKMSService creates a new KMS service instance.
func NewKMSService() KMSService {
	return &kmsService{}
}

func (k *kmsService) OpenKeeper(ctx context.Context, keyURI string) (cryptoDomain.KMSKeeper, error) {
	keeper, err := secrets.OpenKeeper(ctx, keyURI)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to open KMS keeper")
	}
	return keeper, nil
}

// MasterSecretConfig lists the prioritized sources for the master secret.
type MasterSecretConfig struct {
	// Explicit is a secret passed directly by the caller; highest priority.
	Explicit string
	// EnvSecret is the plaintext secret from configuration.
	EnvSecret string
	// WrappedSecret is a base64-encoded, KMS-encrypted secret.
	WrappedSecret string
	// KMSKeyURI is the keeper URI used to unwrap WrappedSecret.
	KMSKeyURI string
}

// ResolveMasterSecret walks the prioritized source list and returns the first
// secret it can produce. No source yields ErrMasterSecretNotSet; running with
// a built-in default is not an option.
func ResolveMasterSecret(ctx context.Context, kms KMSService, cfg MasterSecretConfig) (string, error) {
	if cfg.Explicit != "" {
		return cfg.Explicit, nil
	}
	if cfg.EnvSecret != "" {
		return cfg.EnvSecret, nil
	}

	if cfg.WrappedSecret != "" && cfg.KMSKeyURI != "" {
		wrapped, err := base64.StdEncoding.DecodeString(cfg.WrappedSecret)
		if err != nil {
			return "", apperrors.Wrap(err, "failed to decode wrapped master secret")
		}

		keeper, err := kms.OpenKeeper(ctx, cfg.KMSKeyURI)
		if err != nil {
			return "", err
		}
		defer func() { _ = keeper.Close() }()

		secret, err := keeper.Decrypt(ctx, wrapped)
		if err != nil {
			return "", apperrors.Wrap(err, "failed to unwrap master secret")
		}
		out := string(secret)
		cryptoDomain.Zero(secret)
		return out, nil
	}

	return "", cryptoDomain.ErrMasterSecretNotSet
}
