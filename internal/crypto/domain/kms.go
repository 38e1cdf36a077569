package domain

import "context"

// KMSKeeper abstracts the subset of gocloud.dev/secrets.Keeper used for
// wrapping and unwrapping the master secret.
type KMSKeeper interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
	Close() error
}
