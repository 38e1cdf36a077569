package commands

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	cryptoDomain "github.com/incomeclarity/vault/internal/crypto/domain"
	cryptoService "github.com/incomeclarity/vault/internal/crypto/service"
)

// RunGenerateSecret generates a cryptographically secure random master
// secret and prints it as environment variable assignments. With a KMS key
// URI the secret is wrapped before output and the plaintext never leaves
// memory.
//
// For local development use kmsKeyURI="base64key://<32-byte-base64-key>".
func RunGenerateSecret(ctx context.Context, kmsKeyURI string, ioTuple IOTuple) error {
	secret := make([]byte, cryptoDomain.KeySize)
	if _, err := rand.Read(secret); err != nil {
		return fmt.Errorf("failed to generate secret: %w", err)
	}
	defer cryptoDomain.Zero(secret)

	encoded := base64.StdEncoding.EncodeToString(secret)

	if kmsKeyURI == "" {
		fmt.Fprintf(ioTuple.Writer, "VAULT_MASTER_SECRET=%q\n", encoded)
		return nil
	}

	kms := cryptoService.NewKMSService()
	keeper, err := kms.OpenKeeper(ctx, kmsKeyURI)
	if err != nil {
		return err
	}
	defer func() { _ = keeper.Close() }()

	wrapped, err := keeper.Encrypt(ctx, []byte(encoded))
	if err != nil {
		return fmt.Errorf("failed to wrap secret: %w", err)
	}

	fmt.Fprintf(ioTuple.Writer, "VAULT_MASTER_SECRET_WRAPPED=%q\n", base64.StdEncoding.EncodeToString(wrapped))
	fmt.Fprintf(ioTuple.Writer, "KMS_KEY_URI=%q\n", kmsKeyURI)
	return nil
}
