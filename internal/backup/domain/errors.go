package domain

import (
	"github.com/incomeclarity/vault/internal/errors"
)

// Backup pipeline error definitions.
var (
	// ErrChecksumMismatch indicates the blob on disk does not match the
	// checksum recorded at creation time. Terminal for a restore: the file is
	// corrupted or was tampered with, and no transform stage runs after this
	// check fails. Distinct from a decryption failure, which signals a wrong
	// password instead.
	ErrChecksumMismatch = errors.Wrap(errors.ErrInvalidInput, "backup checksum mismatch")

	// ErrUnsupportedVersion indicates the snapshot document format version is
	// not supported by this build.
	ErrUnsupportedVersion = errors.Wrap(errors.ErrInvalidInput, "unsupported backup format version")

	// ErrMetadataNotFound indicates the sidecar descriptor next to the blob
	// is missing.
	ErrMetadataNotFound = errors.Wrap(errors.ErrNotFound, "backup metadata sidecar")

	// ErrBackupPasswordNotSet indicates an encrypted backup was requested but
	// no password was supplied or configured.
	ErrBackupPasswordNotSet = errors.Wrap(errors.ErrConfiguration, "backup password not set")
)
