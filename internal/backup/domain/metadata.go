package domain

import (
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	appvalidation "github.com/incomeclarity/vault/internal/validation"
)

// MetadataSuffix is appended to a backup blob path to name its sidecar file.
const MetadataSuffix = ".meta.json"

// Metadata is the sidecar descriptor written next to each backup blob.
// Created once at backup time, immutable thereafter. The blob on disk is
// opaque; this descriptor is the only way to interpret it.
type Metadata struct {
	// ID uniquely identifies the backup.
	ID uuid.UUID `json:"id"`
	// Timestamp is when the backup was created.
	Timestamp time.Time `json:"timestamp"`
	// Version is the snapshot document format version inside the blob.
	Version string `json:"version"`
	// Checksum is the hex SHA-256 digest of the final blob bytes, computed
	// after compression and encryption.
	Checksum string `json:"checksum"`
	// Size is the blob size in bytes.
	Size int64 `json:"size"`
	// Encrypted reports whether the blob is an encrypted field envelope.
	Encrypted bool `json:"encrypted"`
	// CompressionLevel is the gzip level used; 0 means uncompressed.
	CompressionLevel int `json:"compressionLevel"`
	// Tables lists the tables included in the snapshot.
	Tables []string `json:"tables"`
	// UserCount is the number of users in the snapshot.
	UserCount int `json:"userCount"`
	// RecordCount is the total number of records in the snapshot.
	RecordCount int `json:"recordCount"`
}

// Validate checks the descriptor is complete enough to drive a restore.
func (m Metadata) Validate() error {
	err := validation.ValidateStruct(&m,
		validation.Field(&m.Version, validation.Required),
		validation.Field(&m.Checksum, validation.Required, appvalidation.SHA256Hex),
		validation.Field(&m.Size, validation.Min(0)),
		validation.Field(&m.CompressionLevel, validation.Min(0), validation.Max(9)),
	)
	return appvalidation.WrapValidationError(err)
}
