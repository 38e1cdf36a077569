// Package usecase orchestrates backup operations between the data-access
// collaborator and the transform pipeline: export, transform, persist on the
// way out; verify, transform, apply on the way back.
package usecase

import (
	"context"

	backupDomain "github.com/incomeclarity/vault/internal/backup/domain"
	backupService "github.com/incomeclarity/vault/internal/backup/service"
)

// Exporter produces a structured snapshot of the dataset, optionally limited
// to one user.
type Exporter interface {
	Export(ctx context.Context, scope string) (*backupDomain.Snapshot, error)
}

// Applier writes a restored snapshot back into the dataset. Overwrite
// replaces existing records; otherwise records are merged in.
type Applier interface {
	Apply(ctx context.Context, snap *backupDomain.Snapshot, overwrite bool) error
}

// BackupUseCase defines the backup management business logic.
type BackupUseCase interface {
	// Create exports the dataset and runs it through the backup pipeline.
	// Failures are reported inside the Result, not as an error return, so
	// scheduled callers can log and continue.
	Create(ctx context.Context, opts backupDomain.CreateOptions) backupDomain.Result

	// Restore verifies, decodes and applies a backup blob to the dataset.
	Restore(ctx context.Context, opts backupDomain.RestoreOptions) backupDomain.Result

	// List enumerates available backups, newest first.
	List(ctx context.Context) ([]backupService.Entry, error)

	// Prune removes the oldest backups beyond keep and returns the blob
	// paths it removed.
	Prune(ctx context.Context, keep int) ([]string, error)

	// Verify recomputes the checksum of the blob at path without restoring it.
	Verify(ctx context.Context, path string) (*backupDomain.Metadata, error)
}
