package usecase

import (
	"context"

	backupDomain "github.com/incomeclarity/vault/internal/backup/domain"
	backupService "github.com/incomeclarity/vault/internal/backup/service"
)

// backupUseCase implements BackupUseCase on top of the transform pipeline and
// a data-access collaborator.
type backupUseCase struct {
	exporter Exporter
	applier  Applier
	pipeline *backupService.Pipeline
	store    *backupService.MetadataStore
	dir      string
}

// NewBackupUseCase creates a backup use case instance with the provided dependencies.
func NewBackupUseCase(
	exporter Exporter,
	applier Applier,
	pipeline *backupService.Pipeline,
	store *backupService.MetadataStore,
	dir string,
) BackupUseCase {
	return &backupUseCase{
		exporter: exporter,
		applier:  applier,
		pipeline: pipeline,
		store:    store,
		dir:      dir,
	}
}

// Create exports the dataset and runs the backup pipeline on it.
func (u *backupUseCase) Create(ctx context.Context, opts backupDomain.CreateOptions) backupDomain.Result {
	snap, err := u.exporter.Export(ctx, opts.Scope)
	if err != nil {
		return backupDomain.Failed(err)
	}

	meta, path, err := u.pipeline.Create(ctx, snap, opts)
	if err != nil {
		return backupDomain.Failed(err)
	}
	return backupDomain.OK(path, meta)
}

// Restore decodes a backup blob and applies it to the dataset.
func (u *backupUseCase) Restore(ctx context.Context, opts backupDomain.RestoreOptions) backupDomain.Result {
	snap, meta, err := u.pipeline.Restore(ctx, opts)
	if err != nil {
		return backupDomain.Failed(err)
	}

	if err := u.applier.Apply(ctx, snap, opts.Overwrite); err != nil {
		return backupDomain.Failed(err)
	}
	return backupDomain.OK(opts.Path, meta)
}

func (u *backupUseCase) List(_ context.Context) ([]backupService.Entry, error) {
	return u.store.List(u.dir)
}

func (u *backupUseCase) Prune(_ context.Context, keep int) ([]string, error) {
	return u.store.Prune(u.dir, keep)
}

func (u *backupUseCase) Verify(_ context.Context, path string) (*backupDomain.Metadata, error) {
	return u.pipeline.Verify(path)
}
