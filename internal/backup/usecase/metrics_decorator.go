package usecase

import (
	"context"
	"time"

	backupDomain "github.com/incomeclarity/vault/internal/backup/domain"
	backupService "github.com/incomeclarity/vault/internal/backup/service"
	"github.com/incomeclarity/vault/internal/metrics"
)

// backupUseCaseWithMetrics decorates BackupUseCase with metrics instrumentation.
type backupUseCaseWithMetrics struct {
	next    BackupUseCase
	metrics metrics.BusinessMetrics
}

// NewBackupUseCaseWithMetrics wraps a BackupUseCase with metrics recording.
func NewBackupUseCaseWithMetrics(useCase BackupUseCase, m metrics.BusinessMetrics) BackupUseCase {
	return &backupUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Create records metrics for backup creation runs.
func (u *backupUseCaseWithMetrics) Create(
	ctx context.Context,
	opts backupDomain.CreateOptions,
) backupDomain.Result {
	start := time.Now()
	result := u.next.Create(ctx, opts)

	status := "success"
	if !result.Success {
		status = "error"
	}

	u.metrics.RecordOperation(ctx, "backup", "backup_create", status)
	u.metrics.RecordDuration(ctx, "backup", "backup_create", time.Since(start), status)

	return result
}

// Restore records metrics for restore runs.
func (u *backupUseCaseWithMetrics) Restore(
	ctx context.Context,
	opts backupDomain.RestoreOptions,
) backupDomain.Result {
	start := time.Now()
	result := u.next.Restore(ctx, opts)

	status := "success"
	if !result.Success {
		status = "error"
	}

	u.metrics.RecordOperation(ctx, "backup", "backup_restore", status)
	u.metrics.RecordDuration(ctx, "backup", "backup_restore", time.Since(start), status)

	return result
}

// List records metrics for listing operations.
func (u *backupUseCaseWithMetrics) List(ctx context.Context) ([]backupService.Entry, error) {
	start := time.Now()
	entries, err := u.next.List(ctx)

	status := "success"
	if err != nil {
		status = "error"
	}

	u.metrics.RecordOperation(ctx, "backup", "backup_list", status)
	u.metrics.RecordDuration(ctx, "backup", "backup_list", time.Since(start), status)

	return entries, err
}

// Prune records metrics for retention pruning runs.
func (u *backupUseCaseWithMetrics) Prune(ctx context.Context, keep int) ([]string, error) {
	start := time.Now()
	removed, err := u.next.Prune(ctx, keep)

	status := "success"
	if err != nil {
		status = "error"
	}

	u.metrics.RecordOperation(ctx, "backup", "backup_prune", status)
	u.metrics.RecordDuration(ctx, "backup", "backup_prune", time.Since(start), status)

	return removed, err
}

// Verify records metrics for integrity verification runs.
func (u *backupUseCaseWithMetrics) Verify(ctx context.Context, path string) (*backupDomain.Metadata, error) {
	start := time.Now()
	meta, err := u.next.Verify(ctx, path)

	status := "success"
	if err != nil {
		status = "error"
	}

	u.metrics.RecordOperation(ctx, "backup", "backup_verify", status)
	u.metrics.RecordDuration(ctx, "backup", "backup_verify", time.Since(start), status)

	return meta, err
}
