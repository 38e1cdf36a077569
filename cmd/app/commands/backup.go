package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/incomeclarity/vault/internal/app"
	backupDomain "github.com/incomeclarity/vault/internal/backup/domain"
	"github.com/incomeclarity/vault/internal/config"
)

// BackupCreateOptions carries the backup-create command flags.
type BackupCreateOptions struct {
	Scope      string
	Output     string
	Password   string
	NoCompress bool
	NoEncrypt  bool
}

// RunBackupCreate exports the dataset and writes a backup blob plus sidecar
// metadata. Compression and encryption follow configuration unless overridden
// by flags.
func RunBackupCreate(ctx context.Context, opts BackupCreateOptions, ioTuple IOTuple) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	container := app.NewContainer(cfg)
	logger := container.Logger()
	defer closeContainer(container, logger)

	useCase, err := container.BackupUseCase(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize backup components: %w", err)
	}

	result := useCase.Create(ctx, backupDomain.CreateOptions{
		Scope:     opts.Scope,
		Compress:  cfg.BackupCompress && !opts.NoCompress,
		Encrypt:   cfg.BackupEncrypt && !opts.NoEncrypt,
		Password:  opts.Password,
		OutputDir: opts.Output,
	})
	if !result.Success {
		return fmt.Errorf("backup failed: %s", result.Error)
	}

	fmt.Fprintf(ioTuple.Writer, "Backup created: %s\n", result.Path)
	fmt.Fprintf(ioTuple.Writer, "  id:       %s\n", result.Metadata.ID)
	fmt.Fprintf(ioTuple.Writer, "  size:     %d bytes\n", result.Metadata.Size)
	fmt.Fprintf(ioTuple.Writer, "  records:  %d\n", result.Metadata.RecordCount)
	fmt.Fprintf(ioTuple.Writer, "  checksum: %s\n", result.Metadata.Checksum)
	return nil
}

// BackupRestoreOptions carries the backup-restore command flags.
type BackupRestoreOptions struct {
	Path          string
	Password      string
	Overwrite     bool
	SkipIntegrity bool
}

// RunBackupRestore verifies, decodes and applies a backup blob to the dataset.
func RunBackupRestore(ctx context.Context, opts BackupRestoreOptions, ioTuple IOTuple) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	container := app.NewContainer(cfg)
	logger := container.Logger()
	defer closeContainer(container, logger)

	useCase, err := container.BackupUseCase(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize backup components: %w", err)
	}

	result := useCase.Restore(ctx, backupDomain.RestoreOptions{
		Path:               opts.Path,
		Password:           opts.Password,
		Overwrite:          opts.Overwrite,
		SkipIntegrityCheck: opts.SkipIntegrity,
	})
	if !result.Success {
		return fmt.Errorf("restore failed: %s", result.Error)
	}

	fmt.Fprintf(ioTuple.Writer, "Backup restored: %s\n", result.Path)
	fmt.Fprintf(ioTuple.Writer, "  records: %d\n", result.Metadata.RecordCount)
	return nil
}

// RunBackupList prints the available backups, newest first.
func RunBackupList(ctx context.Context, ioTuple IOTuple) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	container := app.NewContainer(cfg)
	logger := container.Logger()
	defer closeContainer(container, logger)

	useCase, err := container.BackupUseCase(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize backup components: %w", err)
	}

	entries, err := useCase.List(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(ioTuple.Writer, "No backups found.")
		return nil
	}

	w := tabwriter.NewWriter(ioTuple.Writer, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "TIMESTAMP\tSIZE\tRECORDS\tENCRYPTED\tPATH")
	for _, entry := range entries {
		fmt.Fprintf(w, "%s\t%d\t%d\t%t\t%s\n",
			entry.Metadata.Timestamp.Format("2006-01-02 15:04:05"),
			entry.Metadata.Size,
			entry.Metadata.RecordCount,
			entry.Metadata.Encrypted,
			entry.Path,
		)
	}
	return w.Flush()
}

// RunBackupPrune removes the oldest backups beyond the retention limit.
func RunBackupPrune(ctx context.Context, keep int, ioTuple IOTuple) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}
	if keep == 0 {
		keep = cfg.SchedulerRetention
	}

	container := app.NewContainer(cfg)
	logger := container.Logger()
	defer closeContainer(container, logger)

	useCase, err := container.BackupUseCase(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize backup components: %w", err)
	}

	removed, err := useCase.Prune(ctx, keep)
	if err != nil {
		return err
	}
	if len(removed) == 0 {
		fmt.Fprintln(ioTuple.Writer, "Nothing to prune.")
		return nil
	}
	for _, path := range removed {
		fmt.Fprintf(ioTuple.Writer, "Removed: %s\n", path)
	}
	return nil
}

// RunBackupVerify recomputes the checksum of a backup blob against its
// sidecar metadata without restoring it.
func RunBackupVerify(ctx context.Context, path string, ioTuple IOTuple) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	container := app.NewContainer(cfg)
	logger := container.Logger()
	defer closeContainer(container, logger)

	useCase, err := container.BackupUseCase(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize backup components: %w", err)
	}

	meta, err := useCase.Verify(ctx, path)
	if err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}

	fmt.Fprintf(ioTuple.Writer, "OK: %s\n", path)
	fmt.Fprintf(ioTuple.Writer, "  checksum: %s\n", meta.Checksum)
	return nil
}
