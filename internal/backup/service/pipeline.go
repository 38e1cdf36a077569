package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"

	backupDomain "github.com/incomeclarity/vault/internal/backup/domain"
	cryptoDomain "github.com/incomeclarity/vault/internal/crypto/domain"
	cryptoService "github.com/incomeclarity/vault/internal/crypto/service"
	apperrors "github.com/incomeclarity/vault/internal/errors"
)

// Stage identifies a step of the backup pipeline state machine.
type Stage string

const (
	StageExporting    Stage = "exporting"
	StageSerializing  Stage = "serializing"
	StageCompressing  Stage = "compressing"
	StageEncrypting   Stage = "encrypting"
	StageChecksumming Stage = "checksumming"
	StagePersisted    Stage = "persisted"
	StageFailed       Stage = "failed"
)

// backupContext is the key derivation context for whole-backup encryption.
const backupContext = "backup"

// PipelineConfig holds the pipeline defaults. Options on individual runs
// override them.
type PipelineConfig struct {
	BackupDir        string
	Password         string
	CompressionLevel int
}

// Pipeline transforms snapshots into persisted backup blobs and back:
// serialize, then optionally compress, then optionally encrypt, then
// checksum; restore runs the exact inverse with the checksum verified first.
// The checksum is always computed over the final bytes on disk.
//
// Create and Restore are the only operations here that touch the filesystem.
// They are not re-entrant against the same target path; callers run one
// backup job at a time.
type Pipeline struct {
	cipher cryptoService.FieldCipher
	store  *MetadataStore
	cfg    PipelineConfig
	logger *slog.Logger
}

// NewPipeline creates a backup pipeline.
func NewPipeline(
	cipher cryptoService.FieldCipher,
	store *MetadataStore,
	cfg PipelineConfig,
	logger *slog.Logger,
) *Pipeline {
	return &Pipeline{cipher: cipher, store: store, cfg: cfg, logger: logger}
}

// Create runs the creation path on an already-exported snapshot and persists
// the blob plus its metadata sidecar. Returns the descriptor and the blob path.
func (p *Pipeline) Create(
	ctx context.Context,
	snap *backupDomain.Snapshot,
	opts backupDomain.CreateOptions,
) (*backupDomain.Metadata, string, error) {
	meta := &backupDomain.Metadata{
		ID:          uuid.Must(uuid.NewV7()),
		Timestamp:   snap.CreatedAt,
		Version:     snap.Version,
		Encrypted:   opts.Encrypt,
		Tables:      sortedTableNames(snap),
		UserCount:   snap.UserCount(),
		RecordCount: snap.RecordCount(),
	}

	// SERIALIZING
	if err := p.checkStage(ctx, StageSerializing, meta.ID); err != nil {
		return nil, "", err
	}
	blob, err := json.Marshal(snap)
	if err != nil {
		return nil, "", p.fail(StageSerializing, apperrors.Wrap(err, "failed to serialize snapshot"))
	}

	// COMPRESSING
	if opts.Compress {
		if err := p.checkStage(ctx, StageCompressing, meta.ID); err != nil {
			return nil, "", err
		}
		level := opts.CompressionLevel
		if level == 0 {
			level = p.cfg.CompressionLevel
		}
		blob, err = compress(blob, level)
		if err != nil {
			return nil, "", p.fail(StageCompressing, err)
		}
		meta.CompressionLevel = level
	}

	// ENCRYPTING
	if opts.Encrypt {
		if err := p.checkStage(ctx, StageEncrypting, meta.ID); err != nil {
			return nil, "", err
		}
		password := opts.Password
		if password == "" {
			password = p.cfg.Password
		}
		if password == "" {
			return nil, "", p.fail(StageEncrypting, backupDomain.ErrBackupPasswordNotSet)
		}

		field, err := p.cipher.Encrypt(ctx, blob, backupContext, backupKeySalt(password))
		if err != nil {
			return nil, "", p.fail(StageEncrypting, err)
		}
		blob, err = json.Marshal(field)
		if err != nil {
			return nil, "", p.fail(StageEncrypting, apperrors.Wrap(err, "failed to serialize envelope"))
		}
	}

	// CHECKSUMMING: always over the final bytes, after compression and encryption.
	if err := p.checkStage(ctx, StageChecksumming, meta.ID); err != nil {
		return nil, "", err
	}
	sum := sha256.Sum256(blob)
	meta.Checksum = hex.EncodeToString(sum[:])
	meta.Size = int64(len(blob))

	// PERSISTED
	dir := opts.OutputDir
	if dir == "" {
		dir = p.cfg.BackupDir
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, "", p.fail(StagePersisted, apperrors.Wrap(err, "failed to create backup directory"))
	}

	path := filepath.Join(dir, blobFileName(meta))
	if err := writeFileAtomic(path, blob, 0o600); err != nil {
		return nil, "", p.fail(StagePersisted, apperrors.Wrap(err, "failed to write backup blob"))
	}
	if err := p.store.Write(path, meta); err != nil {
		return nil, "", p.fail(StagePersisted, err)
	}

	p.logger.Info("backup created",
		slog.String("id", meta.ID.String()),
		slog.String("path", path),
		slog.Int64("size", meta.Size),
		slog.Bool("encrypted", meta.Encrypted),
		slog.Int("records", meta.RecordCount),
	)
	return meta, path, nil
}

// Restore runs the inverse path: verify checksum, decrypt, decompress, parse.
// A checksum mismatch is terminal and reported as ErrChecksumMismatch; a
// wrong password surfaces later, from the decryption stage, as
// ErrDecryptionFailed. Operators can tell a corrupted file from a wrong
// password by which error they get.
func (p *Pipeline) Restore(
	ctx context.Context,
	opts backupDomain.RestoreOptions,
) (*backupDomain.Snapshot, *backupDomain.Metadata, error) {
	blob, err := os.ReadFile(opts.Path)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, "failed to read backup blob")
	}
	meta, err := p.store.Read(opts.Path)
	if err != nil {
		return nil, nil, err
	}

	if !opts.SkipIntegrityCheck {
		sum := sha256.Sum256(blob)
		if hex.EncodeToString(sum[:]) != meta.Checksum {
			return nil, nil, backupDomain.ErrChecksumMismatch
		}
	}

	if meta.Encrypted {
		if err := p.checkStage(ctx, StageEncrypting, meta.ID); err != nil {
			return nil, nil, err
		}
		password := opts.Password
		if password == "" {
			password = p.cfg.Password
		}
		if password == "" {
			return nil, nil, backupDomain.ErrBackupPasswordNotSet
		}

		var field cryptoDomain.EncryptedField
		if err := json.Unmarshal(blob, &field); err != nil {
			return nil, nil, apperrors.Wrap(err, "failed to parse backup envelope")
		}
		blob, err = p.cipher.Decrypt(ctx, field, backupContext, backupKeySalt(password))
		if err != nil {
			return nil, nil, err
		}
	}

	if meta.CompressionLevel > 0 {
		if err := p.checkStage(ctx, StageCompressing, meta.ID); err != nil {
			return nil, nil, err
		}
		blob, err = decompress(blob)
		if err != nil {
			return nil, nil, err
		}
	}

	var snap backupDomain.Snapshot
	if err := json.Unmarshal(blob, &snap); err != nil {
		return nil, nil, apperrors.Wrap(err, "failed to parse snapshot")
	}
	if !backupDomain.SupportedSnapshotVersion(snap.Version) {
		return nil, nil, fmt.Errorf("%w: %q", backupDomain.ErrUnsupportedVersion, snap.Version)
	}

	p.logger.Info("backup restored",
		slog.String("id", meta.ID.String()),
		slog.String("path", opts.Path),
		slog.Int("records", snap.RecordCount()),
	)
	return &snap, meta, nil
}

// Verify recomputes the checksum of the blob at path against its sidecar.
func (p *Pipeline) Verify(path string) (*backupDomain.Metadata, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to read backup blob")
	}
	meta, err := p.store.Read(path)
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(blob)
	if hex.EncodeToString(sum[:]) != meta.Checksum {
		return nil, backupDomain.ErrChecksumMismatch
	}
	return meta, nil
}

// checkStage enforces cooperative cancellation between pipeline stages.
func (p *Pipeline) checkStage(ctx context.Context, stage Stage, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return p.fail(stage, apperrors.Wrap(err, "backup canceled"))
	}
	p.logger.Debug("backup stage", slog.String("id", id.String()), slog.String("stage", string(stage)))
	return nil
}

func (p *Pipeline) fail(stage Stage, err error) error {
	p.logger.Error("backup stage failed",
		slog.String("stage", string(stage)),
		slog.Any("error", err),
	)
	return fmt.Errorf("stage %s: %w", stage, err)
}

// backupKeySalt binds the backup key to the password: the context key for
// "backup" is derived with sha256(password) as the entity salt, so a wrong
// password yields a different key and decryption fails authentication.
func backupKeySalt(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	return sum[:]
}

// blobFileName yields names like backup-20250101-150405-9b3e1c7a.backup.
// The suffix comes from the random tail of the UUID; the leading characters
// of a v7 UUID are the timestamp again and would collide within a second.
func blobFileName(meta *backupDomain.Metadata) string {
	stamp := meta.Timestamp.UTC().Format("20060102-150405")
	id := meta.ID.String()
	return fmt.Sprintf("backup-%s-%s.backup", stamp, id[len(id)-8:])
}

func sortedTableNames(snap *backupDomain.Snapshot) []string {
	names := snap.TableNames()
	sort.Strings(names)
	return names
}

func compress(data []byte, level int) ([]byte, error) {
	var buf bytes.Buffer
	writer, err := gzip.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create gzip writer")
	}
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return nil, apperrors.Wrap(err, "failed to compress")
	}
	if err := writer.Close(); err != nil {
		return nil, apperrors.Wrap(err, "failed to compress")
	}
	return buf.Bytes(), nil
}

func decompress(data []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to decompress")
	}
	defer func() { _ = reader.Close() }()

	out, err := io.ReadAll(reader)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to decompress")
	}
	return out, nil
}
