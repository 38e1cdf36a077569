package service

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	backupDomain "github.com/incomeclarity/vault/internal/backup/domain"
	apperrors "github.com/incomeclarity/vault/internal/errors"
)

// writeTestBackup persists a fake blob plus sidecar with the given age.
func writeTestBackup(t *testing.T, store *MetadataStore, dir string, age time.Duration) string {
	t.Helper()

	blob := []byte("blob-" + uuid.NewString())
	sum := sha256.Sum256(blob)
	meta := &backupDomain.Metadata{
		ID:        uuid.Must(uuid.NewV7()),
		Timestamp: time.Now().UTC().Add(-age),
		Version:   backupDomain.SnapshotVersion,
		Checksum:  hex.EncodeToString(sum[:]),
		Size:      int64(len(blob)),
	}

	path := filepath.Join(dir, fmt.Sprintf("backup-%s.backup", meta.ID))
	require.NoError(t, os.WriteFile(path, blob, 0o600))
	require.NoError(t, store.Write(path, meta))
	return path
}

func TestMetadataStore_WriteRead(t *testing.T) {
	store := NewMetadataStore()
	dir := t.TempDir()

	t.Run("round trip", func(t *testing.T) {
		path := writeTestBackup(t, store, dir, 0)

		meta, err := store.Read(path)
		require.NoError(t, err)
		assert.Equal(t, backupDomain.SnapshotVersion, meta.Version)
		assert.Len(t, meta.Checksum, 64)
	})

	t.Run("missing sidecar", func(t *testing.T) {
		_, err := store.Read(filepath.Join(dir, "nonexistent.backup"))
		assert.ErrorIs(t, err, backupDomain.ErrMetadataNotFound)
	})

	t.Run("invalid sidecar fails validation", func(t *testing.T) {
		path := filepath.Join(dir, "bad.backup")
		require.NoError(t, os.WriteFile(sidecarPath(path), []byte(`{"checksum":"short"}`), 0o600))

		_, err := store.Read(path)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})
}

func TestMetadataStore_List(t *testing.T) {
	store := NewMetadataStore()
	dir := t.TempDir()

	oldest := writeTestBackup(t, store, dir, 3*time.Hour)
	newest := writeTestBackup(t, store, dir, time.Hour)
	middle := writeTestBackup(t, store, dir, 2*time.Hour)

	t.Run("newest first", func(t *testing.T) {
		entries, err := store.List(dir)
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, newest, entries[0].Path)
		assert.Equal(t, middle, entries[1].Path)
		assert.Equal(t, oldest, entries[2].Path)
	})

	t.Run("unparseable sidecars are skipped", func(t *testing.T) {
		broken := filepath.Join(dir, "broken.backup")
		require.NoError(t, os.WriteFile(sidecarPath(broken), []byte("not json"), 0o600))

		entries, err := store.List(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 3)
	})

	t.Run("empty directory", func(t *testing.T) {
		entries, err := store.List(t.TempDir())
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

func TestMetadataStore_Prune(t *testing.T) {
	t.Run("removes oldest beyond retention", func(t *testing.T) {
		store := NewMetadataStore()
		dir := t.TempDir()

		oldest := writeTestBackup(t, store, dir, 3*time.Hour)
		newest := writeTestBackup(t, store, dir, time.Hour)
		middle := writeTestBackup(t, store, dir, 2*time.Hour)

		removed, err := store.Prune(dir, 2)
		require.NoError(t, err)
		assert.Equal(t, []string{oldest}, removed)

		assert.NoFileExists(t, oldest)
		assert.NoFileExists(t, sidecarPath(oldest))
		assert.FileExists(t, newest)
		assert.FileExists(t, middle)
	})

	t.Run("nothing to prune", func(t *testing.T) {
		store := NewMetadataStore()
		dir := t.TempDir()
		writeTestBackup(t, store, dir, time.Hour)

		removed, err := store.Prune(dir, 5)
		require.NoError(t, err)
		assert.Empty(t, removed)
	})

	t.Run("negative retention is rejected", func(t *testing.T) {
		store := NewMetadataStore()

		_, err := store.Prune(t.TempDir(), -1)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "target.json")

	require.NoError(t, writeFileAtomic(path, []byte("first"), 0o600))
	require.NoError(t, writeFileAtomic(path, []byte("second"), 0o600))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))

	// No leftover temp files.
	leftovers, err := filepath.Glob(filepath.Join(dir, "*.tmp-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}
