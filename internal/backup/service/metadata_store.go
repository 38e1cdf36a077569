// Package service implements the backup transform pipeline and the sidecar
// metadata store.
package service

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	backupDomain "github.com/incomeclarity/vault/internal/backup/domain"
	apperrors "github.com/incomeclarity/vault/internal/errors"
)

// MetadataStore persists and retrieves the sidecar descriptor written next to
// each backup blob. Descriptors are written once at creation and read-only
// thereafter.
type MetadataStore struct{}

// NewMetadataStore creates a MetadataStore.
func NewMetadataStore() *MetadataStore {
	return &MetadataStore{}
}

// Entry pairs a backup blob path with its parsed descriptor.
type Entry struct {
	Path     string
	Metadata backupDomain.Metadata
}

// Write persists the descriptor for the blob at blobPath.
func (s *MetadataStore) Write(blobPath string, meta *backupDomain.Metadata) error {
	raw, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal backup metadata")
	}
	if err := writeFileAtomic(sidecarPath(blobPath), raw, 0o600); err != nil {
		return apperrors.Wrap(err, "failed to write backup metadata")
	}
	return nil
}

// Read loads and validates the descriptor for the blob at blobPath.
func (s *MetadataStore) Read(blobPath string) (*backupDomain.Metadata, error) {
	raw, err := os.ReadFile(sidecarPath(blobPath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, backupDomain.ErrMetadataNotFound
		}
		return nil, apperrors.Wrap(err, "failed to read backup metadata")
	}

	var meta backupDomain.Metadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, apperrors.Wrap(err, "failed to parse backup metadata")
	}
	if err := meta.Validate(); err != nil {
		return nil, err
	}
	return &meta, nil
}

// List enumerates backups in dir, newest first. Sidecars that fail to parse
// are skipped rather than failing the whole listing.
func (s *MetadataStore) List(dir string) ([]Entry, error) {
	sidecars, err := filepath.Glob(filepath.Join(dir, "*"+backupDomain.MetadataSuffix))
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list backup metadata")
	}

	entries := make([]Entry, 0, len(sidecars))
	for _, sidecar := range sidecars {
		blobPath := strings.TrimSuffix(sidecar, backupDomain.MetadataSuffix)
		meta, err := s.Read(blobPath)
		if err != nil {
			continue
		}
		entries = append(entries, Entry{Path: blobPath, Metadata: *meta})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Metadata.Timestamp.After(entries[j].Metadata.Timestamp)
	})
	return entries, nil
}

// Prune removes the oldest backups beyond keep, blob and sidecar together,
// and returns the removed blob paths.
func (s *MetadataStore) Prune(dir string, keep int) ([]string, error) {
	if keep < 0 {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "retention must not be negative")
	}

	entries, err := s.List(dir)
	if err != nil {
		return nil, err
	}
	if len(entries) <= keep {
		return nil, nil
	}

	removed := make([]string, 0, len(entries)-keep)
	for _, entry := range entries[keep:] {
		if err := os.Remove(entry.Path); err != nil && !os.IsNotExist(err) {
			return removed, apperrors.Wrap(err, "failed to remove backup blob")
		}
		if err := os.Remove(sidecarPath(entry.Path)); err != nil && !os.IsNotExist(err) {
			return removed, apperrors.Wrap(err, "failed to remove backup metadata")
		}
		removed = append(removed, entry.Path)
	}
	return removed, nil
}

func sidecarPath(blobPath string) string {
	return blobPath + backupDomain.MetadataSuffix
}

// writeFileAtomic writes data to a temporary file in the target directory and
// renames it into place, so readers never observe a partially written file.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
