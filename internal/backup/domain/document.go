// Package domain defines the backup data model: the snapshot document
// exchanged with the data-access layer, the sidecar metadata descriptor and
// the pipeline options and results.
package domain

import "time"

// SnapshotVersion is the current snapshot document format version.
const SnapshotVersion = "1.0"

// supportedSnapshotVersions lists document versions Restore can parse.
var supportedSnapshotVersions = map[string]bool{
	SnapshotVersion: true,
}

// SupportedSnapshotVersion reports whether a document format version can be restored.
func SupportedSnapshotVersion(v string) bool {
	return supportedSnapshotVersions[v]
}

// Record is one exported row, keyed by column name.
type Record map[string]any

// Snapshot is the structured document exchanged with the data-access
// collaborator: the full dataset, or one user's slice of it.
type Snapshot struct {
	// Version is the document format version, checked on restore.
	Version string `json:"version"`
	// CreatedAt is when the export was taken.
	CreatedAt time.Time `json:"createdAt"`
	// Scope is the user identifier the snapshot is limited to; empty means
	// the full dataset.
	Scope string `json:"scope,omitempty"`
	// Tables maps table name to exported records.
	Tables map[string][]Record `json:"tables"`
}

// NewSnapshot creates an empty snapshot with the current format version.
func NewSnapshot(scope string) *Snapshot {
	return &Snapshot{
		Version:   SnapshotVersion,
		CreatedAt: time.Now().UTC(),
		Scope:     scope,
		Tables:    make(map[string][]Record),
	}
}

// TableNames returns the names of all tables in the snapshot.
func (s *Snapshot) TableNames() []string {
	names := make([]string, 0, len(s.Tables))
	for name := range s.Tables {
		names = append(names, name)
	}
	return names
}

// RecordCount returns the total number of records across all tables.
func (s *Snapshot) RecordCount() int {
	total := 0
	for _, records := range s.Tables {
		total += len(records)
	}
	return total
}

// UserCount returns the number of records in the users table.
func (s *Snapshot) UserCount() int {
	return len(s.Tables["users"])
}
