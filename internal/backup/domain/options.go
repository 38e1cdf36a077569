package domain

// CreateOptions controls a single backup creation run.
type CreateOptions struct {
	// Scope limits the export to one user; empty exports the full dataset.
	Scope string
	// Compress enables the gzip stage.
	Compress bool
	// CompressionLevel is the gzip level (1-9). Zero selects the configured default.
	CompressionLevel int
	// Encrypt enables the encryption stage.
	Encrypt bool
	// Password overrides the configured backup password.
	Password string
	// OutputDir overrides the configured backup directory.
	OutputDir string
}

// RestoreOptions controls a single restore run.
type RestoreOptions struct {
	// Path is the backup blob to restore from.
	Path string
	// Password overrides the configured backup password.
	Password string
	// SkipIntegrityCheck disables checksum verification before the transform
	// stages. Corruption will then surface later, as a decryption,
	// decompression or parse failure, never as silently wrong data.
	SkipIntegrityCheck bool
	// Overwrite replaces existing records instead of merging. It clears
	// whole tables, so restores of user-scoped snapshots should merge.
	Overwrite bool
}

// Result is the structured outcome of a backup or restore run. Pipeline
// operations report failures here instead of propagating them, so scheduled
// and batch callers can log and continue.
type Result struct {
	Success  bool      `json:"success"`
	Error    string    `json:"error,omitempty"`
	Path     string    `json:"path,omitempty"`
	Metadata *Metadata `json:"metadata,omitempty"`
}

// OK builds a successful result.
func OK(path string, meta *Metadata) Result {
	return Result{Success: true, Path: path, Metadata: meta}
}

// Failed builds a failed result from an error.
func Failed(err error) Result {
	return Result{Success: false, Error: err.Error()}
}
