package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/incomeclarity/vault/internal/errors"
)

func validMetadata() Metadata {
	sum := sha256.Sum256([]byte("blob"))
	return Metadata{
		ID:               uuid.Must(uuid.NewV7()),
		Timestamp:        time.Now().UTC(),
		Version:          SnapshotVersion,
		Checksum:         hex.EncodeToString(sum[:]),
		Size:             4,
		Encrypted:        true,
		CompressionLevel: 6,
		Tables:           []string{"users", "incomes"},
		UserCount:        2,
		RecordCount:      10,
	}
}

func TestMetadataValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, validMetadata().Validate())
	})

	t.Run("missing checksum", func(t *testing.T) {
		m := validMetadata()
		m.Checksum = ""
		assert.ErrorIs(t, m.Validate(), apperrors.ErrInvalidInput)
	})

	t.Run("short checksum", func(t *testing.T) {
		m := validMetadata()
		m.Checksum = "abcd"
		assert.ErrorIs(t, m.Validate(), apperrors.ErrInvalidInput)
	})

	t.Run("compression level out of range", func(t *testing.T) {
		m := validMetadata()
		m.CompressionLevel = 11
		assert.ErrorIs(t, m.Validate(), apperrors.ErrInvalidInput)
	})
}

func TestMetadataJSONShape(t *testing.T) {
	raw, err := json.Marshal(validMetadata())
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))

	for _, field := range []string{
		"id", "timestamp", "version", "checksum", "size",
		"encrypted", "compressionLevel", "tables", "userCount", "recordCount",
	} {
		assert.Contains(t, decoded, field)
	}
}

func TestSnapshotCounts(t *testing.T) {
	snap := NewSnapshot("")
	snap.Tables["users"] = []Record{{"id": "u1"}, {"id": "u2"}}
	snap.Tables["incomes"] = []Record{{"id": "i1"}}

	assert.Equal(t, 3, snap.RecordCount())
	assert.Equal(t, 2, snap.UserCount())
	assert.ElementsMatch(t, []string{"users", "incomes"}, snap.TableNames())
	assert.True(t, SupportedSnapshotVersion(snap.Version))
	assert.False(t, SupportedSnapshotVersion("0.9"))
}
