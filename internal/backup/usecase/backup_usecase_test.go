package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	backupDomain "github.com/incomeclarity/vault/internal/backup/domain"
	backupService "github.com/incomeclarity/vault/internal/backup/service"
	cryptoDomain "github.com/incomeclarity/vault/internal/crypto/domain"
	cryptoService "github.com/incomeclarity/vault/internal/crypto/service"
)

// mockExporter is a mock implementation of Exporter for testing.
type mockExporter struct {
	mock.Mock
}

func (m *mockExporter) Export(ctx context.Context, scope string) (*backupDomain.Snapshot, error) {
	args := m.Called(ctx, scope)
	if snap := args.Get(0); snap != nil {
		return snap.(*backupDomain.Snapshot), args.Error(1)
	}
	return nil, args.Error(1)
}

// mockApplier is a mock implementation of Applier for testing.
type mockApplier struct {
	mock.Mock
}

func (m *mockApplier) Apply(ctx context.Context, snap *backupDomain.Snapshot, overwrite bool) error {
	args := m.Called(ctx, snap, overwrite)
	return args.Error(0)
}

func newTestPipeline(t *testing.T, dir string) (*backupService.Pipeline, *backupService.MetadataStore) {
	t.Helper()

	deriver, err := cryptoService.NewKeyDeriver(cryptoService.KDFConfig{
		Algorithm:   cryptoDomain.Scrypt,
		ScryptN:     1024,
		ScryptR:     8,
		ScryptP:     1,
		AppSaltSeed: "test-salt-seed",
		CacheSize:   16,
	})
	require.NoError(t, err)
	require.NoError(t, deriver.Initialize(context.Background(), "test-master-secret"))
	t.Cleanup(deriver.Close)

	store := backupService.NewMetadataStore()
	pipeline := backupService.NewPipeline(
		cryptoService.NewFieldCipher(deriver),
		store,
		backupService.PipelineConfig{BackupDir: dir, Password: "backup-password", CompressionLevel: 6},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	return pipeline, store
}

func testSnapshot() *backupDomain.Snapshot {
	snap := backupDomain.NewSnapshot("")
	snap.Tables["users"] = []backupDomain.Record{
		{"id": "user-1", "email": "alice@example.com"},
	}
	return snap
}

func TestBackupUseCase_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("exports then persists", func(t *testing.T) {
		dir := t.TempDir()
		pipeline, store := newTestPipeline(t, dir)
		exporter := &mockExporter{}
		exporter.On("Export", ctx, "").Return(testSnapshot(), nil).Once()

		useCase := NewBackupUseCase(exporter, &mockApplier{}, pipeline, store, dir)

		result := useCase.Create(ctx, backupDomain.CreateOptions{Compress: true, Encrypt: true})

		require.True(t, result.Success, result.Error)
		assert.FileExists(t, result.Path)
		assert.Equal(t, 1, result.Metadata.UserCount)
		exporter.AssertExpectations(t)
	})

	t.Run("scoped export", func(t *testing.T) {
		dir := t.TempDir()
		pipeline, store := newTestPipeline(t, dir)
		exporter := &mockExporter{}
		exporter.On("Export", ctx, "user-1").Return(testSnapshot(), nil).Once()

		useCase := NewBackupUseCase(exporter, &mockApplier{}, pipeline, store, dir)

		result := useCase.Create(ctx, backupDomain.CreateOptions{Scope: "user-1"})

		assert.True(t, result.Success, result.Error)
		exporter.AssertExpectations(t)
	})

	t.Run("export failure is reported in the result", func(t *testing.T) {
		dir := t.TempDir()
		pipeline, store := newTestPipeline(t, dir)
		exporter := &mockExporter{}
		exporter.On("Export", ctx, "").Return(nil, errors.New("connection refused")).Once()

		useCase := NewBackupUseCase(exporter, &mockApplier{}, pipeline, store, dir)

		result := useCase.Create(ctx, backupDomain.CreateOptions{})

		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "connection refused")
		assert.Empty(t, result.Path)
	})
}

func TestBackupUseCase_Restore(t *testing.T) {
	ctx := context.Background()

	createBackup := func(t *testing.T, dir string, pipeline *backupService.Pipeline) string {
		t.Helper()
		_, path, err := pipeline.Create(ctx, testSnapshot(), backupDomain.CreateOptions{Encrypt: true})
		require.NoError(t, err)
		return path
	}

	t.Run("decodes then applies", func(t *testing.T) {
		dir := t.TempDir()
		pipeline, store := newTestPipeline(t, dir)
		path := createBackup(t, dir, pipeline)

		applier := &mockApplier{}
		applier.On("Apply", ctx, mock.AnythingOfType("*domain.Snapshot"), true).Return(nil).Once()

		useCase := NewBackupUseCase(&mockExporter{}, applier, pipeline, store, dir)

		result := useCase.Restore(ctx, backupDomain.RestoreOptions{Path: path, Overwrite: true})

		require.True(t, result.Success, result.Error)
		assert.Equal(t, path, result.Path)
		applier.AssertExpectations(t)
	})

	t.Run("pipeline failure skips apply", func(t *testing.T) {
		dir := t.TempDir()
		pipeline, store := newTestPipeline(t, dir)
		path := createBackup(t, dir, pipeline)

		applier := &mockApplier{}
		useCase := NewBackupUseCase(&mockExporter{}, applier, pipeline, store, dir)

		result := useCase.Restore(ctx, backupDomain.RestoreOptions{
			Path:     path,
			Password: "wrong-password",
		})

		assert.False(t, result.Success)
		applier.AssertNotCalled(t, "Apply", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("apply failure is reported in the result", func(t *testing.T) {
		dir := t.TempDir()
		pipeline, store := newTestPipeline(t, dir)
		path := createBackup(t, dir, pipeline)

		applier := &mockApplier{}
		applier.On("Apply", ctx, mock.AnythingOfType("*domain.Snapshot"), false).
			Return(errors.New("constraint violation")).
			Once()

		useCase := NewBackupUseCase(&mockExporter{}, applier, pipeline, store, dir)

		result := useCase.Restore(ctx, backupDomain.RestoreOptions{Path: path})

		assert.False(t, result.Success)
		assert.Contains(t, result.Error, "constraint violation")
	})
}

func TestBackupUseCase_ListPruneVerify(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	pipeline, store := newTestPipeline(t, dir)

	exporter := &mockExporter{}
	exporter.On("Export", ctx, "").Return(testSnapshot(), nil)

	useCase := NewBackupUseCase(exporter, &mockApplier{}, pipeline, store, dir)

	first := useCase.Create(ctx, backupDomain.CreateOptions{})
	require.True(t, first.Success, first.Error)
	second := useCase.Create(ctx, backupDomain.CreateOptions{})
	require.True(t, second.Success, second.Error)

	t.Run("list", func(t *testing.T) {
		entries, err := useCase.List(ctx)
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})

	t.Run("verify", func(t *testing.T) {
		meta, err := useCase.Verify(ctx, first.Path)
		require.NoError(t, err)
		assert.Equal(t, first.Metadata.ID, meta.ID)
	})

	t.Run("prune", func(t *testing.T) {
		removed, err := useCase.Prune(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, removed, 1)

		entries, err := useCase.List(ctx)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})
}
