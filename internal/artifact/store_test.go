package artifact

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgarzon/floracast-go/internal/conf"
	"github.com/mgarzon/floracast-go/internal/errors"
)

func newTestStore(t *testing.T, dir string) *Store {
	t.Helper()
	return NewStore("polinizacion", conf.DomainConfig{ArtifactDir: dir})
}

func TestStoreAcquireLoadsLazily(t *testing.T) {
	dir := t.TempDir()
	writeArtifactSet(t, dir, "1.0.0")
	s := newTestStore(t, dir)

	assert.False(t, s.IsLoaded(), "store must not load before first Acquire")

	m, err := s.Acquire()
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.True(t, s.IsLoaded())
	assert.Equal(t, "1.0.0", m.Version())
	assert.Equal(t, "polinizacion", m.Domain)

	// Second acquire returns the same resident bundle.
	m2, err := s.Acquire()
	require.NoError(t, err)
	assert.Same(t, m, m2)
}

func TestStoreAcquireConcurrent(t *testing.T) {
	dir := t.TempDir()
	writeArtifactSet(t, dir, "1.0.0")
	s := newTestStore(t, dir)

	const callers = 16
	models := make([]*Model, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Go(func() {
			m, err := s.Acquire()
			if err == nil {
				models[i] = m
			}
		})
	}
	wg.Wait()

	for i := range callers {
		require.NotNil(t, models[i], "caller %d got no model", i)
		assert.Same(t, models[0], models[i], "caller %d got a different bundle", i)
	}
}

func TestStoreAcquireRetriesAfterFailure(t *testing.T) {
	dir := t.TempDir()
	s := newTestStore(t, dir)

	// Empty directory, first acquire fails with artifact-missing.
	_, err := s.Acquire()
	require.Error(t, err)
	assert.True(t, errors.IsArtifactMissing(err), "want artifact-missing, got %v", err)
	assert.False(t, s.IsLoaded())

	// Artifacts appear, the next acquire succeeds without restart.
	writeArtifactSet(t, dir, "1.0.0")
	m, err := s.Acquire()
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", m.Version())
}

func TestStoreAcquireCorruptArtifact(t *testing.T) {
	dir := t.TempDir()
	writeArtifactSet(t, dir, "1.0.0")
	writeArtifactFile(t, dir, RegressorFile, "{broken")
	s := newTestStore(t, dir)

	_, err := s.Acquire()
	require.Error(t, err)
	assert.True(t, errors.IsArtifactCorrupt(err), "want artifact-corrupt, got %v", err)
}

func TestStoreAcquireEmptyFile(t *testing.T) {
	dir := t.TempDir()
	writeArtifactSet(t, dir, "1.0.0")
	writeArtifactFile(t, dir, EncodersFile, "")
	s := newTestStore(t, dir)

	_, err := s.Acquire()
	require.Error(t, err)
	assert.True(t, errors.IsArtifactCorrupt(err), "want artifact-corrupt, got %v", err)
}

func TestStoreAcquireMissingEncoderForCategorical(t *testing.T) {
	dir := t.TempDir()
	writeArtifactSet(t, dir, "1.0.0")
	writeArtifactFile(t, dir, EncodersFile, `{"otra_columna": {"classes": ["x"]}}`)
	s := newTestStore(t, dir)

	_, err := s.Acquire()
	require.Error(t, err)
	assert.True(t, errors.IsArtifactCorrupt(err), "want artifact-corrupt, got %v", err)
	assert.Contains(t, err.Error(), "no encoder for categorical column")
}

func TestStoreReloadSwapsModel(t *testing.T) {
	dir := t.TempDir()
	writeArtifactSet(t, dir, "1.0.0")
	s := newTestStore(t, dir)

	old, err := s.Acquire()
	require.NoError(t, err)

	writeArtifactFile(t, dir, MetadataFile, testMetadataJSON("2.0.0"))
	require.NoError(t, s.Reload())

	fresh, err := s.Acquire()
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", fresh.Version())
	assert.NotSame(t, old, fresh)

	// The bundle handed out before the reload is untouched.
	assert.Equal(t, "1.0.0", old.Version())
}

func TestStoreReloadFailureKeepsOldModel(t *testing.T) {
	dir := t.TempDir()
	writeArtifactSet(t, dir, "1.0.0")
	s := newTestStore(t, dir)

	_, err := s.Acquire()
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(dir, RegressorFile)))
	require.Error(t, s.Reload())

	// Still serving the previous bundle.
	assert.True(t, s.IsLoaded())
	m, err := s.Acquire()
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", m.Version())

	info := s.ModelInfo()
	assert.True(t, info.Loaded)
	assert.NotEmpty(t, info.LastError)
}

func TestStoreModelInfo(t *testing.T) {
	dir := t.TempDir()
	writeArtifactSet(t, dir, "3.1.4")
	s := newTestStore(t, dir)

	info := s.ModelInfo()
	assert.False(t, info.Loaded)
	assert.Equal(t, "polinizacion", info.Domain)
	assert.Empty(t, info.ModelVersion)

	_, err := s.Acquire()
	require.NoError(t, err)

	info = s.ModelInfo()
	assert.True(t, info.Loaded)
	assert.Equal(t, "3.1.4", info.ModelVersion)
	assert.Equal(t, "2026-05-01T10:00:00Z", info.TrainedAt)
	assert.Equal(t, 3, info.FeatureCount)
	assert.Equal(t, []string{"mes_pol", "cantidad", "especie_encoded"}, info.FeatureList)
	assert.Equal(t, []string{"especie"}, info.CategoricalColumns)
	assert.Equal(t, []string{"fecha_polinizacion", "especie"}, info.RequiredInputFields)
	assert.Equal(t, map[string]int{"especie": 3}, info.EncoderCardinalities)
	assert.Equal(t, 1, info.RegressorTrees)
	assert.False(t, info.LoadedAt.IsZero())
}
