package artifact

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestWatcherReloadsOnArtifactChange(t *testing.T) {
	defer goleak.VerifyNone(t,
		goleak.IgnoreTopFunction("gopkg.in/natefinch/lumberjack%2ev2.(*Logger).millRun"),
	)

	dir := t.TempDir()
	writeArtifactSet(t, dir, "1.0.0")
	s := newTestStore(t, dir)

	_, err := s.Acquire()
	require.NoError(t, err)

	w, err := NewWatcher(s)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	// A new export lands in the directory.
	writeArtifactFile(t, dir, MetadataFile, testMetadataJSON("2.0.0"))

	assert.Eventually(t, func() bool {
		return s.ModelInfo().ModelVersion == "2.0.0"
	}, 10*time.Second, 100*time.Millisecond, "watcher did not reload the new export")
}

func TestWatcherIgnoresUnrelatedFiles(t *testing.T) {
	defer goleak.VerifyNone(t,
		goleak.IgnoreTopFunction("gopkg.in/natefinch/lumberjack%2ev2.(*Logger).millRun"),
	)

	dir := t.TempDir()
	writeArtifactSet(t, dir, "1.0.0")
	s := newTestStore(t, dir)

	_, err := s.Acquire()
	require.NoError(t, err)
	loadedAt := s.ModelInfo().LoadedAt

	w, err := NewWatcher(s)
	require.NoError(t, err)
	require.NoError(t, w.Start(t.Context()))
	defer w.Stop()

	writeArtifactFile(t, dir, "notes.txt", "not an artifact")

	// Give the debounce window time to fire if it incorrectly armed.
	time.Sleep(3 * watchDebounce)
	assert.Equal(t, loadedAt, s.ModelInfo().LoadedAt, "unrelated file must not trigger a reload")
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t,
		goleak.IgnoreTopFunction("gopkg.in/natefinch/lumberjack%2ev2.(*Logger).millRun"),
	)

	dir := t.TempDir()
	writeArtifactSet(t, dir, "1.0.0")
	s := newTestStore(t, dir)

	w, err := NewWatcher(s)
	require.NoError(t, err)
	require.NoError(t, w.Start(t.Context()))

	w.Stop()
	w.Stop()
}

func TestIsArtifactFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want bool
	}{
		{"/models/polinizacion/regressor.json", true},
		{"/models/polinizacion/encoders.json", true},
		{"/models/polinizacion/metadata.json", true},
		{"/models/polinizacion/notes.txt", false},
		{"/models/polinizacion/regressor.json.bak", false},
		{"relative/metadata.json", true},
	}

	for _, tt := range tests {
		if got := isArtifactFile(tt.path); got != tt.want {
			t.Errorf("isArtifactFile(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
