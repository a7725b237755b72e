package diagnostics

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgarzon/floracast-go/internal/conf"
	"github.com/mgarzon/floracast-go/internal/errors"
)

func testSettings() *conf.Settings {
	s := &conf.Settings{}
	s.Version = "1.2.3"
	s.SystemID = "ABCD-1234-EF56"
	return s
}

func TestCollectRequiresSection(t *testing.T) {
	t.Parallel()

	c := NewCollector(testSettings())
	_, err := c.Collect(t.Context(), Options{})
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
}

func TestCollectBundleIdentity(t *testing.T) {
	t.Parallel()

	c := NewCollector(testSettings())
	bundle, err := c.Collect(t.Context(), Options{IncludeSystemInfo: true})
	require.NoError(t, err)

	_, err = uuid.Parse(bundle.ID)
	require.NoError(t, err, "bundle ID should be a UUID")
	assert.Equal(t, "ABCD-1234-EF56", bundle.SystemID)
	assert.Equal(t, "1.2.3", bundle.Version)
	assert.WithinDuration(t, time.Now().UTC(), bundle.Timestamp, time.Minute)
	assert.Equal(t, runtime.GOOS, bundle.SystemInfo.OS)
}

func TestCollectSystemInfo(t *testing.T) {
	t.Parallel()

	info := collectSystemInfo(t.Context())
	assert.Equal(t, runtime.GOOS, info.OS)
	assert.Equal(t, runtime.GOARCH, info.Architecture)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Positive(t, info.NumCPU)
}

func TestSkipFilesystem(t *testing.T) {
	t.Parallel()

	tests := []struct {
		fstype string
		skip   bool
	}{
		{"ext4", false},
		{"xfs", false},
		{"btrfs", false},
		{"apfs", false},
		{"tmpfs", true},
		{"proc", true},
		{"sysfs", true},
		{"devtmpfs", true},
		{"cgroup2", true},
		{"fuse.sshfs", true},
		{"overlay", true},
	}

	for _, tt := range tests {
		t.Run(tt.fstype, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.skip, skipFilesystem(tt.fstype))
		})
	}
}

func TestScrubConfig(t *testing.T) {
	t.Parallel()

	config := map[string]any{
		"debug": true,
		"main": map[string]any{
			"name": "estacion-1",
		},
		"telemetry": map[string]any{
			"enabled": true,
			"dsn":     "https://abc123@sentry.example.com/42",
		},
		"forecast": map[string]any{
			"domains": map[string]any{
				"polinizacion": map[string]any{
					"artifactdir": "models/polinizacion",
					"syncurl":     "https://artifacts.example.com/pol?token=s3cret",
				},
			},
		},
		"endpoints": []any{
			map[string]any{"password": "hunter2", "port": 8443},
		},
	}

	scrubbed := scrubConfig(config)

	assert.Equal(t, true, scrubbed["debug"])
	assert.Equal(t, "estacion-1", scrubbed["main"].(map[string]any)["name"])

	telemetry := scrubbed["telemetry"].(map[string]any)
	assert.Equal(t, true, telemetry["enabled"])
	assert.Equal(t, "[REDACTED]", telemetry["dsn"])

	domain := scrubbed["forecast"].(map[string]any)["domains"].(map[string]any)["polinizacion"].(map[string]any)
	assert.Equal(t, "models/polinizacion", domain["artifactdir"])
	assert.Equal(t, "[REDACTED]", domain["syncurl"], "keys containing url should be redacted")

	endpoint := scrubbed["endpoints"].([]any)[0].(map[string]any)
	assert.Equal(t, "[REDACTED]", endpoint["password"])
	assert.Equal(t, 8443, endpoint["port"])

	// Original tree stays untouched
	assert.Equal(t, "https://abc123@sentry.example.com/42",
		config["telemetry"].(map[string]any)["dsn"])
}

func TestParseLogLine(t *testing.T) {
	t.Parallel()

	t.Run("json slog line", func(t *testing.T) {
		t.Parallel()
		entry := parseLogLine(`{"time":"2025-08-20T10:30:00Z","level":"INFO","msg":"artifact set loaded","service":"artifact"}`)
		require.NotNil(t, entry)
		assert.Equal(t, time.Date(2025, 8, 20, 10, 30, 0, 0, time.UTC), entry.Timestamp)
		assert.Equal(t, "INFO", entry.Level)
		assert.Equal(t, "artifact set loaded", entry.Message)
		assert.Equal(t, "artifact", entry.Source)
	})

	t.Run("json with fractional seconds", func(t *testing.T) {
		t.Parallel()
		entry := parseLogLine(`{"time":"2025-08-20T10:30:00.123456+02:00","level":"warn","msg":"slow load"}`)
		require.NotNil(t, entry)
		assert.Equal(t, "WARN", entry.Level)
		assert.Equal(t, "slow load", entry.Message)
		assert.Empty(t, entry.Source)
	})

	t.Run("text fallback", func(t *testing.T) {
		t.Parallel()
		entry := parseLogLine("2025-08-20 10:30:00 [ERROR] model load failed")
		require.NotNil(t, entry)
		assert.Equal(t, time.Date(2025, 8, 20, 10, 30, 0, 0, time.UTC), entry.Timestamp)
		assert.Equal(t, "ERROR", entry.Level)
		assert.Equal(t, "model load failed", entry.Message)
	})

	t.Run("json without message", func(t *testing.T) {
		t.Parallel()
		assert.Nil(t, parseLogLine(`{"time":"2025-08-20T10:30:00Z","level":"INFO"}`))
	})

	t.Run("garbage", func(t *testing.T) {
		t.Parallel()
		assert.Nil(t, parseLogLine("not a log line"))
		assert.Nil(t, parseLogLine(""))
	})
}

func TestParseLogFile(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	recent := now.Add(-1 * time.Hour).Format(time.RFC3339)
	old := now.Add(-100 * time.Hour).Format(time.RFC3339)

	lines := fmt.Sprintf(`{"time":%q,"level":"INFO","msg":"old entry","service":"forecast"}
{"time":%q,"level":"INFO","msg":"recent entry","service":"forecast"}
garbage line
{"time":%q,"level":"ERROR","msg":"recent error","service":"artifact"}
`, old, recent, recent)

	path := filepath.Join(t.TempDir(), "forecast.log")
	require.NoError(t, os.WriteFile(path, []byte(lines), 0o644))

	cutoff := now.Add(-72 * time.Hour)
	logs, size := parseLogFile(path, cutoff, 1<<20)
	require.Len(t, logs, 2, "old and garbage lines should be dropped")
	assert.Equal(t, "recent entry", logs[0].Message)
	assert.Equal(t, "recent error", logs[1].Message)
	assert.Equal(t, "artifact", logs[1].Source)
	assert.Positive(t, size)

	t.Run("size cap", func(t *testing.T) {
		t.Parallel()
		logs, _ := parseLogFile(path, cutoff, 10)
		assert.Empty(t, logs, "cap smaller than the first line should stop parsing")
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		logs, size := parseLogFile(filepath.Join(t.TempDir(), "absent.log"), cutoff, 1<<20)
		assert.Empty(t, logs)
		assert.Zero(t, size)
	})
}

func TestSortLogsByTime(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 8, 20, 0, 0, 0, 0, time.UTC)
	logs := []LogEntry{
		{Timestamp: base.Add(2 * time.Hour), Message: "third"},
		{Timestamp: base, Message: "first"},
		{Timestamp: base.Add(time.Hour), Message: "second"},
	}

	sortLogsByTime(logs)

	assert.Equal(t, "first", logs[0].Message)
	assert.Equal(t, "second", logs[1].Message)
	assert.Equal(t, "third", logs[2].Message)
}

func TestCollectArtifacts(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	metadata := `{
		"feature_list": ["mes_pol", "genero_encoded"],
		"categorical_columns": ["genero"],
		"input_columns_required": ["fechapol", "genero"],
		"model_version": "v2.1.0",
		"trained_at": "2025-06-01T00:00:00Z"
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "metadata.json"), []byte(metadata), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "encoders.json"), []byte(`{"genero":{"classes":["Cattleya"]}}`), 0o644))

	settings := testSettings()
	settings.Forecast.Domains = map[string]conf.DomainConfig{
		conf.DomainPollination: {ArtifactDir: dir},
		conf.DomainGermination: {ArtifactDir: filepath.Join(dir, "missing")},
	}

	statuses := NewCollector(settings).collectArtifacts()
	require.Len(t, statuses, 2)

	pol := statuses[0]
	assert.Equal(t, conf.DomainPollination, pol.Domain)
	assert.Equal(t, int64(-1), pol.Files["regressor.json"])
	assert.Positive(t, pol.Files["encoders.json"])
	assert.Positive(t, pol.Files["metadata.json"])
	assert.Equal(t, "v2.1.0", pol.ModelVersion)
	assert.Equal(t, "2025-06-01T00:00:00Z", pol.TrainedAt)
	assert.Empty(t, pol.Error)

	germ := statuses[1]
	assert.Equal(t, conf.DomainGermination, germ.Domain)
	for _, file := range []string{"regressor.json", "encoders.json", "metadata.json"} {
		assert.Equal(t, int64(-1), germ.Files[file])
	}
	assert.Empty(t, germ.ModelVersion)
}

func TestCollectArtifactsCorruptMetadata(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "metadata.json"), []byte(`{"model_version":""}`), 0o644))

	settings := testSettings()
	settings.Forecast.Domains = map[string]conf.DomainConfig{
		conf.DomainPollination: {ArtifactDir: dir},
	}

	statuses := NewCollector(settings).collectArtifacts()
	require.Len(t, statuses, 1)
	assert.NotEmpty(t, statuses[0].Error)
	assert.Empty(t, statuses[0].ModelVersion)
}

func TestCreateArchive(t *testing.T) {
	t.Parallel()

	c := NewCollector(testSettings())
	bundle := &Bundle{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		SystemID:  "ABCD-1234-EF56",
		Version:   "1.2.3",
		SystemInfo: SystemInfo{
			OS:           runtime.GOOS,
			Architecture: runtime.GOARCH,
		},
		Config: map[string]any{"debug": true},
		Artifacts: []ArtifactStatus{
			{Domain: conf.DomainPollination, Files: map[string]int64{"metadata.json": 120}},
		},
		Logs: []LogEntry{
			{Timestamp: time.Now().UTC(), Level: "INFO", Message: "hello", Source: "forecast"},
		},
	}

	data, err := c.CreateArchive(bundle)
	require.NoError(t, err)

	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	names := make(map[string]*zip.File, len(reader.File))
	for _, f := range reader.File {
		names[f.Name] = f
	}
	for _, want := range []string{"bundle.json", "system_info.json", "config.json", "artifacts.json", "logs.json"} {
		assert.Contains(t, names, want)
	}

	f, err := names["bundle.json"].Open()
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	var decoded Bundle
	require.NoError(t, json.NewDecoder(f).Decode(&decoded))
	assert.Equal(t, bundle.ID, decoded.ID)
	assert.Equal(t, bundle.SystemID, decoded.SystemID)
	assert.Len(t, decoded.Logs, 1)
}

func TestCreateArchiveMinimalBundle(t *testing.T) {
	t.Parallel()

	c := NewCollector(testSettings())
	bundle := &Bundle{ID: uuid.New().String(), Timestamp: time.Now().UTC()}

	data, err := c.CreateArchive(bundle)
	require.NoError(t, err)

	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, reader.File, 1)
	assert.Equal(t, "bundle.json", reader.File[0].Name)
}
