package telemetry

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mgarzon/floracast-go/internal/conf"
	"github.com/mgarzon/floracast-go/internal/errors"
)

// mockTransport captures events in memory so tests never talk to a real
// Sentry endpoint.
type mockTransport struct {
	mu     sync.Mutex
	events []*sentry.Event
}

func (t *mockTransport) Configure(sentry.ClientOptions) {}

func (t *mockTransport) SendEvent(event *sentry.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, event)
}

func (t *mockTransport) Flush(time.Duration) bool { return true }

func (t *mockTransport) FlushWithContext(context.Context) bool { return true }

func (t *mockTransport) Close() {}

func (t *mockTransport) Events() []*sentry.Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*sentry.Event, len(t.events))
	copy(out, t.events)
	return out
}

// initMockSentry points the global hub at an in-memory transport. The
// empty DSN keeps the SDK from opening a network connection.
func initMockSentry(t *testing.T) *mockTransport {
	t.Helper()
	transport := &mockTransport{}
	require.NoError(t, sentry.Init(sentry.ClientOptions{
		Dsn:        "",
		Transport:  transport,
		BeforeSend: scrubEvent,
	}))
	return transport
}

func TestReporterCapturesEnhancedError(t *testing.T) {
	transport := initMockSentry(t)
	reporter := NewReporter(true)
	require.True(t, reporter.IsEnabled())

	ee := errors.Newf("cannot read regressor dump").
		Component("artifact").
		Category(errors.CategoryModelLoad).
		Context("operation", "load-regressor").
		Context("domain", "polinizacion").
		Build()

	reporter.ReportError(ee)

	events := transport.Events()
	require.Len(t, events, 1)
	event := events[0]

	assert.Contains(t, event.Message, "[model-loading]")
	assert.Contains(t, event.Message, "cannot read regressor dump")
	assert.Equal(t, sentry.LevelError, event.Level)
	assert.Equal(t, "artifact", event.Tags["component"])
	assert.Equal(t, "model-loading", event.Tags["category"])

	require.Len(t, event.Exception, 1)
	assert.Equal(t, "Artifact Model Loading Error Load Regressor", event.Exception[0].Type)

	require.True(t, ee.IsReported())
	reporter.ReportError(ee)
	assert.Len(t, transport.Events(), 1, "repeat reports are dropped")
}

func TestReporterDisabled(t *testing.T) {
	transport := initMockSentry(t)
	reporter := NewReporter(false)
	require.False(t, reporter.IsEnabled())

	ee := errors.Newf("nothing should be sent").
		Component("forecast").
		Category(errors.CategoryConfiguration).
		Build()
	reporter.ReportError(ee)

	assert.Empty(t, transport.Events())
	assert.False(t, ee.IsReported())
}

func TestErrorIntegrationAutoReports(t *testing.T) {
	transport := initMockSentry(t)

	errors.SetTelemetryReporter(NewReporter(true))
	defer errors.SetTelemetryReporter(nil)

	errors.Newf("encoder classes are empty").
		Category(errors.CategoryArtifactCorrupt).
		Build()

	events := transport.Events()
	require.Len(t, events, 1, "Build reports through the registered reporter")
	assert.Equal(t, "telemetry", events[0].Tags["component"], "component detected from the call stack")
	assert.Equal(t, "artifact-corrupt", events[0].Tags["category"])
}

func TestScrubMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"api key", "calling with api_key=abc123", "calling with [CREDENTIAL_REDACTED]"},
		{"token colon", "token:xyz789 rejected", "[CREDENTIAL_REDACTED] rejected"},
		{"email", "notify bob@example.com", "notify [EMAIL_REDACTED]"},
		{"ip with port", "dial 192.168.1.10:8090 refused", "dial [IP_REDACTED] refused"},
		{"home path", "open /home/alice/models/regressor.json", "open /home/[USER]/models/regressor.json"},
		{"url query", "GET https://api.example.com/v1/models?key=abc", "GET https://api.example.com/v1/models?[REDACTED]"},
		{"long hex", strings.Repeat("a", 32) + " leaked", "[HEX_REDACTED] leaked"},
		{"clean", "artifact not found for domain polinizacion", "artifact not found for domain polinizacion"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ScrubMessage(tt.in))
		})
	}
}

func TestScrubEventFilters(t *testing.T) {
	t.Parallel()

	event := sentry.NewEvent()
	event.User = sentry.User{ID: "someone"}
	event.ServerName = "db-host-01"
	event.Message = "reach admin@example.com"
	event.Contexts["device"] = map[string]any{"name": "laptop"}
	event.Contexts["os"] = map[string]any{"name": "linux"}
	event.Contexts["runtime"] = map[string]any{"name": "go"}
	event.Contexts["error"] = map[string]any{"value": "kept"}
	event.Extra["error_type"] = "*errors.EnhancedError"
	event.Extra["api_key"] = "should vanish"
	event.Tags["hostname"] = "db-host-01"
	event.Tags["component"] = "artifact"
	event.Exception = []sentry.Exception{{Type: "Network Error", Value: "dial 10.0.0.5:443"}}

	got := scrubEvent(event, nil)

	assert.Empty(t, got.User.ID)
	assert.Empty(t, got.ServerName)
	assert.Equal(t, "reach [EMAIL_REDACTED]", got.Message)
	assert.NotContains(t, got.Contexts, "device")
	assert.NotContains(t, got.Contexts, "os")
	assert.NotContains(t, got.Contexts, "runtime")
	assert.Contains(t, got.Contexts, "error")
	assert.NotContains(t, got.Extra, "api_key")
	assert.Contains(t, got.Extra, "error_type")
	assert.NotContains(t, got.Tags, "hostname")
	assert.Equal(t, "artifact", got.Tags["component"])
	assert.Equal(t, "dial [IP_REDACTED]", got.Exception[0].Value)
}

func TestErrorTitle(t *testing.T) {
	t.Parallel()

	withOp := errors.Newf("boom").
		Component("forecast").
		Category(errors.CategoryConfiguration).
		Context("operation", "load-baselines").
		Build()
	assert.Equal(t, "Forecast Configuration Error Load Baselines", errorTitle(withOp))

	plain := errors.Newf("boom").
		Component("conf").
		Category(errors.CategoryFileIO).
		Build()
	assert.Equal(t, "Conf File I/O Error", errorTitle(plain))

	generic := errors.Newf("boom").
		Component("forecast").
		Category(errors.CategoryGeneric).
		Build()
	assert.Equal(t, "Forecast", errorTitle(generic), "generic category adds nothing")
}

func TestCategoryLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		category errors.ErrorCategory
		want     sentry.Level
	}{
		{errors.CategoryMissingFields, sentry.LevelWarning},
		{errors.CategoryInvalidDate, sentry.LevelWarning},
		{errors.CategoryNetwork, sentry.LevelWarning},
		{errors.CategoryFileIO, sentry.LevelWarning},
		{errors.CategoryCancellation, sentry.LevelInfo},
		{errors.CategoryModelLoad, sentry.LevelError},
		{errors.CategoryConfiguration, sentry.LevelError},
		{errors.CategoryGeneric, sentry.LevelError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, categoryLevel(tt.category), string(tt.category))
	}
}

func TestGenerateSystemID(t *testing.T) {
	t.Parallel()

	first, err := GenerateSystemID()
	require.NoError(t, err)
	assert.True(t, validSystemID(first), "generated ID %q has the wrong format", first)

	second, err := GenerateSystemID()
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestValidSystemID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id   string
		want bool
	}{
		{"A1B2-C3D4-E5F6", true},
		{"a1b2-c3d4-e5f6", true},
		{"", false},
		{"A1B2C3D4E5F6", false},
		{"A1B2-C3D4-E5G6", false},
		{"A1B2-C3D4-E5F67", false},
		{"A1B2_C3D4_E5F6", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, validSystemID(tt.id), "id %q", tt.id)
	}
}

func TestLoadOrCreateSystemID(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	id, err := LoadOrCreateSystemID(dir)
	require.NoError(t, err)
	assert.True(t, validSystemID(id))

	again, err := LoadOrCreateSystemID(dir)
	require.NoError(t, err)
	assert.Equal(t, id, again, "persisted ID is stable")

	// A malformed file is replaced, not propagated.
	corrupt := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(corrupt, ".system_id"), []byte("garbage"), 0o644))
	fresh, err := LoadOrCreateSystemID(corrupt)
	require.NoError(t, err)
	assert.True(t, validSystemID(fresh))
}

func TestEnsureSystemIDKeepsExisting(t *testing.T) {
	t.Parallel()

	s := &conf.Settings{SystemID: "AAAA-BBBB-CCCC"}
	require.NoError(t, EnsureSystemID(s))
	assert.Equal(t, "AAAA-BBBB-CCCC", s.SystemID)
}
