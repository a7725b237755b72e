// Package telemetry provides opt-in, privacy-scrubbed error reporting
// through Sentry. Nothing leaves the process unless telemetry.enabled is
// set, and every outgoing event passes the scrubbing filter first.
package telemetry

import (
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/mgarzon/floracast-go/internal/conf"
	"github.com/mgarzon/floracast-go/internal/errors"
	"github.com/mgarzon/floracast-go/internal/logging"
)

// Package-level logger for telemetry operations
var (
	telemetryLogger   *slog.Logger
	telemetryLevelVar = new(slog.LevelVar)
	closeLogger       func() error
)

func init() {
	var err error
	telemetryLogger, closeLogger, err = logging.NewFileLogger("logs/telemetry.log", "telemetry", telemetryLevelVar)
	if err != nil || telemetryLogger == nil {
		// Fall back to a disabled handler to prevent nil panics
		telemetryLogger = slog.New(slog.NewJSONHandler(io.Discard, nil)).With("service", "telemetry")
		closeLogger = func() error { return nil }
		if err != nil {
			logging.Warn("Failed to initialize telemetry file logger", "error", err)
		}
	}
}

// PlatformInfo holds privacy-safe platform facts attached to every event.
type PlatformInfo struct {
	OS           string `json:"os"`
	Architecture string `json:"arch"`
	Container    bool   `json:"container"`
	NumCPU       int    `json:"num_cpu"`
	GoVersion    string `json:"go_version"`
}

// collectPlatformInfo gathers platform information safe to report.
func collectPlatformInfo() PlatformInfo {
	return PlatformInfo{
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
		Container:    conf.RunningInContainer(),
		NumCPU:       runtime.NumCPU(),
		GoVersion:    runtime.Version(),
	}
}

// Init wires Sentry error reporting when the user has opted in. The
// privacy scrubber is registered unconditionally so error messages get
// the same treatment whether or not they are reported.
func Init(settings *conf.Settings) error {
	errors.SetPrivacyScrubber(ScrubMessage)

	if !settings.Telemetry.Enabled {
		telemetryLogger.Info("telemetry disabled, error reporting is opt-in")
		return nil
	}

	if settings.Telemetry.Debug {
		telemetryLevelVar.Set(slog.LevelDebug)
	}

	if settings.Telemetry.DSN == "" {
		return errors.Newf("telemetry enabled but no DSN configured").
			Component("telemetry").
			Category(errors.CategoryConfiguration).
			Build()
	}

	if err := EnsureSystemID(settings); err != nil {
		return err
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:        settings.Telemetry.DSN,
		SampleRate: 1.0,
		Debug:      false,

		// Keep events anonymous: no stack traces, no hostname.
		AttachStacktrace: false,
		Environment:      "production",
		ServerName:       "",

		Release:    fmt.Sprintf("floracast-go@%s", settings.Version),
		BeforeSend: scrubEvent,
	})
	if err != nil {
		return errors.New(err).
			Component("telemetry").
			Category(errors.CategoryConfiguration).
			Context("operation", "sentry-init").
			Build()
	}

	configureScope(settings)
	errors.SetTelemetryReporter(NewReporter(true))

	telemetryLogger.Info("telemetry initialized",
		"system_id", settings.SystemID,
		"version", settings.Version)
	return nil
}

// configureScope sets the tags and contexts every event carries.
func configureScope(settings *conf.Settings) {
	info := collectPlatformInfo()

	sentry.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("system_id", settings.SystemID)
		scope.SetTag("os", info.OS)
		scope.SetTag("arch", info.Architecture)
		scope.SetTag("container", fmt.Sprintf("%t", info.Container))

		scope.SetContext("application", map[string]any{
			"name":      "FloraCast-Go",
			"version":   settings.Version,
			"system_id": settings.SystemID,
		})
		scope.SetContext("platform", map[string]any{
			"os":         info.OS,
			"arch":       info.Architecture,
			"container":  info.Container,
			"num_cpu":    info.NumCPU,
			"go_version": info.GoVersion,
		})
	})
}

// allowedExtraFields survive the privacy filter, everything else in
// Extra is dropped before the event leaves the process.
var allowedExtraFields = map[string]bool{
	"error_type": true,
	"component":  true,
}

// scrubEvent is the BeforeSend hook. It strips identifying data the SDK
// collects on its own and scrubs the free-form text fields.
func scrubEvent(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
	event.User = sentry.User{}
	event.ServerName = ""
	event.Message = ScrubMessage(event.Message)

	for k := range event.Contexts {
		switch k {
		case "device", "os", "runtime", "culture":
			delete(event.Contexts, k)
		}
	}

	for k := range event.Extra {
		if !allowedExtraFields[k] {
			delete(event.Extra, k)
		}
	}

	delete(event.Tags, "server_name")
	delete(event.Tags, "hostname")

	for i := range event.Exception {
		event.Exception[i].Value = ScrubMessage(event.Exception[i].Value)
	}

	return event
}

// Flush blocks until buffered events are sent or the timeout passes.
// Call on shutdown so late errors are not lost. Safe to call when
// telemetry was never initialized.
func Flush(timeout time.Duration) {
	sentry.Flush(timeout)
}
