// Package errors - telemetry reporter integration (optional)
package errors

import (
	"regexp"
	"sync"
	"sync/atomic"
)

// TelemetryReporter is an interface for reporting errors to telemetry systems.
// The telemetry package registers an implementation at startup; when nothing is
// registered, error construction stays on the cheap path.
type TelemetryReporter interface {
	ReportError(err *EnhancedError)
	IsEnabled() bool
}

var (
	// hasActiveReporting gates the expensive detection work in Build.
	hasActiveReporting atomic.Bool

	globalReporterMu sync.RWMutex
	globalReporter   TelemetryReporter
)

// SetTelemetryReporter sets the global telemetry reporter. Passing nil
// deactivates reporting and restores the fast error-construction path.
func SetTelemetryReporter(reporter TelemetryReporter) {
	globalReporterMu.Lock()
	globalReporter = reporter
	globalReporterMu.Unlock()
	hasActiveReporting.Store(reporter != nil && reporter.IsEnabled())
}

// GetTelemetryReporter returns the current telemetry reporter, nil when unset.
func GetTelemetryReporter() TelemetryReporter {
	globalReporterMu.RLock()
	defer globalReporterMu.RUnlock()
	return globalReporter
}

// reportToTelemetry reports an error to the configured telemetry system
func reportToTelemetry(ee *EnhancedError) {
	globalReporterMu.RLock()
	reporter := globalReporter
	globalReporterMu.RUnlock()

	if reporter != nil && reporter.IsEnabled() {
		reporter.ReportError(ee)
	}
}

// PrivacyScrubber is a function type for privacy scrubbing of error messages
// before they leave the process.
type PrivacyScrubber func(string) string

var globalPrivacyScrubber PrivacyScrubber

// SetPrivacyScrubber sets the global privacy scrubbing function
func SetPrivacyScrubber(scrubber PrivacyScrubber) {
	globalPrivacyScrubber = scrubber
}

// ScrubMessage applies privacy protection to error messages. Falls back to
// basic URL/credential scrubbing when no scrubber has been registered.
func ScrubMessage(message string) string {
	if globalPrivacyScrubber != nil {
		return globalPrivacyScrubber(message)
	}
	return basicScrub(message)
}

var (
	urlQueryRegex  = regexp.MustCompile(`(https?://[^?\s]+)\?\S*`)
	credentialike  = regexp.MustCompile(`(?i)(api[_-]?key|token|auth|secret)[=:]\S+`)
	longHexPattern = regexp.MustCompile(`[0-9a-fA-F]{32,}`)
)

// basicScrub provides baseline anonymization: URL query strings, credential
// assignments, and long hex strings (likely keys or digests).
func basicScrub(message string) string {
	scrubbed := urlQueryRegex.ReplaceAllString(message, "$1?[REDACTED]")
	scrubbed = credentialike.ReplaceAllString(scrubbed, "[CREDENTIAL_REDACTED]")
	scrubbed = longHexPattern.ReplaceAllString(scrubbed, "[HEX_REDACTED]")
	return scrubbed
}
