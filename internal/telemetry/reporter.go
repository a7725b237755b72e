// reporter.go bridges the errors package to Sentry
package telemetry

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/getsentry/sentry-go"

	"github.com/mgarzon/floracast-go/internal/errors"
)

// Reporter forwards enhanced errors to Sentry. It implements
// errors.TelemetryReporter and is registered by Init when the user has
// opted in.
type Reporter struct {
	enabled bool
}

// NewReporter creates a reporter. A disabled reporter drops everything.
func NewReporter(enabled bool) *Reporter {
	return &Reporter{enabled: enabled}
}

// IsEnabled reports whether errors are forwarded.
func (r *Reporter) IsEnabled() bool {
	return r.enabled
}

// ReportError sends one enhanced error to Sentry. Each error value is
// sent at most once, repeat reports are dropped.
func (r *Reporter) ReportError(ee *errors.EnhancedError) {
	if !r.enabled || ee.IsReported() {
		return
	}

	message := ScrubMessage(fmt.Sprintf("[%s] %s", ee.Category, ee.GetMessage()))
	title := errorTitle(ee)
	component := ee.GetComponent()
	level := categoryLevel(ee.Category)

	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("error_title", title)
		scope.SetTag("component", component)
		scope.SetTag("category", string(ee.Category))

		for key, value := range ee.GetContext() {
			if s, ok := value.(string); ok {
				value = ScrubMessage(s)
			}
			scope.SetContext(key, map[string]any{"value": value})
		}

		scope.SetLevel(level)
		scope.SetFingerprint([]string{title, component, string(ee.Category)})

		event := sentry.NewEvent()
		event.Message = message
		event.Level = level
		event.Exception = []sentry.Exception{{
			Type:  title,
			Value: message,
		}}
		sentry.CaptureEvent(event)
	})

	ee.MarkReported()

	telemetryLogger.Debug("error reported",
		"component", component,
		"category", string(ee.Category),
		"title", title)
}

// errorTitle builds the Sentry issue title from component, category and
// operation context, e.g. "Artifact Model Loading Error Load Regressor".
func errorTitle(ee *errors.EnhancedError) string {
	var parts []string

	if c := ee.GetComponent(); c != "" && c != errors.ComponentUnknown {
		parts = append(parts, titleCase(c))
	}
	if ct := categoryTitle(ee.Category); ct != "" {
		parts = append(parts, ct)
	}
	if op, ok := ee.GetContext()["operation"].(string); ok && op != "" {
		parts = append(parts, operationTitle(op))
	}

	if len(parts) == 0 {
		return fmt.Sprintf("%T", ee.GetError())
	}
	return strings.Join(parts, " ")
}

// categoryTitle converts error categories to readable issue titles.
func categoryTitle(category errors.ErrorCategory) string {
	switch category {
	case errors.CategoryArtifactMissing:
		return "Artifact Missing"
	case errors.CategoryArtifactCorrupt:
		return "Artifact Corrupt"
	case errors.CategoryMissingFields:
		return "Missing Required Fields"
	case errors.CategoryInvalidDate:
		return "Invalid Date Format"
	case errors.CategoryMissingPrediction:
		return "Missing Original Prediction"
	case errors.CategoryMissingOutcome:
		return "Missing Outcome Date"
	case errors.CategoryModelInit:
		return "Model Initialization Error"
	case errors.CategoryModelLoad:
		return "Model Loading Error"
	case errors.CategoryFeatureBuild:
		return "Feature Build Error"
	case errors.CategoryValidation:
		return "Validation Error"
	case errors.CategoryFileIO:
		return "File I/O Error"
	case errors.CategoryNetwork:
		return "Network Error"
	case errors.CategoryHTTP:
		return "HTTP Error"
	case errors.CategoryConfiguration:
		return "Configuration Error"
	case errors.CategoryCache:
		return "Cache Error"
	case errors.CategorySystem:
		return "System Error"
	case errors.CategoryTimeout:
		return "Timeout"
	case errors.CategoryGeneric:
		return ""
	default:
		return string(category)
	}
}

// operationTitle converts an operation context value like
// "load-regressor" to "Load Regressor".
func operationTitle(operation string) string {
	operation = strings.ReplaceAll(operation, "_", " ")
	operation = strings.ReplaceAll(operation, "-", " ")
	words := strings.Fields(operation)
	for i, word := range words {
		words[i] = titleCase(word)
	}
	return strings.Join(words, " ")
}

// titleCase capitalizes the first letter of a string.
func titleCase(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// categoryLevel returns the Sentry level for an error category.
func categoryLevel(category errors.ErrorCategory) sentry.Level {
	switch category {
	case errors.CategoryMissingFields, errors.CategoryInvalidDate,
		errors.CategoryMissingPrediction, errors.CategoryMissingOutcome:
		return sentry.LevelWarning // caller input, not an engine fault
	case errors.CategoryNetwork, errors.CategoryHTTP, errors.CategoryTimeout:
		return sentry.LevelWarning // often transient
	case errors.CategoryFileIO, errors.CategoryCache:
		return sentry.LevelWarning
	case errors.CategoryCancellation:
		return sentry.LevelInfo
	default:
		return sentry.LevelError
	}
}
