package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestFastPathNoTelemetry(t *testing.T) {
	SetTelemetryReporter(nil)

	// Create an error - should use fast path
	err := fmt.Errorf("test error")
	ee := New(err).Build()

	if ee.Err.Error() != "test error" {
		t.Errorf("Expected error message 'test error', got '%s'", ee.Err.Error())
	}

	if ee.GetComponent() != "unknown" {
		t.Errorf("Expected component 'unknown' in fast path, got '%s'", ee.GetComponent())
	}

	if ee.Category != CategoryGeneric {
		t.Errorf("Expected category 'generic' in fast path, got '%s'", ee.Category)
	}
}

func TestBuilderSetsCategoryAndComponent(t *testing.T) {
	t.Parallel()

	ee := Newf("encoders file %s is empty", "encoders.json").
		Component("artifact").
		Category(CategoryArtifactCorrupt).
		Context("domain", "polinizacion").
		Build()

	if ee.GetComponent() != "artifact" {
		t.Errorf("Expected component 'artifact', got '%s'", ee.GetComponent())
	}
	if ee.Category != CategoryArtifactCorrupt {
		t.Errorf("Expected category artifact-corrupt, got '%s'", ee.Category)
	}
	ctx := ee.GetContext()
	if ctx["domain"] != "polinizacion" {
		t.Errorf("Expected domain context 'polinizacion', got %v", ctx["domain"])
	}
}

func TestIsCategoryMatchesThroughWrapping(t *testing.T) {
	t.Parallel()

	inner := New(NewStd("metadata.json not found")).
		Category(CategoryArtifactMissing).
		Build()
	wrapped := fmt.Errorf("loading pollination artifacts: %w", inner)

	if !IsCategory(wrapped, CategoryArtifactMissing) {
		t.Error("Expected wrapped error to match CategoryArtifactMissing")
	}
	if !IsArtifactMissing(wrapped) {
		t.Error("IsArtifactMissing should match through fmt.Errorf wrapping")
	}
	if IsArtifactCorrupt(wrapped) {
		t.Error("IsArtifactCorrupt must not match an artifact-missing error")
	}
}

func TestEnhancedErrorUnwrap(t *testing.T) {
	t.Parallel()

	sentinel := NewStd("boom")
	ee := New(sentinel).Category(CategoryFileIO).Build()

	if !Is(ee, sentinel) {
		t.Error("errors.Is should find the original error through EnhancedError")
	}
	if Unwrap(ee) != sentinel {
		t.Error("Unwrap should return the original error")
	}
}

func TestContextCopyIsIsolated(t *testing.T) {
	t.Parallel()

	ee := New(NewStd("x")).Context("key", "value").Build()
	ctx := ee.GetContext()
	ctx["key"] = "mutated"

	if ee.GetContext()["key"] != "value" {
		t.Error("GetContext must return a copy, not the internal map")
	}
}

func TestArtifactContextCategorization(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path string
		want string
	}{
		{"regressor file", "/models/polinizacion/regressor.json", "regressor"},
		{"encoders file", "encoders.json", "encoders"},
		{"metadata file", "/opt/floracast/metadata.json", "metadata"},
		{"unknown file", "something.bin", "custom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ee := New(NewStd("x")).ArtifactContext(tt.path, "germinacion").Build()
			if got := ee.GetContext()["artifact_kind"]; got != tt.want {
				t.Errorf("artifact_kind = %v, want %s", got, tt.want)
			}
			if got := ee.GetContext()["domain"]; got != "germinacion" {
				t.Errorf("domain = %v, want germinacion", got)
			}
		})
	}
}

func TestBasicScrub(t *testing.T) {
	t.Parallel()

	scrubbed := ScrubMessage("fetch https://models.example.com/v1?api_key=secret123 failed")
	if strings.Contains(scrubbed, "secret123") {
		t.Errorf("sensitive query data still present: %s", scrubbed)
	}

	scrubbed = ScrubMessage("token=abc123 rejected")
	if strings.Contains(scrubbed, "abc123") {
		t.Errorf("token still present: %s", scrubbed)
	}

	scrubbed = ScrubMessage("cache key 0123456789abcdef0123456789abcdef collision")
	if strings.Contains(scrubbed, "0123456789abcdef0123456789abcdef") {
		t.Errorf("long hex digest still present: %s", scrubbed)
	}
}

func TestCategorizeFileSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		size int64
		want string
	}{
		{512, "tiny"},
		{500 * 1024, "small"},
		{5 * 1024 * 1024, "medium"},
		{50 * 1024 * 1024, "large"},
		{500 * 1024 * 1024, "very-large"},
	}
	for _, tt := range tests {
		if got := categorizeFileSize(tt.size); got != tt.want {
			t.Errorf("categorizeFileSize(%d) = %s, want %s", tt.size, got, tt.want)
		}
	}
}
