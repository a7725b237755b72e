package artifact

import (
	"strings"
	"testing"
)

func TestParseMetadata(t *testing.T) {
	t.Parallel()

	m, err := ParseMetadata([]byte(testMetadataJSON("2.3.0")))
	if err != nil {
		t.Fatalf("ParseMetadata: %v", err)
	}

	if m.ModelVersion != "2.3.0" {
		t.Errorf("ModelVersion = %q, want 2.3.0", m.ModelVersion)
	}
	if len(m.FeatureList) != 3 {
		t.Fatalf("FeatureList has %d entries, want 3", len(m.FeatureList))
	}
	if !m.IsCategorical("especie") {
		t.Error("IsCategorical(especie) = false, want true")
	}
	if m.IsCategorical("cantidad") {
		t.Error("IsCategorical(cantidad) = true, want false")
	}
	if !m.IsRequired("fecha_polinizacion") {
		t.Error("IsRequired(fecha_polinizacion) = false, want true")
	}

	idx, ok := m.FeatureIndex("especie_encoded")
	if !ok || idx != 2 {
		t.Errorf("FeatureIndex(especie_encoded) = (%d, %v), want (2, true)", idx, ok)
	}
	if _, ok := m.FeatureIndex("inexistente"); ok {
		t.Error("FeatureIndex(inexistente) reported found")
	}
}

func TestParseMetadataRejectsBadManifests(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    string
		wantMsg string
	}{
		{"not json", `"feature_list"`, "invalid metadata JSON"},
		{"empty feature list", `{"feature_list": [], "model_version": "1"}`, "feature_list is empty"},
		{"missing version", `{"feature_list": ["a"]}`, "model_version is empty"},
		{"duplicate feature", `{"feature_list": ["a", "b", "a"], "model_version": "1"}`, "duplicate feature"},
		{"empty feature name", `{"feature_list": ["a", ""], "model_version": "1"}`, "empty name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseMetadata([]byte(tt.data))
			if err == nil {
				t.Fatal("expected parse error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.wantMsg)
			}
		})
	}
}
