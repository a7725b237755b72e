package conf

import (
	"testing"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// TestEmbeddedDefaultConfigParses verifies the embedded config.yaml is valid
// YAML and carries the sections Load expects.
func TestEmbeddedDefaultConfigParses(t *testing.T) {
	data := getDefaultConfig()
	if data == "" {
		t.Fatal("embedded config is empty")
	}

	var doc map[string]any
	if err := yaml.Unmarshal([]byte(data), &doc); err != nil {
		t.Fatalf("embedded config does not parse: %v", err)
	}

	for _, section := range []string{"main", "forecast", "telemetry", "output"} {
		if _, ok := doc[section]; !ok {
			t.Errorf("embedded config missing %q section", section)
		}
	}
}

// TestDefaultsProduceValidSettings loads viper defaults into a Settings struct
// and checks the result passes validation without a config file present.
func TestDefaultsProduceValidSettings(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	setDefaultConfig()

	var s Settings
	if err := viper.Unmarshal(&s); err != nil {
		t.Fatalf("unmarshal defaults: %v", err)
	}

	if err := ValidateSettings(&s); err != nil {
		t.Fatalf("default settings fail validation: %v", err)
	}

	if s.Main.Name != "FloraCast-Go" {
		t.Errorf("Main.Name = %q, want FloraCast-Go", s.Main.Name)
	}
	if got := s.Forecast.Confidence.Base; got != 85 {
		t.Errorf("Confidence.Base = %g, want 85", got)
	}
	if _, ok := s.Forecast.Domains[DomainPollination]; !ok {
		t.Error("default domains missing polinizacion")
	}
	if _, ok := s.Forecast.Domains[DomainGermination]; !ok {
		t.Error("default domains missing germinacion")
	}
	if s.Forecast.Cache.TTL <= 0 {
		t.Errorf("Cache.TTL = %v, want positive duration", s.Forecast.Cache.TTL)
	}
}

// TestResolveSecrets checks environment expansion of the telemetry DSN
// and the domain sync URLs.
func TestResolveSecrets(t *testing.T) {
	t.Setenv("FLORACAST_TEST_DSN", "https://key@sentry.example.com/7")
	t.Setenv("FLORACAST_TEST_SYNC_TOKEN", "tok-abc")

	s := &Settings{}
	s.Telemetry.DSN = "${FLORACAST_TEST_DSN}"
	s.Forecast.Domains = map[string]DomainConfig{
		DomainPollination: {
			ArtifactDir: "models/polinizacion",
			SyncURL:     "https://models.example.com/exports?token=${FLORACAST_TEST_SYNC_TOKEN}",
		},
		DomainGermination: {
			ArtifactDir: "models/germinacion",
			SyncURL:     "",
		},
	}

	if err := resolveSecrets(s); err != nil {
		t.Fatalf("resolveSecrets: %v", err)
	}

	if got := s.Telemetry.DSN; got != "https://key@sentry.example.com/7" {
		t.Errorf("Telemetry.DSN = %q, want expanded DSN", got)
	}
	if got := s.Forecast.Domains[DomainPollination].SyncURL; got != "https://models.example.com/exports?token=tok-abc" {
		t.Errorf("SyncURL = %q, want expanded token", got)
	}
	if got := s.Forecast.Domains[DomainGermination].SyncURL; got != "" {
		t.Errorf("empty SyncURL should stay empty, got %q", got)
	}
}

// TestResolveSecretsMissingVariable checks a dangling reference fails Load
// instead of half-expanding.
func TestResolveSecretsMissingVariable(t *testing.T) {
	s := &Settings{}
	s.Telemetry.DSN = "${FLORACAST_TEST_UNSET_DSN}"
	s.Forecast.Domains = map[string]DomainConfig{}

	if err := resolveSecrets(s); err == nil {
		t.Fatal("expected error for unset environment variable")
	}
}
