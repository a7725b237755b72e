package conf

import (
	"strings"
	"testing"
	"time"
)

// validSettings returns a settings struct that passes validation, for tests
// to mutate into invalid shapes.
func validSettings() *Settings {
	s := &Settings{}
	s.Main.Name = "FloraCast-Go"
	s.Forecast = ForecastConfig{
		Domains: map[string]DomainConfig{
			DomainPollination: {ArtifactDir: "models/polinizacion"},
			DomainGermination: {ArtifactDir: "models/germinacion"},
		},
		Confidence: ConfidencePolicy{
			Base:        85,
			Penalty:     5,
			Floor:       40,
			Ceiling:     95,
			InitialBase: 40,
		},
		Precision: PrecisionPolicy{ScaleFactor: 2.0},
		Cache:     CacheSettings{Enabled: true, TTL: time.Hour},
	}
	return s
}

func TestValidateSettingsValid(t *testing.T) {
	t.Parallel()

	if err := ValidateSettings(validSettings()); err != nil {
		t.Fatalf("expected valid settings to pass, got %v", err)
	}
}

func TestValidateSettingsCollectsAllErrors(t *testing.T) {
	t.Parallel()

	s := validSettings()
	s.Main.Name = ""
	s.Forecast.Confidence.Floor = 80
	s.Forecast.Confidence.Ceiling = 50
	s.Forecast.Precision.ScaleFactor = 0

	err := ValidateSettings(s)
	if err == nil {
		t.Fatal("expected validation error")
	}

	ve, ok := err.(ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if len(ve.Errors) != 3 {
		t.Errorf("expected 3 errors collected, got %d: %v", len(ve.Errors), ve.Errors)
	}
}

func TestValidateSettingsInvalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantMsg string
	}{
		{
			name:    "no domains",
			mutate:  func(s *Settings) { s.Forecast.Domains = nil },
			wantMsg: "at least one prediction domain",
		},
		{
			name: "domain without artifact dir",
			mutate: func(s *Settings) {
				s.Forecast.Domains[DomainPollination] = DomainConfig{}
			},
			wantMsg: "artifactdir cannot be empty",
		},
		{
			name:    "confidence base out of range",
			mutate:  func(s *Settings) { s.Forecast.Confidence.Base = 120 },
			wantMsg: "confidence.base",
		},
		{
			name:    "negative penalty",
			mutate:  func(s *Settings) { s.Forecast.Confidence.Penalty = -1 },
			wantMsg: "penalty cannot be negative",
		},
		{
			name:    "floor above ceiling",
			mutate:  func(s *Settings) { s.Forecast.Confidence.Floor = 96 },
			wantMsg: "cannot exceed ceiling",
		},
		{
			name:    "zero scale factor",
			mutate:  func(s *Settings) { s.Forecast.Precision.ScaleFactor = 0 },
			wantMsg: "scalefactor must be positive",
		},
		{
			name:    "cache enabled without ttl",
			mutate:  func(s *Settings) { s.Forecast.Cache.TTL = 0 },
			wantMsg: "cache.ttl must be positive",
		},
		{
			name:    "negative batch workers",
			mutate:  func(s *Settings) { s.Forecast.Batch.Workers = -2 },
			wantMsg: "workers cannot be negative",
		},
		{
			name: "telemetry enabled without dsn",
			mutate: func(s *Settings) {
				s.Telemetry.Enabled = true
				s.Telemetry.DSN = ""
			},
			wantMsg: "telemetry.dsn is required",
		},
		{
			name: "size rotation without max size",
			mutate: func(s *Settings) {
				s.Main.Log.Enabled = true
				s.Main.Log.Path = "floracast.log"
				s.Main.Log.Rotation = RotationSize
				s.Main.Log.MaxSize = 0
			},
			wantMsg: "maxsize must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := validSettings()
			tt.mutate(s)

			err := ValidateSettings(s)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestDomainNamesDeterministicOrder(t *testing.T) {
	t.Parallel()

	s := validSettings()
	s.Forecast.Domains["floracion"] = DomainConfig{ArtifactDir: "models/floracion"}
	s.Forecast.Domains["injerto"] = DomainConfig{ArtifactDir: "models/injerto"}

	want := []string{DomainPollination, DomainGermination, "floracion", "injerto"}
	for range 10 {
		got := s.DomainNames()
		if len(got) != len(want) {
			t.Fatalf("DomainNames() = %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("DomainNames()[%d] = %q, want %q", i, got[i], want[i])
			}
		}
	}
}

func TestDomainLookup(t *testing.T) {
	t.Parallel()

	s := validSettings()
	dc, ok := s.Domain(DomainGermination)
	if !ok {
		t.Fatal("expected germination domain to exist")
	}
	if dc.ArtifactDir != "models/germinacion" {
		t.Errorf("ArtifactDir = %q, want models/germinacion", dc.ArtifactDir)
	}

	if _, ok := s.Domain("desconocido"); ok {
		t.Error("expected unknown domain lookup to report not found")
	}
}
