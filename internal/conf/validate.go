// validate.go - configuration validation logic
package conf

import (
	"fmt"
	"strings"
)

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

func (ve ValidationError) Error() string {
	return fmt.Sprintf("validation errors: %s", strings.Join(ve.Errors, "; "))
}

// ValidateSettings validates the settings struct and returns a ValidationError
// carrying every problem found, so the user can fix the config in one pass.
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	validateMainSettings(&settings.Main, &ve)
	validateForecastSettings(&settings.Forecast, &ve)
	validateTelemetrySettings(&settings.Telemetry, &ve)

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateMainSettings(main *struct {
	Name      string
	TimeAs24h bool
	Log       LogConfig
}, ve *ValidationError,
) {
	if main.Name == "" {
		ve.Errors = append(ve.Errors, "main.name cannot be empty")
	}
	if main.Log.Enabled {
		if main.Log.Path == "" {
			ve.Errors = append(ve.Errors, "main.log.path cannot be empty when logging is enabled")
		}
		switch main.Log.Rotation {
		case RotationDaily, RotationWeekly, RotationSize:
		default:
			ve.Errors = append(ve.Errors, fmt.Sprintf("main.log.rotation must be one of daily, weekly, size, got %q", main.Log.Rotation))
		}
		if main.Log.Rotation == RotationSize && main.Log.MaxSize <= 0 {
			ve.Errors = append(ve.Errors, "main.log.maxsize must be positive for size rotation")
		}
	}
}

func validateForecastSettings(forecast *ForecastConfig, ve *ValidationError) {
	if len(forecast.Domains) == 0 {
		ve.Errors = append(ve.Errors, "forecast.domains must declare at least one prediction domain")
	}
	for name, dc := range forecast.Domains {
		if name == "" {
			ve.Errors = append(ve.Errors, "forecast.domains contains an empty domain name")
			continue
		}
		if dc.ArtifactDir == "" {
			ve.Errors = append(ve.Errors, fmt.Sprintf("forecast.domains.%s.artifactdir cannot be empty", name))
		}
	}

	c := forecast.Confidence
	if c.Base < 0 || c.Base > 100 {
		ve.Errors = append(ve.Errors, fmt.Sprintf("forecast.confidence.base must be between 0 and 100, got %g", c.Base))
	}
	if c.InitialBase < 0 || c.InitialBase > 100 {
		ve.Errors = append(ve.Errors, fmt.Sprintf("forecast.confidence.initialbase must be between 0 and 100, got %g", c.InitialBase))
	}
	if c.Penalty < 0 {
		ve.Errors = append(ve.Errors, fmt.Sprintf("forecast.confidence.penalty cannot be negative, got %g", c.Penalty))
	}
	if c.Floor < 0 || c.Floor > 100 || c.Ceiling < 0 || c.Ceiling > 100 {
		ve.Errors = append(ve.Errors, "forecast.confidence floor and ceiling must be between 0 and 100")
	}
	if c.Floor > c.Ceiling {
		ve.Errors = append(ve.Errors, fmt.Sprintf("forecast.confidence.floor (%g) cannot exceed ceiling (%g)", c.Floor, c.Ceiling))
	}

	if forecast.Precision.ScaleFactor <= 0 {
		ve.Errors = append(ve.Errors, fmt.Sprintf("forecast.precision.scalefactor must be positive, got %g", forecast.Precision.ScaleFactor))
	}

	if forecast.Cache.Enabled && forecast.Cache.TTL <= 0 {
		ve.Errors = append(ve.Errors, "forecast.cache.ttl must be positive when cache is enabled")
	}

	if forecast.Batch.Workers < 0 {
		ve.Errors = append(ve.Errors, fmt.Sprintf("forecast.batch.workers cannot be negative, got %d", forecast.Batch.Workers))
	}
}

func validateTelemetrySettings(telemetry *TelemetrySettings, ve *ValidationError) {
	if telemetry.Enabled && telemetry.DSN == "" {
		ve.Errors = append(ve.Errors, "telemetry.dsn is required when telemetry is enabled")
	}
}
