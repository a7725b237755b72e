// defaults.go default values for viper config
package conf

import (
	"github.com/spf13/viper"
)

// setDefaultConfig sets the default values for the viper configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	// Main configuration
	viper.SetDefault("main.name", "FloraCast-Go")
	viper.SetDefault("main.timeas24h", true)
	viper.SetDefault("main.log.enabled", false)
	viper.SetDefault("main.log.path", "floracast.log")
	viper.SetDefault("main.log.rotation", RotationDaily)
	viper.SetDefault("main.log.maxsize", 10*1024*1024)
	viper.SetDefault("main.log.rotationday", "Sunday")

	// Forecast core configuration
	viper.SetDefault("forecast.debug", false)
	viper.SetDefault("forecast.domains.polinizacion.artifactdir", "models/polinizacion")
	viper.SetDefault("forecast.domains.polinizacion.syncurl", "")
	viper.SetDefault("forecast.domains.germinacion.artifactdir", "models/germinacion")
	viper.SetDefault("forecast.domains.germinacion.syncurl", "")

	// Confidence policy. The clamp band and penalties are deployment policy,
	// configurable independently of the trained artifacts.
	viper.SetDefault("forecast.confidence.base", 85.0)
	viper.SetDefault("forecast.confidence.penalty", 5.0)
	viper.SetDefault("forecast.confidence.floor", 40.0)
	viper.SetDefault("forecast.confidence.ceiling", 95.0)
	viper.SetDefault("forecast.confidence.initialbase", 40.0)

	// Validation precision policy
	viper.SetDefault("forecast.precision.scalefactor", 2.0)

	// Prediction result cache
	viper.SetDefault("forecast.cache.enabled", true)
	viper.SetDefault("forecast.cache.ttl", "1h")

	// Artifact watcher
	viper.SetDefault("forecast.watcher.enabled", false)

	// Batch processing, 0 workers means derive from CPU topology
	viper.SetDefault("forecast.batch.workers", 0)

	// Heuristic baselines, empty means use embedded table
	viper.SetDefault("forecast.baselinesfile", "")

	// Telemetry configuration (opt-in)
	viper.SetDefault("telemetry.enabled", false)
	viper.SetDefault("telemetry.dsn", "")
	viper.SetDefault("telemetry.dsnfile", "")
	viper.SetDefault("telemetry.debug", false)

	// Prometheus metrics endpoint
	viper.SetDefault("metrics.enabled", false)
	viper.SetDefault("metrics.listen", "localhost:8090")

	// Output configuration
	viper.SetDefault("output.file.enabled", true)
	viper.SetDefault("output.file.path", "output/")
	viper.SetDefault("output.file.type", "table")
}
