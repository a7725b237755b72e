// config.go: settings struct and functions to load and save FloraCast-Go configuration.
package conf

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mgarzon/floracast-go/internal/secrets"
)

//go:embed config.yaml
var configFiles embed.FS

// DomainConfig holds per-domain artifact settings. Each prediction domain
// (pollination, germination) carries an independently versioned artifact set.
type DomainConfig struct {
	ArtifactDir string // directory containing regressor.json, encoders.json, metadata.json
	SyncURL     string // optional base URL for artifact sync, empty to disable
}

// ConfidencePolicy holds the confidence scoring constants for model predictions.
// The clamp band is policy, not a property of the trained model.
type ConfidencePolicy struct {
	Base        float64 // starting confidence for a model-based prediction
	Penalty     float64 // subtracted per out-of-vocabulary category
	Floor       float64 // lower clamp bound
	Ceiling     float64 // upper clamp bound
	InitialBase float64 // confidence assigned to heuristic (initial) predictions
}

// PrecisionPolicy controls validation scoring.
type PrecisionPolicy struct {
	ScaleFactor float64 // precision percent lost per day of difference
}

// CacheSettings configures the prediction result cache.
type CacheSettings struct {
	Enabled bool          // true to memoize prediction results
	TTL     time.Duration // entry lifetime, e.g. 1h
}

// WatcherSettings configures artifact directory watching.
type WatcherSettings struct {
	Enabled bool // true to reload artifacts when files change on disk
}

// BatchSettings configures batch prediction processing.
type BatchSettings struct {
	Workers int // worker pool size, 0 to derive from CPU topology
}

// ForecastConfig contains all settings for the forecasting core.
type ForecastConfig struct {
	Debug         bool                    // true to enable debug logging in the forecast engine
	Domains       map[string]DomainConfig // prediction domains keyed by name
	Confidence    ConfidencePolicy        // confidence scoring policy
	Precision     PrecisionPolicy         // validation precision policy
	Cache         CacheSettings           // result cache settings
	Watcher       WatcherSettings         // artifact watcher settings
	Batch         BatchSettings           // batch processing settings
	BaselinesFile string                  // optional external heuristic baselines file, empty for embedded
}

// TelemetrySettings contains settings for optional error telemetry.
type TelemetrySettings struct {
	Enabled bool   // true to enable Sentry error telemetry (opt-in)
	DSN     string // Sentry DSN, supports ${VAR} environment references
	DSNFile string // path to a mounted secret file holding the DSN, wins over DSN
	Debug   bool   // true to enable telemetry debug mode
}

// MetricsSettings contains settings for the Prometheus metrics endpoint.
type MetricsSettings struct {
	Enabled bool   // true to expose Prometheus metrics over HTTP
	Listen  string // listen address for the metrics endpoint
}

// Settings contains all configuration options for the FloraCast-Go application.
type Settings struct {
	Debug bool // true to enable debug mode

	// Runtime values, not stored in config file
	Version   string `yaml:"-"` // Version from build
	BuildDate string `yaml:"-"` // Build date from build
	SystemID  string `yaml:"-"` // Anonymous installation identifier for telemetry

	Main struct {
		Name      string    // name of this FloraCast-Go node, used to identify result sources
		TimeAs24h bool      // true 24-hour time format, false 12-hour time format
		Log       LogConfig // logging configuration
	}

	Forecast ForecastConfig // forecasting core configuration

	Telemetry TelemetrySettings // telemetry configuration

	Metrics MetricsSettings // Prometheus metrics endpoint configuration

	Output struct {
		File struct {
			Enabled bool   `yaml:"-"` // true to enable file output
			Path    string `yaml:"-"` // directory to output results
			Type    string `yaml:"-"` // table, csv or json
		}
	}
}

// LogConfig defines the configuration for a log file
type LogConfig struct {
	Enabled     bool         // true to enable this log
	Path        string       // Path to the log file
	Rotation    RotationType // Type of log rotation
	MaxSize     int64        // Max size in bytes for RotationSize
	RotationDay string       // Day of the week for RotationWeekly ("Sunday", "Monday", ...)
}

// RotationType defines different types of log rotations.
type RotationType string

const (
	RotationDaily  RotationType = "daily"
	RotationWeekly RotationType = "weekly"
	RotationSize   RotationType = "size"
)

// Default domain names. Artifact sets for other domains may be configured
// freely; these two ship in the default config.
const (
	DomainPollination = "polinizacion"
	DomainGermination = "germinacion"
)

// settingsInstance is the current settings instance
var (
	settingsInstance *Settings
	once             sync.Once
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into the settings struct.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := resolveSecrets(settings); err != nil {
		return nil, fmt.Errorf("error resolving config secrets: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// resolveSecrets expands environment references in credential-bearing
// settings so tokens and DSNs can stay out of the config file. Sync
// URLs may carry access tokens in their query strings.
func resolveSecrets(settings *Settings) error {
	dsn, err := secrets.Resolve(settings.Telemetry.DSNFile, settings.Telemetry.DSN)
	if err != nil {
		return fmt.Errorf("telemetry dsn: %w", err)
	}
	settings.Telemetry.DSN = dsn

	for name, dc := range settings.Forecast.Domains {
		expanded, err := secrets.ExpandString(dc.SyncURL)
		if err != nil {
			return fmt.Errorf("domain %s sync url: %w", name, err)
		}
		dc.SyncURL = expanded
		settings.Forecast.Domains[name] = dc
	}

	return nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}

	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	// Set default values for each configuration parameter, defined in defaults.go
	setDefaultConfig()

	err = viper.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// Config file not found, create config with defaults
			return createDefaultConfig()
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// createDefaultConfig creates a default config file and writes it to the default config path
func createDefaultConfig() error {
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	configPath := filepath.Join(configPaths[0], "config.yaml")
	defaultConfig := getDefaultConfig()

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	fmt.Println("Created default config file at:", configPath)
	return viper.ReadInConfig()
}

// getDefaultConfig reads the default configuration from the embedded config.yaml file.
func getDefaultConfig() string {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		log.Fatalf("Error reading config file: %v", err)
	}
	return string(data)
}

// GetSettings returns the current settings instance
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// Setting returns the current settings instance, initializing it if necessary
func Setting() *Settings {
	once.Do(func() {
		if settingsInstance == nil {
			_, err := Load()
			if err != nil {
				log.Fatalf("Error loading settings: %v", err)
			}
		}
	})
	return GetSettings()
}

// SaveSettings saves the current settings to the configuration file.
// It uses SaveYAMLConfig to handle the atomic write process.
func SaveSettings() error {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()

	settingsCopy := *settingsInstance

	configPath, err := FindConfigFile()
	if err != nil {
		return fmt.Errorf("error finding config file: %w", err)
	}

	if err := SaveYAMLConfig(configPath, &settingsCopy); err != nil {
		return fmt.Errorf("error saving config: %w", err)
	}

	log.Printf("Settings saved successfully to %s", configPath)
	return nil
}

// SaveYAMLConfig updates the YAML configuration file with new settings.
// It overwrites the existing file, not preserving comments or structure.
func SaveYAMLConfig(configPath string, settings *Settings) error {
	yamlData, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings to YAML: %w", err)
	}

	// Write to a temporary file first to get an atomic replace
	tempFile, err := os.CreateTemp(filepath.Dir(configPath), "config-*.yaml")
	if err != nil {
		return fmt.Errorf("error creating temporary file: %w", err)
	}
	tempFileName := tempFile.Name()
	defer os.Remove(tempFileName)

	if _, err := tempFile.Write(yamlData); err != nil {
		tempFile.Close()
		return fmt.Errorf("error writing to temporary file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("error closing temporary file: %w", err)
	}

	// Rename is atomic on most filesystems; fall back to copy & delete when the
	// temp directory sits on a different filesystem.
	if err := os.Rename(tempFileName, configPath); err != nil {
		if err := moveFile(tempFileName, configPath); err != nil {
			return fmt.Errorf("error copying config file: %w", err)
		}
	}

	return nil
}

// Domain returns the configuration for a named prediction domain.
func (s *Settings) Domain(name string) (DomainConfig, bool) {
	dc, ok := s.Forecast.Domains[name]
	return dc, ok
}

// DomainNames returns the configured domain names in deterministic order,
// default domains first.
func (s *Settings) DomainNames() []string {
	names := make([]string, 0, len(s.Forecast.Domains))
	for _, preferred := range []string{DomainPollination, DomainGermination} {
		if _, ok := s.Forecast.Domains[preferred]; ok {
			names = append(names, preferred)
		}
	}
	var rest []string
	for name := range s.Forecast.Domains {
		if name == DomainPollination || name == DomainGermination {
			continue
		}
		rest = append(rest, name)
	}
	slices.Sort(rest)
	return append(names, rest...)
}
