// config.go: settings struct and functions to load and save the ShowGrid-Go configuration.
package conf

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yaml
var configFiles embed.FS

// LogConfig contains settings for a rotated log file.
type LogConfig struct {
	Enabled     bool         // true to enable this log
	Path        string       // path to log file
	Rotation    RotationType // rotation type: daily, weekly or size
	MaxSize     int64        // max size in bytes for size rotation
	RotationDay time.Weekday `yaml:"rotationday"` // day of the week for weekly rotation
}

// RotationType defines different types of log rotations.
type RotationType string

const (
	RotationDaily  RotationType = "daily"
	RotationWeekly RotationType = "weekly"
	RotationSize   RotationType = "size"
)

// MainSettings contains general application settings.
type MainSettings struct {
	Name string    // name of this node, used for identification in logs
	Log  LogConfig // main log file settings
}

// SQLiteSettings contains SQLite output settings.
type SQLiteSettings struct {
	Enabled bool   // true to enable SQLite output
	Path    string // path to the SQLite database file
}

// MySQLSettings contains MySQL output settings.
type MySQLSettings struct {
	Enabled  bool   // true to enable MySQL output
	Username string // MySQL username
	Password string // MySQL password
	Database string // MySQL database name
	Host     string // MySQL host
	Port     string // MySQL port
}

// OutputSettings selects the backing record store.
type OutputSettings struct {
	SQLite SQLiteSettings // SQLite output settings
	MySQL  MySQLSettings  // MySQL output settings
}

// GeocodingSettings configures the outbound geocoding client.
type GeocodingSettings struct {
	Enabled  bool          // true to enable address geocoding for venues
	Endpoint string        // base URL of the Nominatim-compatible service
	Email    string        // contact email sent with requests, required by some providers
	Timeout  time.Duration // request timeout
	CacheTTL time.Duration `yaml:"cachettl"` // how long geocoding results are cached
}

// TimezoneSettings configures the coordinate-to-timezone lookup client.
type TimezoneSettings struct {
	Enabled  bool          // true to enable timezone derivation for venues
	Endpoint string        // base URL of the timezone lookup service
	Timeout  time.Duration // request timeout
}

// ImportSettings contains knobs for the upsert engine.
type ImportSettings struct {
	Debug          bool    // true to enable verbose matcher/merge logging
	TimeWindow     float64 `yaml:"timewindow"` // hours of tolerance for same-show time variance
	DefaultCountry string  `yaml:"defaultcountry"` // country assumed when venue payloads omit one
}

// Settings is the top level configuration struct.
type Settings struct {
	Debug bool // true to enable debug mode

	Main      MainSettings
	Output    OutputSettings
	Geocoding GeocodingSettings
	Timezone  TimezoneSettings
	Import    ImportSettings
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into Settings.
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

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
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

	// Defaults are defined in defaults.go
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

// createDefaultConfig creates a default config file and writes it to the default config path.
func createDefaultConfig() error {
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	configPath := filepath.Join(configPaths[0], "config.yaml")

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(getDefaultConfig()), 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	fmt.Println("Created default config file at:", configPath)
	return viper.ReadInConfig()
}

// getDefaultConfig reads the default configuration from the embedded config.yaml file.
func getDefaultConfig() string {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		log.Fatalf("Error reading embedded config file: %v", err)
	}
	return string(data)
}

// GetSettings returns the current settings instance, or nil if Load has not run.
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// Setting returns the current settings instance, loading it if necessary.
func Setting() *Settings {
	settingsMutex.RLock()
	loaded := settingsInstance != nil
	settingsMutex.RUnlock()

	if !loaded {
		if _, err := Load(); err != nil {
			log.Fatalf("Error loading settings: %v", err)
		}
	}
	return GetSettings()
}

// SetTestSettings replaces the global settings instance. Tests only.
func SetTestSettings(s *Settings) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()
	settingsInstance = s
}
