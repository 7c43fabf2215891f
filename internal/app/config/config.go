package config

import "path/filepath"

// Config provides read-only access to application configuration.
// This interface abstracts the configuration source (YAML, ENV, defaults)
// and ensures the app layer doesn't depend on infrastructure details.
type Config interface {
	Home() string     // Base directory for planday (PLANDAY_HOME)
	DBPath() string   // SQLite database path (PLANDAY_DB)
	PlansDir() string // Directory exported day plans are written to
	UserID() string   // Active user (PLANDAY_USER)
	LogLevel() string // Stderr log level (PLANDAY_LOG_LEVEL)

	HorizonDays() int // How far ahead recurring instances are generated

	// Metadata
	ConfigSource() string // Source of configuration: "yaml", "env", or "default"
	SettingPath() string  // Path to setting.yml if loaded from file
}

// AppConfig is the concrete implementation of Config.
// It holds configuration values merged from all sources.
type AppConfig struct {
	home     string
	dbPath   string
	userID   string
	logLevel string

	horizonDays int

	configSource string
	settingPath  string
}

// Home returns the base directory for planday
func (c *AppConfig) Home() string {
	return c.home
}

// DBPath returns the SQLite database path
func (c *AppConfig) DBPath() string {
	return c.dbPath
}

// PlansDir returns the directory exported day plans are written to
func (c *AppConfig) PlansDir() string {
	return filepath.Join(c.home, "plans")
}

// UserID returns the active user
func (c *AppConfig) UserID() string {
	return c.userID
}

// LogLevel returns the stderr log level
func (c *AppConfig) LogLevel() string {
	return c.logLevel
}

// HorizonDays returns how far ahead recurring instances are generated
func (c *AppConfig) HorizonDays() int {
	return c.horizonDays
}

// ConfigSource returns the source of configuration
func (c *AppConfig) ConfigSource() string {
	return c.configSource
}

// SettingPath returns the path to setting.yml if loaded from file
func (c *AppConfig) SettingPath() string {
	return c.settingPath
}

// NewAppConfig creates a new AppConfig with the given values.
// This is typically called by the infrastructure layer after loading
// and merging configurations.
func NewAppConfig(
	home, dbPath, userID, logLevel string,
	horizonDays int,
	configSource, settingPath string,
) *AppConfig {
	return &AppConfig{
		home:         home,
		dbPath:       dbPath,
		userID:       userID,
		logLevel:     logLevel,
		horizonDays:  horizonDays,
		configSource: configSource,
		settingPath:  settingPath,
	}
}
