// Package config loads application settings from setting.yml,
// environment variables, and built-in defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/planday/planday/internal/app/config"
)

// RawSettings mirrors the structure of setting.yml. Pointer fields
// distinguish "unset" from zero values so defaults only fill gaps.
type RawSettings struct {
	Home        *string `yaml:"home"`
	DBPath      *string `yaml:"db_path"`
	UserID      *string `yaml:"user_id"`
	LogLevel    *string `yaml:"log_level"`
	HorizonDays *int    `yaml:"horizon_days"`
}

// LoadSettings loads configuration for the given base directory.
// Priority: environment > setting.yml > defaults.
func LoadSettings(baseDir string) (*config.AppConfig, error) {
	if baseDir == "" {
		baseDir = defaultHome()
	}

	settings := &RawSettings{}
	configSource := "default"
	settingPath := ""

	yamlPath := filepath.Join(baseDir, "setting.yml")
	if data, err := os.ReadFile(yamlPath); err == nil {
		if err := yaml.Unmarshal(data, settings); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", yamlPath, err)
		}
		configSource = "yaml"
		settingPath = yamlPath
	}

	if applyEnvOverrides(settings) {
		configSource = "env"
	}

	applyDefaults(settings, baseDir)

	return buildAppConfig(settings, configSource, settingPath), nil
}

// defaultHome resolves ~/.planday, falling back to a relative
// directory when the home directory cannot be determined.
func defaultHome() string {
	if v := os.Getenv("PLANDAY_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".planday"
	}
	return filepath.Join(home, ".planday")
}

func applyEnvOverrides(settings *RawSettings) bool {
	overridden := false
	if v := os.Getenv("PLANDAY_HOME"); v != "" {
		settings.Home = &v
		overridden = true
	}
	if v := os.Getenv("PLANDAY_DB"); v != "" {
		settings.DBPath = &v
		overridden = true
	}
	if v := os.Getenv("PLANDAY_USER"); v != "" {
		settings.UserID = &v
		overridden = true
	}
	if v := os.Getenv("PLANDAY_LOG_LEVEL"); v != "" {
		settings.LogLevel = &v
		overridden = true
	}
	if v := os.Getenv("PLANDAY_HORIZON_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			settings.HorizonDays = &n
			overridden = true
		}
	}
	return overridden
}

// applyDefaults fills in default values for any nil fields
func applyDefaults(settings *RawSettings, baseDir string) {
	if settings.Home == nil {
		settings.Home = &baseDir
	}
	if settings.DBPath == nil {
		v := filepath.Join(*settings.Home, "planday.db")
		settings.DBPath = &v
	}
	if settings.UserID == nil {
		v := "local"
		settings.UserID = &v
	}
	if settings.LogLevel == nil {
		v := "info"
		settings.LogLevel = &v
	}
	if settings.HorizonDays == nil {
		v := 90
		settings.HorizonDays = &v
	}
}

func buildAppConfig(settings *RawSettings, configSource, settingPath string) *config.AppConfig {
	return config.NewAppConfig(
		*settings.Home,
		*settings.DBPath,
		*settings.UserID,
		*settings.LogLevel,
		*settings.HorizonDays,
		configSource,
		settingPath,
	)
}

// CreateDefaultSettings writes a commented setting.yml with defaults
// to the given directory. Existing files are left untouched.
func CreateDefaultSettings(baseDir string) error {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	yamlPath := filepath.Join(baseDir, "setting.yml")
	if _, err := os.Stat(yamlPath); err == nil {
		return nil
	}

	content := `# planday configuration
# Values here are overridden by PLANDAY_* environment variables.

# db_path: ` + filepath.Join(baseDir, "planday.db") + `
# user_id: local
# log_level: info
# horizon_days: 90
`
	return os.WriteFile(yamlPath, []byte(content), 0644)
}
