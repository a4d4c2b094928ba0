// Package config loads cfu settings from config.yaml and CFU_* environment
// variables through a viper singleton.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// AppName names the per-user config directory.
const AppName = "contentful-utility-suite"

var v *viper.Viper

// Initialize sets up the viper singleton. The config file is taken from
// CFU_CONFIG when set, otherwise config.yaml is searched in ConfigDir().
// A missing config file is not an error.
func Initialize() error {
	return InitializeWithFile(os.Getenv("CFU_CONFIG"))
}

// InitializeWithFile is Initialize with an explicit config file path. An empty
// path falls back to discovery.
func InitializeWithFile(path string) error {
	v = viper.New()
	v.SetConfigType("yaml")

	// Environment variables: CFU_ENVIRONMENT, CFU_EXPORT_DIR, CFU_RETRY_MAX_ELAPSED, ...
	v.SetEnvPrefix("CFU")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(ConfigDir())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("space", "")
	v.SetDefault("environment", "master")
	v.SetDefault("json", false)
	v.SetDefault("api-url", "https://api.contentful.com")
	v.SetDefault("http-timeout", 30*time.Second)
	v.SetDefault("retry.max-elapsed", 30*time.Second)
	v.SetDefault("export.dir", "./output/exports/")
	v.SetDefault("export.file", "selected-exports.json")
	v.SetDefault("export.command", "npx contentful-cli")
	v.SetDefault("export.download-assets", true)
}

// ConfigDir returns the per-user config directory. CFU_CONFIG_DIR overrides
// the platform default (~/.config/contentful-utility-suite on Linux,
// %AppData%\contentful-utility-suite on Windows).
func ConfigDir() string {
	if dir := os.Getenv("CFU_CONFIG_DIR"); dir != "" {
		return dir
	}
	base, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, AppName)
}

// ConfigFileUsed returns the path of the loaded config file, or "".
func ConfigFileUsed() string {
	if v == nil {
		return ""
	}
	return v.ConfigFileUsed()
}

// GetString retrieves a string configuration value
func GetString(key string) string {
	if v == nil {
		return ""
	}
	return v.GetString(key)
}

// GetBool retrieves a boolean configuration value
func GetBool(key string) bool {
	if v == nil {
		return false
	}
	return v.GetBool(key)
}

// GetDuration retrieves a duration configuration value
func GetDuration(key string) time.Duration {
	if v == nil {
		return 0
	}
	return v.GetDuration(key)
}

// Set overrides a value for the rest of the process (flags use this).
func Set(key string, value interface{}) {
	if v != nil {
		v.Set(key, value)
	}
}

// ExportCommand returns export.command split into argv.
func ExportCommand() []string {
	return strings.Fields(GetString("export.command"))
}
