package config

import (
	"path/filepath"
	"regexp"

	"github.com/adrg/xdg"
	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
)

// AppName is the application name used for config file naming.
const AppName = "authwire"

// Config represents the top-level configuration structure.
type Config struct {
	Version int `mapstructure:"version" yaml:"version"`

	// SnapshotRetention is how many snapshots `snapshots prune` keeps per
	// project root.
	SnapshotRetention int `mapstructure:"snapshot_retention" yaml:"snapshot_retention"`

	// EntryFunc is the initialization routine patched in the target
	// project's entry point.
	EntryFunc string `mapstructure:"entry_func" yaml:"entry_func"`

	// Backup controls whether a snapshot is captured before mutating.
	Backup bool `mapstructure:"backup" yaml:"backup"`
}

// Init initializes Viper with default configuration.
// Call this once at application startup before accessing config values.
func Init() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Search paths (in order of precedence)
	viper.AddConfigPath(".")
	viper.AddConfigPath(filepath.Join(xdg.ConfigHome, AppName))

	viper.SetEnvPrefix("AUTHWIRE")
	viper.AutomaticEnv()

	viper.SetDefault("version", 1)
	viper.SetDefault("snapshot_retention", 10)
	viper.SetDefault("entry_func", "main")
	viper.SetDefault("backup", true)
}

// Load reads the configuration file.
// If path is provided, it reads from that specific file.
// If path is empty, it searches in the default locations and falls back to
// defaults when no file is found.
func Load(path string) (*Config, error) {
	if path != "" {
		viper.SetConfigFile(path)
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if path != "" {
				return nil, errors.Wrapf(err, "config file not found at %s", path)
			}
		} else {
			return nil, errors.Wrap(err, "reading config file")
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshaling config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.SnapshotRetention < 0 {
		return errors.Newf("snapshot_retention must be non-negative, got %d", c.SnapshotRetention)
	}
	if c.EntryFunc != "" && !identPattern.MatchString(c.EntryFunc) {
		return errors.Newf("entry_func %q is not a valid identifier", c.EntryFunc)
	}
	return nil
}
