package config

import (
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/ajitpratap0/warpconf/pkg/errors"
)

const (
	// ConfDir is the configuration directory under a work root
	ConfDir = "conf"
	// EngineFile is the engine configuration file name
	EngineFile = "wparse.toml"
	// EnvPrefix prefixes environment overrides of engine keys
	EnvPrefix = "WP"
)

// EngineConfig is the project-level engine configuration
type EngineConfig struct {
	Models   ModelsConfig   `mapstructure:"models" toml:"models"`
	Topology TopologyConfig `mapstructure:"topology" toml:"topology"`
	Log      LogConfig      `mapstructure:"log" toml:"log"`
}

// ModelsConfig locates parse (wpl) and mapping (oml) models
type ModelsConfig struct {
	WPL string `mapstructure:"wpl" toml:"wpl"`
	OML string `mapstructure:"oml" toml:"oml"`
}

// TopologyConfig locates source and sink topology roots
type TopologyConfig struct {
	Sources string `mapstructure:"sources" toml:"sources"`
	Sinks   string `mapstructure:"sinks" toml:"sinks"`
}

// LogConfig is the default logging setup of the project tools
type LogConfig struct {
	Level  string `mapstructure:"level" toml:"level"`
	Format string `mapstructure:"format" toml:"format"`
}

// DefaultEngineConfig returns the configuration used when no file exists
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		Models: ModelsConfig{
			WPL: "./models/wpl",
			OML: "./models/oml",
		},
		Topology: TopologyConfig{
			Sources: "./topology/sources",
			Sinks:   "./topology/sinks",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// EnginePath returns the engine config path under workRoot
func EnginePath(workRoot string) string {
	return filepath.Join(workRoot, ConfDir, EngineFile)
}

// LoadEngine reads conf/wparse.toml under workRoot. Environment variables
// override file values; a missing file yields the defaults.
func LoadEngine(fs afero.Fs, workRoot string) (*EngineConfig, error) {
	v := viper.New()
	v.SetFs(fs)
	v.SetConfigType("toml")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// defaults first so that AutomaticEnv knows every key
	defaults := DefaultEngineConfig()
	v.SetDefault("models.wpl", defaults.Models.WPL)
	v.SetDefault("models.oml", defaults.Models.OML)
	v.SetDefault("topology.sources", defaults.Topology.Sources)
	v.SetDefault("topology.sinks", defaults.Topology.Sinks)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.format", defaults.Log.Format)

	path := EnginePath(workRoot)
	exists, err := afero.Exists(fs, path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to stat engine config").
			WithDetail("path", path)
	}
	if exists {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to read engine config").
				WithDetail("path", path)
		}
	}

	var cfg EngineConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to unmarshal engine config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required engine fields
func (c *EngineConfig) Validate() error {
	if strings.TrimSpace(c.Topology.Sinks) == "" {
		return errors.New(errors.ErrorTypeMissingField, "topology.sinks must not be empty")
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return errors.Newf(errors.ErrorTypeConfig, "log.format must be console or json, got '%s'", c.Log.Format)
	}
	return nil
}

// SinksRoot returns the configured sinks path as written in the file
func (c *EngineConfig) SinksRoot() string {
	return c.Topology.Sinks
}
