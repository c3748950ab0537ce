package config

import (
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap/zapcore"

	"github.com/ajitpratap0/warpconf/pkg/errors"
	"github.com/ajitpratap0/warpconf/pkg/logger"
	"github.com/ajitpratap0/warpconf/pkg/params"
)

// WpGenFile is the default generator config file name under conf/
const WpGenFile = "wpgen.toml"

// Generator modes
const (
	ModeRule   = "rule"
	ModeSample = "sample"
)

// WpGenConfig is the data generator configuration
type WpGenConfig struct {
	Version   string          `toml:"version" yaml:"version" json:"version"`
	Generator GeneratorConfig `toml:"generator" yaml:"generator" json:"generator"`
	Output    OutputConfig    `toml:"output" yaml:"output" json:"output"`
	Logging   LoggingConfig   `toml:"logging" yaml:"logging" json:"logging"`
}

// GeneratorConfig controls how much data is produced and how fast
type GeneratorConfig struct {
	Mode     string `toml:"mode" yaml:"mode" json:"mode"`
	Count    int64  `toml:"count,omitempty" yaml:"count,omitempty" json:"count,omitempty"`
	Speed    int    `toml:"speed" yaml:"speed" json:"speed"` // 0 = unlimited
	Parallel int    `toml:"parallel" yaml:"parallel" json:"parallel"`
}

// OutputConfig names the connector the generator writes through
type OutputConfig struct {
	Name    string                 `toml:"name,omitempty" yaml:"name,omitempty" json:"name,omitempty"`
	Connect string                 `toml:"connect,omitempty" yaml:"connect,omitempty" json:"connect,omitempty"`
	Params  map[string]interface{} `toml:"params,omitempty" yaml:"params,omitempty" json:"params,omitempty"`
}

// LoggingConfig is the generator's own logging setup
type LoggingConfig struct {
	Level    string `toml:"level" yaml:"level" json:"level"`
	Output   string `toml:"output" yaml:"output" json:"output"` // stdout, stderr or file
	FilePath string `toml:"file_path,omitempty" yaml:"file_path,omitempty" json:"file_path,omitempty"`
}

// DefaultWpGenConfig returns the configuration written by conf init
func DefaultWpGenConfig() *WpGenConfig {
	return &WpGenConfig{
		Version: "1.0",
		Generator: GeneratorConfig{
			Mode:     ModeSample,
			Count:    1000,
			Speed:    1000,
			Parallel: 1,
		},
		Output: OutputConfig{
			Connect: "file_json_sink",
			Params: map[string]interface{}{
				"file": "gen.dat",
			},
		},
		Logging: LoggingConfig{
			Level:    "warn",
			Output:   "file",
			FilePath: "./data/logs/",
		},
	}
}

// WpGenPath returns the path of a generator config under workRoot
func WpGenPath(workRoot, name string) string {
	if name == "" {
		name = WpGenFile
	}
	return filepath.Join(workRoot, ConfDir, name)
}

// LoadWpGen loads and validates a generator config
func LoadWpGen(fs afero.Fs, path string) (*WpGenConfig, error) {
	var cfg WpGenConfig
	if err := Load(fs, path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid generator config").
			WithDetail("path", path)
	}
	return &cfg, nil
}

// Validate checks generator settings. output.connect is not checked here;
// Resolve reports a missing one as a missing_field error.
func (c *WpGenConfig) Validate() error {
	switch c.Generator.Mode {
	case ModeRule, ModeSample:
	default:
		return errors.Newf(errors.ErrorTypeConfig, "generator.mode must be rule or sample, got '%s'", c.Generator.Mode)
	}
	if c.Generator.Count < 0 {
		return errors.New(errors.ErrorTypeConfig, "generator.count cannot be negative")
	}
	if c.Generator.Speed < 0 {
		return errors.New(errors.ErrorTypeConfig, "generator.speed cannot be negative")
	}
	if c.Generator.Parallel < 1 {
		return errors.New(errors.ErrorTypeConfig, "generator.parallel must be at least 1")
	}
	if c.Logging.Level != "" {
		if _, err := parseLevel(c.Logging.Level); err != nil {
			return err
		}
	}
	switch c.Logging.Output {
	case "", "stdout", "stderr", "file":
	default:
		return errors.Newf(errors.ErrorTypeConfig, "logging.output must be stdout, stderr or file, got '%s'", c.Logging.Output)
	}
	return nil
}

// OverrideTable converts output.params into an ordered parameter table
func (c *WpGenConfig) OverrideTable() (*params.Table, error) {
	tbl, err := params.TableFromMap(c.Output.Params)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid output.params")
	}
	return tbl, nil
}

// LoggerConfig maps the logging section onto a logger configuration.
// Relative file paths are taken under workRoot.
func (c *WpGenConfig) LoggerConfig(workRoot string) logger.Config {
	cfg := logger.DefaultConfig()
	if c.Logging.Level != "" {
		cfg.Level = c.Logging.Level
	}
	switch c.Logging.Output {
	case "stdout", "stderr":
		cfg.OutputPaths = []string{c.Logging.Output}
	case "file":
		dir := c.Logging.FilePath
		if dir != "" && !filepath.IsAbs(dir) {
			dir = filepath.Join(workRoot, dir)
		}
		cfg.OutputPaths = logger.FileOutput(dir, "wpgen")
		cfg.Encoding = "json"
	}
	return cfg
}

func parseLevel(level string) (zapcore.Level, error) {
	l, err := zapcore.ParseLevel(level)
	if err != nil {
		return l, errors.Wrap(err, errors.ErrorTypeConfig, "invalid log level").
			WithDetail("level", level)
	}
	return l, nil
}
