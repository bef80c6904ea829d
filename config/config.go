// Package config loads the YAML settings of the secret-image command.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	logging "github.com/ipfs/go-log/v2"
	"gopkg.in/yaml.v3"

	"github.com/ppopth/secret-image/mask"
)

// Config is the complete tool configuration
type Config struct {
	Logging   LoggingConfig `yaml:"logging"`
	Mask      string        `yaml:"mask"`      // mask generator: chacha20 or legacy
	Workers   int           `yaml:"workers"`   // 0 uses GOMAXPROCS
	Extension string        `yaml:"extension"` // candidate image extension
}

// LoggingConfig controls logging behavior
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // color, nocolor or json
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "color",
		},
		Mask:      mask.ChaCha20Name,
		Workers:   0,
		Extension: ".bmp",
	}
}

// Load reads configuration from a YAML file over the defaults, applies
// environment variable overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if level := os.Getenv("SECRET_IMAGE_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if format := os.Getenv("SECRET_IMAGE_LOG_FORMAT"); format != "" {
		cfg.Logging.Format = format
	}
	if m := os.Getenv("SECRET_IMAGE_MASK"); m != "" {
		cfg.Mask = m
	}
	if w := os.Getenv("SECRET_IMAGE_WORKERS"); w != "" {
		n, err := strconv.Atoi(w)
		if err != nil {
			return fmt.Errorf("invalid SECRET_IMAGE_WORKERS value %q: %w", w, err)
		}
		cfg.Workers = n
	}
	return nil
}

// Validate checks every field
func (c *Config) Validate() error {
	if _, err := logging.LevelFromString(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	if _, err := c.Logging.format(); err != nil {
		return err
	}
	if _, err := mask.New(c.Mask); err != nil {
		return err
	}
	if c.Workers < 0 {
		return fmt.Errorf("invalid worker count: %d", c.Workers)
	}
	if c.Extension == "" || !strings.HasPrefix(c.Extension, ".") {
		return fmt.Errorf("invalid extension: %q (must start with a dot)", c.Extension)
	}
	return nil
}

func (l LoggingConfig) format() (logging.LogFormat, error) {
	switch strings.ToLower(l.Format) {
	case "color", "":
		return logging.ColorizedOutput, nil
	case "nocolor", "text":
		return logging.PlaintextOutput, nil
	case "json":
		return logging.JSONOutput, nil
	default:
		return 0, fmt.Errorf("invalid log format: %s (must be color, nocolor or json)", l.Format)
	}
}

// Setup configures go-log for every subsystem, writing to stderr
func (l LoggingConfig) Setup() error {
	level, err := logging.LevelFromString(l.Level)
	if err != nil {
		return fmt.Errorf("invalid log level: %s", l.Level)
	}
	format, err := l.format()
	if err != nil {
		return err
	}

	logging.SetupLogging(logging.Config{
		Format: format,
		Level:  level,
		Stderr: true,
	})
	return nil
}
