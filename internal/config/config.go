// Package config resolves the service configuration from flags, environment
// variables and an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"os"

	"bmr-form/internal/calcservice"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const (
	FlagAddr       = "addr"
	FlagAPIBaseURL = "api-base-url"
	FlagConfig     = "config"
	FlagLogLevel   = "log-level"

	DefaultAddr = ":8080"
)

var ErrMissingAPIBaseURL = errors.New("calculation service base URL required (use --api-base-url or BMR_API_BASE_URL)")

type Config struct {
	Addr       string `yaml:"addr"`
	APIBaseURL string `yaml:"api_base_url"`
	LogLevel   string `yaml:"log_level"`
}

func Default() Config {
	return Config{Addr: DefaultAddr, LogLevel: "info"}
}

// Flags returns the command flags. Each one can also come from the
// environment.
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    FlagAddr,
			Usage:   "HTTP listen address",
			Value:   DefaultAddr,
			Sources: cli.EnvVars("BMRFORM_ADDR"),
		},
		&cli.StringFlag{
			Name:    FlagAPIBaseURL,
			Usage:   "base URL of the BMR calculation service",
			Sources: cli.EnvVars("BMR_API_BASE_URL"),
		},
		&cli.StringFlag{
			Name:    FlagLogLevel,
			Usage:   "log level (debug, info, warn, error)",
			Value:   "info",
			Sources: cli.EnvVars("LOG_LEVEL"),
		},
		&cli.StringFlag{
			Name:    FlagConfig,
			Usage:   "optional YAML config file",
			Sources: cli.EnvVars("BMRFORM_CONFIG"),
		},
	}
}

// FromCommand applies, in increasing precedence, defaults, the YAML file and
// explicitly set flags or environment variables.
func FromCommand(cmd *cli.Command) (Config, error) {
	cfg := Default()

	if path := cmd.String(FlagConfig); path != "" {
		if err := LoadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if cmd.IsSet(FlagAddr) {
		cfg.Addr = cmd.String(FlagAddr)
	}
	if cmd.IsSet(FlagAPIBaseURL) {
		cfg.APIBaseURL = cmd.String(FlagAPIBaseURL)
	}
	if cmd.IsSet(FlagLogLevel) {
		cfg.LogLevel = cmd.String(FlagLogLevel)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile overlays the non-empty keys of a YAML file onto cfg.
func LoadFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var file Config
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if file.Addr != "" {
		cfg.Addr = file.Addr
	}
	if file.APIBaseURL != "" {
		cfg.APIBaseURL = file.APIBaseURL
	}
	if file.LogLevel != "" {
		cfg.LogLevel = file.LogLevel
	}
	return nil
}

func (c Config) Validate() error {
	if c.APIBaseURL == "" {
		return ErrMissingAPIBaseURL
	}
	if c.Addr == "" {
		return errors.New("listen address must not be empty")
	}
	return nil
}

// Calc is the dispatcher configuration derived from c.
func (c Config) Calc() calcservice.Config {
	return calcservice.Config{BaseURL: c.APIBaseURL}
}
