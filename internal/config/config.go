// Package config loads application configuration from environment variables
// (CRSP_ prefix) layered over an optional YAML file, resolves data paths and
// validates the result. The universe rule table lives here because the
// provider's accepted code sets are configuration, not algorithm.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"crspindex/internal/universe"
)

// envPrefix namespaces all environment overrides, e.g. CRSP_SERVER_PORT.
const envPrefix = "CRSP"

// Config is the complete application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Paths    PathsConfig    `yaml:"paths" envconfig:"PATHS"`
	Index    IndexConfig    `yaml:"index" envconfig:"INDEX"`
	Universe universe.Rules `yaml:"universe" ignored:"true"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RateLimitRPS    float64       `yaml:"rate_limit_rps" envconfig:"RATE_LIMIT_RPS" validate:"gt=0"`
	RateLimitBurst  int           `yaml:"rate_limit_burst" envconfig:"RATE_LIMIT_BURST" validate:"gt=0"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// IndexConfig contains index computation settings.
type IndexConfig struct {
	// StartDate and EndDate bound the computation range (inclusive), format
	// 2006-01-02. Empty means unbounded.
	StartDate string `yaml:"start_date" envconfig:"START_DATE" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `yaml:"end_date" envconfig:"END_DATE" validate:"omitempty,datetime=2006-01-02"`
}

var validate = validator.New()

// defaultConfig returns the baseline configuration. Defaults live here rather
// than in envconfig `default` tags: envconfig re-applies tag defaults to every
// field whose variable is unset, which would clobber values taken from the
// config file when the environment pass runs last.
func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RateLimitRPS:    50,
			RateLimitBurst:  25,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "logs/crspindex.log",
		},
		Paths: PathsConfig{
			DataDir:       "data",
			StockFile:     "crsp_monthly.csv",
			ReferenceFile: "reference_index.csv",
			ReportsDir:    "reports",
		},
		Universe: universe.DefaultRules(),
	}
}

// Load builds the configuration in three layers: the baseline defaults, then
// the YAML file named by CRSP_CONFIG_FILE (or config.yaml when present), then
// environment variables on top. Fields without default tags leave envconfig
// writing only variables that are actually set, so the file layer survives the
// environment pass.
func Load() (*Config, error) {
	cfg := defaultConfig()

	configFile := os.Getenv(envPrefix + "_CONFIG_FILE")
	if configFile == "" {
		configFile = "config.yaml"
	}
	if _, err := os.Stat(configFile); err == nil {
		if err := applyFile(&cfg, configFile); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", configFile, err)
		}
	}

	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks field constraints and the universe rule table.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if err := c.Universe.Compile(); err != nil {
		return err
	}
	if c.Index.StartDate != "" && c.Index.EndDate != "" {
		start, _ := time.Parse("2006-01-02", c.Index.StartDate)
		end, _ := time.Parse("2006-01-02", c.Index.EndDate)
		if end.Before(start) {
			return fmt.Errorf("index date range: end %s before start %s", c.Index.EndDate, c.Index.StartDate)
		}
	}
	return c.Paths.Validate()
}

// DateRange returns the configured computation bounds; zero times mean
// unbounded on that side.
func (c *Config) DateRange() (start, end time.Time) {
	if c.Index.StartDate != "" {
		start, _ = time.Parse("2006-01-02", c.Index.StartDate)
	}
	if c.Index.EndDate != "" {
		end, _ = time.Parse("2006-01-02", c.Index.EndDate)
	}
	return start, end
}
