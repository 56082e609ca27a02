// Package config loads the application configuration in three layers:
// struct defaults, an optional YAML file and LOANELIG_* environment
// variables, each overriding the one before.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"loan-eligibility/domain"
	"loan-eligibility/forest"
	"loan-eligibility/logging"
	"loan-eligibility/rules"
	"loan-eligibility/validation"
)

const (
	// EnvPrefix prefixes every environment override:
	// LOANELIG_SERVER_ADDR sets server.addr.
	EnvPrefix = "LOANELIG_"

	// ConfigPathEnvVar names the YAML file when no path is passed to Load.
	ConfigPathEnvVar = "LOANELIG_CONFIG"
)

// Config is the complete application configuration.
type Config struct {
	Log       logging.Config `koanf:"log"`
	Server    ServerConfig   `koanf:"server"`
	Store     StoreConfig    `koanf:"store"`
	Redis     RedisConfig    `koanf:"redis"`
	Generator GenerateConfig `koanf:"generator"`
	Training  TrainingConfig `koanf:"training"`
	Forest    forest.Config  `koanf:"forest"`
	Scoring   rules.Scoring  `koanf:"scoring"`

	// Criteria overrides entries of the default criteria table, keyed by
	// loan type ("home", "Education Loan", ...). YAML only.
	Criteria map[string]domain.LoanCriteria `koanf:"criteria" validate:"dive"`
}

type ServerConfig struct {
	Addr            string        `koanf:"addr" validate:"required"`
	RateLimit       int           `koanf:"rate_limit" validate:"min=1"`
	RateWindow      time.Duration `koanf:"rate_window" validate:"gt=0"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	MaxBatch        int           `koanf:"max_batch" validate:"min=1"`
}

// StoreConfig selects where models and prediction records live. The file
// driver keeps models under Path and predictions in memory; the sqlite
// driver keeps both in the database at Path.
type StoreConfig struct {
	Driver string `koanf:"driver" validate:"oneof=file sqlite"`
	Path   string `koanf:"path" validate:"required"`
}

type RedisConfig struct {
	Enabled bool          `koanf:"enabled"`
	Addr    string        `koanf:"addr" validate:"required_if=Enabled true"`
	TTL     time.Duration `koanf:"ttl"`
}

type GenerateConfig struct {
	Seed  int64 `koanf:"seed"`
	Count int   `koanf:"count" validate:"min=1"`
}

type TrainingConfig struct {
	TestFraction float64 `koanf:"test_fraction" validate:"gt=0,lt=1"`
	Seed         int64   `koanf:"seed"`
}

func defaultConfig() *Config {
	return &Config{
		Log: logging.Config{Level: "info", Format: "json"},
		Server: ServerConfig{
			Addr:            ":8080",
			RateLimit:       5,
			RateWindow:      time.Minute,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxBatch:        1000,
		},
		Store: StoreConfig{Driver: "file", Path: "models"},
		Redis: RedisConfig{Addr: "localhost:6379", TTL: time.Hour},
		Generator: GenerateConfig{
			Seed:  42,
			Count: 10000,
		},
		Training: TrainingConfig{TestFraction: 0.2, Seed: 42},
		Forest:   forest.DefaultConfig(),
		Scoring:  rules.DefaultScoring(),
	}
}

// Default returns the built-in configuration without reading any file or
// environment variable.
func Default() *Config {
	return defaultConfig()
}

// Load builds the configuration. path may be empty, in which case the
// file named by LOANELIG_CONFIG is used when set.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		path = os.Getenv(ConfigPathEnvVar)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// envTransformFunc maps LOANELIG_FOREST_MAX_DEPTH to forest.max_depth: the
// first segment is the section, the rest is the key. The config path
// variable itself is not a setting and is dropped.
func envTransformFunc(key string) string {
	if key == ConfigPathEnvVar {
		return ""
	}
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	return strings.Replace(key, "_", ".", 1)
}

// Validate checks field constraints and the criteria overrides.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}
	_, err := c.CriteriaTable()
	return err
}

// CriteriaTable applies the configured overrides to the default criteria.
func (c *Config) CriteriaTable() (domain.CriteriaTable, error) {
	table := domain.DefaultCriteria()
	for name, lc := range c.Criteria {
		t, err := domain.ParseLoanType(name)
		if err != nil {
			return domain.CriteriaTable{}, fmt.Errorf("criteria: %w", err)
		}
		table = table.With(t, lc)
	}
	return table, nil
}

// Policy builds the rule engine from the configured criteria and scoring.
func (c *Config) Policy() (*rules.Policy, error) {
	table, err := c.CriteriaTable()
	if err != nil {
		return nil, err
	}
	return rules.NewPolicy(table, c.Scoring), nil
}
