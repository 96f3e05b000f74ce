// Package config provides configuration loading and validation for the IPP client.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultAPIURL          = "http://localhost:8000/api"
	DefaultPollInterval    = 500 * time.Millisecond
	DefaultRequestTimeout  = 30 * time.Second
	DefaultDraftDebounce   = 1000 * time.Millisecond
	DefaultMaxPollAttempts = 0 // unlimited
	appDirName             = "ipp"
	stateDBName            = "state.db"
)

// Environment variable names. The REACT_APP_ names are shared with the browser client
// so one .env file serves both.
const (
	EnvAPIURL          = "REACT_APP_API_URL"
	EnvGoogleClientID  = "REACT_APP_GOOGLE_CLIENT_ID"
	EnvPollInterval    = "IPP_POLL_INTERVAL"
	EnvRequestTimeout  = "IPP_REQUEST_TIMEOUT"
	EnvMaxPollAttempts = "IPP_MAX_POLL_ATTEMPTS"
	EnvStateDB         = "IPP_STATE_DB"
	EnvDatabaseURL     = "DATABASE_URL"
	EnvAppEnv          = "APP_ENV"
)

// Config represents the client configuration. It can be loaded from a JSON or YAML
// file, from the environment, or both; missing values fall back to defaults.
type Config struct {
	APIURL          string   `json:"api_url,omitempty" yaml:"api_url,omitempty" validate:"omitempty,url"`
	GoogleClientID  string   `json:"google_client_id,omitempty" yaml:"google_client_id,omitempty"`
	PollInterval    Duration `json:"poll_interval,omitempty" yaml:"poll_interval,omitempty"`
	RequestTimeout  Duration `json:"request_timeout,omitempty" yaml:"request_timeout,omitempty"`
	MaxPollAttempts int      `json:"max_poll_attempts,omitempty" yaml:"max_poll_attempts,omitempty" validate:"gte=0"`
	StateDB         string   `json:"state_db,omitempty" yaml:"state_db,omitempty"`         // SQLite file for local state
	DatabaseURL     string   `json:"database_url,omitempty" yaml:"database_url,omitempty"` // optional PostgreSQL draft store
	AppEnv          string   `json:"app_env,omitempty" yaml:"app_env,omitempty" validate:"omitempty,oneof=dev prod production test"`
	Verbose         bool     `json:"verbose,omitempty" yaml:"verbose,omitempty"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		APIURL:          DefaultAPIURL,
		PollInterval:    Duration(DefaultPollInterval),
		RequestTimeout:  Duration(DefaultRequestTimeout),
		MaxPollAttempts: DefaultMaxPollAttempts,
		StateDB:         DefaultStateDBPath(),
	}
}

// DefaultStateDBPath returns <user config dir>/ipp/state.db, or a relative path when
// the config dir cannot be determined.
func DefaultStateDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join("."+appDirName, stateDBName)
	}
	return filepath.Join(dir, appDirName, stateDBName)
}

// Load builds the effective configuration: environment over file over defaults.
// path may be empty.
func Load(path string) (*Config, error) {
	base := Default()

	if path != "" {
		fileCfg, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		base = fileCfg.MergeWithDefaults(base)
	}

	env, err := FromEnv()
	if err != nil {
		return nil, err
	}
	merged := env.MergeWithDefaults(base)
	merged.Verbose = env.Verbose || base.Verbose

	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

// FromEnv returns a Config holding only the values set in the environment.
func FromEnv() (Config, error) {
	cfg := Config{
		APIURL:         os.Getenv(EnvAPIURL),
		GoogleClientID: os.Getenv(EnvGoogleClientID),
		StateDB:        os.Getenv(EnvStateDB),
		DatabaseURL:    os.Getenv(EnvDatabaseURL),
		AppEnv:         os.Getenv(EnvAppEnv),
	}

	if v := os.Getenv(EnvPollInterval); v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", EnvPollInterval, err)
		}
		cfg.PollInterval = Duration(d)
	}
	if v := os.Getenv(EnvRequestTimeout); v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", EnvRequestTimeout, err)
		}
		cfg.RequestTimeout = Duration(d)
	}
	if v := os.Getenv(EnvMaxPollAttempts); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %v", EnvMaxPollAttempts, err)
		}
		cfg.MaxPollAttempts = n
	}

	return cfg, nil
}

// LoadConfig loads configuration from a JSON or YAML file (chosen by extension).
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	if c.PollInterval < 0 {
		return fmt.Errorf("config error: 'poll_interval' must be positive")
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("config error: 'request_timeout' must be positive")
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.APIURL == "" {
		result.APIURL = defaults.APIURL
	}
	if result.GoogleClientID == "" {
		result.GoogleClientID = defaults.GoogleClientID
	}
	if result.StateDB == "" {
		result.StateDB = defaults.StateDB
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.AppEnv == "" {
		result.AppEnv = defaults.AppEnv
	}

	if result.PollInterval == 0 {
		result.PollInterval = defaults.PollInterval
	}
	if result.RequestTimeout == 0 {
		result.RequestTimeout = defaults.RequestTimeout
	}
	if result.MaxPollAttempts == 0 {
		result.MaxPollAttempts = defaults.MaxPollAttempts
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge

	return result
}

// APIBaseURL returns APIURL without a trailing slash.
func (c *Config) APIBaseURL() string {
	return strings.TrimRight(c.APIURL, "/")
}
