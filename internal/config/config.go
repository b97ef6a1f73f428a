// Package config loads the immutable process configuration: a YAML file
// overlaid with environment variables, read once at startup.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Provider tags selectable via the config file or LLM_PROVIDER.
const (
	ProviderBedrock = "bedrock"
	ProviderOpenAI  = "openai"
)

// Database drivers selectable via the config file.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config describes runtime options for the daemon.
type Config struct {
	ListenAddr string `yaml:"listen_addr"`

	Database struct {
		Driver string `yaml:"driver"`
		// sqlite
		Path string `yaml:"path"`
		// postgres
		DSN             string `yaml:"dsn"`
		MaxOpenConns    int    `yaml:"max_open_conns"`
		MaxIdleConns    int    `yaml:"max_idle_conns"`
		ConnMaxLifetime int    `yaml:"conn_max_lifetime_minutes"`
		ConnMaxIdleTime int    `yaml:"conn_max_idle_minutes"`
	} `yaml:"database"`

	Provider struct {
		Type        string  `yaml:"type"`
		ModelID     string  `yaml:"model_id"`
		Region      string  `yaml:"region"`
		MaxTokens   int     `yaml:"max_tokens"`
		Temperature float64 `yaml:"temperature"`
	} `yaml:"provider"`

	Log struct {
		File  string `yaml:"file"`
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Default returns the configuration used when no file and no environment
// overrides are present.
func Default() Config {
	var cfg Config
	cfg.ListenAddr = ":8000"
	cfg.Database.Driver = DriverSQLite
	cfg.Database.Path = "data/voxpoll.db"
	cfg.Provider.Type = ProviderBedrock
	cfg.Provider.ModelID = "anthropic.claude-3-7-sonnet-20250219-v1:0"
	cfg.Provider.Region = "us-west-2"
	cfg.Provider.MaxTokens = 4096
	cfg.Provider.Temperature = 0.7
	cfg.Log.Level = "info"
	return cfg
}

// Load reads the YAML file at path (if it exists), applies environment
// overrides and validates the result. An empty path loads defaults plus
// environment only.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err != nil && os.IsNotExist(err):
			// fall through to defaults + env
		case err != nil:
			return Config{}, fmt.Errorf("read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overlays environment variables. The LLM_* and AWS_REGION names
// match what deployments of the original service already export.
func applyEnv(cfg *Config) {
	setString(&cfg.ListenAddr, "VOXPOLL_LISTEN_ADDR")
	setString(&cfg.Database.Driver, "VOXPOLL_DB_DRIVER")
	setString(&cfg.Database.Path, "VOXPOLL_DB_PATH")
	setString(&cfg.Database.DSN, "VOXPOLL_DB_DSN")
	setString(&cfg.Log.File, "VOXPOLL_LOG_FILE")
	setString(&cfg.Log.Level, "VOXPOLL_LOG_LEVEL")

	setString(&cfg.Provider.Type, "LLM_PROVIDER")
	setString(&cfg.Provider.ModelID, "LLM_MODEL_ID")
	setString(&cfg.Provider.Region, "AWS_REGION")
	setInt(&cfg.Provider.MaxTokens, "LLM_MAX_TOKENS")
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func (c Config) validate() error {
	switch strings.ToLower(c.Provider.Type) {
	case ProviderBedrock, ProviderOpenAI:
	default:
		return fmt.Errorf("unsupported provider type %q", c.Provider.Type)
	}
	switch strings.ToLower(c.Database.Driver) {
	case DriverSQLite:
		if strings.TrimSpace(c.Database.Path) == "" {
			return fmt.Errorf("sqlite driver requires database.path")
		}
	case DriverPostgres:
		if strings.TrimSpace(c.Database.DSN) == "" {
			return fmt.Errorf("postgres driver requires database.dsn")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	return nil
}
