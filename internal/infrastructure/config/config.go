package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/docker/go-units"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment override, e.g.
// AGENTOPS_BACKEND_BASE_URL.
const EnvPrefix = "AGENTOPS"

// LegacyBaseURLEnv is honored as a fallback for backend.base_url.
const LegacyBaseURLEnv = "VITE_API_URL"

// Config is the console configuration.
type Config struct {
	Backend  BackendConfig  `mapstructure:"backend" yaml:"backend"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
	UI       UIConfig       `mapstructure:"ui" yaml:"ui"`

	// File is the config file that was read last, empty when none was found.
	File string `mapstructure:"-" yaml:"-"`
}

// BackendConfig locates the agent backend.
type BackendConfig struct {
	BaseURL   string        `mapstructure:"base_url" yaml:"base_url"`
	APIPrefix string        `mapstructure:"api_prefix" yaml:"api_prefix"`
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// ServerConfig is the browser console listener.
type ServerConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
	Mode string `mapstructure:"mode" yaml:"mode"` // local, production
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig is the local preferences and activity store.
type DatabaseConfig struct {
	Type string `mapstructure:"type" yaml:"type"` // sqlite, postgres
	DSN  string `mapstructure:"dsn" yaml:"dsn"`
}

// LogConfig configures zap and the rotating log file.
type LogConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Format     string `mapstructure:"format" yaml:"format"` // json, console
	File       string `mapstructure:"file" yaml:"file"`
	MaxSize    string `mapstructure:"max_size" yaml:"max_size"` // human size, e.g. 10MB
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
}

// UIConfig holds front-end behavior shared by the terminal and browser
// consoles.
type UIConfig struct {
	NoticeTTL time.Duration `mapstructure:"notice_ttl" yaml:"notice_ttl"`
}

// Load reads the layered configuration. Precedence, low to high: defaults,
// ~/.agentops/config.yaml, ./config.yaml, environment.
func Load() (*Config, error) {
	return LoadFrom(HomeDir(), ".")
}

// LoadFrom is Load with explicit global and local directories.
func LoadFrom(globalDir, localDir string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Layer 1: global config
	v.AddConfigPath(globalDir)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read global config: %w", err)
		}
	}
	file := v.ConfigFileUsed()

	// Layer 2: project-local override
	if localDir != "" {
		localPath := filepath.Join(localDir, "config.yaml")
		if abs, err := filepath.Abs(localPath); err == nil && abs != file {
			if _, err := os.Stat(localPath); err == nil {
				v2 := viper.New()
				v2.SetConfigFile(localPath)
				if err := v2.ReadInConfig(); err != nil {
					return nil, fmt.Errorf("failed to read local config: %w", err)
				}
				if err := v.MergeConfigMap(v2.AllSettings()); err != nil {
					return nil, fmt.Errorf("failed to merge local config: %w", err)
				}
				file = abs
			}
		}
	}

	// Layer 3: environment
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("backend.base_url", EnvPrefix+"_BACKEND_BASE_URL", LegacyBaseURLEnv)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.File = file
	cfg.normalize(globalDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the console cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Type {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if _, err := units.FromHumanSize(c.Log.MaxSize); err != nil {
		return fmt.Errorf("invalid log.max_size: %w", err)
	}
	if c.UI.NoticeTTL <= 0 {
		return fmt.Errorf("ui.notice_ttl must be positive")
	}
	return nil
}

func (c *Config) normalize(home string) {
	c.Backend.BaseURL = strings.TrimRight(strings.TrimSpace(c.Backend.BaseURL), "/")
	if c.Database.Type == "sqlite" && c.Database.DSN != "" && c.Database.DSN != ":memory:" &&
		!filepath.IsAbs(c.Database.DSN) && !strings.HasPrefix(c.Database.DSN, "file:") {
		c.Database.DSN = filepath.Join(home, c.Database.DSN)
	}
}

// setDefaults sets every default value.
func setDefaults(v *viper.Viper) {
	v.SetDefault("backend.base_url", "http://localhost:8000")
	v.SetDefault("backend.api_prefix", "/api/v1")
	v.SetDefault("backend.timeout", "120s")

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 5173)
	v.SetDefault("server.mode", "local")

	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.dsn", "console.db")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size", "10MB")
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)

	v.SetDefault("ui.notice_ttl", "3s")
}
