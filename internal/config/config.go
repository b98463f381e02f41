package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const envPrefix = "CIVICMATCH_"

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	DB        DBConfig        `yaml:"db"`
	Redis     RedisConfig     `yaml:"redis"`
	AMQP      AMQPConfig      `yaml:"amqp"`
	Auth      AuthConfig      `yaml:"auth"`
	Search    SearchConfig    `yaml:"search"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	History   HistoryConfig   `yaml:"history"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Log       LogConfig       `yaml:"log"`
	Transport TransportConfig `yaml:"transport"`
}

type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DBConfig struct {
	Driver string `yaml:"driver"` // sqlite or postgres
	Path   string `yaml:"path"`
	URL    string `yaml:"url"`
}

// RedisConfig enables the Redis popularity counter when URL is set.
type RedisConfig struct {
	URL    string `yaml:"url"`
	Prefix string `yaml:"prefix"`
}

// AMQPConfig enables analytics publishing when URL is set.
type AMQPConfig struct {
	URL      string `yaml:"url"`
	Exchange string `yaml:"exchange"`
}

type AuthConfig struct {
	Enabled bool          `yaml:"enabled"`
	Secret  string        `yaml:"secret"`
	Issuer  string        `yaml:"issuer"`
	TTL     time.Duration `yaml:"ttl"`
}

type SearchConfig struct {
	DefaultLimit    int `yaml:"default_limit"`
	MaxLimit        int `yaml:"max_limit"`
	SuggestionLimit int `yaml:"suggestion_limit"`
}

type TelemetryConfig struct {
	RatePerSecond float64       `yaml:"rate_per_second"`
	Burst         int           `yaml:"burst"`
	Timeout       time.Duration `yaml:"timeout"`
}

type HistoryConfig struct {
	Retention time.Duration `yaml:"retention"`
	Schedule  string        `yaml:"schedule"`
}

type DashboardConfig struct {
	StreamInterval time.Duration `yaml:"stream_interval"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
	Path   string `yaml:"path"`
}

type TransportConfig struct {
	Mode string `yaml:"mode"` // http or stdio
	// Identity used for MCP stdio sessions; empty means anonymous.
	StdioUserID string `yaml:"stdio_user_id"`
	StdioRole   string `yaml:"stdio_role"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ShutdownTimeout: 10 * time.Second,
		},
		DB: DBConfig{
			Driver: "sqlite",
			Path:   "civicmatch.db",
		},
		Auth: AuthConfig{
			Issuer: "civicmatch",
			TTL:    24 * time.Hour,
		},
		Search: SearchConfig{
			DefaultLimit:    20,
			MaxLimit:        100,
			SuggestionLimit: 5,
		},
		Telemetry: TelemetryConfig{
			RatePerSecond: 50,
			Burst:         100,
			Timeout:       5 * time.Second,
		},
		History: HistoryConfig{
			Retention: 90 * 24 * time.Hour,
			Schedule:  "@daily",
		},
		Dashboard: DashboardConfig{
			StreamInterval: 30 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Transport: TransportConfig{
			Mode: "http",
		},
	}
}

// Load reads an optional .env file, an optional YAML file and environment variables, in that order.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()

	if path := os.Getenv(envPrefix + "CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late at startup.
func (c Config) Validate() error {
	switch c.DB.Driver {
	case "sqlite":
		if c.DB.Path == "" {
			return errors.New("db.path is required for the sqlite driver")
		}
	case "postgres":
		if c.DB.URL == "" {
			return errors.New("db.url is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown db.driver %q", c.DB.Driver)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Transport.Mode != "http" && c.Transport.Mode != "stdio" {
		return fmt.Errorf("unknown transport.mode %q", c.Transport.Mode)
	}
	if c.Auth.Enabled && c.Auth.Secret == "" {
		return errors.New("auth.secret is required when auth is enabled")
	}
	if c.Search.DefaultLimit <= 0 || c.Search.MaxLimit < c.Search.DefaultLimit {
		return fmt.Errorf("search limits invalid: default %d, max %d", c.Search.DefaultLimit, c.Search.MaxLimit)
	}
	if c.Dashboard.StreamInterval < time.Second {
		return fmt.Errorf("dashboard.stream_interval too short: %s", c.Dashboard.StreamInterval)
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Server.Host, "SERVER_HOST")
	setString(&cfg.DB.Driver, "DB_DRIVER")
	setString(&cfg.DB.Path, "DB_PATH")
	setString(&cfg.DB.URL, "DATABASE_URL")
	setString(&cfg.Redis.URL, "REDIS_URL")
	setString(&cfg.Redis.Prefix, "REDIS_PREFIX")
	setString(&cfg.AMQP.URL, "AMQP_URL")
	setString(&cfg.AMQP.Exchange, "AMQP_EXCHANGE")
	setString(&cfg.Auth.Secret, "JWT_SECRET")
	setString(&cfg.Auth.Issuer, "JWT_ISSUER")
	setString(&cfg.History.Schedule, "HISTORY_SCHEDULE")
	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Log.Format, "LOG_FORMAT")
	setString(&cfg.Log.Path, "LOG_PATH")
	setString(&cfg.Transport.Mode, "TRANSPORT_MODE")
	setString(&cfg.Transport.StdioUserID, "STDIO_USER_ID")
	setString(&cfg.Transport.StdioRole, "STDIO_ROLE")

	for _, err := range []error{
		setInt(&cfg.Server.Port, "SERVER_PORT"),
		setInt(&cfg.Search.DefaultLimit, "SEARCH_DEFAULT_LIMIT"),
		setInt(&cfg.Search.MaxLimit, "SEARCH_MAX_LIMIT"),
		setInt(&cfg.Search.SuggestionLimit, "SEARCH_SUGGESTION_LIMIT"),
		setInt(&cfg.Telemetry.Burst, "TELEMETRY_BURST"),
		setFloat(&cfg.Telemetry.RatePerSecond, "TELEMETRY_RATE"),
		setBool(&cfg.Auth.Enabled, "AUTH_ENABLED"),
		setDuration(&cfg.Auth.TTL, "JWT_TTL"),
		setDuration(&cfg.Server.ShutdownTimeout, "SHUTDOWN_TIMEOUT"),
		setDuration(&cfg.Telemetry.Timeout, "TELEMETRY_TIMEOUT"),
		setDuration(&cfg.History.Retention, "HISTORY_RETENTION"),
		setDuration(&cfg.Dashboard.StreamInterval, "DASHBOARD_STREAM_INTERVAL"),
	} {
		if err != nil {
			return err
		}
	}
	return nil
}

func setString(dst *string, name string) {
	if v := os.Getenv(envPrefix + name); v != "" {
		*dst = v
	}
}

func setInt(dst *int, name string) error {
	v := os.Getenv(envPrefix + name)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s%s: %w", envPrefix, name, err)
	}
	*dst = n
	return nil
}

func setFloat(dst *float64, name string) error {
	v := os.Getenv(envPrefix + name)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("invalid %s%s: %w", envPrefix, name, err)
	}
	*dst = f
	return nil
}

func setBool(dst *bool, name string) error {
	v := os.Getenv(envPrefix + name)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("invalid %s%s: %w", envPrefix, name, err)
	}
	*dst = b
	return nil
}

func setDuration(dst *time.Duration, name string) error {
	v := os.Getenv(envPrefix + name)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s%s: %w", envPrefix, name, err)
	}
	*dst = d
	return nil
}
