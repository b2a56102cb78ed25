package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "CROWDFUND_"

// Config defines server and client configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" envPrefix:"SERVER_"`
	DB        DBConfig        `yaml:"db" envPrefix:"DB_"`
	Log       LogConfig       `yaml:"log" envPrefix:"LOG_"`
	Auth      AuthConfig      `yaml:"auth" envPrefix:"AUTH_"`
	Transport TransportConfig `yaml:"transport" envPrefix:"TRANSPORT_"`
	Client    ClientConfig    `yaml:"client" envPrefix:"CLIENT_"`
	Metrics   MetricsConfig   `yaml:"metrics" envPrefix:"METRICS_"`
	Tracing   TracingConfig   `yaml:"tracing" envPrefix:"TRACING_"`
}

type ServerConfig struct {
	Host string `yaml:"host" env:"HOST"`
	Port int    `yaml:"port" env:"PORT"`
}

type DBConfig struct {
	Path string `yaml:"path" env:"PATH"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"LEVEL"`
	// File enables rotated file logging when set.
	File       string `yaml:"file" env:"FILE"`
	MaxSizeMB  int    `yaml:"max_size_mb" env:"MAX_SIZE_MB"`
	MaxBackups int    `yaml:"max_backups" env:"MAX_BACKUPS"`
	MaxAgeDays int    `yaml:"max_age_days" env:"MAX_AGE_DAYS"`
}

type AuthConfig struct {
	Enabled  bool          `yaml:"enabled" env:"ENABLED"`
	Secret   string        `yaml:"secret" env:"SECRET"`
	Issuer   string        `yaml:"issuer" env:"ISSUER"`
	TokenTTL time.Duration `yaml:"token_ttl" env:"TOKEN_TTL"`
}

// TransportConfig selects how the MCP surface is served: "http" mounts it on
// the RPC server, "stdio" serves it on stdin/stdout, "off" disables it.
type TransportConfig struct {
	Mode    string `yaml:"mode" env:"MODE"`
	MCPPath string `yaml:"mcp_path" env:"MCP_PATH"`
}

// ClientConfig configures the client-side cache and remote backend.
type ClientConfig struct {
	BackendURL     string        `yaml:"backend_url" env:"BACKEND_URL"`
	Token          string        `yaml:"token" env:"TOKEN"`
	Timeout        time.Duration `yaml:"timeout" env:"TIMEOUT"`
	RefetchOnFocus bool          `yaml:"refetch_on_focus" env:"REFETCH_ON_FOCUS"`
}

type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" env:"ENABLED"`
	Namespace string `yaml:"namespace" env:"NAMESPACE"`
}

// TracingConfig selects the span exporter: "none", "stdout" or "otlp-http".
type TracingConfig struct {
	Exporter    string  `yaml:"exporter" env:"EXPORTER"`
	Endpoint    string  `yaml:"endpoint" env:"ENDPOINT"`
	ServiceName string  `yaml:"service_name" env:"SERVICE_NAME"`
	SampleRate  float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		DB: DBConfig{
			Path: "crowdfund.db",
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  5,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Auth: AuthConfig{
			Issuer:   "crowdfund",
			TokenTTL: 24 * time.Hour,
		},
		Transport: TransportConfig{
			Mode:    "http",
			MCPPath: "/mcp",
		},
		Client: ClientConfig{
			BackendURL: "http://localhost:8080",
			Timeout:    10 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "crowdfund",
		},
		Tracing: TracingConfig{
			Exporter:    "none",
			ServiceName: "crowdfund",
			SampleRate:  1,
		},
	}
}

// Load reads configuration from an optional YAML file named by
// CROWDFUND_CONFIG_PATH, then applies CROWDFUND_* environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv(EnvPrefix + "CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
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

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Auth.Enabled && c.Auth.Secret == "" {
		errs = append(errs, errors.New("auth.secret is required when auth is enabled"))
	}
	switch c.Transport.Mode {
	case "http", "stdio", "off":
	default:
		errs = append(errs, fmt.Errorf("transport.mode %q must be http, stdio or off", c.Transport.Mode))
	}
	if c.Transport.Mode == "http" && !strings.HasPrefix(c.Transport.MCPPath, "/") {
		errs = append(errs, fmt.Errorf("transport.mcp_path %q must start with /", c.Transport.MCPPath))
	}
	switch c.Tracing.Exporter {
	case "none", "stdout", "otlp-http":
	default:
		errs = append(errs, fmt.Errorf("tracing.exporter %q must be none, stdout or otlp-http", c.Tracing.Exporter))
	}
	return errors.Join(errs...)
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("log.level %q is not one of debug, info, warn, error", level)
	}
}
