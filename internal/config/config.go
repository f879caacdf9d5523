package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/taskvault/taskvault/internal/snapshot"
)

// Default values for the configuration.
const (
	DefaultHTTPAddr = "127.0.0.1:8080"
	DefaultGRPCPort = 50051
	DefaultHeader   = "x-api-key"
	DefaultLogLevel = "info"
)

// Config is the full taskvault configuration file.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
	Log      LogConfig      `yaml:"log"`
	Events   EventsConfig   `yaml:"events"`
}

// ServerConfig holds listener and access settings.
type ServerConfig struct {
	// HTTPAddr is the listen address of the REST API (default 127.0.0.1:8080).
	HTTPAddr string `yaml:"http_addr"`

	// GRPCPort is the port of the gRPC health probe. 0 disables it.
	GRPCPort int `yaml:"grpc_port"`

	Auth AuthConfig `yaml:"auth"`
	CORS CORSConfig `yaml:"cors"`
}

// AuthConfig controls the API key that guards /metrics and the gRPC probe.
type AuthConfig struct {
	// Mode is one of: apikey | none.
	Mode string `yaml:"mode"`

	// KeyEnv names the environment variable holding the expected key.
	KeyEnv string `yaml:"key_env"`

	// Header is the HTTP header / gRPC metadata key carrying the key.
	Header string `yaml:"header"`
}

// Key returns the expected API key resolved from the environment.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// EffectiveHeader returns the configured header name, or DefaultHeader.
func (a AuthConfig) EffectiveHeader() string {
	if a.Header != "" {
		return a.Header
	}
	return DefaultHeader
}

// CORSConfig toggles the localhost CORS policy.
type CORSConfig struct {
	Enabled bool `yaml:"enabled"`
}

// SnapshotConfig locates the snapshot file.
type SnapshotConfig struct {
	Path string `yaml:"path"`
}

// LogConfig sets the minimum log level.
type LogConfig struct {
	// Level is one of: debug | info | warn | error.
	Level string `yaml:"level"`
}

// SlogLevel converts Level to a slog.Level. Unknown values map to info;
// validate rejects them before this is reached.
func (l LogConfig) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// EventsConfig lists the webhooks that receive change events.
type EventsConfig struct {
	Webhooks []WebhookConfig `yaml:"webhooks"`
}

// WebhookConfig is one delivery target.
type WebhookConfig struct {
	// Type is one of: slack | teams | http.
	Type string `yaml:"type"`

	// URLEnv names the environment variable holding the webhook URL.
	URLEnv string `yaml:"url_env"`
}

// URL returns the webhook URL resolved from the environment.
func (w WebhookConfig) URL() string {
	if w.URLEnv == "" {
		return ""
	}
	return os.Getenv(w.URLEnv)
}

// Load reads, defaults and validates the config file at path.
// If optional is true a missing file yields the defaults instead of an error.
func Load(path string, optional bool) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
	case optional && errors.Is(err, os.ErrNotExist):
		return cfg, nil
	default:
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPAddr: DefaultHTTPAddr,
			GRPCPort: DefaultGRPCPort,
			Auth:     AuthConfig{Mode: "none"},
			CORS:     CORSConfig{Enabled: true},
		},
		Snapshot: SnapshotConfig{Path: snapshot.DefaultPath},
		Log:      LogConfig{Level: DefaultLogLevel},
	}
}

func validate(cfg *Config) error {
	if strings.TrimSpace(cfg.Server.HTTPAddr) == "" {
		return fmt.Errorf("server.http_addr must not be empty")
	}
	if cfg.Server.GRPCPort < 0 || cfg.Server.GRPCPort > 65535 {
		return fmt.Errorf("server.grpc_port %d is out of range [0, 65535]", cfg.Server.GRPCPort)
	}
	switch cfg.Server.Auth.Mode {
	case "apikey", "none", "":
	default:
		return fmt.Errorf("server.auth.mode %q unknown: want apikey|none", cfg.Server.Auth.Mode)
	}
	if strings.TrimSpace(cfg.Snapshot.Path) == "" {
		return fmt.Errorf("snapshot.path must not be empty")
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		return fmt.Errorf("log.level %q unknown: want debug|info|warn|error", cfg.Log.Level)
	}
	for i, wh := range cfg.Events.Webhooks {
		switch wh.Type {
		case "slack", "teams", "http":
		default:
			return fmt.Errorf("events.webhooks[%d].type %q unknown: want slack|teams|http", i, wh.Type)
		}
		if wh.URLEnv == "" {
			return fmt.Errorf("events.webhooks[%d].url_env must be set", i)
		}
	}
	return nil
}
