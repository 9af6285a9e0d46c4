// Package config loads server configuration from defaults and EHSBOT_*
// environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Bot     BotConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port int
}

type StorageConfig struct {
	DataDir   string
	UploadDir string
}

type BotConfig struct {
	// APIToken protects the management endpoints (incident listing).
	APIToken string
	// SessionMaxAge and SweepInterval are duration strings ("24h", "10m")
	// controlling abandoned-session eviction.
	SessionMaxAge string
	SweepInterval string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	dataDir := defaultDataDir()
	return Config{
		Server: ServerConfig{
			Port: 4000,
		},
		Storage: StorageConfig{
			DataDir:   dataDir,
			UploadDir: filepath.Join(dataDir, "uploads"),
		},
		Bot: BotConfig{
			SessionMaxAge: "24h",
			SweepInterval: "10m",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func defaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "ehsbot")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "data"
	}
	return filepath.Join(home, ".local", "share", "ehsbot")
}

// Load builds the configuration from defaults plus EHSBOT_* environment
// overrides. The management API token is the one required value.
func Load() (Config, error) {
	cfg := defaults()
	applyEnvOverrides(&cfg)

	if cfg.Bot.APIToken == "" {
		return Config{}, fmt.Errorf("missing required config: management API token. Set it via environment variable EHSBOT_API_TOKEN")
	}

	return cfg, nil
}
