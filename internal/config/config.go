// Package config loads application configuration from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

// Config holds everything the CLI and services need to talk to the
// spreadsheet and identity endpoints. Base URLs are overridable for tests.
type Config struct {
	ClientID      string `env:"TANKLOG_GOOGLE_CLIENT_ID"`
	ClientSecret  string `env:"TANKLOG_GOOGLE_CLIENT_SECRET"`
	SpreadsheetID string `env:"TANKLOG_SPREADSHEET_ID"`
	StateDir      string `env:"TANKLOG_STATE_DIR"`
	SheetsBaseURL string `env:"TANKLOG_SHEETS_BASE_URL" envDefault:"https://sheets.googleapis.com/v4/spreadsheets"`
	UserinfoURL   string `env:"TANKLOG_USERINFO_URL" envDefault:"https://openidconnect.googleapis.com/v1/userinfo"`
	DeviceAuthURL string `env:"TANKLOG_DEVICE_AUTH_URL" envDefault:"https://oauth2.googleapis.com/device/code"`
	TokenURL      string `env:"TANKLOG_TOKEN_URL" envDefault:"https://oauth2.googleapis.com/token"`
	RevokeURL     string `env:"TANKLOG_REVOKE_URL" envDefault:"https://oauth2.googleapis.com/revoke"`
}

// Load parses the environment and fills in the default state directory.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.StateDir == "" {
		cfg.StateDir = defaultStateDir()
	}
	return cfg, nil
}

func defaultStateDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "tanklog")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "tanklog")
}
