// Package config loads farepanel configuration from an optional TOML file
// with FAREPANEL_* environment variable overrides.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds the daemon configuration. Environment variables override
// file values; file values override defaults.
type Config struct {
	APIBaseURL      string
	CardNumber      string
	Password        string
	RefreshInterval time.Duration
	ListenAddr      string
	DBPath          string
	SecretKeyHex    string
}

const (
	defaultConfigPath      = "~/.config/farepanel/config.toml"
	defaultListenAddr      = "127.0.0.1:8350"
	defaultDBPath          = "farepanel.db"
	defaultRefreshInterval = 5 * time.Minute
)

// fileConfig mirrors the TOML file shape.
type fileConfig struct {
	APIBaseURL      string `toml:"api_base_url"`
	CardNumber      string `toml:"card_number"`
	Password        string `toml:"password"`
	RefreshInterval string `toml:"refresh_interval"`
	ListenAddr      string `toml:"listen_addr"`
	DBPath          string `toml:"db_path"`
}

// HasCredential returns true when both card number and password are
// configured. Used by the composition root to decide whether to create a
// fare client at startup or wait for credentials via the local API.
func (c *Config) HasCredential() bool {
	return strings.TrimSpace(c.CardNumber) != "" && strings.TrimSpace(c.Password) != ""
}

// SecretKey decodes the hex-encoded AES-256 key, or returns nil when no
// key is configured (credential persistence disabled).
func (c *Config) SecretKey() ([]byte, error) {
	if c.SecretKeyHex == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(c.SecretKeyHex)
	if err != nil {
		return nil, fmt.Errorf("FAREPANEL_SECRET_KEY is not valid hex: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("FAREPANEL_SECRET_KEY must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}

// Load reads the TOML file at path (default ~/.config/farepanel/config.toml,
// a missing file is not an error), then applies FAREPANEL_* environment
// overrides. Credentials are optional; if absent the daemon starts signed
// out until the local API provides them.
func Load(path string) (*Config, error) {
	cfg := &Config{
		ListenAddr:      defaultListenAddr,
		DBPath:          defaultDBPath,
		RefreshInterval: defaultRefreshInterval,
	}

	resolved, err := resolvePath(path)
	if err != nil {
		return nil, err
	}

	if err := applyFile(cfg, resolved); err != nil {
		return nil, err
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}

	var raw fileConfig
	if err := toml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	setIfPresent(&cfg.APIBaseURL, raw.APIBaseURL)
	setIfPresent(&cfg.CardNumber, raw.CardNumber)
	setIfPresent(&cfg.Password, raw.Password)
	setIfPresent(&cfg.ListenAddr, raw.ListenAddr)
	setIfPresent(&cfg.DBPath, raw.DBPath)

	if v := strings.TrimSpace(raw.RefreshInterval); v != "" {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("refresh_interval has invalid duration %q: %w", v, err)
		}
		cfg.RefreshInterval = parsed
	}

	return nil
}

func applyEnv(cfg *Config) error {
	setIfPresent(&cfg.APIBaseURL, os.Getenv("FAREPANEL_API_BASE_URL"))
	setIfPresent(&cfg.CardNumber, os.Getenv("FAREPANEL_CARD_NUMBER"))
	setIfPresent(&cfg.Password, os.Getenv("FAREPANEL_PASSWORD"))
	setIfPresent(&cfg.ListenAddr, os.Getenv("FAREPANEL_LISTEN_ADDR"))
	setIfPresent(&cfg.DBPath, os.Getenv("FAREPANEL_DB_PATH"))
	setIfPresent(&cfg.SecretKeyHex, os.Getenv("FAREPANEL_SECRET_KEY"))

	if v, ok := os.LookupEnv("FAREPANEL_REFRESH_INTERVAL"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("FAREPANEL_REFRESH_INTERVAL has invalid duration %q: %w", v, err)
		}
		cfg.RefreshInterval = parsed
	}

	return nil
}

func setIfPresent(dst *string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		*dst = v
	}
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		path = defaultConfigPath
	}
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path, nil
}
