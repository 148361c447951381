package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Server  ServerConfig  `toml:"server"`
	RPC     RPCConfig     `toml:"rpc"`
	Indexer IndexerConfig `toml:"indexer"`
}

type ServerConfig struct {
	Port int `toml:"port"`
}

type RPCConfig struct {
	BaseURL string `toml:"base_url"`
}

type IndexerConfig struct {
	BatchSize         int  `toml:"batch_size"`
	KeepAlive         bool `toml:"keep_alive"`
	KeepAliveInterval int  `toml:"keep_alive_interval"`
}

// Load reads <dir>/default.toml and merges an optional <dir>/local.toml
// on top of it.
func Load(dir string) (*Config, error) {
	data, err := os.ReadFile(filepath.Join(dir, "default.toml"))
	if err != nil {
		return nil, fmt.Errorf("failed to read default config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse default config: %w", err)
	}

	if local, err := os.ReadFile(filepath.Join(dir, "local.toml")); err == nil {
		if err := toml.Unmarshal(local, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse local config: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read local config: %w", err)
	}

	if cfg.Indexer.BatchSize == 0 {
		cfg.Indexer.BatchSize = 25
	}
	if cfg.Indexer.KeepAliveInterval == 0 {
		cfg.Indexer.KeepAliveInterval = 5
	}

	return &cfg, nil
}

// DatabasePath resolves the on-disk SQLite file for the configured RPC
// endpoint. Each endpoint gets its own directory under the user data dir,
// named after the host (plus "_port" when one is present), so databases
// built from different nodes never mix.
func (c *Config) DatabasePath() (string, error) {
	u, err := url.Parse(c.RPC.BaseURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse rpc base url: %w", err)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("rpc base url %q has no host", c.RPC.BaseURL)
	}

	name := u.Hostname()
	if port := u.Port(); port != "" {
		name = name + "_" + port
	}

	base, err := dataDir()
	if err != nil {
		return "", err
	}

	dir := filepath.Join(base, "shrike", name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create data dir: %w", err)
	}

	return filepath.Join(dir, "shrike.db3"), nil
}

// dataDir resolves the platform user data directory the same way the
// directories conventions do: Application Support on macOS, LOCALAPPDATA
// on Windows, XDG_DATA_HOME elsewhere.
func dataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home dir: %w", err)
	}

	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support"), nil
	case "windows":
		if dir := os.Getenv("LOCALAPPDATA"); dir != "" {
			return dir, nil
		}
		return filepath.Join(home, "AppData", "Local"), nil
	default:
		if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
			return dir, nil
		}
		return filepath.Join(home, ".local", "share"), nil
	}
}
