package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const appName = "stackbrowse"

// Config holds stackbrowse configuration.
type Config struct {
	Theme          string       `koanf:"theme"`
	MaxDepth       int          `koanf:"max_depth"`        // per-stack page limit, 0 = unbounded
	TitleCacheSize int          `koanf:"title_cache_size"` // remembered url -> title pairs
	ActivityLimit  int          `koanf:"activity_limit"`   // kept activity log entries
	ActivityDB     string       `koanf:"activity_db"`      // sqlite file, empty = in memory
	LogLevel       string       `koanf:"log_level"`        // debug, info, warn, error
	LogFile        string       `koanf:"log_file"`         // TUI log destination, empty = discard
	Remote         string       `koanf:"remote"`           // base URL of a server to drive from the TUI
	Server         ServerConfig `koanf:"server"`

	path string
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Addr string `koanf:"addr"`
	CORS bool   `koanf:"cors"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Theme:          "default",
		MaxDepth:       100,
		TitleCacheSize: 256,
		ActivityLimit:  DefaultActivityLimit,
		LogLevel:       "info",
		Server: ServerConfig{
			Addr: "127.0.0.1:8000",
			CORS: true,
		},
	}
}

// LoadConfig loads configuration. With an explicit path only that file is
// read and it must exist. Otherwise ConfigPaths are tried in order, later
// files overriding earlier ones, and missing files are skipped.
func LoadConfig(explicitPath string) (*Config, error) {
	k := koanf.New(".")

	var loaded string
	if explicitPath != "" {
		path := expandPath(explicitPath)
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config %s: %w", path, err)
		}
		loaded = path
	} else {
		for _, path := range ConfigPaths() {
			if _, err := os.Stat(path); err != nil {
				continue
			}
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, fmt.Errorf("loading config %s: %w", path, err)
			}
			loaded = path
		}
	}

	cfg := DefaultConfig()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.path = loaded

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Path returns the file the configuration came from, if any.
func (c *Config) Path() string {
	return c.path
}

func (c *Config) normalize() error {
	if c.MaxDepth < 0 {
		return fmt.Errorf("max_depth must not be negative, got %d", c.MaxDepth)
	}
	if c.TitleCacheSize <= 0 {
		c.TitleCacheSize = DefaultConfig().TitleCacheSize
	}
	if c.ActivityLimit <= 0 {
		c.ActivityLimit = DefaultActivityLimit
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.ActivityDB != "" && c.ActivityDB != MemoryDB {
		c.ActivityDB = expandPath(c.ActivityDB)
	}
	if c.LogFile != "" {
		c.LogFile = expandPath(c.LogFile)
	}
	c.Remote = strings.TrimSuffix(strings.TrimSpace(c.Remote), "/")
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultConfig().Server.Addr
	}
	return nil
}

// ConfigPaths returns the config files consulted by LoadConfig, lowest
// priority first.
func ConfigPaths() []string {
	return []string{
		filepath.Join(xdg.ConfigHome, appName, "config.toml"),
		"config.toml",
	}
}

// WriteDefault writes the default configuration as TOML to path. It refuses
// to overwrite an existing file.
func WriteDefault(path string) error {
	path = expandPath(path)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config %s already exists", path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("checking config: %w", err)
	}

	d := DefaultConfig()
	data, err := toml.Parser().Marshal(map[string]interface{}{
		"theme":            d.Theme,
		"max_depth":        d.MaxDepth,
		"title_cache_size": d.TitleCacheSize,
		"activity_limit":   d.ActivityLimit,
		"activity_db":      d.ActivityDB,
		"log_level":        d.LogLevel,
		"log_file":         d.LogFile,
		"remote":           d.Remote,
		"server": map[string]interface{}{
			"addr": d.Server.Addr,
			"cors": d.Server.CORS,
		},
	})
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
