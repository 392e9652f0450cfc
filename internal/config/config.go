// Package config loads the cachefrontd YAML configuration: listen socket,
// store backend, and per-pattern TTL routes. Strategy policies stay in code
// (they need origin callbacks); the daemon's routes only carry TTLs.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/leonardcser/cachefront/pattern"
)

type Config struct {
	// Listen is the unix socket path; empty selects the default under the
	// user cache dir.
	Listen string `yaml:"listen"`
	// Log is the log file path; empty selects the CACHEFRONTD_LOG default.
	Log string `yaml:"log"`

	Store    Store   `yaml:"store"`
	Defaults Policy  `yaml:"defaults"`
	Routes   []Route `yaml:"routes"`
}

type Store struct {
	// Backend is "memory" (default), "bolt" or "redis".
	Backend string `yaml:"backend"`
	// Path is the bolt database file (bolt backend).
	Path string `yaml:"path"`
	// RedisURL and RedisPrefix configure the redis backend.
	RedisURL    string `yaml:"redis_url"`
	RedisPrefix string `yaml:"redis_prefix"`
}

type Policy struct {
	// TTLSeconds applies to entries stored without an explicit TTL and
	// without a more specific route; 0 never expires.
	TTLSeconds int64 `yaml:"ttl"`
}

type Route struct {
	Pattern    string `yaml:"pattern"`
	TTLSeconds int64  `yaml:"ttl"`
}

func (p Policy) TTL() time.Duration { return time.Duration(p.TTLSeconds) * time.Second }

func (r Route) TTL() time.Duration { return time.Duration(r.TTLSeconds) * time.Second }

// Load reads and validates the config at path. An empty path yields the
// zero-value defaults.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Backend {
	case "", "memory":
	case "bolt":
		if c.Store.Path == "" {
			return fmt.Errorf("config: bolt backend requires store.path")
		}
	case "redis":
		if c.Store.RedisURL == "" {
			return fmt.Errorf("config: redis backend requires store.redis_url")
		}
	default:
		return fmt.Errorf("config: unknown store backend %q", c.Store.Backend)
	}
	for _, r := range c.Routes {
		if !pattern.Validate(r.Pattern) {
			return fmt.Errorf("config: invalid route pattern %q", r.Pattern)
		}
		if r.TTLSeconds < 0 {
			return fmt.Errorf("config: negative ttl for route %q", r.Pattern)
		}
	}
	if c.Defaults.TTLSeconds < 0 {
		return fmt.Errorf("config: negative default ttl")
	}
	return nil
}
