// Package config loads the server configuration from a TOML file.
package config

import (
	"io"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"timed-cache/internal/logs"
	"timed-cache/internal/timedmap"
)

// Config is the root of the TOML document.
type Config struct {
	Server ServerConfig `toml:"server"`
	Cache  CacheConfig  `toml:"cache"`
	Log    LogConfig    `toml:"log"`
}

type ServerConfig struct {
	Addr            string   `toml:"addr"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
}

type CacheConfig struct {
	Backend         timedmap.BackendKind `toml:"backend"`
	SweepTickCap    int                  `toml:"sweep_tick_cap"`
	CleanupInterval Duration             `toml:"cleanup_interval"`
	// DefaultTTL applies to writes that carry no ttl; zero keeps them constant.
	DefaultTTL Duration `toml:"default_ttl"`
}

type LogConfig struct {
	Level      string `toml:"level"`
	BufferSize int    `toml:"buffer_size"`
}

// Duration decodes TOML strings such as "5s" or "1m30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return errors.Wrapf(err, "invalid duration %q", string(text))
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: Duration{5 * time.Second},
		},
		Cache: CacheConfig{
			Backend:         timedmap.HashBackend,
			SweepTickCap:    timedmap.DefaultConfig().SweepTickCap,
			CleanupInterval: Duration{5 * time.Second},
		},
		Log: LogConfig{
			Level:      string(logs.INFO),
			BufferSize: 1000,
		},
	}
}

// Load reads path on top of the defaults. An empty path yields Default().
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "open config")
	}
	defer f.Close()

	return Parse(f)
}

// Parse decodes a TOML document on top of the defaults and validates it.
func Parse(r io.Reader) (Config, error) {
	cfg := Default()

	md, err := toml.NewDecoder(r).Decode(&cfg)
	if err != nil {
		return Config{}, errors.Wrap(err, "unable to decode toml")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, errors.Errorf("unknown config keys: %v", undecoded)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var err error

	if c.Server.Addr == "" {
		err = multierr.Append(err, errors.New("server.addr must not be empty"))
	}
	if c.Server.ShutdownTimeout.Duration < 0 {
		err = multierr.Append(err, errors.New("server.shutdown_timeout must not be negative"))
	}

	switch c.Cache.Backend {
	case timedmap.HashBackend, timedmap.OrderedBackend:
	default:
		err = multierr.Append(err, errors.Errorf("cache.backend %q must be %q or %q",
			c.Cache.Backend, timedmap.HashBackend, timedmap.OrderedBackend))
	}
	if c.Cache.SweepTickCap < 1 {
		err = multierr.Append(err, errors.New("cache.sweep_tick_cap must be at least 1"))
	}
	if c.Cache.CleanupInterval.Duration <= 0 {
		err = multierr.Append(err, errors.New("cache.cleanup_interval must be positive"))
	}
	if c.Cache.DefaultTTL.Duration < 0 {
		err = multierr.Append(err, errors.New("cache.default_ttl must not be negative"))
	}

	if _, lerr := logs.ParseLevel(c.Log.Level); lerr != nil {
		err = multierr.Append(err, errors.Wrap(lerr, "log.level"))
	}
	if c.Log.BufferSize < 1 {
		err = multierr.Append(err, errors.New("log.buffer_size must be at least 1"))
	}

	return err
}
