package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"timed-cache/internal/timedmap"
)

func TestDefault_IsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestLoad_EmptyPathReturnsDefault(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParse_OverridesDefaults(t *testing.T) {
	doc := `
[server]
addr = "127.0.0.1:9000"

[cache]
backend = "ordered"
sweep_tick_cap = 16
cleanup_interval = "1m30s"
default_ttl = "10s"

[log]
level = "debug"
`
	cfg, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout.Duration)
	assert.Equal(t, timedmap.OrderedBackend, cfg.Cache.Backend)
	assert.Equal(t, 16, cfg.Cache.SweepTickCap)
	assert.Equal(t, 90*time.Second, cfg.Cache.CleanupInterval.Duration)
	assert.Equal(t, 10*time.Second, cfg.Cache.DefaultTTL.Duration)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 1000, cfg.Log.BufferSize)
}

func TestParse_InvalidDuration(t *testing.T) {
	_, err := Parse(strings.NewReader("[cache]\ncleanup_interval = \"soon\"\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duration")
}

func TestParse_UnknownKey(t *testing.T) {
	_, err := Parse(strings.NewReader("[cache]\nshards = 4\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache.shards")
}

func TestParse_MalformedTOML(t *testing.T) {
	_, err := Parse(strings.NewReader("[cache\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unable to decode toml")
}

func TestValidate_CollectsEveryError(t *testing.T) {
	cfg := Default()
	cfg.Server.Addr = ""
	cfg.Cache.Backend = "skiplist"
	cfg.Cache.SweepTickCap = 0
	cfg.Log.Level = "loud"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 4)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.toml")
	require.NoError(t, os.WriteFile(path, []byte("[log]\nbuffer_size = 10\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Log.BufferSize)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}
