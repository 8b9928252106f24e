package rlog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveNilUsesDefaults(t *testing.T) {
	rc := Resolve(nil)
	assert.Equal(t, *DefaultConfig(), rc.Config)
	assert.Empty(t, rc.Clamped)
	assert.True(t, rc.ConsoleThreshold.Follow)
	assert.True(t, rc.FileThreshold.Follow)
	assert.False(t, rc.FileUnavailable)
}

func TestResolveClampsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		key    string
		check  func(*testing.T, *ResolvedConfig)
	}{
		{"unknown level", func(c *Config) { c.Level = 5 }, "level",
			func(t *testing.T, rc *ResolvedConfig) { assert.Equal(t, LevelInfo, rc.Level) }},
		{"zero queue", func(c *Config) { c.QueueSize = 0 }, "queue_size",
			func(t *testing.T, rc *ResolvedConfig) { assert.Equal(t, int64(8192), rc.QueueSize) }},
		{"no backups", func(c *Config) { c.MaxFiles = 0 }, "max_files",
			func(t *testing.T, rc *ResolvedConfig) { assert.Equal(t, int64(5), rc.MaxFiles) }},
		{"negative size", func(c *Config) { c.MaxFileSize = -1 }, "max_file_size",
			func(t *testing.T, rc *ResolvedConfig) { assert.Equal(t, int64(10*1024*1024), rc.MaxFileSize) }},
		{"empty pattern", func(c *Config) { c.Pattern = "" }, "pattern",
			func(t *testing.T, rc *ResolvedConfig) { assert.Equal(t, DefaultPattern, rc.Pattern) }},
		{"no workers", func(c *Config) { c.Workers = -3 }, "workers",
			func(t *testing.T, rc *ResolvedConfig) { assert.Equal(t, int64(1), rc.Workers) }},
		{"bad target", func(c *Config) { c.ConsoleTarget = "printer" }, "console_target",
			func(t *testing.T, rc *ResolvedConfig) { assert.Equal(t, ConsoleStdout, rc.ConsoleTarget) }},
		{"bad policy", func(c *Config) { c.OverflowPolicy = "spill" }, "overflow_policy",
			func(t *testing.T, rc *ResolvedConfig) { assert.Equal(t, OverflowBlock, rc.OverflowPolicy) }},
		{"bad sanitizer", func(c *Config) { c.Sanitization = "html" }, "sanitization",
			func(t *testing.T, rc *ResolvedConfig) { assert.Equal(t, "txt", rc.Sanitization) }},
		{"negative timeout", func(c *Config) { c.ShutdownTimeoutMs = -1 }, "shutdown_timeout_ms",
			func(t *testing.T, rc *ResolvedConfig) { assert.Equal(t, int64(0), rc.ShutdownTimeoutMs) }},
		{"bad flush level", func(c *Config) { c.FlushLevel = 99 }, "flush_level",
			func(t *testing.T, rc *ResolvedConfig) { assert.Equal(t, LevelError, rc.FlushLevel) }},
		{"bad sink level", func(c *Config) { c.FileLevel = "loud" }, "file_level",
			func(t *testing.T, rc *ResolvedConfig) { assert.True(t, rc.FileThreshold.Follow) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			rc := Resolve(cfg)
			assert.Equal(t, []string{tt.key}, rc.Clamped)
			tt.check(t, rc)
		})
	}
}

func TestResolveDoesNotMutateInput(t *testing.T) {
	cfg := DefaultConfig()
	cfg.QueueSize = -1
	_ = Resolve(cfg)
	assert.Equal(t, int64(-1), cfg.QueueSize)
}

func TestResolveSinkLevels(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ConsoleLevel = "warning"
	rc := Resolve(cfg)

	assert.Equal(t, sinkThreshold{Level: LevelWarning}, rc.ConsoleThreshold)
	assert.True(t, rc.FileThreshold.Follow)
}

func TestResolveProbeCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	cfg := DefaultConfig()
	cfg.Path = filepath.Join(dir, "app.log")

	rc := Resolve(cfg)
	require.False(t, rc.FileUnavailable, "probe error: %v", rc.ProbeErr)
	assert.DirExists(t, dir)

	// Marker file is gone
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestResolveProbeUnwritable(t *testing.T) {
	// A regular file where a directory is needed fails even for root
	parent := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(parent, []byte("x"), filePermissions))

	cfg := DefaultConfig()
	cfg.Path = filepath.Join(parent, "logs", "app.log")

	rc := Resolve(cfg)
	assert.True(t, rc.FileUnavailable)
	assert.Error(t, rc.ProbeErr)
	assert.Empty(t, rc.Clamped)
}
