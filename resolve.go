package rlog

import (
	"os"
	"path/filepath"
	"time"

	"github.com/lixenwraith/rlog/sanitizer"
)

// ResolvedConfig is a normalized, bounded configuration. It is never mutated
// after Resolve returns.
type ResolvedConfig struct {
	Config

	// Field names (toml keys) that were replaced by safe values
	Clamped []string
	// Per-sink thresholds after name resolution
	ConsoleThreshold sinkThreshold
	FileThreshold    sinkThreshold

	// Set when the probe of the log directory failed
	FileUnavailable bool
	ProbeErr        error
}

// sinkThreshold is either a fixed level or "follow the global level"
type sinkThreshold struct {
	Level  int64
	Follow bool
}

// Resolve validates and normalizes raw. It never fails: out-of-range values
// are replaced by defaults and listed in Clamped. When a file path is set it
// probes the directory; probe failure only marks the file sink unavailable.
func Resolve(raw *Config) *ResolvedConfig {
	rc := &ResolvedConfig{}
	if raw == nil {
		rc.Config = *DefaultConfig()
	} else {
		rc.Config = *raw
	}
	c := &rc.Config
	d := &defaultConfig

	clamp := func(key string) {
		rc.Clamped = append(rc.Clamped, key)
	}

	if !isKnownLevel(c.Level) {
		c.Level = LevelInfo
		clamp("level")
	}
	if c.Name == "" {
		c.Name = d.Name
		clamp("name")
	}
	if c.ConsoleTarget != ConsoleStdout && c.ConsoleTarget != ConsoleStderr {
		c.ConsoleTarget = d.ConsoleTarget
		clamp("console_target")
	}
	rc.ConsoleThreshold = resolveSinkLevel(c.ConsoleLevel, "console_level", clamp)
	rc.FileThreshold = resolveSinkLevel(c.FileLevel, "file_level", clamp)

	if c.Pattern == "" {
		c.Pattern = d.Pattern
		clamp("pattern")
	}
	if !sanitizer.IsPolicy(c.Sanitization) {
		c.Sanitization = d.Sanitization
		clamp("sanitization")
	}

	if c.MaxFileSize <= 0 {
		c.MaxFileSize = d.MaxFileSize
		clamp("max_file_size")
	}
	if c.MaxFiles < 1 {
		c.MaxFiles = d.MaxFiles
		clamp("max_files")
	}
	if c.RotationRetries < 0 {
		c.RotationRetries = d.RotationRetries
		clamp("rotation_retries")
	}
	if c.RotationRetryDelayMs < 0 {
		c.RotationRetryDelayMs = d.RotationRetryDelayMs
		clamp("rotation_retry_delay_ms")
	}

	if c.QueueSize <= 0 {
		c.QueueSize = d.QueueSize
		clamp("queue_size")
	}
	if c.Workers <= 0 {
		c.Workers = d.Workers
		clamp("workers")
	}
	if c.OverflowPolicy != OverflowBlock && c.OverflowPolicy != OverflowDrop {
		c.OverflowPolicy = d.OverflowPolicy
		clamp("overflow_policy")
	}

	if c.FlushIntervalMs < 0 {
		c.FlushIntervalMs = d.FlushIntervalMs
		clamp("flush_interval_ms")
	}
	if !isKnownLevel(c.FlushLevel) {
		c.FlushLevel = d.FlushLevel
		clamp("flush_level")
	}
	if c.FlushTimeoutMs < 0 {
		c.FlushTimeoutMs = 0
		clamp("flush_timeout_ms")
	}
	if c.ShutdownTimeoutMs < 0 {
		c.ShutdownTimeoutMs = 0
		clamp("shutdown_timeout_ms")
	}

	if c.Path != "" {
		if err := probeLogDirectory(c.Path); err != nil {
			rc.FileUnavailable = true
			rc.ProbeErr = err
		}
	}

	return rc
}

func resolveSinkLevel(name, key string, clamp func(string)) sinkThreshold {
	if name == "" {
		return sinkThreshold{Follow: true}
	}
	lvl, err := Level(name)
	if err != nil {
		clamp(key)
		return sinkThreshold{Follow: true}
	}
	return sinkThreshold{Level: lvl}
}

// probeLogDirectory creates the directory of path if missing, then writes and
// removes a marker file to prove it is writable.
func probeLogDirectory(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return fmtErrorf("failed to create log directory '%s': %w", dir, err)
	}

	marker, err := os.CreateTemp(dir, probeFilePrefix+"*")
	if err != nil {
		return fmtErrorf("log directory '%s' is not writable: %w", dir, err)
	}
	name := marker.Name()

	_, writeErr := marker.Write([]byte("probe\n"))
	closeErr := marker.Close()
	removeErr := os.Remove(name)
	if err := combineErrors(writeErr, closeErr); err != nil {
		return fmtErrorf("log directory '%s' is not writable: %w", dir, err)
	}
	if removeErr != nil {
		return fmtErrorf("failed to remove probe file '%s': %w", name, removeErr)
	}
	return nil
}

// flushTimeout returns the configured Flush bound, 0 meaning none
func (rc *ResolvedConfig) flushTimeout() time.Duration {
	return time.Duration(rc.FlushTimeoutMs) * time.Millisecond
}

// shutdownTimeout returns the configured drain bound, 0 meaning none
func (rc *ResolvedConfig) shutdownTimeout() time.Duration {
	return time.Duration(rc.ShutdownTimeoutMs) * time.Millisecond
}
