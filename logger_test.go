package rlog

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

// createTestLogger builds a running logger whose console and diagnostics go to buffers
func createTestLogger(t *testing.T, modify func(*Config)) (*Logger, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	console := &bytes.Buffer{}
	diag := &bytes.Buffer{}

	cfg := DefaultConfig()
	cfg.Pattern = "[%l] %v"
	cfg.FlushIntervalMs = 0
	if modify != nil {
		modify(cfg)
	}

	logger := New(cfg, WithConsoleWriter(console), WithDiagnostics(diag))
	t.Cleanup(func() { _ = logger.Shutdown() })
	return logger, console, diag
}

func TestNewLoggerIsInert(t *testing.T) {
	console := &bytes.Buffer{}
	logger := NewLogger(WithConsoleWriter(console))

	assert.Equal(t, StateUninitialized, logger.State())
	assert.Nil(t, logger.Sinks())
	assert.Nil(t, logger.Resolved())

	assert.NotPanics(t, func() {
		logger.Info("ignored")
		logger.Fatal("ignored")
	})
	assert.NoError(t, logger.Flush())
	assert.Empty(t, console.String())
}

func TestNewWithDefaults(t *testing.T) {
	logger, console, diag := createTestLogger(t, nil)

	assert.Equal(t, StateRunning, logger.State())
	sinks := logger.Sinks()
	require.Len(t, sinks, 1)
	assert.Equal(t, SinkConsole, sinks[0].Kind)
	assert.True(t, sinks[0].FollowsGlobal)

	logger.Info("hello", "world", 42)
	require.NoError(t, logger.Flush())
	assert.Equal(t, "[INFO] hello world 42\n", console.String())
	assert.Empty(t, diag.String())
}

func TestLevelMethods(t *testing.T) {
	logger, console, _ := createTestLogger(t, func(c *Config) { c.Level = LevelTrace })

	logger.Trace("t")
	logger.Debug("d")
	logger.Info("i")
	logger.Warning("w")
	logger.Error("e")
	logger.Fatal("f")
	logger.Log(LevelWarning, "l")

	assert.Equal(t, "[TRACE] t\n[DEBUG] d\n[INFO] i\n[WARNING] w\n[ERROR] e\n[FATAL] f\n[WARNING] l\n", console.String())
}

func TestSetLogLevel(t *testing.T) {
	logger, console, _ := createTestLogger(t, nil)

	logger.SetLogLevel(LevelError)
	assert.Equal(t, LevelError, logger.GetLogLevel())
	assert.Equal(t, LevelError, logger.GetConfig().Level)

	logger.Info("x")
	require.NoError(t, logger.Flush())
	assert.Empty(t, console.String())

	logger.Error("y")
	require.NoError(t, logger.Flush())
	assert.Contains(t, console.String(), "y")
	assert.NotContains(t, console.String(), "x")
}

func TestSetLogLevelIgnoresUnknown(t *testing.T) {
	logger, _, diag := createTestLogger(t, nil)

	logger.SetLogLevel(3)
	assert.Equal(t, LevelInfo, logger.GetLogLevel())
	assert.Contains(t, diag.String(), "unknown log level")
}

func TestSinkThresholdsAreIndependent(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "app.log")
	logger, console, _ := createTestLogger(t, func(c *Config) {
		c.Path = logPath
		c.ConsoleLevel = "error"
		c.FileLevel = "debug"
	})

	logger.Debug("to file")
	logger.Info("also file")
	logger.Error("both")
	require.NoError(t, logger.Flush())

	assert.Equal(t, "[ERROR] both\n", console.String())
	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Equal(t, "[DEBUG] to file\n[INFO] also file\n[ERROR] both\n", string(data))

	// Fixed sink levels do not move with the global level
	logger.SetLogLevel(LevelFatal)
	logger.Debug("still file")
	require.NoError(t, logger.Flush())
	data, err = os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "still file")
}

func TestUnwritableDirectoryFallsBackToConsole(t *testing.T) {
	parent := filepath.Join(t.TempDir(), "readonly")
	require.NoError(t, os.WriteFile(parent, nil, filePermissions))

	var logger *Logger
	var diag *bytes.Buffer
	require.NotPanics(t, func() {
		logger, _, diag = createTestLogger(t, func(c *Config) {
			c.Path = filepath.Join(parent, "app.log")
		})
	})

	sinks := logger.Sinks()
	require.Len(t, sinks, 1)
	assert.Equal(t, SinkConsole, sinks[0].Kind)
	assert.True(t, logger.Resolved().FileUnavailable)
	assert.Equal(t, 1, strings.Count(diag.String(), "\n"), "one diagnostic: %s", diag.String())
	assert.Contains(t, diag.String(), "falling back to console")
}

func TestDiagnosticsCanBeSilenced(t *testing.T) {
	_, _, diag := createTestLogger(t, func(c *Config) {
		c.InternalErrorsToStderr = false
		c.QueueSize = -5
	})
	assert.Empty(t, diag.String())
}

func TestClampedConfigIsReported(t *testing.T) {
	logger, _, diag := createTestLogger(t, func(c *Config) {
		c.QueueSize = 0
		c.Level = 42
	})

	assert.ElementsMatch(t, []string{"queue_size", "level"}, logger.Resolved().Clamped)
	assert.Equal(t, LevelInfo, logger.GetLogLevel())
	assert.Contains(t, diag.String(), "queue_size")
}

func TestGoroutineIDToken(t *testing.T) {
	logger, console, _ := createTestLogger(t, func(c *Config) { c.Pattern = "%t|%v" })

	logger.Info("tagged")
	require.NoError(t, logger.Flush())
	assert.Equal(t, fmt.Sprintf("%d|tagged\n", goroutineID()), console.String())
}

func TestNameAndSanitization(t *testing.T) {
	logger, console, _ := createTestLogger(t, func(c *Config) {
		c.Name = "api"
		c.Pattern = "%n: %v"
		c.Sanitization = "strict"
	})

	logger.Info("line one\nline two")
	require.NoError(t, logger.Flush())
	assert.Equal(t, "api: line one line two\n", console.String())
}

type panickyStringer struct{}

func (panickyStringer) String() string { panic("boom") }

func TestLoggingNeverPanics(t *testing.T) {
	logger, console, diag := createTestLogger(t, nil)

	assert.NotPanics(t, func() {
		logger.Info("value", panickyStringer{})
	})
	assert.Contains(t, diag.String(), "recovered from panic")

	// Logger keeps working
	logger.Info("after")
	require.NoError(t, logger.Flush())
	assert.Contains(t, console.String(), "after")
}

func TestApplyOverride(t *testing.T) {
	logger, _, _ := createTestLogger(t, nil)

	err := logger.ApplyOverride("level=debug", "queue_size=64", "async=true", "name=over")
	require.NoError(t, err)

	cfg := logger.GetConfig()
	assert.Equal(t, LevelDebug, cfg.Level)
	assert.Equal(t, int64(64), cfg.QueueSize)
	assert.True(t, cfg.Async)
	assert.Equal(t, "over", cfg.Name)
	assert.Equal(t, StateRunning, logger.State())
}

func TestApplyOverrideErrors(t *testing.T) {
	logger, _, _ := createTestLogger(t, nil)

	err := logger.ApplyOverride("nosuchkey=1")
	assert.ErrorContains(t, err, "unknown configuration key")

	err = logger.ApplyOverride("max_files=many", "async=perhaps")
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
	assert.Contains(t, err.Error(), "max_files")
	assert.Contains(t, err.Error(), "async")

	// Nothing was applied
	assert.Equal(t, int64(5), logger.GetConfig().MaxFiles)
}

func TestBuilder(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "built.log")
	console := &bytes.Buffer{}

	logger, err := NewBuilder().
		Name("built").
		Path(logPath).
		LevelString("debug").
		ConsoleLevel("warning").
		Pattern("%v").
		MaxFileSize(4096).
		MaxFiles(2).
		RotationRetries(1, 0).
		Async(true).
		QueueSize(32).
		OverflowPolicy(OverflowDrop).
		FlushIntervalMs(0).
		Options(WithConsoleWriter(console)).
		Build()
	require.NoError(t, err)
	defer logger.Shutdown()

	cfg := logger.GetConfig()
	assert.Equal(t, "built", cfg.Name)
	assert.Equal(t, LevelDebug, cfg.Level)
	assert.Equal(t, "warning", cfg.ConsoleLevel)
	assert.Equal(t, int64(4096), cfg.MaxFileSize)
	assert.Equal(t, int64(1), cfg.RotationRetries)
	assert.True(t, cfg.Async)
	assert.Equal(t, OverflowDrop, cfg.OverflowPolicy)
	require.Len(t, logger.Sinks(), 2)

	logger.Debug("file only")
	require.NoError(t, logger.Flush())
	assert.Empty(t, console.String())
}

func TestBuilderErrors(t *testing.T) {
	_, err := NewBuilder().LevelString("loud").Build()
	assert.Error(t, err)

	_, err = NewBuilder().FileLevel("quiet").Build()
	assert.Error(t, err)

	cfg := NewBuilder().MaxSizeMB(2).Config()
	assert.Equal(t, int64(2*1024*1024), cfg.MaxFileSize)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("device unavailable")
}

func TestProcessedCountsOnlyWrittenRecords(t *testing.T) {
	diag := &bytes.Buffer{}
	cfg := DefaultConfig()
	cfg.Pattern = "%v"
	cfg.FlushIntervalMs = 0

	logger := New(cfg, WithConsoleWriter(failingWriter{}), WithDiagnostics(diag))
	t.Cleanup(func() { _ = logger.Shutdown() })

	logger.Info("lost")
	assert.Zero(t, logger.Stats().Processed)
	assert.Contains(t, diag.String(), "failed to write to console sink")

	// One healthy sink is enough
	path := filepath.Join(t.TempDir(), "app.log")
	cfg.Path = path
	require.NoError(t, logger.SetConfig(cfg))
	logger.Info("kept")
	assert.Equal(t, uint64(1), logger.Stats().Processed)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "kept\n", string(data))
}
