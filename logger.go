package rlog

import (
	"errors"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Logger is the core struct that encapsulates all logger functionality
type Logger struct {
	// lifecycleMu serializes SetConfig and Shutdown
	lifecycleMu sync.Mutex

	// pipeMu guards pipe. Logging calls and Flush hold it shared, pipeline
	// replacement holds it exclusively so no record is lost in between.
	pipeMu  sync.RWMutex
	pipe    *pipeline
	retired retiredCounters
	levelMu sync.Mutex

	state             atomic.Int32
	shutdownRequested atomic.Bool
	level             atomic.Int64 // global threshold
	gate              atomic.Int64 // lowest threshold of any sink
	config            atomic.Pointer[Config]
	resolved          atomic.Pointer[ResolvedConfig]
	processed         atomic.Uint64
	diagEnabled       atomic.Bool

	opts options
}

type options struct {
	pool    *WorkerPool
	console io.Writer
	diag    io.Writer
}

// Option customizes a Logger at construction
type Option func(*options)

// WithPool runs async drain tasks on a shared pool. The logger holds its own
// reference for as long as an async pipeline is active.
func WithPool(pool *WorkerPool) Option {
	return func(o *options) {
		o.pool = pool
	}
}

// WithConsoleWriter replaces stdout/stderr as the console sink destination
func WithConsoleWriter(w io.Writer) Option {
	return func(o *options) {
		o.console = w
	}
}

// WithDiagnostics redirects internal diagnostics, stderr by default. A nil
// writer discards them.
func WithDiagnostics(w io.Writer) Option {
	return func(o *options) {
		if w == nil {
			w = io.Discard
		}
		o.diag = w
	}
}

// NewLogger creates an unconfigured Logger. Logging calls are no-ops until
// SetConfig succeeds.
func NewLogger(opts ...Option) *Logger {
	l := &Logger{}
	l.opts.diag = os.Stderr
	for _, opt := range opts {
		opt(&l.opts)
	}

	cfg := DefaultConfig()
	l.config.Store(cfg)
	l.level.Store(cfg.Level)
	l.gate.Store(LevelFatal + 1)
	l.diagEnabled.Store(cfg.InternalErrorsToStderr)
	l.state.Store(int32(StateUninitialized))
	return l
}

// New creates a running Logger from cfg, nil meaning defaults. Problems with
// cfg are absorbed: invalid values are replaced (see Resolved().Clamped) and
// an unusable file path falls back to console output.
func New(cfg *Config, opts ...Option) *Logger {
	l := NewLogger(opts...)
	if cfg == nil {
		cfg = DefaultConfig()
	}
	// Fresh logger: neither ErrStopped nor a drain timeout is possible
	_ = l.SetConfig(cfg)
	return l
}

// SetConfig drains and closes the current pipeline, then builds a new one
// from cfg. It fails only for a nil config, a stopped logger, or when the
// old queue does not drain within shutdown_timeout_ms; in the last case the
// previous pipeline keeps running.
func (l *Logger) SetConfig(cfg *Config) error {
	if cfg == nil {
		return ErrNilConfig
	}

	l.lifecycleMu.Lock()
	defer l.lifecycleMu.Unlock()

	if l.shutdownRequested.Load() {
		return ErrStopped
	}

	rc := Resolve(cfg)

	l.pipeMu.Lock()
	defer l.pipeMu.Unlock()

	if old := l.pipe; old != nil {
		prev := l.State()
		l.setState(StateDraining)
		if err := old.stop(old.rc.shutdownTimeout()); err != nil {
			if errors.Is(err, ErrTimeout) {
				l.setState(prev)
				return fmtErrorf("previous pipeline did not drain: %w", err)
			}
			l.internalLog("warning - failed to release previous pipeline: %v\n", err)
		}
		l.retired.add(old)
		l.pipe = nil
	}

	l.diagEnabled.Store(rc.InternalErrorsToStderr)
	l.config.Store(rc.Config.Clone())
	l.resolved.Store(rc)
	l.level.Store(rc.Level)
	l.setState(StateConfigured)

	if len(rc.Clamped) > 0 {
		l.internalLog("warning - invalid configuration values replaced by defaults: %v\n", rc.Clamped)
	}

	p := l.buildPipeline(rc)
	l.pipe = p
	l.gate.Store(p.minThreshold())
	p.start()
	l.setState(StateRunning)
	return nil
}

// buildPipeline assembles sinks and, for async configs, the pool reference
func (l *Logger) buildPipeline(rc *ResolvedConfig) *pipeline {
	sinks, errs := buildSinks(rc, sinkEnv{console: l.opts.console, diag: l.internalLog})
	for _, err := range errs {
		l.internalLog("warning - %v\n", err)
	}

	var pool *WorkerPool
	if rc.Async {
		if l.opts.pool != nil {
			pool = l.opts.pool.Retain()
		} else {
			wp, err := NewWorkerPool(int(rc.Workers))
			if err != nil {
				l.internalLog("warning - async dispatch unavailable, writing synchronously: %v\n", err)
			} else {
				pool = wp
			}
		}
	}

	return newPipeline(rc, sinks, pool, &l.processed, l.internalLog)
}

// Shutdown stops accepting records, delivers everything already queued and
// releases the sinks. Without an argument the configured shutdown_timeout_ms
// applies, 0 waiting indefinitely. On ErrTimeout the sinks stay open and
// Shutdown may be called again.
func (l *Logger) Shutdown(timeout ...time.Duration) error {
	l.lifecycleMu.Lock()
	defer l.lifecycleMu.Unlock()

	switch l.State() {
	case StateStopped:
		return nil
	case StateUninitialized:
		l.shutdownRequested.Store(true)
		l.setState(StateStopped)
		return nil
	}

	l.shutdownRequested.Store(true)
	// New records are refused from here on
	l.setState(StateDraining)

	l.pipeMu.Lock()
	defer l.pipeMu.Unlock()

	p := l.pipe
	if p == nil {
		l.setState(StateStopped)
		return nil
	}

	effectiveTimeout := p.rc.shutdownTimeout()
	if len(timeout) > 0 {
		effectiveTimeout = timeout[0]
	}

	err := p.stop(effectiveTimeout)
	if errors.Is(err, ErrTimeout) {
		return err
	}

	l.retired.add(p)
	l.pipe = nil
	l.gate.Store(LevelFatal + 1)
	l.setState(StateStopped)
	if err != nil {
		return fmtErrorf("failed to close sinks: %w", err)
	}
	return nil
}

// Flush waits until every record logged before the call reached the sinks,
// then syncs them. Without an argument the configured flush_timeout_ms
// applies, 0 waiting indefinitely.
func (l *Logger) Flush(timeout ...time.Duration) error {
	l.pipeMu.RLock()
	defer l.pipeMu.RUnlock()

	if l.State() == StateStopped {
		return ErrStopped
	}
	p := l.pipe
	if p == nil {
		return nil
	}

	effectiveTimeout := p.rc.flushTimeout()
	if len(timeout) > 0 {
		effectiveTimeout = timeout[0]
	}

	if p.disp != nil {
		if err := p.disp.waitIdle(effectiveTimeout); err != nil {
			return err
		}
	}
	if err := flushSinks(p.sinks); err != nil {
		return fmtErrorf("failed to flush sinks: %w", err)
	}
	return nil
}

// SetLogLevel changes the global threshold. Sinks without their own level
// follow it immediately.
func (l *Logger) SetLogLevel(level int64) {
	if !isKnownLevel(level) {
		l.internalLog("warning - ignoring unknown log level %d\n", level)
		return
	}

	l.pipeMu.RLock()
	defer l.pipeMu.RUnlock()
	l.levelMu.Lock()
	defer l.levelMu.Unlock()

	l.level.Store(level)
	cfg := l.config.Load().Clone()
	cfg.Level = level
	l.config.Store(cfg)

	if p := l.pipe; p != nil {
		for _, s := range p.sinks {
			s.followGlobal(level)
		}
		l.gate.Store(p.minThreshold())
	}
}

// GetLogLevel returns the global threshold
func (l *Logger) GetLogLevel() int64 {
	return l.level.Load()
}

// GetConfig returns a copy of the current configuration
func (l *Logger) GetConfig() *Config {
	return l.config.Load().Clone()
}

// Resolved returns the configuration the active pipeline was built from,
// nil before the first SetConfig
func (l *Logger) Resolved() *ResolvedConfig {
	return l.resolved.Load()
}

// Sinks describes the active sink set, nil when no pipeline is active
func (l *Logger) Sinks() []SinkInfo {
	l.pipeMu.RLock()
	defer l.pipeMu.RUnlock()

	if l.pipe == nil {
		return nil
	}
	infos := make([]SinkInfo, 0, len(l.pipe.sinks))
	for _, s := range l.pipe.sinks {
		infos = append(infos, s.info())
	}
	return infos
}

func (l *Logger) setState(s State) {
	l.state.Store(int32(s))
}

// Trace logs a message at trace level
func (l *Logger) Trace(args ...any) {
	l.log(LevelTrace, args)
}

// Debug logs a message at debug level
func (l *Logger) Debug(args ...any) {
	l.log(LevelDebug, args)
}

// Info logs a message at info level
func (l *Logger) Info(args ...any) {
	l.log(LevelInfo, args)
}

// Warning logs a message at warning level
func (l *Logger) Warning(args ...any) {
	l.log(LevelWarning, args)
}

// Error logs a message at error level
func (l *Logger) Error(args ...any) {
	l.log(LevelError, args)
}

// Fatal logs a message at fatal level. The process is not terminated.
func (l *Logger) Fatal(args ...any) {
	l.log(LevelFatal, args)
}

// Log logs a message at an arbitrary level, used by adapters that map
// foreign severities
func (l *Logger) Log(level int64, args ...any) {
	l.log(level, args)
}
