package rlog

// Builder provides a fluent API for building logger configurations.
// It wraps a Config instance and provides chainable methods for setting values.
type Builder struct {
	cfg  *Config
	opts []Option
	err  error // Accumulate errors for deferred handling
}

// NewBuilder creates a new configuration builder with default values.
func NewBuilder() *Builder {
	return &Builder{
		cfg: DefaultConfig(),
	}
}

// Build creates a running Logger from the accumulated configuration.
func (b *Builder) Build() (*Logger, error) {
	if b.err != nil {
		return nil, b.err
	}

	logger := NewLogger(b.opts...)
	if err := logger.SetConfig(b.cfg.Clone()); err != nil {
		return nil, err
	}
	return logger, nil
}

// Config returns a copy of the configuration built so far.
func (b *Builder) Config() *Config {
	return b.cfg.Clone()
}

// Options adds construction options passed to NewLogger.
func (b *Builder) Options(opts ...Option) *Builder {
	b.opts = append(b.opts, opts...)
	return b
}

// Name sets the logger name.
func (b *Builder) Name(name string) *Builder {
	b.cfg.Name = name
	return b
}

// Path enables the file sink at path.
func (b *Builder) Path(path string) *Builder {
	b.cfg.Path = path
	return b
}

// Level sets the log level.
func (b *Builder) Level(level int64) *Builder {
	b.cfg.Level = level
	return b
}

// LevelString sets the log level from a string.
func (b *Builder) LevelString(level string) *Builder {
	if b.err != nil {
		return b
	}
	levelVal, err := Level(level)
	if err != nil {
		b.err = err
		return b
	}
	b.cfg.Level = levelVal
	return b
}

// EnableConsole toggles the console sink.
func (b *Builder) EnableConsole(enable bool) *Builder {
	b.cfg.EnableConsole = enable
	return b
}

// ConsoleTarget selects "stdout" or "stderr".
func (b *Builder) ConsoleTarget(target string) *Builder {
	b.cfg.ConsoleTarget = target
	return b
}

// ConsoleLevel gives the console sink its own threshold.
func (b *Builder) ConsoleLevel(level string) *Builder {
	return b.sinkLevel(&b.cfg.ConsoleLevel, level)
}

// FileLevel gives the file sink its own threshold.
func (b *Builder) FileLevel(level string) *Builder {
	return b.sinkLevel(&b.cfg.FileLevel, level)
}

func (b *Builder) sinkLevel(field *string, level string) *Builder {
	if b.err != nil {
		return b
	}
	if _, err := Level(level); err != nil {
		b.err = err
		return b
	}
	*field = level
	return b
}

// Pattern sets the record template.
func (b *Builder) Pattern(pattern string) *Builder {
	b.cfg.Pattern = pattern
	return b
}

// Sanitization selects the message sanitizer policy.
func (b *Builder) Sanitization(policy string) *Builder {
	b.cfg.Sanitization = policy
	return b
}

// MaxFileSize sets the rotation threshold in bytes.
func (b *Builder) MaxFileSize(size int64) *Builder {
	b.cfg.MaxFileSize = size
	return b
}

// MaxSizeMB sets the rotation threshold in megabytes.
func (b *Builder) MaxSizeMB(size int64) *Builder {
	b.cfg.MaxFileSize = size * 1024 * 1024
	return b
}

// MaxFiles sets how many backups are kept.
func (b *Builder) MaxFiles(n int64) *Builder {
	b.cfg.MaxFiles = n
	return b
}

// SafeRotation suppresses diagnostics for failed rotations.
func (b *Builder) SafeRotation(enable bool) *Builder {
	b.cfg.SafeRotation = enable
	return b
}

// RotationRetries sets extra rotation attempts and the pause between them.
func (b *Builder) RotationRetries(retries int64, delayMs int64) *Builder {
	b.cfg.RotationRetries = retries
	b.cfg.RotationRetryDelayMs = delayMs
	return b
}

// Async switches to queued dispatch.
func (b *Builder) Async(enable bool) *Builder {
	b.cfg.Async = enable
	return b
}

// QueueSize sets the async queue capacity.
func (b *Builder) QueueSize(size int64) *Builder {
	b.cfg.QueueSize = size
	return b
}

// Workers sets the size of the private pool. One logger never uses more
// than one worker at a time.
func (b *Builder) Workers(n int64) *Builder {
	b.cfg.Workers = n
	return b
}

// OverflowPolicy selects "block" or "drop".
func (b *Builder) OverflowPolicy(policy string) *Builder {
	b.cfg.OverflowPolicy = policy
	return b
}

// FlushIntervalMs sets the periodic sync interval.
func (b *Builder) FlushIntervalMs(interval int64) *Builder {
	b.cfg.FlushIntervalMs = interval
	return b
}

// FlushLevel sets the level at which records force a sink flush.
func (b *Builder) FlushLevel(level int64) *Builder {
	b.cfg.FlushLevel = level
	return b
}

// FlushTimeoutMs bounds Flush.
func (b *Builder) FlushTimeoutMs(timeout int64) *Builder {
	b.cfg.FlushTimeoutMs = timeout
	return b
}

// ShutdownTimeoutMs bounds the queue drain of SetConfig and Shutdown.
func (b *Builder) ShutdownTimeoutMs(timeout int64) *Builder {
	b.cfg.ShutdownTimeoutMs = timeout
	return b
}

// InternalErrorsToStderr toggles internal diagnostics.
func (b *Builder) InternalErrorsToStderr(enable bool) *Builder {
	b.cfg.InternalErrorsToStderr = enable
	return b
}
