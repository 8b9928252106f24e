package rlog

import (
	"io"
	"sync/atomic"
	"time"
)

// SinkKind identifies the destination of a sink
type SinkKind uint8

const (
	SinkConsole SinkKind = iota
	SinkFile
)

func (k SinkKind) String() string {
	switch k {
	case SinkConsole:
		return "console"
	case SinkFile:
		return "file"
	default:
		return "unknown"
	}
}

// SinkInfo describes one built sink
type SinkInfo struct {
	Kind          SinkKind
	Threshold     int64
	FollowsGlobal bool
	Path          string // Active file, empty for console
}

// Sink is one output of a pipeline. Exactly one of console and file is set,
// according to kind.
type Sink struct {
	kind      SinkKind
	threshold atomic.Int64
	follow    bool

	console *ConsoleWriter
	file    *RotatingFileWriter
}

// accepts applies the sink's own level filter
func (s *Sink) accepts(level int64) bool {
	return shouldEmit(level, s.threshold.Load())
}

// followGlobal updates the threshold if it tracks the global level
func (s *Sink) followGlobal(level int64) {
	if s.follow {
		s.threshold.Store(level)
	}
}

func (s *Sink) write(line []byte) error {
	switch s.kind {
	case SinkFile:
		_, err := s.file.Append(line)
		return err
	default:
		_, err := s.console.Write(line)
		return err
	}
}

func (s *Sink) flush() error {
	switch s.kind {
	case SinkFile:
		return s.file.Sync()
	default:
		return s.console.Flush()
	}
}

// close releases the file handle; the console stream is never closed
func (s *Sink) close() error {
	switch s.kind {
	case SinkFile:
		return s.file.Close()
	default:
		return s.console.Flush()
	}
}

func (s *Sink) info() SinkInfo {
	si := SinkInfo{
		Kind:          s.kind,
		Threshold:     s.threshold.Load(),
		FollowsGlobal: s.follow,
	}
	if s.kind == SinkFile {
		si.Path = s.file.Path()
	}
	return si
}

// sinkEnv carries the collaborators a pipeline is built with
type sinkEnv struct {
	console io.Writer // nil selects the configured std stream
	diag    func(format string, args ...any)
}

func newSink(kind SinkKind, th sinkThreshold, global int64) *Sink {
	s := &Sink{kind: kind, follow: th.Follow}
	if th.Follow {
		s.threshold.Store(global)
	} else {
		s.threshold.Store(th.Level)
	}
	return s
}

// buildSinks assembles the sink arena for rc. It never returns an empty set:
// a file sink that cannot be opened degrades to console, and a configuration
// with no outputs gets a console sink. Each returned error is one diagnostic.
func buildSinks(rc *ResolvedConfig, env sinkEnv) ([]*Sink, []error) {
	var sinks []*Sink
	var errs []error

	consoleSink := func() *Sink {
		s := newSink(SinkConsole, rc.ConsoleThreshold, rc.Level)
		if env.console != nil {
			s.console = newConsoleWriterTo(env.console)
		} else {
			s.console = NewConsoleWriter(rc.ConsoleTarget)
		}
		return s
	}

	if rc.EnableConsole {
		sinks = append(sinks, consoleSink())
	}

	if rc.Path != "" {
		if rc.FileUnavailable {
			errs = append(errs, fmtErrorf("file sink '%s' unavailable, falling back to console: %w", rc.Path, rc.ProbeErr))
		} else {
			fw, err := NewRotatingFileWriter(rc.Path, RotationOptions{
				MaxSize:      rc.MaxFileSize,
				MaxFiles:     int(rc.MaxFiles),
				Retries:      int(rc.RotationRetries),
				RetryDelay:   time.Duration(rc.RotationRetryDelayMs) * time.Millisecond,
				SafeRotation: rc.SafeRotation,
				Diagnostics:  env.diag,
			})
			if err != nil {
				errs = append(errs, fmtErrorf("file sink '%s' unavailable, falling back to console: %w", rc.Path, err))
			} else {
				s := newSink(SinkFile, rc.FileThreshold, rc.Level)
				s.file = fw
				sinks = append(sinks, s)
			}
		}
	}

	if len(sinks) == 0 {
		if len(errs) == 0 {
			errs = append(errs, fmtErrorf("no sink enabled, forcing console output"))
		}
		sinks = append(sinks, consoleSink())
	}
	return sinks, errs
}

// closeSinks releases every sink and combines the failures
func closeSinks(sinks []*Sink) error {
	var errs []error
	for _, s := range sinks {
		errs = append(errs, s.close())
	}
	return combineErrors(errs...)
}

// flushSinks syncs every sink and combines the failures
func flushSinks(sinks []*Sink) error {
	var errs []error
	for _, s := range sinks {
		errs = append(errs, s.flush())
	}
	return combineErrors(errs...)
}
