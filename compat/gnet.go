package compat

import (
	"fmt"
	"os"
	"time"

	"github.com/lixenwraith/rlog"
	"github.com/panjf2000/gnet/v2/pkg/logging"
)

var _ logging.Logger = (*GnetAdapter)(nil)

// GnetAdapter wraps rlog.Logger to implement the gnet logging.Logger interface
type GnetAdapter struct {
	logger       *rlog.Logger
	prefix       string
	fatalHandler func(msg string) // Customizable fatal behavior
}

// NewGnetAdapter creates a new gnet-compatible logger adapter
func NewGnetAdapter(logger *rlog.Logger, opts ...GnetOption) *GnetAdapter {
	adapter := &GnetAdapter{
		logger: logger,
		prefix: "[gnet]",
		fatalHandler: func(msg string) {
			os.Exit(1) // Default behavior matches gnet expectations
		},
	}

	for _, opt := range opts {
		opt(adapter)
	}

	return adapter
}

// GnetOption allows customizing adapter behavior
type GnetOption func(*GnetAdapter)

// WithFatalHandler sets a custom fatal handler
func WithFatalHandler(handler func(string)) GnetOption {
	return func(a *GnetAdapter) {
		a.fatalHandler = handler
	}
}

// WithGnetPrefix replaces the "[gnet]" tag put in front of every message,
// empty disables it
func WithGnetPrefix(prefix string) GnetOption {
	return func(a *GnetAdapter) {
		a.prefix = prefix
	}
}

func (a *GnetAdapter) write(level int64, format string, args []any) string {
	msg := fmt.Sprintf(format, args...)
	if a.prefix == "" {
		a.logger.Log(level, msg)
	} else {
		a.logger.Log(level, a.prefix, msg)
	}
	return msg
}

// Debugf logs at debug level with printf-style formatting
func (a *GnetAdapter) Debugf(format string, args ...any) {
	a.write(rlog.LevelDebug, format, args)
}

// Infof logs at info level with printf-style formatting
func (a *GnetAdapter) Infof(format string, args ...any) {
	a.write(rlog.LevelInfo, format, args)
}

// Warnf logs at warning level with printf-style formatting
func (a *GnetAdapter) Warnf(format string, args ...any) {
	a.write(rlog.LevelWarning, format, args)
}

// Errorf logs at error level with printf-style formatting
func (a *GnetAdapter) Errorf(format string, args ...any) {
	a.write(rlog.LevelError, format, args)
}

// Fatalf logs at fatal level and triggers the fatal handler
func (a *GnetAdapter) Fatalf(format string, args ...any) {
	msg := a.write(rlog.LevelFatal, format, args)

	// Ensure log is flushed before exit
	_ = a.logger.Flush(100 * time.Millisecond)

	if a.fatalHandler != nil {
		a.fatalHandler(msg)
	}
}
