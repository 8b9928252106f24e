package compat

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/lixenwraith/rlog"
)

// FiberAdapter wraps rlog.Logger to provide the method set of Fiber's
// AllLogger interface (CommonLogger plus the w-suffixed variants) without
// importing Fiber itself
type FiberAdapter struct {
	logger       *rlog.Logger
	fatalHandler func(msg string) // Customizable fatal behavior
	panicHandler func(msg string) // Customizable panic behavior
}

// NewFiberAdapter creates a new Fiber-compatible logger adapter
func NewFiberAdapter(logger *rlog.Logger, opts ...FiberOption) *FiberAdapter {
	adapter := &FiberAdapter{
		logger: logger,
		fatalHandler: func(msg string) {
			os.Exit(1)
		},
		panicHandler: func(msg string) {
			panic(msg)
		},
	}

	for _, opt := range opts {
		opt(adapter)
	}

	return adapter
}

// FiberOption allows customizing adapter behavior
type FiberOption func(*FiberAdapter)

// WithFiberFatalHandler sets a custom fatal handler
func WithFiberFatalHandler(handler func(string)) FiberOption {
	return func(a *FiberAdapter) {
		a.fatalHandler = handler
	}
}

// WithFiberPanicHandler sets a custom panic handler
func WithFiberPanicHandler(handler func(string)) FiberOption {
	return func(a *FiberAdapter) {
		a.panicHandler = handler
	}
}

func (a *FiberAdapter) emit(level int64, msg string) {
	a.logger.Log(level, "[fiber]", msg)
}

// terminate flushes and hands msg to a handler that may not return
func (a *FiberAdapter) terminate(handler func(string), msg string) {
	_ = a.logger.Flush(100 * time.Millisecond)
	if handler != nil {
		handler(msg)
	}
}

// withPairs appends "key=value" for each pair, a trailing odd key gets no value
func withPairs(msg string, keysAndValues []any) string {
	if len(keysAndValues) == 0 {
		return msg
	}
	var sb strings.Builder
	sb.WriteString(msg)
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 < len(keysAndValues) {
			fmt.Fprintf(&sb, " %v=%v", keysAndValues[i], keysAndValues[i+1])
		} else {
			fmt.Fprintf(&sb, " %v", keysAndValues[i])
		}
	}
	return sb.String()
}

// --- CommonLogger ---

func (a *FiberAdapter) Trace(v ...any) { a.emit(rlog.LevelTrace, fmt.Sprint(v...)) }
func (a *FiberAdapter) Debug(v ...any) { a.emit(rlog.LevelDebug, fmt.Sprint(v...)) }
func (a *FiberAdapter) Info(v ...any)  { a.emit(rlog.LevelInfo, fmt.Sprint(v...)) }
func (a *FiberAdapter) Warn(v ...any)  { a.emit(rlog.LevelWarning, fmt.Sprint(v...)) }
func (a *FiberAdapter) Error(v ...any) { a.emit(rlog.LevelError, fmt.Sprint(v...)) }

func (a *FiberAdapter) Fatal(v ...any) {
	msg := fmt.Sprint(v...)
	a.emit(rlog.LevelFatal, msg)
	a.terminate(a.fatalHandler, msg)
}

func (a *FiberAdapter) Panic(v ...any) {
	msg := fmt.Sprint(v...)
	a.emit(rlog.LevelFatal, msg)
	a.terminate(a.panicHandler, msg)
}

// Write lets the adapter serve as Fiber's output writer, one record per call
func (a *FiberAdapter) Write(p []byte) (n int, err error) {
	a.emit(rlog.LevelInfo, strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

func (a *FiberAdapter) Tracef(format string, v ...any) {
	a.emit(rlog.LevelTrace, fmt.Sprintf(format, v...))
}

func (a *FiberAdapter) Debugf(format string, v ...any) {
	a.emit(rlog.LevelDebug, fmt.Sprintf(format, v...))
}

func (a *FiberAdapter) Infof(format string, v ...any) {
	a.emit(rlog.LevelInfo, fmt.Sprintf(format, v...))
}

func (a *FiberAdapter) Warnf(format string, v ...any) {
	a.emit(rlog.LevelWarning, fmt.Sprintf(format, v...))
}

func (a *FiberAdapter) Errorf(format string, v ...any) {
	a.emit(rlog.LevelError, fmt.Sprintf(format, v...))
}

func (a *FiberAdapter) Fatalf(format string, v ...any) {
	msg := fmt.Sprintf(format, v...)
	a.emit(rlog.LevelFatal, msg)
	a.terminate(a.fatalHandler, msg)
}

func (a *FiberAdapter) Panicf(format string, v ...any) {
	msg := fmt.Sprintf(format, v...)
	a.emit(rlog.LevelFatal, msg)
	a.terminate(a.panicHandler, msg)
}

// --- WithLogger, key/value pairs rendered as text ---

func (a *FiberAdapter) Tracew(msg string, keysAndValues ...any) {
	a.emit(rlog.LevelTrace, withPairs(msg, keysAndValues))
}

func (a *FiberAdapter) Debugw(msg string, keysAndValues ...any) {
	a.emit(rlog.LevelDebug, withPairs(msg, keysAndValues))
}

func (a *FiberAdapter) Infow(msg string, keysAndValues ...any) {
	a.emit(rlog.LevelInfo, withPairs(msg, keysAndValues))
}

func (a *FiberAdapter) Warnw(msg string, keysAndValues ...any) {
	a.emit(rlog.LevelWarning, withPairs(msg, keysAndValues))
}

func (a *FiberAdapter) Errorw(msg string, keysAndValues ...any) {
	a.emit(rlog.LevelError, withPairs(msg, keysAndValues))
}

func (a *FiberAdapter) Fatalw(msg string, keysAndValues ...any) {
	a.emit(rlog.LevelFatal, withPairs(msg, keysAndValues))
	a.terminate(a.fatalHandler, msg)
}

func (a *FiberAdapter) Panicw(msg string, keysAndValues ...any) {
	a.emit(rlog.LevelFatal, withPairs(msg, keysAndValues))
	a.terminate(a.panicHandler, msg)
}
