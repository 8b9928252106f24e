package rlog

import (
	"bytes"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"go.uber.org/multierr"
)

var (
	// ErrClosed is returned by writers used after Close
	ErrClosed = errors.New("rlog: writer closed")
	// ErrStopped is returned by operations on a logger after Shutdown
	ErrStopped = errors.New("rlog: logger stopped")
	// ErrTimeout is returned when a bounded flush or drain expires
	ErrTimeout = errors.New("rlog: timed out waiting for queue to drain")
	// ErrNilConfig is returned by SetConfig(nil)
	ErrNilConfig = errors.New("rlog: configuration cannot be nil")
)

// fmtErrorf wrapper
func fmtErrorf(format string, args ...any) error {
	if !strings.HasPrefix(format, "rlog: ") {
		format = "rlog: " + format
	}
	return fmt.Errorf(format, args...)
}

// combineErrors helper
func combineErrors(errs ...error) error {
	return multierr.Combine(errs...)
}

// parseKeyValue splits a "key=value" string.
func parseKeyValue(arg string) (string, string, error) {
	parts := strings.SplitN(strings.TrimSpace(arg), "=", 2)
	if len(parts) != 2 {
		return "", "", fmtErrorf("invalid format in override string '%s', expected key=value", arg)
	}
	key := strings.TrimSpace(parts[0])
	value := strings.TrimSpace(parts[1])
	if key == "" {
		return "", "", fmtErrorf("key cannot be empty in override string '%s'", arg)
	}
	return key, value, nil
}

var goroutinePrefix = []byte("goroutine ")

// goroutineID returns the id of the calling goroutine, 0 if it cannot be read.
// Go exposes no thread identity; the runtime stack header is the only source.
func goroutineID() uint64 {
	var buf [64]byte
	b := buf[:runtime.Stack(buf[:], false)]
	b = bytes.TrimPrefix(b, goroutinePrefix)
	if i := bytes.IndexByte(b, ' '); i > 0 {
		b = b[:i]
	}
	id, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
