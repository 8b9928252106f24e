package rlog

import (
	"io"
	"os"
	"reflect"
	"sync"
)

// streamLocks maps each console destination to the mutex that serializes
// writes to it across every logger in the process.
var streamLocks sync.Map // io.Writer -> *sync.Mutex

// lockFor returns the process-wide mutex of w. Writers whose dynamic type is
// not comparable cannot be shared by key and get a private mutex.
func lockFor(w io.Writer) *sync.Mutex {
	if !reflect.TypeOf(w).Comparable() {
		return &sync.Mutex{}
	}
	mu, _ := streamLocks.LoadOrStore(w, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// ConsoleWriter writes whole records to a shared stream
type ConsoleWriter struct {
	w  io.Writer
	mu *sync.Mutex
}

// NewConsoleWriter targets stdout or stderr by name
func NewConsoleWriter(target string) *ConsoleWriter {
	if target == ConsoleStderr {
		return newConsoleWriterTo(os.Stderr)
	}
	return newConsoleWriterTo(os.Stdout)
}

func newConsoleWriterTo(w io.Writer) *ConsoleWriter {
	return &ConsoleWriter{w: w, mu: lockFor(w)}
}

// Write emits p in a single call so records from different loggers never
// interleave mid-line.
func (c *ConsoleWriter) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, err := c.w.Write(p)
	if err != nil {
		return n, fmtErrorf("failed to write to console: %w", err)
	}
	return n, nil
}

// Flush forwards to buffered destinations; terminals need nothing
func (c *ConsoleWriter) Flush() error {
	f, ok := c.w.(interface{ Flush() error })
	if !ok {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return f.Flush()
}
