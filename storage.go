package rlog

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// RotationOptions configures a RotatingFileWriter
type RotationOptions struct {
	MaxSize      int64 // Bytes; rotation trigger
	MaxFiles     int   // Backups kept as path.1 .. path.MaxFiles
	Retries      int   // Extra attempts after a failed rotation
	RetryDelay   time.Duration
	SafeRotation bool // Suppress diagnostics for failed rotations

	// Diagnostics receives internal warnings, nil discards them
	Diagnostics func(format string, args ...any)
}

// RotatingFileWriter owns one OS file and its backup chain. All appends and
// rotations are serialized by one mutex so two writers can never both decide
// to rotate.
type RotatingFileWriter struct {
	mu     sync.Mutex
	path   string
	opts   RotationOptions
	file   *os.File
	size   int64
	closed bool

	rotations atomic.Uint64
	failures  atomic.Uint64
}

// NewRotatingFileWriter opens (or continues) the active file at path
func NewRotatingFileWriter(path string, opts RotationOptions) (*RotatingFileWriter, error) {
	if opts.MaxSize <= 0 {
		opts.MaxSize = defaultConfig.MaxFileSize
	}
	if opts.MaxFiles < 1 {
		opts.MaxFiles = int(defaultConfig.MaxFiles)
	}
	if opts.Diagnostics == nil {
		opts.Diagnostics = func(string, ...any) {}
	}

	w := &RotatingFileWriter{path: path, opts: opts}
	file, size, err := openActiveFile(path)
	if err != nil {
		return nil, err
	}
	w.file = file
	w.size = size
	return w, nil
}

// openActiveFile opens path for appending and reports its current size
func openActiveFile(path string) (*os.File, int64, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, filePermissions)
	if err != nil {
		return nil, 0, fmtErrorf("failed to open/create log file '%s': %w", path, err)
	}
	var size int64
	if fi, errStat := file.Stat(); errStat == nil {
		size = fi.Size()
	}
	return file, size, nil
}

// backupName returns the path of the k-th backup, base.k
func backupName(path string, k int) string {
	return fmt.Sprintf("%s.%d", path, k)
}

// Append writes one formatted record. Rotation is checked before the write
// (when the record would overflow a non-empty file) and after it (when the
// file reached the limit). A failed rotation never drops the record.
func (w *RotatingFileWriter) Append(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return 0, ErrClosed
	}

	if w.size > 0 && w.size+int64(len(p)) > w.opts.MaxSize {
		_ = w.rotateLocked()
	}

	n, err := w.file.Write(p)
	w.size += int64(n)
	if err != nil {
		return n, fmtErrorf("failed to write to log file '%s': %w", w.path, err)
	}

	if w.size >= w.opts.MaxSize {
		_ = w.rotateLocked()
	}
	return n, nil
}

// Write implements io.Writer
func (w *RotatingFileWriter) Write(p []byte) (int, error) {
	return w.Append(p)
}

// Rotate forces a rotation regardless of size
func (w *RotatingFileWriter) Rotate() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}
	return w.rotateLocked()
}

// rotateLocked runs the configured number of attempts, assuming mu is held
func (w *RotatingFileWriter) rotateLocked() error {
	var err error
	for attempt := 0; attempt <= w.opts.Retries; attempt++ {
		if attempt > 0 && w.opts.RetryDelay > 0 {
			time.Sleep(w.opts.RetryDelay)
		}
		if err = w.rotateOnce(); err == nil {
			w.rotations.Add(1)
			return nil
		}
	}

	w.failures.Add(1)
	if !w.opts.SafeRotation {
		w.opts.Diagnostics("warning - rotation of '%s' failed, continuing on current file: %v\n", w.path, err)
	}
	return err
}

// rotateOnce shifts base.k to base.k+1 for k = MaxFiles-1 .. 1, dropping
// base.MaxFiles, then renames the active file to base.1 and opens a fresh one.
// The active file is renamed while still open and closed only after its
// replacement exists, so writes continue on the old handle if anything fails.
func (w *RotatingFileWriter) rotateOnce() error {
	last := backupName(w.path, w.opts.MaxFiles)
	if err := os.Remove(last); err != nil && !os.IsNotExist(err) {
		return fmtErrorf("failed to remove oldest backup '%s': %w", last, err)
	}

	for k := w.opts.MaxFiles - 1; k >= 1; k-- {
		src := backupName(w.path, k)
		dst := backupName(w.path, k+1)
		if err := os.Rename(src, dst); err != nil && !os.IsNotExist(err) {
			return fmtErrorf("failed to shift backup '%s' to '%s': %w", src, dst, err)
		}
	}

	first := backupName(w.path, 1)
	if err := os.Rename(w.path, first); err != nil {
		return fmtErrorf("failed to rename '%s' to '%s': %w", w.path, first, err)
	}

	newFile, _, err := openActiveFile(w.path)
	if err != nil {
		// Put the active file back so the chain stays consistent
		if backErr := os.Rename(first, w.path); backErr != nil {
			w.opts.Diagnostics("warning - failed to restore '%s' after rotation error: %v\n", w.path, backErr)
		}
		return err
	}

	old := w.file
	w.file = newFile
	w.size = 0
	if err := old.Close(); err != nil {
		w.opts.Diagnostics("warning - failed to close rotated log file '%s': %v\n", first, err)
	}
	return nil
}

// Sync commits the active file to stable storage
func (w *RotatingFileWriter) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}
	if err := w.file.Sync(); err != nil {
		return fmtErrorf("failed to sync log file '%s': %w", w.path, err)
	}
	return nil
}

// Close syncs and releases the active file. Further calls return ErrClosed.
func (w *RotatingFileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}
	w.closed = true

	var syncErr, closeErr error
	if err := w.file.Sync(); err != nil {
		syncErr = fmtErrorf("failed to sync log file '%s' during close: %w", w.path, err)
	}
	if err := w.file.Close(); err != nil {
		closeErr = fmtErrorf("failed to close log file '%s': %w", w.path, err)
	}
	return combineErrors(syncErr, closeErr)
}

// Path returns the active file path
func (w *RotatingFileWriter) Path() string {
	return w.path
}

// Size returns the byte count of the active file
func (w *RotatingFileWriter) Size() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.size
}

// Rotations returns the number of completed rotations
func (w *RotatingFileWriter) Rotations() uint64 {
	return w.rotations.Load()
}

// RotationFailures returns the number of rotations abandoned after all attempts
func (w *RotatingFileWriter) RotationFailures() uint64 {
	return w.failures.Load()
}
