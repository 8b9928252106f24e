package rlog

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// record returns a 10-byte line
func record(i int) []byte {
	return []byte(fmt.Sprintf("rec-%05d\n", i))
}

func newTestWriter(t *testing.T, opts RotationOptions) (*RotatingFileWriter, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "x", "y.log")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), dirPermissions))
	w, err := NewRotatingFileWriter(path, opts)
	require.NoError(t, err)
	return w, path
}

// readChain returns every line from the oldest backup to the active file
func readChain(t *testing.T, path string, maxFiles int) []string {
	t.Helper()
	var lines []string
	for k := maxFiles; k >= 0; k-- {
		name := path
		if k > 0 {
			name = backupName(path, k)
		}
		f, err := os.Open(name)
		if os.IsNotExist(err) {
			continue
		}
		require.NoError(t, err)
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		f.Close()
	}
	return lines
}

func TestRotatingFileWriterRotationCount(t *testing.T) {
	w, path := newTestWriter(t, RotationOptions{MaxSize: 100, MaxFiles: 2})
	defer w.Close()

	for i := 0; i < 50; i++ {
		n, err := w.Append(record(i))
		require.NoError(t, err)
		require.Equal(t, 10, n)
	}

	assert.Equal(t, uint64(5), w.Rotations())
	assert.Equal(t, uint64(0), w.RotationFailures())

	assert.FileExists(t, path)
	assert.FileExists(t, path+".1")
	assert.FileExists(t, path+".2")
	assert.NoFileExists(t, path+".3")

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 3, "two backups plus the active file")

	// Newest backup holds the last ten records
	lines := readChain(t, path, 2)
	require.Len(t, lines, 20)
	assert.Equal(t, "rec-00030", lines[0])
	assert.Equal(t, "rec-00049", lines[19])
}

func TestRotatingFileWriterChainBound(t *testing.T) {
	const maxFiles = 3
	w, path := newTestWriter(t, RotationOptions{MaxSize: 30, MaxFiles: maxFiles})
	defer w.Close()

	for i := 0; i < 100; i++ {
		_, err := w.Append(record(i))
		require.NoError(t, err)
	}
	require.Greater(t, w.Rotations(), uint64(maxFiles))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.LessOrEqual(t, len(entries), maxFiles+1)

	// Surviving records are contiguous and in order
	lines := readChain(t, path, maxFiles)
	require.NotEmpty(t, lines)
	first, err := strconv.Atoi(strings.TrimPrefix(lines[0], "rec-"))
	require.NoError(t, err)
	for i, line := range lines {
		assert.Equal(t, fmt.Sprintf("rec-%05d", first+i), line)
	}
	assert.Equal(t, "rec-00099", lines[len(lines)-1])
}

func TestRotatingFileWriterOversizedRecord(t *testing.T) {
	w, path := newTestWriter(t, RotationOptions{MaxSize: 16, MaxFiles: 2})
	defer w.Close()

	big := []byte(strings.Repeat("z", 40) + "\n")
	_, err := w.Append(record(1))
	require.NoError(t, err)
	_, err = w.Append(big)
	require.NoError(t, err)

	// The small record was rotated out before the big one, which then rotated itself
	assert.Equal(t, uint64(2), w.Rotations())
	data, err := os.ReadFile(path + ".1")
	require.NoError(t, err)
	assert.Equal(t, string(big), string(data))
	assert.Equal(t, int64(0), w.Size())
}

func TestRotatingFileWriterManualRotate(t *testing.T) {
	w, path := newTestWriter(t, RotationOptions{MaxSize: 1 << 20, MaxFiles: 2})
	defer w.Close()

	_, err := w.Append(record(1))
	require.NoError(t, err)
	require.NoError(t, w.Rotate())

	assert.Equal(t, int64(0), w.Size())
	data, err := os.ReadFile(path + ".1")
	require.NoError(t, err)
	assert.Equal(t, "rec-00001\n", string(data))
}

func TestRotatingFileWriterReopenContinuesSize(t *testing.T) {
	w, path := newTestWriter(t, RotationOptions{MaxSize: 100, MaxFiles: 2})
	for i := 0; i < 3; i++ {
		_, err := w.Append(record(i))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	w2, err := NewRotatingFileWriter(path, RotationOptions{MaxSize: 100, MaxFiles: 2})
	require.NoError(t, err)
	defer w2.Close()
	assert.Equal(t, int64(30), w2.Size())

	_, err = w2.Append(record(3))
	require.NoError(t, err)
	assert.Len(t, readChain(t, path, 2), 4)
}

func TestRotatingFileWriterClosed(t *testing.T) {
	w, _ := newTestWriter(t, RotationOptions{})
	require.NoError(t, w.Close())

	_, err := w.Append(record(1))
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, w.Rotate(), ErrClosed)
	assert.ErrorIs(t, w.Sync(), ErrClosed)
	assert.ErrorIs(t, w.Close(), ErrClosed)
}

func TestRotatingFileWriterFailedRotationKeepsWriting(t *testing.T) {
	var mu sync.Mutex
	var diagnostics []string
	diag := func(format string, args ...any) {
		mu.Lock()
		diagnostics = append(diagnostics, fmt.Sprintf(format, args...))
		mu.Unlock()
	}

	w, path := newTestWriter(t, RotationOptions{
		MaxSize:      20,
		MaxFiles:     1,
		Retries:      2,
		SafeRotation: false,
		Diagnostics:  diag,
	})
	defer w.Close()

	// A non-empty directory where the only backup belongs cannot be removed
	blocker := path + ".1"
	require.NoError(t, os.MkdirAll(blocker, dirPermissions))
	require.NoError(t, os.WriteFile(filepath.Join(blocker, "keep"), []byte("x"), filePermissions))

	for i := 0; i < 3; i++ {
		_, err := w.Append(record(i))
		require.NoError(t, err)
	}

	assert.Equal(t, uint64(0), w.Rotations())
	assert.Equal(t, uint64(3), w.RotationFailures())
	assert.Len(t, diagnostics, 3, "one diagnostic per abandoned rotation")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "rec-00000\nrec-00001\nrec-00002\n", string(data))
}

func TestRotatingFileWriterSafeRotationSilences(t *testing.T) {
	called := false
	w, path := newTestWriter(t, RotationOptions{
		MaxSize:      10,
		MaxFiles:     1,
		SafeRotation: true,
		Diagnostics:  func(string, ...any) { called = true },
	})
	defer w.Close()

	require.NoError(t, os.MkdirAll(filepath.Join(path+".1", "sub"), dirPermissions))
	_, err := w.Append(record(0))
	require.NoError(t, err)

	assert.Equal(t, uint64(1), w.RotationFailures())
	assert.False(t, called)
}

func TestRotatingFileWriterConcurrentAppends(t *testing.T) {
	const (
		writers  = 8
		perGo    = 500
		maxFiles = 1000
	)
	w, path := newTestWriter(t, RotationOptions{MaxSize: 2048, MaxFiles: maxFiles})
	defer w.Close()

	var wg sync.WaitGroup
	for g := 0; g < writers; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < perGo; i++ {
				_, err := w.Append([]byte(fmt.Sprintf("%d %d\n", g, i)))
				assert.NoError(t, err)
			}
		}(g)
	}
	wg.Wait()

	lines := readChain(t, path, maxFiles)
	require.Len(t, lines, writers*perGo)

	next := make([]int, writers)
	for _, line := range lines {
		var g, i int
		_, err := fmt.Sscanf(line, "%d %d", &g, &i)
		require.NoError(t, err)
		require.Equal(t, next[g], i, "writer %d out of order", g)
		next[g]++
	}
	assert.Greater(t, w.Rotations(), uint64(0))
}
