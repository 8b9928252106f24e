package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/rlog"
)

// Reconfigures a logger repeatedly while producers are writing and checks
// that every record reached a file.
func main() {
	dir, err := os.MkdirTemp("", "rlog-reconfig-")
	if err != nil {
		fmt.Printf("Temp dir error: %v\n", err)
		return
	}
	defer os.RemoveAll(dir)
	logPath := filepath.Join(dir, "reconfig.log")

	pool, err := rlog.NewWorkerPool(2)
	if err != nil {
		fmt.Printf("Pool error: %v\n", err)
		return
	}
	defer pool.Release()

	logger, err := rlog.NewBuilder().
		Path(logPath).
		EnableConsole(false).
		Pattern("%v").
		Async(true).
		MaxFiles(100).
		Options(rlog.WithPool(pool)).
		Build()
	if err != nil {
		fmt.Printf("Build error: %v\n", err)
		return
	}

	var count atomic.Int64
	var wg sync.WaitGroup
	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < 20000; i++ {
				logger.Info("producer", p, "record", i)
				count.Add(1)
			}
		}(p)
	}

	// Flip between queue sizes, dispatch modes and rotation limits
	for i := 0; i < 10; i++ {
		err := logger.ApplyOverride(
			fmt.Sprintf("queue_size=%d", 100*(i+1)),
			fmt.Sprintf("async=%t", i%2 == 0),
			fmt.Sprintf("max_file_size=%d", 64*1024*(i+1)),
		)
		if err != nil {
			fmt.Printf("Reconfig error: %v\n", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	wg.Wait()

	if err := logger.Shutdown(5 * time.Second); err != nil {
		fmt.Printf("Shutdown error: %v\n", err)
	}

	written := countLines(dir)
	stats := logger.Stats()
	fmt.Printf("Attempted: %d, written: %d, rotations: %d, dropped: %d\n",
		count.Load(), written, stats.Rotations, stats.Dropped)
	if written != count.Load() {
		fmt.Println("MISMATCH: records were lost")
		os.Exit(1)
	}
}

// countLines totals the lines of every file in dir
func countLines(dir string) int64 {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return -1
	}
	var total int64
	for _, e := range entries {
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		for _, b := range data {
			if b == '\n' {
				total++
			}
		}
	}
	return total
}
