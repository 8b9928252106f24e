package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lixenwraith/rlog"
)

const configFile = "simple_config.toml"

// Example TOML content
var tomlContent = `
# Example simple_config.toml
[log]
  name = "simple"
  path = "./simple_logs/simple.log"
  level = -4 # Debug
  console_level = "warning"
  max_file_size = 4096
  max_files = 3
  async = true
  queue_size = 256
  flush_interval_ms = 100
  # Other settings use defaults
`

func main() {
	fmt.Println("--- Simple Logger Example ---")

	if err := os.WriteFile(configFile, []byte(tomlContent), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write example config: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Created example config file: %s\n", configFile)

	cfg, err := rlog.NewConfigFromFile(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v. Using defaults.\n", err)
		cfg = rlog.DefaultConfig()
	}

	logger := rlog.New(cfg)
	fmt.Printf("Logger running, sinks: %v\n", logger.Sinks())
	if clamped := logger.Resolved().Clamped; len(clamped) > 0 {
		fmt.Printf("Replaced invalid settings: %v\n", clamped)
	}

	// Merged configuration (defaults + file) written back
	savedPath := filepath.Join("simple_logs", "effective_config.toml")
	if err := logger.GetConfig().SaveConfig(savedPath); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to save configuration: %v\n", err)
	} else {
		fmt.Printf("Effective configuration saved to: %s\n", savedPath)
	}

	logger.Debug("debug goes to the file only")
	logger.Info("starting work", "items", 3)
	for i := 0; i < 200; i++ {
		logger.Info("processing item", i, map[string]int{"attempt": 1})
	}
	logger.Warning("disk usage high", 0.91)
	logger.Error("request failed", fmt.Errorf("connection reset"))

	if err := logger.Flush(time.Second); err != nil {
		fmt.Fprintf(os.Stderr, "Flush failed: %v\n", err)
	}
	stats := logger.Stats()
	fmt.Printf("Processed: %d, rotations: %d, dropped: %d\n", stats.Processed, stats.Rotations, stats.Dropped)

	if err := logger.Shutdown(2 * time.Second); err != nil {
		fmt.Fprintf(os.Stderr, "Shutdown failed: %v\n", err)
	}
	fmt.Println("--- Example Finished ---")
}
