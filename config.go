package rlog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/lixenwraith/config"
	"gopkg.in/yaml.v3"
)

// Config holds all logger configuration values
type Config struct {
	// Basic settings
	Name  string `toml:"name" yaml:"name"` // Logger name, rendered by %n
	Path  string `toml:"path" yaml:"path"` // Active log file, empty disables the file sink
	Level int64  `toml:"level" yaml:"level"`

	// Console output
	EnableConsole bool   `toml:"enable_console" yaml:"enable_console"`
	ConsoleTarget string `toml:"console_target" yaml:"console_target"` // "stdout" or "stderr"

	// Per-sink thresholds by name, empty follows the global level
	ConsoleLevel string `toml:"console_level" yaml:"console_level"`
	FileLevel    string `toml:"file_level" yaml:"file_level"`

	// Formatting
	Pattern      string `toml:"pattern" yaml:"pattern"`
	Sanitization string `toml:"sanitization" yaml:"sanitization"` // "raw", "txt" or "strict"

	// Rotation
	MaxFileSize          int64 `toml:"max_file_size" yaml:"max_file_size"` // Bytes
	MaxFiles             int64 `toml:"max_files" yaml:"max_files"`         // Retained backups
	SafeRotation         bool  `toml:"safe_rotation" yaml:"safe_rotation"` // Suppress rotation-race diagnostics
	RotationRetries      int64 `toml:"rotation_retries" yaml:"rotation_retries"`
	RotationRetryDelayMs int64 `toml:"rotation_retry_delay_ms" yaml:"rotation_retry_delay_ms"`

	// Dispatch
	Async          bool   `toml:"async" yaml:"async"`
	QueueSize      int64  `toml:"queue_size" yaml:"queue_size"`
	// Private pool size. A logger drains on at most one worker at a time,
	// so values above 1 add no throughput; share a pool with WithPool instead.
	Workers        int64  `toml:"workers" yaml:"workers"`
	OverflowPolicy string `toml:"overflow_policy" yaml:"overflow_policy"` // "block" or "drop"

	// Flushing and timeouts, 0 timeout waits indefinitely
	FlushIntervalMs   int64 `toml:"flush_interval_ms" yaml:"flush_interval_ms"`
	FlushLevel        int64 `toml:"flush_level" yaml:"flush_level"`
	FlushTimeoutMs    int64 `toml:"flush_timeout_ms" yaml:"flush_timeout_ms"`
	ShutdownTimeoutMs int64 `toml:"shutdown_timeout_ms" yaml:"shutdown_timeout_ms"`

	// Internal error handling
	InternalErrorsToStderr bool `toml:"internal_errors_to_stderr" yaml:"internal_errors_to_stderr"`
}

// defaultConfig is the single source for all configurable default values
var defaultConfig = Config{
	// Basic settings
	Name:  "rlog",
	Path:  "",
	Level: LevelInfo,

	// Console output
	EnableConsole: true,
	ConsoleTarget: ConsoleStdout,

	// Formatting
	Pattern:      DefaultPattern,
	Sanitization: "txt",

	// Rotation
	MaxFileSize:          10 * 1024 * 1024,
	MaxFiles:             5,
	SafeRotation:         true,
	RotationRetries:      0,
	RotationRetryDelayMs: 10,

	// Dispatch
	Async:          false,
	QueueSize:      8192,
	Workers:        1,
	OverflowPolicy: OverflowBlock,

	// Flushing
	FlushIntervalMs:   3000,
	FlushLevel:        LevelError,
	FlushTimeoutMs:    0,
	ShutdownTimeoutMs: 0,

	// Internal error handling
	InternalErrorsToStderr: true,
}

// DefaultConfig returns a copy of the default configuration
func DefaultConfig() *Config {
	copiedConfig := defaultConfig
	return &copiedConfig
}

// Clone creates a copy of the configuration
func (c *Config) Clone() *Config {
	copiedConfig := *c
	return &copiedConfig
}

// NewConfigFromFile loads configuration from a TOML or YAML file on top of defaults.
// TOML keys live under a [log] table; YAML files are decoded at the top level.
// A missing TOML file yields the defaults.
func NewConfigFromFile(path string) (*Config, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return newConfigFromYAML(path)
	default:
		return newConfigFromTOML(path)
	}
}

func newConfigFromTOML(path string) (*Config, error) {
	cfg := DefaultConfig()

	loader := config.New()
	if err := loader.RegisterStruct("log.", *cfg); err != nil {
		return nil, fmtErrorf("failed to register config struct: %w", err)
	}

	if err := loader.Load(path, nil); err != nil && !errors.Is(err, config.ErrConfigNotFound) {
		return nil, fmtErrorf("failed to load config from %s: %w", path, err)
	}

	if err := extractConfig(loader, "log.", cfg); err != nil {
		return nil, fmtErrorf("failed to extract config values: %w", err)
	}
	return cfg, nil
}

func newConfigFromYAML(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmtErrorf("failed to read config from %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmtErrorf("failed to parse yaml config %s: %w", path, err)
	}
	return cfg, nil
}

// SaveConfig writes the configuration as TOML under a [log] table
func (c *Config) SaveConfig(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, dirPermissions); err != nil {
			return fmtErrorf("failed to create config directory '%s': %w", dir, err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, filePermissions)
	if err != nil {
		return fmtErrorf("failed to open config file '%s': %w", path, err)
	}

	encErr := toml.NewEncoder(f).Encode(map[string]*Config{"log": c})
	closeErr := f.Close()
	if err := combineErrors(encErr, closeErr); err != nil {
		return fmtErrorf("failed to save config to '%s': %w", path, err)
	}
	return nil
}

// extractConfig copies loader values into cfg using the toml tags as keys
func extractConfig(loader *config.Config, prefix string, cfg *Config) error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tomlTag := field.Tag.Get("toml")
		if tomlTag == "" {
			continue
		}

		val, found := loader.Get(prefix + tomlTag)
		if !found {
			continue
		}

		if err := setFieldValue(v.Field(i), val); err != nil {
			return fmt.Errorf("failed to set field %s: %w", field.Name, err)
		}
	}
	return nil
}

// setFieldValue sets a reflect.Value with the conversions TOML decoding needs
func setFieldValue(field reflect.Value, value any) error {
	switch field.Kind() {
	case reflect.String:
		strVal, ok := value.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", value)
		}
		field.SetString(strVal)

	case reflect.Int64:
		switch v := value.(type) {
		case int64:
			field.SetInt(v)
		case int:
			field.SetInt(int64(v))
		case float64:
			field.SetInt(int64(v))
		case string:
			// Levels may be written by name
			lvl, err := Level(v)
			if err != nil {
				return err
			}
			field.SetInt(lvl)
		default:
			return fmt.Errorf("expected int64, got %T", value)
		}

	case reflect.Bool:
		boolVal, ok := value.(bool)
		if !ok {
			return fmt.Errorf("expected bool, got %T", value)
		}
		field.SetBool(boolVal)

	default:
		return fmt.Errorf("unsupported field type: %v", field.Kind())
	}
	return nil
}
