package rlog

import (
	"strconv"
)

// ApplyOverride applies "key=value" overrides, keyed by toml name, to a copy
// of the current configuration and then calls SetConfig with it.
//
// Example:
//
//	logger := rlog.New(nil)
//	err := logger.ApplyOverride(
//	    "path=/var/log/app/app.log",
//	    "level=debug",
//	    "async=true",
//	)
func (l *Logger) ApplyOverride(overrides ...string) error {
	cfg := l.GetConfig()

	var errs []error
	for _, override := range overrides {
		key, value, err := parseKeyValue(override)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := applyConfigField(cfg, key, value); err != nil {
			errs = append(errs, err)
		}
	}

	// Every override is checked before any is applied
	if err := combineErrors(errs...); err != nil {
		return err
	}
	return l.SetConfig(cfg)
}

// applyConfigField applies a single key-value override to a Config
func applyConfigField(cfg *Config, key, value string) error {
	var err error
	switch key {
	// Basic settings
	case "name":
		cfg.Name = value
	case "path":
		cfg.Path = value
	case "level":
		cfg.Level, err = parseLevelValue(key, value)

	// Console output
	case "enable_console":
		cfg.EnableConsole, err = parseBoolValue(key, value)
	case "console_target":
		cfg.ConsoleTarget = value
	case "console_level":
		cfg.ConsoleLevel = value
	case "file_level":
		cfg.FileLevel = value

	// Formatting
	case "pattern":
		cfg.Pattern = value
	case "sanitization":
		cfg.Sanitization = value

	// Rotation
	case "max_file_size":
		cfg.MaxFileSize, err = parseIntValue(key, value)
	case "max_files":
		cfg.MaxFiles, err = parseIntValue(key, value)
	case "safe_rotation":
		cfg.SafeRotation, err = parseBoolValue(key, value)
	case "rotation_retries":
		cfg.RotationRetries, err = parseIntValue(key, value)
	case "rotation_retry_delay_ms":
		cfg.RotationRetryDelayMs, err = parseIntValue(key, value)

	// Dispatch
	case "async":
		cfg.Async, err = parseBoolValue(key, value)
	case "queue_size":
		cfg.QueueSize, err = parseIntValue(key, value)
	case "workers":
		cfg.Workers, err = parseIntValue(key, value)
	case "overflow_policy":
		cfg.OverflowPolicy = value

	// Flushing and timeouts
	case "flush_interval_ms":
		cfg.FlushIntervalMs, err = parseIntValue(key, value)
	case "flush_level":
		cfg.FlushLevel, err = parseLevelValue(key, value)
	case "flush_timeout_ms":
		cfg.FlushTimeoutMs, err = parseIntValue(key, value)
	case "shutdown_timeout_ms":
		cfg.ShutdownTimeoutMs, err = parseIntValue(key, value)

	// Internal error handling
	case "internal_errors_to_stderr":
		cfg.InternalErrorsToStderr, err = parseBoolValue(key, value)

	default:
		return fmtErrorf("unknown configuration key '%s'", key)
	}
	return err
}

func parseIntValue(key, value string) (int64, error) {
	intVal, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmtErrorf("invalid integer value for %s '%s': %w", key, value, err)
	}
	return intVal, nil
}

func parseBoolValue(key, value string) (bool, error) {
	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmtErrorf("invalid boolean value for %s '%s': %w", key, value, err)
	}
	return boolVal, nil
}

// parseLevelValue accepts both numeric and named levels
func parseLevelValue(key, value string) (int64, error) {
	if numVal, err := strconv.ParseInt(value, 10, 64); err == nil {
		return numVal, nil
	}
	levelVal, err := Level(value)
	if err != nil {
		return 0, fmtErrorf("invalid %s value '%s': %w", key, value, err)
	}
	return levelVal, nil
}
