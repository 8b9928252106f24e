package rlog

import (
	"fmt"
	"strings"
)

// shouldEmit reports whether a record of the given level passes a threshold.
func shouldEmit(level, threshold int64) bool {
	return level >= threshold
}

// isKnownLevel reports whether level is one of the six defined severities.
func isKnownLevel(level int64) bool {
	switch level {
	case LevelTrace, LevelDebug, LevelInfo, LevelWarning, LevelError, LevelFatal:
		return true
	}
	return false
}

// Level converts a level name to its numeric constant.
func Level(levelStr string) (int64, error) {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarning, nil
	case "error", "err":
		return LevelError, nil
	case "fatal", "critical":
		return LevelFatal, nil
	default:
		return 0, fmtErrorf("invalid level string: '%s' (use trace, debug, info, warning, error, fatal)", levelStr)
	}
}

// LevelToString returns the upper-case name of a level.
func LevelToString(level int64) string {
	switch level {
	case LevelTrace:
		return "TRACE"
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarning:
		return "WARNING"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return fmt.Sprintf("LEVEL(%d)", level)
	}
}
