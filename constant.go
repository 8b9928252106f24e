package rlog

// Log level constants, ordered TRACE < DEBUG < INFO < WARNING < ERROR < FATAL
const (
	LevelTrace   int64 = -8
	LevelDebug   int64 = -4
	LevelInfo    int64 = 0
	LevelWarning int64 = 4
	LevelError   int64 = 8
	LevelFatal   int64 = 12
)

// Overflow policies for the async queue
const (
	OverflowBlock = "block"
	OverflowDrop  = "drop"
)

// maxDrainBatch bounds the records one drain task delivers before it yields
// its worker to other loggers sharing the pool
const maxDrainBatch = 256

// Console targets
const (
	ConsoleStdout = "stdout"
	ConsoleStderr = "stderr"
)

// DefaultPattern mirrors "[2006-01-02 15:04:05.000] [INFO] [42] message"
const DefaultPattern = "[%Y-%m-%d %H:%M:%S.%e] [%l] [%t] %v"

// Storage
const (
	dirPermissions  = 0755
	filePermissions = 0644
	// Prefix of the marker file written by the directory probe
	probeFilePrefix = ".rlog-probe-"
)
