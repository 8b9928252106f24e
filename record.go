package rlog

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/davecgh/go-spew/spew"
)

// logRecord is the immutable unit moved through a pipeline
type logRecord struct {
	Level       int64
	Time        time.Time
	GoroutineID uint64 // 0 unless the pattern renders %t
	Message     string

	// flushed marks a queue barrier instead of a message, closed on delivery
	flushed chan struct{}
}

// dumper renders composite values on one line, following pointers
var dumper = &spew.ConfigState{
	MaxDepth:                10,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

var messageBufPool = sync.Pool{
	New: func() any {
		b := make([]byte, 0, 256)
		return &b
	},
}

// renderMessage joins args with single spaces
func renderMessage(args []any) string {
	switch len(args) {
	case 0:
		return ""
	case 1:
		if s, ok := args[0].(string); ok {
			return s
		}
	}

	bp := messageBufPool.Get().(*[]byte)
	buf := (*bp)[:0]
	for i, arg := range args {
		if i > 0 {
			buf = append(buf, ' ')
		}
		buf = appendValue(buf, arg)
	}
	msg := string(buf)
	*bp = buf
	messageBufPool.Put(bp)
	return msg
}

// appendValue converts one argument to its text form
func appendValue(buf []byte, v any) []byte {
	switch val := v.(type) {
	case string:
		return append(buf, val...)
	case int:
		return strconv.AppendInt(buf, int64(val), 10)
	case int32:
		return strconv.AppendInt(buf, int64(val), 10)
	case int64:
		return strconv.AppendInt(buf, val, 10)
	case uint:
		return strconv.AppendUint(buf, uint64(val), 10)
	case uint32:
		return strconv.AppendUint(buf, uint64(val), 10)
	case uint64:
		return strconv.AppendUint(buf, val, 10)
	case float32:
		return strconv.AppendFloat(buf, float64(val), 'f', -1, 32)
	case float64:
		return strconv.AppendFloat(buf, val, 'f', -1, 64)
	case bool:
		return strconv.AppendBool(buf, val)
	case nil:
		return append(buf, "nil"...)
	case time.Time:
		return val.AppendFormat(buf, time.RFC3339Nano)
	case time.Duration:
		return append(buf, val.String()...)
	case error:
		return append(buf, val.Error()...)
	case fmt.Stringer:
		return append(buf, val.String()...)
	case []byte:
		return hex.AppendEncode(buf, val)
	default:
		// structs, maps, slices and pointers
		return append(buf, dumper.Sprintf("%+v", val)...)
	}
}

// log builds a record and hands it to the active pipeline. It is a no-op
// unless the logger is running and never panics outward.
func (l *Logger) log(level int64, args []any) {
	if level < l.gate.Load() {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			l.internalLog("error - recovered from panic while logging: %v\n", r)
		}
	}()

	l.pipeMu.RLock()
	defer l.pipeMu.RUnlock()

	p := l.pipe
	if p == nil || l.State() != StateRunning {
		return
	}

	rec := logRecord{
		Level:   level,
		Time:    time.Now(),
		Message: renderMessage(args),
	}
	if p.needsGID {
		rec.GoroutineID = goroutineID()
	}

	if p.disp == nil {
		p.deliver(rec)
		return
	}
	p.disp.enqueue(rec)
}

// internalLog writes logger diagnostics to the diagnostics writer, if enabled
func (l *Logger) internalLog(format string, args ...any) {
	if !l.diagEnabled.Load() {
		return
	}

	// Ensure consistent "rlog: " prefix
	if !strings.HasPrefix(format, "rlog: ") {
		format = "rlog: " + format
	}

	mu := lockFor(l.opts.diag)
	mu.Lock()
	fmt.Fprintf(l.opts.diag, format, args...)
	mu.Unlock()
}
