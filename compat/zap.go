package compat

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lixenwraith/rlog"
	"go.uber.org/zap/zapcore"
)

var _ zapcore.Core = (*ZapCore)(nil)

// ZapCore routes zap entries into an rlog.Logger. Fields are rendered as
// sorted key=value pairs after the message.
//
//	logger := zap.New(compat.NewZapCore(appLogger))
type ZapCore struct {
	logger *rlog.Logger
	fields []zapcore.Field
}

// NewZapCore creates a zapcore.Core backed by logger
func NewZapCore(logger *rlog.Logger) *ZapCore {
	return &ZapCore{logger: logger}
}

// ZapLevel maps a zap level onto the rlog scale
func ZapLevel(lvl zapcore.Level) int64 {
	switch {
	case lvl <= zapcore.DebugLevel:
		return rlog.LevelDebug
	case lvl == zapcore.InfoLevel:
		return rlog.LevelInfo
	case lvl == zapcore.WarnLevel:
		return rlog.LevelWarning
	case lvl == zapcore.ErrorLevel:
		return rlog.LevelError
	default:
		// DPanic, Panic and Fatal
		return rlog.LevelFatal
	}
}

// Enabled compares against the logger's global level
func (c *ZapCore) Enabled(lvl zapcore.Level) bool {
	return ZapLevel(lvl) >= c.logger.GetLogLevel()
}

// With returns a core that adds fields to every entry
func (c *ZapCore) With(fields []zapcore.Field) zapcore.Core {
	merged := make([]zapcore.Field, 0, len(c.fields)+len(fields))
	merged = append(merged, c.fields...)
	merged = append(merged, fields...)
	return &ZapCore{logger: c.logger, fields: merged}
}

// Check adds the core to ce if the entry's level is enabled
func (c *ZapCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

// Write renders the entry and its fields as one record
func (c *ZapCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range c.fields {
		f.AddTo(enc)
	}
	for _, f := range fields {
		f.AddTo(enc)
	}

	var sb strings.Builder
	if ent.LoggerName != "" {
		sb.WriteString(ent.LoggerName)
		sb.WriteString(": ")
	}
	sb.WriteString(ent.Message)

	keys := make([]string, 0, len(enc.Fields))
	for k := range enc.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, " %s=%v", k, enc.Fields[k])
	}

	c.logger.Log(ZapLevel(ent.Level), sb.String())
	return nil
}

// Sync waits for queued records to reach the sinks
func (c *ZapCore) Sync() error {
	return c.logger.Flush()
}
