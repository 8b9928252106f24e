// Package formatter compiles a printf-like record pattern once and renders
// log entries against it without further parsing.
//
// Supported tokens:
//
//	%Y  year (4 digits)          %m  month (01-12)      %d  day (01-31)
//	%H  hour (00-23)             %M  minute (00-59)     %S  second (00-59)
//	%e  milliseconds (000-999)   %f  microseconds       %F  nanoseconds
//	%z  UTC offset (+hh:mm)      %l  level name         %L  level initial
//	%t  goroutine id             %v  message            %n  logger name
//	%P  process id               %%  literal percent
//
// Unknown tokens are copied through unchanged.
package formatter

import (
	"os"
	"strconv"
	"time"

	"github.com/lixenwraith/rlog/sanitizer"
)

// Entry is the view of a record the formatter needs
type Entry struct {
	Time        time.Time
	Level       string // upper-case level name
	GoroutineID uint64
	Message     string
	Name        string
}

type segmentKind uint8

const (
	segLiteral segmentKind = iota
	segYear
	segMonth
	segDay
	segHour
	segMinute
	segSecond
	segMilli
	segMicro
	segNano
	segZone
	segLevel
	segLevelShort
	segGoroutine
	segMessage
	segName
	segPID
)

var tokenKinds = map[byte]segmentKind{
	'Y': segYear,
	'm': segMonth,
	'd': segDay,
	'H': segHour,
	'M': segMinute,
	'S': segSecond,
	'e': segMilli,
	'f': segMicro,
	'F': segNano,
	'z': segZone,
	'l': segLevel,
	'L': segLevelShort,
	't': segGoroutine,
	'v': segMessage,
	'n': segName,
	'P': segPID,
}

type segment struct {
	kind    segmentKind
	literal string
}

// Formatter renders entries according to a compiled pattern. It holds no
// mutable state after New and is safe for concurrent use.
type Formatter struct {
	pattern   string
	segments  []segment
	sanitizer *sanitizer.Sanitizer
	pid       string
	goroutine bool
}

// New compiles pattern. An optional sanitizer is applied to the message text.
func New(pattern string, s ...*sanitizer.Sanitizer) *Formatter {
	var san *sanitizer.Sanitizer
	if len(s) > 0 && s[0] != nil {
		san = s[0]
	} else {
		san = sanitizer.New()
	}

	f := &Formatter{
		pattern:   pattern,
		sanitizer: san,
		pid:       strconv.Itoa(os.Getpid()),
	}
	f.compile()
	return f
}

// Pattern returns the source pattern
func (f *Formatter) Pattern() string {
	return f.pattern
}

// UsesGoroutineID reports whether the pattern contains %t, letting callers
// skip the cost of capturing the id.
func (f *Formatter) UsesGoroutineID() bool {
	return f.goroutine
}

func (f *Formatter) compile() {
	var lit []byte
	flush := func() {
		if len(lit) > 0 {
			f.segments = append(f.segments, segment{kind: segLiteral, literal: string(lit)})
			lit = lit[:0]
		}
	}

	p := f.pattern
	for i := 0; i < len(p); i++ {
		c := p[i]
		if c != '%' || i == len(p)-1 {
			lit = append(lit, c)
			continue
		}
		next := p[i+1]
		i++
		if next == '%' {
			lit = append(lit, '%')
			continue
		}
		kind, ok := tokenKinds[next]
		if !ok {
			lit = append(lit, '%', next)
			continue
		}
		flush()
		if kind == segGoroutine {
			f.goroutine = true
		}
		f.segments = append(f.segments, segment{kind: kind})
	}
	flush()
}

// AppendFormat renders e onto dst followed by a newline
func (f *Formatter) AppendFormat(dst []byte, e *Entry) []byte {
	for _, seg := range f.segments {
		switch seg.kind {
		case segLiteral:
			dst = append(dst, seg.literal...)
		case segYear:
			dst = appendPadded(dst, e.Time.Year(), 4)
		case segMonth:
			dst = appendPadded(dst, int(e.Time.Month()), 2)
		case segDay:
			dst = appendPadded(dst, e.Time.Day(), 2)
		case segHour:
			dst = appendPadded(dst, e.Time.Hour(), 2)
		case segMinute:
			dst = appendPadded(dst, e.Time.Minute(), 2)
		case segSecond:
			dst = appendPadded(dst, e.Time.Second(), 2)
		case segMilli:
			dst = appendPadded(dst, e.Time.Nanosecond()/int(time.Millisecond), 3)
		case segMicro:
			dst = appendPadded(dst, e.Time.Nanosecond()/int(time.Microsecond), 6)
		case segNano:
			dst = appendPadded(dst, e.Time.Nanosecond(), 9)
		case segZone:
			dst = e.Time.AppendFormat(dst, "-07:00")
		case segLevel:
			dst = append(dst, e.Level...)
		case segLevelShort:
			if len(e.Level) > 0 {
				dst = append(dst, e.Level[0])
			}
		case segGoroutine:
			dst = strconv.AppendUint(dst, e.GoroutineID, 10)
		case segMessage:
			dst = f.sanitizer.Append(dst, e.Message)
		case segName:
			dst = append(dst, e.Name...)
		case segPID:
			dst = append(dst, f.pid...)
		}
	}
	return append(dst, '\n')
}

// Format renders e into a new slice
func (f *Formatter) Format(e *Entry) []byte {
	return f.AppendFormat(make([]byte, 0, 64+len(e.Message)), e)
}

func appendPadded(dst []byte, v int, width int) []byte {
	var tmp [20]byte
	b := strconv.AppendInt(tmp[:0], int64(v), 10)
	for i := len(b); i < width; i++ {
		dst = append(dst, '0')
	}
	return append(dst, b...)
}
