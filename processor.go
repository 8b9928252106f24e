package rlog

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/rlog/formatter"
	"github.com/lixenwraith/rlog/sanitizer"
)

// pipeline is everything built from one resolved configuration: the sink
// arena, the compiled pattern and, in async mode, the dispatcher with its
// pool reference. SetConfig replaces the whole pipeline.
type pipeline struct {
	rc        *ResolvedConfig
	sinks     []*Sink
	formatter *formatter.Formatter
	needsGID  bool

	disp *dispatcher // nil in sync mode
	pool *WorkerPool

	processed *atomic.Uint64
	diag      func(format string, args ...any)

	flushStop chan struct{}
	flushDone chan struct{}
	stopOnce  sync.Once
}

var lineBufPool = sync.Pool{
	New: func() any {
		b := make([]byte, 0, 512)
		return &b
	},
}

func newPipeline(rc *ResolvedConfig, sinks []*Sink, pool *WorkerPool, processed *atomic.Uint64, diag func(string, ...any)) *pipeline {
	s := sanitizer.New().Policy(sanitizer.PolicyPreset(rc.Sanitization))
	f := formatter.New(rc.Pattern, s)

	p := &pipeline{
		rc:        rc,
		sinks:     sinks,
		formatter: f,
		needsGID:  f.UsesGoroutineID(),
		pool:      pool,
		processed: processed,
		diag:      diag,
	}
	if pool != nil {
		p.disp = newDispatcher(int(rc.QueueSize), rc.OverflowPolicy, pool, p.deliver)
	}
	return p
}

// start launches the periodic flush when an interval is configured
func (p *pipeline) start() {
	if p.rc.FlushIntervalMs <= 0 {
		return
	}
	p.flushStop = make(chan struct{})
	p.flushDone = make(chan struct{})
	go p.flushLoop(time.Duration(p.rc.FlushIntervalMs) * time.Millisecond)
}

func (p *pipeline) flushLoop(interval time.Duration) {
	defer close(p.flushDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := flushSinks(p.sinks); err != nil {
				p.diag("warning - periodic flush failed: %v\n", err)
			}
		case <-p.flushStop:
			return
		}
	}
}

// minThreshold is the lowest level any sink accepts
func (p *pipeline) minThreshold() int64 {
	lowest := LevelFatal
	for _, s := range p.sinks {
		if th := s.threshold.Load(); th < lowest {
			lowest = th
		}
	}
	return lowest
}

// deliver formats rec once and writes it to every sink whose threshold it
// passes. Sink failures become diagnostics.
func (p *pipeline) deliver(rec logRecord) {
	defer func() {
		if r := recover(); r != nil {
			p.diag("error - recovered from panic while writing record: %v\n", r)
		}
	}()

	accepted := false
	for _, s := range p.sinks {
		if s.accepts(rec.Level) {
			accepted = true
			break
		}
	}
	if !accepted {
		return
	}

	entry := formatter.Entry{
		Time:        rec.Time,
		Level:       LevelToString(rec.Level),
		GoroutineID: rec.GoroutineID,
		Message:     rec.Message,
		Name:        p.rc.Name,
	}

	bp := lineBufPool.Get().(*[]byte)
	line := p.formatter.AppendFormat((*bp)[:0], &entry)
	flush := shouldEmit(rec.Level, p.rc.FlushLevel)

	written := false
	for _, s := range p.sinks {
		if !s.accepts(rec.Level) {
			continue
		}
		if err := s.write(line); err != nil {
			p.diag("error - failed to write to %s sink: %v\n", s.kind, err)
			continue
		}
		written = true
		if flush {
			if err := s.flush(); err != nil {
				p.diag("warning - failed to flush %s sink: %v\n", s.kind, err)
			}
		}
	}

	*bp = line
	lineBufPool.Put(bp)
	if written {
		p.processed.Add(1)
	}
}

// stop drains the dispatcher, stops the flush loop and releases the sinks and
// the pool reference. On ErrTimeout nothing is released and stop may be
// retried.
func (p *pipeline) stop(timeout time.Duration) error {
	if p.disp != nil {
		if err := p.disp.stop(timeout); err != nil {
			return err
		}
	}

	var closeErr error
	p.stopOnce.Do(func() {
		if p.flushStop != nil {
			close(p.flushStop)
			<-p.flushDone
		}
		closeErr = closeSinks(p.sinks)
		if p.pool != nil {
			p.pool.Release()
		}
	})
	return closeErr
}

func (p *pipeline) dropped() uint64 {
	if p.disp == nil {
		return 0
	}
	return p.disp.dropped.Load()
}

func (p *pipeline) rotations() uint64 {
	var n uint64
	for _, s := range p.sinks {
		if s.kind == SinkFile {
			n += s.file.Rotations()
		}
	}
	return n
}

func (p *pipeline) rotationFailures() uint64 {
	var n uint64
	for _, s := range p.sinks {
		if s.kind == SinkFile {
			n += s.file.RotationFailures()
		}
	}
	return n
}
