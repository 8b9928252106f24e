package rlog

// State is the lifecycle phase of a Logger
type State int32

const (
	StateUninitialized State = iota // Created by NewLogger, no pipeline
	StateConfigured                 // Pipeline built, not yet accepting records
	StateRunning                    // Accepting records
	StateDraining                   // SetConfig or Shutdown waiting for the queue
	StateStopped                    // Terminal
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateConfigured:
		return "configured"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Stats is a snapshot of a Logger's counters. Counters accumulate across
// reconfigurations.
type Stats struct {
	Processed        uint64 // Records written to at least one sink
	Dropped          uint64 // Records discarded by the drop overflow policy
	Rotations        uint64
	RotationFailures uint64
	QueueDepth       int // Records waiting in the async queue
}

// State returns the current lifecycle phase
func (l *Logger) State() State {
	return State(l.state.Load())
}

// Stats returns the current counters
func (l *Logger) Stats() Stats {
	l.pipeMu.RLock()
	defer l.pipeMu.RUnlock()

	st := Stats{
		Processed:        l.processed.Load(),
		Dropped:          l.retired.dropped,
		Rotations:        l.retired.rotations,
		RotationFailures: l.retired.failures,
	}
	if p := l.pipe; p != nil {
		st.Dropped += p.dropped()
		st.Rotations += p.rotations()
		st.RotationFailures += p.rotationFailures()
		if p.disp != nil {
			st.QueueDepth = p.disp.depth()
		}
	}
	return st
}

// retiredCounters keeps the totals of pipelines replaced by SetConfig
type retiredCounters struct {
	dropped   uint64
	rotations uint64
	failures  uint64
}

func (r *retiredCounters) add(p *pipeline) {
	r.dropped += p.dropped()
	r.rotations += p.rotations()
	r.failures += p.rotationFailures()
}
