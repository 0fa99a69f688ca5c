package simulate

import (
	"time"

	"github.com/tendercore/tendercore/core"
	"github.com/tendercore/tendercore/value"
)

const (
	// DefaultTimeout mirrors hyperdrive/timer's DefaultTimeout.
	DefaultTimeout = 2 * time.Second

	// DefaultTimeoutScaling mirrors hyperdrive/timer's
	// DefaultTimeoutScaling.
	DefaultTimeoutScaling = 0.5
)

// LogicalTimer schedules the symbolic ScheduleTimeout messages a
// core.ConsensusState emits, the way hyperdrive/timer.LinearTimer
// schedules process.Step timeouts: the duration scales linearly with
// the round so that liveness is preserved under asynchrony, per the
// Tendermint paper's guidance. Unlike LinearTimer it fires against a
// single dispatch callback keyed by core.Step, since the simulated
// core already tags ScheduleTimeout with the Step it is for.
type LogicalTimer struct {
	timeout        time.Duration
	timeoutScaling float64
	fire           func(kind core.Step, height value.Height, round value.Round)
}

// NewLogicalTimer constructs a LogicalTimer with hyperdrive's default
// timeout and scaling factor. fire is invoked (on its own goroutine,
// after the computed delay) when a scheduled timeout elapses.
func NewLogicalTimer(fire func(kind core.Step, height value.Height, round value.Round)) *LogicalTimer {
	return &LogicalTimer{
		timeout:        DefaultTimeout,
		timeoutScaling: DefaultTimeoutScaling,
		fire:           fire,
	}
}

// WithTimeout overrides the base timeout duration.
func (t *LogicalTimer) WithTimeout(timeout time.Duration) *LogicalTimer {
	t.timeout = timeout
	return t
}

// WithTimeoutScaling overrides the per-round scaling factor.
func (t *LogicalTimer) WithTimeoutScaling(scaling float64) *LogicalTimer {
	t.timeoutScaling = scaling
	return t
}

// Schedule arms a timeout for (kind, height, round), firing after a
// duration that scales linearly with round.
func (t *LogicalTimer) Schedule(kind core.Step, height value.Height, round value.Round) {
	if t.fire == nil {
		return
	}
	go func() {
		time.Sleep(t.duration(round))
		t.fire(kind, height, round)
	}()
}

func (t *LogicalTimer) duration(round value.Round) time.Duration {
	return t.timeout + time.Duration(float64(t.timeout)*float64(round)*t.timeoutScaling)
}
