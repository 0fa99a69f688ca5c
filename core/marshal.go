package core

import (
	"io"

	"github.com/renproject/surge"
	"github.com/tendercore/tendercore/value"
)

// snapshot is the wire form of a ConsensusState: enough to resume an
// Instance across a process restart via New, WithInitialRound,
// WithLockedValue, and WithValidValue. It deliberately excludes the
// join.Cache and latch.Set: both are re-derived from replayed events
// (or simply left empty, at the cost of re-running already-satisfied
// joins, which is always safe since Apply is idempotent once a
// condition's latch has not yet fired).
type snapshot struct {
	Height value.Height
	Round  value.Round
	Step   Step

	HasLockedValue bool
	LockedValue    RoundedValue

	HasValidValue bool
	ValidValue    RoundedValue

	HasDecision bool
	Decision    RoundedValue
}

// Snapshot captures enough of cs to resume it later via Resume. It is
// exercised by a consumer that persists consensus state across
// restarts rather than losing an in-progress height.
func (cs *ConsensusState) Snapshot() snapshot {
	s := snapshot{
		Height: cs.height,
		Round:  cs.round,
		Step:   cs.step,
	}
	if cs.lockedValue != nil {
		s.HasLockedValue = true
		s.LockedValue = *cs.lockedValue
	}
	if cs.validValue != nil {
		s.HasValidValue = true
		s.ValidValue = *cs.validValue
	}
	if cs.decision != nil {
		s.HasDecision = true
		s.Decision = *cs.decision
	}
	return s
}

// Resume reconstructs a ConsensusState from a previously taken
// Snapshot. The returned Instance has no pending ScheduleTimeout: the
// consumer is responsible for re-arming whatever timeout was in flight
// when the snapshot was taken, typically by re-issuing it immediately
// against the resumed Step and Round.
func Resume(s snapshot, opts ...Option) *ConsensusState {
	resumeOpts := make([]Option, 0, len(opts)+3)
	resumeOpts = append(resumeOpts, WithInitialRound(s.Round))
	if s.HasLockedValue {
		resumeOpts = append(resumeOpts, WithLockedValue(s.LockedValue.Value, s.LockedValue.Round))
	}
	if s.HasValidValue {
		resumeOpts = append(resumeOpts, WithValidValue(s.ValidValue.Value, s.ValidValue.Round))
	}
	resumeOpts = append(resumeOpts, opts...)

	cs, _ := New(s.Height, resumeOpts...)
	cs.step = s.Step
	if s.HasDecision {
		cs.decision = &s.Decision
		cs.step = StepCommitted
	}
	return cs
}

// SizeHint implements surge.SizeHinter.
func (s snapshot) SizeHint() int {
	return s.Height.SizeHint() + s.Round.SizeHint() + s.Step.SizeHint() +
		surge.SizeHint(s.HasLockedValue) + s.LockedValue.SizeHint() +
		surge.SizeHint(s.HasValidValue) + s.ValidValue.SizeHint() +
		surge.SizeHint(s.HasDecision) + s.Decision.SizeHint()
}

// Marshal implements surge.Marshaler.
func (s snapshot) Marshal(w io.Writer, m int) (int, error) {
	m, err := s.Height.Marshal(w, m)
	if err != nil {
		return m, err
	}
	if m, err = s.Round.Marshal(w, m); err != nil {
		return m, err
	}
	if m, err = s.Step.Marshal(w, m); err != nil {
		return m, err
	}
	if m, err = surge.Marshal(w, s.HasLockedValue, m); err != nil {
		return m, err
	}
	if m, err = s.LockedValue.Marshal(w, m); err != nil {
		return m, err
	}
	if m, err = surge.Marshal(w, s.HasValidValue, m); err != nil {
		return m, err
	}
	if m, err = s.ValidValue.Marshal(w, m); err != nil {
		return m, err
	}
	if m, err = surge.Marshal(w, s.HasDecision, m); err != nil {
		return m, err
	}
	return s.Decision.Marshal(w, m)
}

// Unmarshal implements surge.Unmarshaler.
func (s *snapshot) Unmarshal(r io.Reader, m int) (int, error) {
	m, err := s.Height.Unmarshal(r, m)
	if err != nil {
		return m, err
	}
	if m, err = s.Round.Unmarshal(r, m); err != nil {
		return m, err
	}
	if m, err = s.Step.Unmarshal(r, m); err != nil {
		return m, err
	}
	if m, err = surge.Unmarshal(r, &s.HasLockedValue, m); err != nil {
		return m, err
	}
	if m, err = s.LockedValue.Unmarshal(r, m); err != nil {
		return m, err
	}
	if m, err = surge.Unmarshal(r, &s.HasValidValue, m); err != nil {
		return m, err
	}
	if m, err = s.ValidValue.Unmarshal(r, m); err != nil {
		return m, err
	}
	if m, err = surge.Unmarshal(r, &s.HasDecision, m); err != nil {
		return m, err
	}
	return s.Decision.Unmarshal(r, m)
}

// SizeHint implements surge.SizeHinter.
func (rv RoundedValue) SizeHint() int {
	return rv.Value.SizeHint() + rv.Round.SizeHint()
}

// Marshal implements surge.Marshaler.
func (rv RoundedValue) Marshal(w io.Writer, m int) (int, error) {
	m, err := rv.Value.Marshal(w, m)
	if err != nil {
		return m, err
	}
	return rv.Round.Marshal(w, m)
}

// Unmarshal implements surge.Unmarshaler.
func (rv *RoundedValue) Unmarshal(r io.Reader, m int) (int, error) {
	m, err := rv.Value.Unmarshal(r, m)
	if err != nil {
		return m, err
	}
	return rv.Round.Unmarshal(r, m)
}
