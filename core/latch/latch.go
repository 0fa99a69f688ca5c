// Package latch implements the per-round "first time" guards that the
// Tendermint transition rules need around their one-shot side effects
// (scheduling a timeout, locking and precommitting a value). It
// generalises the firstTime/firstTimeExceedingF/firstTimeExceeding2F
// bookkeeping that hyperdrive's process.Inbox keeps per message type,
// into a small set of named latches kept per round.
package latch

import "github.com/tendercore/tendercore/value"

// Name identifies a distinct one-shot condition within a round.
type Name string

// The latches consulted by the core's transition rules.
const (
	// PrevotePolka guards rule R7: locking and precommitting on the
	// first Polka observed while in the Prevote step.
	PrevotePolka Name = "prevote-polka"
	// PrevoteAny guards rule R10: scheduling the prevote timeout on the
	// first PolkaAny observed for the round.
	PrevoteAny Name = "prevote-any"
	// PrecommitAny guards rule R12: scheduling the precommit timeout on
	// the first PrecommitAny observed for the round.
	PrecommitAny Name = "precommit-any"
)

// Set tracks, per round, which named latches have already fired.
type Set struct {
	fired map[value.Round]map[Name]bool
}

// NewSet returns an empty Set.
func NewSet() Set {
	return Set{fired: map[value.Round]map[Name]bool{}}
}

// FireOnce reports whether this is the first call for (round, name),
// and marks it fired if so. Subsequent calls for the same (round, name)
// return false.
func (s Set) FireOnce(round value.Round, name Name) bool {
	byName, ok := s.fired[round]
	if !ok {
		byName = map[Name]bool{}
		s.fired[round] = byName
	}
	if byName[name] {
		return false
	}
	byName[name] = true
	return true
}

// Forget drops the latches held for every round strictly below round.
func (s Set) Forget(round value.Round) {
	for r := range s.fired {
		if r < round {
			delete(s.fired, r)
		}
	}
}
