package committee

import (
	"github.com/renproject/id"
	"github.com/tendercore/tendercore/value"
)

// Tally counts votes (prevotes or precommits, depending on the
// collaborator that owns it) for a single round, one per signatory,
// and reports the quorum conditions the consensus core's Event
// taxonomy needs as pre-classified facts: a majority Polka/Precommit
// for some value, a PolkaNil 2f+1 nil majority, or a PolkaAny/PrecommitAny
// split vote with no single majority.
//
// Counting votes is, by design, not the core's job (see the out of
// scope list); Tally is where that job actually lives.
type Tally struct {
	committee Committee
	votes     map[id.Signatory]value.Value
}

// NewTally returns an empty Tally for committee.
func NewTally(committee Committee) *Tally {
	return &Tally{
		committee: committee,
		votes:     map[id.Signatory]value.Value{},
	}
}

// Vote records signatory's vote for v, overwriting any previous vote
// by the same signatory (conflicting votes are not reported anywhere;
// the simulate Catcher only sees conflicting proposals). It is a no-op
// if signatory is not a member of the committee.
func (t *Tally) Vote(signatory id.Signatory, v value.Value) {
	if !t.committee.Includes(signatory) {
		return
	}
	t.votes[signatory] = v
}

// NumVotes is the number of distinct signatories that have voted so
// far, regardless of which value they voted for.
func (t *Tally) NumVotes() int {
	return len(t.votes)
}

// Polka reports the value with a 2f+1 majority, if one exists. A nil
// majority is reported via PolkaNil, not here.
func (t *Tally) Polka() (value.Value, bool) {
	counts := t.countsByValue()
	threshold := t.committee.TwoFPlus1()
	for v, count := range counts {
		if v.IsNil() {
			continue
		}
		if count >= threshold {
			return v, true
		}
	}
	return value.Nil, false
}

// PolkaNil reports whether at least 2f+1 signatories voted nil.
func (t *Tally) PolkaNil() bool {
	counts := t.countsByValue()
	return counts[value.Nil] >= t.committee.TwoFPlus1()
}

// PolkaAny reports whether at least 2f+1 votes have been cast in
// total, with neither Polka nor PolkaNil holding — a majority spread
// across multiple values and/or nil.
func (t *Tally) PolkaAny() bool {
	if t.NumVotes() < t.committee.TwoFPlus1() {
		return false
	}
	if _, ok := t.Polka(); ok {
		return false
	}
	return !t.PolkaNil()
}

func (t *Tally) countsByValue() map[value.Value]int {
	counts := make(map[value.Value]int, len(t.votes))
	for _, v := range t.votes {
		counts[v]++
	}
	return counts
}
