// Package committee holds the validator-set bookkeeping that the
// consensus core explicitly treats as an external collaborator's
// concern: who the members are, how many faulty members the committee
// tolerates, and whether a given count of votes clears the f+1 or 2f+1
// threshold the Tendermint paper requires before the core is handed a
// Polka/PolkaAny/Precommit/PrecommitAny event.
package committee

import "github.com/renproject/id"

// Committee is the fixed set of Signatories participating in a single
// height. Membership does not change mid-height; a new Committee is
// constructed for each height the way a new core.ConsensusState is.
type Committee struct {
	signatories []id.Signatory
}

// New returns a Committee holding signatories. A signatory may not
// appear more than once.
func New(signatories []id.Signatory) Committee {
	copied := make([]id.Signatory, len(signatories))
	copy(copied, signatories)
	return Committee{signatories: copied}
}

// Size is the number of signatories in the committee.
func (c Committee) Size() int {
	return len(c.signatories)
}

// F is the maximum number of Byzantine-faulty signatories the
// committee tolerates under the standard 3f+1 assumption.
func (c Committee) F() int {
	return (c.Size() - 1) / 3
}

// FPlus1 is the smallest vote count that cannot be explained by
// Byzantine signatories alone, and therefore constitutes evidence that
// at least one honest signatory voted this way. It is the threshold
// rule R14 requires the consumer to apply before emitting NewRound.
func (c Committee) FPlus1() int {
	return c.F() + 1
}

// TwoFPlus1 is the quorum size a Polka, PolkaAny, Precommit, or
// PrecommitAny must reach before the consumer is permitted to report
// one of those events to the core.
func (c Committee) TwoFPlus1() int {
	return 2*c.F() + 1
}

// Includes reports whether signatory is a member of the committee.
func (c Committee) Includes(signatory id.Signatory) bool {
	for _, s := range c.signatories {
		if s.Equal(signatory) {
			return true
		}
	}
	return false
}

// Signatories returns the committee's members in construction order.
func (c Committee) Signatories() []id.Signatory {
	out := make([]id.Signatory, len(c.signatories))
	copy(out, c.signatories)
	return out
}

// Leader returns the signatory round-robin scheduled to propose at
// round, matching the scheduling convention used elsewhere in this
// module's lineage.
func (c Committee) Leader(round int64) id.Signatory {
	if len(c.signatories) == 0 {
		return id.Signatory{}
	}
	idx := round % int64(len(c.signatories))
	if idx < 0 {
		idx += int64(len(c.signatories))
	}
	return c.signatories[idx]
}
