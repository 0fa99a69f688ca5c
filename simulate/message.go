package simulate

import (
	"fmt"

	"github.com/renproject/id"
	"github.com/tendercore/tendercore/value"
)

// Message is the wire-level union exchanged between Replicas in a
// simulated network: the votes and proposals a real deployment would
// sign and gossip, here carrying only the identity of their sender
// (signing and verification remain out of the core's scope, as in the
// original specification's Non-goals; the simulation only needs to
// know who sent what).
type Message interface {
	fmt.Stringer
	Signatory() id.Signatory
	isMessage()
}

// Propose is a Replica proposing Value for (Height, Round). ValidRound
// is value.InvalidRound for a fresh proposal.
type Propose struct {
	From       id.Signatory
	Height     value.Height
	Round      value.Round
	Value      value.Value
	ValidRound value.Round
}

func (p Propose) isMessage()              {}
func (p Propose) Signatory() id.Signatory { return p.From }
func (p Propose) String() string {
	return fmt.Sprintf("Propose(from=%v, height=%v, round=%v, value=%v, validRound=%v)", p.From, p.Height, p.Round, p.Value, p.ValidRound)
}

// Prevote is a Replica's prevote for Value (value.Nil for nil) at
// (Height, Round).
type Prevote struct {
	From   id.Signatory
	Height value.Height
	Round  value.Round
	Value  value.Value
}

func (p Prevote) isMessage()              {}
func (p Prevote) Signatory() id.Signatory { return p.From }
func (p Prevote) String() string {
	return fmt.Sprintf("Prevote(from=%v, height=%v, round=%v, value=%v)", p.From, p.Height, p.Round, p.Value)
}

// Precommit is a Replica's precommit for Value (value.Nil for nil) at
// (Height, Round).
type Precommit struct {
	From   id.Signatory
	Height value.Height
	Round  value.Round
	Value  value.Value
}

func (p Precommit) isMessage()              {}
func (p Precommit) Signatory() id.Signatory { return p.From }
func (p Precommit) String() string {
	return fmt.Sprintf("Precommit(from=%v, height=%v, round=%v, value=%v)", p.From, p.Height, p.Round, p.Value)
}

// Resync asks a Replica that is at or past (Height, Round) to resend
// its own Propose for its current round, if it proposed in that round,
// the way a Replica that restarted or fell behind catches back up.
// Prevotes and Precommits are not resent. Grounded on
// hyperdrive/process.Resync and the Process.Start/handleResync pair.
type Resync struct {
	From   id.Signatory
	Height value.Height
	Round  value.Round
}

func (r Resync) isMessage()              {}
func (r Resync) Signatory() id.Signatory { return r.From }
func (r Resync) String() string {
	return fmt.Sprintf("Resync(from=%v, height=%v, round=%v)", r.From, r.Height, r.Round)
}
