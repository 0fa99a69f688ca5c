package simulate

import (
	"sync"

	"github.com/renproject/id"
	"github.com/sirupsen/logrus"

	"github.com/tendercore/tendercore/committee"
	"github.com/tendercore/tendercore/core"
	"github.com/tendercore/tendercore/logging"
	"github.com/tendercore/tendercore/value"
)

// Proposer supplies the value a Replica proposes when it is the
// leader of a round, mirroring hyperdrive/process.Proposer.
type Proposer interface {
	Propose(height value.Height, round value.Round) value.Value
}

// Validator judges the application-level validity of a proposed
// value, mirroring hyperdrive/process.Validator (simplified: the
// core's ProposalValid/ProposalInvalid split needs only a boolean
// here, since NilReasons is a debugging concern the simulation does
// not need).
type Validator interface {
	IsValid(v value.Value) bool
}

// AlwaysValid is a Validator that accepts every value, for
// simulations where application-level validity is not under test.
type AlwaysValid struct{}

// IsValid always returns true.
func (AlwaysValid) IsValid(value.Value) bool { return true }

// Observer is notified of a Replica's terminal decision, mirroring
// hyperdrive/process.Observer.DidCommitBlock.
type Observer interface {
	DidDecide(signatory id.Signatory, decision core.RoundedValue)
}

// Replica drives a single core.ConsensusState against the votes and
// proposals arriving over a Network, performing the vote counting,
// proposer determination, and proposal validation the core explicitly
// treats as the consumer's job.
type Replica struct {
	mu sync.Mutex

	signatory  id.Signatory
	committee  committee.Committee
	logger     logrus.FieldLogger
	proposer   Proposer
	validator  Validator
	observer   Observer
	catcher    Catcher
	network    *Network
	timer      *LogicalTimer

	cs *core.ConsensusState

	proposals  map[value.Round]map[id.Signatory]Propose
	prevotes   map[value.Round]*committee.Tally
	precommits map[value.Round]*committee.Tally
}

// NewReplica constructs a Replica for signatory within committee,
// wired into network. It does not yet participate in any height; call
// StartHeight to begin one.
func NewReplica(signatory id.Signatory, com committee.Committee, proposer Proposer, validator Validator, observer Observer, catcher Catcher, network *Network) *Replica {
	if validator == nil {
		validator = AlwaysValid{}
	}
	if catcher == nil {
		catcher = CatchAndIgnore()
	}
	r := &Replica{
		signatory: signatory,
		committee: com,
		logger:    logging.New("simulate", signatory.String()),
		proposer:  proposer,
		validator: validator,
		observer:  observer,
		catcher:   catcher,
		network:   network,
	}
	r.timer = NewLogicalTimer(r.handleTimeout)
	return r
}

// Signatory identifies this Replica within its committee.
func (r *Replica) Signatory() id.Signatory {
	return r.signatory
}

// StartHeight constructs a fresh core.ConsensusState for height and
// dispatches whatever the initial round entry produces, exactly the
// way hyperdrive/process.Process.Start resends pending messages and
// starts its current round.
func (r *Replica) StartHeight(height value.Height, opts ...core.Option) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.proposals = map[value.Round]map[id.Signatory]Propose{}
	r.prevotes = map[value.Round]*committee.Tally{}
	r.precommits = map[value.Round]*committee.Tally{}

	allOpts := append([]core.Option{
		core.WithLogger(r.logger),
		core.WithProposership(proposershipFunc(func(h value.Height, round value.Round) bool {
			return r.committee.Leader(int64(round)).Equal(r.signatory)
		})),
	}, opts...)

	cs, msgs := core.New(height, allOpts...)
	r.cs = cs
	r.dispatch(msgs)

	if r.committee.Leader(int64(cs.CurrentRound())).Equal(r.signatory) {
		v := r.proposer.Propose(height, cs.CurrentRound())
		r.dispatch(r.cs.Apply(core.ProposeValue{Value: v}))
	}
}

// Deliver hands msg, received over the Network, to this Replica for
// classification and application.
func (r *Replica) Deliver(msg Message) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cs == nil {
		return
	}

	switch m := msg.(type) {
	case Propose:
		r.handlePropose(m)
	case Prevote:
		r.handleVote(m.From, m.Round, m.Value, r.tallyFor(r.prevotes, m.Round), r.classifyPrevote)
	case Precommit:
		r.handleVote(m.From, m.Round, m.Value, r.tallyFor(r.precommits, m.Round), r.classifyPrecommit)
	case Resync:
		r.handleResync(m)
	}
}

func (r *Replica) handlePropose(m Propose) {
	byRound, ok := r.proposals[m.Round]
	if !ok {
		byRound = map[id.Signatory]Propose{}
		r.proposals[m.Round] = byRound
	}
	if existing, ok := byRound[m.From]; ok && !existing.Value.Equal(m.Value) {
		r.catcher.DidReceiveConflictingPropose(m, existing)
		return
	}
	byRound[m.From] = m

	if r.validator.IsValid(m.Value) {
		r.dispatch(r.cs.Apply(core.ProposalValid{Value: m.Value, Round: m.Round, ValidRound: m.ValidRound}))
	} else {
		r.dispatch(r.cs.Apply(core.ProposalInvalid{Value: m.Value, Round: m.Round, ValidRound: m.ValidRound}))
	}
}

func (r *Replica) tallyFor(tallies map[value.Round]*committee.Tally, round value.Round) *committee.Tally {
	t, ok := tallies[round]
	if !ok {
		t = committee.NewTally(r.committee)
		tallies[round] = t
	}
	return t
}

func (r *Replica) handleVote(from id.Signatory, round value.Round, v value.Value, tally *committee.Tally, classify func(round value.Round, tally *committee.Tally) []core.Event) {
	tally.Vote(from, v)
	for _, event := range classify(round, tally) {
		r.dispatch(r.cs.Apply(event))
	}
}

func (r *Replica) classifyPrevote(round value.Round, tally *committee.Tally) []core.Event {
	events := make([]core.Event, 0, 1)
	if v, ok := tally.Polka(); ok {
		events = append(events, core.Polka{Value: v, Round: round})
	} else if tally.PolkaNil() {
		events = append(events, core.PolkaNil{Round: round})
	} else if tally.PolkaAny() {
		events = append(events, core.PolkaAny{Round: round})
	}
	return events
}

func (r *Replica) classifyPrecommit(round value.Round, tally *committee.Tally) []core.Event {
	events := make([]core.Event, 0, 1)
	if v, ok := tally.Polka(); ok {
		events = append(events, core.Precommit{Value: v, Round: round})
	} else if tally.PolkaNil() {
		events = append(events, core.Precommit{Value: value.Nil, Round: round})
	} else if tally.PolkaAny() {
		events = append(events, core.PrecommitAny{Round: round})
	}
	return events
}

func (r *Replica) handleResync(m Resync) {
	height := r.cs.CurrentHeight()
	round := r.cs.CurrentRound()
	if height < m.Height || (height == m.Height && round < m.Round) {
		return
	}
	if byRound, ok := r.proposals[round]; ok {
		if propose, ok := byRound[r.signatory]; ok {
			r.network.send(propose, &m.From)
		}
	}
}

func (r *Replica) handleTimeout(kind core.Step, height value.Height, round value.Round) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cs == nil || r.cs.CurrentHeight() != height {
		return
	}
	switch kind {
	case core.StepPropose:
		r.dispatch(r.cs.Apply(core.TimeoutPropose{Height: height, Round: round}))
	case core.StepPrevote:
		r.dispatch(r.cs.Apply(core.TimeoutPrevote{Height: height, Round: round}))
	case core.StepPrecommit:
		r.dispatch(r.cs.Apply(core.TimeoutPrecommit{Height: height, Round: round}))
		if next := r.cs.CurrentRound(); next > round && r.committee.Leader(int64(next)).Equal(r.signatory) {
			r.dispatch(r.cs.Apply(core.ProposeValue{Value: r.proposer.Propose(height, next)}))
		}
	}
}

func (r *Replica) dispatch(msgs []core.Message) {
	for _, msg := range msgs {
		switch m := msg.(type) {
		case core.BroadcastProposal:
			r.network.broadcast(Propose{From: r.signatory, Height: r.cs.CurrentHeight(), Round: m.Round, Value: m.Value, ValidRound: m.ValidRound})
		case core.BroadcastPrevote:
			r.network.broadcast(Prevote{From: r.signatory, Height: r.cs.CurrentHeight(), Round: m.Round, Value: m.Value})
		case core.BroadcastPrecommit:
			r.network.broadcast(Precommit{From: r.signatory, Height: r.cs.CurrentHeight(), Round: m.Round, Value: m.Value})
		case core.ScheduleTimeout:
			r.timer.Schedule(m.Kind, m.Height, m.Round)
		case core.Decision:
			if r.observer != nil {
				r.observer.DidDecide(r.signatory, core.RoundedValue{Value: m.Value, Round: m.Round})
			}
		}
	}
}

// proposershipFunc adapts a plain function to core.Proposership.
type proposershipFunc func(height value.Height, round value.Round) bool

func (f proposershipFunc) IsProposer(height value.Height, round value.Round) bool {
	return f(height, round)
}
