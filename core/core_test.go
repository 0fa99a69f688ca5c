package core_test

import (
	"math/rand"
	"testing/quick"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	. "github.com/tendercore/tendercore/core"
	"github.com/tendercore/tendercore/value"
)

// alwaysProposer makes the instance under test the proposer of a single
// fixed round; every other round falls through to neverProposer-like
// behaviour.
type alwaysProposer struct{ round value.Round }

func (p alwaysProposer) IsProposer(_ value.Height, round value.Round) bool {
	return round == p.round
}

type neverProposer struct{}

func (neverProposer) IsProposer(value.Height, value.Round) bool { return false }

var _ = Describe("Core", func() {
	var (
		V1 = value.FromBytes([]byte("v1"))
		V2 = value.FromBytes([]byte("v2"))
	)

	Context("S1: happy path, this replica is proposer, round 0", func() {
		It("proposes, prevotes, precommits, and decides in order", func() {
			cs, initMsgs := New(value.Height(5), WithProposership(alwaysProposer{round: 0}))
			Expect(initMsgs).To(BeEmpty())

			msgs := cs.Apply(ProposeValue{Value: V1})
			Expect(msgs).To(Equal([]Message{BroadcastProposal{Value: V1, Round: 0, ValidRound: value.InvalidRound}}))

			msgs = cs.Apply(ProposalValid{Value: V1, Round: 0, ValidRound: value.InvalidRound})
			Expect(msgs).To(Equal([]Message{BroadcastPrevote{Value: V1, Round: 0}}))

			msgs = cs.Apply(Polka{Value: V1, Round: 0})
			Expect(msgs).To(Equal([]Message{BroadcastPrecommit{Value: V1, Round: 0}}))

			msgs = cs.Apply(Precommit{Value: V1, Round: 0})
			Expect(msgs).To(Equal([]Message{Decision{Value: V1, Round: 0}}))

			decision, ok := cs.Decision()
			Expect(ok).To(BeTrue())
			Expect(decision).To(Equal(RoundedValue{Value: V1, Round: 0}))
			Expect(cs.CurrentStep()).To(Equal(StepCommitted))
		})
	})

	Context("S2: propose timeout in round 0", func() {
		It("schedules a propose timeout then prevotes nil on firing", func() {
			cs, initMsgs := New(value.Height(1))
			Expect(initMsgs).To(Equal([]Message{ScheduleTimeout{Kind: StepPropose, Height: 1, Round: 0}}))

			msgs := cs.Apply(TimeoutPropose{Height: 1, Round: 0})
			Expect(msgs).To(Equal([]Message{BroadcastPrevote{Value: value.Nil, Round: 0}}))
			Expect(cs.CurrentStep()).To(Equal(StepPrevote))
		})
	})

	Context("S3: lock then unlock across rounds", func() {
		It("re-prevotes the locked value when a re-offered proposal justifies it", func() {
			cs, _ := New(value.Height(1))

			cs.Apply(ProposalValid{Value: V1, Round: 0, ValidRound: value.InvalidRound})
			cs.Apply(Polka{Value: V1, Round: 0})
			locked, ok := cs.LockedValue()
			Expect(ok).To(BeTrue())
			Expect(locked).To(Equal(RoundedValue{Value: V1, Round: 0}))

			cs.Apply(PrecommitAny{Round: 0})
			cs.Apply(TimeoutPrecommit{Height: 1, Round: 0})
			Expect(cs.CurrentRound()).To(Equal(value.Round(1)))

			msgs := cs.Apply(ProposalValid{Value: V1, Round: 1, ValidRound: 0})
			Expect(msgs).To(Equal([]Message{BroadcastPrevote{Value: V1, Round: 1}}))
		})

		It("unlocks onto a different value re-offered with a polka round at or after the lock", func() {
			cs, _ := New(value.Height(1))

			cs.Apply(ProposalValid{Value: V1, Round: 0, ValidRound: value.InvalidRound})
			cs.Apply(Polka{Value: V1, Round: 0})
			locked, ok := cs.LockedValue()
			Expect(ok).To(BeTrue())
			Expect(locked).To(Equal(RoundedValue{Value: V1, Round: 0}))

			cs.Apply(PrecommitAny{Round: 0})
			cs.Apply(TimeoutPrecommit{Height: 1, Round: 0})
			Expect(cs.CurrentRound()).To(Equal(value.Round(1)))

			// A polka for a different value, V2, forms at round 1 while
			// this replica is still locked on V1 from round 0.
			cs.Apply(Polka{Value: V2, Round: 1})
			cs.Apply(NewRound{Round: 2})
			Expect(cs.CurrentRound()).To(Equal(value.Round(2)))

			// The round 0 lock is no later than the round 1 polka being
			// re-offered, so the lock releases and this replica prevotes
			// V2 even though it conflicts with the old lock.
			msgs := cs.Apply(ProposalValid{Value: V2, Round: 2, ValidRound: 1})
			Expect(msgs).To(Equal([]Message{BroadcastPrevote{Value: V2, Round: 2}}))
		})
	})

	Context("S4: lock prevents prevoting a new value", func() {
		It("prevotes nil for a fresh proposal that conflicts with the lock", func() {
			cs, _ := New(value.Height(1))

			cs.Apply(ProposalValid{Value: V1, Round: 0, ValidRound: value.InvalidRound})
			cs.Apply(Polka{Value: V1, Round: 0})
			cs.Apply(PrecommitAny{Round: 0})
			cs.Apply(TimeoutPrecommit{Height: 1, Round: 0})

			msgs := cs.Apply(ProposalValid{Value: V2, Round: 1, ValidRound: value.InvalidRound})
			Expect(msgs).To(Equal([]Message{BroadcastPrevote{Value: value.Nil, Round: 1}}))
		})
	})

	Context("S5: invalid proposal prevotes nil", func() {
		It("prevotes nil without consulting the lock", func() {
			cs, _ := New(value.Height(1))

			msgs := cs.Apply(ProposalInvalid{Value: V1, Round: 0, ValidRound: value.InvalidRound})
			Expect(msgs).To(Equal([]Message{BroadcastPrevote{Value: value.Nil, Round: 0}}))
			Expect(cs.CurrentStep()).To(Equal(StepPrevote))
		})
	})

	Context("S6: decision from a past round", func() {
		It("decides on a precommit for a round behind the current one", func() {
			cs, _ := New(value.Height(1))

			cs.Apply(ProposalValid{Value: V1, Round: 0, ValidRound: value.InvalidRound})
			// Advance all the way to round 3 without ever completing round 0.
			cs.Apply(NewRound{Round: 1})
			cs.Apply(NewRound{Round: 2})
			cs.Apply(NewRound{Round: 3})
			Expect(cs.CurrentRound()).To(Equal(value.Round(3)))

			msgs := cs.Apply(Precommit{Value: V1, Round: 0})
			Expect(msgs).To(Equal([]Message{Decision{Value: V1, Round: 0}}))

			decision, ok := cs.Decision()
			Expect(ok).To(BeTrue())
			Expect(decision).To(Equal(RoundedValue{Value: V1, Round: 0}))
		})
	})

	Context("terminal behaviour (P3, P4)", func() {
		It("returns no further messages and leaves state unchanged once decided", func() {
			cs, _ := New(value.Height(1))
			cs.Apply(ProposalValid{Value: V1, Round: 0, ValidRound: value.InvalidRound})
			cs.Apply(Polka{Value: V1, Round: 0})
			decideMsgs := cs.Apply(Precommit{Value: V1, Round: 0})
			Expect(decideMsgs).To(HaveLen(1))

			roundBefore := cs.CurrentRound()
			stepBefore := cs.CurrentStep()

			Expect(cs.Apply(NewRound{Round: 99})).To(BeEmpty())
			Expect(cs.Apply(TimeoutPropose{Height: 1, Round: 99})).To(BeEmpty())
			Expect(cs.Apply(Polka{Value: V2, Round: 99})).To(BeEmpty())

			Expect(cs.CurrentRound()).To(Equal(roundBefore))
			Expect(cs.CurrentStep()).To(Equal(stepBefore))
		})
	})

	Context("rule R4 join, in either arrival order", func() {
		It("fires the re-offered prevote when the polka was cached before the proposal", func() {
			cs, _ := New(value.Height(1))

			cs.Apply(ProposalValid{Value: V1, Round: 0, ValidRound: value.InvalidRound})
			cs.Apply(Polka{Value: V1, Round: 0})
			cs.Apply(PrecommitAny{Round: 0})
			cs.Apply(TimeoutPrecommit{Height: 1, Round: 0})
			Expect(cs.CurrentRound()).To(Equal(value.Round(1)))

			// Here the Polka for round 0 is already cached from before the
			// round advanced, so the proposal alone completes the join.
			msgs := cs.Apply(ProposalValid{Value: V1, Round: 1, ValidRound: 0})
			Expect(msgs).To(Equal([]Message{BroadcastPrevote{Value: V1, Round: 1}}))
		})

		It("fires when the proposal for the new round arrives before its polka", func() {
			cs, _ := New(value.Height(2))

			// No proposal is seen in round 0, so this replica never locks;
			// the instance is pushed to round 1 by f+1 evidence.
			cs.Apply(NewRound{Round: 1})
			Expect(cs.CurrentRound()).To(Equal(value.Round(1)))

			// The re-offered proposal arrives before the round 0 polka it
			// cites, so it is only cached.
			Expect(cs.Apply(ProposalValid{Value: V1, Round: 1, ValidRound: 0})).To(BeEmpty())

			// The polka completes the join and retriggers rule R4.
			msgs := cs.Apply(Polka{Value: V1, Round: 0})
			Expect(msgs).To(Equal([]Message{BroadcastPrevote{Value: V1, Round: 1}}))
		})
	})

	Context("rule R10/R11: prevote timeout", func() {
		It("schedules then fires a prevote timeout exactly once", func() {
			cs, _ := New(value.Height(1))
			cs.Apply(ProposalValid{Value: V1, Round: 0, ValidRound: value.InvalidRound})

			msgs := cs.Apply(PolkaAny{Round: 0})
			Expect(msgs).To(Equal([]Message{ScheduleTimeout{Kind: StepPrevote, Height: 1, Round: 0}}))

			// A second PolkaAny for the same round must not re-fire the latch.
			Expect(cs.Apply(PolkaAny{Round: 0})).To(BeEmpty())

			msgs = cs.Apply(TimeoutPrevote{Height: 1, Round: 0})
			Expect(msgs).To(Equal([]Message{BroadcastPrecommit{Value: value.Nil, Round: 0}}))
		})
	})

	Context("rule R9: prevote nil majority", func() {
		It("precommits nil on a nil polka", func() {
			cs, _ := New(value.Height(1))
			cs.Apply(ProposalValid{Value: V1, Round: 0, ValidRound: value.InvalidRound})

			msgs := cs.Apply(PolkaNil{Round: 0})
			Expect(msgs).To(Equal([]Message{BroadcastPrecommit{Value: value.Nil, Round: 0}}))
			Expect(cs.CurrentStep()).To(Equal(StepPrecommit))
		})
	})

	Context("rule R12: precommit timeout", func() {
		It("schedules then advances the round exactly once per PrecommitAny", func() {
			cs, _ := New(value.Height(1))

			msgs := cs.Apply(PrecommitAny{Round: 0})
			Expect(msgs).To(Equal([]Message{ScheduleTimeout{Kind: StepPrecommit, Height: 1, Round: 0}}))

			Expect(cs.Apply(PrecommitAny{Round: 0})).To(BeEmpty())

			msgs = cs.Apply(TimeoutPrecommit{Height: 1, Round: 0})
			Expect(msgs).To(Equal([]Message{ScheduleTimeout{Kind: StepPropose, Height: 1, Round: 1}}))
			Expect(cs.CurrentRound()).To(Equal(value.Round(1)))
			Expect(cs.CurrentStep()).To(Equal(StepPropose))
		})
	})

	Context("resuming from a carried-over lock/valid value", func() {
		It("seeds locked_value and valid_value at construction", func() {
			cs, _ := New(value.Height(7),
				WithInitialRound(2),
				WithLockedValue(V1, 1),
				WithValidValue(V1, 1),
			)

			locked, ok := cs.LockedValue()
			Expect(ok).To(BeTrue())
			Expect(locked).To(Equal(RoundedValue{Value: V1, Round: 1}))

			valid, ok := cs.ValidValue()
			Expect(ok).To(BeTrue())
			Expect(valid).To(Equal(RoundedValue{Value: V1, Round: 1}))

			Expect(cs.CurrentRound()).To(Equal(value.Round(2)))
		})
	})

	Context("rule R2: proposer re-offers its valid_value", func() {
		It("proposes the cached valid_value instead of the event's value", func() {
			cs, _ := New(value.Height(1),
				WithProposership(alwaysProposer{round: 1}),
				WithInitialRound(1),
				WithValidValue(V1, 0),
			)

			msgs := cs.Apply(ProposeValue{Value: V2})
			Expect(msgs).To(Equal([]Message{BroadcastProposal{Value: V1, Round: 1, ValidRound: 0}}))
		})
	})

	Context("property: determinism (P8)", func() {
		It("produces identical message traces for identical event sequences", func() {
			run := func(seed int64) []Message {
				rnd := rand.New(rand.NewSource(seed))
				events := randomEventSequence(rnd, 40)
				cs, initMsgs := New(value.Height(1))
				all := append([]Message{}, initMsgs...)
				for _, e := range events {
					all = append(all, cs.Apply(e)...)
				}
				return all
			}

			f := func(seed int64) bool {
				a := run(seed)
				b := run(seed)
				if len(a) != len(b) {
					return false
				}
				for i := range a {
					if a[i].String() != b[i].String() {
						return false
					}
				}
				return true
			}

			Expect(quick.Check(f, &quick.Config{MaxCount: 64})).To(Succeed())
		})
	})

	Context("property: round monotonicity and step reset (P1, P2)", func() {
		It("never regresses round, and resets step to Propose exactly on round advance", func() {
			f := func(seed int64) bool {
				rnd := rand.New(rand.NewSource(seed))
				events := randomEventSequence(rnd, 60)
				cs, _ := New(value.Height(1))

				prevRound := cs.CurrentRound()
				for _, e := range events {
					cs.Apply(e)
					round := cs.CurrentRound()
					if round < prevRound {
						return false
					}
					if round > prevRound && cs.CurrentStep() != StepPropose && cs.CurrentStep() != StepCommitted {
						return false
					}
					prevRound = round
				}
				return true
			}

			Expect(quick.Check(f, &quick.Config{MaxCount: 64})).To(Succeed())
		})
	})

	Context("property: terminal once decided (P3, P4)", func() {
		It("never emits a Decision message, or changes round/step, after deciding", func() {
			f := func(seed int64) bool {
				rnd := rand.New(rand.NewSource(seed))
				events := randomEventSequence(rnd, 80)
				cs, _ := New(value.Height(1))

				decided := false
				var frozenRound value.Round
				var frozenStep Step
				decisionCount := 0

				for _, e := range events {
					msgs := cs.Apply(e)
					for _, m := range msgs {
						if _, ok := m.(Decision); ok {
							decisionCount++
						}
					}
					if decided {
						if len(msgs) != 0 {
							return false
						}
						if cs.CurrentRound() != frozenRound || cs.CurrentStep() != frozenStep {
							return false
						}
					}
					if _, ok := cs.Decision(); ok && !decided {
						decided = true
						frozenRound = cs.CurrentRound()
						frozenStep = cs.CurrentStep()
					}
				}
				return decisionCount <= 1
			}

			Expect(quick.Check(f, &quick.Config{MaxCount: 64})).To(Succeed())
		})
	})
})

// randomEventSequence generates an arbitrary admissible event sequence over
// a small set of values and rounds, exercising every Event variant the core
// accepts. It never constructs NewHeight (construction-only).
func randomEventSequence(rnd *rand.Rand, n int) []Event {
	values := []value.Value{
		value.FromBytes([]byte("a")),
		value.FromBytes([]byte("b")),
	}
	events := make([]Event, 0, n)
	for i := 0; i < n; i++ {
		round := value.Round(rnd.Intn(4))
		v := values[rnd.Intn(len(values))]
		switch rnd.Intn(13) {
		case 0:
			events = append(events, NewRound{Round: round})
		case 1:
			events = append(events, ProposeValue{Value: v})
		case 2:
			events = append(events, ProposalValid{Value: v, Round: round, ValidRound: value.InvalidRound})
		case 3:
			vr := value.Round(rnd.Intn(int(round) + 1))
			events = append(events, ProposalValid{Value: v, Round: round, ValidRound: vr - 1})
		case 4:
			events = append(events, ProposalInvalid{Value: v, Round: round, ValidRound: value.InvalidRound})
		case 5:
			events = append(events, Polka{Value: v, Round: round})
		case 6:
			events = append(events, PolkaNil{Round: round})
		case 7:
			events = append(events, PolkaAny{Round: round})
		case 8:
			events = append(events, Precommit{Value: v, Round: round})
		case 9:
			events = append(events, PrecommitAny{Round: round})
		case 10:
			events = append(events, TimeoutPropose{Height: 1, Round: round})
		case 11:
			events = append(events, TimeoutPrevote{Height: 1, Round: round})
		case 12:
			events = append(events, TimeoutPrecommit{Height: 1, Round: round})
		}
	}
	return events
}
