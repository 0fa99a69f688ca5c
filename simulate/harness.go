package simulate

import (
	"time"

	"github.com/renproject/id"
	"github.com/tendercore/tendercore/committee"
	"github.com/tendercore/tendercore/core"
	"github.com/tendercore/tendercore/value"
)

// ConstantProposer always proposes the same Value, regardless of
// height or round. Useful for tests that only care about agreement,
// not about what gets agreed upon.
type ConstantProposer struct {
	Value value.Value
}

// Propose returns the constant value.
func (p ConstantProposer) Propose(value.Height, value.Round) value.Value {
	return p.Value
}

// Harness wires a committee's worth of Replicas into a single Network,
// the way a test driver for hyperdrive/testutil/replica would, so a
// multi-instance safety simulation only needs to call StartHeight and
// collect decisions.
type Harness struct {
	Network   *Network
	Committee committee.Committee
	Replicas  []*Replica
	Decisions chan Decided
}

// Decided pairs a Replica's decision with its signatory, as delivered
// on Harness.Decisions.
type Decided struct {
	Signatory id.Signatory
	Decision  core.RoundedValue
}

// NewHarness constructs n Replicas sharing a committee and a Network
// with the given latency bounds. Every Replica proposes the same
// value when it leads, which is sufficient to exercise P9's
// cross-instance agreement property without modelling application
// semantics.
func NewHarness(n int, minLatency, maxLatency time.Duration) *Harness {
	signatories := make([]id.Signatory, n)
	for i := range signatories {
		var sig id.Signatory
		sig[0] = byte(i + 1)
		signatories[i] = sig
	}

	com := committee.New(signatories)
	network := NewNetwork(minLatency, maxLatency)

	h := &Harness{
		Network:   network,
		Committee: com,
		Decisions: make(chan Decided, n),
	}

	proposer := ConstantProposer{Value: value.FromBytes([]byte("harness-value"))}
	for _, sig := range signatories {
		r := NewReplica(sig, com, proposer, AlwaysValid{}, h, CatchAndIgnore(), network)
		network.Join(r)
		h.Replicas = append(h.Replicas, r)
	}
	return h
}

// DidDecide implements Observer, forwarding every decision onto
// Decisions.
func (h *Harness) DidDecide(signatory id.Signatory, decision core.RoundedValue) {
	h.Decisions <- Decided{Signatory: signatory, Decision: decision}
}

// StartHeight starts every Replica at height, all from round 0.
func (h *Harness) StartHeight(height value.Height) {
	for _, r := range h.Replicas {
		r.StartHeight(height)
	}
}
