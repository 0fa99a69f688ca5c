package simulate

// Catcher is notified when a Replica receives a Propose that
// conflicts with one it has already seen from the same sender at the
// same (Height, Round) — the supplementary defensive instrumentation
// hyperdrive/process.Catcher provides, absent from the distilled
// specification but present in every mature implementation of this
// algorithm.
type Catcher interface {
	DidReceiveConflictingPropose(conflicting, original Propose)
}

type catchAndIgnore struct{}

// CatchAndIgnore returns a Catcher that drops every report. Suitable
// for simulations where every Replica is known to be honest.
func CatchAndIgnore() Catcher {
	return catchAndIgnore{}
}

func (catchAndIgnore) DidReceiveConflictingPropose(conflicting, original Propose) {}

// CatchAndRecord returns a Catcher that appends every conflict it
// sees, for tests that assert no Byzantine behaviour was observed.
type CatchAndRecord struct {
	Conflicts []struct{ Conflicting, Original Propose }
}

// NewCatchAndRecord returns an empty CatchAndRecord.
func NewCatchAndRecord() *CatchAndRecord {
	return &CatchAndRecord{}
}

// DidReceiveConflictingPropose records the conflict.
func (c *CatchAndRecord) DidReceiveConflictingPropose(conflicting, original Propose) {
	c.Conflicts = append(c.Conflicts, struct{ Conflicting, Original Propose }{conflicting, original})
}
