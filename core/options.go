package core

import (
	"io"

	"github.com/sirupsen/logrus"
	"github.com/tendercore/tendercore/value"
)

// Proposership answers, for a given (height, round), whether this
// replica is the proposer. Determining who the proposer actually is —
// validator-set management, voting power, round-robin or weighted
// selection — is entirely the consumer's concern; the core only ever
// asks the question it needs answered to implement rule R1.
type Proposership interface {
	IsProposer(height value.Height, round value.Round) bool
}

type neverProposer struct{}

func (neverProposer) IsProposer(value.Height, value.Round) bool { return false }

// options collects the construction-time configuration of an Instance.
type options struct {
	logger       logrus.FieldLogger
	initialRound value.Round
	lockedValue  *RoundedValue
	validValue   *RoundedValue
	proposership Proposership
}

func defaultOptions() options {
	return options{
		logger:       loggerWithFields(logrus.New()),
		initialRound: 0,
		lockedValue:  nil,
		validValue:   nil,
		proposership: neverProposer{},
	}
}

func loggerWithFields(logger *logrus.Logger) logrus.FieldLogger {
	return logger.
		WithField("lib", "tendercore").
		WithField("pkg", "core")
}

// Option configures an Instance at construction time.
type Option func(*options)

// WithLogger injects a logrus.FieldLogger used for debug/info/warn
// output during Apply. The default logger writes to a Logger whose
// output has not been redirected away from os.Stderr; WithLogOutput is
// the usual way to quiet it in tests.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogOutput redirects the default logger's output.
func WithLogOutput(w io.Writer) Option {
	return func(o *options) {
		logger := logrus.New()
		logger.SetOutput(w)
		o.logger = loggerWithFields(logger)
	}
}

// WithInitialRound sets the round an Instance starts in. Used when
// resuming an instance that was carried over from a previous attempt at
// this height (see WithLockedValue/WithValidValue).
func WithInitialRound(round value.Round) Option {
	return func(o *options) {
		o.initialRound = round
	}
}

// WithLockedValue seeds the locked value and round carried over from a
// previous failed instance at this height. Absent on a fresh height.
func WithLockedValue(v value.Value, round value.Round) Option {
	return func(o *options) {
		o.lockedValue = &RoundedValue{Value: v, Round: round}
	}
}

// WithValidValue seeds the valid value and round carried over from a
// previous failed instance at this height. Absent on a fresh height.
func WithValidValue(v value.Value, round value.Round) Option {
	return func(o *options) {
		o.validValue = &RoundedValue{Value: v, Round: round}
	}
}

// WithProposership injects the predicate the core consults in rule R1
// to decide whether to wait for ProposeValue or schedule a propose
// timeout. The default Proposership always answers false, so an
// Instance that is never told otherwise behaves like a replica that is
// never the proposer.
func WithProposership(p Proposership) Option {
	return func(o *options) {
		o.proposership = p
	}
}
