// Package logging provides the logrus wiring shared by the simulate
// package's collaborators, following the same
// New()-returns-a-FieldLogger convention used by hyperdrive's process
// and timer packages.
package logging

import (
	"io"

	"github.com/sirupsen/logrus"
)

// New returns a logrus.FieldLogger tagged with lib/pkg/com fields the
// way hyperdrive/timer.loggerWithFields and
// hyperdrive/process.loggerWithFields do, identifying com (the
// component: a replica's signatory, a network, a timer) within pkg.
func New(pkg, com string) logrus.FieldLogger {
	return NewWithOutput(pkg, com, nil)
}

// NewWithOutput is New, but redirects the underlying *logrus.Logger's
// output to w (nil leaves the default os.Stderr destination).
func NewWithOutput(pkg, com string, w io.Writer) logrus.FieldLogger {
	logger := logrus.New()
	if w != nil {
		logger.SetOutput(w)
	}
	return logger.
		WithField("lib", "tendercore").
		WithField("pkg", pkg).
		WithField("com", com)
}

// Discard returns a logrus.FieldLogger that drops every entry, for
// tests and benchmarks that want a real logger value without the
// output noise.
func Discard() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger.WithField("lib", "tendercore")
}
