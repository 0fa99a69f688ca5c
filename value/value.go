// Package value defines the opaque identifiers the consensus core
// reasons about: the Value being proposed and the Height/Round
// coordinates of the decision instance. The core never inspects a
// Value's contents, only its equality.
package value

import (
	"encoding/base64"
	"fmt"
	"io"

	"github.com/renproject/surge"
	"golang.org/x/crypto/sha3"
)

// Value is a content-addressed identifier for a proposed value. It is
// opaque to the consensus core; only equality and hashing matter.
type Value [32]byte

// Nil is the sentinel Value used to represent "no value" (a nil vote).
// It is the zero Value, matching the convention that a default-valued
// Value can never legitimately be proposed.
var Nil = Value{}

// FromBytes derives a Value by hashing arbitrary application data. The
// core itself never calls this; it is a convenience for collaborators
// (proposers, tests) that need to turn opaque payloads into a Value.
func FromBytes(data []byte) Value {
	return Value(sha3.Sum256(data))
}

// Equal compares one Value with another.
func (v Value) Equal(other Value) bool {
	return v == other
}

// IsNil reports whether v is the Nil sentinel.
func (v Value) IsNil() bool {
	return v == Nil
}

// String implements fmt.Stringer.
func (v Value) String() string {
	if v.IsNil() {
		return "<nil>"
	}
	return base64.StdEncoding.WithPadding(base64.NoPadding).EncodeToString(v[:])
}

// SizeHint implements surge.SizeHinter.
func (Value) SizeHint() int {
	return 32
}

// Marshal implements surge.Marshaler.
func (v Value) Marshal(w io.Writer, m int) (int, error) {
	return surge.Marshal(w, [32]byte(v), m)
}

// Unmarshal implements surge.Unmarshaler.
func (v *Value) Unmarshal(r io.Reader, m int) (int, error) {
	return surge.Unmarshal(r, (*[32]byte)(v), m)
}

// Height indexes the decision instance within the replicated log. It is
// fixed for the lifetime of a single consensus core instance.
type Height int64

// SizeHint implements surge.SizeHinter.
func (Height) SizeHint() int {
	return surge.SizeHint(int64(0))
}

// Marshal implements surge.Marshaler.
func (h Height) Marshal(w io.Writer, m int) (int, error) {
	return surge.Marshal(w, int64(h), m)
}

// Unmarshal implements surge.Unmarshaler.
func (h *Height) Unmarshal(r io.Reader, m int) (int, error) {
	return surge.Unmarshal(r, (*int64)(h), m)
}

// String implements fmt.Stringer.
func (h Height) String() string {
	return fmt.Sprintf("%d", int64(h))
}

// Round is the sub-index within a Height. It starts at zero and only
// ever increases over the life of an instance.
type Round int64

// InvalidRound represents the absence of a round reference (used for a
// fresh Proposal's valid_round).
const InvalidRound Round = -1

// SizeHint implements surge.SizeHinter.
func (Round) SizeHint() int {
	return surge.SizeHint(int64(0))
}

// Marshal implements surge.Marshaler.
func (r Round) Marshal(w io.Writer, m int) (int, error) {
	return surge.Marshal(w, int64(r), m)
}

// Unmarshal implements surge.Unmarshaler.
func (r *Round) Unmarshal(rd io.Reader, m int) (int, error) {
	return surge.Unmarshal(rd, (*int64)(r), m)
}

// String implements fmt.Stringer.
func (r Round) String() string {
	if r == InvalidRound {
		return "<invalid>"
	}
	return fmt.Sprintf("%d", int64(r))
}
