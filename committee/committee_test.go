package committee_test

import (
	cRand "crypto/rand"
	"fmt"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/renproject/id"
	. "github.com/tendercore/tendercore/committee"
	"github.com/tendercore/tendercore/value"
)

func randomSignatory() id.Signatory {
	var sig id.Signatory
	_, err := cRand.Read(sig[:])
	Expect(err).NotTo(HaveOccurred())
	return sig
}

func randomSignatories(n int) []id.Signatory {
	sigs := make([]id.Signatory, n)
	for i := range sigs {
		sigs[i] = randomSignatory()
	}
	return sigs
}

var _ = Describe("Committee", func() {
	thresholds := []struct {
		size, f, fPlus1, twoFPlus1 int
	}{
		{4, 1, 2, 3},
		{7, 2, 3, 5},
		{10, 3, 4, 7},
		{100, 33, 34, 67},
	}

	for _, entry := range thresholds {
		entry := entry

		Context(fmt.Sprintf("when the committee has %d signatories", entry.size), func() {
			It(fmt.Sprintf("computes f=%d, f+1=%d, 2f+1=%d", entry.f, entry.fPlus1, entry.twoFPlus1), func() {
				c := New(randomSignatories(entry.size))
				Expect(c.Size()).To(Equal(entry.size))
				Expect(c.F()).To(Equal(entry.f))
				Expect(c.FPlus1()).To(Equal(entry.fPlus1))
				Expect(c.TwoFPlus1()).To(Equal(entry.twoFPlus1))
			})
		})
	}

	It("reports membership correctly", func() {
		members := randomSignatories(4)
		c := New(members)
		for _, m := range members {
			Expect(c.Includes(m)).To(BeTrue())
		}
		Expect(c.Includes(randomSignatory())).To(BeFalse())
	})

	It("round-robins the leader deterministically", func() {
		members := randomSignatories(4)
		c := New(members)
		for round := int64(0); round < 12; round++ {
			Expect(c.Leader(round)).To(Equal(members[round%4]))
		}
	})
})

var _ = Describe("Tally", func() {
	var (
		members []id.Signatory
		c       Committee
		v1, v2  value.Value
	)

	BeforeEach(func() {
		members = randomSignatories(4) // f=1, 2f+1=3
		c = New(members)
		v1 = value.FromBytes([]byte("v1"))
		v2 = value.FromBytes([]byte("v2"))
	})

	It("reports no polka below 2f+1 votes", func() {
		t := NewTally(c)
		t.Vote(members[0], v1)
		t.Vote(members[1], v1)
		_, ok := t.Polka()
		Expect(ok).To(BeFalse())
	})

	It("reports a polka once 2f+1 signatories agree on a value", func() {
		t := NewTally(c)
		t.Vote(members[0], v1)
		t.Vote(members[1], v1)
		t.Vote(members[2], v1)
		v, ok := t.Polka()
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(v1))
	})

	It("reports PolkaNil once 2f+1 signatories vote nil", func() {
		t := NewTally(c)
		t.Vote(members[0], value.Nil)
		t.Vote(members[1], value.Nil)
		t.Vote(members[2], value.Nil)
		Expect(t.PolkaNil()).To(BeTrue())
	})

	It("reports PolkaAny when votes split with no majority", func() {
		t := NewTally(c)
		t.Vote(members[0], v1)
		t.Vote(members[1], v2)
		t.Vote(members[2], value.Nil)
		Expect(t.PolkaAny()).To(BeTrue())
		_, ok := t.Polka()
		Expect(ok).To(BeFalse())
		Expect(t.PolkaNil()).To(BeFalse())
	})

	It("ignores votes from signatories outside the committee", func() {
		t := NewTally(c)
		outsider := randomSignatory()
		t.Vote(outsider, v1)
		Expect(t.NumVotes()).To(Equal(0))
	})

	It("keeps only the latest vote per signatory", func() {
		t := NewTally(c)
		t.Vote(members[0], v1)
		t.Vote(members[0], v2)
		Expect(t.NumVotes()).To(Equal(1))
	})
})
