package simulate_test

import (
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	. "github.com/tendercore/tendercore/simulate"
	"github.com/tendercore/tendercore/value"
)

var _ = Describe("Harness", func() {
	It("P9: every correct replica that decides at a height decides the same value", func() {
		h := NewHarness(4, time.Millisecond, 5*time.Millisecond)
		h.StartHeight(value.Height(1))

		var first Decided
		for i := 0; i < len(h.Replicas); i++ {
			var got Decided
			Eventually(h.Decisions, 5*time.Second).Should(Receive(&got))
			if i == 0 {
				first = got
			} else {
				Expect(got.Decision).To(Equal(first.Decision))
			}
		}
	})

	It("decides even when one replica is partitioned away before the vote", func() {
		h := NewHarness(4, time.Millisecond, 5*time.Millisecond)
		h.Network.SetActive(h.Replicas[3].Signatory(), false)
		h.StartHeight(value.Height(1))

		for i := 0; i < 3; i++ {
			var got Decided
			Eventually(h.Decisions, 5*time.Second).Should(Receive(&got))
			Expect(got.Decision.Round).To(Equal(value.Round(0)))
		}
	})
})
