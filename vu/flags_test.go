package vu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Gamr13/pcsx2/vu"
)

var _ = Describe("FlagState", func() {
	var flags *vu.FlagState

	BeforeEach(func() {
		flags = &vu.FlagState{}
	})

	Describe("Commit", func() {
		It("should replicate the committed status into all four lanes", func() {
			flags.CommitStatus(0x5A5)

			Expect(flags.StatusScalar()).To(Equal(uint32(0x5A5)))
			for _, lane := range flags.StatusBroadcast() {
				Expect(lane).To(Equal(uint32(0x5A5)))
			}
		})

		It("should replicate the committed mac value into all four lanes", func() {
			flags.CommitMac(0x00F3)

			Expect(flags.MacScalar()).To(Equal(uint32(0x00F3)))
			for _, lane := range flags.MacBroadcast() {
				Expect(lane).To(Equal(uint32(0x00F3)))
			}
		})

		It("should stay consistent after any sequence of commits", func() {
			flags.CommitStatus(0xFFF)
			flags.CommitMac(0xFFFF)
			flags.CommitStatus(0x041)

			Expect(flags.Consistent()).To(BeTrue())
		})
	})

	Describe("Normalize/Denormalize", func() {
		It("should round-trip every packed status value", func() {
			for s := uint32(0); s < 0x1000; s++ {
				flags.CommitStatus(s)
				Expect(vu.Normalize(flags.Denormalize())).To(Equal(s))
			}
		})

		It("should place sticky bits in the upper half of the working form", func() {
			flags.CommitStatus(vu.StatusZS | vu.StatusSS)

			d := flags.Denormalize()
			Expect(d & vu.StatusNonStickyMask).To(BeZero())
			Expect(d >> 16).To(Equal(uint32(vu.StatusZ | vu.StatusS)))
		})

		It("should keep non-sticky bits in the low bits of the working form", func() {
			flags.CommitStatus(vu.StatusZ | vu.StatusD)

			d := flags.Denormalize()
			Expect(d & vu.StatusNonStickyMask).
				To(Equal(uint32(vu.StatusZ | vu.StatusD)))
		})
	})

	Describe("Reset", func() {
		It("should clear both representations", func() {
			flags.CommitStatus(0xABC)
			flags.CommitMac(0x1234)

			flags.Reset()

			Expect(flags.StatusScalar()).To(BeZero())
			Expect(flags.MacScalar()).To(BeZero())
			Expect(flags.Consistent()).To(BeTrue())
		})
	})
})
