package dynarec_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Gamr13/pcsx2/dynarec"
	"github.com/Gamr13/pcsx2/insts"
)

var _ = Describe("BlockCache", func() {
	var (
		cache *dynarec.BlockCache
		words []insts.Word
		block *dynarec.Block
	)

	seal := func(pc uint32) *dynarec.Block {
		buf := dynarec.NewCodeBuffer()
		buf.Emit(func(h *dynarec.Host) {})
		return buf.Finish(pc)
	}

	BeforeEach(func() {
		cache = dynarec.NewBlockCache(16, 2)
		words = []insts.Word{0x4A000028, 0x4A0002BC}
		block = seal(0x100)
	})

	It("should miss on an empty cache", func() {
		Expect(cache.Lookup(0x100, words)).To(BeNil())
		Expect(cache.Stats().Misses).To(Equal(uint64(1)))
	})

	It("should hit after an insert with unchanged guest words", func() {
		cache.Insert(0x100, words, block)

		got := cache.Lookup(0x100, words)

		Expect(got).To(BeIdenticalTo(block))
		Expect(cache.Stats().Hits).To(Equal(uint64(1)))
	})

	It("should invalidate when the guest words changed", func() {
		cache.Insert(0x100, words, block)

		patched := []insts.Word{0x4A000028, 0x4A0002BD}
		Expect(cache.Lookup(0x100, patched)).To(BeNil())

		stats := cache.Stats()
		Expect(stats.Invalidations).To(Equal(uint64(1)))
		Expect(stats.Misses).To(Equal(uint64(1)))

		// The stale entry is gone even for the original words.
		Expect(cache.Lookup(0x100, words)).To(BeNil())
	})

	It("should keep distinct fragments for distinct guest addresses", func() {
		other := seal(0x200)
		cache.Insert(0x100, words, block)
		cache.Insert(0x200, words, other)

		Expect(cache.Lookup(0x100, words)).To(BeIdenticalTo(block))
		Expect(cache.Lookup(0x200, words)).To(BeIdenticalTo(other))
	})

	It("should evict the least recently used fragment of a full set", func() {
		small := dynarec.NewBlockCache(1, 2)
		a := seal(0x100)
		b := seal(0x200)
		c := seal(0x300)

		small.Insert(0x100, words, a)
		small.Insert(0x200, words, b)
		small.Lookup(0x100, words) // touch a so b is the victim
		small.Insert(0x300, words, c)

		Expect(small.Stats().Evictions).To(Equal(uint64(1)))
		Expect(small.Lookup(0x100, words)).To(BeIdenticalTo(a))
		Expect(small.Lookup(0x300, words)).To(BeIdenticalTo(c))
	})
})

var _ = Describe("Runner", func() {
	var (
		host       *dynarec.Host
		buf        *dynarec.CodeBuffer
		translated []insts.Word
		runner     *dynarec.Runner
	)

	BeforeEach(func() {
		host = newHost()
		buf = dynarec.NewCodeBuffer()
		translated = nil
		runner = dynarec.NewRunner(
			buf,
			host.Cycles,
			dynarec.NewBlockCache(16, 2),
			func(w insts.Word) {
				translated = append(translated, w)
				buf.Emit(func(h *dynarec.Host) {})
			},
		)
	})

	It("should translate each word of an uncached window once", func() {
		words := []insts.Word{1, 2, 3}

		block := runner.Block(0x40, words)

		Expect(translated).To(Equal(words))
		Expect(block.GuestPC).To(Equal(uint32(0x40)))
	})

	It("should reuse the cached fragment on a second request", func() {
		words := []insts.Word{1, 2, 3}

		first := runner.Block(0x40, words)
		second := runner.Block(0x40, words)

		Expect(second).To(BeIdenticalTo(first))
		Expect(translated).To(HaveLen(3))
	})

	It("should retranslate after the guest words change", func() {
		first := runner.Block(0x40, []insts.Word{1, 2})
		second := runner.Block(0x40, []insts.Word{1, 9})

		Expect(second).ToNot(BeIdenticalTo(first))
		Expect(translated).To(HaveLen(4))
	})

	It("should charge the leftover block-cycle estimate when the block runs", func() {
		block := runner.Block(0x40, []insts.Word{1, 2, 3})

		block.Run(host)

		Expect(host.Cycles.Current()).To(Equal(uint32(3)))
	})
})

var _ = Describe("BranchRecorder", func() {
	It("should record the branch outcome for the block epilogue", func() {
		host := newHost()
		buf := dynarec.NewCodeBuffer()
		rec := dynarec.NewBranchRecorder(buf)

		rec.CondBranch(func(h *dynarec.Host) bool { return true }, false)
		buf.Finish(0).Run(host)

		Expect(host.BranchTaken).To(BeTrue())
		Expect(host.SkipDelaySlot).To(BeFalse())
	})

	It("should annul the delay slot of an untaken likely branch", func() {
		host := newHost()
		buf := dynarec.NewCodeBuffer()
		rec := dynarec.NewBranchRecorder(buf)

		rec.CondBranch(func(h *dynarec.Host) bool { return false }, true)
		buf.Finish(0).Run(host)

		Expect(host.BranchTaken).To(BeFalse())
		Expect(host.SkipDelaySlot).To(BeTrue())
	})
})
