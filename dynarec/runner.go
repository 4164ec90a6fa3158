package dynarec

import "github.com/Gamr13/pcsx2/insts"

// DefaultCycleEstimate is the per-instruction cycle estimate accrued while
// translating a block.
const DefaultCycleEstimate = 1

// Runner drives translation of guest instruction windows into blocks and
// caches the results. The translate callback is the per-word entry into the
// recompiler's dispatch tables; the runner owns everything around it.
type Runner struct {
	buf       *CodeBuffer
	cycles    *CycleCounter
	cache     *BlockCache
	translate func(insts.Word)

	// CycleEstimate is the per-instruction block-cycle accrual.
	CycleEstimate uint32
}

// NewRunner creates a runner over the shared code buffer and cycle counter.
func NewRunner(
	buf *CodeBuffer,
	cycles *CycleCounter,
	cache *BlockCache,
	translate func(insts.Word),
) *Runner {
	return &Runner{
		buf:           buf,
		cycles:        cycles,
		cache:         cache,
		translate:     translate,
		CycleEstimate: DefaultCycleEstimate,
	}
}

// Block returns a translated fragment for the guest window at pc, reusing a
// cached fragment when the guest words are unchanged.
func (r *Runner) Block(pc uint32, words []insts.Word) *Block {
	if r.cache != nil {
		if b := r.cache.Lookup(pc, words); b != nil {
			return b
		}
	}

	for _, w := range words {
		r.translate(w)
		r.cycles.AddBlockCycles(r.CycleEstimate)
	}

	// Charge whatever the interlock paths did not already take.
	if leftover := r.cycles.TakeBlockCycles(); leftover > 0 {
		r.buf.Emit(func(h *Host) {
			h.Cycles.Advance(leftover)
		})
	}

	block := r.buf.Finish(pc)
	if r.cache != nil {
		r.cache.Insert(pc, words, block)
	}
	return block
}

// BranchRecorder is the dynarec's generic conditional-branch emission
// facility. The emitted step evaluates the condition at run time and leaves
// the outcome for the dispatcher's block epilogue; a likely-annotated
// branch skips its delay slot when not taken.
type BranchRecorder struct {
	buf *CodeBuffer
}

// NewBranchRecorder creates a branch recorder over the code buffer.
func NewBranchRecorder(buf *CodeBuffer) *BranchRecorder {
	return &BranchRecorder{buf: buf}
}

// CondBranch emits the conditional-branch step.
func (r *BranchRecorder) CondBranch(test func(h *Host) bool, likely bool) {
	r.buf.Emit(func(h *Host) {
		taken := test(h)
		h.BranchTaken = taken
		h.SkipDelaySlot = likely && !taken
	})
}
