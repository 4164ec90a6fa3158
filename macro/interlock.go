package macro

import "github.com/Gamr13/pcsx2/dynarec"

// The register-transfer instructions carry an interlock bit. When set, the
// transfer synchronizes explicitly with the microprogram: reads run it to
// completion, writes wait for its next sync point. When clear, the transfer
// proceeds immediately. Either way, an idle coprocessor that has fallen far
// enough behind the main CPU is given a block of execution at the transfer
// so the two counters do not drift without bound.

// interlock emits the explicit synchronization step. Cycles accrued so far
// in the translation block are settled first so the comparison of the two
// counters is honest.
func (tr *Translator) interlock(mBitSync bool) {
	tr.code.Flush()
	settled := tr.cycles.TakeBlockCycles()
	tr.code.Emit(func(h *dynarec.Host) {
		if settled != 0 {
			h.Cycles.Advance(settled)
		}
		if !h.VU0Micro.IsBusy() {
			return
		}
		if mBitSync {
			h.VU0Micro.WaitMicro()
		} else {
			h.VU0Micro.FinishMicro()
		}
	})
}

// opportunisticSync emits the transfer catch-up step: if the coprocessor is
// idle and its cycle counter lags the main CPU by at least the configured
// slack beyond the estimated cost of its next block, run one block now.
func (tr *Translator) opportunisticSync() {
	tr.code.Flush()
	settled := tr.cycles.TakeBlockCycles()
	slack := tr.cfg.OpportunisticSlack
	tr.code.Emit(func(h *dynarec.Host) {
		if settled != 0 {
			h.Cycles.Advance(settled)
		}
		if h.VU0Micro.IsBusy() {
			return
		}
		backlog := int64(h.Cycles.Current()) -
			int64(h.VU0.Cycle) -
			int64(h.VU0Micro.EstimateRemainingCycles())
		if backlog >= int64(slack) {
			h.VU0Micro.ExecuteBlock()
		}
	})
}
