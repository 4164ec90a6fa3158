package macro

import (
	"github.com/Gamr13/pcsx2/dynarec"
	"github.com/Gamr13/pcsx2/insts"
)

// bc2Branch builds one BC2 condition variant. The coprocessor condition
// the branch family tests is the second coprocessor's busy bit in the
// VPU_STAT mirror: BC2T branches while a program is running, BC2F while
// it is not. The likely variants annul their delay slot when not taken.
func bc2Branch(cond, likely bool) TranslateFn {
	return func(tr *Translator, w insts.Word) {
		tr.code.Flush()
		tr.branch.CondBranch(func(h *dynarec.Host) bool {
			busy := h.VU0.ReadVI(insts.RegVPUStat)&insts.VPUStatVU1Busy != 0
			return busy == cond
		}, likely)
	}
}
