package macro

import (
	"github.com/Gamr13/pcsx2/dynarec"
	"github.com/Gamr13/pcsx2/insts"
	"github.com/Gamr13/pcsx2/vu"
)

// Register transfers between the main CPU and the coprocessor. Each one
// honors its interlock bit first, then performs the move. GPR writebacks
// are staged so the dynarec may buffer them; everything that mutates
// coprocessor state is emitted in order.

// qmfc2 moves a full vector register into a main CPU GPR.
func qmfc2(tr *Translator, w insts.Word) {
	if w.Interlock() {
		tr.interlock(false)
	}
	rt, fs := w.Rt(), w.Rd()
	if rt == 0 {
		return
	}
	tr.opportunisticSync()

	tr.code.Stage(func(h *dynarec.Host) {
		h.GPR[rt] = h.VU0.ReadVF(fs)
	})
}

// cfc2 moves a control register into a GPR, sign-extended to 64 bits.
func cfc2(tr *Translator, w insts.Word) {
	if w.Interlock() {
		tr.interlock(false)
	}
	rt, fs := w.Rt(), w.Rd()
	if rt == 0 {
		return
	}
	tr.opportunisticSync()

	tr.code.Stage(func(h *dynarec.Host) {
		v := h.VU0.ReadVI(fs)
		ext := uint32(0)
		if v&0x80000000 != 0 {
			ext = ^uint32(0)
		}
		h.GPR[rt][0] = v
		h.GPR[rt][1] = ext
	})
}

// qmtc2 moves a GPR into a full vector register.
func qmtc2(tr *Translator, w insts.Word) {
	if w.Interlock() {
		tr.interlock(true)
	}
	rt, fd := w.Rt(), w.Rd()
	if fd == 0 {
		return
	}
	tr.opportunisticSync()

	tr.code.Emit(func(h *dynarec.Host) {
		h.VU0.WriteVF(fd, vu.VFReg(h.GPR[rt]))
	})
}

// ctc2 moves a GPR into a control register, applying the per-register
// write semantics.
func ctc2(tr *Translator, w insts.Word) {
	if w.Interlock() {
		tr.interlock(true)
	}
	rt, rd := w.Rt(), w.Rd()
	if rd == 0 {
		return
	}
	tr.opportunisticSync()

	tr.code.Emit(func(h *dynarec.Host) {
		writeControl(h, rd, h.GPR[rt][0])
	})
}

// writeControl applies one CTC2 write. Most control registers take the
// value directly; the named ones have hardware quirks.
func writeControl(h *dynarec.Host, rd uint8, v uint32) {
	switch rd {
	case insts.RegMacFlag, insts.RegTPC, insts.RegVPUStat:
		// Read-only from the transfer path.

	case insts.RegR:
		h.VU0.WriteVI(insts.RegR, rFloatBase|v&0x7FFFFF)

	case insts.RegStatusFlag:
		// Only the sticky half is writable; the instance bits keep
		// their current value. The commit re-broadcasts both forms.
		cur := h.VU0.Flags.StatusScalar()
		h.VU0.Flags.CommitStatus(v&vu.StatusStickyMask | cur&vu.StatusNonStickyMask)

	case insts.RegCMSAR1:
		// Writing CMSAR1 kicks off the second coprocessor at the given
		// address, after any program it is already running completes.
		if h.VU1Micro.IsBusy() {
			h.VU1Micro.FinishMicro()
		}
		h.VU1Micro.ExecMicro(v & 0x7FFF)

	case insts.RegFBRST:
		if v&0x002 != 0 {
			h.VU0Micro.Reset()
		}
		if v&0x200 != 0 {
			h.VU1Micro.Reset()
		}
		h.VU0.WriteVI(insts.RegFBRST, v&0x0C0C)

	default:
		if rd < insts.RegStatusFlag {
			v &= 0xFFFF
		}
		h.VU0.WriteVI(rd, v)
	}
}
