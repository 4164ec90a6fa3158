package macro

import (
	"github.com/Gamr13/pcsx2/dynarec"
	"github.com/Gamr13/pcsx2/insts"
)

// The dispatch hierarchy mirrors the COP2 encoding: the rs field selects
// the primary handler, rs values 0x10-0x1F route to the SPECIAL1 table on
// the funct field, and SPECIAL1 functs 0x3C-0x3F route to the SPECIAL2
// table on its split index.

var (
	primaryTable  [32]TranslateFn
	bc2Table      [32]TranslateFn
	special1Table [64]Row
	special2Table [128]Row
)

// unimplemented is the fallback for encodings with no architectural
// meaning. It translates to nothing and counts the word.
func unimplemented(tr *Translator, w insts.Word) {
	tr.unimpl++
}

var unimplementedRow = Row{Name: "(unimplemented)", Upper: unimplemented}

// row validates a mode descriptor at table-construction time; a bad
// descriptor is a programming error, not a guest-input error.
func row(name string, mode Mode, upper TranslateFn) Row {
	if err := mode.validate(); err != nil {
		panic("macro: table row " + name + ": " + err.Error())
	}
	return Row{Name: name, Mode: mode, Upper: upper}
}

// dualRow builds an integer dual-issue row: the upper slot computes into
// the shared scratch, the lower slot performs the writeback and is elided
// when lowerNOP reports the destination is hardwired.
func dualRow(name string, upper, lower TranslateFn, lowerNOP func(w insts.Word) bool) Row {
	return Row{
		Name:     name,
		Mode:     ModeDualIssue,
		Upper:    upper,
		Lower:    lower,
		LowerNOP: lowerNOP,
	}
}

func special1(tr *Translator, w insts.Word) {
	tr.finishBeforeOp()
	f := w.Funct()
	if f >= 0x3C {
		tr.TranslateRow(special2Table[w.Special2Index()], w)
		return
	}
	tr.TranslateRow(special1Table[f], w)
}

func bc2(tr *Translator, w insts.Word) {
	bc2Table[w.Rt()](tr, w)
}

// finishBeforeOp emits the arithmetic-op synchronization step: a macro-mode
// instruction that touches VU0 state cannot overlap a running microprogram,
// so any in-flight block runs to completion first. Cycles accrued so far in
// the current translation block are settled at the sync point.
func (tr *Translator) finishBeforeOp() {
	tr.code.Flush()
	settled := tr.cycles.TakeBlockCycles()
	tr.code.Emit(func(h *dynarec.Host) {
		if settled != 0 {
			h.Cycles.Advance(settled)
		}
		if h.VU0Micro.IsBusy() {
			h.VU0Micro.FinishMicro()
		}
	})
}

func init() {
	for i := range primaryTable {
		primaryTable[i] = unimplemented
	}
	for i := range bc2Table {
		bc2Table[i] = unimplemented
	}
	for i := range special1Table {
		special1Table[i] = unimplementedRow
	}
	for i := range special2Table {
		special2Table[i] = unimplementedRow
	}

	primaryTable[insts.SubQMFC2] = qmfc2
	primaryTable[insts.SubCFC2] = cfc2
	primaryTable[insts.SubQMTC2] = qmtc2
	primaryTable[insts.SubCTC2] = ctc2
	primaryTable[insts.SubBC2] = bc2
	for rs := insts.SubSpecial1; rs < 0x20; rs++ {
		primaryTable[rs] = special1
	}

	bc2Table[insts.BC2F] = bc2Branch(false, false)
	bc2Table[insts.BC2T] = bc2Branch(true, false)
	bc2Table[insts.BC2FL] = bc2Branch(false, true)
	bc2Table[insts.BC2TL] = bc2Branch(true, true)

	flags := ModeUpdatesStatusMac
	qFlags := ModeReadsQ | ModeUpdatesStatusMac

	// Broadcast arithmetic, funct 0x00-0x1B.
	for lane := operandSel(selX); lane <= selW; lane++ {
		n := laneSuffix[lane-selX]
		f := uint8(lane - selX)
		special1Table[0x00+f] = row("ADD"+n, flags, upperOp(aluAdd, lane, false))
		special1Table[0x04+f] = row("SUB"+n, flags, upperOp(aluSub, lane, false))
		special1Table[0x08+f] = row("MADD"+n, flags, upperOp(aluMadd, lane, false))
		special1Table[0x0C+f] = row("MSUB"+n, flags, upperOp(aluMsub, lane, false))
		special1Table[0x10+f] = row("MAX"+n, 0, upperOp(aluMax, lane, false))
		special1Table[0x14+f] = row("MINI"+n, 0, upperOp(aluMini, lane, false))
		special1Table[0x18+f] = row("MUL"+n, flags, upperOp(aluMul, lane, false))
	}

	special1Table[0x1C] = row("MULq", qFlags, upperOp(aluMul, selQ, false))
	special1Table[0x1D] = row("MAXi", 0, upperOp(aluMax, selI, false))
	special1Table[0x1E] = row("MULi", flags, upperOp(aluMul, selI, false))
	special1Table[0x1F] = row("MINIi", 0, upperOp(aluMini, selI, false))
	special1Table[0x20] = row("ADDq", qFlags, upperOp(aluAdd, selQ, false))
	special1Table[0x21] = row("MADDq", qFlags, upperOp(aluMadd, selQ, false))
	special1Table[0x22] = row("ADDi", flags, upperOp(aluAdd, selI, false))
	special1Table[0x23] = row("MADDi", flags, upperOp(aluMadd, selI, false))
	special1Table[0x24] = row("SUBq", qFlags, upperOp(aluSub, selQ, false))
	special1Table[0x25] = row("MSUBq", qFlags, upperOp(aluMsub, selQ, false))
	special1Table[0x26] = row("SUBi", flags, upperOp(aluSub, selI, false))
	special1Table[0x27] = row("MSUBi", flags, upperOp(aluMsub, selI, false))
	special1Table[0x28] = row("ADD", flags, upperOp(aluAdd, selReg, false))
	special1Table[0x29] = row("MADD", flags, upperOp(aluMadd, selReg, false))
	special1Table[0x2A] = row("MUL", flags, upperOp(aluMul, selReg, false))
	special1Table[0x2B] = row("MAX", 0, upperOp(aluMax, selReg, false))
	special1Table[0x2C] = row("SUB", flags, upperOp(aluSub, selReg, false))
	special1Table[0x2D] = row("MSUB", flags, upperOp(aluMsub, selReg, false))
	special1Table[0x2E] = row("OPMSUB", flags, opmsub)
	special1Table[0x2F] = row("MINI", 0, upperOp(aluMini, selReg, false))

	special1Table[0x30] = dualRow("IADD", intALU(intAdd), intWriteFd, fdIsZero)
	special1Table[0x31] = dualRow("ISUB", intALU(intSub), intWriteFd, fdIsZero)
	special1Table[0x32] = dualRow("IADDI", intImm, intWriteFt, ftIsZero)
	special1Table[0x34] = dualRow("IAND", intALU(intAnd), intWriteFd, fdIsZero)
	special1Table[0x35] = dualRow("IOR", intALU(intOr), intWriteFd, fdIsZero)
	special1Table[0x38] = row("CALLMS", ModeRegisterTransfer, callMS)
	special1Table[0x39] = row("CALLMSR", ModeRegisterTransfer, callMSR)

	// ACC arithmetic, SPECIAL2 0x00-0x1B.
	for lane := operandSel(selX); lane <= selW; lane++ {
		n := laneSuffix[lane-selX]
		f := uint8(lane - selX)
		special2Table[0x00+f] = row("ADDA"+n, flags, upperOp(aluAdd, lane, true))
		special2Table[0x04+f] = row("SUBA"+n, flags, upperOp(aluSub, lane, true))
		special2Table[0x08+f] = row("MADDA"+n, flags, upperOp(aluMadd, lane, true))
		special2Table[0x0C+f] = row("MSUBA"+n, flags, upperOp(aluMsub, lane, true))
		special2Table[0x18+f] = row("MULA"+n, flags, upperOp(aluMul, lane, true))
	}

	special2Table[0x10] = row("ITOF0", 0, itofOp(0))
	special2Table[0x11] = row("ITOF4", 0, itofOp(4))
	special2Table[0x12] = row("ITOF12", 0, itofOp(12))
	special2Table[0x13] = row("ITOF15", 0, itofOp(15))
	special2Table[0x14] = row("FTOI0", 0, ftoiOp(0))
	special2Table[0x15] = row("FTOI4", 0, ftoiOp(4))
	special2Table[0x16] = row("FTOI12", 0, ftoiOp(12))
	special2Table[0x17] = row("FTOI15", 0, ftoiOp(15))

	special2Table[0x1C] = row("MULAq", qFlags, upperOp(aluMul, selQ, true))
	special2Table[0x1D] = row("ABS", 0, absOp)
	special2Table[0x1E] = row("MULAi", flags, upperOp(aluMul, selI, true))
	special2Table[0x1F] = row("CLIP", ModeClip, clipOp)
	special2Table[0x20] = row("ADDAq", qFlags, upperOp(aluAdd, selQ, true))
	special2Table[0x21] = row("MADDAq", qFlags, upperOp(aluMadd, selQ, true))
	special2Table[0x22] = row("ADDAi", flags, upperOp(aluAdd, selI, true))
	special2Table[0x23] = row("MADDAi", flags, upperOp(aluMadd, selI, true))
	special2Table[0x24] = row("SUBAq", qFlags, upperOp(aluSub, selQ, true))
	special2Table[0x25] = row("MSUBAq", qFlags, upperOp(aluMsub, selQ, true))
	special2Table[0x26] = row("SUBAi", flags, upperOp(aluSub, selI, true))
	special2Table[0x27] = row("MSUBAi", flags, upperOp(aluMsub, selI, true))
	special2Table[0x28] = row("ADDA", flags, upperOp(aluAdd, selReg, true))
	special2Table[0x29] = row("MADDA", flags, upperOp(aluMadd, selReg, true))
	special2Table[0x2A] = row("MULA", flags, upperOp(aluMul, selReg, true))
	special2Table[0x2C] = row("SUBA", flags, upperOp(aluSub, selReg, true))
	special2Table[0x2D] = row("MSUBA", flags, upperOp(aluMsub, selReg, true))
	special2Table[0x2E] = row("OPMULA", flags, opmula)
	special2Table[0x2F] = row("NOP", 0, nopOp)

	special2Table[0x30] = row("MOVE", 0, moveOp)
	special2Table[0x31] = row("MR32", 0, mr32Op)
	special2Table[0x34] = row("LQI", 0, lqiOp)
	special2Table[0x35] = row("SQI", 0, sqiOp)
	special2Table[0x36] = row("LQD", 0, lqdOp)
	special2Table[0x37] = row("SQD", 0, sqdOp)
	special2Table[0x38] = row("DIV", ModeWritesQ|ModeUpdatesStatusMac, divOp)
	special2Table[0x39] = row("SQRT", ModeWritesQ|ModeUpdatesStatusMac, sqrtOp)
	special2Table[0x3A] = row("RSQRT", ModeWritesQ|ModeUpdatesStatusMac, rsqrtOp)
	special2Table[0x3B] = row("WAITQ", 0, nopOp)
	special2Table[0x3C] = row("MTIR", 0, mtirOp)
	special2Table[0x3D] = row("MFIR", 0, mfirOp)
	special2Table[0x3E] = row("ILWR", 0, ilwrOp)
	special2Table[0x3F] = row("ISWR", 0, iswrOp)
	special2Table[0x40] = row("RNEXT", 0, rnextOp)
	special2Table[0x41] = row("RGET", 0, rgetOp)
	special2Table[0x42] = row("RINIT", 0, rinitOp)
	special2Table[0x43] = row("RXOR", 0, rxorOp)
}

var laneSuffix = [4]string{"x", "y", "z", "w"}

func fdIsZero(w insts.Word) bool { return w.Fd() == 0 }
func ftIsZero(w insts.Word) bool { return w.Ft() == 0 }

// RowName reports the opcode name a word dispatches to, for disassembly
// and diagnostics.
func RowName(w insts.Word) string {
	rs := w.Rs()
	switch {
	case rs == insts.SubQMFC2:
		return "QMFC2"
	case rs == insts.SubCFC2:
		return "CFC2"
	case rs == insts.SubQMTC2:
		return "QMTC2"
	case rs == insts.SubCTC2:
		return "CTC2"
	case rs == insts.SubBC2:
		switch w.Rt() {
		case insts.BC2F:
			return "BC2F"
		case insts.BC2T:
			return "BC2T"
		case insts.BC2FL:
			return "BC2FL"
		case insts.BC2TL:
			return "BC2TL"
		}
		return "(unimplemented)"
	case rs >= insts.SubSpecial1:
		if w.Funct() >= 0x3C {
			return special2Table[w.Special2Index()].Name
		}
		return special1Table[w.Funct()].Name
	}
	return "(unimplemented)"
}
