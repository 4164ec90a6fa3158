package macro

import (
	"math"

	"github.com/Gamr13/pcsx2/dynarec"
	"github.com/Gamr13/pcsx2/insts"
	"github.com/Gamr13/pcsx2/vu"
)

// aluKind selects the arithmetic operation of the generic upper-pipe
// translator.
type aluKind uint8

const (
	aluAdd aluKind = iota
	aluSub
	aluMul
	aluMadd
	aluMsub
	aluMax
	aluMini
)

// operandSel selects the second operand of the generic translator: the full
// ft vector, one broadcast ft lane, or a broadcast special register.
type operandSel uint8

const (
	selReg operandSel = iota
	selX
	selY
	selZ
	selW
	selI
	selQ
)

// upperOp builds the generic upper-pipe translator for one table row. The
// hundreds of near-identical arithmetic opcodes differ only in these three
// parameters plus the row's mode descriptor, so they are table data rather
// than dedicated translator functions.
func upperOp(kind aluKind, sel operandSel, writeACC bool) TranslateFn {
	return func(tr *Translator, w insts.Word) {
		fs, ft, fd, dest := w.Fs(), w.Ft(), w.Fd(), w.Dest()

		tr.ra.Bind(dynarec.Operand{Kind: dynarec.KindVF, Index: fs})
		if sel <= selW {
			tr.ra.Bind(dynarec.Operand{Kind: dynarec.KindVF, Index: ft})
		}
		if writeACC || kind == aluMadd || kind == aluMsub {
			tr.ra.Bind(dynarec.Operand{Kind: dynarec.KindACC})
		}

		produce := tr.cur.statusProducer
		flagW := tr.cur.flagWork
		qWork := tr.cur.qWork

		tr.code.Emit(func(h *dynarec.Host) {
			a := h.VU0.ReadVF(fs)
			b := upperOperand(h, w, sel, qWork)
			acc := h.VU0.ACC()

			out := h.VU0.ReadVF(fd)
			if writeACC {
				out = acc
			}

			var zbits, sbits uint32
			for lane := 0; lane < 4; lane++ {
				if dest&insts.DestBit(lane) == 0 {
					continue
				}
				var r float32
				switch kind {
				case aluAdd:
					r = a.Lane(lane) + b.Lane(lane)
				case aluSub:
					r = a.Lane(lane) - b.Lane(lane)
				case aluMul:
					r = a.Lane(lane) * b.Lane(lane)
				case aluMadd:
					r = acc.Lane(lane) + a.Lane(lane)*b.Lane(lane)
				case aluMsub:
					r = acc.Lane(lane) - a.Lane(lane)*b.Lane(lane)
				case aluMax:
					r = maxf(a.Lane(lane), b.Lane(lane))
				case aluMini:
					r = minf(a.Lane(lane), b.Lane(lane))
				}
				out.SetLane(lane, r)
				if r == 0 {
					zbits |= uint32(insts.DestBit(lane))
				}
				if math.Signbit(float64(r)) {
					sbits |= uint32(insts.DestBit(lane))
				}
			}

			if writeACC {
				h.VU0.SetACC(out)
			} else {
				h.VU0.WriteVF(fd, out)
			}
			if produce {
				updateWorkingFlags(h, flagW, zbits, sbits)
			}
		})
	}
}

// upperOperand resolves the second source operand at run time.
func upperOperand(h *dynarec.Host, w insts.Word, sel operandSel, qWork dynarec.Scratch) vu.VFReg {
	switch sel {
	case selReg:
		return h.VU0.ReadVF(w.Ft())
	case selI:
		return splat(h.VU0.ReadVI(insts.RegI))
	case selQ:
		return splat(h.Scratch[qWork][0])
	default:
		lane := int(sel - selX)
		return splat(h.VU0.ReadVF(w.Ft())[lane])
	}
}

func splat(bits uint32) vu.VFReg {
	return vu.VFReg{bits, bits, bits, bits}
}

// updateWorkingFlags merges one producer's zero/sign results into the
// working flag register: mac nibbles in lane 1, non-sticky status replaced
// and sticky status OR'd in lane 0.
func updateWorkingFlags(h *dynarec.Host, flagW dynarec.Scratch, zbits, sbits uint32) {
	h.Scratch[flagW][1] = zbits<<vu.MacZeroShift | sbits<<vu.MacSignShift

	var ns uint32
	if zbits != 0 {
		ns |= vu.StatusZ
	}
	if sbits != 0 {
		ns |= vu.StatusS
	}
	work := h.Scratch[flagW][0]
	work &^= vu.StatusNonStickyMask
	work |= ns | ns<<16
	h.Scratch[flagW][0] = work
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

// opmula translates the outer-product accumulate: the xyz lanes are an
// implied rotation of the sources, the w lane is untouched.
func opmula(tr *Translator, w insts.Word) {
	fs, ft := w.Fs(), w.Ft()
	tr.ra.Bind(dynarec.Operand{Kind: dynarec.KindVF, Index: fs})
	tr.ra.Bind(dynarec.Operand{Kind: dynarec.KindVF, Index: ft})
	tr.ra.Bind(dynarec.Operand{Kind: dynarec.KindACC})

	flagW := tr.cur.flagWork
	tr.code.Emit(func(h *dynarec.Host) {
		a := h.VU0.ReadVF(fs)
		b := h.VU0.ReadVF(ft)
		acc := h.VU0.ACC()
		acc.SetLane(insts.LaneX, a.Lane(insts.LaneY)*b.Lane(insts.LaneZ))
		acc.SetLane(insts.LaneY, a.Lane(insts.LaneZ)*b.Lane(insts.LaneX))
		acc.SetLane(insts.LaneZ, a.Lane(insts.LaneX)*b.Lane(insts.LaneY))
		h.VU0.SetACC(acc)
		zbits, sbits := xyzFlagBits(acc)
		updateWorkingFlags(h, flagW, zbits, sbits)
	})
}

// opmsub translates the outer-product subtract into fd.
func opmsub(tr *Translator, w insts.Word) {
	fs, ft, fd := w.Fs(), w.Ft(), w.Fd()
	tr.ra.Bind(dynarec.Operand{Kind: dynarec.KindVF, Index: fs})
	tr.ra.Bind(dynarec.Operand{Kind: dynarec.KindVF, Index: ft})
	tr.ra.Bind(dynarec.Operand{Kind: dynarec.KindACC})

	flagW := tr.cur.flagWork
	tr.code.Emit(func(h *dynarec.Host) {
		a := h.VU0.ReadVF(fs)
		b := h.VU0.ReadVF(ft)
		acc := h.VU0.ACC()
		out := h.VU0.ReadVF(fd)
		out.SetLane(insts.LaneX, acc.Lane(insts.LaneX)-a.Lane(insts.LaneY)*b.Lane(insts.LaneZ))
		out.SetLane(insts.LaneY, acc.Lane(insts.LaneY)-a.Lane(insts.LaneZ)*b.Lane(insts.LaneX))
		out.SetLane(insts.LaneZ, acc.Lane(insts.LaneZ)-a.Lane(insts.LaneX)*b.Lane(insts.LaneY))
		h.VU0.WriteVF(fd, out)
		zbits, sbits := xyzFlagBits(out)
		updateWorkingFlags(h, flagW, zbits, sbits)
	})
}

func xyzFlagBits(v vu.VFReg) (zbits, sbits uint32) {
	for lane := insts.LaneX; lane <= insts.LaneZ; lane++ {
		if v.Lane(lane) == 0 {
			zbits |= uint32(insts.DestBit(lane))
		}
		if math.Signbit(float64(v.Lane(lane))) {
			sbits |= uint32(insts.DestBit(lane))
		}
	}
	return zbits, sbits
}

// absOp translates ABS: clear the sign bit of each selected fs lane into ft.
func absOp(tr *Translator, w insts.Word) {
	laneMap(tr, w, func(bits uint32) uint32 {
		return bits &^ 0x80000000
	})
}

// ftoiOp builds the float-to-fixed conversion for one scale factor.
func ftoiOp(shift uint) TranslateFn {
	scale := float64(uint64(1) << shift)
	return func(tr *Translator, w insts.Word) {
		laneMap(tr, w, func(bits uint32) uint32 {
			v := float64(math.Float32frombits(bits)) * scale
			switch {
			case v >= math.MaxInt32:
				return 0x7FFFFFFF
			case v <= math.MinInt32:
				return 0x80000000
			default:
				return uint32(int32(v))
			}
		})
	}
}

// itofOp builds the fixed-to-float conversion for one scale factor.
func itofOp(shift uint) TranslateFn {
	scale := float32(uint64(1) << shift)
	return func(tr *Translator, w insts.Word) {
		laneMap(tr, w, func(bits uint32) uint32 {
			return math.Float32bits(float32(int32(bits)) / scale)
		})
	}
}

// laneMap emits a per-lane bit transform from fs into ft under the dest
// mask, the shape shared by ABS and the conversion instructions.
func laneMap(tr *Translator, w insts.Word, f func(bits uint32) uint32) {
	fs, ft, dest := w.Fs(), w.Ft(), w.Dest()
	tr.ra.Bind(dynarec.Operand{Kind: dynarec.KindVF, Index: fs})
	tr.ra.Bind(dynarec.Operand{Kind: dynarec.KindVF, Index: ft})

	tr.code.Emit(func(h *dynarec.Host) {
		src := h.VU0.ReadVF(fs)
		out := h.VU0.ReadVF(ft)
		for lane := 0; lane < 4; lane++ {
			if dest&insts.DestBit(lane) != 0 {
				out[lane] = f(src[lane])
			}
		}
		h.VU0.WriteVF(ft, out)
	})
}

// clipOp translates the clip test: six new judgement bits against |ft.w|
// shift into the 24-bit rolling clip mask.
func clipOp(tr *Translator, w insts.Word) {
	fs, ft := w.Fs(), w.Ft()
	tr.ra.Bind(dynarec.Operand{Kind: dynarec.KindVF, Index: fs})
	tr.ra.Bind(dynarec.Operand{Kind: dynarec.KindVF, Index: ft})

	tr.code.Emit(func(h *dynarec.Host) {
		a := h.VU0.ReadVF(fs)
		bound := float32(math.Abs(float64(h.VU0.ReadVF(ft).Lane(insts.LaneW))))

		var bits uint32
		for lane := insts.LaneX; lane <= insts.LaneZ; lane++ {
			v := a.Lane(lane)
			if v > bound {
				bits |= 1 << uint(lane*2)
			}
			if v < -bound {
				bits |= 2 << uint(lane*2)
			}
		}

		prev := h.VU0.ReadVI(insts.RegClipFlag)
		h.VU0.WriteVI(insts.RegClipFlag, (prev<<6|bits)&0xFFFFFF)
	})
}
