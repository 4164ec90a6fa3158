package macro

import (
	"math"

	"github.com/Gamr13/pcsx2/dynarec"
	"github.com/Gamr13/pcsx2/insts"
	"github.com/Gamr13/pcsx2/vu"
)

const fMaxBits = 0x7FFFFFFF // largest VU float magnitude

// setDivFlags replaces the I/D status bits in the working flag register and
// accumulates their sticky counterparts.
func setDivFlags(h *dynarec.Host, flagW dynarec.Scratch, invalid, divZero bool) {
	work := h.Scratch[flagW][0]
	work &^= vu.StatusI | vu.StatusD
	if invalid {
		work |= vu.StatusI | vu.StatusI<<16
	}
	if divZero {
		work |= vu.StatusD | vu.StatusD<<16
	}
	h.Scratch[flagW][0] = work
}

// divOp translates DIV: Q = fs[fsf] / ft[ftf]. Division by zero produces
// the signed maximum value and raises D, or I for the 0/0 case.
func divOp(tr *Translator, w insts.Word) {
	fs, ft, fsf, ftf := w.Fs(), w.Ft(), w.Fsf(), w.Ftf()
	tr.ra.Bind(dynarec.Operand{Kind: dynarec.KindVF, Index: fs})
	tr.ra.Bind(dynarec.Operand{Kind: dynarec.KindVF, Index: ft})

	qWork := tr.cur.qWork
	flagW := tr.cur.flagWork
	tr.code.Emit(func(h *dynarec.Host) {
		num := h.VU0.ReadVF(fs).Lane(int(fsf))
		den := h.VU0.ReadVF(ft).Lane(int(ftf))
		if den == 0 {
			setDivFlags(h, flagW, num == 0, num != 0)
			sign := (math.Float32bits(num) ^ math.Float32bits(den)) & 0x80000000
			h.Scratch[qWork][0] = sign | fMaxBits
			return
		}
		setDivFlags(h, flagW, false, false)
		h.Scratch[qWork][0] = math.Float32bits(num / den)
	})
}

// sqrtOp translates SQRT: Q = sqrt(|ft[ftf]|), raising I when the source
// is negative.
func sqrtOp(tr *Translator, w insts.Word) {
	ft, ftf := w.Ft(), w.Ftf()
	tr.ra.Bind(dynarec.Operand{Kind: dynarec.KindVF, Index: ft})

	qWork := tr.cur.qWork
	flagW := tr.cur.flagWork
	tr.code.Emit(func(h *dynarec.Host) {
		v := h.VU0.ReadVF(ft).Lane(int(ftf))
		setDivFlags(h, flagW, math.Signbit(float64(v)), false)
		r := float32(math.Sqrt(math.Abs(float64(v))))
		h.Scratch[qWork][0] = math.Float32bits(r)
	})
}

// rsqrtOp translates RSQRT: Q = fs[fsf] / sqrt(|ft[ftf]|).
func rsqrtOp(tr *Translator, w insts.Word) {
	fs, ft, fsf, ftf := w.Fs(), w.Ft(), w.Fsf(), w.Ftf()
	tr.ra.Bind(dynarec.Operand{Kind: dynarec.KindVF, Index: fs})
	tr.ra.Bind(dynarec.Operand{Kind: dynarec.KindVF, Index: ft})

	qWork := tr.cur.qWork
	flagW := tr.cur.flagWork
	tr.code.Emit(func(h *dynarec.Host) {
		num := h.VU0.ReadVF(fs).Lane(int(fsf))
		den := h.VU0.ReadVF(ft).Lane(int(ftf))
		invalid := math.Signbit(float64(den))
		if den == 0 {
			setDivFlags(h, flagW, invalid, true)
			sign := (math.Float32bits(num) ^ math.Float32bits(den)) & 0x80000000
			h.Scratch[qWork][0] = sign | fMaxBits
			return
		}
		setDivFlags(h, flagW, invalid, false)
		r := num / float32(math.Sqrt(math.Abs(float64(den))))
		h.Scratch[qWork][0] = math.Float32bits(r)
	})
}

// nopOp is the translator for NOP and WAITQ. Q is synchronous in macro
// mode, so WAITQ has nothing to wait for.
func nopOp(tr *Translator, w insts.Word) {}

// Integer ALU rows. The upper slot computes the 16-bit result into the
// instruction's shared scratch; the lower slot is the writeback.

type intKind uint8

const (
	intAdd intKind = iota
	intSub
	intAnd
	intOr
)

func intALU(kind intKind) TranslateFn {
	return func(tr *Translator, w insts.Word) {
		is, it := w.Fs(), w.Ft()
		tr.ra.Bind(dynarec.Operand{Kind: dynarec.KindVI, Index: is})
		tr.ra.Bind(dynarec.Operand{Kind: dynarec.KindVI, Index: it})
		tr.cur.intWork = tr.ra.Bind(dynarec.Operand{Kind: dynarec.KindVI, Index: w.Fd()})

		work := tr.cur.intWork
		tr.code.Emit(func(h *dynarec.Host) {
			a := uint16(h.VU0.ReadVI(is))
			b := uint16(h.VU0.ReadVI(it))
			var r uint16
			switch kind {
			case intAdd:
				r = a + b
			case intSub:
				r = a - b
			case intAnd:
				r = a & b
			case intOr:
				r = a | b
			}
			h.Scratch[work][0] = uint32(r)
		})
	}
}

// intImm is the IADDI upper slot: is plus the sign-extended 5-bit
// immediate.
func intImm(tr *Translator, w insts.Word) {
	is, imm := w.Fs(), w.Imm5()
	tr.ra.Bind(dynarec.Operand{Kind: dynarec.KindVI, Index: is})
	tr.cur.intWork = tr.ra.Bind(dynarec.Operand{Kind: dynarec.KindVI, Index: w.Ft()})

	work := tr.cur.intWork
	tr.code.Emit(func(h *dynarec.Host) {
		r := uint16(int16(h.VU0.ReadVI(is)) + int16(imm))
		h.Scratch[work][0] = uint32(r)
	})
}

func intWriteFd(tr *Translator, w insts.Word) {
	intWriteback(tr, w.Fd())
}

func intWriteFt(tr *Translator, w insts.Word) {
	intWriteback(tr, w.Ft())
}

func intWriteback(tr *Translator, dest uint8) {
	work := tr.cur.intWork
	tr.code.Emit(func(h *dynarec.Host) {
		h.VU0.WriteVI(dest, h.Scratch[work][0])
	})
}

// moveOp copies selected fs lanes into ft.
func moveOp(tr *Translator, w insts.Word) {
	laneMap(tr, w, func(bits uint32) uint32 { return bits })
}

// mr32Op rotates fs one lane leftward into ft: x<-y, y<-z, z<-w, w<-x.
func mr32Op(tr *Translator, w insts.Word) {
	fs, ft, dest := w.Fs(), w.Ft(), w.Dest()
	tr.ra.Bind(dynarec.Operand{Kind: dynarec.KindVF, Index: fs})
	tr.ra.Bind(dynarec.Operand{Kind: dynarec.KindVF, Index: ft})

	tr.code.Emit(func(h *dynarec.Host) {
		src := h.VU0.ReadVF(fs)
		out := h.VU0.ReadVF(ft)
		for lane := 0; lane < 4; lane++ {
			if dest&insts.DestBit(lane) != 0 {
				out[lane] = src[(lane+1)&3]
			}
		}
		h.VU0.WriteVF(ft, out)
	})
}

// mfirOp broadcasts the sign-extended integer register into ft lanes.
func mfirOp(tr *Translator, w insts.Word) {
	is, ft, dest := w.Fs(), w.Ft(), w.Dest()
	tr.ra.Bind(dynarec.Operand{Kind: dynarec.KindVI, Index: is})
	tr.ra.Bind(dynarec.Operand{Kind: dynarec.KindVF, Index: ft})

	tr.code.Emit(func(h *dynarec.Host) {
		v := uint32(int32(int16(h.VU0.ReadVI(is))))
		out := h.VU0.ReadVF(ft)
		for lane := 0; lane < 4; lane++ {
			if dest&insts.DestBit(lane) != 0 {
				out[lane] = v
			}
		}
		h.VU0.WriteVF(ft, out)
	})
}

// mtirOp moves the selected fs lane bits into an integer register.
func mtirOp(tr *Translator, w insts.Word) {
	fs, it, fsf := w.Fs(), w.Ft(), w.Fsf()
	tr.ra.Bind(dynarec.Operand{Kind: dynarec.KindVF, Index: fs})
	tr.ra.Bind(dynarec.Operand{Kind: dynarec.KindVI, Index: it})

	tr.code.Emit(func(h *dynarec.Host) {
		h.VU0.WriteVI(it, h.VU0.ReadVF(fs)[fsf]&0xFFFF)
	})
}

func memIndex(addr uint32) uint32 {
	return addr & (vu.DataWords - 1)
}

// lqiOp loads ft from memory at VI[is], post-incrementing the pointer.
func lqiOp(tr *Translator, w insts.Word) {
	is, ft, dest := w.Fs(), w.Ft(), w.Dest()
	tr.ra.Bind(dynarec.Operand{Kind: dynarec.KindVI, Index: is})
	tr.ra.Bind(dynarec.Operand{Kind: dynarec.KindVF, Index: ft})

	tr.code.Emit(func(h *dynarec.Host) {
		addr := h.VU0.ReadVI(is)
		loadQuad(h, ft, dest, addr)
		h.VU0.WriteVI(is, (addr+1)&0xFFFF)
	})
}

// lqdOp pre-decrements the pointer, then loads ft.
func lqdOp(tr *Translator, w insts.Word) {
	is, ft, dest := w.Fs(), w.Ft(), w.Dest()
	tr.ra.Bind(dynarec.Operand{Kind: dynarec.KindVI, Index: is})
	tr.ra.Bind(dynarec.Operand{Kind: dynarec.KindVF, Index: ft})

	tr.code.Emit(func(h *dynarec.Host) {
		addr := (h.VU0.ReadVI(is) - 1) & 0xFFFF
		h.VU0.WriteVI(is, addr)
		loadQuad(h, ft, dest, addr)
	})
}

// sqiOp stores fs to memory at VI[it], post-incrementing the pointer.
func sqiOp(tr *Translator, w insts.Word) {
	fs, it, dest := w.Fs(), w.Ft(), w.Dest()
	tr.ra.Bind(dynarec.Operand{Kind: dynarec.KindVF, Index: fs})
	tr.ra.Bind(dynarec.Operand{Kind: dynarec.KindVI, Index: it})

	tr.code.Emit(func(h *dynarec.Host) {
		addr := h.VU0.ReadVI(it)
		storeQuad(h, fs, dest, addr)
		h.VU0.WriteVI(it, (addr+1)&0xFFFF)
	})
}

// sqdOp pre-decrements the pointer, then stores fs.
func sqdOp(tr *Translator, w insts.Word) {
	fs, it, dest := w.Fs(), w.Ft(), w.Dest()
	tr.ra.Bind(dynarec.Operand{Kind: dynarec.KindVF, Index: fs})
	tr.ra.Bind(dynarec.Operand{Kind: dynarec.KindVI, Index: it})

	tr.code.Emit(func(h *dynarec.Host) {
		addr := (h.VU0.ReadVI(it) - 1) & 0xFFFF
		h.VU0.WriteVI(it, addr)
		storeQuad(h, fs, dest, addr)
	})
}

func loadQuad(h *dynarec.Host, ft, dest uint8, addr uint32) {
	quad := h.VU0.Mem[memIndex(addr)]
	out := h.VU0.ReadVF(ft)
	for lane := 0; lane < 4; lane++ {
		if dest&insts.DestBit(lane) != 0 {
			out[lane] = quad[lane]
		}
	}
	h.VU0.WriteVF(ft, out)
}

func storeQuad(h *dynarec.Host, fs, dest uint8, addr uint32) {
	src := h.VU0.ReadVF(fs)
	quad := &h.VU0.Mem[memIndex(addr)]
	for lane := 0; lane < 4; lane++ {
		if dest&insts.DestBit(lane) != 0 {
			quad[lane] = src[lane]
		}
	}
}

// ilwrOp loads an integer register from the first selected lane of the
// quadword at VI[is].
func ilwrOp(tr *Translator, w insts.Word) {
	is, it, dest := w.Fs(), w.Ft(), w.Dest()
	tr.ra.Bind(dynarec.Operand{Kind: dynarec.KindVI, Index: is})
	tr.ra.Bind(dynarec.Operand{Kind: dynarec.KindVI, Index: it})

	tr.code.Emit(func(h *dynarec.Host) {
		quad := h.VU0.Mem[memIndex(h.VU0.ReadVI(is))]
		for lane := 0; lane < 4; lane++ {
			if dest&insts.DestBit(lane) != 0 {
				h.VU0.WriteVI(it, quad[lane]&0xFFFF)
				return
			}
		}
	})
}

// iswrOp stores an integer register into the selected lanes of the
// quadword at VI[is].
func iswrOp(tr *Translator, w insts.Word) {
	is, it, dest := w.Fs(), w.Ft(), w.Dest()
	tr.ra.Bind(dynarec.Operand{Kind: dynarec.KindVI, Index: is})
	tr.ra.Bind(dynarec.Operand{Kind: dynarec.KindVI, Index: it})

	tr.code.Emit(func(h *dynarec.Host) {
		v := h.VU0.ReadVI(it) & 0xFFFF
		quad := &h.VU0.Mem[memIndex(h.VU0.ReadVI(is))]
		for lane := 0; lane < 4; lane++ {
			if dest&insts.DestBit(lane) != 0 {
				quad[lane] = v
			}
		}
	})
}

// The R register holds a 23-bit LFSR state under a fixed float exponent.

const rFloatBase = 0x3F800000

// rinitOp seeds R from the selected fs lane mantissa.
func rinitOp(tr *Translator, w insts.Word) {
	fs, fsf := w.Fs(), w.Fsf()
	tr.ra.Bind(dynarec.Operand{Kind: dynarec.KindVF, Index: fs})

	tr.code.Emit(func(h *dynarec.Host) {
		h.VU0.WriteVI(insts.RegR, rFloatBase|h.VU0.ReadVF(fs)[fsf]&0x7FFFFF)
	})
}

// rgetOp broadcasts R into the selected ft lanes.
func rgetOp(tr *Translator, w insts.Word) {
	ft, dest := w.Ft(), w.Dest()
	tr.ra.Bind(dynarec.Operand{Kind: dynarec.KindVF, Index: ft})

	tr.code.Emit(func(h *dynarec.Host) {
		writeR(h, ft, dest)
	})
}

// rnextOp advances the LFSR, then behaves as RGET.
func rnextOp(tr *Translator, w insts.Word) {
	ft, dest := w.Ft(), w.Dest()
	tr.ra.Bind(dynarec.Operand{Kind: dynarec.KindVF, Index: ft})

	tr.code.Emit(func(h *dynarec.Host) {
		r := h.VU0.ReadVI(insts.RegR)
		fb := (r>>4)&1 ^ (r>>22)&1
		h.VU0.WriteVI(insts.RegR, rFloatBase|(r<<1|fb)&0x7FFFFF)
		writeR(h, ft, dest)
	})
}

// rxorOp folds the selected fs lane into the LFSR state.
func rxorOp(tr *Translator, w insts.Word) {
	fs, fsf := w.Fs(), w.Fsf()
	tr.ra.Bind(dynarec.Operand{Kind: dynarec.KindVF, Index: fs})

	tr.code.Emit(func(h *dynarec.Host) {
		r := h.VU0.ReadVI(insts.RegR)
		h.VU0.WriteVI(insts.RegR, rFloatBase|(r^h.VU0.ReadVF(fs)[fsf])&0x7FFFFF)
	})
}

func writeR(h *dynarec.Host, ft, dest uint8) {
	v := h.VU0.ReadVI(insts.RegR)
	out := h.VU0.ReadVF(ft)
	for lane := 0; lane < 4; lane++ {
		if dest&insts.DestBit(lane) != 0 {
			out[lane] = v
		}
	}
	h.VU0.WriteVF(ft, out)
}

// callMS starts the microprogram at the instruction's immediate address.
// The dispatcher has already emitted the finish step for any block in
// flight.
func callMS(tr *Translator, w insts.Word) {
	addr := w.Imm15()
	tr.code.Emit(func(h *dynarec.Host) {
		h.VU0.WriteVI(insts.RegCMSAR0, addr)
		h.VU0.Cycle = h.Cycles.Current()
		h.VU0Micro.ExecMicro(addr)
	})
}

// callMSR starts the microprogram at the address held in CMSAR0.
func callMSR(tr *Translator, w insts.Word) {
	tr.code.Emit(func(h *dynarec.Host) {
		h.VU0.Cycle = h.Cycles.Current()
		h.VU0Micro.ExecMicro(h.VU0.ReadVI(insts.RegCMSAR0) & 0x7FFF)
	})
}
