package macro_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Gamr13/pcsx2/dynarec"
	"github.com/Gamr13/pcsx2/insts"
	"github.com/Gamr13/pcsx2/macro"
	"github.com/Gamr13/pcsx2/vu"
)

// recordingEngine is a MicroEngine stub that records every protocol call in
// order.
type recordingEngine struct {
	busy      bool
	remaining uint32
	calls     []string
	lastExec  uint32
}

func (e *recordingEngine) IsBusy() bool { return e.busy }

func (e *recordingEngine) ExecuteBlock() {
	e.calls = append(e.calls, "ExecuteBlock")
}

func (e *recordingEngine) WaitMicro() {
	e.calls = append(e.calls, "WaitMicro")
	e.busy = false
}

func (e *recordingEngine) FinishMicro() {
	e.calls = append(e.calls, "FinishMicro")
	e.busy = false
}

func (e *recordingEngine) ExecMicro(addr uint32) {
	e.calls = append(e.calls, "ExecMicro")
	e.lastExec = addr
	e.busy = true
}

func (e *recordingEngine) EstimateRemainingCycles() uint32 { return e.remaining }

func (e *recordingEngine) Reset() {
	e.calls = append(e.calls, "Reset")
	e.busy = false
}

// fixture wires a translator to a host the way the dispatcher would.
type fixture struct {
	state *vu.State
	vu0   *recordingEngine
	vu1   *recordingEngine
	host  *dynarec.Host
	buf   *dynarec.CodeBuffer
	tr    *macro.Translator
}

func newFixture() *fixture {
	state := &vu.State{}
	vu0 := &recordingEngine{}
	vu1 := &recordingEngine{}
	host := dynarec.NewHost(state, vu0, vu1)
	buf := dynarec.NewCodeBuffer()
	tr := macro.NewTranslator(
		buf,
		dynarec.NewRegAlloc(),
		host.Cycles,
		dynarec.NewBranchRecorder(buf),
		nil,
	)
	return &fixture{state: state, vu0: vu0, vu1: vu1, host: host, buf: buf, tr: tr}
}

// run translates the words as one block and executes it.
func (f *fixture) run(words ...insts.Word) {
	for _, w := range words {
		f.tr.Translate(w)
		f.host.Cycles.AddBlockCycles(f.tr.Config().BlockCycleEstimate)
	}
	f.buf.Finish(0).Run(f.host)
}

// Instruction word encoders.

const cop2 = 0x12 << 26

// vop encodes a SPECIAL1 arithmetic word.
func vop(funct, dest, ft, fs, fd uint8) insts.Word {
	return insts.Word(cop2 | 1<<25 |
		uint32(dest)<<21 | uint32(ft)<<16 | uint32(fs)<<11 |
		uint32(fd)<<6 | uint32(funct))
}

// vop2 encodes a SPECIAL2 word by its split table index.
func vop2(index, dest, ft, fs uint8) insts.Word {
	return insts.Word(cop2 | 1<<25 |
		uint32(dest)<<21 | uint32(ft)<<16 | uint32(fs)<<11 |
		uint32(index>>2)<<6 | 0x3C | uint32(index&3))
}

// xfer encodes a register-transfer word.
func xfer(sub, rt, rd uint8, interlock bool) insts.Word {
	w := insts.Word(cop2 | uint32(sub)<<21 | uint32(rt)<<16 | uint32(rd)<<11)
	if interlock {
		w |= 1
	}
	return w
}

func vfOf(x, y, z, w float32) vu.VFReg {
	return vu.VFReg{
		math.Float32bits(x), math.Float32bits(y),
		math.Float32bits(z), math.Float32bits(w),
	}
}

const (
	destXYZW = 0xF
	functADD = 0x28
	functSUB = 0x2C
	functMAX = 0x2B
	functMUL = 0x2A

	idxDIV  = 0x38
	idxCLIP = 0x1F
	idxMOVE = 0x30
)

var _ = Describe("Translator", func() {
	var f *fixture

	BeforeEach(func() {
		f = newFixture()
	})

	Describe("vector arithmetic", func() {
		It("should compute a masked lane-wise add", func() {
			f.state.WriteVF(1, vfOf(1, 2, 3, 4))
			f.state.WriteVF(2, vfOf(10, 20, 30, 40))

			f.run(vop(functADD, insts.DestX|insts.DestZ, 2, 1, 3))

			out := f.state.ReadVF(3)
			Expect(out.Lane(insts.LaneX)).To(Equal(float32(11)))
			Expect(out.Lane(insts.LaneY)).To(Equal(float32(0)))
			Expect(out.Lane(insts.LaneZ)).To(Equal(float32(33)))
			Expect(out.Lane(insts.LaneW)).To(Equal(float32(0)))
		})

		It("should treat VF0 as the constant (0,0,0,1)", func() {
			f.state.WriteVF(1, vfOf(5, 5, 5, 5))

			f.run(vop(functADD, destXYZW, 0, 1, 3))

			out := f.state.ReadVF(3)
			Expect(out.Lane(insts.LaneX)).To(Equal(float32(5)))
			Expect(out.Lane(insts.LaneW)).To(Equal(float32(6)))
		})

		It("should never write VF0", func() {
			f.state.WriteVF(1, vfOf(1, 1, 1, 1))

			f.run(vop(functADD, destXYZW, 1, 1, 0))

			Expect(f.state.ReadVF(0)).To(Equal(vfOf(0, 0, 0, 1)))
		})
	})

	Describe("status and mac flags", func() {
		It("should set zero and sign bits per produced lane", func() {
			f.state.WriteVF(1, vfOf(1, 2, 3, 4))
			f.state.WriteVF(2, vfOf(1, 5, 3, 4))

			// 1-1=0, 2-5=-3, 3-3=0, 4-4=0.
			f.run(vop(functSUB, destXYZW, 2, 1, 3))

			mac := f.state.Flags.MacScalar()
			Expect(mac & 0xF).To(Equal(uint32(insts.DestX | insts.DestZ | insts.DestW)))
			Expect((mac >> 4) & 0xF).To(Equal(uint32(insts.DestY)))

			status := f.state.Flags.StatusScalar()
			Expect(status & vu.StatusZ).ToNot(BeZero())
			Expect(status & vu.StatusS).ToNot(BeZero())
			Expect(status & vu.StatusZS).ToNot(BeZero())
			Expect(status & vu.StatusSS).ToNot(BeZero())
		})

		It("should clear mac bits of lanes outside the dest mask", func() {
			f.state.WriteVF(1, vfOf(0, 0, 0, 0))

			f.run(vop(functADD, insts.DestX, 1, 1, 3))

			Expect(f.state.Flags.MacScalar() & 0xF).To(Equal(uint32(insts.DestX)))
		})

		It("should keep sticky bits set across later producers", func() {
			f.state.WriteVF(1, vfOf(0, 0, 0, 0))
			f.state.WriteVF(2, vfOf(1, 1, 1, 1))

			f.run(
				vop(functADD, destXYZW, 1, 1, 3), // all zero: Z, ZS
				vop(functADD, destXYZW, 2, 2, 4), // nonzero: Z clears
			)

			status := f.state.Flags.StatusScalar()
			Expect(status & vu.StatusZ).To(BeZero())
			Expect(status & vu.StatusZS).ToNot(BeZero())
		})

		It("should not touch flags for MAX", func() {
			f.state.WriteVF(1, vfOf(0, 0, 0, 0))
			f.run(vop(functADD, destXYZW, 1, 1, 3))
			before := f.state.Flags.StatusScalar()
			beforeMac := f.state.Flags.MacScalar()

			f.state.WriteVF(2, vfOf(-1, -2, -3, -4))
			f.run(vop(functMAX, destXYZW, 2, 1, 4))

			Expect(f.state.Flags.StatusScalar()).To(Equal(before))
			Expect(f.state.Flags.MacScalar()).To(Equal(beforeMac))
		})

		It("should keep both flag representations consistent after every block", func() {
			f.state.WriteVF(1, vfOf(0, -1, 2, 0))
			f.run(
				vop(functADD, destXYZW, 1, 1, 3),
				vop(functMUL, destXYZW, 1, 3, 4),
			)

			Expect(f.state.Flags.Consistent()).To(BeTrue())
		})
	})

	Describe("the Q pipeline", func() {
		It("should round-trip DIV into a Q-reading multiply", func() {
			f.state.WriteVF(1, vfOf(8, 0, 0, 0))
			f.state.WriteVF(2, vfOf(2, 0, 0, 0))
			f.state.WriteVF(3, vfOf(1, 2, 3, 4))

			f.run(
				vop2(idxDIV, 0, 2, 1), // Q = vf1.x / vf2.x = 4
				vop(0x1C, destXYZW, 0, 3, 4), // MULq: vf4 = vf3 * Q
			)

			Expect(math.Float32frombits(f.state.ReadVI(insts.RegQ))).To(Equal(float32(4)))
			out := f.state.ReadVF(4)
			Expect(out.Lane(insts.LaneX)).To(Equal(float32(4)))
			Expect(out.Lane(insts.LaneW)).To(Equal(float32(16)))
		})

		It("should raise D and preserve earlier non-sticky bits on divide by zero", func() {
			f.state.WriteVF(1, vfOf(0, 0, 0, 0))
			f.run(vop(functADD, destXYZW, 1, 1, 3)) // Z set

			f.state.WriteVF(4, vfOf(5, 0, 0, 0))
			f.run(vop2(idxDIV, 0, 1, 4)) // 5 / vf1.x = 5/0

			status := f.state.Flags.StatusScalar()
			Expect(status & vu.StatusD).ToNot(BeZero())
			Expect(status & vu.StatusDS).ToNot(BeZero())
			Expect(status & vu.StatusZ).ToNot(BeZero(), "Z from the earlier add survives")
			Expect(status & vu.StatusI).To(BeZero())
		})

		It("should raise I for the zero-over-zero case", func() {
			f.run(vop2(idxDIV, 0, 1, 2)) // vf2.x / vf1.x with both zero

			status := f.state.Flags.StatusScalar()
			Expect(status & vu.StatusI).ToNot(BeZero())
			Expect(status & vu.StatusD).To(BeZero())
		})

		It("should not disturb mac flags from the Q pipeline", func() {
			f.state.WriteVF(1, vfOf(0, 0, 0, 0))
			f.run(vop(functADD, destXYZW, 1, 1, 3))
			mac := f.state.Flags.MacScalar()

			f.run(vop2(idxDIV, 0, 1, 2))

			Expect(f.state.Flags.MacScalar()).To(Equal(mac))
		})
	})

	Describe("integer dual issue", func() {
		It("should write the 16-bit sum through the lower slot", func() {
			f.state.WriteVI(1, 0xFFFE)
			f.state.WriteVI(2, 5)

			f.run(vop(0x30, 0, 2, 1, 3)) // IADD vi3, vi1, vi2

			Expect(f.state.ReadVI(3)).To(Equal(uint32(3)), "16-bit wraparound")
		})

		It("should elide the lower slot when the destination is the zero register", func() {
			f.tr.Translate(vop(0x30, 0, 2, 1, 3))
			withWriteback := f.buf.Len()
			f.buf.Finish(0)

			f.tr.Translate(vop(0x30, 0, 2, 1, 0))
			withoutWriteback := f.buf.Len()
			f.buf.Finish(0)

			Expect(withoutWriteback).To(Equal(withWriteback - 1))
		})

		It("should add the sign-extended immediate for IADDI", func() {
			f.state.WriteVI(1, 10)

			f.run(vop(0x32, 0, 5, 1, 0x1D)) // IADDI vi5, vi1, -3

			Expect(f.state.ReadVI(5)).To(Equal(uint32(7)))
		})
	})

	Describe("the clip test", func() {
		It("should shift six new judgement bits into the rolling mask", func() {
			f.state.WriteVF(1, vfOf(2, -3, 0.5, 0))
			f.state.WriteVF(2, vfOf(0, 0, 0, 1))

			f.run(vop2(idxCLIP, 0, 2, 1))

			// +x and -y against |w|=1.
			Expect(f.state.ReadVI(insts.RegClipFlag)).To(Equal(uint32(1 | 2<<2)))

			f.run(vop2(idxCLIP, 0, 2, 1))
			Expect(f.state.ReadVI(insts.RegClipFlag)).
				To(Equal(uint32((1|2<<2)<<6 | (1 | 2<<2))))
		})

		It("should expose the mask to a control-register read", func() {
			f.state.WriteVF(1, vfOf(2, 0, 0, 0))
			f.state.WriteVF(2, vfOf(0, 0, 0, 1))

			f.run(
				vop2(idxCLIP, 0, 2, 1),
				xfer(insts.SubCFC2, 9, insts.RegClipFlag, false),
			)

			Expect(f.host.GPR[9][0]).To(Equal(uint32(1)))
		})
	})

	Describe("loads and stores", func() {
		It("should post-increment through LQI and SQI", func() {
			f.state.WriteVI(1, 4)
			f.state.WriteVF(2, vfOf(7, 8, 9, 10))

			f.run(vop2(0x35, destXYZW, 1, 2)) // SQI vf2, (vi1++)
			Expect(f.state.ReadVI(1)).To(Equal(uint32(5)))
			Expect(f.state.Mem[4]).To(Equal(vfOf(7, 8, 9, 10)))

			f.state.WriteVI(3, 4)
			f.run(vop2(0x34, destXYZW, 5, 3)) // LQI vf5, (vi3++)
			Expect(f.state.ReadVF(5)).To(Equal(vfOf(7, 8, 9, 10)))
			Expect(f.state.ReadVI(3)).To(Equal(uint32(5)))
		})

		It("should pre-decrement through SQD", func() {
			f.state.WriteVI(1, 5)
			f.state.WriteVF(2, vfOf(1, 2, 3, 4))

			f.run(vop2(0x37, destXYZW, 1, 2)) // SQD vf2, (--vi1)

			Expect(f.state.ReadVI(1)).To(Equal(uint32(4)))
			Expect(f.state.Mem[4]).To(Equal(vfOf(1, 2, 3, 4)))
		})

		It("should store only the selected lanes", func() {
			f.state.Mem[7] = vfOf(1, 1, 1, 1)
			f.state.WriteVI(1, 7)
			f.state.WriteVF(2, vfOf(9, 9, 9, 9))

			f.run(vop2(0x35, insts.DestY, 1, 2))

			Expect(f.state.Mem[7]).To(Equal(vfOf(1, 9, 1, 1)))
		})
	})

	Describe("the R register", func() {
		It("should keep the fixed float exponent through RINIT and RNEXT", func() {
			f.state.WriteVF(1, vu.VFReg{0x00ABCDEF, 0, 0, 0})

			f.run(vop2(0x42, 0, 0, 1)) // RINIT from vf1.x
			Expect(f.state.ReadVI(insts.RegR)).To(Equal(uint32(0x3FABCDEF)))

			f.run(vop2(0x40, insts.DestX, 3, 0)) // RNEXT into vf3.x
			r := f.state.ReadVI(insts.RegR)
			Expect(r & 0xFF800000).To(Equal(uint32(0x3F800000)))
			Expect(f.state.ReadVF(3)[insts.LaneX]).To(Equal(r))
		})
	})

	Describe("unimplemented encodings", func() {
		It("should translate to nothing and count the word", func() {
			before := f.buf.Len()
			f.tr.Translate(insts.Word(cop2 | 0x03<<21))

			Expect(f.buf.Len()).To(Equal(before))
			Expect(f.tr.Unimplemented()).To(Equal(uint64(1)))
		})
	})
})
