package vu

import (
	"math"

	"github.com/Gamr13/pcsx2/insts"
)

// VFReg is one 128-bit vector float register, stored as raw lane bits.
// Lane order follows insts.LaneX..LaneW.
type VFReg [4]uint32

// Lane returns the lane value as a float32.
func (r VFReg) Lane(i int) float32 {
	return math.Float32frombits(r[i])
}

// SetLane stores a float32 into the lane.
func (r *VFReg) SetLane(i int, v float32) {
	r[i] = math.Float32bits(v)
}

// DataWords is the size of VU0 data memory in 128-bit quadwords (4KB).
const DataWords = 256

// State is the architectural state of one VU instance as seen by the macro
// recompiler. It lives for the process lifetime of the emulated machine and
// is cleared on machine reset.
type State struct {
	vf  [32]VFReg
	vi  [32]uint32
	acc VFReg

	// Flags is the status/mac flag model. The clip mask lives in
	// vi[RegClipFlag].
	Flags FlagState

	// Mem is the VU data memory, addressed in quadwords.
	Mem [DataWords]VFReg

	// Cycle is the coprocessor cycle counter at the start of the current
	// or most recent microprogram block.
	Cycle uint32

	// NextBlockCycles counts cycles of the in-flight microprogram block
	// not yet charged against the main CPU's counter. It is maintained by
	// the micro-mode engine and consumed by the interlock protocol.
	NextBlockCycles uint32
}

// vf0 is the hardwired value of VF0: (0, 0, 0, 1).
var vf0 = VFReg{0, 0, 0, math.Float32bits(1)}

// ReadVF reads a vector register. VF0 always reads as (0, 0, 0, 1).
func (s *State) ReadVF(idx uint8) VFReg {
	if idx == 0 {
		return vf0
	}
	return s.vf[idx&31]
}

// WriteVF writes a vector register. Writes to VF0 are ignored.
func (s *State) WriteVF(idx uint8, v VFReg) {
	if idx == 0 {
		return
	}
	s.vf[idx&31] = v
}

// ACC returns the accumulator register.
func (s *State) ACC() VFReg {
	return s.acc
}

// SetACC writes the accumulator register.
func (s *State) SetACC(v VFReg) {
	s.acc = v
}

// ReadVI reads a control register. VI0 always reads zero; the status and
// mac registers read through the flag model so the scalar representation is
// the single source of truth.
func (s *State) ReadVI(idx uint8) uint32 {
	switch idx & 31 {
	case 0:
		return 0
	case insts.RegStatusFlag:
		return s.Flags.StatusScalar()
	case insts.RegMacFlag:
		return s.Flags.MacScalar()
	default:
		return s.vi[idx&31]
	}
}

// WriteVI writes a control register. Writes to VI0 are ignored. A write to
// the status register commits through the flag model so the broadcast copy
// stays consistent; the mac flag, TPC, and VPU_STAT registers are read-only
// from this path.
func (s *State) WriteVI(idx uint8, v uint32) {
	switch idx & 31 {
	case 0:
		return
	case insts.RegStatusFlag:
		s.Flags.CommitStatus(v)
	case insts.RegMacFlag, insts.RegTPC, insts.RegVPUStat:
		return
	default:
		s.vi[idx&31] = v
	}
}

// SetVPUStat sets the VPU_STAT mirror directly. Only the micro-mode engine
// should use this; the recompiler treats the register as read-only.
func (s *State) SetVPUStat(v uint32) {
	s.vi[insts.RegVPUStat] = v
}

// SetTPC sets the TPC mirror. Only the micro-mode engine should use this.
func (s *State) SetTPC(v uint32) {
	s.vi[insts.RegTPC] = v
}

// Reset clears all architectural state, as on machine reset.
func (s *State) Reset() {
	s.vf = [32]VFReg{}
	s.vi = [32]uint32{}
	s.acc = VFReg{}
	s.Flags.Reset()
	s.Mem = [DataWords]VFReg{}
	s.Cycle = 0
	s.NextBlockCycles = 0
}
