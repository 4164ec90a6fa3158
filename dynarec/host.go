// Package dynarec provides the services the macro recompiler consumes from
// the surrounding dynamic recompiler: the shared code buffer, the register
// allocation facade, the main CPU cycle counter, and the translated-block
// registry.
package dynarec

import "github.com/Gamr13/pcsx2/vu"

// ScratchRegs is the size of the host scratch register pool.
const ScratchRegs = 8

// Scratch identifies one host scratch register slot.
type Scratch uint8

// Host is the runtime state a translated block executes against: the main
// CPU's register file and cycle counter, both coprocessor instances, and
// the scratch pool bound through the register allocator.
//
// Writes to GPR[0] are excluded at translation time, matching the guest
// architecture's hardwired zero register.
type Host struct {
	// GPR is the main CPU's 128-bit general purpose register file,
	// stored as four 32-bit lanes per register.
	GPR [32][4]uint32

	// Cycles is the main CPU cycle counter shared with the dispatcher.
	Cycles *CycleCounter

	// VU0 is the coprocessor instance this recompiler targets.
	VU0 *vu.State

	// VU0Micro is VU0's micro-mode execution engine.
	VU0Micro vu.MicroEngine

	// VU1Micro is the sibling coprocessor's engine. The subroutine-call
	// control register serializes against it.
	VU1Micro vu.MicroEngine

	// Scratch holds the host scratch register pool, four 32-bit lanes
	// per slot.
	Scratch [ScratchRegs][4]uint32

	// BranchTaken and SkipDelaySlot carry the outcome of the most recent
	// conditional branch step for the dispatcher's block epilogue.
	BranchTaken   bool
	SkipDelaySlot bool
}

// NewHost creates a host bound to the given coprocessor instances.
func NewHost(vu0 *vu.State, vu0Micro, vu1Micro vu.MicroEngine) *Host {
	return &Host{
		Cycles:   &CycleCounter{},
		VU0:      vu0,
		VU0Micro: vu0Micro,
		VU1Micro: vu1Micro,
	}
}
