package vu

import "github.com/Gamr13/pcsx2/insts"

// MicroEngine is the macro recompiler's view of the micro-mode execution
// engine. The interlock protocol is the only consumer; everything else in
// the recompiler treats the coprocessor's busy state as opaque.
//
// "Busy" means a microprogram block has been dispatched and not yet run to
// completion. Execution may be deferred, so a pending block can exist while
// the host is not actively advancing it.
type MicroEngine interface {
	// IsBusy reports whether a microprogram block is in flight.
	IsBusy() bool

	// ExecuteBlock resumes the pending microprogram block for its allotted
	// cycle budget. Used by the opportunistic synchronization path.
	ExecuteBlock()

	// WaitMicro blocks until the in-flight microprogram completes,
	// modeling the guest-visible stall of an M-bit synchronized transfer.
	WaitMicro()

	// FinishMicro forces the in-flight microprogram to run to completion
	// synchronously.
	FinishMicro()

	// ExecMicro dispatches a new microprogram starting at addr.
	ExecMicro(addr uint32)

	// EstimateRemainingCycles returns the cycles of the pending block not
	// yet charged against the main CPU.
	EstimateRemainingCycles() uint32

	// Reset resets the execution engine, as triggered through FBRST.
	Reset()
}

// NullEngine is a functional MicroEngine with no micro-mode interpreter
// behind it: dispatched programs complete immediately. It backs the CLI and
// any configuration without a full micro-mode core.
type NullEngine struct {
	state *State

	// LastProgram is the address of the most recently dispatched
	// microprogram, for diagnostics.
	LastProgram uint32
}

// NewNullEngine creates a NullEngine bound to a VU state.
func NewNullEngine(state *State) *NullEngine {
	return &NullEngine{state: state}
}

// IsBusy always reports false: programs complete at dispatch.
func (e *NullEngine) IsBusy() bool { return false }

// ExecuteBlock is a no-op; there is never a pending block.
func (e *NullEngine) ExecuteBlock() {}

// WaitMicro is a no-op; there is never an in-flight program.
func (e *NullEngine) WaitMicro() {}

// FinishMicro is a no-op; there is never an in-flight program.
func (e *NullEngine) FinishMicro() {}

// ExecMicro records the dispatch and completes it immediately.
func (e *NullEngine) ExecMicro(addr uint32) {
	e.LastProgram = addr
	e.state.SetTPC(addr)
	e.state.NextBlockCycles = 0
}

// EstimateRemainingCycles always returns zero.
func (e *NullEngine) EstimateRemainingCycles() uint32 { return 0 }

// Reset clears the engine-owned mirrors.
func (e *NullEngine) Reset() {
	e.LastProgram = 0
	e.state.SetTPC(0)
	e.state.SetVPUStat(e.state.ReadVI(insts.RegVPUStat) &^ uint32(insts.VPUStatVU0Busy))
	e.state.NextBlockCycles = 0
}
