package dynarec

import "fmt"

// OperandKind classifies a guest operand bound to a host scratch register.
type OperandKind uint8

// Guest operand kinds.
const (
	KindVF OperandKind = iota
	KindVI
	KindGPR
	KindACC
	KindQ
	KindFlags
)

// Operand names a guest register for binding purposes.
type Operand struct {
	Kind  OperandKind
	Index uint8
}

// RegAlloc is the register allocation facade the recompiler calls at
// instruction-envelope boundaries. The surrounding dynarec owns the real
// allocator; this facade tracks which guest operands are bound to which
// host scratch slots for the duration of one instruction body.
type RegAlloc struct {
	bound [ScratchRegs]Operand
	used  [ScratchRegs]bool

	binds   uint64
	retires uint64
}

// NewRegAlloc creates an empty allocator.
func NewRegAlloc() *RegAlloc {
	return &RegAlloc{}
}

// Bind binds a guest operand to a host scratch slot, reusing an existing
// binding for the same operand. Exhausting the scratch pool is a translator
// programming error, not a runtime condition, so it panics.
func (r *RegAlloc) Bind(op Operand) Scratch {
	for i := range r.bound {
		if r.used[i] && r.bound[i] == op {
			return Scratch(i)
		}
	}
	for i := range r.bound {
		if !r.used[i] {
			r.bound[i] = op
			r.used[i] = true
			r.binds++
			return Scratch(i)
		}
	}
	panic(fmt.Sprintf("dynarec: scratch pool exhausted binding %v", op))
}

// RetireAll releases every binding, as at the end of an instruction
// envelope.
func (r *RegAlloc) RetireAll() {
	for i := range r.used {
		if r.used[i] {
			r.retires++
		}
		r.used[i] = false
	}
}

// Reset clears the allocator state, as at the start of an instruction
// envelope.
func (r *RegAlloc) Reset() {
	r.used = [ScratchRegs]bool{}
}

// Bound returns the number of live bindings.
func (r *RegAlloc) Bound() int {
	n := 0
	for _, u := range r.used {
		if u {
			n++
		}
	}
	return n
}

// Binds returns the total number of fresh bindings made.
func (r *RegAlloc) Binds() uint64 { return r.binds }

// Retires returns the total number of bindings retired.
func (r *RegAlloc) Retires() uint64 { return r.retires }
