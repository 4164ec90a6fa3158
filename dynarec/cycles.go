package dynarec

// CycleCounter is the main CPU's cycle counter together with the per-block
// elapsed-cycle estimate the dynarec accrues while translating.
//
// The block estimate has take-and-clear semantics: the interlock protocol
// captures the cycles of the fragment emitted so far exactly once, so the
// same cycles are never charged twice.
type CycleCounter struct {
	cycle uint32
	block uint32
}

// Advance adds n cycles to the main CPU counter.
func (c *CycleCounter) Advance(n uint32) {
	c.cycle += n
}

// Current returns the main CPU cycle count.
func (c *CycleCounter) Current() uint32 {
	return c.cycle
}

// AddBlockCycles accrues the estimate for one more translated instruction.
func (c *CycleCounter) AddBlockCycles(n uint32) {
	c.block += n
}

// TakeBlockCycles returns the accrued per-block estimate and clears it.
func (c *CycleCounter) TakeBlockCycles() uint32 {
	n := c.block
	c.block = 0
	return n
}
