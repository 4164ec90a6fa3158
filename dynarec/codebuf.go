package dynarec

// Step is one emitted host operation. Translation appends steps to the code
// buffer; running a block executes them in emission order against the host
// state. This is the threaded-code equivalent of emitting host machine code
// into an executable buffer.
type Step func(h *Host)

// Block is a finished, contiguous translation fragment.
type Block struct {
	// GuestPC is the guest address the fragment was translated from.
	GuestPC uint32

	steps []Step
}

// Run executes the block's steps in order.
func (b *Block) Run(h *Host) {
	for _, step := range b.steps {
		step(h)
	}
}

// Len returns the number of emitted steps.
func (b *Block) Len() int {
	return len(b.steps)
}

// CodeBuffer is the shared emission buffer owned by the dynarec.
//
// Emit appends a step immediately. Stage defers a step (a guest-state
// writeback whose emission the dynarec is allowed to buffer); Flush commits
// all staged steps before anything emitted afterwards, which is what keeps
// the host code stream and guest architectural state in agreement at
// instruction-envelope and interlock boundaries.
type CodeBuffer struct {
	steps  []Step
	staged []Step
}

// NewCodeBuffer creates an empty code buffer.
func NewCodeBuffer() *CodeBuffer {
	return &CodeBuffer{}
}

// Emit appends a step to the instruction stream.
func (c *CodeBuffer) Emit(step Step) {
	c.steps = append(c.steps, step)
}

// Stage defers a guest-state writeback until the next Flush.
func (c *CodeBuffer) Stage(step Step) {
	c.staged = append(c.staged, step)
}

// Flush commits all staged steps, in staging order, ahead of any step
// emitted after this call.
func (c *CodeBuffer) Flush() {
	c.steps = append(c.steps, c.staged...)
	c.staged = c.staged[:0]
}

// Len returns the number of committed steps.
func (c *CodeBuffer) Len() int {
	return len(c.steps)
}

// Finish flushes remaining staged work, seals the buffer into a block, and
// resets the buffer for the next translation.
func (c *CodeBuffer) Finish(guestPC uint32) *Block {
	c.Flush()
	block := &Block{GuestPC: guestPC, steps: c.steps}
	c.steps = nil
	return block
}
