package macro

import (
	"github.com/Gamr13/pcsx2/dynarec"
	"github.com/Gamr13/pcsx2/insts"
	"github.com/Gamr13/pcsx2/vu"
)

// BranchSink is the dynarec's generic branch-emission facility. The BC2
// translators hand it a condition test and the likely annotation; everything
// else about branch handling belongs to the surrounding dynarec.
type BranchSink interface {
	CondBranch(test func(h *dynarec.Host) bool, likely bool)
}

// TranslateFn translates one opcode slot, emitting host steps into the
// shared code buffer.
type TranslateFn func(tr *Translator, w insts.Word)

// Row binds one opcode to its mode descriptor and slot translators. Rows
// are table data, fixed at construction; the lower slot is consulted only
// for dual-issue descriptors and skipped when LowerNOP reports the slot is
// an architectural no-op.
type Row struct {
	Name     string
	Mode     Mode
	Upper    TranslateFn
	Lower    TranslateFn
	LowerNOP func(w insts.Word) bool
}

// opScratch is the per-instruction translation metadata, reset by every
// envelope entry.
type opScratch struct {
	qWork    dynarec.Scratch
	flagWork dynarec.Scratch
	intWork  dynarec.Scratch

	statusProducer bool
}

// Translator is the macro-mode recompiler. It is driven synchronously by
// the CPU dispatcher, one guest instruction per call, and emits host steps
// into the dynarec's shared code buffer as a side effect.
type Translator struct {
	code   *dynarec.CodeBuffer
	ra     *dynarec.RegAlloc
	cycles *dynarec.CycleCounter
	branch BranchSink
	cfg    *SyncConfig

	inMacro bool
	cur     opScratch
	unimpl  uint64
}

// NewTranslator creates a translator over the dynarec's services. A nil
// config uses the defaults.
func NewTranslator(
	code *dynarec.CodeBuffer,
	ra *dynarec.RegAlloc,
	cycles *dynarec.CycleCounter,
	branch BranchSink,
	cfg *SyncConfig,
) *Translator {
	if cfg == nil {
		cfg = DefaultSyncConfig()
	}
	return &Translator{
		code:   code,
		ra:     ra,
		cycles: cycles,
		branch: branch,
		cfg:    cfg,
	}
}

// Translate translates one COP2 instruction word through the dispatch
// tables.
func (tr *Translator) Translate(w insts.Word) {
	primaryTable[w.Rs()](tr, w)
}

// InMacro reports whether the translator is inside an instruction envelope.
func (tr *Translator) InMacro() bool {
	return tr.inMacro
}

// Unimplemented returns the count of guest words that hit the no-op
// fallback handler.
func (tr *Translator) Unimplemented() uint64 {
	return tr.unimpl
}

// Config returns the active sync configuration.
func (tr *Translator) Config() *SyncConfig {
	return tr.cfg
}

// TranslateRow runs one opcode row: the envelope around the slot
// translators, or the bare transfer translator for register-transfer rows,
// which sequence their own interlock.
func (tr *Translator) TranslateRow(row Row, w insts.Word) {
	if row.Mode.Has(ModeRegisterTransfer) {
		row.Upper(tr, w)
		return
	}

	tr.beginOp(row.Mode)
	row.Upper(tr, w)
	if row.Mode.Has(ModeDualIssue) && row.Lower != nil {
		if row.LowerNOP == nil || !row.LowerNOP(w) {
			row.Lower(tr, w)
		}
	}
	tr.endOp(row.Mode)
}

// beginOp opens the instruction envelope: flush previously buffered
// emission work so the host code stream and guest state agree at the
// boundary, reset the per-instruction metadata and allocator, then emit the
// flag/Q plumbing the descriptor asks for.
func (tr *Translator) beginOp(m Mode) {
	tr.inMacro = true
	tr.cur = opScratch{}
	tr.code.Flush()
	tr.ra.Reset()

	if m&(ModeReadsQ|ModeWritesQ) != 0 {
		tr.cur.qWork = tr.ra.Bind(dynarec.Operand{Kind: dynarec.KindQ})
	}
	if m.Has(ModeReadsQ) {
		q := tr.cur.qWork
		tr.code.Emit(func(h *dynarec.Host) {
			h.Scratch[q][0] = h.VU0.ReadVI(insts.RegQ)
		})
	}

	if m.Has(ModeUpdatesStatusMac) {
		tr.cur.statusProducer = true
		f := tr.ra.Bind(dynarec.Operand{Kind: dynarec.KindFlags})
		tr.cur.flagWork = f
		// Snapshot the previous producer's result in denormalized form.
		// It stays the externally visible value until endOp commits; the
		// body only builds the new value in the working register. Ops
		// that leave the mac flags alone (the Q-pipeline ones) commit
		// the snapshot back unchanged.
		tr.code.Emit(func(h *dynarec.Host) {
			h.Scratch[f][0] = h.VU0.Flags.Denormalize()
			h.Scratch[f][1] = h.VU0.Flags.MacScalar()
		})
	}
}

// endOp closes the envelope: store the working Q value back, normalize and
// commit the newly produced flags, re-broadcast them so both
// representations agree, and retire every register bound during the body.
func (tr *Translator) endOp(m Mode) {
	if m.Has(ModeWritesQ) {
		q := tr.cur.qWork
		tr.code.Emit(func(h *dynarec.Host) {
			h.VU0.WriteVI(insts.RegQ, h.Scratch[q][0])
		})
	}

	if m.Has(ModeUpdatesStatusMac) {
		f := tr.cur.flagWork
		tr.code.Emit(func(h *dynarec.Host) {
			scalar := vu.Normalize(h.Scratch[f][0])
			h.VU0.Flags.CommitStatus(scalar)
			h.VU0.Flags.CommitMac(h.Scratch[f][1])
		})
	}

	tr.ra.RetireAll()
	tr.inMacro = false
}
