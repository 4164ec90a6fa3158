// Package macro implements the VU0 macro-mode instruction recompiler: the
// per-instruction translation envelope, the COP2 opcode dispatch tables, the
// inter-core interlock protocol, and the branch and register-transfer
// translators.
package macro

import "fmt"

// Mode is the per-opcode mode descriptor: an immutable bitmask fixed at
// table-definition time that tells the envelope which flag and Q-register
// plumbing an instruction needs.
type Mode uint8

// Mode descriptor flags.
const (
	// ModeReadsQ marks instructions that read the pipelined Q register.
	ModeReadsQ Mode = 1 << iota
	// ModeWritesQ marks instructions that write the pipelined Q register.
	ModeWritesQ
	// ModeDualIssue marks instructions translating as an upper/lower slot
	// pair under one envelope.
	ModeDualIssue
	// ModeClip marks the clip-test instruction.
	ModeClip
	// ModeUpdatesStatusMac marks instructions that produce status and mac
	// flags.
	ModeUpdatesStatusMac
	// ModeRegisterTransfer marks transfers between the main CPU's and the
	// coprocessor's register files. Transfers sequence their own interlock
	// and bypass the arithmetic envelope.
	ModeRegisterTransfer
)

// Has reports whether all bits of f are set.
func (m Mode) Has(f Mode) bool {
	return m&f == f
}

// validate rejects descriptor combinations no table entry may carry. These
// are table-construction errors: they panic at init, never at translation
// time.
func (m Mode) validate() error {
	if m.Has(ModeClip) && m&(ModeDualIssue|ModeUpdatesStatusMac) != 0 {
		return fmt.Errorf("mode %06b: clip test cannot combine with dual issue or status/mac production", m)
	}
	if m.Has(ModeRegisterTransfer) && m != ModeRegisterTransfer {
		return fmt.Errorf("mode %06b: register transfer excludes all other mode bits", m)
	}
	return nil
}
