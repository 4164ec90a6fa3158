// Package vu provides the VU0 architectural state consumed by the macro-mode
// recompiler: vector and control register files, the status/mac/clip flag
// model, and the interface to the micro-mode execution engine.
package vu

// Status flag bits in the packed scalar representation.
// Bits [5:0] are the non-sticky flags, recomputed by every producing
// instruction; bits [11:6] are the sticky counterparts, which persist until
// explicitly cleared by a control-register write.
const (
	StatusZ = 0x001 // zero
	StatusS = 0x002 // sign
	StatusU = 0x004 // underflow
	StatusO = 0x008 // overflow
	StatusI = 0x010 // invalid
	StatusD = 0x020 // divide by zero

	StatusZS = StatusZ << 6
	StatusSS = StatusS << 6
	StatusUS = StatusU << 6
	StatusOS = StatusO << 6
	StatusIS = StatusI << 6
	StatusDS = StatusD << 6

	// StatusNonStickyMask covers the recomputed flag bits.
	StatusNonStickyMask = 0x03F
	// StatusStickyMask covers the sticky flag bits. This is also the only
	// field writable from the main CPU via CTC2.
	StatusStickyMask = 0xFC0
)

// Sticky-bit position in the denormalized working form. Producers OR new
// sticky bits at [21:16] while the non-sticky field stays at [5:0], so a
// flag update is two masked ORs instead of a pack/unpack per instruction.
const denormStickyShift = 16

// Mac flag nibble positions. Each nibble holds one bit per lane using the
// dest-mask weights (x=8, y=4, z=2, w=1).
const (
	MacZeroShift = 0
	MacSignShift = 4
)

// FlagState holds the dual-representation status and mac flags of one
// coprocessor instance.
//
// The scalar form is what the main CPU observes through CFC2; the broadcast
// form is the 4-lane replication consumed by the vector ALU. The two must
// agree at every instruction boundary; only Commit methods write them, so
// they cannot diverge outside the in-translation window.
type FlagState struct {
	statusScalar    uint32
	statusBroadcast [4]uint32
	macScalar       uint32
	macBroadcast    [4]uint32
}

// StatusScalar returns the CPU-visible packed status value.
func (f *FlagState) StatusScalar() uint32 {
	return f.statusScalar
}

// StatusBroadcast returns the 4-lane replicated status value.
func (f *FlagState) StatusBroadcast() [4]uint32 {
	return f.statusBroadcast
}

// MacScalar returns the CPU-visible mac flag value.
func (f *FlagState) MacScalar() uint32 {
	return f.macScalar
}

// MacBroadcast returns the 4-lane replicated mac flag value.
func (f *FlagState) MacBroadcast() [4]uint32 {
	return f.macBroadcast
}

// Denormalize converts the current packed status value into the working
// form used during translation: non-sticky bits at [5:0], sticky bits at
// [21:16]. This snapshot is the previous producer's result and stays the
// externally visible value until the next commit.
func (f *FlagState) Denormalize() uint32 {
	s := f.statusScalar
	return (s & StatusNonStickyMask) |
		(((s & StatusStickyMask) >> 6) << denormStickyShift)
}

// Normalize packs a working-form status value back into the scalar layout.
func Normalize(working uint32) uint32 {
	return (working & StatusNonStickyMask) |
		(((working >> denormStickyShift) & 0x3F) << 6)
}

// CommitStatus installs a new packed status value and re-broadcasts it into
// the vector-lane form so both representations agree.
func (f *FlagState) CommitStatus(scalar uint32) {
	f.statusScalar = scalar
	for i := range f.statusBroadcast {
		f.statusBroadcast[i] = scalar
	}
}

// CommitMac installs a new mac flag value and re-broadcasts it.
func (f *FlagState) CommitMac(scalar uint32) {
	f.macScalar = scalar
	for i := range f.macBroadcast {
		f.macBroadcast[i] = scalar
	}
}

// Reset clears all flags in both representations.
func (f *FlagState) Reset() {
	f.CommitStatus(0)
	f.CommitMac(0)
}

// Consistent reports whether each broadcast lane equals its scalar value.
func (f *FlagState) Consistent() bool {
	for i := range f.statusBroadcast {
		if f.statusBroadcast[i] != f.statusScalar {
			return false
		}
		if f.macBroadcast[i] != f.macScalar {
			return false
		}
	}
	return true
}
