// Package insts provides COP2 (VU0 macro mode) instruction word definitions
// and fixed-field extraction.
package insts

import "fmt"

// Word is a 32-bit COP2 guest instruction word.
//
// COP2 instructions share the MIPS encoding: the primary opcode lives in
// bits [31:26], the coprocessor sub-opcode in the rs field. Macro-mode
// arithmetic instructions reuse the remaining fields in VU convention:
// dest mask in bits [24:21], ft/fs/fd in the rt/rd/sa slots.
type Word uint32

// Primary returns the primary opcode, bits [31:26].
func (w Word) Primary() uint8 {
	return uint8((w >> 26) & 0x3F)
}

// Rs returns the coprocessor sub-opcode field, bits [25:21].
// It indexes the top-level COP2 dispatch table.
func (w Word) Rs() uint8 {
	return uint8((w >> 21) & 0x1F)
}

// Rt returns the rt field, bits [20:16]. For transfer instructions this is
// the main CPU GPR; for BC2 branches it selects the condition variant.
func (w Word) Rt() uint8 {
	return uint8((w >> 16) & 0x1F)
}

// Rd returns the rd field, bits [15:11]. For transfer instructions this is
// the VU register being accessed.
func (w Word) Rd() uint8 {
	return uint8((w >> 11) & 0x1F)
}

// Sa returns the sa field, bits [10:6].
func (w Word) Sa() uint8 {
	return uint8((w >> 6) & 0x1F)
}

// Funct returns the function field, bits [5:0]. It indexes the SPECIAL1
// dispatch table.
func (w Word) Funct() uint8 {
	return uint8(w & 0x3F)
}

// Special2Index returns the SPECIAL2 table index. The SPECIAL2 sub-opcode is
// split across the encoding: the low two bits of the word plus bits [10:6].
func (w Word) Special2Index() uint8 {
	return uint8((w & 3) | ((w >> 4) & 0x7C))
}

// Dest returns the destination field mask, bits [24:21], one bit per vector
// lane (x=8, y=4, z=2, w=1).
func (w Word) Dest() uint8 {
	return uint8((w >> 21) & 0xF)
}

// Ft returns the VU ft register, same slot as rt.
func (w Word) Ft() uint8 { return w.Rt() }

// Fs returns the VU fs register, same slot as rd.
func (w Word) Fs() uint8 { return w.Rd() }

// Fd returns the VU fd register, same slot as sa.
func (w Word) Fd() uint8 { return w.Sa() }

// Fsf returns the fs lane selector for DIV/SQRT-class instructions,
// bits [22:21].
func (w Word) Fsf() uint8 {
	return uint8((w >> 21) & 0x3)
}

// Ftf returns the ft lane selector for DIV/SQRT-class instructions,
// bits [24:23].
func (w Word) Ftf() uint8 {
	return uint8((w >> 23) & 0x3)
}

// Imm15 returns the 15-bit immediate of CALLMS, bits [20:6].
func (w Word) Imm15() uint32 {
	return uint32((w >> 6) & 0x7FFF)
}

// Imm5 returns the signed 5-bit immediate of IADDI, taken from the fd slot.
func (w Word) Imm5() int32 {
	v := int32((w >> 6) & 0x1F)
	if v&0x10 != 0 {
		v |= ^int32(0x1F)
	}
	return v
}

// Interlock reports whether the interlock bit (bit 0) is set. It is only
// meaningful on register-transfer instructions, where the low bits are not
// used for operand selection.
func (w Word) Interlock() bool {
	return w&1 != 0
}

// Lane indices within a VU vector register.
const (
	LaneX = 0
	LaneY = 1
	LaneZ = 2
	LaneW = 3
)

// Dest mask bits, matching the encoding's xyzw order.
const (
	DestX = 8
	DestY = 4
	DestZ = 2
	DestW = 1
)

// DestBit returns the dest-mask bit covering the given lane index.
func DestBit(lane int) uint8 {
	return uint8(8 >> lane)
}

// VU control register (VI) indices. VI0-VI15 are the integer registers;
// the rest are named control registers.
const (
	RegStatusFlag = 16
	RegMacFlag    = 17
	RegClipFlag   = 18
	RegR          = 20
	RegI          = 21
	RegQ          = 22
	RegTPC        = 26
	RegCMSAR0     = 27
	RegFBRST      = 28
	RegVPUStat    = 29
	RegCMSAR1     = 31
)

// VPU_STAT bits relevant to the macro recompiler.
const (
	// VPUStatVU0Busy is set while VU0 executes a microprogram block.
	VPUStatVU0Busy = 0x001
	// VPUStatVU1Busy is set while VU1 executes a microprogram block.
	// BC2 branches test this bit through the control-register mirror.
	VPUStatVU1Busy = 0x100
)

// Top-level COP2 sub-opcodes (rs field values).
const (
	SubQMFC2 = 0x01
	SubCFC2  = 0x02
	SubQMTC2 = 0x05
	SubCTC2  = 0x06
	SubBC2   = 0x08
	// SubSpecial1 marks the first of the sixteen rs values (0x10-0x1F)
	// that route to the SPECIAL1 table.
	SubSpecial1 = 0x10
)

// BC2 condition variants (rt field values).
const (
	BC2F  = 0x00
	BC2T  = 0x01
	BC2FL = 0x02
	BC2TL = 0x03
)

// viNames maps named control registers for register dumps.
var viNames = map[uint8]string{
	RegStatusFlag: "STATUS",
	RegMacFlag:    "MAC",
	RegClipFlag:   "CLIP",
	RegR:          "R",
	RegI:          "I",
	RegQ:          "Q",
	RegTPC:        "TPC",
	RegCMSAR0:     "CMSAR0",
	RegFBRST:      "FBRST",
	RegVPUStat:    "VPU_STAT",
	RegCMSAR1:     "CMSAR1",
}

// VIName returns the conventional name of a VU control register.
// Integer registers are named vi0-vi15.
func VIName(idx uint8) string {
	if name, ok := viNames[idx]; ok {
		return name
	}
	return fmt.Sprintf("vi%d", idx)
}
