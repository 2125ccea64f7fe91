package insts

import (
	"fmt"
	"strings"
)

// Instruction is a decoded MIPS instruction. It is not modified after the
// decoder or assembler produces it.
type Instruction struct {
	Op     Op     // Operation code
	Format Format // Encoding format
	Class  Class  // Datapath class

	// Register slots. Slots the opcode does not use hold NoReg.
	Rs uint8
	Rt uint8
	Rd uint8

	// Imm is the sign-extended immediate, the shift amount for SRL/SRA,
	// the target instruction index for J and the offset for BEQ.
	Imm int32

	// Label is the label an assembly operand referred to, if any.
	Label string

	// Encoding is the 32-bit machine word.
	Encoding uint32

	// Text is the display form, e.g. "add\t$3, $1, $2".
	Text string
}

// Valid reports whether the instruction holds a supported opcode.
func (i *Instruction) Valid() bool {
	return i != nil && i.Op != OpUnknown
}

// Reg returns the register held in the given slot, or NoReg.
func (i *Instruction) Reg(f Field) uint8 {
	switch f {
	case FieldRs:
		return i.Rs
	case FieldRt:
		return i.Rt
	case FieldRd:
		return i.Rd
	default:
		return NoReg
	}
}

// SourceRegs returns the distinct registers the instruction reads, in
// operand-slot order.
func (i *Instruction) SourceRegs() []uint8 {
	info := Info(i.Op)
	regs := make([]uint8, 0, len(info.Sources))
	for _, f := range info.Sources {
		r := i.Reg(f)
		if r == NoReg || containsReg(regs, r) {
			continue
		}
		regs = append(regs, r)
	}
	return regs
}

// DestReg returns the register the instruction writes, if any.
func (i *Instruction) DestReg() (uint8, bool) {
	r := i.Reg(Info(i.Op).Dest)
	return r, r != NoReg
}

// String returns the display text.
func (i *Instruction) String() string {
	if i.Text != "" {
		return i.Text
	}
	return Disassemble(i)
}

func containsReg(regs []uint8, r uint8) bool {
	for _, x := range regs {
		if x == r {
			return true
		}
	}
	return false
}

// Disassemble builds the display text from the instruction fields, placing
// operands in the positions given by the opcode table.
func Disassemble(i *Instruction) string {
	info := Info(i.Op)
	if i.Op == OpUnknown {
		return info.Name
	}

	var sb strings.Builder
	sb.WriteString(info.Name)
	sb.WriteString("\t")

	imm := fmt.Sprintf("%d", i.Imm)
	if i.Label != "" {
		imm = i.Label
	}

	if info.Class == ClassMemory {
		// rt, imm($rs)
		fmt.Fprintf(&sb, "$%d, %s($%d)", i.Rt, imm, i.Rs)
		return sb.String()
	}

	for pos := 0; pos < info.NumOperands; pos++ {
		switch pos {
		case info.RsPos:
			fmt.Fprintf(&sb, "$%d", i.Rs)
		case info.RtPos:
			fmt.Fprintf(&sb, "$%d", i.Rt)
		case info.RdPos:
			fmt.Fprintf(&sb, "$%d", i.Rd)
		case info.ImmPos:
			sb.WriteString(imm)
		}
		if pos < info.NumOperands-1 {
			sb.WriteString(", ")
		}
	}

	return sb.String()
}
