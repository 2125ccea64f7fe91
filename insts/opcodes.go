package insts

import "strings"

// Op represents a MIPS opcode.
type Op uint8

// Supported opcodes. OpUnknown is the invalid-instruction sentinel.
const (
	OpUnknown Op = iota
	OpADD
	OpADDI
	OpSUB
	OpMULT
	OpMFHI
	OpSRL
	OpSRA
	OpSLTI
	OpLW
	OpSW
	OpJ
	OpBEQ

	numOps
)

// Format represents an instruction encoding format.
type Format uint8

// Instruction formats.
const (
	FormatUnknown Format = iota
	FormatR               // op | rs | rt | rd | shamt | funct
	FormatI               // op | rs | rt | imm16
	FormatJ               // op | addr26
)

// Class groups opcodes by the kind of work they do in the datapath.
type Class uint8

// Instruction classes.
const (
	ClassArithmetic Class = iota
	ClassMemory
	ClassControl
)

// NumClasses is the number of instruction classes.
const NumClasses = 3

// String returns the upper-case class name.
func (c Class) String() string {
	switch c {
	case ClassArithmetic:
		return "ARITHMETIC"
	case ClassMemory:
		return "MEMORY"
	case ClassControl:
		return "CONTROL"
	default:
		return "UNKNOWN"
	}
}

// ParseClass converts a class name to a Class. Matching is case-insensitive
// and accepts the short forms "arith" and "mem".
func ParseClass(s string) (Class, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "arithmetic", "arith", "arithm":
		return ClassArithmetic, true
	case "memory", "mem":
		return ClassMemory, true
	case "control":
		return ClassControl, true
	default:
		return 0, false
	}
}

// Field names a register slot of an instruction.
type Field uint8

// Register slots.
const (
	FieldNone Field = iota
	FieldRs
	FieldRt
	FieldRd
)

// OpcodeInfo is the static metadata for one opcode.
type OpcodeInfo struct {
	Name   string
	Format Format
	Class  Class

	// NumOperands is the operand count in assembly syntax. The *Pos fields
	// give each operand's position there, or -1 when the opcode has no such
	// operand.
	NumOperands int
	RsPos       int
	RtPos       int
	RdPos       int
	ImmPos      int

	// ImmLabel is true when the immediate may be written as a label.
	ImmLabel bool

	// OpField and Funct are the fixed encoding bits. Funct is only
	// meaningful for R-format instructions.
	OpField uint8
	Funct   uint8

	// Sources lists the slots the instruction reads. Dest is the slot it
	// writes, or FieldNone.
	Sources []Field
	Dest    Field
}

var opcodeTable = [numOps]OpcodeInfo{
	OpUnknown: {Name: "unknown", RsPos: -1, RtPos: -1, RdPos: -1, ImmPos: -1},
	OpADD: {
		Name: "add", Format: FormatR, Class: ClassArithmetic,
		NumOperands: 3, RdPos: 0, RsPos: 1, RtPos: 2, ImmPos: -1,
		OpField: 0b000000, Funct: 0b100000,
		Sources: []Field{FieldRs, FieldRt}, Dest: FieldRd,
	},
	OpADDI: {
		Name: "addi", Format: FormatI, Class: ClassArithmetic,
		NumOperands: 3, RtPos: 0, RsPos: 1, ImmPos: 2, RdPos: -1,
		OpField: 0b001000,
		Sources: []Field{FieldRs}, Dest: FieldRt,
	},
	OpSUB: {
		Name: "sub", Format: FormatR, Class: ClassArithmetic,
		NumOperands: 3, RdPos: 0, RsPos: 1, RtPos: 2, ImmPos: -1,
		OpField: 0b000000, Funct: 0b100010,
		Sources: []Field{FieldRs, FieldRt}, Dest: FieldRd,
	},
	// HI/LO are not architectural registers in this model, so MULT has no
	// tracked destination and MFHI no tracked source.
	OpMULT: {
		Name: "mult", Format: FormatR, Class: ClassArithmetic,
		NumOperands: 2, RsPos: 0, RtPos: 1, RdPos: -1, ImmPos: -1,
		OpField: 0b000000, Funct: 0b011000,
		Sources: []Field{FieldRs, FieldRt},
	},
	OpMFHI: {
		Name: "mfhi", Format: FormatR, Class: ClassArithmetic,
		NumOperands: 1, RdPos: 0, RsPos: -1, RtPos: -1, ImmPos: -1,
		OpField: 0b000000, Funct: 0b010000,
		Dest: FieldRd,
	},
	OpSRL: {
		Name: "srl", Format: FormatR, Class: ClassArithmetic,
		NumOperands: 3, RdPos: 0, RtPos: 1, ImmPos: 2, RsPos: -1,
		OpField: 0b000000, Funct: 0b000010,
		Sources: []Field{FieldRt}, Dest: FieldRd,
	},
	OpSRA: {
		Name: "sra", Format: FormatR, Class: ClassArithmetic,
		NumOperands: 3, RdPos: 0, RtPos: 1, ImmPos: 2, RsPos: -1,
		OpField: 0b000000, Funct: 0b000011,
		Sources: []Field{FieldRt}, Dest: FieldRd,
	},
	OpSLTI: {
		Name: "slti", Format: FormatI, Class: ClassArithmetic,
		NumOperands: 3, RtPos: 0, RsPos: 1, ImmPos: 2, RdPos: -1,
		OpField: 0b001010,
		Sources: []Field{FieldRs}, Dest: FieldRt,
	},
	OpLW: {
		Name: "lw", Format: FormatI, Class: ClassMemory,
		NumOperands: 3, RtPos: 0, ImmPos: 1, RsPos: 2, RdPos: -1,
		OpField: 0b100011,
		Sources: []Field{FieldRs}, Dest: FieldRt,
	},
	// The store's rt looks like a destination in the encoding but is the
	// data being stored.
	OpSW: {
		Name: "sw", Format: FormatI, Class: ClassMemory,
		NumOperands: 3, RtPos: 0, ImmPos: 1, RsPos: 2, RdPos: -1,
		OpField: 0b101011,
		Sources: []Field{FieldRs, FieldRt},
	},
	OpJ: {
		Name: "j", Format: FormatJ, Class: ClassControl,
		NumOperands: 1, ImmPos: 0, RsPos: -1, RtPos: -1, RdPos: -1,
		ImmLabel: true,
		OpField:  0b000010,
	},
	OpBEQ: {
		Name: "beq", Format: FormatI, Class: ClassControl,
		NumOperands: 3, RsPos: 0, RtPos: 1, ImmPos: 2, RdPos: -1,
		ImmLabel: true,
		OpField:  0b000100,
		Sources:  []Field{FieldRs, FieldRt},
	},
}

// Info returns the metadata for op. Unknown opcodes get the OpUnknown entry.
func Info(op Op) *OpcodeInfo {
	if op >= numOps {
		op = OpUnknown
	}
	return &opcodeTable[op]
}

// String returns the lower-case mnemonic.
func (o Op) String() string {
	return Info(o).Name
}

// Class returns the instruction class of op.
func (o Op) Class() Class {
	return Info(o).Class
}

// LookupMnemonic returns the opcode with the given mnemonic. Matching is
// case-insensitive.
func LookupMnemonic(name string) Op {
	name = strings.ToLower(name)
	for op := OpADD; op < numOps; op++ {
		if opcodeTable[op].Name == name {
			return op
		}
	}
	return OpUnknown
}

// lookupEncoding returns the opcode for the given op and funct fields.
func lookupEncoding(opField, funct uint8) Op {
	for op := OpADD; op < numOps; op++ {
		info := &opcodeTable[op]
		if info.OpField != opField {
			continue
		}
		if info.Format == FormatR && info.Funct != funct {
			continue
		}
		return op
	}
	return OpUnknown
}
