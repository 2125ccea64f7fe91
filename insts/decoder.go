package insts

import (
	"fmt"
	"strings"
)

// WordBits is the width of a machine instruction.
const WordBits = 32

// addrBits is the width of the J-format target field.
const addrBits = 26

// Decoder decodes MIPS machine code into instructions.
type Decoder struct{}

// NewDecoder creates a new MIPS instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes a 32-bit MIPS instruction word. Unsupported words decode to
// an instruction with Op == OpUnknown.
func (d *Decoder) Decode(word uint32) *Instruction {
	opField := uint8(word >> 26) // bits [31:26]
	funct := uint8(word & 0x3F)  // bits [5:0]

	op := lookupEncoding(opField, funct)
	if op == OpUnknown {
		return &Instruction{Op: OpUnknown, Rs: NoReg, Rt: NoReg, Rd: NoReg, Encoding: word}
	}

	info := Info(op)
	inst := &Instruction{
		Op:       op,
		Format:   info.Format,
		Class:    info.Class,
		Rs:       NoReg,
		Rt:       NoReg,
		Rd:       NoReg,
		Encoding: word,
	}

	switch info.Format {
	case FormatR:
		d.decodeRType(word, inst)
	case FormatI:
		d.decodeIType(word, inst)
	case FormatJ:
		d.decodeJType(word, inst)
	}

	inst.Text = Disassemble(inst)
	return inst
}

// decodeRType decodes op | rs | rt | rd | shamt | funct.
func (d *Decoder) decodeRType(word uint32, inst *Instruction) {
	info := Info(inst.Op)

	rs := uint8((word >> 21) & 0x1F) // bits [25:21]
	rt := uint8((word >> 16) & 0x1F) // bits [20:16]
	rd := uint8((word >> 11) & 0x1F) // bits [15:11]
	shamt := (word >> 6) & 0x1F      // bits [10:6]

	if info.RsPos >= 0 {
		inst.Rs = rs
	}
	if info.RtPos >= 0 {
		inst.Rt = rt
	}
	if info.RdPos >= 0 {
		inst.Rd = rd
	}
	if info.ImmPos >= 0 {
		inst.Imm = int32(shamt)
	}
}

// decodeIType decodes op | rs | rt | imm16. The immediate is sign-extended.
func (d *Decoder) decodeIType(word uint32, inst *Instruction) {
	inst.Rs = uint8((word >> 21) & 0x1F)
	inst.Rt = uint8((word >> 16) & 0x1F)
	inst.Imm = int32(int16(word & 0xFFFF))
}

// decodeJType decodes op | addr26.
func (d *Decoder) decodeJType(word uint32, inst *Instruction) {
	inst.Imm = int32(word & 0x3FFFFFF)
}

// DecodeLine decodes one line of a machine-code listing: exactly 32
// characters, each '0' or '1'. Surrounding whitespace is ignored.
func (d *Decoder) DecodeLine(line string) (*Instruction, error) {
	line = strings.TrimSpace(line)
	if len(line) != WordBits {
		return nil, fmt.Errorf("expected %d bits, got %d", WordBits, len(line))
	}

	var word uint32
	for _, c := range line {
		switch c {
		case '0':
			word <<= 1
		case '1':
			word = word<<1 | 1
		default:
			return nil, fmt.Errorf("invalid bit %q", c)
		}
	}

	inst := d.Decode(word)
	if !inst.Valid() {
		return nil, fmt.Errorf("unsupported instruction %032b", word)
	}

	return inst, nil
}
