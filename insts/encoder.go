package insts

import "fmt"

// Encode returns the 32-bit machine word for inst. Labels must already be
// resolved into Imm.
func Encode(inst *Instruction) (uint32, error) {
	if !inst.Valid() {
		return 0, fmt.Errorf("cannot encode unknown instruction")
	}

	info := Info(inst.Op)
	word := uint32(info.OpField) << 26

	switch info.Format {
	case FormatR:
		word |= regField(inst.Rs) << 21
		word |= regField(inst.Rt) << 16
		word |= regField(inst.Rd) << 11
		if info.ImmPos >= 0 {
			if inst.Imm < 0 || inst.Imm > 31 {
				return 0, fmt.Errorf("%s: shift amount %d out of range", info.Name, inst.Imm)
			}
			word |= uint32(inst.Imm) << 6
		}
		word |= uint32(info.Funct)
	case FormatI:
		if inst.Imm < -32768 || inst.Imm > 32767 {
			return 0, fmt.Errorf("%s: immediate %d out of range", info.Name, inst.Imm)
		}
		word |= regField(inst.Rs) << 21
		word |= regField(inst.Rt) << 16
		word |= uint32(uint16(int16(inst.Imm)))
	case FormatJ:
		if inst.Imm < 0 || inst.Imm >= 1<<addrBits {
			return 0, fmt.Errorf("%s: target %d out of range", info.Name, inst.Imm)
		}
		word |= uint32(inst.Imm)
	}

	return word, nil
}

// EncodeBinary returns the machine word as a 32-character bit string, the
// format of a .mach listing.
func EncodeBinary(inst *Instruction) (string, error) {
	word, err := Encode(inst)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%032b", word), nil
}

func regField(r uint8) uint32 {
	if r == NoReg {
		return 0
	}
	return uint32(r) & 0x1F
}
