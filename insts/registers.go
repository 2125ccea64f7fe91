package insts

import (
	"fmt"
	"strconv"
	"strings"
)

// NumRegisters is the number of MIPS general-purpose registers.
const NumRegisters = 32

// NoReg marks a register slot that the instruction does not use.
const NoReg uint8 = 0xFF

var registerNames = [NumRegisters]string{
	"zero", "at", "v0", "v1", "a0", "a1", "a2", "a3",
	"t0", "t1", "t2", "t3", "t4", "t5", "t6", "t7",
	"s0", "s1", "s2", "s3", "s4", "s5", "s6", "s7",
	"t8", "t9", "k0", "k1", "gp", "sp", "fp", "ra",
}

// ParseRegister parses "$8", "$t0" or "$zero" into a register index.
func ParseRegister(s string) (uint8, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "$") {
		return NoReg, fmt.Errorf("register %q must start with '$'", s)
	}

	name := strings.ToLower(s[1:])
	if n, err := strconv.Atoi(name); err == nil {
		if n < 0 || n >= NumRegisters {
			return NoReg, fmt.Errorf("register %q out of range", s)
		}
		return uint8(n), nil
	}

	if name == "s8" {
		return 30, nil
	}
	for i, r := range registerNames {
		if r == name {
			return uint8(i), nil
		}
	}

	return NoReg, fmt.Errorf("unknown register %q", s)
}

// RegisterName returns the conventional name of reg, without the '$'.
func RegisterName(reg uint8) string {
	if int(reg) >= NumRegisters {
		return "?"
	}
	return registerNames[reg]
}
