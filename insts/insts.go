// Package insts provides MIPS instruction definitions, metadata and decoding.
//
// This package turns MIPS machine code or assembly text into normalized
// instruction records. It supports:
//   - Arithmetic: ADD, ADDI, SUB, MULT, MFHI, SRL, SRA, SLTI
//   - Memory: LW, SW
//   - Control: J, BEQ
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst := decoder.Decode(0x00221820) // add $3, $1, $2
//	fmt.Printf("Op: %v, Rd: %d, Rs: %d, Rt: %d\n", inst.Op, inst.Rd, inst.Rs, inst.Rt)
//
// An instruction whose Op is OpUnknown marks malformed input or the end of
// a stream. Consumers stop at the first such instruction.
package insts
