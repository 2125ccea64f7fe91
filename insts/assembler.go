package insts

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// SyntaxError reports the first line of a listing that could not be turned
// into an instruction.
type SyntaxError struct {
	Line int
	Text string
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Msg, e.Text)
}

// Assembler parses MIPS assembly text into instructions.
type Assembler struct{}

// NewAssembler creates a new assembler.
func NewAssembler() *Assembler {
	return &Assembler{}
}

type sourceLine struct {
	num  int
	text string
}

// Assemble parses src. It returns every instruction before the first
// malformed line; when such a line exists the error is a *SyntaxError.
//
// Labels ("loop:") may precede an instruction on the same line or stand on
// their own. J takes an absolute instruction index and BEQ an offset from
// the following instruction; both accept a label instead.
func (a *Assembler) Assemble(r io.Reader) ([]*Instruction, error) {
	lines, labels, err := a.scan(r)
	if err != nil {
		return nil, err
	}

	prog := make([]*Instruction, 0, len(lines))
	for idx, line := range lines {
		inst, err := a.parseInstruction(line.text, idx, labels)
		if err != nil {
			return prog, &SyntaxError{Line: line.num, Text: line.text, Msg: err.Error()}
		}
		prog = append(prog, inst)
	}

	return prog, nil
}

// AssembleString is Assemble over a string.
func (a *Assembler) AssembleString(src string) ([]*Instruction, error) {
	return a.Assemble(strings.NewReader(src))
}

// scan strips comments, records label positions and returns the remaining
// instruction lines.
func (a *Assembler) scan(r io.Reader) ([]sourceLine, map[string]int, error) {
	var lines []sourceLine
	labels := make(map[string]int)

	scanner := bufio.NewScanner(r)
	num := 0
	for scanner.Scan() {
		num++
		text := scanner.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		text = strings.TrimSpace(text)

		for {
			colon := strings.IndexByte(text, ':')
			if colon < 0 {
				break
			}
			label := strings.TrimSpace(text[:colon])
			if label == "" || strings.ContainsAny(label, " \t$,") {
				break
			}
			if _, dup := labels[label]; !dup {
				labels[label] = len(lines)
			}
			text = strings.TrimSpace(text[colon+1:])
		}

		if text != "" {
			lines = append(lines, sourceLine{num: num, text: text})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read assembly: %w", err)
	}

	return lines, labels, nil
}

func (a *Assembler) parseInstruction(text string, idx int, labels map[string]int) (*Instruction, error) {
	mnemonic, rest := text, ""
	if sp := strings.IndexAny(text, " \t"); sp >= 0 {
		mnemonic, rest = text[:sp], text[sp+1:]
	}

	op := LookupMnemonic(mnemonic)
	if op == OpUnknown {
		return nil, fmt.Errorf("unsupported instruction %q", mnemonic)
	}
	info := Info(op)

	operands := splitOperands(rest)
	if info.Class == ClassMemory {
		operands = expandMemOperand(operands)
	}
	if len(operands) != info.NumOperands {
		return nil, fmt.Errorf("%s expects %d operands, got %d", info.Name, info.NumOperands, len(operands))
	}

	inst := &Instruction{
		Op:     op,
		Format: info.Format,
		Class:  info.Class,
		Rs:     NoReg,
		Rt:     NoReg,
		Rd:     NoReg,
	}

	var err error
	for pos, operand := range operands {
		switch pos {
		case info.RsPos:
			inst.Rs, err = ParseRegister(operand)
		case info.RtPos:
			inst.Rt, err = ParseRegister(operand)
		case info.RdPos:
			inst.Rd, err = ParseRegister(operand)
		case info.ImmPos:
			err = a.parseImmediate(inst, operand, idx, labels)
		}
		if err != nil {
			return nil, err
		}
	}

	inst.Encoding, err = Encode(inst)
	if err != nil {
		return nil, err
	}
	inst.Text = Disassemble(inst)

	return inst, nil
}

func (a *Assembler) parseImmediate(inst *Instruction, operand string, idx int, labels map[string]int) error {
	if v, err := strconv.ParseInt(operand, 0, 32); err == nil {
		inst.Imm = int32(v)
		return nil
	}

	if !Info(inst.Op).ImmLabel {
		return fmt.Errorf("invalid immediate %q", operand)
	}

	target, ok := labels[operand]
	if !ok {
		return fmt.Errorf("undefined label %q", operand)
	}

	inst.Label = operand
	if inst.Op == OpBEQ {
		inst.Imm = int32(target - (idx + 1))
	} else {
		inst.Imm = int32(target)
	}

	return nil
}

func splitOperands(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// expandMemOperand turns ["$8", "4($9)"] into ["$8", "4", "$9"].
func expandMemOperand(operands []string) []string {
	if len(operands) != 2 {
		return operands
	}

	m := operands[1]
	open := strings.IndexByte(m, '(')
	if open < 0 || !strings.HasSuffix(m, ")") {
		return operands
	}

	offset := strings.TrimSpace(m[:open])
	if offset == "" {
		offset = "0"
	}
	base := strings.TrimSpace(m[open+1 : len(m)-1])

	return []string{operands[0], offset, base}
}
