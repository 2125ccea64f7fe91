// Package loader provides program loading for the hazard simulator. It
// reads MIPS assembly listings, machine-code listings and MIPS32 ELF
// executables into a normalized instruction stream.
package loader

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sarchlab/hazardsim/insts"
)

// ErrUnsupportedFormat is returned for a file whose extension names no
// known program format.
var ErrUnsupportedFormat = errors.New("unsupported program format")

// Format is a program file format.
type Format int

// Program formats.
const (
	// FormatAsm is an assembly listing (.asm).
	FormatAsm Format = iota
	// FormatMach is one 32-character binary word per line (.mach).
	FormatMach
	// FormatELF is a MIPS32 ELF executable (.elf).
	FormatELF
)

// String returns the file extension of the format, without the dot.
func (f Format) String() string {
	switch f {
	case FormatAsm:
		return "asm"
	case FormatMach:
		return "mach"
	case FormatELF:
		return "elf"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "asm", "s":
		return FormatAsm, nil
	case "mach":
		return FormatMach, nil
	case "elf":
		return FormatELF, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, path)
	}
}

// InvalidLine describes where loading stopped.
type InvalidLine struct {
	// Line is the 1-based line number, or the 1-based word number for ELF.
	Line   int
	Text   string
	Reason string
}

func (l *InvalidLine) String() string {
	return fmt.Sprintf("line %d: %s", l.Line, l.Reason)
}

// Program is a loaded instruction stream.
type Program struct {
	Path   string
	Format Format
	// Instructions is the valid prefix of the input.
	Instructions []*insts.Instruction
	// Invalid is the first line that could not be used, or nil if the
	// whole input was valid.
	Invalid *InvalidLine
	// EntryPoint is the ELF entry address. It is zero for text formats.
	EntryPoint uint64
}

// Complete reports whether the whole input was consumed.
func (p *Program) Complete() bool {
	return p.Invalid == nil
}

// Load reads a program file, choosing the format from its extension.
func Load(path string) (*Program, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open program file: %w", err)
	}
	defer func() { _ = f.Close() }()

	prog, err := LoadReader(f, format)
	if err != nil {
		return nil, err
	}
	prog.Path = path
	return prog, nil
}

// LoadReader reads a program in the given format.
func LoadReader(r io.Reader, format Format) (*Program, error) {
	switch format {
	case FormatAsm:
		return loadAsm(r)
	case FormatMach:
		return loadMach(r)
	case FormatELF:
		ra, ok := r.(io.ReaderAt)
		if !ok {
			data, err := io.ReadAll(r)
			if err != nil {
				return nil, fmt.Errorf("failed to read ELF file: %w", err)
			}
			ra = bytes.NewReader(data)
		}
		return loadELF(ra)
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, format)
	}
}

func loadAsm(r io.Reader) (*Program, error) {
	list, err := insts.NewAssembler().Assemble(r)
	prog := &Program{Format: FormatAsm, Instructions: list}

	var syntaxErr *insts.SyntaxError
	switch {
	case err == nil:
	case errors.As(err, &syntaxErr):
		prog.Invalid = &InvalidLine{
			Line:   syntaxErr.Line,
			Text:   syntaxErr.Text,
			Reason: syntaxErr.Msg,
		}
	default:
		return nil, err
	}

	return prog, nil
}

func loadMach(r io.Reader) (*Program, error) {
	prog := &Program{Format: FormatMach}
	decoder := insts.NewDecoder()

	scanner := bufio.NewScanner(r)
	num := 0
	for scanner.Scan() {
		num++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		inst, err := decoder.DecodeLine(line)
		if err != nil {
			prog.Invalid = &InvalidLine{Line: num, Text: line, Reason: err.Error()}
			break
		}
		prog.Instructions = append(prog.Instructions, inst)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read machine code: %w", err)
	}

	return prog, nil
}
