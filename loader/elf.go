package loader

import (
	"debug/elf"
	"fmt"
	"io"

	"github.com/sarchlab/hazardsim/insts"
)

// loadELF decodes every executable PT_LOAD segment of a MIPS32 ELF file,
// in program header order. Decoding stops at the first unsupported word.
func loadELF(r io.ReaderAt) (*Program, error) {
	f, err := elf.NewFile(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open ELF file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if f.Class != elf.ELFCLASS32 {
		return nil, fmt.Errorf("not a 32-bit ELF file")
	}
	if f.Machine != elf.EM_MIPS {
		return nil, fmt.Errorf("not a MIPS ELF file (machine type: %v)", f.Machine)
	}

	prog := &Program{
		Format:     FormatELF,
		EntryPoint: f.Entry,
	}
	decoder := insts.NewDecoder()
	word := 0

	for _, phdr := range f.Progs {
		if phdr.Type != elf.PT_LOAD || phdr.Flags&elf.PF_X == 0 {
			continue
		}

		data := make([]byte, phdr.Filesz)
		if phdr.Filesz > 0 {
			n, err := phdr.ReadAt(data, 0)
			if err != nil && err != io.EOF {
				return nil, fmt.Errorf("failed to read segment at 0x%x: %w", phdr.Vaddr, err)
			}
			if uint64(n) != phdr.Filesz {
				return nil, fmt.Errorf("short read for segment at 0x%x: got %d bytes, expected %d",
					phdr.Vaddr, n, phdr.Filesz)
			}
		}

		for off := 0; off+4 <= len(data); off += 4 {
			word++
			raw := f.ByteOrder.Uint32(data[off : off+4])
			inst := decoder.Decode(raw)
			if !inst.Valid() {
				prog.Invalid = &InvalidLine{
					Line:   word,
					Text:   fmt.Sprintf("0x%08x", raw),
					Reason: fmt.Sprintf("unsupported instruction at 0x%x", phdr.Vaddr+uint64(off)),
				}
				return prog, nil
			}
			prog.Instructions = append(prog.Instructions, inst)
		}
	}

	return prog, nil
}
