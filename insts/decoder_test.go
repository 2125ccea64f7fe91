package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/hazardsim/insts"
)

var _ = Describe("Decoder", func() {
	var decoder *insts.Decoder

	BeforeEach(func() {
		decoder = insts.NewDecoder()
	})

	Describe("R-format", func() {
		// add $3, $1, $2 -> 0x00221820
		It("should decode ADD", func() {
			inst := decoder.Decode(0x00221820)

			Expect(inst.Op).To(Equal(insts.OpADD))
			Expect(inst.Format).To(Equal(insts.FormatR))
			Expect(inst.Class).To(Equal(insts.ClassArithmetic))
			Expect(inst.Rs).To(Equal(uint8(1)))
			Expect(inst.Rt).To(Equal(uint8(2)))
			Expect(inst.Rd).To(Equal(uint8(3)))
			Expect(inst.Text).To(Equal("add\t$3, $1, $2"))
		})

		// srl $3, $2, 4 -> 0x00021902
		It("should decode SRL with its shift amount", func() {
			inst := decoder.Decode(0x00021902)

			Expect(inst.Op).To(Equal(insts.OpSRL))
			Expect(inst.Rs).To(Equal(insts.NoReg))
			Expect(inst.Rt).To(Equal(uint8(2)))
			Expect(inst.Rd).To(Equal(uint8(3)))
			Expect(inst.Imm).To(Equal(int32(4)))
			Expect(inst.Text).To(Equal("srl\t$3, $2, 4"))
		})

		// mult $1, $2 -> 0x00220018
		It("should decode MULT without a destination", func() {
			inst := decoder.Decode(0x00220018)

			Expect(inst.Op).To(Equal(insts.OpMULT))
			Expect(inst.Rd).To(Equal(insts.NoReg))
			Expect(inst.Text).To(Equal("mult\t$1, $2"))
		})

		// mfhi $4 -> 0x00002010
		It("should decode MFHI", func() {
			inst := decoder.Decode(0x00002010)

			Expect(inst.Op).To(Equal(insts.OpMFHI))
			Expect(inst.Rd).To(Equal(uint8(4)))
			Expect(inst.Text).To(Equal("mfhi\t$4"))
		})
	})

	Describe("I-format", func() {
		// addi $8, $9, 5 -> 0x21280005
		It("should decode ADDI", func() {
			inst := decoder.Decode(0x21280005)

			Expect(inst.Op).To(Equal(insts.OpADDI))
			Expect(inst.Rs).To(Equal(uint8(9)))
			Expect(inst.Rt).To(Equal(uint8(8)))
			Expect(inst.Rd).To(Equal(insts.NoReg))
			Expect(inst.Imm).To(Equal(int32(5)))
			Expect(inst.Text).To(Equal("addi\t$8, $9, 5"))
		})

		// lw $8, 4($9) -> 0x8D280004
		It("should decode LW", func() {
			inst := decoder.Decode(0x8D280004)

			Expect(inst.Op).To(Equal(insts.OpLW))
			Expect(inst.Class).To(Equal(insts.ClassMemory))
			Expect(inst.Text).To(Equal("lw\t$8, 4($9)"))
		})

		// sw $8, -4($9) -> 0xAD28FFFC
		It("should sign-extend the SW offset", func() {
			inst := decoder.Decode(0xAD28FFFC)

			Expect(inst.Op).To(Equal(insts.OpSW))
			Expect(inst.Imm).To(Equal(int32(-4)))
			Expect(inst.Text).To(Equal("sw\t$8, -4($9)"))
		})

		// beq $1, $2, 3 -> 0x10220003
		It("should decode BEQ", func() {
			inst := decoder.Decode(0x10220003)

			Expect(inst.Op).To(Equal(insts.OpBEQ))
			Expect(inst.Class).To(Equal(insts.ClassControl))
			Expect(inst.Imm).To(Equal(int32(3)))
		})
	})

	Describe("J-format", func() {
		// j 12 -> 0x0800000C
		It("should decode J", func() {
			inst := decoder.Decode(0x0800000C)

			Expect(inst.Op).To(Equal(insts.OpJ))
			Expect(inst.Format).To(Equal(insts.FormatJ))
			Expect(inst.Imm).To(Equal(int32(12)))
			Expect(inst.Text).To(Equal("j\t12"))
		})
	})

	Describe("Unsupported words", func() {
		It("should decode to OpUnknown", func() {
			inst := decoder.Decode(0xFC000000)
			Expect(inst.Op).To(Equal(insts.OpUnknown))
			Expect(inst.Valid()).To(BeFalse())
		})

		It("should reject an unknown funct field", func() {
			inst := decoder.Decode(0x0022183F)
			Expect(inst.Op).To(Equal(insts.OpUnknown))
		})
	})

	Describe("DecodeLine", func() {
		It("should decode a 32-bit binary string", func() {
			inst, err := decoder.DecodeLine("00000000001000100001100000100000\r")
			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Op).To(Equal(insts.OpADD))
		})

		It("should reject short lines", func() {
			_, err := decoder.DecodeLine("0101")
			Expect(err).To(HaveOccurred())
		})

		It("should reject non-binary characters", func() {
			_, err := decoder.DecodeLine("0000000000100010000110000010000x")
			Expect(err).To(HaveOccurred())
		})

		It("should reject unsupported instructions", func() {
			_, err := decoder.DecodeLine("11111100000000000000000000000000")
			Expect(err).To(MatchError(ContainSubstring("unsupported")))
		})
	})

	Describe("Encode", func() {
		It("should invert Decode", func() {
			for _, word := range []uint32{
				0x00221820, 0x21280005, 0x8D280004, 0xAD28FFFC,
				0x10220003, 0x0800000C, 0x00021902, 0x00220018, 0x00002010,
			} {
				inst := decoder.Decode(word)
				Expect(insts.Encode(inst)).To(Equal(word), inst.Text)
			}
		})

		It("should reject out-of-range immediates", func() {
			inst := &insts.Instruction{Op: insts.OpADDI, Rs: 1, Rt: 2, Imm: 70000}
			_, err := insts.Encode(inst)
			Expect(err).To(HaveOccurred())
		})

		It("should produce a .mach line", func() {
			inst := decoder.Decode(0x00221820)
			Expect(insts.EncodeBinary(inst)).To(Equal("00000000001000100001100000100000"))
		})
	})
})
