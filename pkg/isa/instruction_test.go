// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

package isa_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/lassandro/lc3vm/pkg/isa"
)

var _ = Describe("Opcode", func() {
	It("should take the opcode from the high four bits", func() {
		Expect(isa.OpcodeOf(0x1EAA)).To(Equal(isa.OP_ADD))
		Expect(isa.OpcodeOf(0xF025)).To(Equal(isa.OP_TRAP))
		Expect(isa.OpcodeOf(0x0000)).To(Equal(isa.OP_BR))
		Expect(isa.OpcodeOf(0xD000)).To(Equal(isa.OP_RES))
	})

	It("should name every opcode", func() {
		for op := 0; op < 16; op++ {
			name := isa.Opcode(op).String()
			Expect(name).NotTo(BeEmpty())

			back, ok := isa.LookupOpcode(name)
			Expect(ok).To(BeTrue())
			Expect(back).To(Equal(isa.Opcode(op)))
		}
	})

	It("should reject unknown names", func() {
		_, ok := isa.LookupOpcode("MUL")
		Expect(ok).To(BeFalse())
	})

	It("should only mark RTI and RES as not executable", func() {
		for op := 0; op < 16; op++ {
			code := isa.Opcode(op)
			Expect(code.Executable()).To(
				Equal(code != isa.OP_RTI && code != isa.OP_RES),
			)
		}
	})
})

var _ = Describe("Decode", func() {
	It("should decode immediate ADD", func() {
		// 0001 111 111 1 01010
		Expect(isa.Decode(0x1FEA)).To(Equal(isa.Instruction{
			Opcode: isa.OP_ADD,
			DR:     7,
			SR1:    7,
			Mode:   1,
			Imm5:   0x0A,
		}))
	})

	It("should decode register AND", func() {
		// 0101 010 011 0 00 101
		Expect(isa.Decode(0x54C5)).To(Equal(isa.Instruction{
			Opcode: isa.OP_AND,
			DR:     2,
			SR1:    3,
			SR2:    5,
		}))
	})

	It("should decode BR", func() {
		// 0000 010 001110101
		Expect(isa.Decode(0x0475)).To(Equal(isa.Instruction{
			Opcode:    isa.OP_BR,
			Cond:      0x2,
			PCOffset9: 0x75,
		}))
	})

	It("should decode LDI", func() {
		// 1010 011 010111011
		Expect(isa.Decode(0xA6BB)).To(Equal(isa.Instruction{
			Opcode:    isa.OP_LDI,
			DR:        3,
			PCOffset9: 0xBB,
		}))
	})

	It("should decode ST into the source register", func() {
		// 0011 101 111111110
		Expect(isa.Decode(0x3BFE)).To(Equal(isa.Instruction{
			Opcode:    isa.OP_ST,
			SR1:       5,
			PCOffset9: 0x1FE,
		}))
	})

	It("should decode both JSR forms", func() {
		// 0100 1 11111111111
		Expect(isa.Decode(0x4FFF)).To(Equal(isa.Instruction{
			Opcode:     isa.OP_JSR,
			Mode:       1,
			PCOffset11: 0x7FF,
		}))

		// 0100 0 00 010 000000
		Expect(isa.Decode(0x4080)).To(Equal(isa.Instruction{
			Opcode: isa.OP_JSR,
			BaseR:  2,
		}))
	})

	It("should decode LDR and STR", func() {
		// 0110 001 110 100000
		Expect(isa.Decode(0x63A0)).To(Equal(isa.Instruction{
			Opcode:  isa.OP_LDR,
			DR:      1,
			BaseR:   6,
			Offset6: 0x20,
		}))

		// 0111 001 110 000001
		Expect(isa.Decode(0x7381)).To(Equal(isa.Instruction{
			Opcode:  isa.OP_STR,
			SR1:     1,
			BaseR:   6,
			Offset6: 0x01,
		}))
	})

	It("should ignore the low bits of NOT", func() {
		Expect(isa.Decode(0x967F)).To(Equal(isa.Decode(0x9640)))
		Expect(isa.Decode(0x967F)).To(Equal(isa.Instruction{
			Opcode: isa.OP_NOT,
			DR:     3,
			SR1:    1,
		}))
	})

	It("should decode JMP and TRAP", func() {
		Expect(isa.Decode(0xC1C0)).To(Equal(isa.Instruction{
			Opcode: isa.OP_JMP,
			BaseR:  7,
		}))
		Expect(isa.Decode(0xF025)).To(Equal(isa.Instruction{
			Opcode:   isa.OP_TRAP,
			TrapVect: 0x25,
		}))
	})

	It("should decode RTI and RES without operands", func() {
		Expect(isa.Decode(0x8FFF)).To(Equal(isa.Instruction{Opcode: isa.OP_RTI}))
		Expect(isa.Decode(0xDABC)).To(Equal(isa.Instruction{Opcode: isa.OP_RES}))
	})
})

var _ = Describe("Encode", func() {
	It("should round trip representative words", func() {
		words := []uint16{
			0x1EAA, 0x1FEA, 0x1042, 0x5020, 0x54C5, 0x5FFF,
			0x0475, 0x0E00, 0x01FF,
			0x2C02, 0x3BFE, 0xA6BB, 0xB1FF, 0xE1F0,
			0x4FFF, 0x4800, 0x4080, 0x41C0,
			0x63A0, 0x7381, 0x6FFF,
			0x965F, 0x901F, 0x9FDF,
			0xC1C0, 0xC080,
			0xF020, 0xF021, 0xF022, 0xF023, 0xF024, 0xF025,
		}

		for _, word := range words {
			Expect(isa.Decode(word).Encode()).To(
				Equal(word), "word %#04x", word,
			)
		}
	})

	It("should round trip every word of fully specified formats", func() {
		ops := []isa.Opcode{
			isa.OP_BR, isa.OP_LD, isa.OP_ST, isa.OP_LDI, isa.OP_STI,
			isa.OP_LEA, isa.OP_LDR, isa.OP_STR,
		}

		for _, op := range ops {
			for low := uint16(0); low < 0x1000; low++ {
				word := uint16(op)<<12 | low
				if isa.Decode(word).Encode() != word {
					Fail("round trip failed for word " + isa.Opcode(op).String())
				}
			}
		}
	})

	It("should round trip every immediate ADD and AND", func() {
		for _, op := range []isa.Opcode{isa.OP_ADD, isa.OP_AND} {
			for low := uint16(0); low < 0x1000; low++ {
				if low&0x20 == 0 {
					continue
				}

				word := uint16(op)<<12 | low
				Expect(isa.Decode(word).Encode()).To(Equal(word))
			}
		}
	})

	It("should be stable after one normalisation for every word", func() {
		for word := 0; word <= 0xFFFF; word++ {
			decoded := isa.Decode(uint16(word))
			if isa.Decode(decoded.Encode()) != decoded {
				Fail("decode/encode not stable")
			}
		}
	})

	It("should mask oversized fields", func() {
		in := isa.Instruction{Opcode: isa.OP_TRAP, TrapVect: 0x125}
		Expect(in.Encode()).To(Equal(uint16(0xF025)))
	})

	It("should encode NOT with its fixed low bits", func() {
		in := isa.Instruction{Opcode: isa.OP_NOT, DR: 3, SR1: 1}
		Expect(in.Encode()).To(Equal(uint16(0x965F)))
	})

	It("should round trip every canonical NOT", func() {
		for regs := uint16(0); regs < 0x40; regs++ {
			word := uint16(isa.OP_NOT)<<12 | regs<<6 | 0x1F
			Expect(isa.Decode(word).Encode()).To(
				Equal(word), "word %#04x", word,
			)
		}
	})
})
