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

package isa

// Instruction is the structured view of a 16-bit word. Only the fields used
// by Opcode are populated; the rest stay zero. Offsets and immediates hold
// the raw, unextended bits of the field.
type Instruction struct {
	Opcode Opcode

	DR  uint16
	SR1 uint16
	SR2 uint16

	// Mode selects imm5 over SR2 for ADD/AND, and PC-relative JSR over JSRR.
	Mode uint16
	Imm5 uint16

	Cond    uint16
	BaseR   uint16
	Offset6 uint16

	TrapVect   uint16
	PCOffset9  uint16
	PCOffset11 uint16
}

// Decode never fails: every 16-bit word maps to some instruction, including
// RTI and RES which are decodable but carry no operands.
func Decode(word uint16) Instruction {
	result := Instruction{Opcode: OpcodeOf(word)}

	switch result.Opcode {
	// BR   |0000    |N|Z|P|PCoffset9         | Conditional branch
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_BR:
		result.Cond = (word >> 9) & 0x7
		result.PCOffset9 = word & 0x1FF

	// ADD  |0001    |DR   |SR1  |0|00 |SR2   | Register  addition
	// ADD  |0001    |DR   |SR1  |1|imm5      | Immediate addition
	// AND  |0101    |DR   |SR1  |0|00 |SR2   | Register  bitwise
	// AND  |0101    |DR   |SR1  |1|imm5      | Immediate bitwise
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_ADD, OP_AND:
		result.DR = (word >> 9) & 0x7
		result.SR1 = (word >> 6) & 0x7
		result.Mode = (word >> 5) & 0x1

		if result.Mode == 1 {
			result.Imm5 = word & 0x1F
		} else {
			result.SR2 = word & 0x7
		}

	// LD   |0010    |DR   |PCoffset9         | Load
	// LDI  |1010    |DR   |PCoffset9         | Load indirect
	// LEA  |1110    |DR   |PCoffset9         | Load effective address
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_LD, OP_LDI, OP_LEA:
		result.DR = (word >> 9) & 0x7
		result.PCOffset9 = word & 0x1FF

	// ST   |0011    |SR   |PCoffset9         | Store
	// STI  |1011    |SR   |PCoffset9         | Store indirect
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_ST, OP_STI:
		result.SR1 = (word >> 9) & 0x7
		result.PCOffset9 = word & 0x1FF

	// JSR  |0100    |1|PCoffset11            | Jump to subroutine
	// JSRR |0100    |0|00 |BaseR|000000      | Jump to subroutine register
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_JSR:
		result.Mode = (word >> 11) & 0x1

		if result.Mode == 1 {
			result.PCOffset11 = word & 0x7FF
		} else {
			result.BaseR = (word >> 6) & 0x7
		}

	// LDR  |0110    |DR   |BaseR|offset6     | Load base+offset
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_LDR:
		result.DR = (word >> 9) & 0x7
		result.BaseR = (word >> 6) & 0x7
		result.Offset6 = word & 0x3F

	// STR  |0111    |SR   |BaseR|offset6     | Store base+offset
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_STR:
		result.SR1 = (word >> 9) & 0x7
		result.BaseR = (word >> 6) & 0x7
		result.Offset6 = word & 0x3F

	// NOT  |1001    |DR   |SR   |0|11111     | Bitwise complement
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_NOT:
		result.DR = (word >> 9) & 0x7
		result.SR1 = (word >> 6) & 0x7

	// JMP  |1100    |000  |BaseR|000000      | Jump
	// RET  |1100    |000  |111  |000000      | Return
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_JMP:
		result.BaseR = (word >> 6) & 0x7

	// TRAP |1111    |0000   |trapvect8       | System call
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_TRAP:
		result.TrapVect = word & 0xFF

	// RTI  |1000    |000000000000            | Return from interrupt
	// RES  |1101    |                        | Reserved
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_RTI, OP_RES:
	}

	return result
}

// Encode rebuilds the word for an instruction. Don't-care bits are written
// as zero, except NOT whose low five bits are always ones.
func (in Instruction) Encode() uint16 {
	result := uint16(in.Opcode&0xF) << 12

	switch in.Opcode {
	case OP_BR:
		result |= (in.Cond&0x7)<<9 | in.PCOffset9&0x1FF

	case OP_ADD, OP_AND:
		result |= (in.DR&0x7)<<9 | (in.SR1&0x7)<<6

		if in.Mode == 1 {
			result |= 1<<5 | in.Imm5&0x1F
		} else {
			result |= in.SR2 & 0x7
		}

	case OP_LD, OP_LDI, OP_LEA:
		result |= (in.DR&0x7)<<9 | in.PCOffset9&0x1FF

	case OP_ST, OP_STI:
		result |= (in.SR1&0x7)<<9 | in.PCOffset9&0x1FF

	case OP_JSR:
		if in.Mode == 1 {
			result |= 1<<11 | in.PCOffset11&0x7FF
		} else {
			result |= (in.BaseR & 0x7) << 6
		}

	case OP_LDR:
		result |= (in.DR&0x7)<<9 | (in.BaseR&0x7)<<6 | in.Offset6&0x3F

	case OP_STR:
		result |= (in.SR1&0x7)<<9 | (in.BaseR&0x7)<<6 | in.Offset6&0x3F

	case OP_NOT:
		result |= (in.DR&0x7)<<9 | (in.SR1&0x7)<<6 | 0x1F

	case OP_JMP:
		result |= (in.BaseR & 0x7) << 6

	case OP_TRAP:
		result |= in.TrapVect & 0xFF
	}

	return result
}
