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

// Package isa describes the 16-bit instruction set: the opcode table and the
// bidirectional mapping between raw words and structured instructions.
package isa

type Opcode uint8

const (
	OP_BR   Opcode = 0b0000
	OP_ADD  Opcode = 0b0001
	OP_LD   Opcode = 0b0010
	OP_ST   Opcode = 0b0011
	OP_JSR  Opcode = 0b0100
	OP_AND  Opcode = 0b0101
	OP_LDR  Opcode = 0b0110
	OP_STR  Opcode = 0b0111
	OP_RTI  Opcode = 0b1000
	OP_NOT  Opcode = 0b1001
	OP_LDI  Opcode = 0b1010
	OP_STI  Opcode = 0b1011
	OP_JMP  Opcode = 0b1100
	OP_RES  Opcode = 0b1101
	OP_LEA  Opcode = 0b1110
	OP_TRAP Opcode = 0b1111
)

var opcodeNames = [16]string{
	OP_BR:   "BR",
	OP_ADD:  "ADD",
	OP_LD:   "LD",
	OP_ST:   "ST",
	OP_JSR:  "JSR",
	OP_AND:  "AND",
	OP_LDR:  "LDR",
	OP_STR:  "STR",
	OP_RTI:  "RTI",
	OP_NOT:  "NOT",
	OP_LDI:  "LDI",
	OP_STI:  "STI",
	OP_JMP:  "JMP",
	OP_RES:  "RES",
	OP_LEA:  "LEA",
	OP_TRAP: "TRAP",
}

// OpcodeOf returns the opcode held in the high four bits of a word.
func OpcodeOf(word uint16) Opcode {
	return Opcode(word >> 12)
}

// LookupOpcode maps a mnemonic name back to its opcode.
func LookupOpcode(name string) (Opcode, bool) {
	for op, opname := range opcodeNames {
		if opname == name {
			return Opcode(op), true
		}
	}

	return 0, false
}

func (op Opcode) String() string {
	return opcodeNames[op&0xF]
}

// Executable reports whether the opcode has defined execution semantics.
func (op Opcode) Executable() bool {
	return op != OP_RTI && op != OP_RES
}
