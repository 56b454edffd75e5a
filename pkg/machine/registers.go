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

package machine

const (
	R0 uint16 = iota
	R1
	R2
	R3
	R4
	R5
	R6
	R7
	PC
	COND
	REG_COUNT
)

// RegisterFile holds R0-R7 followed by the program counter and the condition
// flags. Indexes are not range checked beyond the fixed layout.
type RegisterFile [REG_COUNT]uint16

func (rf *RegisterFile) Get(index uint16) uint16 {
	return rf[index]
}

func (rf *RegisterFile) Set(index uint16, value uint16) {
	rf[index] = value
}

// UpdateFlags sets exactly one of the N/Z/P flags from the value held in
// register index.
func (rf *RegisterFile) UpdateFlags(index uint16) {
	value := rf[index]

	if value == 0 {
		rf[COND] = FLAG_ZERO
	} else if value>>15 == 1 {
		rf[COND] = FLAG_NEG
	} else {
		rf[COND] = FLAG_POS
	}
}
