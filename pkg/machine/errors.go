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

import (
	"errors"
	"fmt"
)

var (
	ErrIllegalOpcode   = errors.New("illegal opcode")
	ErrInvalidTrap     = errors.New("invalid trap vector")
	ErrInput           = errors.New("keyboard read failed")
	ErrOutput          = errors.New("display write failed")
	ErrHalted          = errors.New("machine is halted")
	ErrEmptyProgram    = errors.New("program has no origin word")
	ErrProgramTooLarge = errors.New("program does not fit in memory")
)

// Fault is an execution-fatal error raised by the instruction at PC.
type Fault struct {
	PC          uint16
	Instruction uint16
	Err         error
}

func (f *Fault) Error() string {
	return fmt.Sprintf(
		"fault at %#04x (instruction %#04x): %v", f.PC, f.Instruction, f.Err,
	)
}

func (f *Fault) Unwrap() error {
	return f.Err
}
