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
	"fmt"
)

type trapRoutine func(mc *Machine) error

// Trap routines run natively; they only touch R0, the condition flags and
// the memory they read. R7 and PC are left alone.
var trapTable = map[uint16]trapRoutine{
	TRAP_GETC:  trapGetc,
	TRAP_OUT:   trapOut,
	TRAP_PUTS:  trapPuts,
	TRAP_IN:    trapIn,
	TRAP_PUTSP: trapPutsp,
	TRAP_HALT:  trapHalt,
}

func (mc *Machine) trap(vector uint16) error {
	routine, exists := trapTable[vector]

	if !exists {
		return fmt.Errorf("%w: %#02x", ErrInvalidTrap, vector)
	}

	return routine(mc)
}

func trapGetc(mc *Machine) error {
	key, err := mc.readKey()

	if err != nil {
		return err
	}

	mc.State.Registers.Set(R0, uint16(key))
	mc.State.Registers.UpdateFlags(R0)

	return nil
}

func trapOut(mc *Machine) error {
	return mc.display(byte(mc.State.Registers.Get(R0) & 0xFF))
}

// One character per word, terminated by a zero word.
func trapPuts(mc *Machine) error {
	var output []byte

	for addr := mc.State.Registers.Get(R0); ; addr++ {
		value, err := mc.read(addr)

		if err != nil {
			return err
		}

		if value == 0 {
			break
		}

		output = append(output, byte(value&0xFF))
	}

	return mc.display(output...)
}

func trapIn(mc *Machine) error {
	if err := mc.display([]byte(TRAP_IN_PROMPT)...); err != nil {
		return err
	}

	key, err := mc.readKey()

	if err != nil {
		return err
	}

	if err := mc.display(key); err != nil {
		return err
	}

	mc.State.Registers.Set(R0, uint16(key))
	mc.State.Registers.UpdateFlags(R0)

	return nil
}

// Two characters per word, high byte first. A zero word ends the string, as
// does a zero low byte. A zero high byte is skipped.
func trapPutsp(mc *Machine) error {
	var output []byte

	for addr := mc.State.Registers.Get(R0); ; addr++ {
		value, err := mc.read(addr)

		if err != nil {
			return err
		}

		if value == 0 {
			break
		}

		high := byte(value >> 8)
		low := byte(value & 0xFF)

		if high != 0 {
			output = append(output, high)
		}

		if low == 0 {
			break
		}

		output = append(output, low)
	}

	return mc.display(output...)
}

func trapHalt(mc *Machine) error {
	mc.status = Halted

	return mc.display([]byte(TRAP_HALT_NOTICE)...)
}
