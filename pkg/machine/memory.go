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

// AddressSpace is the flat 64K word memory. Its Read and Write are plain
// cell accesses; device side effects live in Machine.read and Machine.write.
type AddressSpace [MEMORY_SIZE]uint16

func (as *AddressSpace) Read(addr uint16) uint16 {
	return as[addr]
}

func (as *AddressSpace) Write(addr uint16, value uint16) {
	as[addr] = value
}

// read applies the polling model of the keyboard: reading KBSR blocks for a
// key and latches it into KBDR, while any other read clears the ready bit.
func (mc *Machine) read(addr uint16) (uint16, error) {
	memory := &mc.State.Memory

	if addr == DEV_KBSR {
		key, err := mc.readKey()

		if err != nil {
			return 0, err
		}

		memory.Write(DEV_KBSR, DEV_READY)
		memory.Write(DEV_KBDR, uint16(key))
	} else {
		memory.Write(DEV_KBSR, memory.Read(DEV_KBSR)&^DEV_READY)

		if addr == DEV_DSR {
			memory.Write(DEV_DSR, DEV_READY)
		}
	}

	if mc.Debugger != nil {
		mc.Debugger.Read(addr, mc)
	}

	return memory.Read(addr), nil
}

func (mc *Machine) write(addr uint16, value uint16) error {
	mc.State.Memory.Write(addr, value)

	switch addr {
	case DEV_DDR:
		if err := mc.display(byte(value & 0xFF)); err != nil {
			return err
		}

	case DEV_MCR:
		// Clearing the clock enable bit stops the machine
		if value&DEV_READY == 0 {
			mc.status = Halted
		}
	}

	if mc.Debugger != nil {
		mc.Debugger.Write(addr, mc)
	}

	return nil
}

func (mc *Machine) readKey() (byte, error) {
	if mc.Devices == nil || mc.Devices.Keyboard == nil {
		return 0, fmt.Errorf("%w: no keyboard attached", ErrInput)
	}

	key, err := mc.Devices.Keyboard.ReadByte()

	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInput, err)
	}

	return key, nil
}

func (mc *Machine) display(data ...byte) error {
	if mc.Devices == nil || mc.Devices.Display == nil {
		return nil
	}

	if _, err := mc.Devices.Display.Write(data); err != nil {
		return fmt.Errorf("%w: %w", ErrOutput, err)
	}

	if flusher, ok := mc.Devices.Display.(interface{ Flush() error }); ok {
		if err := flusher.Flush(); err != nil {
			return fmt.Errorf("%w: %w", ErrOutput, err)
		}
	}

	return nil
}
