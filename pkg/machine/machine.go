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
	"io"

	"github.com/sirupsen/logrus"

	"github.com/lassandro/lc3vm/pkg/encoding"
	"github.com/lassandro/lc3vm/pkg/isa"
	"github.com/lassandro/lc3vm/pkg/mnemonic"
)

func New(devices *DeviceHandler) *Machine {
	mc := &Machine{Devices: devices}
	mc.Reset()
	return mc
}

func (mc *MachineState) Reset() {
	for i := range mc.Registers {
		mc.Registers[i] = 0x0000
	}

	for i := range mc.Memory {
		mc.Memory[i] = 0x0000
	}

	mc.Registers[PC] = MEMSPACE_USER
	mc.Registers[COND] = FLAG_ZERO
}

func (mc *Machine) Reset() {
	mc.State.Reset()
	mc.Steps = 0
	mc.status = Idle
}

func (mc *Machine) Status() ExecState {
	return mc.status
}

// Halt stops the machine before its next instruction.
func (mc *Machine) Halt() {
	mc.status = Halted
}

// Load copies a program into memory. The first word is the origin, the rest
// is placed at consecutive addresses from it. The origin plus the program
// length, origin word included, must stay below the top of memory.
// Registers are left untouched.
func (mc *Machine) Load(program []uint16) error {
	if len(program) == 0 {
		return ErrEmptyProgram
	}

	origin := int(program[0])
	body := program[1:]

	if origin+len(body) >= MEMORY_SIZE {
		return fmt.Errorf(
			"%w: %d words at origin %#04x", ErrProgramTooLarge, len(body), origin,
		)
	}

	copy(mc.State.Memory[origin:], body)

	mc.logger().WithFields(logrus.Fields{
		"origin": fmt.Sprintf("%#04x", origin),
		"words":  len(body),
	}).Debug("Program loaded")

	return nil
}

// LoadImage reads a big-endian program image and loads it.
func (mc *Machine) LoadImage(reader io.Reader) error {
	data, err := io.ReadAll(reader)

	if err != nil {
		return err
	}

	program, err := encoding.Words(data)

	if err != nil {
		return err
	}

	return mc.Load(program)
}

// Run executes instructions until the machine halts or faults.
func (mc *Machine) Run() error {
	if mc.status == Halted {
		return ErrHalted
	}

	for mc.status != Halted {
		if err := mc.Step(); err != nil {
			return err
		}
	}

	return nil
}

// Step fetches, decodes and executes a single instruction. The program
// counter is advanced before execution, so PC-relative operands are offsets
// from the following instruction.
func (mc *Machine) Step() error {
	if mc.status == Halted {
		return ErrHalted
	}

	mc.status = Running

	addr := mc.State.Registers[PC]
	word, err := mc.read(addr)

	if err != nil {
		return mc.fault(addr, word, err)
	}

	instruction := isa.Decode(word)

	mc.State.Registers[PC]++

	if log := mc.logger(); log.IsLevelEnabled(logrus.DebugLevel) {
		log.WithFields(logrus.Fields{
			"pc":    fmt.Sprintf("%#04x", addr),
			"instr": fmt.Sprintf("%#04x", word),
			"op":    mnemonic.Format(instruction),
		}).Debug("Step")
	}

	if err := mc.execute(instruction); err != nil {
		return mc.fault(addr, word, err)
	}

	mc.Steps++

	if mc.Debugger != nil {
		mc.Debugger.Step(mc)
	}

	return nil
}

func (mc *Machine) fault(addr, word uint16, err error) error {
	mc.status = Halted

	mc.logger().WithFields(logrus.Fields{
		"pc":    fmt.Sprintf("%#04x", addr),
		"instr": fmt.Sprintf("%#04x", word),
	}).WithError(err).Error("Machine fault")

	return &Fault{PC: addr, Instruction: word, Err: err}
}

func (mc *Machine) logger() *logrus.Logger {
	if mc.Log == nil {
		return logrus.StandardLogger()
	}

	return mc.Log
}

func (mc *Machine) execute(instruction isa.Instruction) error {
	regs := &mc.State.Registers

	switch instruction.Opcode {
	// ADD  |0001    |DR   |SR1  |0|00 |SR2   | Register  addition
	// ADD  |0001    |DR   |SR1  |1|imm5      | Immediate addition
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case isa.OP_ADD:
		regs.Set(
			instruction.DR,
			regs.Get(instruction.SR1)+mc.operand(instruction),
		)

		regs.UpdateFlags(instruction.DR)

	// AND  |0101    |DR   |SR1  |0|00 |SR2   | Register  bitwise
	// AND  |0101    |DR   |SR1  |1|imm5      | Immediate bitwise
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case isa.OP_AND:
		regs.Set(
			instruction.DR,
			regs.Get(instruction.SR1)&mc.operand(instruction),
		)

		regs.UpdateFlags(instruction.DR)

	// BR   |0000    |N|Z|P|PCoffset9         | Conditional branch
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case isa.OP_BR:
		if instruction.Cond&regs.Get(COND) != 0 {
			regs.Set(PC, mc.pcRelative(instruction.PCOffset9, 9))
		}

	// JMP  |1100    |000  |BaseR|000000      | Jump
	// RET  |1100    |000  |111  |000000      | Return
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case isa.OP_JMP:
		regs.Set(PC, regs.Get(instruction.BaseR))

	// JSR  |0100    |1|PCoffset11            | Jump to subroutine
	// JSRR |0100    |0|00 |BaseR|000000      | Jump to subroutine register
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case isa.OP_JSR:
		regs.Set(R7, regs.Get(PC))

		if instruction.Mode == 1 {
			regs.Set(PC, mc.pcRelative(instruction.PCOffset11, 11))
		} else {
			regs.Set(PC, regs.Get(instruction.BaseR))
		}

	// LD   |0010    |DR   |PCoffset9         | Load
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case isa.OP_LD:
		value, err := mc.read(mc.pcRelative(instruction.PCOffset9, 9))

		if err != nil {
			return err
		}

		regs.Set(instruction.DR, value)
		regs.UpdateFlags(instruction.DR)

	// LDI  |1010    |DR   |PCoffset9         | Load indirect
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case isa.OP_LDI:
		pointer, err := mc.read(mc.pcRelative(instruction.PCOffset9, 9))

		if err != nil {
			return err
		}

		value, err := mc.read(pointer)

		if err != nil {
			return err
		}

		regs.Set(instruction.DR, value)
		regs.UpdateFlags(instruction.DR)

	// LDR  |0110    |DR   |BaseR|offset6     | Load base+offset
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case isa.OP_LDR:
		value, err := mc.read(mc.baseRelative(instruction))

		if err != nil {
			return err
		}

		regs.Set(instruction.DR, value)
		regs.UpdateFlags(instruction.DR)

	// LEA  |1110    |DR   |PCoffset9         | Load effective address
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case isa.OP_LEA:
		regs.Set(instruction.DR, mc.pcRelative(instruction.PCOffset9, 9))
		regs.UpdateFlags(instruction.DR)

	// NOT  |1001    |DR   |SR   |0|11111     | Bitwise complement
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case isa.OP_NOT:
		regs.Set(instruction.DR, ^regs.Get(instruction.SR1))
		regs.UpdateFlags(instruction.DR)

	// ST   |0011    |SR   |PCoffset9         | Store
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case isa.OP_ST:
		return mc.write(
			mc.pcRelative(instruction.PCOffset9, 9),
			regs.Get(instruction.SR1),
		)

	// STI  |1011    |SR   |PCoffset9         | Store indirect
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case isa.OP_STI:
		pointer, err := mc.read(mc.pcRelative(instruction.PCOffset9, 9))

		if err != nil {
			return err
		}

		return mc.write(pointer, regs.Get(instruction.SR1))

	// STR  |0111    |SR   |BaseR|offset6     | Store base+offset
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case isa.OP_STR:
		return mc.write(mc.baseRelative(instruction), regs.Get(instruction.SR1))

	// TRAP |1111    |0000   |trapvect8       | System call
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case isa.OP_TRAP:
		return mc.trap(instruction.TrapVect)

	// RTI  |1000    |000000000000            | Return from interrupt
	// RES  |1101    |                        | Reserved (illegal)
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	default:
		return fmt.Errorf("%w: %s", ErrIllegalOpcode, instruction.Opcode)
	}

	return nil
}

// operand returns the second ADD/AND operand: the sign extended imm5 in
// immediate mode, SR2 otherwise.
func (mc *Machine) operand(instruction isa.Instruction) uint16 {
	if instruction.Mode == 1 {
		return encoding.SignExtend(instruction.Imm5, 5)
	}

	return mc.State.Registers.Get(instruction.SR2)
}

func (mc *Machine) pcRelative(offset uint16, bitcount uint16) uint16 {
	return mc.State.Registers.Get(PC) + encoding.SignExtend(offset, bitcount)
}

func (mc *Machine) baseRelative(instruction isa.Instruction) uint16 {
	return mc.State.Registers.Get(instruction.BaseR) +
		encoding.SignExtend(instruction.Offset6, 6)
}
