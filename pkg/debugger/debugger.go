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

package debugger

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/lassandro/lc3vm/pkg/isa"
	"github.com/lassandro/lc3vm/pkg/machine"
	"github.com/lassandro/lc3vm/pkg/mnemonic"
)

var ErrNoSuchPoint = errors.New("no such breakpoint or watchpoint")

func (dbg *Debugger) Step(mc *machine.Machine) {
	if dbg.HandleBreak == nil {
		return
	}

	if dbg.Break.Load() {
		dbg.HandleBreak(dbg, mc)
		return
	}

	for _, breakpoint := range dbg.Breakpoints {
		if mc.State.Registers[machine.PC] == breakpoint.Addr {
			dbg.HandleBreak(dbg, mc)
			break
		}
	}
}

func (dbg *Debugger) Read(addr uint16, mc *machine.Machine) {
	if dbg.HandleRead == nil {
		return
	}

	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Type == WriteWatch {
			continue
		}

		if addr == watchpoint.Addr {
			dbg.HandleRead(addr, dbg, mc)
			break
		}
	}
}

func (dbg *Debugger) Write(addr uint16, mc *machine.Machine) {
	if dbg.HandleWrite == nil {
		return
	}

	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Type == ReadWatch {
			continue
		}

		if addr == watchpoint.Addr {
			dbg.HandleWrite(addr, dbg, mc)
			break
		}
	}
}

// AddBreakpoint reports false if a breakpoint already exists at addr.
func (dbg *Debugger) AddBreakpoint(addr uint16) bool {
	for _, breakpoint := range dbg.Breakpoints {
		if breakpoint.Addr == addr {
			return false
		}
	}

	dbg.Breakpoints = append(dbg.Breakpoints, Breakpoint{addr})
	return true
}

func (dbg *Debugger) RemoveBreakpoint(i int) error {
	if i < 0 || i >= len(dbg.Breakpoints) {
		return ErrNoSuchPoint
	}

	dbg.Breakpoints[i] = dbg.Breakpoints[len(dbg.Breakpoints)-1]
	dbg.Breakpoints = dbg.Breakpoints[:len(dbg.Breakpoints)-1]
	return nil
}

// AddWatchpoint reports false if the same watchpoint already exists.
func (dbg *Debugger) AddWatchpoint(addr uint16, wtype WatchpointType) bool {
	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Addr == addr && watchpoint.Type == wtype {
			return false
		}
	}

	dbg.Watchpoints = append(dbg.Watchpoints, Watchpoint{addr, wtype})
	return true
}

func (dbg *Debugger) RemoveWatchpoint(i int) error {
	if i < 0 || i >= len(dbg.Watchpoints) {
		return ErrNoSuchPoint
	}

	dbg.Watchpoints[i] = dbg.Watchpoints[len(dbg.Watchpoints)-1]
	dbg.Watchpoints = dbg.Watchpoints[:len(dbg.Watchpoints)-1]
	return nil
}

func (dbg *Debugger) output() io.Writer {
	if dbg.Output == nil {
		return os.Stdout
	}

	return dbg.Output
}

// Disassemble lists count instructions from addr. The current program
// counter is marked with '>' and breakpoints with '*'.
func (dbg *Debugger) Disassemble(mc *machine.MachineState, addr, count uint16) {
	out := dbg.output()

	for i := uint16(0); i < count; i++ {
		at := addr + i
		word := mc.Memory.Read(at)

		marker := ' '
		if at == mc.Registers[machine.PC] {
			marker = '>'
		} else if dbg.hasBreakpoint(at) {
			marker = '*'
		}

		fmt.Fprintf(
			out,
			"%c\033[1m[%#04x]\033[0m %#04x  %s\n",
			marker,
			at,
			word,
			mnemonic.Format(isa.Decode(word)),
		)
	}
}

func (dbg *Debugger) hasBreakpoint(addr uint16) bool {
	for _, breakpoint := range dbg.Breakpoints {
		if breakpoint.Addr == addr {
			return true
		}
	}

	return false
}

func (dbg *Debugger) PrintMem(mc *machine.MachineState, addr, count uint16) {
	out := dbg.output()

	for i := uint16(0); i < count; i++ {
		at := addr + i

		if i == 0 {
			fmt.Fprintf(out, "\033[1m[%#04x]\033[0m ", at)
		} else if i%4 == 0 {
			fmt.Fprintln(out)
			fmt.Fprintf(out, "\033[1m[%#04x]\033[0m ", at)
		}

		result := mc.Memory.Read(at)

		if result == 0 {
			fmt.Fprintf(out, "\033[1;30m%#04x\033[0m ", result)
		} else {
			fmt.Fprintf(out, "%#04x ", result)
		}
	}

	fmt.Fprintln(out)
}

func (dbg *Debugger) PrintRegisters(mc *machine.MachineState) {
	out := dbg.output()

	for i := machine.R0; i <= machine.R7; i++ {
		fmt.Fprintf(out, "\033[1mR%d:\033[0m %#04x\t", i, mc.Registers[i])
		if i == machine.R3 {
			fmt.Fprintln(out)
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintf(
		out,
		"\033[1mPC:\033[0m %#04x\t\033[1mCC:\033[0m %s\n",
		mc.Registers[machine.PC],
		FlagName(mc.Registers[machine.COND]),
	)
}

func FlagName(cond uint16) string {
	switch cond {
	case machine.FLAG_NEG:
		return "N"
	case machine.FLAG_ZERO:
		return "Z"
	case machine.FLAG_POS:
		return "P"
	default:
		return fmt.Sprintf("%#03b", cond)
	}
}
