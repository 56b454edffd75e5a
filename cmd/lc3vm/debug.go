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

package main

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/lassandro/lc3vm/pkg/debugger"
	"github.com/lassandro/lc3vm/pkg/encoding"
	"github.com/lassandro/lc3vm/pkg/machine"
)

type debugSession struct {
	image   string
	console *bufio.Reader
	lastcmd []string
}

var session debugSession

func debugBreak(dbg *debugger.Debugger, args []string) {
	if len(args) == 0 {
		args = append(args, "l")
	}

	cmd := args[0]
	args = args[1:]

	switch cmd {
	case "a", "add":
		const usage = "break add [0x####]"

		if len(args) != 1 {
			fmt.Println(usage)
			return
		}

		addr, err := encoding.DecodeHex(args[0])

		if err != nil {
			fmt.Println(err)
			return
		}

		if dbg.AddBreakpoint(addr) {
			fmt.Printf("Breakpoint added [%#04x]\n", addr)
		}

	case "l", "ls", "list":
		fmtstring := indexFormat(len(dbg.Breakpoints), "#%%0%dd: %%#x\n")

		for i, breakpoint := range dbg.Breakpoints {
			fmt.Printf(fmtstring, i, breakpoint.Addr)
		}

	case "r", "rm", "remove":
		const usage = "break remove [#]"

		if len(args) != 1 {
			fmt.Println(usage)
			return
		}

		i, err := strconv.Atoi(args[0])

		if err != nil {
			fmt.Println(err)
			return
		}

		if err := dbg.RemoveBreakpoint(i); err != nil {
			fmt.Println(err)
			return
		}

		fmt.Printf("Breakpoint removed [%d]\n", i)

	case "clear":
		dbg.Breakpoints = nil
		fmt.Println("Breakpoints reset")

	default:
		fmt.Printf("break: '%s' is not a valid command\n", cmd)
	}
}

func debugWatch(dbg *debugger.Debugger, args []string) {
	const usage = "watch [add|list|rm|clear]"

	if len(args) == 0 {
		fmt.Println(usage)
		return
	}

	cmd := args[0]
	args = args[1:]

	switch cmd {
	case "a", "add":
		const usage = "watch add [0x####] [read|write|readwrite]"

		if len(args) != 2 {
			fmt.Println(usage)
			return
		}

		addr, err := encoding.DecodeHex(args[0])

		if err != nil {
			fmt.Println(err)
			return
		}

		var wtype debugger.WatchpointType

		switch args[1] {
		case "r", "read":
			wtype = debugger.ReadWatch
		case "w", "write":
			wtype = debugger.WriteWatch
		case "rw", "rwrite", "readwrite":
			wtype = debugger.ReadWriteWatch
		default:
			fmt.Println(usage)
			return
		}

		if dbg.AddWatchpoint(addr, wtype) {
			fmt.Printf("Watchpoint added [%#04x] (%s)\n", addr, wtype)
		}

	case "l", "ls", "list":
		fmtstring := indexFormat(len(dbg.Watchpoints), "#%%0%dd: %%#x %%s\n")

		for i, watchpoint := range dbg.Watchpoints {
			fmt.Printf(fmtstring, i, watchpoint.Addr, watchpoint.Type)
		}

	case "r", "rm", "remove":
		const usage = "watch rm [#]"

		if len(args) != 1 {
			fmt.Println(usage)
			return
		}

		i, err := strconv.Atoi(args[0])

		if err != nil {
			fmt.Println(err)
			return
		}

		if err := dbg.RemoveWatchpoint(i); err != nil {
			fmt.Println(err)
			return
		}

		fmt.Printf("Watchpoint removed [%d]\n", i)

	case "clear":
		dbg.Watchpoints = nil
		fmt.Println("Watchpoints reset")

	default:
		fmt.Printf("watch: '%s' is not a valid command\n", cmd)
	}
}

func indexFormat(count int, layout string) string {
	digits := math.Floor(math.Log10(float64(count + 1)))
	return fmt.Sprintf(layout, int64(digits)+1)
}

func debugReg(dbg *debugger.Debugger, mc *machine.MachineState, args []string) {
	const usage = "register [R#|PC|CC] [0x####]"

	if len(args) == 0 {
		dbg.PrintRegisters(mc)
		return
	}

	if len(args) != 2 {
		fmt.Println(usage)
		return
	}

	value, err := encoding.DecodeHex(args[1])

	if err != nil {
		fmt.Println(err)
		return
	}

	name := strings.ToUpper(args[0])

	switch {
	case name == "PC":
		mc.Registers.Set(machine.PC, value)
	case name == "CC":
		if value != machine.FLAG_NEG && value != machine.FLAG_ZERO &&
			value != machine.FLAG_POS {
			fmt.Println("Condition must be exactly one of 0x4, 0x2, 0x1")
			return
		}
		mc.Registers.Set(machine.COND, value)
	case len(name) == 2 && name[0] == 'R' && name[1] >= '0' && name[1] <= '7':
		mc.Registers.Set(uint16(name[1]-'0'), value)
	default:
		fmt.Println("Invalid register")
		return
	}

	fmt.Printf("\033[1m%s:\033[0m %#04x\n", name, value)
}

// parseRange reads the optional [0x####|#] [#] arguments shared by the
// listing commands. A bare decimal first argument is a count from PC.
func parseRange(mc *machine.MachineState, args []string, size uint16) (uint16, uint16, bool) {
	addr := mc.Registers.Get(machine.PC)

	if len(args) > 2 {
		return 0, 0, false
	}

	if len(args) > 0 {
		if value, err := encoding.DecodeHex(args[0]); err == nil {
			addr = value
		} else if value, err := strconv.ParseUint(args[0], 10, 16); err == nil {
			size = uint16(value)
		} else {
			fmt.Println(err)
			return 0, 0, false
		}
	}

	if len(args) > 1 {
		value, err := strconv.ParseUint(args[1], 10, 16)

		if err != nil {
			fmt.Println(err)
			return 0, 0, false
		}

		size = uint16(value)
	}

	return addr, size, true
}

func debugMemory(dbg *debugger.Debugger, mc *machine.MachineState, args []string) {
	const usage = "memory [0x####|#] [#]"

	addr, size, ok := parseRange(mc, args, 1)

	if !ok {
		fmt.Println(usage)
		return
	}

	dbg.PrintMem(mc, addr, size)
}

func debugDisassemble(dbg *debugger.Debugger, mc *machine.MachineState, args []string) {
	const usage = "disassemble [0x####|#] [#]"

	addr, size, ok := parseRange(mc, args, 8)

	if !ok {
		fmt.Println(usage)
		return
	}

	dbg.Disassemble(mc, addr, size)
}

func debugJump(mc *machine.MachineState, args []string) {
	const usage = "jump [0x####]"

	if len(args) != 1 {
		fmt.Println(usage)
		return
	}

	addr, err := encoding.DecodeHex(args[0])

	if err != nil {
		fmt.Println(err)
		return
	}

	mc.Registers.Set(machine.PC, addr)
	fmt.Printf("\033[1mPC:\033[0m %#04x\n", addr)
}

func debugSet(dbg *debugger.Debugger, mc *machine.MachineState, args []string) {
	const usage = "set [0x####] [0x####|#]"

	if len(args) != 2 {
		fmt.Println(usage)
		return
	}

	addr, err := encoding.DecodeHex(args[0])

	if err != nil {
		fmt.Println(err)
		return
	}

	value, err := encoding.DecodeAddr(args[1])

	if err != nil {
		fmt.Println(err)
		return
	}

	mc.Memory.Write(addr, value)
	dbg.PrintMem(mc, addr, 1)
}

func debugReset(mc *machine.Machine) {
	file, err := os.Open(session.image)

	if err != nil {
		fmt.Println(err)
		return
	}

	defer file.Close()

	mc.Reset()

	if err := mc.LoadImage(file); err != nil {
		fmt.Println(err)
		return
	}

	fmt.Printf("Reloaded %s\n", session.image)
}

func debugREPL(dbg *debugger.Debugger, mc *machine.Machine) {
	wasRaw := termRaw
	exitRawTerm()

	defer func() {
		if wasRaw {
			if err := enterRawTerm(); err != nil {
				logrus.WithError(err).Warn("Unable to enter raw mode")
			}
		}
	}()

	for {
		fmt.Print("\033[1;30m(dbg)\033[0m ")

		line, err := session.console.ReadString('\n')

		if err != nil && (err != io.EOF || line == "") {
			fmt.Println()
			mc.Halt()
			return
		}

		args := strings.Fields(line)

		if len(args) == 0 {
			if len(session.lastcmd) == 0 {
				continue
			}
			args = session.lastcmd
		} else {
			session.lastcmd = make([]string, len(args))
			copy(session.lastcmd, args)
		}

		cmd := args[0]
		args = args[1:]

		switch cmd {
		case "b", "bp", "break", "breakpoint":
			debugBreak(dbg, args)

		case "w", "wp", "watch", "watchpoint":
			debugWatch(dbg, args)

		case "r", "reg", "register", "registers":
			debugReg(dbg, &mc.State, args)

		case "d", "dis", "disassemble":
			debugDisassemble(dbg, &mc.State, args)

		case "j", "jmp", "jump":
			debugJump(&mc.State, args)

		case "m", "mem", "memory":
			debugMemory(dbg, &mc.State, args)

		case "set":
			debugSet(dbg, &mc.State, args)

		case "c", "continue":
			dbg.Break.Store(false)
			return

		case "n", "next":
			dbg.Break.Store(true)
			return

		case "q", "quit", "exit":
			mc.Halt()
			return

		case "clear":
			fmt.Print("\033[H\033[2J")

		case "reset":
			debugReset(mc)

		default:
			fmt.Printf("error: '%s' is not a valid command\n", cmd)
		}
	}
}

func handleBreak(dbg *debugger.Debugger, mc *machine.Machine) {
	if mc.Status() == machine.Halted {
		return
	}

	if !dbg.Break.Load() {
		fmt.Println()
		fmt.Println("Program stopped")
		dbg.Disassemble(&mc.State, mc.State.Registers.Get(machine.PC), 4)
	}

	debugREPL(dbg, mc)
}

func handleRead(addr uint16, dbg *debugger.Debugger, mc *machine.Machine) {
	fmt.Println()
	fmt.Println("Program stopped (read)")
	dbg.PrintMem(&mc.State, addr, 1)
	debugREPL(dbg, mc)
}

func handleWrite(addr uint16, dbg *debugger.Debugger, mc *machine.Machine) {
	fmt.Println()
	fmt.Println("Program stopped (write)")
	dbg.PrintMem(&mc.State, addr, 1)
	debugREPL(dbg, mc)
}
