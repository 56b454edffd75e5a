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

package debugger_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/lassandro/lc3vm/pkg/debugger"
	"github.com/lassandro/lc3vm/pkg/machine"
)

var _ = Describe("Debugger", func() {
	var (
		mc     *machine.Machine
		dbg    *debugger.Debugger
		output bytes.Buffer
		breaks []uint16
		reads  []uint16
		writes []uint16
	)

	BeforeEach(func() {
		output.Reset()
		breaks = nil
		reads = nil
		writes = nil

		dbg = &debugger.Debugger{
			Output: &output,
			HandleBreak: func(_ *debugger.Debugger, mc *machine.Machine) {
				breaks = append(breaks, mc.State.Registers[machine.PC])
			},
			HandleRead: func(addr uint16, _ *debugger.Debugger, _ *machine.Machine) {
				reads = append(reads, addr)
			},
			HandleWrite: func(addr uint16, _ *debugger.Debugger, _ *machine.Machine) {
				writes = append(writes, addr)
			},
		}

		mc = machine.New(nil)
		mc.Debugger = dbg

		// ADD R0, R0, #1; ST R0, #2; LD R1, #1; HALT; data
		Expect(mc.Load([]uint16{
			0x3000, 0x1021, 0x3002, 0x2201, 0xF025, 0x0000,
		})).To(Succeed())
	})

	It("should break when the program counter reaches a breakpoint", func() {
		Expect(dbg.AddBreakpoint(0x3002)).To(BeTrue())
		Expect(dbg.AddBreakpoint(0x3002)).To(BeFalse())

		Expect(mc.Run()).To(Succeed())
		Expect(breaks).To(Equal([]uint16{0x3002}))
	})

	It("should break on every step while Break is set", func() {
		dbg.Break.Store(true)

		Expect(mc.Run()).To(Succeed())
		Expect(breaks).To(Equal([]uint16{0x3001, 0x3002, 0x3003, 0x3004}))
	})

	It("should stop a running machine when Break is set concurrently", func() {
		// BR #-1
		Expect(mc.Load([]uint16{0x3000, 0x0FFF})).To(Succeed())

		dbg.HandleBreak = func(_ *debugger.Debugger, mc *machine.Machine) {
			breaks = append(breaks, mc.State.Registers[machine.PC])
			mc.Halt()
		}

		go dbg.Break.Store(true)

		Expect(mc.Run()).To(Succeed())
		Expect(breaks).To(Equal([]uint16{0x3000}))
	})

	It("should report watched reads and writes", func() {
		Expect(dbg.AddWatchpoint(0x3004, debugger.WriteWatch)).To(BeTrue())
		Expect(dbg.AddWatchpoint(0x3004, debugger.ReadWatch)).To(BeTrue())
		Expect(dbg.AddWatchpoint(0x3004, debugger.ReadWatch)).To(BeFalse())

		Expect(mc.Run()).To(Succeed())
		Expect(writes).To(Equal([]uint16{0x3004}))
		Expect(reads).To(Equal([]uint16{0x3004}))
		Expect(mc.State.Registers[machine.R1]).To(Equal(uint16(1)))
	})

	It("should remove points by index", func() {
		dbg.AddBreakpoint(0x3001)
		dbg.AddBreakpoint(0x3002)

		Expect(dbg.RemoveBreakpoint(0)).To(Succeed())
		Expect(dbg.Breakpoints).To(Equal([]debugger.Breakpoint{{Addr: 0x3002}}))
		Expect(dbg.RemoveBreakpoint(3)).To(MatchError(debugger.ErrNoSuchPoint))

		dbg.AddWatchpoint(0x4000, debugger.ReadWriteWatch)
		Expect(dbg.RemoveWatchpoint(0)).To(Succeed())
		Expect(dbg.Watchpoints).To(BeEmpty())
		Expect(dbg.RemoveWatchpoint(0)).To(MatchError(debugger.ErrNoSuchPoint))
	})

	It("should disassemble around the program counter", func() {
		dbg.AddBreakpoint(0x3001)
		dbg.Disassemble(&mc.State, 0x3000, 4)

		listing := output.String()
		Expect(listing).To(ContainSubstring(">\033[1m[0x3000]\033[0m 0x1021  ADD 0 0 1 1"))
		Expect(listing).To(ContainSubstring("*\033[1m[0x3001]\033[0m 0x3002  ST 0 2"))
		Expect(listing).To(ContainSubstring("LD 1 1"))
		Expect(listing).To(ContainSubstring("TRAP 37"))
	})

	It("should print memory and registers", func() {
		dbg.PrintMem(&mc.State, 0x3000, 5)
		Expect(output.String()).To(ContainSubstring("0x1021 0x3002 0x2201 0xf025"))
		Expect(output.String()).To(ContainSubstring("[0x3004]"))

		output.Reset()
		dbg.PrintRegisters(&mc.State)
		Expect(output.String()).To(ContainSubstring("0x3000"))
		Expect(output.String()).To(ContainSubstring("CC:\033[0m Z"))
	})

	It("should name condition flags", func() {
		Expect(debugger.FlagName(machine.FLAG_NEG)).To(Equal("N"))
		Expect(debugger.FlagName(machine.FLAG_ZERO)).To(Equal("Z"))
		Expect(debugger.FlagName(machine.FLAG_POS)).To(Equal("P"))
	})
})
