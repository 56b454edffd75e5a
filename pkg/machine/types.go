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
	"io"

	"github.com/sirupsen/logrus"
)

// DeviceHandler connects the machine to its console. A nil Display discards
// output; a nil Keyboard makes every blocking read fail.
type DeviceHandler struct {
	Keyboard io.ByteReader
	Display  io.Writer
}

type MachineState struct {
	Registers RegisterFile
	Memory    AddressSpace
}

type MachineDebugger interface {
	Step(mc *Machine)
	Read(addr uint16, mc *Machine)
	Write(addr uint16, mc *Machine)
}

type ExecState uint8

const (
	Idle ExecState = iota
	Running
	Halted
)

func (s ExecState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Halted:
		return "halted"
	default:
		return "unknown"
	}
}

type Machine struct {
	Devices  *DeviceHandler
	State    MachineState
	Debugger MachineDebugger

	// Log receives per-step traces at debug level and faults at error level.
	// Nil uses the logrus standard logger.
	Log *logrus.Logger

	// Steps counts the instructions executed since the last Reset.
	Steps uint64

	status ExecState
}
