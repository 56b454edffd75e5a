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
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/tebeka/atexit"

	"github.com/lassandro/lc3vm/pkg/debugger"
	"github.com/lassandro/lc3vm/pkg/machine"
)

var helpvar bool
var debugvar bool
var tracevar bool
var rawvar bool

const usage = "lc3vm [-debug] [-trace] [-raw=false] filename"

func init() {
	exe, _ := os.Executable()
	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	logrus.AddHook(&prefixHook{prefix: filepath.Base(exe)})
}

func init() {
	flag.BoolVar(&helpvar, "help", false, "Displays command usage")
	flag.BoolVar(&debugvar, "debug", false, "Runs the machine in a debug CLI")
	flag.BoolVar(&tracevar, "trace", false, "Logs every executed instruction")
	flag.BoolVar(
		&rawvar, "raw", true,
		"Puts the terminal in raw mode while the machine runs, "+
			"so keys reach the program without waiting for a newline",
	)
}

// prefixHook tags every entry with the executable name.
type prefixHook struct {
	prefix string
}

func (h *prefixHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *prefixHook) Fire(entry *logrus.Entry) error {
	entry.Data["prog"] = h.prefix
	return nil
}

// runResult maps the outcome of Machine.Run to an exit code. Faults are
// already logged by the machine.
func runResult(err error) int {
	var fault *machine.Fault

	switch {
	case err == nil:
		return 0
	// A quit from the debugger halts the machine before Run starts
	case errors.Is(err, machine.ErrHalted):
		return 0
	case errors.As(err, &fault):
		return 1
	default:
		logrus.WithError(err).Error("Execution failed")
		return 1
	}
}

func lc3vm() int {
	flag.Parse()

	if helpvar {
		fmt.Println(usage)
		flag.PrintDefaults()
		return 0
	}

	if tracevar {
		logrus.SetLevel(logrus.DebugLevel)
	}

	args := flag.Args()

	if len(args) != 1 {
		logrus.Error(usage)
		return 1
	}

	file, err := os.Open(args[0])

	if err != nil {
		logrus.WithError(err).Error("Unable to open image")
		return 1
	}

	defer file.Close()

	console := bufio.NewReader(os.Stdin)
	display := bufio.NewWriter(os.Stdout)

	mc := machine.New(&machine.DeviceHandler{
		Keyboard: console,
		Display:  display,
	})
	mc.Log = logrus.StandardLogger()

	if err := mc.LoadImage(file); err != nil {
		logrus.WithError(err).WithField("image", args[0]).Error("Unable to load image")
		return 1
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	defer signal.Stop(c)

	var dbg *debugger.Debugger

	if debugvar {
		dbg = &debugger.Debugger{
			HandleBreak: handleBreak,
			HandleRead:  handleRead,
			HandleWrite: handleWrite,
		}
		mc.Debugger = dbg

		session = debugSession{image: args[0], console: console}

		go func() {
			for range c {
				fmt.Println()
				dbg.Break.Store(true)
			}
		}()
	} else {
		go func() {
			for range c {
				fmt.Println()
				atexit.Exit(130)
			}
		}()
	}

	if rawvar && isTerminal() {
		if err := enterRawTerm(); err != nil {
			logrus.WithError(err).Warn("Unable to enter raw mode")
		}
	}

	atexit.Register(exitRawTerm)
	defer exitRawTerm()

	if debugvar {
		debugREPL(dbg, mc)
	}

	err = mc.Run()

	if flushErr := display.Flush(); flushErr != nil && err == nil {
		err = flushErr
	}

	logrus.WithField("steps", mc.Steps).Debug("Machine stopped")

	return runResult(err)
}

func main() {
	atexit.Exit(lc3vm())
}
