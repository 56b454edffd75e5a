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

// Package mnemonic converts decoded instructions to a canonical line of
// space separated tokens and back. Operands are the raw, unextended field
// values in decimal.
package mnemonic

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lassandro/lc3vm/pkg/isa"
)

var ErrSyntax = errors.New("invalid mnemonic")

const (
	aliasJSRR = "JSRR"
	aliasRET  = "RET"
)

func Format(in isa.Instruction) string {
	switch in.Opcode {
	case isa.OP_BR:
		return join(in.Opcode.String(), in.Cond, in.PCOffset9)

	case isa.OP_ADD, isa.OP_AND:
		if in.Mode == 1 {
			return join(in.Opcode.String(), in.DR, in.SR1, in.Mode, in.Imm5)
		}

		return join(in.Opcode.String(), in.DR, in.SR1, in.Mode, in.SR2)

	case isa.OP_LD, isa.OP_LDI, isa.OP_LEA:
		return join(in.Opcode.String(), in.DR, in.PCOffset9)

	case isa.OP_ST, isa.OP_STI:
		return join(in.Opcode.String(), in.SR1, in.PCOffset9)

	case isa.OP_JSR:
		if in.Mode == 1 {
			return join(in.Opcode.String(), in.Mode, in.PCOffset11)
		}

		return join(aliasJSRR, in.Mode, in.BaseR)

	case isa.OP_LDR:
		return join(in.Opcode.String(), in.DR, in.BaseR, in.Offset6)

	case isa.OP_STR:
		return join(in.Opcode.String(), in.SR1, in.BaseR, in.Offset6)

	case isa.OP_NOT:
		return join(in.Opcode.String(), in.DR, in.SR1)

	case isa.OP_JMP:
		if in.BaseR == 7 {
			return join(aliasRET, in.BaseR)
		}

		return join(in.Opcode.String(), in.BaseR)

	case isa.OP_TRAP:
		return join(in.Opcode.String(), in.TrapVect)

	default:
		return in.Opcode.String()
	}
}

func Parse(line string) (isa.Instruction, error) {
	tokens := strings.Fields(line)

	if len(tokens) == 0 {
		return isa.Instruction{}, fmt.Errorf("%w: empty line", ErrSyntax)
	}

	name := strings.ToUpper(tokens[0])
	args := tokens[1:]

	var in isa.Instruction

	switch name {
	case aliasJSRR:
		in.Opcode = isa.OP_JSR
	case aliasRET:
		in.Opcode = isa.OP_JMP
	default:
		op, ok := isa.LookupOpcode(name)

		if !ok {
			return in, fmt.Errorf("%w: unknown opcode %q", ErrSyntax, tokens[0])
		}

		in.Opcode = op
	}

	var fields []field

	switch in.Opcode {
	case isa.OP_BR:
		fields = []field{{&in.Cond, 3}, {&in.PCOffset9, 9}}

	case isa.OP_ADD, isa.OP_AND:
		if len(args) != 4 {
			return in, arity(name, 4, len(args))
		}

		if err := parseField(args[2], field{&in.Mode, 1}); err != nil {
			return in, err
		}

		if in.Mode == 1 {
			fields = []field{{&in.DR, 3}, {&in.SR1, 3}, {&in.Mode, 1}, {&in.Imm5, 5}}
		} else {
			fields = []field{{&in.DR, 3}, {&in.SR1, 3}, {&in.Mode, 1}, {&in.SR2, 3}}
		}

	case isa.OP_LD, isa.OP_LDI, isa.OP_LEA:
		fields = []field{{&in.DR, 3}, {&in.PCOffset9, 9}}

	case isa.OP_ST, isa.OP_STI:
		fields = []field{{&in.SR1, 3}, {&in.PCOffset9, 9}}

	case isa.OP_JSR:
		if len(args) != 2 {
			return in, arity(name, 2, len(args))
		}

		if err := parseField(args[0], field{&in.Mode, 1}); err != nil {
			return in, err
		}

		if (name == aliasJSRR) == (in.Mode == 1) {
			return in, fmt.Errorf("%w: %s with mode %d", ErrSyntax, name, in.Mode)
		}

		if in.Mode == 1 {
			fields = []field{{&in.Mode, 1}, {&in.PCOffset11, 11}}
		} else {
			fields = []field{{&in.Mode, 1}, {&in.BaseR, 3}}
		}

	case isa.OP_LDR:
		fields = []field{{&in.DR, 3}, {&in.BaseR, 3}, {&in.Offset6, 6}}

	case isa.OP_STR:
		fields = []field{{&in.SR1, 3}, {&in.BaseR, 3}, {&in.Offset6, 6}}

	case isa.OP_NOT:
		fields = []field{{&in.DR, 3}, {&in.SR1, 3}}

	case isa.OP_JMP:
		fields = []field{{&in.BaseR, 3}}

	case isa.OP_TRAP:
		fields = []field{{&in.TrapVect, 8}}
	}

	if len(args) != len(fields) {
		return in, arity(name, len(fields), len(args))
	}

	for i, f := range fields {
		if err := parseField(args[i], f); err != nil {
			return in, err
		}
	}

	if name == aliasRET && in.BaseR != 7 {
		return in, fmt.Errorf("%w: RET with base register %d", ErrSyntax, in.BaseR)
	}

	return in, nil
}

type field struct {
	target *uint16
	bits   int
}

func parseField(token string, f field) error {
	value, err := strconv.ParseUint(token, 10, f.bits)

	if err != nil {
		return fmt.Errorf("%w: operand %q does not fit %d bits", ErrSyntax, token, f.bits)
	}

	*f.target = uint16(value)

	return nil
}

func arity(name string, want, have int) error {
	return fmt.Errorf("%w: %s takes %d operands, got %d", ErrSyntax, name, want, have)
}

func join(name string, operands ...uint16) string {
	var builder strings.Builder

	builder.WriteString(name)

	for _, operand := range operands {
		builder.WriteByte(' ')
		builder.WriteString(strconv.FormatUint(uint64(operand), 10))
	}

	return builder.String()
}
