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

package encoding

import (
	"errors"
	"strconv"
	"strings"
)

var ErrOddLength = errors.New("image has an odd number of bytes")

func DecodeHex(s string) (uint16, error) {
	if i := strings.IndexAny(s, "xX"); i == 0 {
		s = "0" + s
	} else if i == -1 || i != 1 {
		return 0, errors.New("Invalid hex string")
	}

	result, err := strconv.ParseUint(s, 0, 16)

	if err != nil {
		return 0, err
	}

	return uint16(result), nil
}

func DecodeInt(s string) (int16, error) {
	if i := strings.Index(s, "#"); i == 0 {
		s = s[1:]
	}

	result, err := strconv.ParseInt(s, 10, 16)

	if err != nil {
		return 0, err
	}

	return int16(result), nil
}

// DecodeAddr accepts either a hex address (0x####, x####) or a decimal
// value and returns it as a 16-bit word.
func DecodeAddr(s string) (uint16, error) {
	if value, err := DecodeHex(s); err == nil {
		return value, nil
	}

	result, err := strconv.ParseUint(strings.TrimPrefix(s, "#"), 10, 16)

	if err != nil {
		return 0, err
	}

	return uint16(result), nil
}

// SignExtend widens a bitcount-wide two's complement field to 16 bits.
func SignExtend(value uint16, bitcount uint16) uint16 {
	if (value>>(bitcount-1))&0x1 == 1 {
		value |= (0xFFFF << bitcount)
	}

	return value
}

// Words pairs a raw byte stream into big-endian 16-bit words.
func Words(data []byte) ([]uint16, error) {
	if len(data)%2 != 0 {
		return nil, ErrOddLength
	}

	result := make([]uint16, len(data)/2)

	for i := range result {
		result[i] = uint16(data[2*i])<<8 | uint16(data[2*i+1])
	}

	return result, nil
}
