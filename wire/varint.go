// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"encoding/binary"
	"io"
	"math"
)

var endian = binary.LittleEndian

// ReadVarInt reads a variable length integer from r and returns its value.
//
// Unlike the peer-to-peer wire protocol this package's ancestor decodes,
// archive files are not adversarial input from an untrusted network peer, so
// non-minimal ("non-canonical") varint encodings are accepted rather than
// rejected; callers that need the count of bytes consumed use ReadVarIntN.
func ReadVarInt(r io.Reader) (uint64, error) {
	_, value, err := ReadVarIntN(r)
	return value, err
}

// ReadVarIntN reads a variable length integer from r and returns both the
// number of bytes consumed and its value.
func ReadVarIntN(r io.Reader) (uint64, uint64, error) {
	var discriminant uint8
	if err := binary.Read(r, endian, &discriminant); err != nil {
		return 0, 0, err
	}

	switch discriminant {
	case 0xff:
		var v uint64
		if err := binary.Read(r, endian, &v); err != nil {
			return 0, 0, err
		}
		return 9, v, nil

	case 0xfe:
		var v uint32
		if err := binary.Read(r, endian, &v); err != nil {
			return 0, 0, err
		}
		return 5, uint64(v), nil

	case 0xfd:
		var v uint16
		if err := binary.Read(r, endian, &v); err != nil {
			return 0, 0, err
		}
		return 3, uint64(v), nil

	default:
		return 1, uint64(discriminant), nil
	}
}

// WriteVarInt serializes val to w using a variable number of bytes depending
// on its value.
func WriteVarInt(w io.Writer, val uint64) error {
	if val < 0xfd {
		return binary.Write(w, endian, uint8(val))
	}

	if val <= math.MaxUint16 {
		if err := binary.Write(w, endian, uint8(0xfd)); err != nil {
			return err
		}
		return binary.Write(w, endian, uint16(val))
	}

	if val <= math.MaxUint32 {
		if err := binary.Write(w, endian, uint8(0xfe)); err != nil {
			return err
		}
		return binary.Write(w, endian, uint32(val))
	}

	if err := binary.Write(w, endian, uint8(0xff)); err != nil {
		return err
	}
	return binary.Write(w, endian, val)
}

// VarIntSerializeSize returns the number of bytes it would take to serialize
// val as a variable length integer.
func VarIntSerializeSize(val uint64) int {
	if val < 0xfd {
		return 1
	}
	if val <= math.MaxUint16 {
		return 3
	}
	if val <= math.MaxUint32 {
		return 5
	}
	return 9
}
