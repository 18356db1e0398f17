// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import "github.com/pkg/errors"

// MessageError describes an issue decoding a block or transaction from an
// archive file. It lets a caller type-assert the error to distinguish a
// malformed-data condition from a general io error such as io.EOF or io.ErrUnexpectedEOF.
type MessageError struct {
	Func        string // Function name
	Description string // Human readable description of the issue
}

// Error satisfies the error interface.
func (e *MessageError) Error() string {
	if len(e.Func) > 0 {
		return e.Func + " : " + e.Description
	}
	return e.Description
}

func messageError(f string, desc string) *MessageError {
	return &MessageError{Func: f, Description: desc}
}

var (
	// ErrCorruptFile means the bytes at the current read position could not
	// be parsed as a valid block record. The reader should stop decoding
	// the rest of the current file and move on to the next one.
	ErrCorruptFile = errors.New("corrupt file")

	// ErrMalformedWitness means a segwit marker/flag was present but the
	// witness stack data that followed did not parse.
	ErrMalformedWitness = errors.New("malformed witness data")

	// ErrInvalidScriptLength means a decoded script, or count field guarding
	// one, exceeded the sanity bound and is almost certainly the result of
	// reading a corrupt or misaligned stream rather than a real script.
	ErrInvalidScriptLength = errors.New("invalid script length")
)
