// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/bitcoinchain/blockimporter/bitcoin"
)

// HeaderSize is the fixed on-disk size in bytes of a block header.
const HeaderSize = 80

// BlockHeader is the fixed 80 byte header present at the start of every
// block record.
type BlockHeader struct {
	Version       int32
	PreviousBlock bitcoin.Hash32
	MerkleRoot    bitcoin.Hash32
	Timestamp     uint32
	Bits          uint32
	Nonce         uint32
}

// ReadBlockHeader reads a BlockHeader from r, returning the raw 80 bytes
// read alongside the parsed header so the caller can hash them without
// re-serializing.
func ReadBlockHeader(r io.Reader) (*BlockHeader, []byte, error) {
	raw := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, nil, errors.Wrap(err, "read header")
	}

	h := &BlockHeader{}
	buf := bytes.NewReader(raw)

	if err := binary.Read(buf, endian, &h.Version); err != nil {
		return nil, nil, errors.Wrap(err, "read version")
	}
	if err := h.PreviousBlock.Deserialize(buf); err != nil {
		return nil, nil, errors.Wrap(err, "read previous block")
	}
	if err := h.MerkleRoot.Deserialize(buf); err != nil {
		return nil, nil, errors.Wrap(err, "read merkle root")
	}
	if err := binary.Read(buf, endian, &h.Timestamp); err != nil {
		return nil, nil, errors.Wrap(err, "read timestamp")
	}
	if err := binary.Read(buf, endian, &h.Bits); err != nil {
		return nil, nil, errors.Wrap(err, "read bits")
	}
	if err := binary.Read(buf, endian, &h.Nonce); err != nil {
		return nil, nil, errors.Wrap(err, "read nonce")
	}

	return h, raw, nil
}

// Serialize writes the canonical 80 byte encoding of the header to w.
func (h *BlockHeader) Serialize(w io.Writer) error {
	if err := binary.Write(w, endian, h.Version); err != nil {
		return err
	}
	if err := h.PreviousBlock.Serialize(w); err != nil {
		return err
	}
	if err := h.MerkleRoot.Serialize(w); err != nil {
		return err
	}
	if err := binary.Write(w, endian, h.Timestamp); err != nil {
		return err
	}
	if err := binary.Write(w, endian, h.Bits); err != nil {
		return err
	}
	return binary.Write(w, endian, h.Nonce)
}

// Bytes returns the canonical 80 byte encoding of the header.
func (h *BlockHeader) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(HeaderSize)
	if err := h.Serialize(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
