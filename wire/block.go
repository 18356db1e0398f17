// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"io"

	"github.com/pkg/errors"
)

// maxTxPerBlock bounds the transaction count read from a block record
// before it is used to size an allocation.
const maxTxPerBlock = maxCountField

// Block is a fully decoded block record: its header plus every transaction
// it contains, in file order.
type Block struct {
	Header       *BlockHeader
	HeaderBytes  []byte // raw 80 byte header, for block hash computation
	Transactions []*Tx
}

// ReadBlock decodes one block record's header and every transaction that
// follows it from r. r must be positioned at the start of the header,
// meaning any magic/size framing preceding the record has already been
// consumed by the caller (ingest.FileReader).
func ReadBlock(r io.Reader) (*Block, error) {
	header, headerBytes, err := ReadBlockHeader(r)
	if err != nil {
		return nil, errors.Wrap(err, "read header")
	}

	txCount, err := ReadVarInt(r)
	if err != nil {
		return nil, errors.Wrap(err, "read tx count")
	}
	if txCount > maxTxPerBlock {
		return nil, errors.Wrapf(ErrCorruptFile, "tx count %d exceeds sanity bound", txCount)
	}

	block := &Block{
		Header:       header,
		HeaderBytes:  headerBytes,
		Transactions: make([]*Tx, 0, txCount),
	}

	for i := uint64(0); i < txCount; i++ {
		tx, err := ReadTx(r)
		if err != nil {
			return nil, errors.Wrapf(err, "read tx %d", i)
		}
		block.Transactions = append(block.Transactions, tx)
	}

	return block, nil
}
