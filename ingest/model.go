// Package ingest decodes raw block-archive records into normalized,
// hashed, sized rows ready for bulk loading, and orchestrates the
// concurrent pipeline that moves a block from file to database.
package ingest

import (
	"github.com/bitcoinchain/blockimporter/bitcoin"
)

// Block is a fully decoded and hashed block, ready for the bulk loader.
type Block struct {
	Version       int32
	PreviousBlock bitcoin.Hash32
	MerkleRoot    bitcoin.Hash32
	Time          uint32
	Bits          uint32
	Nonce         uint32

	BlockHash    bitcoin.Hash32
	Size         int32
	Difficulty   float64
	Active       bool
	Height       int32 // placeholder; back-filled by an external process
	Transactions []*Transaction

	// SourceFile is the archive file this block was read from, used only
	// for error/log context.
	SourceFile string
}

// Transaction is a fully decoded and hashed transaction belonging to a
// Block, in file order.
type Transaction struct {
	Version  int32
	LockTime uint32
	Inputs   []*Input
	Outputs  []*Output

	// Witness holds one stack per input, in input order, present iff the
	// transaction carried the segwit marker/flag pair. Witness bytes do
	// not contribute to TxID or Size.
	Witness [][][]byte

	TxID bitcoin.Hash32
	Size int32
}

// Input is a single transaction input, with its position within the
// owning transaction.
type Input struct {
	Index               int32
	PreviousTxID        bitcoin.Hash32
	PreviousOutputIndex uint32
	ScriptSig           []byte
	Sequence            uint32
}

// Output is a single transaction output, with its position within the
// owning transaction.
type Output struct {
	Index        int32
	Value        int64
	ScriptPubKey []byte
}
