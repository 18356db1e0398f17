package ingest

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/bitcoinchain/blockimporter/wire"
)

// genesisBlockHex is the 285 byte genesis block record, reused from the
// wire package's own decoder tests.
const genesisBlockHex = "0100000000000000000000000000000000000000000000000000000000000000000000003ba3" +
	"edfd7a7b12b27ac72c3e67768f617fc81bc3888a51323a9fb8aa4b1e5e4a29ab5f49ffff001d" +
	"1dac2b7c01010000000100000000000000000000000000000000000000000000000000000000" +
	"00000000ffffffff4d04ffff001d0104455468652054696d65732030332f4a616e2f32303039" +
	"204368616e63656c6c6f72206f6e206272696e6b206f66207365636f6e64206261696c6f7574" +
	"20666f722062616e6b73ffffffff0100f2052a01000000434104678afdb0fe5548271967f1a6" +
	"7130b7105cd6a828e03909a67962e0ea1f61deb649f6bc3f4cef38c4f35504e51ec112de5c38" +
	"4df7ba0b8d578a4c702b6bf11d5fac00000000"

const genesisBlockHashHex = "000000000019d6689c085ae165831e934ff763ae46a2a6c172b3f1b60a8ce26f"

func decodeGenesis(t *testing.T) *wire.Block {
	t.Helper()
	raw, err := hex.DecodeString(genesisBlockHex)
	if err != nil {
		t.Fatalf("decode fixture hex: %s", err)
	}
	block, err := wire.ReadBlock(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("wire.ReadBlock: %s", err)
	}
	return block
}

func Test_Hasher_Hash_Genesis(t *testing.T) {
	raw := decodeGenesis(t)

	h := NewHasher(0)
	block, err := h.Hash(raw, "blk00000.dat")
	if err != nil {
		t.Fatalf("Hash: %s", err)
	}

	if block.BlockHash.String() != genesisBlockHashHex {
		t.Errorf("wrong block hash: got %s want %s", block.BlockHash.String(), genesisBlockHashHex)
	}

	diff := block.Difficulty - 1.0
	if diff < 0 {
		diff = -diff
	}
	if diff > 1e-9 {
		t.Errorf("wrong difficulty: got %v want ~1.0", block.Difficulty)
	}

	if len(block.Transactions) != 1 {
		t.Fatalf("wrong tx count: got %d want 1", len(block.Transactions))
	}

	tx := block.Transactions[0]
	if len(tx.Inputs) != 1 {
		t.Fatalf("wrong input count: got %d want 1", len(tx.Inputs))
	}
	if !tx.Inputs[0].PreviousTxID.IsZero() {
		t.Errorf("coinbase previous txid should be all zero")
	}
	if tx.Inputs[0].PreviousOutputIndex != 0xFFFFFFFF {
		t.Errorf("wrong previous output index: got 0x%x", tx.Inputs[0].PreviousOutputIndex)
	}
	if tx.Inputs[0].Index != 0 {
		t.Errorf("input index should equal its position: got %d", tx.Inputs[0].Index)
	}

	if len(tx.Outputs) != 1 {
		t.Fatalf("wrong output count: got %d want 1", len(tx.Outputs))
	}
	if tx.Outputs[0].Value != 5000000000 {
		t.Errorf("wrong output value: got %d want 5000000000", tx.Outputs[0].Value)
	}
	if tx.Outputs[0].Index != 0 {
		t.Errorf("output index should equal its position: got %d", tx.Outputs[0].Index)
	}

	wantBlockSize := int32(wire.HeaderSize) + tx.Size
	if block.Size != wantBlockSize {
		t.Errorf("block size should equal header plus sum of tx sizes: got %d want %d",
			block.Size, wantBlockSize)
	}
}

func Test_Hasher_TxID_Deterministic(t *testing.T) {
	raw1 := decodeGenesis(t)
	raw2 := decodeGenesis(t)

	h := NewHasher(2)
	block1, err := h.Hash(raw1, "a")
	if err != nil {
		t.Fatalf("Hash: %s", err)
	}
	block2, err := h.Hash(raw2, "b")
	if err != nil {
		t.Fatalf("Hash: %s", err)
	}

	if !block1.Transactions[0].TxID.Equal(&block2.Transactions[0].TxID) {
		t.Errorf("two decodes of the same transaction produced different txids")
	}
}
