package wire

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/bitcoinchain/blockimporter/bitcoin"
)

// genesisBlockHex is the 285 byte genesis block record: an 80 byte header,
// a one-byte tx count varint, and the single coinbase transaction.
const genesisBlockHex = "0100000000000000000000000000000000000000000000000000000000000000000000003ba3" +
	"edfd7a7b12b27ac72c3e67768f617fc81bc3888a51323a9fb8aa4b1e5e4a29ab5f49ffff001d" +
	"1dac2b7c01010000000100000000000000000000000000000000000000000000000000000000" +
	"00000000ffffffff4d04ffff001d0104455468652054696d65732030332f4a616e2f32303039" +
	"204368616e63656c6c6f72206f6e206272696e6b206f66207365636f6e64206261696c6f7574" +
	"20666f722062616e6b73ffffffff0100f2052a01000000434104678afdb0fe5548271967f1a6" +
	"7130b7105cd6a828e03909a67962e0ea1f61deb649f6bc3f4cef38c4f35504e51ec112de5c38" +
	"4df7ba0b8d578a4c702b6bf11d5fac00000000"

const genesisBlockHash = "000000000019d6689c085ae165831e934ff763ae46a2a6c172b3f1b60a8ce26f"
const genesisTxID = "4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda33b"

func decodeGenesisBlock(t *testing.T) *Block {
	t.Helper()
	raw, err := hex.DecodeString(genesisBlockHex)
	if err != nil {
		t.Fatalf("decode fixture hex: %s", err)
	}

	block, err := ReadBlock(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("ReadBlock: %s", err)
	}
	return block
}

func Test_ReadBlock_Genesis(t *testing.T) {
	block := decodeGenesisBlock(t)

	if block.Header.Version != 1 {
		t.Errorf("wrong version: got %d want 1", block.Header.Version)
	}
	if !block.Header.PreviousBlock.IsZero() {
		t.Errorf("genesis previous block should be all zero")
	}
	if block.Header.Timestamp != 1231006505 {
		t.Errorf("wrong timestamp: got %d want 1231006505", block.Header.Timestamp)
	}
	if block.Header.Bits != 0x1d00ffff {
		t.Errorf("wrong bits: got 0x%08x want 0x1d00ffff", block.Header.Bits)
	}
	if block.Header.Nonce != 2083236893 {
		t.Errorf("wrong nonce: got %d want 2083236893", block.Header.Nonce)
	}

	if len(block.Transactions) != 1 {
		t.Fatalf("wrong tx count: got %d want 1", len(block.Transactions))
	}

	tx := block.Transactions[0]
	if len(tx.TxIn) != 1 {
		t.Fatalf("wrong input count: got %d want 1", len(tx.TxIn))
	}
	if !tx.TxIn[0].PreviousOutPoint.Hash.IsZero() {
		t.Errorf("coinbase previous txid should be all zero")
	}
	if tx.TxIn[0].PreviousOutPoint.Index != 0xFFFFFFFF {
		t.Errorf("wrong previous output index: got 0x%x want 0xFFFFFFFF",
			tx.TxIn[0].PreviousOutPoint.Index)
	}

	if len(tx.TxOut) != 1 {
		t.Fatalf("wrong output count: got %d want 1", len(tx.TxOut))
	}
	if tx.TxOut[0].Value != 5000000000 {
		t.Errorf("wrong output value: got %d want 5000000000", tx.TxOut[0].Value)
	}
}

func Test_ReadBlock_Genesis_BlockHash(t *testing.T) {
	block := decodeGenesisBlock(t)

	hash := bitcoin.Hash32(bitcoin.DoubleSha256(block.HeaderBytes))
	if hash.String() != genesisBlockHash {
		t.Errorf("wrong block hash: got %s want %s", hash.String(), genesisBlockHash)
	}
}

func Test_ReadBlock_Genesis_TxID_Canonical(t *testing.T) {
	block := decodeGenesisBlock(t)
	tx := block.Transactions[0]

	canonical, err := tx.CanonicalBytes()
	if err != nil {
		t.Fatalf("CanonicalBytes: %s", err)
	}

	txid := bitcoin.Hash32(bitcoin.DoubleSha256(canonical))
	if txid.String() != genesisTxID {
		t.Errorf("wrong txid: got %s want %s", txid.String(), genesisTxID)
	}
}

func Test_ReadBlock_SerializedSizeMatchesInput(t *testing.T) {
	block := decodeGenesisBlock(t)
	tx := block.Transactions[0]

	raw, _ := hex.DecodeString(genesisBlockHex)
	// header (80) + tx count varint (1) + tx bytes
	expectedTxSize := len(raw) - HeaderSize - 1
	if tx.SerializedSize != expectedTxSize {
		t.Errorf("wrong serialized size: got %d want %d", tx.SerializedSize, expectedTxSize)
	}
}
