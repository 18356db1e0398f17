package pgstore

import (
	"context"
	"testing"

	"github.com/bitcoinchain/blockimporter/bitcoin"
	"github.com/bitcoinchain/blockimporter/ingest"
)

func mustHash(t *testing.T, hexDisplay string) bitcoin.Hash32 {
	t.Helper()
	h, err := bitcoin.NewHash32FromStr(hexDisplay)
	if err != nil {
		t.Fatalf("NewHash32FromStr(%s): %s", hexDisplay, err)
	}
	return *h
}

func sampleBlock(t *testing.T, txid bitcoin.Hash32) *ingest.Block {
	t.Helper()
	return &ingest.Block{
		Version:       1,
		PreviousBlock: mustHash(t, "0000000000000000000000000000000000000000000000000000000000000000"[:64]),
		MerkleRoot:    txid,
		Time:          1231006505,
		Bits:          0x1d00ffff,
		Nonce:         2083236893,
		BlockHash:     mustHash(t, "000000000019d6689c085ae165831e934ff763ae46a2a6c172b3f1b60a8ce26f"),
		Size:          286,
		Difficulty:    1.0,
		Active:        true,
		Transactions: []*ingest.Transaction{
			{
				Version:  1,
				LockTime: 0,
				TxID:     txid,
				Size:     204,
				Inputs: []*ingest.Input{
					{
						Index:               0,
						PreviousTxID:        bitcoin.Hash32{},
						PreviousOutputIndex: 0xFFFFFFFF,
						ScriptSig:           []byte{0x04},
						Sequence:            0xFFFFFFFF,
					},
				},
				Outputs: []*ingest.Output{
					{Index: 0, Value: 5_000_000_000, ScriptPubKey: []byte{0x41}},
				},
			},
		},
	}
}

func Test_Loader_BuildRows_AssignsSequentialIDsAcrossCalls(t *testing.T) {
	l := NewLoader(nil)
	ctx := context.Background()

	txid1 := mustHash(t, "1111111111111111111111111111111111111111111111111111111111111111"[:64])
	txid2 := mustHash(t, "2222222222222222222222222222222222222222222222222222222222222222"[:64])

	blockRows1, txRows1, inputRows1, outputRows1, blockTxRows1 := l.buildRows(ctx, sampleBlock(t, txid1))
	if len(blockRows1) != 1 || len(txRows1) != 1 || len(inputRows1) != 1 || len(outputRows1) != 1 || len(blockTxRows1) != 1 {
		t.Fatalf("unexpected row counts for first block: %d %d %d %d %d",
			len(blockRows1), len(txRows1), len(inputRows1), len(outputRows1), len(blockTxRows1))
	}
	if got := blockRows1[0][0].(int32); got != 1 {
		t.Fatalf("first block id = %d, want 1", got)
	}
	if got := txRows1[0][0].(int32); got != 1 {
		t.Fatalf("first tx id = %d, want 1", got)
	}

	blockRows2, txRows2, _, _, _ := l.buildRows(ctx, sampleBlock(t, txid2))
	if got := blockRows2[0][0].(int32); got != 2 {
		t.Fatalf("second block id = %d, want 2", got)
	}
	if got := txRows2[0][0].(int32); got != 2 {
		t.Fatalf("second tx id = %d, want 2", got)
	}
}

func Test_Loader_BuildRows_SuppressesSecondBIP30Occurrence(t *testing.T) {
	l := NewLoader(nil)
	ctx := context.Background()

	conflict := mustHash(t, "e3bf3d07d4b0375638d5f1db5255fe07ba2c4cb067cd81b84ee974b6585fb468")

	_, txRowsFirst, _, _, blockTxRowsFirst := l.buildRows(ctx, sampleBlock(t, conflict))
	if len(txRowsFirst) != 1 || len(blockTxRowsFirst) != 1 {
		t.Fatalf("first occurrence of conflict txid should be inserted, got %d tx rows", len(txRowsFirst))
	}

	blockRowsSecond, txRowsSecond, inputRowsSecond, outputRowsSecond, blockTxRowsSecond := l.buildRows(ctx, sampleBlock(t, conflict))
	if len(blockRowsSecond) != 1 {
		t.Fatalf("block row must still be inserted on the second occurrence")
	}
	if len(txRowsSecond) != 0 || len(inputRowsSecond) != 0 || len(outputRowsSecond) != 0 || len(blockTxRowsSecond) != 0 {
		t.Fatalf("second occurrence of conflict txid should be fully suppressed, got tx=%d input=%d output=%d blockTx=%d",
			len(txRowsSecond), len(inputRowsSecond), len(outputRowsSecond), len(blockTxRowsSecond))
	}
}

func Test_Loader_BuildRows_NonConflictTxIDNeverSuppressed(t *testing.T) {
	l := NewLoader(nil)
	ctx := context.Background()

	txid := mustHash(t, "abababababababababababababababababababababababababababababababab"[:64])

	_, txRowsFirst, _, _, _ := l.buildRows(ctx, sampleBlock(t, txid))
	_, txRowsSecond, _, _, _ := l.buildRows(ctx, sampleBlock(t, txid))

	if len(txRowsFirst) != 1 || len(txRowsSecond) != 1 {
		t.Fatalf("a repeated non-conflict txid must never be suppressed")
	}
}

func Test_BitsBytes_BigEndian(t *testing.T) {
	got := bitsBytes(0x1d00ffff)
	want := []byte{0x1d, 0x00, 0xff, 0xff}
	if len(got) != len(want) {
		t.Fatalf("bitsBytes length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("bitsBytes()[%d] = %#x, want %#x", i, got[i], want[i])
		}
	}
}

func Test_BIP30Tracker_SuppressOnlyKnownConflicts(t *testing.T) {
	tr := newBIP30Tracker()
	other := mustHash(t, "cdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcdcd"[:64])

	if tr.suppress(other) {
		t.Fatalf("a non-conflict txid must never be suppressed")
	}

	conflict := mustHash(t, "d5d27987d2a3dfc724e359870c6644b40e497bdc0589a033220fe15429d88599")
	if tr.suppress(conflict) {
		t.Fatalf("first occurrence of a conflict txid must not be suppressed")
	}
	if !tr.suppress(conflict) {
		t.Fatalf("second occurrence of a conflict txid must be suppressed")
	}
	if !tr.suppress(conflict) {
		t.Fatalf("every occurrence after the first must be suppressed")
	}
}
