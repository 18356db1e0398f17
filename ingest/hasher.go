package ingest

import (
	"runtime"
	"sync"

	"github.com/pkg/errors"

	"github.com/bitcoinchain/blockimporter/bitcoin"
	"github.com/bitcoinchain/blockimporter/wire"
)

// Hasher derives block_hash/txid/size/difficulty from a decoded block. Its
// per-transaction hashing fans out across a bounded worker pool, the way
// block_processor.rs uses a rayon parallel iterator over the block's
// transactions; blocks themselves are processed one at a time to preserve
// file order downstream.
type Hasher struct {
	// Workers is the number of goroutines used to hash the transactions of
	// one block in parallel. Zero means runtime.GOMAXPROCS(0).
	Workers int
}

// NewHasher returns a Hasher using workers goroutines, or GOMAXPROCS if
// workers <= 0.
func NewHasher(workers int) *Hasher {
	return &Hasher{Workers: workers}
}

func (h *Hasher) workerCount() int {
	if h.Workers > 0 {
		return h.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// Hash computes every derived field of a decoded block: block hash,
// per-transaction txid/size, and difficulty. SourceFile is carried through
// for error/log context only.
func (h *Hasher) Hash(raw *wire.Block, sourceFile string) (*Block, error) {
	blockHash := bitcoin.Hash32(bitcoin.DoubleSha256(raw.HeaderBytes))

	difficulty, err := bitcoin.Difficulty(raw.Header.Bits)
	if err != nil {
		return nil, errors.Wrapf(err, "block %s", blockHash)
	}

	transactions, blockSize, err := h.hashTransactions(raw.Transactions)
	if err != nil {
		return nil, errors.Wrapf(err, "block %s", blockHash)
	}

	return &Block{
		Version:       raw.Header.Version,
		PreviousBlock: raw.Header.PreviousBlock,
		MerkleRoot:    raw.Header.MerkleRoot,
		Time:          raw.Header.Timestamp,
		Bits:          raw.Header.Bits,
		Nonce:         raw.Header.Nonce,
		BlockHash:     blockHash,
		Size:          int32(wire.HeaderSize) + blockSize,
		Difficulty:    difficulty,
		Active:        true,
		Height:        0,
		Transactions:  transactions,
		SourceFile:    sourceFile,
	}, nil
}

// hashTransactions hashes every transaction of a block in parallel,
// preserving their original order in the returned slice, and returns the
// sum of their sizes.
func (h *Hasher) hashTransactions(raw []*wire.Tx) ([]*Transaction, int32, error) {
	results := make([]*Transaction, len(raw))
	errs := make([]error, len(raw))

	jobs := make(chan int)
	var wg sync.WaitGroup

	workers := h.workerCount()
	if workers > len(raw) {
		workers = len(raw)
	}
	if workers < 1 {
		workers = 1
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				tx, err := hashTx(raw[i])
				results[i] = tx
				errs[i] = err
			}
		}()
	}

	for i := range raw {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	var total int32
	for i, err := range errs {
		if err != nil {
			return nil, 0, errors.Wrapf(err, "tx %d", i)
		}
		total += results[i].Size
	}

	return results, total, nil
}

// hashTx derives the txid and size of a single transaction.
func hashTx(tx *wire.Tx) (*Transaction, error) {
	canonical, err := tx.CanonicalBytes()
	if err != nil {
		return nil, errors.Wrap(err, "serialize canonical")
	}
	txid := bitcoin.Hash32(bitcoin.DoubleSha256(canonical))

	inputs := make([]*Input, len(tx.TxIn))
	for i, in := range tx.TxIn {
		inputs[i] = &Input{
			Index:               int32(i),
			PreviousTxID:        in.PreviousOutPoint.Hash,
			PreviousOutputIndex: in.PreviousOutPoint.Index,
			ScriptSig:           in.UnlockingScript,
			Sequence:            in.Sequence,
		}
	}

	outputs := make([]*Output, len(tx.TxOut))
	for i, out := range tx.TxOut {
		outputs[i] = &Output{
			Index:        int32(i),
			Value:        int64(out.Value),
			ScriptPubKey: out.LockingScript,
		}
	}

	var witness [][][]byte
	if tx.HasWitness {
		witness = make([][][]byte, len(tx.TxIn))
		for i, in := range tx.TxIn {
			witness[i] = in.Witness
		}
	}

	return &Transaction{
		Version:  tx.Version,
		LockTime: tx.LockTime,
		Inputs:   inputs,
		Outputs:  outputs,
		Witness:  witness,
		TxID:     txid,
		Size:     int32(len(canonical)),
	}, nil
}
