// Package pgstore is the Bulk Loader: it takes fully decoded, hashed
// ingest.Block values and writes them to PostgreSQL with one COPY
// transaction per block, across the blocks/transactions/inputs/outputs/
// block_transactions tables.
package pgstore

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"github.com/bitcoinchain/blockimporter/ingest"
	"github.com/bitcoinchain/blockimporter/logger"
)

// Archiver persists a block the loader could not insert, so it isn't lost
// when it's dropped from the pipeline.
type Archiver interface {
	ArchiveFailedBlock(ctx context.Context, block *ingest.Block, cause error) error
}

// Loader implements ingest.Loader against a pgx connection pool. The surrogate
// integer primary keys are assigned from process-lifetime counters rather
// than sequences, so a single COPY per table can carry the exact ids used by
// block_transactions's foreign keys without a round trip.
type Loader struct {
	pool     *pgxpool.Pool
	bip30    *bip30Tracker
	archiver Archiver

	nextBlockID   int64
	nextTxID      int64
	nextInputID   int64
	nextOutputID  int64
	nextBlockTxID int64
}

// NewLoader creates a Loader. Call SetupSchema once before the first LoadBlock.
func NewLoader(pool *pgxpool.Pool) *Loader {
	return &Loader{pool: pool, bip30: newBIP30Tracker()}
}

// WithArchiver attaches an Archiver that receives a copy of every block the
// loader fails to insert, and returns the Loader for chaining.
func (l *Loader) WithArchiver(archiver Archiver) *Loader {
	l.archiver = archiver
	return l
}

// LoadBlock writes one block and all of its transactions, inputs and outputs
// inside a single transaction, via COPY. A duplicate BIP30 coinbase txid that
// has already been loaded once is dropped with a warning logged (its inputs
// and outputs along with it); the block row is always written.
func (l *Loader) LoadBlock(ctx context.Context, block *ingest.Block) error {
	blockRows, txRows, inputRows, outputRows, blockTxRows := l.buildRows(ctx, block)

	if err := l.copyBlock(ctx, blockRows, txRows, inputRows, outputRows, blockTxRows); err != nil {
		l.archive(ctx, block, err)
		return err
	}

	return nil
}

func (l *Loader) copyBlock(ctx context.Context, blockRows, txRows, inputRows, outputRows,
	blockTxRows [][]any) error {

	dbtx, err := l.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(ErrBulkInsertFailed, err.Error())
	}
	defer dbtx.Rollback(ctx)

	if err := copyRows(ctx, dbtx, "blocks",
		[]string{"id", "block_hash", "height", "time", "difficulty", "merkle_root",
			"nonce", "size", "version", "bits", "previous_block", "active"},
		blockRows); err != nil {
		return err
	}

	if err := copyRows(ctx, dbtx, "transactions",
		[]string{"id", "txid", "block_hash", "size", "version", "locktime"},
		txRows); err != nil {
		return err
	}

	if err := copyRows(ctx, dbtx, "inputs",
		[]string{"id", "txid", "input_index", "previous_txid", "previous_output_index",
			"script_sig", "sequence"},
		inputRows); err != nil {
		return err
	}

	if err := copyRows(ctx, dbtx, "outputs",
		[]string{"id", "txid", "output_index", "value", "script_pub_key"},
		outputRows); err != nil {
		return err
	}

	if err := copyRows(ctx, dbtx, "block_transactions",
		[]string{"id", "block_id", "transaction_id"},
		blockTxRows); err != nil {
		return err
	}

	if err := dbtx.Commit(ctx); err != nil {
		return errors.Wrap(ErrBulkInsertFailed, err.Error())
	}

	return nil
}

// archive hands a failed block to the configured Archiver, if any. A
// failure to archive is logged, not returned: the original insert error is
// what the caller needs to see.
func (l *Loader) archive(ctx context.Context, block *ingest.Block, cause error) {
	if l.archiver == nil {
		return
	}
	if err := l.archiver.ArchiveFailedBlock(ctx, block, cause); err != nil {
		logger.Error(ctx, "failed to archive dropped block %s: %s", block.BlockHash, err)
	}
}

// buildRows assigns surrogate ids and converts one decoded block into the
// row sets for all five tables, suppressing any second occurrence of a
// BIP30 conflict txid. It has no database dependency so it can be tested
// without a connection.
func (l *Loader) buildRows(ctx context.Context, block *ingest.Block) (blockRows, txRows, inputRows, outputRows, blockTxRows [][]any) {
	blockID := atomic.AddInt64(&l.nextBlockID, 1)

	for _, tx := range block.Transactions {
		if l.bip30.suppress(tx.TxID) {
			logger.Warn(ctx, "suppressing duplicate BIP30 coinbase txid %s", tx.TxID)
			continue
		}

		txID := atomic.AddInt64(&l.nextTxID, 1)

		txRows = append(txRows, []any{
			int32(txID),
			tx.TxID.ReverseBytes(),
			block.BlockHash.ReverseBytes(),
			tx.Size,
			tx.Version,
			int64(tx.LockTime),
		})

		for _, in := range tx.Inputs {
			inputID := atomic.AddInt64(&l.nextInputID, 1)
			inputRows = append(inputRows, []any{
				int32(inputID),
				tx.TxID.ReverseBytes(),
				in.Index,
				in.PreviousTxID.ReverseBytes(),
				int64(in.PreviousOutputIndex),
				string(in.ScriptSig),
				int64(in.Sequence),
			})
		}

		for _, out := range tx.Outputs {
			outputID := atomic.AddInt64(&l.nextOutputID, 1)
			outputRows = append(outputRows, []any{
				int32(outputID),
				tx.TxID.ReverseBytes(),
				out.Index,
				out.Value,
				string(out.ScriptPubKey),
			})
		}

		blockTxID := atomic.AddInt64(&l.nextBlockTxID, 1)
		blockTxRows = append(blockTxRows, []any{
			int32(blockTxID),
			int32(blockID),
			int32(txID),
		})
	}

	blockRows = [][]any{{
		int32(blockID),
		block.BlockHash.ReverseBytes(),
		block.Height,
		time.Unix(int64(block.Time), 0).UTC(),
		block.Difficulty,
		block.MerkleRoot.ReverseBytes(),
		float64(block.Nonce),
		block.Size,
		block.Version,
		bitsBytes(block.Bits),
		block.PreviousBlock.ReverseBytes(),
		block.Active,
	}}

	return blockRows, txRows, inputRows, outputRows, blockTxRows
}

func copyRows(ctx context.Context, dbtx pgx.Tx, table string, columns []string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}

	_, err := dbtx.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return errors.Wrapf(ErrBulkInsertFailed, "%s: %s", table, err)
	}
	return nil
}

// bitsBytes renders the compact-target field as the 4 raw bytes, big-endian,
// matching the BYTEA schema variant.
func bitsBytes(bits uint32) []byte {
	return []byte{
		byte(bits >> 24),
		byte(bits >> 16),
		byte(bits >> 8),
		byte(bits),
	}
}
