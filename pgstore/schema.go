package pgstore

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

// dropSchemaSQL drops the five tables in dependency order (block_transactions
// references both blocks and transactions) so setup is re-runnable: the
// surrogate primary keys below are assigned from process-local counters
// that restart at 1 every run, so a stale table from a prior run would
// collide on id INT PRIMARY KEY for the very first row.
const dropSchemaSQL = `
DROP TABLE IF EXISTS block_transactions;
DROP TABLE IF EXISTS outputs;
DROP TABLE IF EXISTS inputs;
DROP TABLE IF EXISTS transactions;
DROP TABLE IF EXISTS blocks;
`

// schemaSQL creates the five tables the loader writes to. Binary
// identifiers are BYTEA in display (reversed) byte order. previous_output_index,
// locktime and value are BIGINT rather than INT: each can carry a value
// outside the signed 32 bit range (the coinbase sentinel 0xFFFFFFFF for
// previous_output_index in particular).
const schemaSQL = `
CREATE TABLE blocks (
	id INT PRIMARY KEY,
	block_hash BYTEA NOT NULL,
	height INT NOT NULL,
	time TIMESTAMP NOT NULL,
	difficulty DOUBLE PRECISION NOT NULL,
	merkle_root BYTEA NOT NULL,
	nonce DOUBLE PRECISION NOT NULL,
	size INT NOT NULL,
	version INT NOT NULL,
	bits BYTEA NOT NULL,
	previous_block BYTEA NOT NULL,
	active BOOLEAN NOT NULL
);

CREATE TABLE transactions (
	id INT PRIMARY KEY,
	txid BYTEA NOT NULL,
	block_hash BYTEA NOT NULL,
	size INT NOT NULL,
	version INT NOT NULL,
	locktime BIGINT NOT NULL
);

CREATE TABLE inputs (
	id INT PRIMARY KEY,
	txid BYTEA NOT NULL,
	input_index INT NOT NULL,
	previous_txid BYTEA NOT NULL,
	previous_output_index BIGINT NOT NULL,
	script_sig TEXT NOT NULL,
	sequence BIGINT NOT NULL
);

CREATE TABLE outputs (
	id INT PRIMARY KEY,
	txid BYTEA NOT NULL,
	output_index INT NOT NULL,
	value BIGINT NOT NULL,
	script_pub_key TEXT NOT NULL
);

CREATE TABLE block_transactions (
	id INT PRIMARY KEY,
	block_id INT NOT NULL,
	transaction_id INT NOT NULL
);

CREATE INDEX blocks_block_hash_idx ON blocks (block_hash);
CREATE INDEX transactions_txid_idx ON transactions (txid);
CREATE INDEX inputs_txid_idx ON inputs (txid);
CREATE INDEX outputs_txid_idx ON outputs (txid);
CREATE INDEX block_transactions_block_id_idx ON block_transactions (block_id);
`

// SetupSchema drops and recreates the blocks/transactions/inputs/outputs/
// block_transactions tables, matching the teacher's database.rs setup_schema:
// every import run starts from an empty schema rather than appending to one
// left over from a previous run.
func SetupSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, dropSchemaSQL); err != nil {
		return errors.Wrap(ErrSchemaSetup, err.Error())
	}
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return errors.Wrap(ErrSchemaSetup, err.Error())
	}
	return nil
}
