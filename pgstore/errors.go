package pgstore

import "github.com/pkg/errors"

var (
	// ErrMissingConfig means a required connection setting was not supplied.
	ErrMissingConfig = errors.New("missing database config")

	// ErrSchemaSetup means the blocks/transactions/inputs/outputs/block_transactions
	// tables could not be created.
	ErrSchemaSetup = errors.New("schema setup failed")

	// ErrBulkInsertFailed means the COPY transaction for one block failed and
	// was rolled back. The caller drops the block and continues with the next.
	ErrBulkInsertFailed = errors.New("bulk insert failed")
)
