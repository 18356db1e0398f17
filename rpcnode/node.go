package rpcnode

/**
 * RPC Node Kit
 *
 * What is my purpose?
 * - You connect to a bitcoind node
 * - You answer chain-tip and block-header questions for live-sync
 */

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/rpcclient"
	"github.com/pkg/errors"

	"github.com/bitcoinchain/blockimporter/bitcoin"
	"github.com/bitcoinchain/blockimporter/logger"
)

const (
	// SubSystem is used by the logger package.
	SubSystem = "RPCNode"
)

var (
	// ErrNotSeen means the hash is not known to the node.
	ErrNotSeen = errors.New("No such mempool or blockchain transaction")
)

// RPCNode is a thin JSON-RPC client used by chaintip to poll the node's best
// block and walk block headers during a reorg check. It intentionally does
// not carry the teacher's wallet/UTXO/tx-broadcast surface: that is wallet
// tooling, out of scope for a block importer.
type RPCNode struct {
	client *rpcclient.Client
	Config *Config
}

// NewNode returns a new instance of an RPC node.
func NewNode(config *Config) (*RPCNode, error) {
	rpcConfig := rpcclient.ConnConfig{
		HTTPPostMode: true,
		DisableTLS:   true,
		Host:         config.Host,
		User:         config.Username,
		Pass:         config.Password,
	}

	client, err := rpcclient.New(&rpcConfig, nil)
	if err != nil {
		return nil, err
	}

	if config.RetryDelay == 0 { // default to 1/2 second delay
		config.RetryDelay = 500
	}

	return &RPCNode{client: client, Config: config}, nil
}

// ParseError converts the "<code>: <message>" formatted errors some RPC
// calls return into a known sentinel error when recognized.
func ParseError(err error) error {
	parts := strings.Split(err.Error(), ":")
	if len(parts) == 0 {
		return err
	}

	value, intErr := strconv.Atoi(strings.TrimSpace(parts[0]))
	if intErr != nil {
		return err
	}

	if value == -5 {
		return errors.Wrap(ErrNotSeen, err.Error())
	}

	return err
}

// ConvertError determines if the error is a known RPC type and converts it
// to the local error type.
func ConvertError(err error) error {
	c := errors.Cause(err)
	jsonErr, ok := c.(*btcjson.Error)
	if !ok {
		// They don't seem to be btcjson.Error but are formatted text
		// (int code : description). --ce
		return ParseError(err)
	}

	if jsonErr.ErrorCode == -5 {
		return errors.Wrap(ErrNotSeen, err.Error())
	}

	return err
}

// HeaderInfo is the subset of a block header chaintip needs to walk the
// chain backwards during a reorg check.
type HeaderInfo struct {
	Hash          bitcoin.Hash32
	PreviousBlock bitcoin.Hash32
	Height        int32
}

// GetLatestBlock returns the hash and height of the node's current best
// block.
func (r *RPCNode) GetLatestBlock(ctx context.Context) (*bitcoin.Hash32, int32, error) {
	ctx = logger.ContextWithLogSubSystem(ctx, SubSystem)
	defer logger.Elapsed(ctx, time.Now(), "GetLatestBlock")

	var err error
	var hash *chainhash.Hash
	for i := 0; i <= r.Config.MaxRetries; i++ {
		if i != 0 {
			time.Sleep(time.Duration(r.Config.RetryDelay) * time.Millisecond)
		}

		hash, err = r.client.GetBestBlockHash()
		if err == nil {
			break
		}

		logger.Error(ctx, "RPCCallFailed GetLatestBlock GetBestBlockHash : %v", err)
	}

	if err != nil {
		logger.Error(ctx, "RPCCallAborted GetLatestBlock GetBestBlockHash : %v", err)
		return nil, -1, errors.Wrap(err, "GetBestBlockHash")
	}

	bhash, err := bitcoin.NewHash32(hash[:])
	if err != nil {
		return nil, -1, errors.Wrap(err, "NewHash32")
	}

	var header *btcjson.GetBlockHeaderVerboseResult
	for i := 0; i <= r.Config.MaxRetries; i++ {
		if i != 0 {
			time.Sleep(time.Duration(r.Config.RetryDelay) * time.Millisecond)
		}

		header, err = r.client.GetBlockHeaderVerbose(hash)
		if err == nil {
			break
		}

		logger.Error(ctx, "RPCCallFailed GetLatestBlock GetBlockHeaderVerbose : %v", err)
	}

	if err != nil {
		logger.Error(ctx, "RPCCallAborted GetLatestBlock GetBlockHeaderVerbose : %v", err)
		return nil, -1, errors.Wrap(err, "GetBlockHeaderVerbose")
	}

	return bhash, header.Height, nil
}

// GetBlockHash returns the hash of the block at the given height on the
// node's current best chain.
func (r *RPCNode) GetBlockHash(ctx context.Context, height int32) (*bitcoin.Hash32, error) {
	ctx = logger.ContextWithLogSubSystem(ctx, SubSystem)
	defer logger.Elapsed(ctx, time.Now(), "GetBlockHash")

	var err error
	var hash *chainhash.Hash
	for i := 0; i <= r.Config.MaxRetries; i++ {
		if i != 0 {
			time.Sleep(time.Duration(r.Config.RetryDelay) * time.Millisecond)
		}

		hash, err = r.client.GetBlockHash(int64(height))
		if err == nil {
			break
		}

		logger.Error(ctx, "RPCCallFailed GetBlockHash %d : %v", height, err)
	}

	if err != nil {
		logger.Error(ctx, "RPCCallAborted GetBlockHash %d : %v", height, err)
		return nil, errors.Wrap(err, "GetBlockHash")
	}

	return bitcoin.NewHash32(hash[:])
}

// GetBlockHeader fetches the header (and its ancestry link) for the given
// block hash, for walking the chain backwards while checking for a reorg.
func (r *RPCNode) GetBlockHeader(ctx context.Context, hash *bitcoin.Hash32) (*HeaderInfo, error) {
	ctx = logger.ContextWithLogSubSystem(ctx, SubSystem)
	defer logger.Elapsed(ctx, time.Now(), "GetBlockHeader")

	ch, err := chainhash.NewHash(hash[:])
	if err != nil {
		return nil, errors.Wrap(err, "NewHash")
	}

	var header *btcjson.GetBlockHeaderVerboseResult
	for i := 0; i <= r.Config.MaxRetries; i++ {
		if i != 0 {
			time.Sleep(time.Duration(r.Config.RetryDelay) * time.Millisecond)
		}

		header, err = r.client.GetBlockHeaderVerbose(ch)
		if err == nil {
			break
		}

		err = errors.Wrap(ConvertError(err), hash.String())
		logger.Error(ctx, "RPCCallFailed GetBlockHeader %s : %v", hash.String(), err)
	}

	if err != nil {
		logger.Error(ctx, "RPCCallAborted GetBlockHeader %s : %v", hash.String(), err)
		return nil, err
	}

	var previous bitcoin.Hash32
	if header.PreviousHash != "" {
		p, err := bitcoin.NewHash32FromStr(header.PreviousHash)
		if err != nil {
			return nil, errors.Wrap(err, "PreviousHash")
		}
		previous = *p
	}

	return &HeaderInfo{
		Hash:          *hash,
		PreviousBlock: previous,
		Height:        header.Height,
	}, nil
}
