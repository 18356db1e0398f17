package rpcnode

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/bitcoinchain/blockimporter/bitcoin"
)

// MockRpcNode is a minimal in-memory stand-in for RPCNode's chain-tip and
// header-walk surface, for testing chaintip without a live node.
type MockRpcNode struct {
	lock sync.Mutex

	tipHash   bitcoin.Hash32
	tipHeight int32

	headers map[bitcoin.Hash32]*HeaderInfo
}

// NewMockRpcNode creates an empty MockRpcNode.
func NewMockRpcNode() *MockRpcNode {
	return &MockRpcNode{headers: make(map[bitcoin.Hash32]*HeaderInfo)}
}

// SetTip sets the hash and height the mock reports as the current best
// block.
func (r *MockRpcNode) SetTip(hash bitcoin.Hash32, height int32) {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.tipHash = hash
	r.tipHeight = height
}

// AddHeader registers a header the mock can answer GetBlockHeader with.
func (r *MockRpcNode) AddHeader(header *HeaderInfo) {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.headers[header.Hash] = header
}

func (r *MockRpcNode) GetLatestBlock(ctx context.Context) (*bitcoin.Hash32, int32, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	hash := r.tipHash
	return &hash, r.tipHeight, nil
}

func (r *MockRpcNode) GetBlockHeader(ctx context.Context, hash *bitcoin.Hash32) (*HeaderInfo, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	header, ok := r.headers[*hash]
	if !ok {
		return nil, errors.Wrap(ErrNotSeen, hash.String())
	}
	return header, nil
}

// GetBlockHash returns the hash of whichever registered header carries the
// given height, mirroring RPCNode.GetBlockHash's "hash at height on the
// current best chain" semantics against the headers AddHeader registered.
func (r *MockRpcNode) GetBlockHash(ctx context.Context, height int32) (*bitcoin.Hash32, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	for hash, header := range r.headers {
		if header.Height == height {
			found := hash
			return &found, nil
		}
	}
	return nil, errors.Wrap(ErrNotSeen, "no header at height")
}
