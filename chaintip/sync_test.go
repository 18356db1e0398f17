package chaintip

import (
	"context"
	"fmt"
	"testing"

	"github.com/pkg/errors"

	"github.com/bitcoinchain/blockimporter/archive"
	"github.com/bitcoinchain/blockimporter/bitcoin"
	"github.com/bitcoinchain/blockimporter/rpcnode"
)

type fakeCache struct {
	tip  string
	seen map[string]bool
}

func newFakeCache() *fakeCache {
	return &fakeCache{seen: make(map[string]bool)}
}

func (c *fakeCache) ChainTip(ctx context.Context) (string, error) {
	if c.tip == "" {
		return "", archive.ErrNotFound
	}
	return c.tip, nil
}

func (c *fakeCache) SetChainTip(ctx context.Context, blockHash string) error {
	c.tip = blockHash
	return nil
}

func (c *fakeCache) AncestorSeen(ctx context.Context, blockHash string) (bool, error) {
	return c.seen[blockHash], nil
}

func (c *fakeCache) MarkAncestorSeen(ctx context.Context, blockHash string) error {
	c.seen[blockHash] = true
	return nil
}

func mustHash(t *testing.T, hex string) bitcoin.Hash32 {
	t.Helper()
	h, err := bitcoin.NewHash32FromStr(hex)
	if err != nil {
		t.Fatalf("NewHash32FromStr(%s): %s", hex, err)
	}
	return *h
}

func Test_Syncer_Poll_FirstRunSetsTipWithoutReorgWalk(t *testing.T) {
	ctx := context.Background()

	tip := mustHash(t, "1111111111111111111111111111111111111111111111111111111111111111"[:64])

	node := rpcnode.NewMockRpcNode()
	node.SetTip(tip, 10)

	cache := newFakeCache()
	syncer := &Syncer{Node: node, ArchiveCache: cache}

	if err := syncer.Poll(ctx); err != nil {
		t.Fatalf("Poll: %s", err)
	}

	if cache.tip != tip.String() {
		t.Errorf("cache.tip = %s, want %s", cache.tip, tip.String())
	}
	if !cache.seen[tip.String()] {
		t.Errorf("expected tip %s to be marked seen", tip.String())
	}
}

func Test_Syncer_Poll_NoOpWhenTipUnchanged(t *testing.T) {
	ctx := context.Background()

	tip := mustHash(t, "2222222222222222222222222222222222222222222222222222222222222222"[:64])

	node := rpcnode.NewMockRpcNode()
	node.SetTip(tip, 10)

	cache := newFakeCache()
	cache.tip = tip.String()

	syncer := &Syncer{Node: node, ArchiveCache: cache}

	if err := syncer.Poll(ctx); err != nil {
		t.Fatalf("Poll: %s", err)
	}

	if len(cache.seen) != 0 {
		t.Errorf("expected no ancestor walk when tip unchanged, marked %d", len(cache.seen))
	}
}

func Test_Syncer_HandleReorg_WalksBackToCommonAncestor(t *testing.T) {
	ctx := context.Background()

	ancestor := mustHash(t, "3333333333333333333333333333333333333333333333333333333333333333"[:64])
	forkA := mustHash(t, "4444444444444444444444444444444444444444444444444444444444444444"[:64])
	forkB := mustHash(t, "5555555555555555555555555555555555555555555555555555555555555555"[:64])

	node := rpcnode.NewMockRpcNode()
	node.AddHeader(&rpcnode.HeaderInfo{Hash: forkB, PreviousBlock: ancestor, Height: 12})

	cache := newFakeCache()
	cache.tip = forkA.String()
	cache.seen[ancestor.String()] = true
	cache.seen[forkA.String()] = true

	syncer := &Syncer{Node: node, ArchiveCache: cache}

	path, err := syncer.handleReorg(ctx, &forkB)
	if err != nil {
		t.Fatalf("handleReorg: %s", err)
	}

	if len(path) != 1 || path[0] != forkB {
		t.Fatalf("handleReorg() path = %v, want [forkB]", path)
	}
	if !cache.seen[forkB.String()] {
		t.Errorf("expected forkB marked seen after reorg walk")
	}
}

func Test_Syncer_HandleReorg_PropagatesHeaderLookupFailure(t *testing.T) {
	ctx := context.Background()

	node := rpcnode.NewMockRpcNode()
	cache := newFakeCache()
	syncer := &Syncer{Node: node, ArchiveCache: cache}

	tip := mustHash(t, "6666666666666666666666666666666666666666666666666666666666666666"[:64])

	// No headers registered, so GetBlockHeader fails on the first hop.
	if _, err := syncer.handleReorg(ctx, &tip); err == nil {
		t.Fatalf("handleReorg() expected error when node has no header for tip")
	}
}

func Test_Syncer_HandleReorg_ExceedsMaxDepthReturnsErrReorgTooDeep(t *testing.T) {
	ctx := context.Background()

	node := rpcnode.NewMockRpcNode()
	cache := newFakeCache()
	syncer := &Syncer{Node: node, ArchiveCache: cache}

	// Build a chain longer than MaxReorgDepth with no common ancestor ever
	// marked seen, so the walk must hit the depth bound rather than find
	// a shared block or reach genesis.
	chain := make([]bitcoin.Hash32, MaxReorgDepth+10)
	for i := range chain {
		chain[i] = mustHash(t, fmt.Sprintf("%064x", i+1))
	}
	for i, hash := range chain {
		previous := chain[i]
		if i+1 < len(chain) {
			previous = chain[i+1]
		}
		node.AddHeader(&rpcnode.HeaderInfo{Hash: hash, PreviousBlock: previous, Height: int32(len(chain) - i)})
	}

	_, err := syncer.handleReorg(ctx, &chain[0])
	if errors.Cause(err) != ErrReorgTooDeep {
		t.Fatalf("handleReorg() error = %v, want ErrReorgTooDeep", err)
	}
}
