// Package chaintip is the optional live-sync path: it polls a node's best
// block and keeps a small cache of the current chain tip, running a reorg
// walk whenever the node's tip diverges from what was last seen.
//
// This is the "out of scope for the core" feature original_source's
// sync_blockchain/keep_up_to_date/handle_reorg implement. It is kept
// structurally separate from wire/bitcoin/ingest/pgstore: those packages
// never import chaintip, and chaintip never makes the core pipeline depend
// on a live node being reachable.
package chaintip

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/bitcoinchain/blockimporter/archive"
	"github.com/bitcoinchain/blockimporter/bitcoin"
	"github.com/bitcoinchain/blockimporter/logger"
	"github.com/bitcoinchain/blockimporter/rpcnode"
)

// SubSystem is used by the logger package.
const SubSystem = "ChainTip"

// Node is the subset of rpcnode.RPCNode that chaintip depends on.
type Node interface {
	GetLatestBlock(ctx context.Context) (*bitcoin.Hash32, int32, error)
	GetBlockHash(ctx context.Context, height int32) (*bitcoin.Hash32, error)
	GetBlockHeader(ctx context.Context, hash *bitcoin.Hash32) (*rpcnode.HeaderInfo, error)
}

// Cache is the subset of archive.RedisCache that chaintip depends on.
type Cache interface {
	ChainTip(ctx context.Context) (string, error)
	SetChainTip(ctx context.Context, blockHash string) error
	AncestorSeen(ctx context.Context, blockHash string) (bool, error)
	MarkAncestorSeen(ctx context.Context, blockHash string) error
}

// MaxReorgDepth bounds how far back a reorg walk looks for a common
// ancestor before giving up. original_source has no such bound and would
// walk to genesis; this build treats that as a configuration error rather
// than hang indefinitely on an unrelated chain tip.
const MaxReorgDepth = 1000

// Syncer polls Node for its best block and reconciles Cache's notion of the
// chain tip against it, walking back through a reorg when the node's tip
// isn't a descendant of what was last recorded.
type Syncer struct {
	Node Node

	// ArchiveCache records the chain tip and the seen-set of ancestor
	// hashes; an *archive.RedisCache satisfies Cache.
	ArchiveCache Cache

	// PollInterval is how often Run polls Node for its best block.
	PollInterval time.Duration

	// OnReorg, if set, is called with the list of block hashes walked
	// during a reorg (new-tip-first), after the tip has been updated.
	OnReorg func(ctx context.Context, path []bitcoin.Hash32)
}

// NewSyncer creates a Syncer with the teacher's 10-second poll default
// (original_source's keep_up_to_date sleeps 10s between checks).
func NewSyncer(node Node, cache *archive.RedisCache) *Syncer {
	return &Syncer{
		Node:         node,
		ArchiveCache: cache,
		PollInterval: 10 * time.Second,
	}
}

// Run polls until ctx is cancelled, calling Poll once per interval. The
// first error from Poll stops the loop; transient RPC/cache failures are
// logged by Poll itself and do not stop it unless returned.
func (s *Syncer) Run(ctx context.Context) error {
	ctx = logger.ContextWithLogSubSystem(ctx, SubSystem)

	ticker := time.NewTicker(s.PollInterval)
	defer ticker.Stop()

	if err := s.Poll(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.Poll(ctx); err != nil {
				return err
			}
		}
	}
}

// Poll checks the node's current best block against the cached tip, and
// runs a reorg walk if they disagree.
func (s *Syncer) Poll(ctx context.Context) error {
	tipHash, tipHeight, err := s.Node.GetLatestBlock(ctx)
	if err != nil {
		logger.Error(ctx, "failed to fetch latest block : %s", err)
		return errors.Wrap(err, "GetLatestBlock")
	}

	cached, err := s.ArchiveCache.ChainTip(ctx)
	firstRun := errors.Cause(err) == archive.ErrNotFound
	if err != nil && !firstRun {
		logger.Error(ctx, "failed to read cached chain tip : %s", err)
		return errors.Wrap(err, "ChainTip")
	}

	if !firstRun && cached == tipHash.String() {
		return nil
	}

	if firstRun {
		// Nothing was recorded yet, so there is no prior tip to walk back
		// from: seed the cache with the node's current tip as the sole
		// known ancestor instead of attempting a reorg walk against it.
		logger.Verbose(ctx, "no cached chain tip yet, seeding with node tip %s (height %d)",
			tipHash.String(), tipHeight)

		if err := s.ArchiveCache.MarkAncestorSeen(ctx, tipHash.String()); err != nil {
			logger.Error(ctx, "failed to mark initial chain tip seen : %s", err)
			return errors.Wrap(err, "MarkAncestorSeen")
		}
		if err := s.ArchiveCache.SetChainTip(ctx, tipHash.String()); err != nil {
			logger.Error(ctx, "failed to seed cached chain tip to %s : %s", tipHash.String(), err)
			return errors.Wrap(err, "SetChainTip")
		}
		return nil
	}

	logger.Verbose(ctx, "node tip %s (height %d) differs from cached tip %q, checking for reorg",
		tipHash.String(), tipHeight, cached)

	path, err := s.handleReorg(ctx, tipHash)
	if err != nil {
		logger.Error(ctx, "failed to handle reorg to block %s : %s", tipHash.String(), err)
		return err
	}

	if err := s.ArchiveCache.SetChainTip(ctx, tipHash.String()); err != nil {
		logger.Error(ctx, "failed to update cached chain tip to %s : %s", tipHash.String(), err)
		return errors.Wrap(err, "SetChainTip")
	}

	if s.OnReorg != nil {
		s.OnReorg(ctx, path)
	}

	return nil
}
