package chaintip

import (
	"context"

	"github.com/pkg/errors"

	"github.com/bitcoinchain/blockimporter/bitcoin"
	"github.com/bitcoinchain/blockimporter/logger"
)

// ErrReorgTooDeep is returned when a reorg walk exceeds MaxReorgDepth
// without finding a common ancestor, and when the node's best chain shifts
// under the walk (a walked hash is no longer the node's block at its
// height).
var ErrReorgTooDeep = errors.New("reorg walk exceeded max depth")

// handleReorg walks backwards from newTip through previous-block links,
// marking each hash seen in ArchiveCache, until it reaches a hash that was
// already marked seen by an earlier poll (the common ancestor with what
// was previously recorded as the chain). It returns the walked path,
// newest first, not including the common ancestor.
//
// This generalizes original_source's handle_reorg, which instead checks
// each hash against a `blocks` table row with active = TRUE; this build
// uses the cache's seen-set instead so chaintip has no pgstore/database
// dependency of its own.
func (s *Syncer) handleReorg(ctx context.Context, newTip *bitcoin.Hash32) ([]bitcoin.Hash32, error) {
	var path []bitcoin.Hash32

	current := *newTip
	for depth := 0; depth < MaxReorgDepth; depth++ {
		seen, err := s.ArchiveCache.AncestorSeen(ctx, current.String())
		if err != nil {
			return path, errors.Wrapf(err, "AncestorSeen: %s", current.String())
		}

		if seen {
			logger.Verbose(ctx, "found common ancestor %s after walking %d blocks",
				current.String(), depth)
			return path, nil
		}

		if err := s.ArchiveCache.MarkAncestorSeen(ctx, current.String()); err != nil {
			return path, errors.Wrapf(err, "MarkAncestorSeen: %s", current.String())
		}
		path = append(path, current)

		header, err := s.Node.GetBlockHeader(ctx, &current)
		if err != nil {
			return path, errors.Wrapf(err, "GetBlockHeader: %s", current.String())
		}

		// Confirm current is still the node's canonical block at its own
		// height: the node's best chain can itself shift while this walk is
		// in progress, and a header fetched by hash says nothing about
		// whether that hash is still part of the chain the node considers
		// best right now.
		canonical, err := s.Node.GetBlockHash(ctx, header.Height)
		if err != nil {
			return path, errors.Wrapf(err, "GetBlockHash: %d", header.Height)
		}
		if !canonical.Equal(&current) {
			return path, errors.Wrapf(ErrReorgTooDeep,
				"chain shifted under walk: height %d is now %s, not %s",
				header.Height, canonical.String(), current.String())
		}

		if header.PreviousBlock.IsZero() {
			logger.Verbose(ctx, "reorg walk reached genesis at %s", current.String())
			return path, nil
		}

		current = header.PreviousBlock
	}

	return path, errors.Wrapf(ErrReorgTooDeep, "from %s", newTip.String())
}
