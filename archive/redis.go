package archive

import (
	"context"
	"fmt"

	"github.com/gomodule/redigo/redis"
	"github.com/pkg/errors"
)

// RedisCache caches the live-sync chain tip and recently-seen ancestor
// hashes used during reorg walks. Adapted from the teacher's RedisStorage,
// narrowed from a generic key/value Storage implementation to these two
// domain uses.
type RedisCache struct {
	Conn redis.Conn
}

// NewRedisCache returns a new RedisCache over an existing connection.
func NewRedisCache(conn redis.Conn) *RedisCache {
	return &RedisCache{Conn: conn}
}

const chainTipKey = "blockimporter:chaintip"

// SetChainTip records the hash of the block currently considered the chain
// tip.
func (r *RedisCache) SetChainTip(ctx context.Context, blockHash string) error {
	if _, err := r.Conn.Do("SET", chainTipKey, blockHash); err != nil {
		return errors.Wrap(err, "set chain tip")
	}
	return r.Conn.Flush()
}

// ChainTip returns the last recorded chain tip hash, or ErrNotFound if none
// has been set yet.
func (r *RedisCache) ChainTip(ctx context.Context) (string, error) {
	resp, err := r.Conn.Do("GET", chainTipKey)
	if err != nil {
		return "", errors.Wrap(err, "get chain tip")
	}
	if resp == nil {
		return "", ErrNotFound
	}

	b, ok := resp.([]byte)
	if !ok {
		return "", ErrUnknownPayload
	}

	return string(b), nil
}

// seenAncestorKey namespaces the set of block hashes walked during a reorg,
// so a crashed reorg walk can resume without re-fetching ancestors it
// already confirmed were on the old chain.
func seenAncestorKey(blockHash string) string {
	return fmt.Sprintf("blockimporter:reorg-seen:%s", blockHash)
}

// MarkAncestorSeen records that blockHash was already walked during the
// current reorg.
func (r *RedisCache) MarkAncestorSeen(ctx context.Context, blockHash string) error {
	if _, err := r.Conn.Do("SETEX", seenAncestorKey(blockHash), 3600, "1"); err != nil {
		return errors.Wrap(err, "mark ancestor seen")
	}
	return r.Conn.Flush()
}

// AncestorSeen reports whether blockHash was already walked during the
// current reorg.
func (r *RedisCache) AncestorSeen(ctx context.Context, blockHash string) (bool, error) {
	resp, err := r.Conn.Do("GET", seenAncestorKey(blockHash))
	if err != nil {
		return false, errors.Wrap(err, "get ancestor seen")
	}
	return resp != nil, nil
}
