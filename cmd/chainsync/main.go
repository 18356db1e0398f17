// Command chainsync is the optional live-sync daemon: it polls a node's
// best block via chaintip.Syncer and keeps the chain tip cached in Redis,
// walking back through reorgs as they're detected. It never touches
// PostgreSQL and is independent of cmd/blockimporter.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"

	"github.com/bitcoinchain/blockimporter/archive"
	"github.com/bitcoinchain/blockimporter/bitcoin"
	"github.com/bitcoinchain/blockimporter/chaintip"
	"github.com/bitcoinchain/blockimporter/logger"
	"github.com/bitcoinchain/blockimporter/rpcnode"
	"github.com/bitcoinchain/blockimporter/threads"
)

type syncConfig struct {
	RedisHost    string `envconfig:"REDIS_HOST" required:"true"`
	PollInterval int    `envconfig:"CHAINSYNC_POLL_SECONDS" default:"10"`
}

func main() {
	ctx := logger.ContextWithLogConfig(context.Background(), logger.NewDevelopmentConfig())

	if err := run(ctx); err != nil {
		logger.Error(ctx, "chainsync failed : %s", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var rpcCfg rpcnode.Config
	if err := envconfig.Process("", &rpcCfg); err != nil {
		return errors.Wrap(err, "load rpc config")
	}
	logger.Info(ctx, "Connecting to node %s", rpcCfg)

	var syncCfg syncConfig
	if err := envconfig.Process("", &syncCfg); err != nil {
		return errors.Wrap(err, "load sync config")
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	node, err := rpcnode.NewNode(&rpcCfg)
	if err != nil {
		return errors.Wrap(err, "connect to node")
	}

	conn, err := redis.Dial("tcp", syncCfg.RedisHost)
	if err != nil {
		return errors.Wrap(err, "connect to redis")
	}
	defer conn.Close()

	cache := archive.NewRedisCache(conn)

	syncer := chaintip.NewSyncer(node, cache)
	syncer.PollInterval = time.Duration(syncCfg.PollInterval) * time.Second
	syncer.OnReorg = func(ctx context.Context, path []bitcoin.Hash32) {
		if len(path) == 0 {
			return
		}
		logger.Info(ctx, "reorg: reactivated %d blocks, new tip %s", len(path), path[0].String())
	}

	logger.Info(ctx, "Starting chain sync, polling every %s", syncer.PollInterval)

	syncThread := threads.NewThreadWithoutStop("chainsync", syncer.Run)
	complete := syncThread.GetCompleteChannel()
	syncThread.Start(ctx)
	<-complete

	if err := syncThread.Error(); err != nil && errors.Cause(err) != context.Canceled {
		return errors.Wrap(err, "run syncer")
	}

	logger.Info(ctx, "Chain sync stopped")
	return nil
}
