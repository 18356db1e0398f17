package ingest

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/bitcoinchain/blockimporter/logger"
)

// Metrics tracks the running totals of a single import and renders them as
// a periodic progress line. It is shared by reference across every pipeline
// stage goroutine, so all of its fields are updated with the atomic
// package rather than guarded by a mutex.
type Metrics struct {
	filesRead    int64
	blocksRead   int64
	transactions int64

	started time.Time
}

// NewMetrics returns a Metrics handle with its clock started.
func NewMetrics() *Metrics {
	return &Metrics{started: time.Now()}
}

// AddFile records one archive file finishing (successfully or not).
func (m *Metrics) AddFile() {
	atomic.AddInt64(&m.filesRead, 1)
}

// AddBlock records one block, and the transactions it carried, after the
// loader has stored it successfully.
func (m *Metrics) AddBlock(transactionCount int) {
	atomic.AddInt64(&m.blocksRead, 1)
	atomic.AddInt64(&m.transactions, int64(transactionCount))
}

// snapshot is an immutable read of every counter plus elapsed wall time,
// taken without blocking any writer.
type snapshot struct {
	files        int64
	blocks       int64
	transactions int64
	elapsed      time.Duration
}

func (m *Metrics) snapshot() snapshot {
	return snapshot{
		files:        atomic.LoadInt64(&m.filesRead),
		blocks:       atomic.LoadInt64(&m.blocksRead),
		transactions: atomic.LoadInt64(&m.transactions),
		elapsed:      time.Since(m.started),
	}
}

// format renders the snapshot in the fixed progress-line format a long
// import is watched by: counts plus a throughput figure derived from them,
// never stored as its own counter.
func (s snapshot) format() (string, []interface{}) {
	seconds := s.elapsed.Seconds()
	var txPerSec float64
	if seconds > 0 {
		txPerSec = float64(s.transactions) / seconds
	}
	return "Files Read: %d Blocks: %d Tx: %d Tx/s %.1f Runtime %.0fs",
		[]interface{}{s.files, s.blocks, s.transactions, txPerSec, seconds}
}

// LogPeriodically logs a progress line every interval until done is closed.
// It is meant to run in its own goroutine for the lifetime of a pipeline
// run.
func (m *Metrics) LogPeriodically(ctx context.Context, interval time.Duration, done <-chan struct{}) {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			format, values := m.snapshot().format()
			logger.Info(ctx, format, values...)
		}
	}
}

// LogFinal logs the closing summary line, called once after a run
// completes rather than waiting for the next tick.
func (m *Metrics) LogFinal(ctx context.Context) {
	format, values := m.snapshot().format()
	logger.Info(ctx, format, values...)
}
