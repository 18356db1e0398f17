package ingest

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/bitcoinchain/blockimporter/logger"
	"github.com/bitcoinchain/blockimporter/threads"
	"github.com/bitcoinchain/blockimporter/wire"
)

// Loader is the bulk-load side of the pipeline. pgstore.Loader satisfies
// this; ingest depends only on the interface so the two packages don't
// import each other.
type Loader interface {
	LoadBlock(ctx context.Context, block *Block) error
}

// Config controls the shape of a Pipeline's concurrency and where it
// reads archive files from.
type Config struct {
	// BlocksPath is the directory ScanBlockFiles enumerates.
	BlocksPath string

	// ChannelCapacity bounds the buffered channels between stages.
	ChannelCapacity int

	// InsertConcurrency bounds how many blocks may be inside
	// Loader.LoadBlock at once.
	InsertConcurrency int

	// HashWorkers is passed to Hasher; zero means GOMAXPROCS.
	HashWorkers int

	// MetricsInterval controls how often progress is logged. Zero falls
	// back to Metrics.LogPeriodically's own default.
	MetricsInterval time.Duration
}

// DefaultConfig returns the values spec.md's default environment
// variables describe, with BlocksPath left for the caller to fill in.
func DefaultConfig() Config {
	return Config{
		ChannelCapacity:   100,
		InsertConcurrency: 8,
		HashWorkers:       0,
		MetricsInterval:   10 * time.Second,
	}
}

func (c Config) capacity() int {
	if c.ChannelCapacity > 0 {
		return c.ChannelCapacity
	}
	return 100
}

func (c Config) insertConcurrency() int {
	if c.InsertConcurrency > 0 {
		return c.InsertConcurrency
	}
	return 8
}

// rawBlock pairs a decoded, not-yet-hashed block with the archive file it
// came from, so a later stage can log which file a failing block belongs
// to.
type rawBlock struct {
	block      *wire.Block
	sourceFile string
}

// Pipeline wires the file scanner, binary reader, hasher, and bulk loader
// into one staged, bounded-concurrency run over a directory of archive
// files: scan -> read -> hash -> (bounded) load.
type Pipeline struct {
	cfg    Config
	loader Loader
	hasher *Hasher
	stats  *Metrics
}

// NewPipeline constructs a Pipeline. loader performs the final bulk-load
// stage.
func NewPipeline(cfg Config, loader Loader) *Pipeline {
	return &Pipeline{
		cfg:    cfg,
		loader: loader,
		hasher: NewHasher(cfg.HashWorkers),
		stats:  NewMetrics(),
	}
}

// Metrics returns the running counters of the current or most recent run.
func (p *Pipeline) Metrics() *Metrics {
	return p.stats
}

// Run scans cfg.BlocksPath for archive files and processes every block
// they contain in file order, returning once every file has been read and
// every block has been handed to the loader or dropped per the error
// policy: a corrupt record or malformed witness stops the rest of its
// file and moves on to the next one; a difficulty overflow or a failed
// bulk load drops just that block and continues.
func (p *Pipeline) Run(ctx context.Context) error {
	files, err := ScanBlockFiles(p.cfg.BlocksPath)
	if err != nil {
		return errors.Wrap(err, "scan block files")
	}

	metricsThread := threads.NewThread("metrics", func(ctx context.Context, interrupt <-chan interface{}) error {
		stop := make(chan struct{})
		go func() {
			<-interrupt
			close(stop)
		}()
		p.stats.LogPeriodically(ctx, p.cfg.MetricsInterval, stop)
		return nil
	})
	metricsComplete := metricsThread.GetCompleteChannel()
	metricsThread.Start(ctx)
	defer func() {
		metricsThread.Stop(ctx)
		<-metricsComplete
		p.stats.LogFinal(ctx)
	}()

	rawBlocks := make(chan rawBlock, p.cfg.capacity())
	hashedBlocks := make(chan *Block, p.cfg.capacity())

	var stages sync.WaitGroup

	stages.Add(1)
	go func() {
		defer stages.Done()
		defer close(rawBlocks)
		p.readFiles(ctx, files, rawBlocks)
	}()

	stages.Add(1)
	go func() {
		defer stages.Done()
		defer close(hashedBlocks)
		p.hashBlocks(ctx, rawBlocks, hashedBlocks)
	}()

	stages.Add(1)
	go func() {
		defer stages.Done()
		p.loadBlocks(ctx, hashedBlocks)
	}()

	stages.Wait()
	return nil
}

// readFiles is the File Scanner + Binary Reader stage: it walks files in
// the order the scanner returned them and decodes every block record in
// each, stopping a single file early on a corrupt record but always
// moving on to the next file.
func (p *Pipeline) readFiles(ctx context.Context, files []string, out chan<- rawBlock) {
	for _, path := range files {
		p.readFile(ctx, path, out)
		p.stats.AddFile()
	}
}

func (p *Pipeline) readFile(ctx context.Context, path string, out chan<- rawBlock) {
	reader, closer, err := OpenFile(path)
	if err != nil {
		logger.Error(ctx, "open %s: %s", path, err)
		return
	}
	defer closer.Close()

	for {
		block, err := reader.Next()
		if err == io.EOF {
			return
		}
		if err != nil {
			logger.Warn(ctx, "%s: %s, skipping rest of file", path, err)
			return
		}
		out <- rawBlock{block: block, sourceFile: path}
	}
}

// hashBlocks is the Hasher/Sizer stage: blocks are hashed one at a time,
// in arrival order, so that downstream ordering within a file is
// preserved; the per-transaction work within a single block is itself
// parallel (see Hasher.Hash).
func (p *Pipeline) hashBlocks(ctx context.Context, in <-chan rawBlock, out chan<- *Block) {
	for job := range in {
		block, err := p.hasher.Hash(job.block, job.sourceFile)
		if err != nil {
			logger.Error(ctx, "%s: %s, dropping block", job.sourceFile, err)
			continue
		}
		out <- block
	}
}

// loadBlocks is the Insert Dispatcher + Bulk Loader stage: it fans each
// hashed block out to the loader, with no more than InsertConcurrency
// loads in flight at once, via a buffered channel used as a counting
// semaphore.
func (p *Pipeline) loadBlocks(ctx context.Context, in <-chan *Block) {
	permits := make(chan struct{}, p.cfg.insertConcurrency())
	var wg sync.WaitGroup

	for block := range in {
		block := block
		permits <- struct{}{}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-permits }()

			if err := p.loader.LoadBlock(ctx, block); err != nil {
				logger.Error(ctx, "block %s: %s, dropping block", block.BlockHash, err)
				return
			}
			p.stats.AddBlock(len(block.Transactions))
		}()
	}

	wg.Wait()
}
