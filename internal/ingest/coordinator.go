// Package ingest runs one ingestion pass over the slip share: a shared
// tree walk feeding a fixed worker pool, with a single-threaded collector
// committing extracted slips in bounded batches.
package ingest

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/pikta/slip-ingest/internal/entity"
	"github.com/pikta/slip-ingest/internal/errlog"
	"github.com/pikta/slip-ingest/internal/metrics"
	"github.com/pikta/slip-ingest/internal/parse"
	"github.com/pikta/slip-ingest/internal/repository"
	"github.com/pikta/slip-ingest/internal/scan"
)

const maxWorkers = 8

// Source provides the shared, exactly-once stream of file entries.
type Source interface {
	Next() (scan.Entry, bool)
}

// Extractor turns one file path into a field map or a classified failure.
type Extractor interface {
	Extract(ctx context.Context, path string) parse.Result
}

type Config struct {
	Workers      int
	BatchSize    int
	DrainTimeout time.Duration
	MinDepth     int
	TimeMargin   time.Duration
	FilterCtime  bool
	LogDir       string
	Ext          string
}

// Stats summarizes one run.
type Stats struct {
	Scanned int64
	Added   int64
	Errors  int64
}

// Coordinator owns the run lifecycle: skip-set load, worker pool start,
// the collector loop, and cooperative shutdown.
type Coordinator struct {
	cfg       Config
	source    Source
	extractor Extractor
	store     repository.SlipStore
	metrics   *metrics.Collector
	logger    *slog.Logger

	skipSet    map[string]struct{}
	cutoff     time.Time
	haveCutoff bool
}

func NewCoordinator(cfg Config, source Source, extractor Extractor, store repository.SlipStore, m *metrics.Collector, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.Workers > maxWorkers {
		cfg.Workers = maxWorkers
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = 10 * time.Second
	}
	if cfg.MinDepth <= 0 {
		cfg.MinDepth = 5
	}
	if cfg.TimeMargin <= 0 {
		cfg.TimeMargin = 100000 * time.Second
	}
	if cfg.Ext == "" {
		cfg.Ext = ".pdf"
	}
	return &Coordinator{
		cfg:       cfg,
		source:    source,
		extractor: extractor,
		store:     store,
		metrics:   m,
		logger:    logger,
	}
}

// Run executes one ingestion pass. It returns early with an error when the
// store stays unavailable past the commit retry budget or the context is
// cancelled; file-level failures only end up in the error ledger.
func (c *Coordinator) Run(ctx context.Context) (Stats, error) {
	runID := uuid.New()
	logger := c.logger.With("run_id", runID)
	logger.Info("run starting", "workers", c.cfg.Workers)

	skipSet, err := errlog.LoadSkipSet(c.cfg.LogDir)
	if err != nil {
		return Stats{}, err
	}
	c.skipSet = skipSet
	logger.Info("skip-set loaded", "paths", len(skipSet))

	if c.cfg.FilterCtime {
		max, ok, err := c.store.MaxDate(ctx)
		if err != nil {
			return Stats{}, err
		}
		// an empty store has nothing to race against
		c.haveCutoff = ok
		c.cutoff = max
		logger.Info("ctime cutoff computed", "cutoff", c.cutoff, "enabled", c.haveCutoff)
	}

	ledger := errlog.NewLedger(c.cfg.LogDir)
	defer func() { _ = ledger.Close() }()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan parse.Result, 4*c.cfg.BatchSize)
	var scanned atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < c.cfg.Workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			c.worker(ctx, id, results, &scanned)
		}(i + 1)
	}
	// collector sees end-of-run as a closed channel once every worker
	// has exited
	go func() {
		wg.Wait()
		close(results)
	}()

	var stats Stats
	var lastScanned int64
	var runErr error

collect:
	for {
		batch, open := c.drain(ctx, results)

		slips := make([]*entity.Slip, 0, len(batch))
		for _, res := range batch {
			if res.Failed() {
				c.fail(ledger, logger, &stats, res.Path, res.Err)
				continue
			}
			slip, err := entity.FromFields(res.Fields)
			if err != nil {
				logger.Debug("field map rejected", "path", res.Path, "error", err)
				c.fail(ledger, logger, &stats, res.Path, parse.PatternMismatch)
				continue
			}
			slips = append(slips, slip)
		}

		if err := c.commit(ctx, slips, &stats); err != nil {
			logger.Error("store is broken, aborting run", "error", err)
			runErr = err
			break collect
		}

		stats.Scanned = scanned.Load()
		if c.metrics != nil {
			c.metrics.FilesScanned(int(stats.Scanned - lastScanned))
		}
		lastScanned = stats.Scanned
		logger.Info("progress",
			"ran", stats.Scanned,
			"added", stats.Added,
			"errors", stats.Errors,
		)

		if !open {
			break collect
		}
		if ctx.Err() != nil {
			logger.Error("run cancelled", "error", ctx.Err())
			runErr = ctx.Err()
			break collect
		}
	}

	cancel()
	wg.Wait()
	stats.Scanned = scanned.Load()
	logger.Info("workers joined", "ran", stats.Scanned, "added", stats.Added, "errors", stats.Errors)
	return stats, runErr
}

// drain collects up to one batch from the results channel, waiting at most
// DrainTimeout for each receive. open=false means all workers are done and
// the channel is fully drained.
func (c *Coordinator) drain(ctx context.Context, results <-chan parse.Result) ([]parse.Result, bool) {
	batch := make([]parse.Result, 0, c.cfg.BatchSize)
	timer := time.NewTimer(c.cfg.DrainTimeout)
	defer timer.Stop()

	for len(batch) < c.cfg.BatchSize {
		select {
		case res, ok := <-results:
			if !ok {
				return batch, false
			}
			batch = append(batch, res)
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(c.cfg.DrainTimeout)
		case <-timer.C:
			return batch, true
		case <-ctx.Done():
			return batch, true
		}
	}
	return batch, true
}

func (c *Coordinator) fail(ledger *errlog.Ledger, logger *slog.Logger, stats *Stats, path string, kind parse.ErrorKind) {
	stats.Errors++
	if c.metrics != nil {
		c.metrics.SlipErrors(1)
	}
	logger.Debug("file failed", "path", path, "reason", string(kind))
	if err := ledger.Write(path, string(kind)); err != nil {
		logger.Warn("error ledger write failed", "path", path, "error", err)
	}
}

// commit writes one batch under the commit retry policy. Re-submitting the
// whole batch is safe: the store ignores rows whose file_link is already
// present.
func (c *Coordinator) commit(ctx context.Context, slips []*entity.Slip, stats *Stats) error {
	if len(slips) == 0 {
		return nil
	}
	start := time.Now()
	attempts := 0
	var inserted int64
	err := repository.Retry(ctx, repository.CommitPolicy, c.logger, func(ctx context.Context) error {
		attempts++
		if attempts > 1 && c.metrics != nil {
			c.metrics.StoreRetry()
		}
		var err error
		inserted, err = c.store.BulkInsert(ctx, slips)
		return err
	})
	if err != nil {
		return err
	}
	stats.Added += inserted
	if c.metrics != nil {
		c.metrics.SlipsAdded(inserted)
		c.metrics.BatchCommit(time.Since(start))
	}
	return nil
}
