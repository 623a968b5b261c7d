package ingest

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/pikta/slip-ingest/internal/parse"
	"github.com/pikta/slip-ingest/internal/repository"
)

// worker pulls entries from the shared walk until the source is exhausted
// or the run is cancelled. Each entry passes the filter chain (regular
// file, extension, depth, skip-set, ctime cutoff, store existence) before
// extraction; results go to the shared results channel.
func (c *Coordinator) worker(ctx context.Context, id int, results chan<- parse.Result, scanned *atomic.Int64) {
	c.logger.Debug("worker started", "worker_id", id)
	defer c.logger.Debug("worker stopped", "worker_id", id)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		entry, ok := c.source.Next()
		if !ok {
			c.logger.Info("source exhausted", "worker_id", id)
			return
		}
		scanned.Add(1)

		if entry.Info.IsDir() || !entry.Info.Type().IsRegular() {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(entry.Info.Name()), c.cfg.Ext) {
			continue
		}
		if pathDepth(entry.Path) < c.cfg.MinDepth {
			c.logger.Debug("bad path", "path", entry.Path)
			continue
		}
		if _, skip := c.skipSet[entry.Path]; skip {
			c.logger.Debug("path in error logs", "path", entry.Path)
			continue
		}
		if c.haveCutoff {
			info, err := entry.Info.Info()
			if err != nil {
				// entry vanished between listing and stat
				c.logger.Warn("stat failed", "path", entry.Path, "error", err)
				continue
			}
			if c.cutoff.Sub(info.ModTime()) < c.cfg.TimeMargin {
				c.logger.Debug("slip is newer than cutoff", "path", entry.Path)
				continue
			}
		}

		var exists bool
		err := repository.Retry(ctx, repository.ExistsPolicy, c.logger, func(ctx context.Context) error {
			var err error
			exists, err = c.store.Exists(ctx, entry.Path)
			return err
		})
		if err != nil {
			// Treated like source exhaustion: the coordinator will hit the
			// same store failure on its commit path and abort the run.
			c.logger.Error("existence check failed, stopping worker", "worker_id", id, "error", err)
			return
		}
		if exists {
			continue
		}

		res := c.extractor.Extract(ctx, entry.Path)
		select {
		case results <- res:
		case <-ctx.Done():
			return
		}
	}
}

// pathDepth counts path separators; slip share paths sit at least five
// levels deep, anything shallower is not a receipt.
func pathDepth(p string) int {
	return strings.Count(p, "/") + strings.Count(p, `\`)
}
