// Package metrics exposes ingestion run counters for Prometheus scraping.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the pipeline's Prometheus metrics.
type Collector struct {
	filesScanned prometheus.Counter
	slipsAdded   prometheus.Counter
	slipErrors   prometheus.Counter
	storeRetries prometheus.Counter
	batchLatency prometheus.Histogram

	registry *prometheus.Registry
}

func NewCollector() *Collector {
	c := &Collector{
		filesScanned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "slip_files_scanned_total",
			Help: "Total number of directory entries pulled from the tree walk",
		}),
		slipsAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "slip_records_added_total",
			Help: "Total number of slip records committed to the store",
		}),
		slipErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "slip_errors_total",
			Help: "Total number of files classified as unparseable",
		}),
		storeRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "slip_store_retries_total",
			Help: "Total number of retried store operations",
		}),
		batchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "slip_batch_commit_seconds",
			Help:    "Batch commit latency",
			Buckets: prometheus.DefBuckets,
		}),
		registry: prometheus.NewRegistry(),
	}
	c.registry.MustRegister(c.filesScanned, c.slipsAdded, c.slipErrors, c.storeRetries, c.batchLatency)
	return c
}

func (c *Collector) FilesScanned(n int) { c.filesScanned.Add(float64(n)) }
func (c *Collector) SlipsAdded(n int64) { c.slipsAdded.Add(float64(n)) }
func (c *Collector) SlipErrors(n int)   { c.slipErrors.Add(float64(n)) }
func (c *Collector) StoreRetry()        { c.storeRetries.Inc() }
func (c *Collector) BatchCommit(d time.Duration) {
	c.batchLatency.Observe(d.Seconds())
}

// Serve exposes /metrics on addr. Blocks; run in its own goroutine.
func (c *Collector) Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("metrics listener: %w", err)
	}
	return nil
}
