package repository

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"net"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// Policy bounds a retry loop: at most Attempts tries with a randomized
// sleep of up to BaseDelay between them. The slip share's database sits
// behind a flaky link, so both the existence-check path and the batch
// commit path run under a policy; they historically used different budgets
// and both are kept.
type Policy struct {
	Attempts  int
	BaseDelay time.Duration
}

var (
	// ExistsPolicy guards per-file existence checks.
	ExistsPolicy = Policy{Attempts: 200, BaseDelay: time.Second}
	// CommitPolicy guards batch commits.
	CommitPolicy = Policy{Attempts: 60, BaseDelay: time.Second}
)

// Retry runs fn until it succeeds, returns a non-transient error, or the
// policy's attempt budget is exhausted. The last error is returned as-is
// so callers can classify it as fatal.
func Retry(ctx context.Context, p Policy, logger *slog.Logger, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; attempt < p.Attempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if !Transient(err) {
			return err
		}
		logger.Warn("transient store error, retrying", "attempt", attempt+1, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(rand.Int63n(int64(p.BaseDelay) + 1))):
		}
	}
	logger.Warn("store retry budget exhausted", "attempts", p.Attempts, "error", err)
	return err
}

// Transient reports whether an error looks like temporary store
// unavailability. Constraint violations and other definite failures are
// not retried.
func Transient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if pgconn.SafeToRetry(err) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// connection exceptions, insufficient resources, operator intervention
		switch pgErr.Code[:2] {
		case "08", "53", "57":
			return true
		}
		return false
	}
	// modernc sqlite reports lock contention through error strings
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "database table is locked")
}
