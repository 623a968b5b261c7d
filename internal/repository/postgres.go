package repository

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pikta/slip-ingest/internal/entity"
)

// DB is the subset of pgxpool.Pool the store needs; tests substitute a
// pgxmock pool.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
}

type postgresStore struct {
	db     DB
	logger *slog.Logger
}

func NewPostgresStore(db DB, logger *slog.Logger) SlipStore {
	return &postgresStore{db: db, logger: logger}
}

func (s *postgresStore) Exists(ctx context.Context, fileLink string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM slips WHERE file_link = $1)`,
		fileLink,
	).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

const insertSlipPG = `INSERT INTO slips (` + slipColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	ON CONFLICT (file_link) DO NOTHING`

func (s *postgresStore) BulkInsert(ctx context.Context, slips []*entity.Slip) (int64, error) {
	if len(slips) == 0 {
		return 0, nil
	}
	start := time.Now()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for _, slip := range slips {
		batch.Queue(insertSlipPG, slipArgs(slip)...)
	}

	br := tx.SendBatch(ctx, batch)
	var inserted int64
	for range slips {
		ct, err := br.Exec()
		if err != nil {
			_ = br.Close()
			return 0, err
		}
		inserted += ct.RowsAffected()
	}
	if err := br.Close(); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}

	s.logger.Debug("batch committed",
		"rows", len(slips),
		"inserted", inserted,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return inserted, nil
}

func (s *postgresStore) MaxDate(ctx context.Context) (time.Time, bool, error) {
	var max *time.Time
	err := s.db.QueryRow(ctx, `SELECT MAX(date) FROM slips`).Scan(&max)
	if err != nil {
		return time.Time{}, false, err
	}
	if max == nil {
		return time.Time{}, false, nil
	}
	return *max, true, nil
}

func (s *postgresStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM slips`).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n, nil
}
