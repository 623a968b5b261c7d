package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pikta/slip-ingest/internal/entity"
)

// OpenSQLite opens a local sqlite slip store. An empty path selects an
// in-memory database, used for dry runs and tests.
func OpenSQLite(path string, logger *slog.Logger) (*sql.DB, error) {
	dsn := "file::memory:?mode=memory&cache=shared&_pragma=busy_timeout(5000)"
	if path != "" {
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		logger.Error("failed to open sqlite store", "path", path, "error", err)
		return nil, err
	}
	// sqlite allows a single writer; one connection keeps the in-memory
	// database alive as well.
	db.SetMaxOpenConns(1)
	return db, nil
}

type sqliteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewSQLiteStore(db *sql.DB, logger *slog.Logger) SlipStore {
	return &sqliteStore{db: db, logger: logger}
}

func (s *sqliteStore) Exists(ctx context.Context, fileLink string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM slips WHERE file_link = ?)`,
		fileLink,
	).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

const insertSlipSQLite = `INSERT OR IGNORE INTO slips (` + slipColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (s *sqliteStore) BulkInsert(ctx context.Context, slips []*entity.Slip) (int64, error) {
	if len(slips) == 0 {
		return 0, nil
	}
	start := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, insertSlipSQLite)
	if err != nil {
		return 0, err
	}
	defer func() { _ = stmt.Close() }()

	var inserted int64
	for _, slip := range slips {
		args := slipArgs(slip)
		// dates as ISO text for sqlite
		args[4] = slip.Date.Format("2006-01-02")
		args[19] = slip.Updated.Format("2006-01-02")
		res, err := stmt.ExecContext(ctx, args...)
		if err != nil {
			return 0, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		inserted += n
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}

	s.logger.Debug("batch committed",
		"rows", len(slips),
		"inserted", inserted,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return inserted, nil
}

func (s *sqliteStore) MaxDate(ctx context.Context) (time.Time, bool, error) {
	var max sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT MAX(date) FROM slips`).Scan(&max)
	if err != nil {
		return time.Time{}, false, err
	}
	if !max.Valid {
		return time.Time{}, false, nil
	}
	t, err := time.Parse("2006-01-02", max.String)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, true, nil
}

func (s *sqliteStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM slips`).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n, nil
}
