package repository

import (
	"database/sql"
	"embed"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// MigratePostgres applies the embedded schema migrations against the pool.
func MigratePostgres(pool *pgxpool.Pool, logger *slog.Logger) error {
	db := stdlib.OpenDBFromPool(pool)
	return migrate(db, "postgres", "migrations/postgres", logger)
}

// MigrateSQLite applies the embedded schema migrations against a sqlite
// database.
func MigrateSQLite(db *sql.DB, logger *slog.Logger) error {
	return migrate(db, "sqlite3", "migrations/sqlite", logger)
}

func migrate(db *sql.DB, dialect, dir string, logger *slog.Logger) error {
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(dialect); err != nil {
		return err
	}
	if err := goose.Up(db, dir); err != nil {
		logger.Error("migrations failed", "dialect", dialect, "error", err)
		return err
	}
	logger.Info("migrations applied", "dialect", dialect)
	return nil
}
