// Package sqlite is the default vector index backend: a local,
// goose-migrated SQLite database holding chunk text, metadata and
// embedding BLOBs. Similarity ranking runs in process over the
// user-filtered candidate set, which keeps the store durable across
// restarts without an external service.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"github.com/sandevgo/membot/pkg/log"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

func NewDB(ctx context.Context, dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := migrate(ctx, db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(newGooseLogger(ctx))

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("goose up failed: %w", err)
	}
	return nil
}

// gooseLogger adapts the context logger to goose's Logger interface.
type gooseLogger struct {
	ctx context.Context
}

func newGooseLogger(ctx context.Context) *gooseLogger {
	return &gooseLogger{ctx: ctx}
}

func (g *gooseLogger) Fatalf(format string, v ...interface{}) {
	log.FromCtx(g.ctx).Fatal().Msgf(format, v...)
}

func (g *gooseLogger) Printf(format string, v ...interface{}) {
	log.FromCtx(g.ctx).Debug().Msgf(format, v...)
}
