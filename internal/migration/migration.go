// Package migration applies the embedded goose migrations.
package migration

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/pressly/goose/v3"
)

const TableName = "schema_migrations"

// goose keeps its dialect, base FS and table name in package state
var gooseMu sync.Mutex

type Result struct {
	FromVersion int64 `json:"from_version"`
	ToVersion   int64 `json:"to_version"`
}

func (r Result) Changed() bool {
	return r.FromVersion != r.ToVersion
}

type Migrator struct {
	db      *sql.DB
	fsys    fs.FS
	dir     string
	dialect string
	logger  *slog.Logger
}

func NewMigrator(db *sql.DB, fsys fs.FS, dir string, logger *slog.Logger) *Migrator {
	return &Migrator{
		db:      db,
		fsys:    fsys,
		dir:     dir,
		dialect: "postgres",
		logger:  logger,
	}
}

// WithDialect overrides the goose dialect, "postgres" by default.
func (m *Migrator) WithDialect(dialect string) *Migrator {
	m.dialect = dialect
	return m
}

// Up applies every pending migration.
func (m *Migrator) Up(ctx context.Context) (Result, error) {
	return m.run(ctx, "up", goose.UpContext)
}

// Rollback reverts the latest applied migration.
func (m *Migrator) Rollback(ctx context.Context) (Result, error) {
	return m.run(ctx, "down", goose.DownContext)
}

func (m *Migrator) run(ctx context.Context, direction string, fn func(context.Context, *sql.DB, string, ...goose.OptionsFunc) error) (Result, error) {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(m.fsys)
	goose.SetTableName(TableName)
	if err := goose.SetDialect(m.dialect); err != nil {
		return Result{}, fmt.Errorf("goose dialect: %w", err)
	}

	from, err := goose.GetDBVersionContext(ctx, m.db)
	if err != nil {
		return Result{}, fmt.Errorf("read schema version: %w", err)
	}

	if err := fn(ctx, m.db, m.dir); err != nil {
		m.logger.Error("migration failed", "direction", direction, "from_version", from, "error", err)
		return Result{FromVersion: from, ToVersion: from}, fmt.Errorf("goose %s: %w", direction, err)
	}

	to, err := goose.GetDBVersionContext(ctx, m.db)
	if err != nil {
		return Result{FromVersion: from}, fmt.Errorf("read schema version: %w", err)
	}

	m.logger.Info("migration finished", "direction", direction, "from_version", from, "to_version", to)
	return Result{FromVersion: from, ToVersion: to}, nil
}
