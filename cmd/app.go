package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/bookkeeping/internal"
	"github.com/frahmantamala/bookkeeping/internal/core/events"
	"github.com/frahmantamala/bookkeeping/internal/posting"
	postingPostgres "github.com/frahmantamala/bookkeeping/internal/posting/postgres"
	"github.com/frahmantamala/bookkeeping/internal/reconcile"
	"github.com/frahmantamala/bookkeeping/internal/reimbursement"
	reimbursementPostgres "github.com/frahmantamala/bookkeeping/internal/reimbursement/postgres"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// initDB opens one pgx pool and shares it between sqlx and gorm.
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, *gorm.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.GetDSN())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// verify connection; close underlying *sql.DB on failure
	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: dbConn.DB}), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		TranslateError: true,
	})
	if err != nil {
		_ = dbConn.Close()
		return nil, nil, fmt.Errorf("failed to open gorm session: %w", err)
	}

	return dbConn, gdb, nil
}

func newReconcileJob(gdb *gorm.DB, engine *posting.Engine, publisher events.Publisher, cfg internal.ReconciliationConfig, logger *slog.Logger) *reconcile.Job {
	return reconcile.NewJob(
		reimbursementPostgres.NewReimbursementRepository(gdb),
		postingPostgres.NewTxRunner(gdb),
		engine,
		publisher,
		reconcile.Config{Workers: cfg.WorkerCount(), ItemTimeout: cfg.ItemTimeout},
		logger,
	)
}

func newEventBus(logger *slog.Logger) *events.EventBus {
	bus := events.NewEventBus(logger)
	reimbursement.NewAuditHandler(logger).RegisterEventHandlers(bus)
	return bus
}
