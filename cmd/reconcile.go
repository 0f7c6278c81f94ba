package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/bookkeeping/internal/posting"
	"github.com/frahmantamala/bookkeeping/internal/reconcile"
	"github.com/frahmantamala/bookkeeping/pkg/logger"
	"github.com/spf13/cobra"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Post approved reimbursements missing from the ledger",
	Long: `Run the reconciliation job once and print its summary. With --interval the job keeps
running on that schedule until interrupted.`,
	Run: func(cmd *cobra.Command, args []string) {
		runReconcile()
	},
}

var (
	reconcileWorkers  int
	reconcileInterval time.Duration
)

func runReconcile() {
	config, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	initLogger(config)
	log := logger.LoggerWrapper()

	// Use command line flags if provided, otherwise use config values
	if reconcileWorkers > 0 {
		config.Reconciliation.Workers = reconcileWorkers
	}
	interval := config.Reconciliation.Interval
	if reconcileInterval > 0 {
		interval = reconcileInterval
	}

	sqlxDB, gdb, err := initDB(config.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize database: %v\n", err)
		os.Exit(1)
	}
	defer sqlxDB.Close()

	bus := newEventBus(log)
	job := newReconcileJob(gdb, posting.NewEngine(log), bus, config.Reconciliation, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("starting reconciliation",
		"workers", config.Reconciliation.WorkerCount(),
		"interval", interval.String())

	failed := false
	printReport := func(report reconcile.Report, err error) {
		if err != nil {
			failed = true
			log.Error("reconciliation failed", "error", err)
			return
		}
		fmt.Print(report.Summary())
		failed = report.Errors > 0
	}

	if interval > 0 {
		job.RunEvery(ctx, interval, printReport)
	} else {
		printReport(job.Run(ctx))
	}

	waitCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := bus.Wait(waitCtx); err != nil {
		log.Warn("event handlers still running at exit", "error", err)
	}

	if failed {
		os.Exit(1)
	}
}

func init() {
	reconcileCmd.Flags().IntVar(&reconcileWorkers, "workers", 0, "Number of concurrent posting workers (overrides config)")
	reconcileCmd.Flags().DurationVar(&reconcileInterval, "interval", 0, "Repeat the run on this interval until interrupted (overrides config)")
}
