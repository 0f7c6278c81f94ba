package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/bookkeeping/api"
	"github.com/frahmantamala/bookkeeping/db"
	"github.com/frahmantamala/bookkeeping/internal"
	"github.com/frahmantamala/bookkeeping/internal/auth"
	authPostgres "github.com/frahmantamala/bookkeeping/internal/auth/postgres"
	"github.com/frahmantamala/bookkeeping/internal/category"
	categoryPostgres "github.com/frahmantamala/bookkeeping/internal/category/postgres"
	"github.com/frahmantamala/bookkeeping/internal/company"
	companyPostgres "github.com/frahmantamala/bookkeeping/internal/company/postgres"
	"github.com/frahmantamala/bookkeeping/internal/core/events"
	"github.com/frahmantamala/bookkeeping/internal/employee"
	employeePostgres "github.com/frahmantamala/bookkeeping/internal/employee/postgres"
	"github.com/frahmantamala/bookkeeping/internal/migration"
	"github.com/frahmantamala/bookkeeping/internal/posting"
	"github.com/frahmantamala/bookkeeping/internal/reconcile"
	"github.com/frahmantamala/bookkeeping/internal/reimbursement"
	reimbursementPostgres "github.com/frahmantamala/bookkeeping/internal/reimbursement/postgres"
	"github.com/frahmantamala/bookkeeping/internal/report"
	reportPostgres "github.com/frahmantamala/bookkeeping/internal/report/postgres"
	"github.com/frahmantamala/bookkeeping/internal/setting"
	settingPostgres "github.com/frahmantamala/bookkeeping/internal/setting/postgres"
	"github.com/frahmantamala/bookkeeping/internal/transaction"
	transactionPostgres "github.com/frahmantamala/bookkeeping/internal/transaction/postgres"
	"github.com/frahmantamala/bookkeeping/internal/transport"
	"github.com/frahmantamala/bookkeeping/internal/transport/middleware"
	"github.com/frahmantamala/bookkeeping/internal/transport/rest"
	"github.com/frahmantamala/bookkeeping/internal/user"
	userPostgres "github.com/frahmantamala/bookkeeping/internal/user/postgres"
	"github.com/frahmantamala/bookkeeping/pkg/logger"

	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	DB       *sqlx.DB
	Gorm     *gorm.DB
	Router   *chi.Mux
	Logger   *slog.Logger
	EventBus *events.EventBus
	Job      *reconcile.Job
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}
	log := deps.Logger

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	log.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()
	if interval := deps.Config.Reconciliation.Interval; interval > 0 {
		log.Info("scheduled reconciliation enabled", "interval", interval.String())
		go deps.Job.RunEvery(bgCtx, interval, func(_ reconcile.Report, err error) {
			if err != nil {
				log.Error("scheduled reconciliation failed", "error", err)
			}
		})
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		log.Info("Received signal, shutting down...", "signal", sig)
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	stopBackground()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server shutdown error", "error", err)
	}
	if err := deps.EventBus.Wait(ctx); err != nil {
		log.Warn("event handlers still running at shutdown", "error", err)
	}
	if err := deps.DB.Close(); err != nil {
		log.Error("Database close error", "error", err)
	}

	log.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	initLogger(config)
	log := logger.LoggerWrapper()

	sqlxDB, gdb, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	policy, err := reimbursement.PolicyByName(config.Reimbursement.TransitionPolicy)
	if err != nil {
		return nil, err
	}

	bus := newEventBus(log)
	engine := posting.NewEngine(log)
	job := newReconcileJob(gdb, engine, bus, config.Reconciliation, log)
	base := transport.NewBaseHandler(log)

	tokens := auth.NewJWTTokenGenerator(
		config.Security.AccessTokenSecret,
		config.Security.RefreshTokenSecret,
		config.Security.AccessTokenDuration,
		config.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(authPostgres.NewRepository(gdb), tokens, log)

	reimbursementService := reimbursement.NewService(
		reimbursementPostgres.NewReimbursementRepository(gdb),
		reimbursementPostgres.NewUnitOfWork(gdb),
		engine,
		policy,
		bus,
		log,
	)

	handlers := rest.Handlers{
		Auth:           auth.NewHandler(base, authService),
		User:           user.NewHandler(base, user.NewService(userPostgres.NewUserRepository(gdb), config.Security.BCryptCost, log)),
		Company:        company.NewHandler(base, company.NewService(companyPostgres.NewCompanyRepository(gdb), log)),
		Category:       category.NewHandler(base, category.NewService(categoryPostgres.NewCategoryRepository(gdb), log)),
		Employee:       employee.NewHandler(base, employee.NewService(employeePostgres.NewEmployeeRepository(gdb), config.Security.BCryptCost, log)),
		Transaction:    transaction.NewHandler(base, transaction.NewService(transactionPostgres.NewTransactionRepository(gdb), reimbursementService, log)),
		Reimbursement:  reimbursement.NewHandler(base, reimbursementService),
		Reconciliation: reconcile.NewHandler(base, job),
		Report:         report.NewHandler(base, report.NewService(reportPostgres.NewReportRepository(sqlxDB), log)),
		Setting:        setting.NewHandler(base, setting.NewService(settingPostgres.NewSettingRepository(gdb), log)),
		System:         rest.NewSystemHandler(base, migration.NewMigrator(sqlxDB.DB, db.Migrations, db.MigrationsDir, log)),
	}

	var validator *middleware.RequestValidator
	if config.Server.ValidateRequests {
		validator, err = middleware.NewRequestValidator(api.OpenAPI, rest.APIPrefix, log)
		if err != nil {
			return nil, err
		}
	}

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, sqlxDB.DB, handlers, rest.RouterOptions{
		AllowedOrigins: config.Server.AllowedOrigins,
		OpenAPISpec:    api.OpenAPI,
		Validator:      validator,
	}, log)

	return &Dependencies{
		Config:   config,
		DB:       sqlxDB,
		Gorm:     gdb,
		Router:   router,
		Logger:   log,
		EventBus: bus,
		Job:      job,
	}, nil
}
