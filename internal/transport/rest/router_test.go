package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/frahmantamala/bookkeeping/api"
	"github.com/frahmantamala/bookkeeping/internal/auth"
	authPostgres "github.com/frahmantamala/bookkeeping/internal/auth/postgres"
	"github.com/frahmantamala/bookkeeping/internal/category"
	categoryPostgres "github.com/frahmantamala/bookkeeping/internal/category/postgres"
	"github.com/frahmantamala/bookkeeping/internal/company"
	companyPostgres "github.com/frahmantamala/bookkeeping/internal/company/postgres"
	categoryDatamodel "github.com/frahmantamala/bookkeeping/internal/core/datamodel/category"
	companyDatamodel "github.com/frahmantamala/bookkeeping/internal/core/datamodel/company"
	employeeDatamodel "github.com/frahmantamala/bookkeeping/internal/core/datamodel/employee"
	reimbursementDatamodel "github.com/frahmantamala/bookkeeping/internal/core/datamodel/reimbursement"
	settingDatamodel "github.com/frahmantamala/bookkeeping/internal/core/datamodel/setting"
	transactionDatamodel "github.com/frahmantamala/bookkeeping/internal/core/datamodel/transaction"
	userDatamodel "github.com/frahmantamala/bookkeeping/internal/core/datamodel/user"
	"github.com/frahmantamala/bookkeeping/internal/core/events"
	"github.com/frahmantamala/bookkeeping/internal/employee"
	employeePostgres "github.com/frahmantamala/bookkeeping/internal/employee/postgres"
	"github.com/frahmantamala/bookkeeping/internal/migration"
	"github.com/frahmantamala/bookkeeping/internal/posting"
	postingPostgres "github.com/frahmantamala/bookkeeping/internal/posting/postgres"
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
	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestRest(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "REST Router Suite")
}

type fakeMigrator struct {
	result migration.Result
	err    error
	calls  int
}

func (m *fakeMigrator) Up(ctx context.Context) (migration.Result, error) {
	m.calls++
	return m.result, m.err
}

const reimbursementBody = `{
	"id": "R1",
	"date": "2024-07-01",
	"requestorName": "Budi",
	"category": "Transport",
	"companyId": 1,
	"description": "Taksi ke klien",
	"items": [{"id": "R1-1", "name": "Taksi", "qty": 1, "price": 120000, "total": 120000}],
	"grandTotal": 120000
}`

var _ = Describe("Router", func() {
	var (
		db       *gorm.DB
		router   *chi.Mux
		migrator *fakeMigrator
		bus      *events.EventBus
	)

	do := func(method, path, token, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
		if body != "" {
			req.Header.Set("Content-Type", "application/json")
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	login := func(username string) string {
		w := do(http.MethodPost, "/api/v1/auth/login", "", `{"username":"`+username+`","password":"rahasia123"}`)
		Expect(w.Code).To(Equal(http.StatusOK))
		var resp auth.LoginResponse
		Expect(json.NewDecoder(w.Body).Decode(&resp)).To(Succeed())
		Expect(resp.Token).NotTo(BeEmpty())
		return resp.Token
	}

	BeforeEach(func() {
		var err error
		slogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)
		Expect(db.AutoMigrate(
			&companyDatamodel.Company{},
			&categoryDatamodel.Category{},
			&userDatamodel.User{},
			&employeeDatamodel.Employee{},
			&settingDatamodel.Setting{},
			&transactionDatamodel.Transaction{},
			&transactionDatamodel.TransactionItem{},
			&reimbursementDatamodel.Reimbursement{},
			&reimbursementDatamodel.ReimbursementItem{},
		)).To(Succeed())

		hash, err := auth.HashPassword("rahasia123", bcrypt.MinCost)
		Expect(err).NotTo(HaveOccurred())
		Expect(db.Create(&userDatamodel.User{Username: "admin", PasswordHash: hash, Role: auth.RoleAdmin}).Error).To(Succeed())
		Expect(db.Create(&userDatamodel.User{Username: "budi", PasswordHash: hash, Role: auth.RoleEmployee}).Error).To(Succeed())
		Expect(db.Create(&companyDatamodel.Company{Name: "PT Maju Jaya"}).Error).To(Succeed())

		base := transport.NewBaseHandler(slogger)
		bus = events.NewEventBus(slogger)
		engine := posting.NewEngine(slogger)

		tokens := auth.NewJWTTokenGenerator("router-access-secret-router-access", "router-refresh-secret-router-refresh", 15*time.Minute, time.Hour)
		reimbursementRepo := reimbursementPostgres.NewReimbursementRepository(db)
		reimbursementService := reimbursement.NewService(reimbursementRepo, reimbursementPostgres.NewUnitOfWork(db), engine, nil, bus, slogger)
		job := reconcile.NewJob(reimbursementRepo, postingPostgres.NewTxRunner(db), engine, bus, reconcile.Config{Workers: 2}, slogger)
		migrator = &fakeMigrator{result: migration.Result{FromVersion: 4, ToVersion: 5}}

		handlers := rest.Handlers{
			Auth:           auth.NewHandler(base, auth.NewService(authPostgres.NewRepository(db), tokens, slogger)),
			User:           user.NewHandler(base, user.NewService(userPostgres.NewUserRepository(db), bcrypt.MinCost, slogger)),
			Company:        company.NewHandler(base, company.NewService(companyPostgres.NewCompanyRepository(db), slogger)),
			Category:       category.NewHandler(base, category.NewService(categoryPostgres.NewCategoryRepository(db), slogger)),
			Employee:       employee.NewHandler(base, employee.NewService(employeePostgres.NewEmployeeRepository(db), bcrypt.MinCost, slogger)),
			Transaction:    transaction.NewHandler(base, transaction.NewService(transactionPostgres.NewTransactionRepository(db), reimbursementService, slogger)),
			Reimbursement:  reimbursement.NewHandler(base, reimbursementService),
			Reconciliation: reconcile.NewHandler(base, job),
			Report:         report.NewHandler(base, report.NewService(reportPostgres.NewReportRepository(sqlx.NewDb(sqlDB, "sqlite3")), slogger)),
			Setting:        setting.NewHandler(base, setting.NewService(settingPostgres.NewSettingRepository(db), slogger)),
			System:         rest.NewSystemHandler(base, migrator),
		}

		validator, err := middleware.NewRequestValidator(api.OpenAPI, rest.APIPrefix, slogger)
		Expect(err).NotTo(HaveOccurred())

		router = chi.NewRouter()
		rest.RegisterAllRoutes(router, sqlDB, handlers, rest.RouterOptions{
			AllowedOrigins: "http://localhost:5173",
			OpenAPISpec:    api.OpenAPI,
			Validator:      validator,
		}, slogger)
	})

	AfterEach(func() {
		Expect(bus.Wait(context.Background())).To(Succeed())
	})

	It("serves liveness and database checks without a token", func() {
		w := do(http.MethodGet, "/api/v1/ping", "", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Header().Get(middleware.TraceIDHeader)).NotTo(BeEmpty())

		w = do(http.MethodGet, "/api/v1/test-db", "", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		var status rest.DBStatus
		Expect(json.NewDecoder(w.Body).Decode(&status)).To(Succeed())
		Expect(status.Status).To(Equal("success"))
	})

	It("degrades readiness while approved reimbursements are unposted", func() {
		var health rest.HealthResponse
		w := do(http.MethodGet, "/api/v1/health", "", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(json.NewDecoder(w.Body).Decode(&health)).To(Succeed())
		Expect(health.Status).To(Equal(rest.HealthHealthy))

		Expect(do(http.MethodPost, "/api/v1/reimbursements", login("budi"), reimbursementBody).Code).To(Equal(http.StatusCreated))
		Expect(db.Model(&reimbursementDatamodel.Reimbursement{}).Where("id = ?", "R1").Update("status", "BERHASIL").Error).To(Succeed())

		w = do(http.MethodGet, "/api/v1/health", "", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(json.NewDecoder(w.Body).Decode(&health)).To(Succeed())
		Expect(health.Status).To(Equal(rest.HealthDegraded))
		Expect(health.Components["postgres"].Status).To(Equal(rest.HealthHealthy))
		Expect(health.Components["ledger"].Details["unposted_approved"]).To(BeNumerically("==", 1))

		Expect(do(http.MethodPost, "/api/v1/reconciliation/run", login("admin"), "").Code).To(Equal(http.StatusOK))
		w = do(http.MethodGet, "/api/v1/health", "", "")
		Expect(json.NewDecoder(w.Body).Decode(&health)).To(Succeed())
		Expect(health.Status).To(Equal(rest.HealthHealthy))
	})

	It("echoes a caller supplied trace id", func() {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
		req.Header.Set(middleware.TraceIDHeader, "trace-123")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		Expect(w.Header().Get(middleware.TraceIDHeader)).To(Equal("trace-123"))
	})

	It("serves the OpenAPI document", func() {
		w := do(http.MethodGet, "/openapi.yml", "", "")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring("openapi: 3.0.3"))
	})

	It("rejects protected routes without a token", func() {
		Expect(do(http.MethodGet, "/api/v1/transactions", "", "").Code).To(Equal(http.StatusUnauthorized))
		Expect(do(http.MethodGet, "/api/v1/users/me", "", "").Code).To(Equal(http.StatusUnauthorized))
	})

	It("rejects a wrong password", func() {
		w := do(http.MethodPost, "/api/v1/auth/login", "", `{"username":"admin","password":"salah"}`)
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})

	It("limits an employee to submitting reimbursements", func() {
		token := login("budi")

		Expect(do(http.MethodGet, "/api/v1/users/me", token, "").Code).To(Equal(http.StatusOK))
		Expect(do(http.MethodGet, "/api/v1/companies", token, "").Code).To(Equal(http.StatusOK))
		Expect(do(http.MethodPost, "/api/v1/reimbursements", token, reimbursementBody).Code).To(Equal(http.StatusCreated))

		w := do(http.MethodGet, "/api/v1/transactions", token, "")
		Expect(w.Code).To(Equal(http.StatusForbidden))
		Expect(w.Body.String()).To(ContainSubstring("INSUFFICIENT_PERMISSIONS"))

		Expect(do(http.MethodPut, "/api/v1/reimbursements/R1", token, `{"status":"BERHASIL"}`).Code).To(Equal(http.StatusForbidden))
		Expect(do(http.MethodGet, "/api/v1/reimbursements", token, "").Code).To(Equal(http.StatusForbidden))
		Expect(do(http.MethodPost, "/api/v1/companies", token, `{"name":"PT Baru"}`).Code).To(Equal(http.StatusForbidden))
		Expect(do(http.MethodPost, "/api/v1/reconciliation/run", token, "").Code).To(Equal(http.StatusForbidden))
	})

	It("posts an approved reimbursement into the ledger", func() {
		Expect(do(http.MethodPost, "/api/v1/reimbursements", login("budi"), reimbursementBody).Code).To(Equal(http.StatusCreated))
		token := login("admin")

		w := do(http.MethodPut, "/api/v1/reimbursements/R1", token, `{"status":"BERHASIL","transferProofUrl":"https://example.com/proof.jpg"}`)
		Expect(w.Code).To(Equal(http.StatusOK))

		w = do(http.MethodGet, "/api/v1/transactions/R1", token, "")
		Expect(w.Code).To(Equal(http.StatusOK))
		var posted transaction.Transaction
		Expect(json.NewDecoder(w.Body).Decode(&posted)).To(Succeed())
		Expect(posted.Type).To(Equal(transaction.TypeExpense))
		Expect(posted.ExpenseType).NotTo(BeNil())
		Expect(*posted.ExpenseType).To(Equal(transaction.ExpenseTypeReimburse))
		Expect(posted.Items).To(HaveLen(1))

		w = do(http.MethodPost, "/api/v1/reconciliation/run", token, "")
		Expect(w.Code).To(Equal(http.StatusOK))
		var run reconcile.Report
		Expect(json.NewDecoder(w.Body).Decode(&run)).To(Succeed())
		Expect(run.TotalApproved).To(Equal(1))
		Expect(run.AlreadyPosted).To(Equal(1))

		Expect(do(http.MethodGet, "/api/v1/reports/summary?company_id=1", token, "").Code).To(Equal(http.StatusOK))
	})

	It("rejects requests that do not match the API schema", func() {
		token := login("admin")
		w := do(http.MethodPut, "/api/v1/reimbursements/R1", token, `{"status":"SELESAI"}`)
		Expect(w.Code).To(Equal(http.StatusBadRequest))

		w = do(http.MethodGet, "/api/v1/transactions?from=July", token, "")
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("stores settings and runs migrations for system managers", func() {
		token := login("admin")

		Expect(do(http.MethodPut, "/api/v1/settings/app.name", token, `"Kas Kantor"`).Code).To(Equal(http.StatusOK))
		w := do(http.MethodGet, "/api/v1/settings", token, "")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring("Kas Kantor"))

		w = do(http.MethodPost, "/api/v1/system/db-migrate", token, "")
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(migrator.calls).To(Equal(1))
		var body map[string]interface{}
		Expect(json.NewDecoder(w.Body).Decode(&body)).To(Succeed())
		Expect(body["success"]).To(BeTrue())
		Expect(body["to_version"]).To(BeNumerically("==", 5))
	})

	It("reports a failed migration as 500", func() {
		migrator.err = errors.New("connection reset")
		w := do(http.MethodPost, "/api/v1/system/db-migrate", login("admin"), "")
		Expect(w.Code).To(Equal(http.StatusInternalServerError))
	})

	It("answers CORS preflight for configured origins", func() {
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/transactions", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		Expect(w.Header().Get("Access-Control-Allow-Origin")).To(Equal("http://localhost:5173"))
	})
})
