package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/bookkeeping/internal/auth"
	"github.com/frahmantamala/bookkeeping/internal/category"
	"github.com/frahmantamala/bookkeeping/internal/company"
	"github.com/frahmantamala/bookkeeping/internal/employee"
	"github.com/frahmantamala/bookkeeping/internal/reconcile"
	"github.com/frahmantamala/bookkeeping/internal/reimbursement"
	"github.com/frahmantamala/bookkeeping/internal/report"
	"github.com/frahmantamala/bookkeeping/internal/setting"
	"github.com/frahmantamala/bookkeeping/internal/transaction"
	"github.com/frahmantamala/bookkeeping/internal/transport/middleware"
	"github.com/frahmantamala/bookkeeping/internal/transport/swagger"
	"github.com/frahmantamala/bookkeeping/internal/user"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

const APIPrefix = "/api/v1"

// Handlers groups every HTTP handler mounted under APIPrefix.
type Handlers struct {
	Auth           *auth.Handler
	User           *user.Handler
	Company        *company.Handler
	Category       *category.Handler
	Employee       *employee.Handler
	Transaction    *transaction.Handler
	Reimbursement  *reimbursement.Handler
	Reconciliation *reconcile.Handler
	Report         *report.Handler
	Setting        *setting.Handler
	System         *SystemHandler
}

type RouterOptions struct {
	AllowedOrigins string
	OpenAPISpec    []byte
	// Validator is optional; nil disables request validation.
	Validator *middleware.RequestValidator
}

func RegisterAllRoutes(router chi.Router, db *sql.DB, h Handlers, opts RouterOptions, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)
	perm := func(permissions ...string) func(http.Handler) http.Handler {
		return middleware.RequirePermissions(logger, permissions...)
	}

	// Apply global middleware
	router.Use(middleware.CORS(opts.AllowedOrigins))
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	// OpenAPI document lives outside the API prefix
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		w.Write(opts.OpenAPISpec)
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route(APIPrefix, func(r chi.Router) {
		if opts.Validator != nil {
			r.Use(opts.Validator.Middleware)
		}

		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)
		r.Get("/test-db", healthHandler.testDBHandler)

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", h.Auth.Login)
			sr.Post("/refresh", h.Auth.RefreshToken)
		})

		// Protected routes that require authentication
		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			pr.Get("/users/me", h.User.GetCurrentUser)

			pr.Route("/users", func(ur chi.Router) {
				ur.Use(perm(auth.PermManageUsers))
				ur.Get("/", h.User.ListUsers)
				ur.Post("/", h.User.CreateUser)
				ur.Delete("/{id}", h.User.DeleteUser)
			})

			pr.Route("/companies", func(cr chi.Router) {
				cr.Get("/", h.Company.GetCompanies)
				cr.Get("/{id}", h.Company.GetCompany)
				cr.Group(func(wr chi.Router) {
					wr.Use(perm(auth.PermManageMasterData))
					wr.Post("/", h.Company.CreateCompany)
					wr.Put("/{id}", h.Company.UpdateCompany)
					wr.Delete("/{id}", h.Company.DeleteCompany)
				})
			})

			pr.Route("/categories", func(cr chi.Router) {
				cr.Get("/", h.Category.GetCategories)
				cr.Get("/{id}", h.Category.GetCategory)
				cr.Group(func(wr chi.Router) {
					wr.Use(perm(auth.PermManageMasterData))
					wr.Post("/", h.Category.CreateCategory)
					wr.Put("/{id}", h.Category.UpdateCategory)
					wr.Delete("/{id}", h.Category.DeleteCategory)
				})
			})

			pr.Route("/employees", func(er chi.Router) {
				er.Use(perm(auth.PermManageMasterData))
				er.Get("/", h.Employee.GetEmployees)
				er.Post("/", h.Employee.CreateEmployee)
				er.Get("/{id}", h.Employee.GetEmployee)
				er.Put("/{id}", h.Employee.UpdateEmployee)
				er.Delete("/{id}", h.Employee.DeleteEmployee)
			})

			pr.Route("/transactions", func(tr chi.Router) {
				tr.Use(perm(auth.PermManageTransactions))
				tr.Get("/", h.Transaction.ListTransactions)
				tr.Post("/", h.Transaction.CreateTransaction)
				tr.Get("/{id}", h.Transaction.GetTransaction)
				tr.Put("/{id}", h.Transaction.UpdateTransaction)
				tr.Delete("/{id}", h.Transaction.DeleteTransaction)
			})

			pr.Route("/reimbursements", func(rr chi.Router) {
				rr.With(perm(auth.PermSubmitReimbursements)).Post("/", h.Reimbursement.CreateReimbursement)
				rr.With(perm(auth.PermApproveReimbursements)).Put("/{id}", h.Reimbursement.UpdateStatus)

				rr.Group(func(mr chi.Router) {
					mr.Use(perm(auth.PermManageReimbursements))
					mr.Get("/", h.Reimbursement.ListReimbursements)
					mr.Get("/{id}", h.Reimbursement.GetReimbursement)
					mr.Put("/{id}/details", h.Reimbursement.UpdateReimbursementDetails)
					mr.Delete("/{id}", h.Reimbursement.DeleteReimbursement)
				})
			})

			pr.With(perm(auth.PermRunReconciliation)).Post("/reconciliation/run", h.Reconciliation.RunReconciliation)
			pr.With(perm(auth.PermViewReports)).Get("/reports/summary", h.Report.GetSummary)

			pr.Group(func(sr chi.Router) {
				sr.Use(perm(auth.PermManageSystem))
				sr.Get("/settings", h.Setting.GetSettings)
				sr.Get("/settings/{key}", h.Setting.GetSetting)
				sr.Put("/settings/{key}", h.Setting.PutSetting)
				sr.Post("/system/db-migrate", h.System.MigrateDB)
			})
		})
	})
}
