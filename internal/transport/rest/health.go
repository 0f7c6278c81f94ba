package rest

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"
)

const healthCheckTimeout = 2 * time.Second

type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthDegraded  HealthStatus = "degraded"
	HealthUnhealthy HealthStatus = "unhealthy"
)

type HealthResponse struct {
	Status     HealthStatus          `json:"status"`
	CheckedAt  time.Time             `json:"checked_at"`
	Components map[string]CheckEntry `json:"components"`
}

type CheckEntry struct {
	Status     HealthStatus   `json:"status"`
	Message    string         `json:"message,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	DurationMs int64          `json:"duration_ms"`
}

// DBStatus is the /test-db body shown on the settings screen.
type DBStatus struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// approved reimbursements that reconciliation has not posted yet
const unpostedApprovedQuery = `
SELECT COUNT(*) FROM reimbursements r
WHERE r.status = 'BERHASIL'
  AND NOT EXISTS (SELECT 1 FROM transactions t WHERE t.id = r.id)`

type healthCheck struct {
	name  string
	check func(ctx context.Context) CheckEntry
}

type HealthHandler struct {
	db     *sql.DB
	checks []healthCheck
}

func NewHealthHandler(db *sql.DB) *HealthHandler {
	h := &HealthHandler{db: db}
	h.checks = []healthCheck{
		{name: "postgres", check: h.checkDatabase},
		{name: "ledger", check: h.checkLedgerBacklog},
	}
	return h
}

func (h *HealthHandler) checkDatabase(ctx context.Context) CheckEntry {
	if err := h.db.PingContext(ctx); err != nil {
		return CheckEntry{Status: HealthUnhealthy, Message: err.Error()}
	}
	return CheckEntry{Status: HealthHealthy}
}

// checkLedgerBacklog degrades when approved reimbursements are still missing
// from the ledger; the reconcile command clears the backlog.
func (h *HealthHandler) checkLedgerBacklog(ctx context.Context) CheckEntry {
	var unposted int64
	if err := h.db.QueryRowContext(ctx, unpostedApprovedQuery).Scan(&unposted); err != nil {
		return CheckEntry{Status: HealthUnhealthy, Message: err.Error()}
	}

	entry := CheckEntry{
		Status:  HealthHealthy,
		Details: map[string]any{"unposted_approved": unposted},
	}
	if unposted > 0 {
		entry.Status = HealthDegraded
		entry.Message = "approved reimbursements awaiting reconciliation"
	}
	return entry
}

func (h *HealthHandler) pingHandler(w http.ResponseWriter, r *http.Request) {
	writeHealthJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

// healthCheckHandler is the readiness probe. Only an unhealthy component fails it.
func (h *HealthHandler) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	resp := HealthResponse{
		Status:     HealthHealthy,
		CheckedAt:  time.Now().UTC(),
		Components: make(map[string]CheckEntry, len(h.checks)),
	}

	for _, c := range h.checks {
		start := time.Now()
		entry := c.check(ctx)
		entry.DurationMs = time.Since(start).Milliseconds()
		resp.Components[c.name] = entry

		switch {
		case entry.Status == HealthUnhealthy:
			resp.Status = HealthUnhealthy
		case entry.Status == HealthDegraded && resp.Status == HealthHealthy:
			resp.Status = HealthDegraded
		}
	}

	statusCode := http.StatusOK
	if resp.Status == HealthUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}
	writeHealthJSON(w, statusCode, resp)
}

func (h *HealthHandler) testDBHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	resp := DBStatus{Status: "success", Message: "Database connected"}
	statusCode := http.StatusOK
	if err := h.db.PingContext(ctx); err != nil {
		resp = DBStatus{Status: "error", Message: "Database connection failed", Error: err.Error()}
		statusCode = http.StatusInternalServerError
	}
	writeHealthJSON(w, statusCode, resp)
}

func writeHealthJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}
