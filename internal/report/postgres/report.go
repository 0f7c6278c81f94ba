package postgres

import (
	"context"
	"strings"

	"github.com/frahmantamala/bookkeeping/internal/report"
	"github.com/jmoiron/sqlx"
)

type ReportRepository struct {
	db *sqlx.DB
}

func NewReportRepository(db *sqlx.DB) report.RepositoryAPI {
	return &ReportRepository{db: db}
}

// where renders the shared date and company filter.
func where(filter report.Filter) (string, []interface{}) {
	var clauses []string
	var args []interface{}
	if filter.From != nil {
		clauses = append(clauses, "date >= ?")
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		clauses = append(clauses, "date <= ?")
		args = append(args, *filter.To)
	}
	if filter.CompanyID > 0 {
		clauses = append(clauses, "company_id = ?")
		args = append(args, filter.CompanyID)
	}
	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (r *ReportRepository) LedgerTotals(ctx context.Context, filter report.Filter) (report.LedgerTotals, error) {
	cond, args := where(filter)
	query := r.db.Rebind(`
		SELECT
			COALESCE(SUM(CASE WHEN type = 'PEMASUKAN' THEN grand_total ELSE 0 END), 0) AS income,
			COALESCE(SUM(CASE WHEN type = 'PENGELUARAN' THEN grand_total ELSE 0 END), 0) AS expense,
			COALESCE(SUM(CASE WHEN type = 'PENGELUARAN' AND expense_type = 'REIMBURSE' THEN grand_total ELSE 0 END), 0) AS reimbursement_expense,
			COUNT(*) AS count
		FROM transactions` + cond)

	var totals report.LedgerTotals
	err := r.db.GetContext(ctx, &totals, query, args...)
	return totals, err
}

func (r *ReportRepository) ReimbursementTotals(ctx context.Context, filter report.Filter) ([]report.StatusTotal, error) {
	cond, args := where(filter)
	query := r.db.Rebind(`
		SELECT status, COUNT(*) AS count, COALESCE(SUM(grand_total), 0) AS total
		FROM reimbursements` + cond + `
		GROUP BY status
		ORDER BY status`)

	var totals []report.StatusTotal
	err := r.db.SelectContext(ctx, &totals, query, args...)
	return totals, err
}

func (r *ReportRepository) CategoryTotals(ctx context.Context, filter report.Filter) ([]report.CategoryTotal, error) {
	cond, args := where(filter)
	query := r.db.Rebind(`
		SELECT category, type, COALESCE(SUM(grand_total), 0) AS total
		FROM transactions` + cond + `
		GROUP BY category, type
		ORDER BY type, category`)

	var totals []report.CategoryTotal
	err := r.db.SelectContext(ctx, &totals, query, args...)
	return totals, err
}
