// Package reconcile posts every approved reimbursement that has no ledger entry yet.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/frahmantamala/bookkeeping/internal"
	"github.com/frahmantamala/bookkeeping/internal/core/events"
	"github.com/frahmantamala/bookkeeping/internal/posting"
	"github.com/frahmantamala/bookkeeping/internal/reimbursement"
)

// Source lists reimbursement ids by status.
type Source interface {
	ListIDsByStatus(ctx context.Context, status reimbursement.Status) ([]string, error)
}

type Config struct {
	Workers     int
	ItemTimeout time.Duration
}

type Failure struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// Report summarizes one run. TotalApproved always equals AlreadyPosted + NewlyPosted + Errors.
type Report struct {
	TotalApproved int       `json:"totalApproved"`
	AlreadyPosted int       `json:"alreadyPosted"`
	NewlyPosted   int       `json:"newlyPosted"`
	Errors        int       `json:"errors"`
	Failures      []Failure `json:"failures"`
	StartedAt     time.Time `json:"startedAt"`
	FinishedAt    time.Time `json:"finishedAt"`
}

func (r Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

func (r Report) Summary() string {
	var b strings.Builder
	b.WriteString("Reconciliation summary\n")
	fmt.Fprintf(&b, "  Total Approved : %d\n", r.TotalApproved)
	fmt.Fprintf(&b, "  Already Posted : %d\n", r.AlreadyPosted)
	fmt.Fprintf(&b, "  Newly Posted   : %d\n", r.NewlyPosted)
	fmt.Fprintf(&b, "  Errors         : %d\n", r.Errors)
	for _, f := range r.Failures {
		fmt.Fprintf(&b, "    - %s: %s\n", f.ID, f.Message)
	}
	return b.String()
}

type Job struct {
	source    Source
	runner    posting.TxRunner
	engine    *posting.Engine
	publisher events.Publisher
	cfg       Config
	logger    *slog.Logger
	pool      *pool
	nowFunc   func() time.Time
}

func NewJob(source Source, runner posting.TxRunner, engine *posting.Engine, publisher events.Publisher, cfg Config, logger *slog.Logger) *Job {
	return &Job{
		source:    source,
		runner:    runner,
		engine:    engine,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger,
		pool:      newPool(cfg.Workers, logger),
		nowFunc:   time.Now,
	}
}

// Run posts each BERHASIL reimbursement in its own transaction. Item failures are
// collected in the report; only a failure to list reimbursements aborts the run.
func (j *Job) Run(ctx context.Context) (Report, error) {
	report := Report{StartedAt: j.nowFunc().UTC(), Failures: []Failure{}}
	ctx = internal.ContextWithActor(ctx, internal.SystemActor)

	ids, err := j.source.ListIDsByStatus(ctx, reimbursement.StatusBerhasil)
	if err != nil {
		j.logger.Error("failed to list approved reimbursements", "error", err)
		return report, fmt.Errorf("list approved reimbursements: %w", err)
	}
	report.TotalApproved = len(ids)

	j.logger.Info("reconciliation started", "total_approved", len(ids), "workers", j.pool.maxWorkers)

	for _, res := range j.pool.run(ctx, ids, j.postOne) {
		switch {
		case res.Err != nil:
			report.Errors++
			report.Failures = append(report.Failures, Failure{ID: res.ReimbursementID, Message: res.Err.Error()})
			j.logger.Error("reconciliation item failed",
				"reimbursement_id", res.ReimbursementID,
				"error", res.Err)
		case res.Outcome == posting.OutcomePosted:
			report.NewlyPosted++
		default:
			report.AlreadyPosted++
		}
	}
	sort.Slice(report.Failures, func(a, b int) bool { return report.Failures[a].ID < report.Failures[b].ID })

	report.FinishedAt = j.nowFunc().UTC()
	j.logger.Info("reconciliation finished",
		"total_approved", report.TotalApproved,
		"already_posted", report.AlreadyPosted,
		"newly_posted", report.NewlyPosted,
		"errors", report.Errors,
		"duration_ms", report.Duration().Milliseconds())

	if j.publisher != nil {
		event := events.NewReconciliationCompletedEvent(report.TotalApproved, report.AlreadyPosted, report.NewlyPosted, report.Errors, report.Duration())
		if err := j.publisher.Publish(ctx, event); err != nil {
			j.logger.Warn("failed to publish reconciliation event", "error", err)
		}
	}
	return report, nil
}

func (j *Job) postOne(ctx context.Context, id string) postResult {
	itemCtx, cancel := internal.WithTimeout(ctx, j.cfg.ItemTimeout)
	defer cancel()

	var outcome posting.Outcome
	err := j.runner.WithinTransaction(itemCtx, func(ctx context.Context, store posting.Store) error {
		var err error
		outcome, err = j.engine.Post(ctx, store, id)
		return err
	})
	return postResult{ReimbursementID: id, Outcome: outcome, Err: err}
}

// RunEvery runs the job immediately and then on every tick until ctx is done.
func (j *Job) RunEvery(ctx context.Context, interval time.Duration, onReport func(Report, error)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		report, err := j.Run(ctx)
		onReport(report, err)

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}
