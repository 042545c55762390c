package cron

import (
	"context"
	"log/slog"
)

// Refresher is the subset of the provisioning engine needed by the
// refresh job. Defined here to avoid a dependency on the provision
// package.
type Refresher interface {
	Down(ctx context.Context) error
	Up(ctx context.Context) error
}

// RefreshJob drops and recreates the whole database set on a
// schedule, returning every alias to a known-clean state.
type RefreshJob struct {
	Engine       Refresher
	Logger       *slog.Logger
	ScheduleExpr string // empty = default "0 * * * *"
}

// Compile-time interface check.
var _ Job = (*RefreshJob)(nil)

// Name implements Job.
func (j *RefreshJob) Name() string { return "refresh" }

// Schedule implements Job.
func (j *RefreshJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return "0 * * * *"
}

// Run tears the set down and provisions it again. Teardown errors are
// logged but do not block re-provisioning: drop-and-recreate is the
// recovery path for half-torn-down state.
func (j *RefreshJob) Run(ctx context.Context) error {
	if err := j.Engine.Down(ctx); err != nil {
		j.Logger.Warn("cron: teardown before refresh incomplete", "error", err)
	}
	if err := j.Engine.Up(ctx); err != nil {
		return err
	}
	j.Logger.Info("cron: database set refreshed")
	return nil
}
