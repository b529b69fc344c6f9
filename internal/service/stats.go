package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/trackly/trackly-api/internal/domain/model"
	"github.com/trackly/trackly-api/internal/domain/policy"
	"github.com/trackly/trackly-api/internal/store"
)

const (
	defaultStatsDays = 30
	maxStatsDays     = 365
)

// AggregationJob is the scheduler surface exposed to privileged callers.
type AggregationJob interface {
	Trigger(ctx context.Context) (*model.AggregationResult, error)
	Status() model.JobStatus
}

type StatsService struct {
	snapshots store.SnapshotStore
	job       AggregationJob
	now       func() time.Time
}

func NewStatsService(snapshots store.SnapshotStore, job AggregationJob) *StatsService {
	return &StatsService{snapshots: snapshots, job: job, now: time.Now}
}

// ListDaily returns up to limit snapshots, newest first.
func (s *StatsService) ListDaily(ctx context.Context, actor model.Identity, limit int) ([]*model.DailyStatsSnapshot, error) {
	if !policy.IsMaintainerOrAdmin(actor) {
		return nil, ErrForbidden
	}
	if limit == 0 {
		limit = defaultStatsDays
	}
	if limit < 1 || limit > maxStatsDays {
		return nil, invalidf("limit must be between 1 and %d", maxStatsDays)
	}

	out, err := s.snapshots.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list daily stats: %w", err)
	}
	return out, nil
}

// GetDaily returns the snapshot for a YYYY-MM-DD date.
func (s *StatsService) GetDaily(ctx context.Context, actor model.Identity, date string) (*model.DailyStatsSnapshot, error) {
	if !policy.IsMaintainerOrAdmin(actor) {
		return nil, ErrForbidden
	}
	day, err := model.ParseDay(date)
	if err != nil {
		return nil, invalidf("Invalid date format. Use YYYY-MM-DD")
	}

	snap, err := s.snapshots.GetByDate(ctx, day)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: No statistics found for %s", ErrNotFound, date)
		}
		return nil, fmt.Errorf("get daily stats %s: %w", date, err)
	}
	return snap, nil
}

// Summary compares the snapshots of today and yesterday.
func (s *StatsService) Summary(ctx context.Context, actor model.Identity) (*model.StatsSummary, error) {
	if !policy.IsMaintainerOrAdmin(actor) {
		return nil, ErrForbidden
	}

	today := model.Day(s.now())
	out := &model.StatsSummary{LastUpdated: s.now().UTC()}

	var err error
	if out.Today, err = s.optional(ctx, today); err != nil {
		return nil, err
	}
	if out.Yesterday, err = s.optional(ctx, today.AddDate(0, 0, -1)); err != nil {
		return nil, err
	}

	if out.Today != nil && out.Yesterday != nil {
		out.Changes = &model.SummaryChanges{
			TotalChange:    out.Today.TotalIssues - out.Yesterday.TotalIssues,
			OpenChange:     out.Today.CountsByStatus[model.StatusOpen] - out.Yesterday.CountsByStatus[model.StatusOpen],
			CriticalChange: out.Today.CountsBySeverity[model.SeverityCritical] - out.Yesterday.CountsBySeverity[model.SeverityCritical],
		}
	}
	return out, nil
}

// Trigger runs an aggregation pass now. Admin only.
func (s *StatsService) Trigger(ctx context.Context, actor model.Identity) (*model.AggregationResult, error) {
	if !policy.IsAdmin(actor) {
		return nil, ErrForbidden
	}
	return s.job.Trigger(ctx)
}

// SchedulerStatus reports the periodic job. Admin only.
func (s *StatsService) SchedulerStatus(actor model.Identity) (model.JobStatus, error) {
	if !policy.IsAdmin(actor) {
		return model.JobStatus{}, ErrForbidden
	}
	return s.job.Status(), nil
}

func (s *StatsService) optional(ctx context.Context, day time.Time) (*model.DailyStatsSnapshot, error) {
	snap, err := s.snapshots.GetByDate(ctx, day)
	switch {
	case err == nil:
		return snap, nil
	case errors.Is(err, store.ErrNotFound):
		return nil, nil
	default:
		return nil, fmt.Errorf("stats summary: %w", err)
	}
}
