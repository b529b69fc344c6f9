package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/trackly/trackly-api/internal/domain/model"
	"github.com/trackly/trackly-api/internal/metrics"
	"github.com/trackly/trackly-api/internal/store"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Aggregator computes and stores the daily statistics snapshot.
type Aggregator struct {
	issues    store.IssueStore
	snapshots store.SnapshotStore
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
	now       func() time.Time
}

func NewAggregator(issues store.IssueStore, snapshots store.SnapshotStore, logger *slog.Logger, m *metrics.Metrics) *Aggregator {
	return &Aggregator{
		issues:    issues,
		snapshots: snapshots,
		logger:    logger,
		metrics:   m,
		tracer:    otel.Tracer(tracerName),
		now:       time.Now,
	}
}

// AggregateToday runs a pass for the current UTC date.
func (a *Aggregator) AggregateToday(ctx context.Context) (*model.AggregationResult, error) {
	return a.Aggregate(ctx, a.now())
}

// Aggregate counts every issue created on or before the calendar day of date
// and upserts the snapshot for that day. Re-running it for the same day
// overwrites the counts and keeps a single row.
func (a *Aggregator) Aggregate(ctx context.Context, date time.Time) (*model.AggregationResult, error) {
	start := time.Now()
	day := model.Day(date)
	asOf := day.AddDate(0, 0, 1)

	ctx, span := a.tracer.Start(ctx, "Aggregator.Aggregate",
		trace.WithAttributes(attribute.String("stats.date", day.Format(model.DateLayout))))
	defer span.End()

	var (
		byStatus   map[string]int
		bySeverity map[string]int
		counted    int
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		byStatus, err = a.issues.CountGroupedBy(gCtx, store.FieldStatus, asOf)
		return err
	})
	g.Go(func() error {
		var err error
		bySeverity, err = a.issues.CountGroupedBy(gCtx, store.FieldSeverity, asOf)
		return err
	})
	g.Go(func() error {
		var err error
		counted, err = a.issues.CountIssues(gCtx, asOf)
		return err
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		a.logger.Error("[AGGREGATION] count failed",
			slog.String("date", day.Format(model.DateLayout)),
			slog.Any("err", err),
		)
		return nil, fmt.Errorf("aggregate %s: %w", day.Format(model.DateLayout), err)
	}

	statuses, severities := model.NewCounts()
	total := 0
	for _, st := range model.AllStatuses {
		statuses[st] = byStatus[string(st)]
		total += statuses[st]
	}
	for _, sv := range model.AllSeverities {
		severities[sv] = bySeverity[string(sv)]
	}
	// Writes between the grouped reads and the plain count can make them differ.
	if counted != total {
		a.logger.Warn("[AGGREGATION] count drift",
			slog.String("date", day.Format(model.DateLayout)),
			slog.Int("grouped_total", total),
			slog.Int("count", counted),
		)
	}

	stored, err := a.snapshots.UpsertSnapshot(ctx, &model.DailyStatsSnapshot{
		ID:               uuid.New(),
		Date:             day,
		CountsByStatus:   statuses,
		CountsBySeverity: severities,
		TotalIssues:      total,
		CreatedAt:        a.now().UTC(),
	})
	if err != nil {
		span.RecordError(err)
		a.logger.Error("[AGGREGATION] persist failed",
			slog.String("date", day.Format(model.DateLayout)),
			slog.Any("err", err),
		)
		return nil, fmt.Errorf("aggregate %s: %w", day.Format(model.DateLayout), err)
	}

	for _, sv := range model.AllSeverities {
		a.metrics.AllIssues.WithLabelValues(string(sv)).Set(float64(severities[sv]))
	}
	elapsed := time.Since(start)
	a.metrics.AggregationDuration.Observe(elapsed.Seconds())

	a.logger.Info("[AGGREGATION] snapshot stored",
		slog.String("date", stored.DateKey()),
		slog.Int("total_issues", stored.TotalIssues),
		slog.Int64("duration_ms", elapsed.Milliseconds()),
	)
	return &model.AggregationResult{Snapshot: stored, Elapsed: elapsed}, nil
}
