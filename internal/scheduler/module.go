package scheduler

import (
	"context"
	"log/slog"

	"github.com/trackly/trackly-api/config"
	"github.com/trackly/trackly-api/internal/metrics"
	"github.com/trackly/trackly-api/internal/service"
	"go.uber.org/fx"
)

var Module = fx.Module("scheduler",
	fx.Provide(
		func(cfg *config.Config, agg *service.Aggregator, logger *slog.Logger, m *metrics.Metrics) *Scheduler {
			return New(agg, Config{
				Interval:        cfg.Scheduler.Interval(),
				RunTimeout:      cfg.Scheduler.RunTimeout,
				ShutdownTimeout: cfg.Scheduler.ShutdownTimeout,
			}, logger.With(slog.String("component", "scheduler")), m)
		},
		func(s *Scheduler) service.AggregationJob { return s },
	),
	fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config, s *Scheduler, logger *slog.Logger) {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				if !cfg.Scheduler.Enabled {
					logger.Info("[SCHEDULER] disabled by configuration")
					return nil
				}
				// The API keeps serving without background aggregation.
				if err := s.Start(ctx); err != nil {
					logger.Error("[SCHEDULER] not started, running degraded", slog.Any("err", err))
				}
				return nil
			},
			OnStop: s.Stop,
		})
	}),
)
