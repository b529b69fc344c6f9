package registry

import (
	"context"
	"log/slog"

	"github.com/trackly/trackly-api/config"
	"github.com/trackly/trackly-api/internal/metrics"
	"go.uber.org/fx"
)

var Module = fx.Module("registry",
	fx.Provide(
		// [CLEAN_INJECTION] Configure Hub using Functional Options
		func(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *Hub {
			return NewHub(
				WithQueueSize(cfg.Events.QueueSize),
				WithLogger(logger.With(slog.String("component", "hub"))),
				WithMetrics(m),
			)
		},
		func(h *Hub) Hubber { return h },
	),
	fx.Invoke(func(lc fx.Lifecycle, h Hubber) {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				h.Shutdown() // [GRACEFUL_SHUTDOWN] end every open stream
				return nil
			},
		})
	}),
)
