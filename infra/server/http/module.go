package httpsrv

import (
	"log/slog"

	"github.com/trackly/trackly-api/config"
	"github.com/trackly/trackly-api/internal/domain/registry"
	"github.com/trackly/trackly-api/internal/metrics"
	"go.uber.org/fx"
)

var Module = fx.Module("http-server",
	fx.Provide(func(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *Server {
		return New(cfg.HTTP, logger.With(slog.String("component", "http")), m)
	}),
	fx.Invoke(func(lc fx.Lifecycle, s *Server, hub registry.Hubber) {
		// [GRACEFUL_SHUTDOWN] close every stream before waiting on handlers
		s.RegisterOnShutdown(hub.Shutdown)
		lc.Append(fx.Hook{
			OnStart: s.Start,
			OnStop:  s.Stop,
		})
	}),
)
