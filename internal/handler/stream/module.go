package stream

import (
	"log/slog"

	"github.com/trackly/trackly-api/config"
	"github.com/trackly/trackly-api/internal/service"
	"go.uber.org/fx"
)

var Module = fx.Module("stream",
	fx.Provide(func(cfg *config.Config, d service.Deliverer, logger *slog.Logger) *Session {
		return NewSession(d, cfg.Events.HeartbeatInterval, logger.With(slog.String("component", "stream")))
	}),
)
