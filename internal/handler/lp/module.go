package lp

import (
	"log/slog"

	"github.com/trackly/trackly-api/config"
	httpsrv "github.com/trackly/trackly-api/infra/server/http"
	"github.com/trackly/trackly-api/internal/service"
	"go.uber.org/fx"
)

var Module = fx.Module("delivery-lp",
	fx.Provide(func(cfg *config.Config, logger *slog.Logger, authn service.Authenticator, d service.Deliverer) *LPHandler {
		return NewLPHandler(logger.With(slog.String("component", "lp")), authn, d, cfg.Events.PollTimeout)
	}),
	fx.Invoke(RegisterRoutes),
)

func RegisterRoutes(server *httpsrv.Server, h *LPHandler) {
	server.Router.Get("/api/events/poll", h.Poll)
}
