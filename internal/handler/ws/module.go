package ws

import (
	"log/slog"

	httpsrv "github.com/trackly/trackly-api/infra/server/http"
	"github.com/trackly/trackly-api/internal/handler/stream"
	"github.com/trackly/trackly-api/internal/service"
	"go.uber.org/fx"
)

var Module = fx.Module("delivery-ws",
	fx.Provide(func(logger *slog.Logger, authn service.Authenticator, session *stream.Session) *WSHandler {
		return NewWSHandler(logger.With(slog.String("component", "ws")), authn, session)
	}),
	fx.Invoke(RegisterRoutes),
)

func RegisterRoutes(server *httpsrv.Server, h *WSHandler) {
	server.Router.Get("/api/events/ws", h.ServeHTTP)
}
