package sse

import (
	"log/slog"

	httpsrv "github.com/trackly/trackly-api/infra/server/http"
	"github.com/trackly/trackly-api/internal/handler/stream"
	"github.com/trackly/trackly-api/internal/service"
	"go.uber.org/fx"
)

var Module = fx.Module("delivery-sse",
	fx.Provide(func(logger *slog.Logger, authn service.Authenticator, session *stream.Session) *SSEHandler {
		return NewSSEHandler(logger.With(slog.String("component", "sse")), authn, session)
	}),
	fx.Invoke(RegisterRoutes),
)

func RegisterRoutes(server *httpsrv.Server, h *SSEHandler) {
	server.Router.Get("/api/events/stream", h.ServeHTTP)
}
