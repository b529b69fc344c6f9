package cmd

import (
	"log/slog"

	"github.com/trackly/trackly-api/config"
	"github.com/trackly/trackly-api/infra/auth"
	"github.com/trackly/trackly-api/infra/blob"
	"github.com/trackly/trackly-api/infra/db"
	httpsrv "github.com/trackly/trackly-api/infra/server/http"
	"github.com/trackly/trackly-api/infra/telemetry"
	"github.com/trackly/trackly-api/internal/adapter/pubsub"
	"github.com/trackly/trackly-api/internal/domain/registry"
	"github.com/trackly/trackly-api/internal/handler/lp"
	"github.com/trackly/trackly-api/internal/handler/rest"
	"github.com/trackly/trackly-api/internal/handler/sse"
	"github.com/trackly/trackly-api/internal/handler/stream"
	"github.com/trackly/trackly-api/internal/handler/ws"
	"github.com/trackly/trackly-api/internal/metrics"
	"github.com/trackly/trackly-api/internal/scheduler"
	"github.com/trackly/trackly-api/internal/service"
	"github.com/trackly/trackly-api/internal/store"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
)

func NewApp(cfg *config.Config) *fx.App {
	return fx.New(
		fx.Supply(cfg),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			l := &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
			l.UseLogLevel(slog.LevelDebug)
			return l
		}),
		telemetry.Module,
		metrics.Module,
		db.Module,
		store.Module,
		auth.Module,
		blob.Module,
		registry.Module,
		pubsub.Module,
		service.Module,
		scheduler.Module,
		httpsrv.Module,
		stream.Module,
		sse.Module,
		ws.Module,
		lp.Module,
		rest.Module,
	)
}
