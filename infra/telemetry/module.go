package telemetry

import (
	"context"
	"log/slog"
	"os"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/trackly/trackly-api/config"
	"github.com/trackly/trackly-api/internal/domain/model"
	"go.uber.org/fx"
)

var Module = fx.Module("telemetry",
	fx.Provide(
		func(lc fx.Lifecycle, cfg *config.Config) (*Telemetry, error) {
			t, err := Setup(context.Background(), cfg.Service, model.ServerVersion, cfg.OTel)
			if err != nil {
				return nil, err
			}
			lc.Append(fx.Hook{OnStop: t.Shutdown})
			return t, nil
		},
		func() *slog.LevelVar { return new(slog.LevelVar) },
		// *Telemetry is requested so the global log provider exists before the
		// otelslog bridge binds to it.
		func(cfg *config.Config, level *slog.LevelVar, _ *Telemetry) *slog.Logger {
			logger := NewLogger(os.Stdout, cfg.Service, cfg.Log, cfg.OTel.Enabled, level)
			slog.SetDefault(logger)
			return logger
		},
		func(logger *slog.Logger) watermill.LoggerAdapter {
			return watermill.NewSlogLogger(logger.With(slog.String("component", "watermill")))
		},
	),
	// [HOT_RELOAD] log.level follows the config file.
	fx.Invoke(func(cfg *config.Config, level *slog.LevelVar, logger *slog.Logger) {
		cfg.OnChange(func(next *config.Config) {
			lv := ParseLevel(next.Log.Level)
			if lv != level.Level() {
				level.Set(lv)
				logger.Info("[CONFIG] log level changed", slog.String("level", lv.String()))
			}
		})
	}),
)
