package db

import (
	"context"
	"log/slog"

	"github.com/trackly/trackly-api/config"
	"go.uber.org/fx"
)

var Module = fx.Module("db",
	fx.Provide(func(lc fx.Lifecycle, cfg *config.Config, logger *slog.Logger) (*DB, error) {
		conn, err := Open(context.Background(), cfg.Database)
		if err != nil {
			return nil, err
		}

		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				if !cfg.Database.AutoMigrate {
					return nil
				}
				if err := conn.Migrate(ctx); err != nil {
					return err
				}
				logger.Info("[DB] schema ready", slog.String("driver", conn.Driver()))
				return nil
			},
			OnStop: func(ctx context.Context) error {
				return conn.Close()
			},
		})
		return conn, nil
	}),
)
