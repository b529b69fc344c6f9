package pubsub

import (
	"context"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/trackly/trackly-api/config"
	"github.com/trackly/trackly-api/internal/domain/registry"
	"github.com/trackly/trackly-api/internal/metrics"
	"go.uber.org/fx"
)

var Module = fx.Module("pubsub",
	fx.Provide(
		// A nil dispatcher turns export off.
		func(lc fx.Lifecycle, cfg *config.Config, wl watermill.LoggerAdapter, logger *slog.Logger) (EventDispatcher, error) {
			exp := cfg.Events.Export
			if !exp.Enabled() {
				return nil, nil
			}

			pub, err := NewAMQPPublisher(exp, wl)
			if err != nil {
				return nil, err
			}
			lc.Append(fx.Hook{
				OnStop: func(context.Context) error { return pub.Close() },
			})

			l := logger.With(slog.String("component", "export"))
			return NewEventDispatcher(pub, BreakerSettings(exp.BreakerTimeout, l), l), nil
		},
		func(lc fx.Lifecycle, cfg *config.Config, hub registry.Hubber, d EventDispatcher, logger *slog.Logger, m *metrics.Metrics) *Relay {
			r := NewRelay(hub, d, cfg.Events.RelayBuffer, logger.With(slog.String("component", "relay")), m)
			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					r.Start()
					return nil
				},
				OnStop: r.Stop,
			})
			return r
		},
	),
)
