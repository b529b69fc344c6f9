package service

import (
	"log/slog"

	"github.com/trackly/trackly-api/config"
	"github.com/trackly/trackly-api/infra/blob"
	"github.com/trackly/trackly-api/internal/adapter/pubsub"
	"github.com/trackly/trackly-api/internal/store"
	"go.uber.org/fx"
)

var Module = fx.Module("service",
	fx.Provide(
		fx.Annotate(NewDeliveryService, fx.As(new(Deliverer))),
		func(cfg *config.Config, users store.UserStore) (IdentityResolver, error) {
			r, err := NewIdentityResolver(users, cfg.Auth.IdentityCache)
			if err != nil {
				return nil, err
			}
			return r, nil
		},
		func(r *pubsub.Relay) EventSink { return r },

		NewAuthService,
		func(s *AuthService) Authenticator { return s },
		NewUserService,
		NewIssueService,
		NewAggregator,
		NewStatsService,
		func(cfg *config.Config, files store.FileStore, blobs *blob.Store, logger *slog.Logger) *FileService {
			return NewFileService(files, blobs, cfg.Files.BaseURL, logger.With(slog.String("component", "files")))
		},
	),

	// [DECORATION_LAYER] Log identity lookups without touching the resolver.
	fx.Decorate(func(orig IdentityResolver, logger *slog.Logger) IdentityResolver {
		return NewIdentityMiddleware(orig, logger.With(slog.String("component", "identity")))
	}),
)
