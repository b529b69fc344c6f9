package auth

import (
	"github.com/trackly/trackly-api/config"
	"go.uber.org/fx"
)

var Module = fx.Module("auth",
	fx.Provide(
		func(cfg *config.Config) (*TokenIssuer, error) { return NewTokenIssuer(cfg.Auth) },
		func(cfg *config.Config) *Hasher { return NewHasher(cfg.Auth.BcryptCost) },
	),
)
