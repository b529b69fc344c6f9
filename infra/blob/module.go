package blob

import (
	"github.com/trackly/trackly-api/config"
	"go.uber.org/fx"
)

var Module = fx.Module("blob",
	fx.Provide(func(cfg *config.Config) (*Store, error) {
		return NewOsStore(cfg.Files.Root, cfg.Files.MaxSize)
	}),
)
