package rest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/trackly/trackly-api/config"
	"github.com/trackly/trackly-api/infra/blob"
	httpsrv "github.com/trackly/trackly-api/infra/server/http"
	"github.com/trackly/trackly-api/infra/server/http/interceptors"
	"github.com/trackly/trackly-api/internal/service"
	"go.uber.org/fx"
)

var Module = fx.Module("rest",
	fx.Provide(
		func(s *service.AuthService) *AuthHandler { return NewAuthHandler(s) },
		func(s *service.UserService) *UserHandler { return NewUserHandler(s) },
		func(s *service.IssueService) *IssueHandler { return NewIssueHandler(s) },
		func(s *service.FileService, blobs *blob.Store) *FileHandler {
			return NewFileHandler(s, blobs.MaxSize())
		},
		func(s *service.StatsService) *StatsHandler { return NewStatsHandler(s) },
		func(d service.Deliverer, reg *prometheus.Registry) *SystemHandler {
			return NewSystemHandler(d, reg)
		},
	),
	fx.Invoke(RegisterRoutes),
)

type routeParams struct {
	fx.In

	Server *httpsrv.Server
	Config *config.Config
	Authn  service.Authenticator

	Auth   *AuthHandler
	Users  *UserHandler
	Issues *IssueHandler
	Files  *FileHandler
	Stats  *StatsHandler
	System *SystemHandler
}

func RegisterRoutes(p routeParams) {
	SetupRoutes(p.Server.Router, Handlers{
		Auth:   p.Auth,
		Users:  p.Users,
		Issues: p.Issues,
		Files:  p.Files,
		Stats:  p.Stats,
		System: p.System,
	}, interceptors.NewAuthInterceptor(p.Authn), RouterConfig{
		LoginRateLimit: p.Config.HTTP.LoginRateLimit,
	})
}
