package rest

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

type Handlers struct {
	Auth   *AuthHandler
	Users  *UserHandler
	Issues *IssueHandler
	Files  *FileHandler
	Stats  *StatsHandler
	System *SystemHandler
}

type RouterConfig struct {
	// LoginRateLimit caps credential requests per client IP per minute.
	LoginRateLimit int
}

// SetupRoutes mounts the JSON API. requireAuth guards everything except
// the public auth endpoints and the probes.
func SetupRoutes(r chi.Router, h Handlers, requireAuth func(http.Handler) http.Handler, cfg RouterConfig) {
	r.Get("/", h.System.Root)
	r.Get("/health", h.System.Health)
	r.Get("/metrics", h.System.Metrics)

	r.Route("/api", func(api chi.Router) {
		api.Route("/auth", func(ar chi.Router) {
			AuthRouter(ar, h.Auth, requireAuth, cfg)
		})

		api.Group(func(pr chi.Router) {
			pr.Use(requireAuth)

			pr.Route("/users", func(r chi.Router) { UserRouter(r, h.Users) })
			pr.Route("/issues", func(r chi.Router) { IssueRouter(r, h.Issues) })
			pr.Route("/files", func(r chi.Router) { FileRouter(r, h.Files) })
			pr.Route("/stats", func(r chi.Router) { StatsRouter(r, h.Stats) })
			pr.Get("/events/stats", h.System.EventStats)
		})
	})
}

func AuthRouter(r chi.Router, h *AuthHandler, requireAuth func(http.Handler) http.Handler, cfg RouterConfig) {
	if cfg.LoginRateLimit > 0 {
		limited := r.With(httprate.Limit(cfg.LoginRateLimit, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
		limited.Post("/login", h.Login)
		limited.Post("/signup", h.Signup)
	} else {
		r.Post("/login", h.Login)
		r.Post("/signup", h.Signup)
	}
	r.Post("/refresh", h.Refresh)
	r.Post("/logout", h.Logout)
	r.With(requireAuth).Get("/me", h.Me)
}

func UserRouter(r chi.Router, h *UserHandler) {
	r.Get("/", h.List)
	r.Get("/stats/count", h.Count)
	r.Get("/email/{email}", h.GetByEmail)
	r.Get("/{user_id}", h.Get)
	r.Put("/{user_id}", h.Update)
	r.Delete("/{user_id}", h.Delete)
}

func IssueRouter(r chi.Router, h *IssueHandler) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/stats/count", h.Count)
	r.Get("/stats/by-status", h.CountByStatus)
	r.Get("/stats/by-severity", h.CountBySeverity)
	r.Get("/user/{user_id}", h.ListByCreator)
	r.Get("/{issue_id}", h.Get)
	r.Put("/{issue_id}", h.Update)
	r.Delete("/{issue_id}", h.Delete)
}

func FileRouter(r chi.Router, h *FileHandler) {
	r.Post("/upload", h.Upload)
	r.Get("/", h.List)
	r.Get("/stats/count", h.Count)
	r.Get("/url/{file_id}", h.URL)
	r.Get("/{file_id}", h.Get)
	r.Get("/{file_id}/download", h.Download)
	r.Delete("/{file_id}", h.Delete)
}

func StatsRouter(r chi.Router, h *StatsHandler) {
	r.Get("/daily", h.ListDaily)
	r.Get("/daily/{date}", h.GetDaily)
	r.Get("/summary", h.Summary)
	r.Post("/aggregate", h.Aggregate)
	r.Get("/scheduler/status", h.SchedulerStatus)
}
