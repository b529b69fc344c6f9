// Package httpsrv owns the HTTP listener and the chi router every handler
// package registers its routes on.
package httpsrv

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/trackly/trackly-api/config"
	"github.com/trackly/trackly-api/infra/server/http/interceptors"
	"github.com/trackly/trackly-api/internal/metrics"
)

type Server struct {
	Router chi.Router

	srv             *http.Server
	shutdownTimeout time.Duration
	logger          *slog.Logger
}

func New(cfg config.HTTPConfig, logger *slog.Logger, m *metrics.Metrics) *Server {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(interceptors.NewMetricsInterceptor(m))
	r.Use(interceptors.NewLoggingInterceptor(logger))

	return &Server{
		Router: r,
		// No WriteTimeout: event streams stay open for as long as the client does.
		srv: &http.Server{
			Addr:              cfg.Addr,
			Handler:           r,
			ReadHeaderTimeout: cfg.ReadTimeout,
			IdleTimeout:       cfg.IdleTimeout,
			ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
		},
		shutdownTimeout: cfg.ShutdownTimeout,
		logger:          logger,
	}
}

// RegisterOnShutdown runs f when Stop begins. Long-lived handlers use it to
// end their sessions so Shutdown does not wait for them.
func (s *Server) RegisterOnShutdown(f func()) {
	s.srv.RegisterOnShutdown(f)
}

// Start binds the listener synchronously so a busy port fails app startup.
func (s *Server) Start(context.Context) error {
	lis, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("http: listen %s: %w", s.srv.Addr, err)
	}

	go func() {
		if err := s.srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("[HTTP] server stopped unexpectedly", slog.Any("err", err))
		}
	}()

	s.logger.Info("[HTTP] listening", slog.String("addr", lis.Addr().String()))
	return nil
}

// Stop drains in-flight requests, bounded by ctx and the shutdown timeout.
func (s *Server) Stop(ctx context.Context) error {
	if s.shutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.shutdownTimeout)
		defer cancel()
	}

	if err := s.srv.Shutdown(ctx); err != nil {
		s.logger.Warn("[HTTP] graceful shutdown incomplete, closing", slog.Any("err", err))
		return s.srv.Close()
	}
	s.logger.Info("[HTTP] server stopped")
	return nil
}
