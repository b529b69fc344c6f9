package sse

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/trackly/trackly-api/internal/handler/stream"
	"github.com/trackly/trackly-api/internal/service"
)

type SSEHandler struct {
	logger  *slog.Logger
	authn   service.Authenticator
	session *stream.Session
}

func NewSSEHandler(logger *slog.Logger, authn service.Authenticator, session *stream.Session) *SSEHandler {
	return &SSEHandler{
		logger:  logger,
		authn:   authn,
		session: session,
	}
}

// ServeHTTP holds a text/event-stream response open and writes one
// "data: <json>" record per event.
func (h *SSEHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// [IDENTITY_EXTRACTION] Refuse before any subscriber is allocated.
	identity, ok := stream.Authorize(w, r, h.authn)
	if !ok {
		return
	}

	rc := http.NewResponseController(w)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if err := rc.Flush(); err != nil {
		h.logger.Error("[SSE] response writer cannot stream", slog.Any("err", err))
		return
	}

	err := h.session.Run(r.Context(), identity, &sink{w: w, rc: rc})
	if err != nil && !errors.Is(err, stream.ErrClosedByServer) {
		h.logger.Debug("[SSE] session ended with error", slog.Any("err", err))
	}
}

type sink struct {
	w  http.ResponseWriter
	rc *http.ResponseController
}

func (s *sink) Send(frame []byte) error {
	if _, err := s.w.Write([]byte("data: ")); err != nil {
		return err
	}
	if _, err := s.w.Write(frame); err != nil {
		return err
	}
	_, err := s.w.Write([]byte("\n\n"))
	return err
}

func (s *sink) Flush() error { return s.rc.Flush() }
