package rest

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/trackly/trackly-api/internal/domain/model"
	"github.com/trackly/trackly-api/internal/domain/policy"
	"github.com/trackly/trackly-api/internal/service"
)

// HubStatter reports broadcaster counters.
type HubStatter interface {
	Stats() model.HubStats
}

type SystemHandler struct {
	hub     HubStatter
	metrics http.Handler
}

func NewSystemHandler(hub HubStatter, gatherer prometheus.Gatherer) *SystemHandler {
	return &SystemHandler{
		hub:     hub,
		metrics: promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}),
	}
}

func (h *SystemHandler) Root(w http.ResponseWriter, _ *http.Request) {
	ok(w, map[string]string{
		"message": "Welcome to Trackly API",
		"version": model.ServerVersion,
	})
}

func (h *SystemHandler) Health(w http.ResponseWriter, _ *http.Request) {
	ok(w, map[string]string{"status": "healthy"})
}

func (h *SystemHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	h.metrics.ServeHTTP(w, r)
}

// EventStats is the admin view of the live stream registry.
func (h *SystemHandler) EventStats(w http.ResponseWriter, r *http.Request) {
	me, err := actor(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	if !policy.IsAdmin(me) {
		fail(w, r, service.ErrForbidden)
		return
	}
	ok(w, h.hub.Stats())
}
