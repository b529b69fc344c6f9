package rest

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/trackly/trackly-api/internal/service/dto"
	"github.com/trackly/trackly-api/internal/service/mapper"
)

type StatsHandler struct {
	statsService StatsService
}

func NewStatsHandler(statsService StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

func (h *StatsHandler) ListDaily(w http.ResponseWriter, r *http.Request) {
	me, err := actor(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		fail(w, r, err)
		return
	}

	snaps, err := h.statsService.ListDaily(r.Context(), me, limit)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, mapper.DailyStatsList(snaps))
}

func (h *StatsHandler) GetDaily(w http.ResponseWriter, r *http.Request) {
	me, err := actor(r)
	if err != nil {
		fail(w, r, err)
		return
	}

	snap, err := h.statsService.GetDaily(r.Context(), me, chi.URLParam(r, "date"))
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, mapper.DailyStats(snap))
}

func (h *StatsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	me, err := actor(r)
	if err != nil {
		fail(w, r, err)
		return
	}

	sum, err := h.statsService.Summary(r.Context(), me)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, mapper.Summary(sum))
}

// Aggregate runs a pass synchronously and reports the stored snapshot.
func (h *StatsHandler) Aggregate(w http.ResponseWriter, r *http.Request) {
	me, err := actor(r)
	if err != nil {
		fail(w, r, err)
		return
	}

	res, err := h.statsService.Trigger(r.Context(), me)
	if err != nil {
		fail(w, r, fmt.Errorf("trigger aggregation: %w", err))
		return
	}
	ok(w, dto.AggregationResponse{
		Message:   "Daily aggregation triggered successfully",
		Result:    mapper.DailyStats(res.Snapshot),
		ElapsedMS: res.Elapsed.Milliseconds(),
		Timestamp: time.Now().UTC(),
	})
}

func (h *StatsHandler) SchedulerStatus(w http.ResponseWriter, r *http.Request) {
	me, err := actor(r)
	if err != nil {
		fail(w, r, err)
		return
	}

	st, err := h.statsService.SchedulerStatus(me)
	if err != nil {
		fail(w, r, err)
		return
	}
	ok(w, st)
}
