package lp

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/trackly/trackly-api/internal/domain/event"
	"github.com/trackly/trackly-api/internal/domain/model"
	"github.com/trackly/trackly-api/internal/domain/policy"
	"github.com/trackly/trackly-api/internal/handler/marshaller"
	lpmarshaller "github.com/trackly/trackly-api/internal/handler/marshaller/lp"
	"github.com/trackly/trackly-api/internal/handler/stream"
	"github.com/trackly/trackly-api/internal/service"
)

const (
	// maxBatch bounds one response; the client polls again for the rest.
	maxBatch   = 16
	maxTimeout = 60 * time.Second
)

type LPHandler struct {
	logger    *slog.Logger
	authn     service.Authenticator
	deliverer service.Deliverer
	timeout   time.Duration
}

func NewLPHandler(logger *slog.Logger, authn service.Authenticator, deliverer service.Deliverer, timeout time.Duration) *LPHandler {
	if timeout <= 0 || timeout > maxTimeout {
		timeout = 30 * time.Second
	}
	return &LPHandler{
		logger:    logger,
		authn:     authn,
		deliverer: deliverer,
		timeout:   timeout,
	}
}

// Poll handles the long-polling request.
// It holds the connection until a visible event arrives or the timeout passes.
// Events published between two polls are not replayed.
func (h *LPHandler) Poll(w http.ResponseWriter, r *http.Request) {
	// 1. Extract Identity.
	identity, ok := stream.Authorize(w, r, h.authn)
	if !ok {
		return
	}

	timeout, err := h.parseTimeout(r)
	if err != nil {
		marshaller.Error(w, err)
		return
	}

	// 2. Temporary Subscription.
	// The subscriber lives only for the duration of this HTTP request.
	sub := h.deliverer.Subscribe(identity)
	defer h.deliverer.Unsubscribe(sub.ID())

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var frames [][]byte

	// 3. Wait for data or timeout.
wait:
	for {
		select {
		case <-r.Context().Done():
			// Client disconnected.
			return

		case <-timer.C:
			w.WriteHeader(http.StatusNoContent)
			return

		case d, ok := <-sub.Recv():
			if !ok {
				// Server is shutting down; the client retries elsewhere.
				w.WriteHeader(http.StatusNoContent)
				return
			}
			if visible(d, identity) {
				frames = append(frames, d.Frame)
				break wait
			}
		}
	}

	// Drain what is already queued to save the client a round trip.
drain:
	for len(frames) < maxBatch {
		select {
		case d, ok := <-sub.Recv():
			if !ok {
				break drain
			}
			if visible(d, identity) {
				frames = append(frames, d.Frame)
			}
		default:
			break drain
		}
	}

	// 4. Final transmission.
	data, err := lpmarshaller.MarshallFrames(frames)
	if err != nil {
		h.logger.Error("[LP] batch marshal failed", slog.Any("err", err))
		marshaller.Error(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// parseTimeout reads the optional timeout query parameter in seconds.
func (h *LPHandler) parseTimeout(r *http.Request) (time.Duration, error) {
	raw := r.URL.Query().Get("timeout")
	if raw == "" {
		return h.timeout, nil
	}
	secs, err := strconv.Atoi(raw)
	if err != nil || secs < 1 || time.Duration(secs)*time.Second > maxTimeout {
		return 0, fmt.Errorf("%w: timeout must be between 1 and %d seconds",
			service.ErrInvalidInput, int(maxTimeout.Seconds()))
	}
	return time.Duration(secs) * time.Second, nil
}

func visible(d event.Delivery, identity model.Identity) bool {
	return policy.ShouldDeliver(d.Event, identity.Role, identity.UserID)
}
