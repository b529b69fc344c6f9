package registry

import (
	"log/slog"

	"github.com/trackly/trackly-api/internal/metrics"
)

// Option defines a functional configuration type for the Hub.
type Option func(*Hub)

// WithQueueSize sets the [BACKPRESSURE] threshold: how many undelivered
// frames a subscriber may hold before it is evicted.
func WithQueueSize(size int) Option {
	return func(h *Hub) {
		if size > 0 {
			h.config.queueSize = size
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Hub) {
		h.metrics = m
	}
}
