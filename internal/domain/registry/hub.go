/*
Package registry implements the in-process event broadcaster.

Key Architectural Concepts:
  - Flat Registry: every open stream is one Subscriber keyed by its own id in a
    sync.Map, so publishers iterate safely while sessions come and go.
  - Serialize Once: an event is encoded to its wire frame a single time per
    publish and the same bytes are queued for every subscriber.
  - Non-blocking Fan-out: delivery never waits on a subscriber. A queue that
    cannot take the frame gets its owner evicted, leaving the rest untouched.
  - Ordered Publish: publishes are serialized, which gives each subscriber
    its events in publish order.
*/
package registry

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/trackly/trackly-api/internal/domain/event"
	"github.com/trackly/trackly-api/internal/domain/model"
	"github.com/trackly/trackly-api/internal/metrics"
)

var _ Hubber = (*Hub)(nil)

// Hubber is the broadcaster contract consumed by the relay and the stream sessions.
type Hubber interface {
	Subscribe(identity model.Identity) *Subscriber
	Unsubscribe(subscriberID uuid.UUID)
	Publish(ev event.Eventer)
	ActiveCount() int
	Stats() model.HubStats
	Shutdown()
}

type hubConfig struct {
	queueSize int
}

// Hub implements a [SCALABLE_REGISTRY] of stream subscribers.
type Hub struct {
	// subscribers stores Map[uuid.UUID]*Subscriber. Optimized for [READ_HEAVY] fan-out.
	subscribers sync.Map
	active      atomic.Int64

	// [ORDERING] one publish at a time.
	pubMu sync.Mutex

	published atomic.Uint64
	dropped   atomic.Uint64
	closed    atomic.Bool
	startedAt time.Time

	config  hubConfig
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewHub(opts ...Option) *Hub {
	h := &Hub{
		startedAt: time.Now(),
		config:    hubConfig{queueSize: 256},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscribe registers a new subscriber with an empty queue. It never fails;
// after Shutdown the returned subscriber is already closed.
func (h *Hub) Subscribe(identity model.Identity) *Subscriber {
	sub := newSubscriber(identity, h.config.queueSize)

	if h.closed.Load() {
		sub.close(ReasonShutdown)
		return sub
	}

	h.subscribers.Store(sub.id, sub)
	h.gauge(h.active.Add(1))

	// Shutdown may have ranged the map between the check above and Store.
	if h.closed.Load() {
		h.remove(sub.id, ReasonShutdown)
		return sub
	}

	h.logger.Debug("[HUB] subscriber registered",
		slog.String("subscriber_id", sub.id.String()),
		slog.String("user_id", identity.UserID.String()),
	)
	return sub
}

// Unsubscribe is idempotent: unknown or already removed ids are ignored.
func (h *Hub) Unsubscribe(subscriberID uuid.UUID) {
	h.remove(subscriberID, ReasonUnsubscribed)
}

// Publish queues ev for every registered subscriber. It never blocks on a
// subscriber and never reports delivery outcome to the caller.
func (h *Hub) Publish(ev event.Eventer) {
	if ev == nil {
		return
	}

	h.pubMu.Lock()
	defer h.pubMu.Unlock()

	h.published.Add(1)
	if h.metrics != nil {
		h.metrics.EventsPublished.WithLabelValues(ev.GetKind().String()).Inc()
	}

	// [FAST_PATH] nobody listening, nothing to encode or buffer.
	if h.active.Load() == 0 {
		return
	}

	d, err := event.NewDelivery(ev)
	if err != nil {
		h.logger.Error("[HUB] event encoding failed",
			slog.String("event_id", ev.GetID()),
			slog.Any("err", err),
		)
		return
	}

	h.subscribers.Range(func(_, val any) bool {
		sub := val.(*Subscriber)
		if !sub.offer(d) {
			h.evict(sub)
		}
		return true
	})
}

func (h *Hub) ActiveCount() int { return int(h.active.Load()) }

func (h *Hub) Stats() model.HubStats {
	return model.HubStats{
		ActiveSubscribers: h.ActiveCount(),
		Published:         h.published.Load(),
		Dropped:           h.dropped.Load(),
		Uptime:            time.Since(h.startedAt),
	}
}

// Shutdown closes every subscriber, which ends their stream sessions.
func (h *Hub) Shutdown() {
	if !h.closed.CompareAndSwap(false, true) {
		return
	}

	h.subscribers.Range(func(key, _ any) bool {
		h.remove(key.(uuid.UUID), ReasonShutdown)
		return true
	})
	h.logger.Info("[HUB] shutdown complete", slog.Uint64("published", h.published.Load()))
}

// evict handles a [DELIVERY_FAILURE]: the subscriber leaves, nobody else notices.
func (h *Hub) evict(sub *Subscriber) {
	if !h.remove(sub.id, ReasonEvicted) {
		return
	}
	h.dropped.Add(1)
	if h.metrics != nil {
		h.metrics.SubscribersDropped.Inc()
	}
	h.logger.Debug("[HUB] subscriber evicted",
		slog.String("subscriber_id", sub.id.String()),
		slog.String("user_id", sub.identity.UserID.String()),
	)
}

// remove performs [GRACEFUL_RECLAMATION]; only the caller that wins the
// delete closes the queue and adjusts the count.
func (h *Hub) remove(id uuid.UUID, reason string) bool {
	val, ok := h.subscribers.LoadAndDelete(id)
	if !ok {
		return false
	}
	val.(*Subscriber).close(reason)
	h.gauge(h.active.Add(-1))
	return true
}

func (h *Hub) gauge(n int64) {
	if h.metrics != nil {
		h.metrics.StreamSubscribers.Set(float64(n))
	}
}
