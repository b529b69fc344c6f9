package pubsub

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/trackly/trackly-api/internal/domain/event"
	"github.com/trackly/trackly-api/internal/domain/registry"
	"github.com/trackly/trackly-api/internal/metrics"
)

const exportTimeout = 5 * time.Second

// Relay decouples the mutation path from fan-out and export. Mutations hand
// events over with Enqueue, which never blocks; worker goroutines publish
// them to the Hub and, when export is on, to the broker.
type Relay struct {
	hub      registry.Hubber
	exporter EventDispatcher

	// [MAILBOX]
	// Separate queues so a slow broker never delays live delivery.
	deliver chan event.Eventer
	export  chan event.Eventer

	// [LIFECYCLE_CONTROL]
	started atomic.Bool
	stopped atomic.Bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewRelay builds a relay with mailboxes of the given size. exporter may be nil.
func NewRelay(hub registry.Hubber, exporter EventDispatcher, buffer int, logger *slog.Logger, m *metrics.Metrics) *Relay {
	if buffer <= 0 {
		buffer = 1024
	}
	r := &Relay{
		hub:      hub,
		exporter: exporter,
		deliver:  make(chan event.Eventer, buffer),
		stopCh:   make(chan struct{}),
		logger:   logger,
		metrics:  m,
	}
	if exporter != nil {
		r.export = make(chan event.Eventer, buffer)
	}
	return r
}

// Enqueue hands ev to the workers. It reports false when the event was not
// accepted for live delivery: the mailbox is full or the relay has stopped.
func (r *Relay) Enqueue(ev event.Eventer) bool {
	if ev == nil || r.stopped.Load() {
		return false
	}

	accepted := r.offer(r.deliver, ev, "deliver")
	if r.export != nil {
		if exp, ok := ev.(event.Exportable); ok && exp.GetRoutingKey() != "" {
			r.offer(r.export, ev, "export")
		}
	}
	return accepted
}

func (r *Relay) offer(ch chan event.Eventer, ev event.Eventer, stage string) bool {
	select {
	case ch <- ev:
		return true
	default:
		if r.metrics != nil {
			r.metrics.RelayOverflow.WithLabelValues(stage).Inc()
		}
		r.logger.Warn("[RELAY] mailbox full, event discarded",
			slog.String("stage", stage),
			slog.String("event_id", ev.GetID()),
			slog.String("event_type", ev.GetKind().String()),
		)
		return false
	}
}

// Start launches the workers. Calling it twice is a no-op.
func (r *Relay) Start() {
	if !r.started.CompareAndSwap(false, true) {
		return
	}

	r.wg.Add(1)
	go r.loop(r.deliver, func(ev event.Eventer) { r.hub.Publish(ev) })

	if r.export != nil {
		r.wg.Add(1)
		go r.loop(r.export, r.exportOne)
	}
	r.logger.Info("[RELAY] started", slog.Bool("export", r.export != nil))
}

// Stop refuses new events, lets the workers drain what is queued and waits
// for them until ctx expires.
func (r *Relay) Stop(ctx context.Context) error {
	if !r.stopped.CompareAndSwap(false, true) {
		return nil
	}
	close(r.stopCh)

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("[RELAY] stopped")
		return nil
	case <-ctx.Done():
		r.logger.Warn("[RELAY] stop deadline exceeded, queued events abandoned")
		return ctx.Err()
	}
}

func (r *Relay) loop(mailbox chan event.Eventer, handle func(event.Eventer)) {
	defer r.wg.Done()
	for {
		select {
		case ev := <-mailbox:
			handle(ev)
		case <-r.stopCh:
			for {
				select {
				case ev := <-mailbox:
					handle(ev)
				default:
					return
				}
			}
		}
	}
}

// exportOne is best-effort: failures are counted and logged, never retried.
func (r *Relay) exportOne(ev event.Eventer) {
	ctx, cancel := context.WithTimeout(context.Background(), exportTimeout)
	defer cancel()

	if err := r.exporter.Publish(ctx, ev); err != nil {
		if r.metrics != nil {
			r.metrics.ExportFailures.Inc()
		}
		r.logger.Warn("[RELAY] export failed",
			slog.String("event_id", ev.GetID()),
			slog.Any("err", err),
		)
	}
}
