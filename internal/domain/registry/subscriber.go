package registry

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/trackly/trackly-api/internal/domain/event"
	"github.com/trackly/trackly-api/internal/domain/model"
)

// Close reasons reported to the owning session once Recv is closed.
const (
	ReasonUnsubscribed = "unsubscribed"
	ReasonEvicted      = "evicted"
	ReasonShutdown     = "shutdown"
)

// Subscriber is one live observer: a registry entry plus its bounded queue.
// The Hub writes into the queue, the stream session drains it.
type Subscriber struct {
	// [IDENTITY]
	id        uuid.UUID
	identity  model.Identity
	createdAt time.Time

	// [MAILBOX]
	// Bounded queue of serialized events. A full queue means the consumer
	// has stalled, and the Hub evicts it instead of waiting.
	queue chan event.Delivery

	// [PROTECTION]
	// Guards queue against a send racing with close.
	mu     sync.Mutex
	closed bool
	reason string
}

func newSubscriber(identity model.Identity, size int) *Subscriber {
	return &Subscriber{
		id:        uuid.New(),
		identity:  identity,
		createdAt: time.Now(),
		queue:     make(chan event.Delivery, size),
	}
}

func (s *Subscriber) ID() uuid.UUID            { return s.id }
func (s *Subscriber) Identity() model.Identity { return s.identity }
func (s *Subscriber) CreatedAt() time.Time     { return s.createdAt }

// Recv yields queued deliveries in publish order. It is closed when the
// subscriber leaves the registry for any reason.
func (s *Subscriber) Recv() <-chan event.Delivery { return s.queue }

// Reason explains why Recv was closed. Only meaningful after Recv is closed.
func (s *Subscriber) Reason() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reason
}

// offer enqueues d without blocking. False means the queue is full or closed.
func (s *Subscriber) offer(d event.Delivery) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	select {
	case s.queue <- d:
		return true
	default:
		return false
	}
}

// close is idempotent; the first reason wins.
func (s *Subscriber) close(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.reason = reason
	close(s.queue)
}
