package pubsub

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/sony/gobreaker"
	"github.com/trackly/trackly-api/internal/domain/event"
)

// ErrBreakerOpen is returned while the broker is considered unavailable.
var ErrBreakerOpen = errors.New("event dispatcher: circuit open")

// EventDispatcher defines the high-level contract for outgoing events.
// This allows the relay to stay agnostic of the transport implementation.
type EventDispatcher interface {
	Publish(ctx context.Context, ev event.Eventer) error
	Publisher() message.Publisher
}

// eventDispatcher is the concrete implementation (private).
type eventDispatcher struct {
	publisher message.Publisher
	breaker   *gobreaker.CircuitBreaker
	logger    *slog.Logger
}

// BreakerSettings trips after consecutive failures and probes again after timeout.
func BreakerSettings(timeout time.Duration, logger *slog.Logger) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        "event-export",
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("[EXPORT] breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	}
}

// NewEventDispatcher returns the interface instead of the pointer to the struct.
func NewEventDispatcher(pub message.Publisher, st gobreaker.Settings, logger *slog.Logger) EventDispatcher {
	return &eventDispatcher{
		publisher: pub,
		breaker:   gobreaker.NewCircuitBreaker(st),
		logger:    logger,
	}
}

// Publish exports ev under its routing key. Events without a key stay in-process.
func (d *eventDispatcher) Publish(ctx context.Context, ev event.Eventer) error {
	if ev == nil {
		return fmt.Errorf("event dispatcher: cannot publish nil event")
	}
	exp, ok := ev.(event.Exportable)
	if !ok || exp.GetRoutingKey() == "" {
		return nil
	}
	topic := exp.GetRoutingKey()

	payload, err := event.Encode(ev)
	if err != nil {
		return fmt.Errorf("event dispatcher: marshal failure: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("event_id", ev.GetID())
	msg.Metadata.Set("event_type", ev.GetKind().String())
	msg.SetContext(ctx)

	_, err = d.breaker.Execute(func() (interface{}, error) {
		return nil, d.publisher.Publish(topic, msg)
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return fmt.Errorf("%w: %s", ErrBreakerOpen, topic)
	case err != nil:
		return fmt.Errorf("event dispatcher: failed to publish to topic %s: %w", topic, err)
	}

	d.logger.Debug("[EXPORT] event published", slog.String("topic", topic), slog.String("event_id", ev.GetID()))
	return nil
}

func (d *eventDispatcher) Publisher() message.Publisher {
	return d.publisher
}
