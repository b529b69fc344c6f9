// Package stream holds the transport-independent half of a live event
// session. SSE, WebSocket and long-poll handlers plug in through Sink.
package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/trackly/trackly-api/internal/domain/event"
	"github.com/trackly/trackly-api/internal/domain/model"
	"github.com/trackly/trackly-api/internal/domain/policy"
	"github.com/trackly/trackly-api/internal/service"
)

const DefaultHeartbeat = 30 * time.Second

// ErrClosedByServer ends a session whose queue was closed by the hub
// (eviction or shutdown). The client may reconnect.
var ErrClosedByServer = errors.New("stream: closed by server")

// Sink is the write side of one client connection.
type Sink interface {
	// Send writes one JSON frame.
	Send(frame []byte) error
	// Flush pushes buffered frames onto the wire.
	Flush() error
}

type Session struct {
	deliverer service.Deliverer
	heartbeat time.Duration
	logger    *slog.Logger
}

func NewSession(deliverer service.Deliverer, heartbeat time.Duration, logger *slog.Logger) *Session {
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeat
	}
	return &Session{
		deliverer: deliverer,
		heartbeat: heartbeat,
		logger:    logger,
	}
}

// Run subscribes identity and pumps visible events into sink until ctx ends,
// a write fails or the hub closes the queue. The subscriber is released on
// every return path.
func (s *Session) Run(ctx context.Context, identity model.Identity, sink Sink) error {
	sub := s.deliverer.Subscribe(identity)

	l := s.logger.With(
		slog.String("user_id", identity.UserID.String()),
		slog.String("conn_id", sub.ID().String()),
		slog.String("role", identity.Role.String()),
	)

	// [RESOURCE_RECLAMATION]
	defer func() {
		s.deliverer.Unsubscribe(sub.ID())
		l.Info("[STREAM] session closed, subscriber released")
	}()

	l.Info("[STREAM] session established", slog.String("version", model.ServerVersion))

	// [HANDSHAKE_LOGIC]
	if err := s.push(sink, event.NewConnectedEvent(identity, sub.ID())); err != nil {
		l.Warn("[STREAM] handshake delivery failed", slog.Any("err", err))
		return err
	}

	heartbeat := time.NewTimer(s.heartbeat)
	defer heartbeat.Stop()

	// [EVENT_LOOP]
	for {
		select {
		case <-ctx.Done():
			l.Debug("[STREAM] client went away", slog.Any("reason", context.Cause(ctx)))
			return nil

		case d, ok := <-sub.Recv():
			if !ok {
				// [TERMINATION_SENTINEL] Best effort; the transport may already be gone.
				reason := sub.Reason()
				l.Warn("[HUB] queue closed, ending session", slog.String("reason", reason))
				_ = s.push(sink, event.NewDisconnectedEvent(identity.UserID, "session_closed_by_server", reason))
				return fmt.Errorf("%w: %s", ErrClosedByServer, reason)
			}

			if policy.ShouldDeliver(d.Event, identity.Role, identity.UserID) {
				if err := s.write(sink, d.Frame); err != nil {
					l.Debug("[STREAM] transmission error",
						slog.Any("err", err),
						slog.String("event_id", d.Event.GetID()),
					)
					return err
				}
				l.Debug("[STREAM] event pushed to wire", slog.String("event_type", d.Event.GetKind().String()))
			}

		case <-heartbeat.C:
			if err := s.push(sink, event.NewHeartbeatEvent(identity.UserID)); err != nil {
				l.Debug("[STREAM] heartbeat failed", slog.Any("err", err))
				return err
			}
		}

		// Any queue activity, filtered or not, restarts the idle window.
		heartbeat.Reset(s.heartbeat)
	}
}

func (s *Session) push(sink Sink, ev event.Eventer) error {
	frame, err := event.Encode(ev)
	if err != nil {
		return err
	}
	return s.write(sink, frame)
}

func (s *Session) write(sink Sink, frame []byte) error {
	if err := sink.Send(frame); err != nil {
		return err
	}
	return sink.Flush()
}
