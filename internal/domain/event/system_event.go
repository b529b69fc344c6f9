package event

import (
	"time"

	"github.com/google/uuid"
	"github.com/trackly/trackly-api/internal/domain/model"
)

// [GUARD] Ensure compliance with the Eventer interface.
var _ Eventer = (*SystemEvent)(nil)

// SystemEvent is a generic envelope for session control signals.
type SystemEvent struct {
	id         string
	userID     uuid.UUID
	kind       Kind
	occurredAt time.Time
	payload    any
}

func (e *SystemEvent) GetID() string            { return e.id }
func (e *SystemEvent) GetKind() Kind            { return e.kind }
func (e *SystemEvent) GetUserID() uuid.UUID     { return e.userID }
func (e *SystemEvent) GetOccurredAt() time.Time { return e.occurredAt }
func (e *SystemEvent) GetPayload() any          { return e.payload }

// NewSystemEvent is a universal factory for creating any signal.
func NewSystemEvent(userID uuid.UUID, kind Kind, payload any) *SystemEvent {
	return &SystemEvent{
		id:         uuid.NewString(),
		userID:     userID,
		kind:       kind,
		occurredAt: time.Now().UTC(),
		payload:    payload,
	}
}

// NewConnectedEvent acknowledges a live subscription and reports the caller's role.
func NewConnectedEvent(id model.Identity, connID uuid.UUID) *SystemEvent {
	return NewSystemEvent(id.UserID, Connected, &model.ConnectedPayload{
		ConnectionID:  connID.String(),
		UserID:        id.UserID.String(),
		Role:          id.Role,
		ServerVersion: model.ServerVersion,
	})
}

func NewHeartbeatEvent(userID uuid.UUID) *SystemEvent {
	return NewSystemEvent(userID, Heartbeat, nil)
}

func NewDisconnectedEvent(userID uuid.UUID, reason, code string) *SystemEvent {
	return NewSystemEvent(userID, Disconnected, &model.DisconnectedPayload{Reason: reason, Code: code})
}
