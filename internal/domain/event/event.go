package event

import (
	"time"

	"github.com/google/uuid"
)

// Kind is the wire "type" of a frame pushed to stream clients.
type Kind string

const (
	Connected    Kind = "connected"    // [SYSTEM]
	Heartbeat    Kind = "heartbeat"    // [SYSTEM]
	Disconnected Kind = "disconnected" // [SYSTEM]

	IssueCreated Kind = "issue_created" // [BUSINESS]
	IssueUpdated Kind = "issue_updated" // [BUSINESS]
	IssueDeleted Kind = "issue_deleted" // [BUSINESS]
)

// IsSystem reports whether the kind is a control message that bypasses visibility rules.
func (k Kind) IsSystem() bool {
	switch k {
	case Connected, Heartbeat, Disconnected:
		return true
	default:
		return false
	}
}

func (k Kind) String() string { return string(k) }

// Eventer defines the contract for all data packets flowing through the Hub.
type Eventer interface {
	GetID() string
	GetKind() Kind
	GetUserID() uuid.UUID
	GetOccurredAt() time.Time
	GetPayload() any
}

// Exportable defines an event that should be re-published to the message bus.
type Exportable interface {
	// An empty key means the event stays in-process.
	GetRoutingKey() string
}

// Delivery is one serialized event as it sits in a subscriber queue.
// Frame is shared between subscribers and must be treated as read-only.
type Delivery struct {
	Event Eventer
	Frame []byte
}
