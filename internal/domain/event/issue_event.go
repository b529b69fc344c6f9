package event

import (
	"time"

	"github.com/google/uuid"
	"github.com/trackly/trackly-api/internal/domain/model"
)

var (
	_ Eventer    = (*IssueEvent)(nil)
	_ Exportable = (*IssueEvent)(nil)
)

// IssueEvent records one committed issue mutation. It is built exactly once per
// mutation and never modified afterwards; the Hub only reads and serializes it.
type IssueEvent struct {
	id         uuid.UUID
	kind       Kind
	issue      model.Issue
	actor      model.Identity
	occurredAt time.Time
}

func newIssueEvent(kind Kind, issue model.Issue, actor model.Identity) *IssueEvent {
	return &IssueEvent{
		id:         uuid.New(),
		kind:       kind,
		issue:      issue,
		actor:      actor,
		occurredAt: time.Now().UTC(),
	}
}

func NewIssueCreated(issue model.Issue, actor model.Identity) *IssueEvent {
	return newIssueEvent(IssueCreated, issue, actor)
}

func NewIssueUpdated(issue model.Issue, actor model.Identity) *IssueEvent {
	return newIssueEvent(IssueUpdated, issue, actor)
}

// NewIssueDeleted takes the snapshot captured before the row was removed.
func NewIssueDeleted(snapshot model.Issue, actor model.Identity) *IssueEvent {
	return newIssueEvent(IssueDeleted, snapshot, actor)
}

func (e *IssueEvent) GetID() string            { return e.id.String() }
func (e *IssueEvent) GetKind() Kind            { return e.kind }
func (e *IssueEvent) GetUserID() uuid.UUID     { return e.actor.UserID }
func (e *IssueEvent) GetActorName() string     { return e.actor.Name }
func (e *IssueEvent) GetIssueID() uuid.UUID    { return e.issue.ID }
func (e *IssueEvent) GetCreatorID() uuid.UUID  { return e.issue.CreatedBy }
func (e *IssueEvent) GetOccurredAt() time.Time { return e.occurredAt }
func (e *IssueEvent) GetPayload() any          { return e.issue }

// GetRoutingKey builds the broker topic for exported issue events.
// [PATTERN] trackly.v1.issue.{created|updated|deleted}
func (e *IssueEvent) GetRoutingKey() string {
	switch e.kind {
	case IssueCreated:
		return "trackly.v1.issue.created"
	case IssueUpdated:
		return "trackly.v1.issue.updated"
	case IssueDeleted:
		return "trackly.v1.issue.deleted"
	default:
		return ""
	}
}
