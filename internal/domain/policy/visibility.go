// Package policy holds the authorization and visibility rules as plain
// predicates over (role, owner) pairs. Callers invoke them directly at the
// start of each operation.
package policy

import (
	"github.com/google/uuid"
	"github.com/trackly/trackly-api/internal/domain/event"
	"github.com/trackly/trackly-api/internal/domain/model"
)

// creatorEvent is satisfied by events whose payload names an issue creator.
type creatorEvent interface {
	GetCreatorID() uuid.UUID
}

// ShouldDeliver decides whether a stream viewer may see ev.
// It runs per subscriber at delivery time.
func ShouldDeliver(ev event.Eventer, role model.Role, viewerID uuid.UUID) bool {
	if ev == nil {
		return false
	}
	if ev.GetKind().IsSystem() {
		return true
	}

	switch role {
	case model.RoleAdmin, model.RoleMaintainer:
		return true
	case model.RoleReporter:
		if ce, ok := ev.(creatorEvent); ok && ce.GetCreatorID() == viewerID {
			return true
		}
		// The payload of a delete is a snapshot; the actor match covers
		// reporters removing their own issue.
		return ev.GetKind() == event.IssueDeleted && ev.GetUserID() == viewerID
	default:
		return false
	}
}
