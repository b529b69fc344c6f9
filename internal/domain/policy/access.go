package policy

import (
	"github.com/google/uuid"
	"github.com/trackly/trackly-api/internal/domain/model"
)

func IsAdmin(actor model.Identity) bool {
	return actor.Role == model.RoleAdmin
}

func IsMaintainerOrAdmin(actor model.Identity) bool {
	return actor.Role == model.RoleAdmin || actor.Role == model.RoleMaintainer
}

// CanAccessUser allows admins everywhere and everyone else only on their own account.
func CanAccessUser(actor model.Identity, target uuid.UUID) bool {
	return IsAdmin(actor) || actor.UserID == target
}

// CanChangeRole guards role assignment.
func CanChangeRole(actor model.Identity) bool {
	return IsAdmin(actor)
}

// CanAccessIssue lets staff read every issue and reporters only their own.
func CanAccessIssue(actor model.Identity, creator uuid.UUID) bool {
	return IsMaintainerOrAdmin(actor) || actor.UserID == creator
}

// CanModifyIssue follows the same ownership rule as reads.
func CanModifyIssue(actor model.Identity, creator uuid.UUID) bool {
	return IsMaintainerOrAdmin(actor) || actor.UserID == creator
}

// CanDeleteIssue is narrower: admins, or a reporter removing their own issue.
// Maintainers triage but never delete, not even issues they filed.
func CanDeleteIssue(actor model.Identity, creator uuid.UUID) bool {
	return IsAdmin(actor) || (actor.Role == model.RoleReporter && actor.UserID == creator)
}

// CanManageFile allows the uploader or an admin.
func CanManageFile(actor model.Identity, uploader uuid.UUID) bool {
	return IsAdmin(actor) || actor.UserID == uploader
}
