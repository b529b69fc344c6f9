// Package mapper converts between request DTOs and domain models.
package mapper

import (
	"time"

	"github.com/google/uuid"
	"github.com/trackly/trackly-api/internal/domain/model"
	"github.com/trackly/trackly-api/internal/service/dto"
)

// NewIssue builds a fresh issue from a validated create request.
func NewIssue(in dto.IssueCreate, creator uuid.UUID) *model.Issue {
	issue := model.NewIssue(in.Title, in.Description, model.IssueSeverity(in.Severity), creator, in.FileURL)
	issue.UpdatedBy = creator
	return issue
}

// ApplyIssueUpdate copies the present fields of in onto issue and stamps the editor.
func ApplyIssueUpdate(issue *model.Issue, in dto.IssueUpdate, actor uuid.UUID) {
	if in.Title != nil {
		issue.Title = *in.Title
	}
	if in.Description != nil {
		issue.Description = *in.Description
	}
	if in.Severity != nil {
		issue.Severity = model.IssueSeverity(*in.Severity)
	}
	if in.Status != nil {
		issue.Status = model.IssueStatus(*in.Status)
	}
	if in.FileURL != nil {
		issue.FileURL = *in.FileURL
	}
	issue.UpdatedBy = actor
	issue.UpdatedAt = time.Now().UTC()
}
