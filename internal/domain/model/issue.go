package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type IssueStatus string

const (
	StatusOpen       IssueStatus = "OPEN"
	StatusTriaged    IssueStatus = "TRIAGED"
	StatusInProgress IssueStatus = "IN_PROGRESS"
	StatusDone       IssueStatus = "DONE"
)

// AllStatuses is the fixed status domain in workflow order.
var AllStatuses = []IssueStatus{StatusOpen, StatusTriaged, StatusInProgress, StatusDone}

func ParseStatus(s string) (IssueStatus, error) {
	for _, st := range AllStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown issue status %q", s)
}

type IssueSeverity string

const (
	SeverityLow      IssueSeverity = "LOW"
	SeverityMedium   IssueSeverity = "MEDIUM"
	SeverityHigh     IssueSeverity = "HIGH"
	SeverityCritical IssueSeverity = "CRITICAL"
)

// AllSeverities is the fixed severity domain, lowest first.
var AllSeverities = []IssueSeverity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}

func ParseSeverity(s string) (IssueSeverity, error) {
	for _, sv := range AllSeverities {
		if string(sv) == s {
			return sv, nil
		}
	}
	return "", fmt.Errorf("unknown issue severity %q", s)
}

// Issue is the tracked unit of work. Values are copied into events, so the
// struct holds no references that a subscriber could mutate.
type Issue struct {
	ID          uuid.UUID     `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Severity    IssueSeverity `json:"severity"`
	Status      IssueStatus   `json:"status"`
	CreatedBy   uuid.UUID     `json:"created_by"`
	FileURL     string        `json:"file_url,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	UpdatedBy   uuid.UUID     `json:"updated_by"`
}

// NewIssue builds an open issue owned by creator with server-side defaults applied.
func NewIssue(title, description string, severity IssueSeverity, creator uuid.UUID, fileURL string) *Issue {
	if severity == "" {
		severity = SeverityMedium
	}
	now := time.Now().UTC()
	return &Issue{
		ID:          uuid.New(),
		Title:       title,
		Description: description,
		Severity:    severity,
		Status:      StatusOpen,
		CreatedBy:   creator,
		FileURL:     fileURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
