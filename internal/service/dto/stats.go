package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/trackly/trackly-api/internal/domain/model"
)

// DailyStats is the flat wire shape of one snapshot.
type DailyStats struct {
	ID               uuid.UUID `json:"id"`
	Date             string    `json:"date"`
	StatusOpen       int       `json:"status_open"`
	StatusTriaged    int       `json:"status_triaged"`
	StatusInProgress int       `json:"status_in_progress"`
	StatusDone       int       `json:"status_done"`
	SeverityLow      int       `json:"severity_low"`
	SeverityMedium   int       `json:"severity_medium"`
	SeverityHigh     int       `json:"severity_high"`
	SeverityCritical int       `json:"severity_critical"`
	TotalIssues      int       `json:"total_issues"`
	CreatedAt        time.Time `json:"created_at"`
}

type StatsSummary struct {
	Today       *DailyStats           `json:"today"`
	Yesterday   *DailyStats           `json:"yesterday"`
	Changes     *model.SummaryChanges `json:"changes"`
	LastUpdated time.Time             `json:"last_updated"`
}

type AggregationResponse struct {
	Message   string      `json:"message"`
	Result    *DailyStats `json:"result"`
	ElapsedMS int64       `json:"elapsed_ms"`
	Timestamp time.Time   `json:"timestamp"`
}
