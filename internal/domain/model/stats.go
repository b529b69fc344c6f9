package model

import (
	"time"

	"github.com/google/uuid"
)

// DateLayout is the calendar-day key format used for snapshots.
const DateLayout = "2006-01-02"

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD key into a UTC day.
func ParseDay(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// DailyStatsSnapshot holds the issue counts as of the end of one calendar day.
// There is at most one snapshot per date.
type DailyStatsSnapshot struct {
	ID               uuid.UUID             `json:"id"`
	Date             time.Time             `json:"-"`
	CountsByStatus   map[IssueStatus]int   `json:"counts_by_status"`
	CountsBySeverity map[IssueSeverity]int `json:"counts_by_severity"`
	TotalIssues      int                   `json:"total_issues"`
	CreatedAt        time.Time             `json:"created_at"`
}

// DateKey returns the YYYY-MM-DD key of the snapshot.
func (s *DailyStatsSnapshot) DateKey() string { return s.Date.Format(DateLayout) }

// NewCounts returns zero-filled status and severity maps covering every domain value.
func NewCounts() (map[IssueStatus]int, map[IssueSeverity]int) {
	byStatus := make(map[IssueStatus]int, len(AllStatuses))
	for _, st := range AllStatuses {
		byStatus[st] = 0
	}
	bySeverity := make(map[IssueSeverity]int, len(AllSeverities))
	for _, sv := range AllSeverities {
		bySeverity[sv] = 0
	}
	return byStatus, bySeverity
}

// AggregationResult is returned to whoever invoked an aggregation pass.
type AggregationResult struct {
	Snapshot *DailyStatsSnapshot `json:"snapshot"`
	Elapsed  time.Duration       `json:"elapsed"`
}

// StatsSummary compares today's snapshot with yesterday's. Changes is set
// only when both days have a snapshot.
type StatsSummary struct {
	Today       *DailyStatsSnapshot `json:"today"`
	Yesterday   *DailyStatsSnapshot `json:"yesterday"`
	Changes     *SummaryChanges     `json:"changes"`
	LastUpdated time.Time           `json:"last_updated"`
}

type SummaryChanges struct {
	TotalChange    int `json:"total_change"`
	OpenChange     int `json:"open_change"`
	CriticalChange int `json:"critical_change"`
}
