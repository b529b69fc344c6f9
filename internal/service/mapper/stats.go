package mapper

import (
	"github.com/trackly/trackly-api/internal/domain/model"
	"github.com/trackly/trackly-api/internal/service/dto"
)

// DailyStats flattens a snapshot into its wire shape. A nil snapshot maps to nil.
func DailyStats(s *model.DailyStatsSnapshot) *dto.DailyStats {
	if s == nil {
		return nil
	}
	return &dto.DailyStats{
		ID:               s.ID,
		Date:             s.DateKey(),
		StatusOpen:       s.CountsByStatus[model.StatusOpen],
		StatusTriaged:    s.CountsByStatus[model.StatusTriaged],
		StatusInProgress: s.CountsByStatus[model.StatusInProgress],
		StatusDone:       s.CountsByStatus[model.StatusDone],
		SeverityLow:      s.CountsBySeverity[model.SeverityLow],
		SeverityMedium:   s.CountsBySeverity[model.SeverityMedium],
		SeverityHigh:     s.CountsBySeverity[model.SeverityHigh],
		SeverityCritical: s.CountsBySeverity[model.SeverityCritical],
		TotalIssues:      s.TotalIssues,
		CreatedAt:        s.CreatedAt,
	}
}

func DailyStatsList(in []*model.DailyStatsSnapshot) []*dto.DailyStats {
	out := make([]*dto.DailyStats, 0, len(in))
	for _, s := range in {
		out = append(out, DailyStats(s))
	}
	return out
}

// Summary converts a summary; Changes stays null unless both days exist.
func Summary(s *model.StatsSummary) *dto.StatsSummary {
	return &dto.StatsSummary{
		Today:       DailyStats(s.Today),
		Yesterday:   DailyStats(s.Yesterday),
		Changes:     s.Changes,
		LastUpdated: s.LastUpdated,
	}
}
