package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/trackly/trackly-api/infra/db"
	"github.com/trackly/trackly-api/internal/domain/model"
)

var _ SnapshotStore = (*Snapshots)(nil)

const snapshotColumns = `id, stat_date,
	status_open, status_triaged, status_in_progress, status_done,
	severity_low, severity_medium, severity_high, severity_critical,
	total_issues, created_at`

type Snapshots struct {
	db *db.DB
}

func NewSnapshots(conn *db.DB) *Snapshots {
	return &Snapshots{db: conn}
}

// UpsertSnapshot relies on the unique stat_date key: the insert-or-update is a
// single statement, so concurrent writers for the same day serialize on that
// row inside the database.
func (s *Snapshots) UpsertSnapshot(ctx context.Context, snap *model.DailyStatsSnapshot) (*model.DailyStatsSnapshot, error) {
	now := time.Now().UTC()
	createdAt := snap.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	var stored *model.DailyStatsSnapshot
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, s.db.Rebind(`
			INSERT INTO daily_stats (`+snapshotColumns+`, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (stat_date) DO UPDATE SET
				status_open        = excluded.status_open,
				status_triaged     = excluded.status_triaged,
				status_in_progress = excluded.status_in_progress,
				status_done        = excluded.status_done,
				severity_low       = excluded.severity_low,
				severity_medium    = excluded.severity_medium,
				severity_high      = excluded.severity_high,
				severity_critical  = excluded.severity_critical,
				total_issues       = excluded.total_issues,
				updated_at         = excluded.updated_at`),
			snap.ID, snap.DateKey(),
			snap.CountsByStatus[model.StatusOpen], snap.CountsByStatus[model.StatusTriaged],
			snap.CountsByStatus[model.StatusInProgress], snap.CountsByStatus[model.StatusDone],
			snap.CountsBySeverity[model.SeverityLow], snap.CountsBySeverity[model.SeverityMedium],
			snap.CountsBySeverity[model.SeverityHigh], snap.CountsBySeverity[model.SeverityCritical],
			snap.TotalIssues, createdAt.UTC(), now,
		); err != nil {
			return err
		}

		// Read back inside the transaction so the row is still ours.
		row := tx.QueryRowContext(ctx, s.db.Rebind(`SELECT `+snapshotColumns+` FROM daily_stats WHERE stat_date = ?`), snap.DateKey())
		var err error
		stored, err = scanSnapshot(row)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("upsert snapshot %s: %w", snap.DateKey(), db.Classify(err))
	}
	return stored, nil
}

func (s *Snapshots) GetByDate(ctx context.Context, day time.Time) (*model.DailyStatsSnapshot, error) {
	key := model.Day(day).Format(model.DateLayout)
	row := s.db.QueryRowContext(ctx, s.db.Rebind(`SELECT `+snapshotColumns+` FROM daily_stats WHERE stat_date = ?`), key)

	snap, err := scanSnapshot(row)
	if err != nil {
		return nil, fmt.Errorf("get snapshot %s: %w", key, db.Classify(err))
	}
	return snap, nil
}

// List returns the newest snapshots first.
func (s *Snapshots) List(ctx context.Context, limit int) ([]*model.DailyStatsSnapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		s.db.Rebind(`SELECT `+snapshotColumns+` FROM daily_stats ORDER BY stat_date DESC LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []*model.DailyStatsSnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("list snapshots: %w", err)
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

func scanSnapshot(r rowScanner) (*model.DailyStatsSnapshot, error) {
	var (
		snap                            model.DailyStatsSnapshot
		dateKey                         string
		open, triaged, inProgress, done int
		low, medium, high, critical     int
	)
	if err := r.Scan(
		&snap.ID, &dateKey,
		&open, &triaged, &inProgress, &done,
		&low, &medium, &high, &critical,
		&snap.TotalIssues, &snap.CreatedAt,
	); err != nil {
		return nil, err
	}

	day, err := model.ParseDay(dateKey)
	if err != nil {
		return nil, fmt.Errorf("bad stat_date %q: %w", dateKey, err)
	}
	snap.Date = day
	snap.CreatedAt = snap.CreatedAt.UTC()
	snap.CountsByStatus = map[model.IssueStatus]int{
		model.StatusOpen:       open,
		model.StatusTriaged:    triaged,
		model.StatusInProgress: inProgress,
		model.StatusDone:       done,
	}
	snap.CountsBySeverity = map[model.IssueSeverity]int{
		model.SeverityLow:      low,
		model.SeverityMedium:   medium,
		model.SeverityHigh:     high,
		model.SeverityCritical: critical,
	}
	return &snap, nil
}
