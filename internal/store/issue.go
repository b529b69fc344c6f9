package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/trackly/trackly-api/infra/db"
	"github.com/trackly/trackly-api/internal/domain/model"
)

var _ IssueStore = (*Issues)(nil)

const issueColumns = `id, title, description, severity, status, created_by, file_url, created_at, updated_at, updated_by`

type Issues struct {
	db *db.DB
}

func NewIssues(conn *db.DB) *Issues {
	return &Issues{db: conn}
}

func (s *Issues) Create(ctx context.Context, issue *model.Issue) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`
		INSERT INTO issues (`+issueColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		issue.ID, issue.Title, issue.Description, string(issue.Severity), string(issue.Status),
		issue.CreatedBy, nullString(issue.FileURL), issue.CreatedAt.UTC(), issue.UpdatedAt.UTC(),
		nullUUID(issue.UpdatedBy),
	)
	if err != nil {
		return fmt.Errorf("create issue: %w", db.Classify(err))
	}
	return nil
}

func (s *Issues) Get(ctx context.Context, id uuid.UUID) (*model.Issue, error) {
	row := s.db.QueryRowContext(ctx, s.db.Rebind(`SELECT `+issueColumns+` FROM issues WHERE id = ?`), id)
	issue, err := scanIssue(row)
	if err != nil {
		return nil, fmt.Errorf("get issue %s: %w", id, db.Classify(err))
	}
	return issue, nil
}

func (s *Issues) Update(ctx context.Context, issue *model.Issue) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE issues
		SET title = ?, description = ?, severity = ?, status = ?, file_url = ?, updated_at = ?, updated_by = ?
		WHERE id = ?`),
		issue.Title, issue.Description, string(issue.Severity), string(issue.Status),
		nullString(issue.FileURL), issue.UpdatedAt.UTC(), nullUUID(issue.UpdatedBy), issue.ID,
	)
	if err != nil {
		return fmt.Errorf("update issue %s: %w", issue.ID, db.Classify(err))
	}
	return expectOne(res, "update issue", issue.ID.String())
}

func (s *Issues) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM issues WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete issue %s: %w", id, db.Classify(err))
	}
	return expectOne(res, "delete issue", id.String())
}

func (s *Issues) List(ctx context.Context, f IssueFilter) ([]*model.Issue, error) {
	where, args := f.where()
	query := `SELECT ` + issueColumns + ` FROM issues` + where + ` ORDER BY created_at DESC`
	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := s.db.QueryContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	defer rows.Close()

	var out []*model.Issue
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, fmt.Errorf("list issues: %w", err)
		}
		out = append(out, issue)
	}
	return out, rows.Err()
}

func (s *Issues) Count(ctx context.Context, f IssueFilter) (int, error) {
	where, args := f.where()
	var n int
	if err := s.db.QueryRowContext(ctx, s.db.Rebind(`SELECT COUNT(*) FROM issues`+where), args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count issues: %w", err)
	}
	return n, nil
}

// CountGrouped returns count per distinct value of field. Values with no
// matching rows are absent from the map.
func (s *Issues) CountGrouped(ctx context.Context, field Field, f IssueFilter) (map[string]int, error) {
	if !field.valid() {
		return nil, fmt.Errorf("%w: %q", ErrBadField, field)
	}

	where, args := f.where()
	col := string(field)
	rows, err := s.db.QueryContext(ctx,
		s.db.Rebind(`SELECT `+col+`, COUNT(*) FROM issues`+where+` GROUP BY `+col), args...)
	if err != nil {
		return nil, fmt.Errorf("count issues by %s: %w", col, err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var (
			key string
			n   int
		)
		if err := rows.Scan(&key, &n); err != nil {
			return nil, fmt.Errorf("count issues by %s: %w", col, err)
		}
		out[key] = n
	}
	return out, rows.Err()
}

func (s *Issues) CountGroupedBy(ctx context.Context, field Field, asOf time.Time) (map[string]int, error) {
	return s.CountGrouped(ctx, field, IssueFilter{CreatedBefore: asOf})
}

func (s *Issues) CountIssues(ctx context.Context, asOf time.Time) (int, error) {
	return s.Count(ctx, IssueFilter{CreatedBefore: asOf})
}

func scanIssue(r rowScanner) (*model.Issue, error) {
	var (
		issue     model.Issue
		severity  string
		status    string
		fileURL   sql.NullString
		updatedBy uuid.NullUUID
	)
	if err := r.Scan(
		&issue.ID, &issue.Title, &issue.Description, &severity, &status,
		&issue.CreatedBy, &fileURL, &issue.CreatedAt, &issue.UpdatedAt, &updatedBy,
	); err != nil {
		return nil, err
	}
	issue.Severity = model.IssueSeverity(severity)
	issue.Status = model.IssueStatus(status)
	issue.FileURL = fileURL.String
	issue.UpdatedBy = updatedBy.UUID
	issue.CreatedAt = issue.CreatedAt.UTC()
	issue.UpdatedAt = issue.UpdatedAt.UTC()
	return &issue, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullUUID(id uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: id, Valid: id != uuid.Nil}
}

func expectOne(res sql.Result, op, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %s: %w", op, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", op, id, ErrNotFound)
	}
	return nil
}
