// Package store persists the domain model through infra/db.
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/trackly/trackly-api/infra/db"
	"github.com/trackly/trackly-api/internal/domain/model"
)

var (
	ErrNotFound  = db.ErrNotFound
	ErrDuplicate = db.ErrDuplicate
	ErrInUse     = db.ErrForeignKey
	ErrBadField  = errors.New("store: unsupported group field")
)

// Field names an issue column that counts may be grouped by.
type Field string

const (
	FieldStatus   Field = "status"
	FieldSeverity Field = "severity"
)

func (f Field) valid() bool { return f == FieldStatus || f == FieldSeverity }

// IssueFilter narrows issue queries. Zero values mean "no constraint".
type IssueFilter struct {
	CreatedBy     uuid.UUID
	Status        model.IssueStatus
	Severity      model.IssueSeverity
	CreatedBefore time.Time
	Limit         int
	Offset        int
}

func (f IssueFilter) where() (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if f.CreatedBy != uuid.Nil {
		clauses = append(clauses, "created_by = ?")
		args = append(args, f.CreatedBy)
	}
	if f.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.Severity != "" {
		clauses = append(clauses, "severity = ?")
		args = append(args, string(f.Severity))
	}
	if !f.CreatedBefore.IsZero() {
		clauses = append(clauses, "created_at < ?")
		args = append(args, f.CreatedBefore.UTC())
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

type IssueStore interface {
	Create(ctx context.Context, issue *model.Issue) error
	Get(ctx context.Context, id uuid.UUID) (*model.Issue, error)
	Update(ctx context.Context, issue *model.Issue) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f IssueFilter) ([]*model.Issue, error)
	Count(ctx context.Context, f IssueFilter) (int, error)
	CountGrouped(ctx context.Context, field Field, f IssueFilter) (map[string]int, error)

	// Aggregation read contract: issues created strictly before asOf.
	CountGroupedBy(ctx context.Context, field Field, asOf time.Time) (map[string]int, error)
	CountIssues(ctx context.Context, asOf time.Time) (int, error)
}

type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	Get(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, limit, offset int) ([]*model.User, error)
	Count(ctx context.Context) (int, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type SnapshotStore interface {
	// UpsertSnapshot inserts or overwrites the row for snap.Date in one
	// statement and returns the stored row. On overwrite the stored id and
	// created_at are kept.
	UpsertSnapshot(ctx context.Context, snap *model.DailyStatsSnapshot) (*model.DailyStatsSnapshot, error)
	GetByDate(ctx context.Context, day time.Time) (*model.DailyStatsSnapshot, error)
	List(ctx context.Context, limit int) ([]*model.DailyStatsSnapshot, error)
}

type FileStore interface {
	Create(ctx context.Context, f *model.File) error
	Get(ctx context.Context, id string) (*model.File, error)
	List(ctx context.Context, uploadedBy uuid.UUID, limit, offset int) ([]*model.File, error)
	Count(ctx context.Context) (int, error)
	Delete(ctx context.Context, id string) error
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}
