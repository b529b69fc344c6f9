package service_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/trackly/trackly-api/infra/db/dbtest"
	"github.com/trackly/trackly-api/internal/domain/model"
	"github.com/trackly/trackly-api/internal/metrics"
	"github.com/trackly/trackly-api/internal/store"
)

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newMetrics() *metrics.Metrics { return metrics.New(prometheus.NewRegistry()) }

type fixture struct {
	issues    *store.Issues
	users     *store.Users
	snapshots *store.Snapshots
	files     *store.Files
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := dbtest.New(t)
	return &fixture{
		issues:    store.NewIssues(conn),
		users:     store.NewUsers(conn),
		snapshots: store.NewSnapshots(conn),
		files:     store.NewFiles(conn),
	}
}

func (f *fixture) user(t *testing.T, role model.Role) *model.User {
	t.Helper()
	now := time.Now().UTC()
	u := &model.User{
		ID:           uuid.New(),
		Email:        uuid.NewString()[:8] + "@example.com",
		PasswordHash: "x",
		FullName:     "Fixture " + role.String(),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := f.users.Create(context.Background(), u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func (f *fixture) issue(t *testing.T, creator uuid.UUID, st model.IssueStatus, sv model.IssueSeverity, at time.Time) {
	t.Helper()
	issue := model.NewIssue("issue", "body", sv, creator, "")
	issue.Status = st
	issue.CreatedAt = at
	issue.UpdatedAt = at
	if err := f.issues.Create(context.Background(), issue); err != nil {
		t.Fatalf("seed issue: %v", err)
	}
}
