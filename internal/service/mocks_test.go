package service_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/trackly/trackly-api/internal/domain/event"
	"github.com/trackly/trackly-api/internal/domain/model"
	"github.com/trackly/trackly-api/internal/store"
)

type mockIssueStore struct {
	createFn       func(ctx context.Context, issue *model.Issue) error
	getFn          func(ctx context.Context, id uuid.UUID) (*model.Issue, error)
	updateFn       func(ctx context.Context, issue *model.Issue) error
	deleteFn       func(ctx context.Context, id uuid.UUID) error
	listFn         func(ctx context.Context, f store.IssueFilter) ([]*model.Issue, error)
	countFn        func(ctx context.Context, f store.IssueFilter) (int, error)
	countGroupedFn func(ctx context.Context, field store.Field, f store.IssueFilter) (map[string]int, error)
}

func (m *mockIssueStore) Create(ctx context.Context, issue *model.Issue) error {
	if m.createFn != nil {
		return m.createFn(ctx, issue)
	}
	return nil
}

func (m *mockIssueStore) Get(ctx context.Context, id uuid.UUID) (*model.Issue, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, store.ErrNotFound
}

func (m *mockIssueStore) Update(ctx context.Context, issue *model.Issue) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, issue)
	}
	return nil
}

func (m *mockIssueStore) Delete(ctx context.Context, id uuid.UUID) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockIssueStore) List(ctx context.Context, f store.IssueFilter) ([]*model.Issue, error) {
	if m.listFn != nil {
		return m.listFn(ctx, f)
	}
	return nil, nil
}

func (m *mockIssueStore) Count(ctx context.Context, f store.IssueFilter) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx, f)
	}
	return 0, nil
}

func (m *mockIssueStore) CountGrouped(ctx context.Context, field store.Field, f store.IssueFilter) (map[string]int, error) {
	if m.countGroupedFn != nil {
		return m.countGroupedFn(ctx, field, f)
	}
	return map[string]int{}, nil
}

func (m *mockIssueStore) CountGroupedBy(ctx context.Context, field store.Field, asOf time.Time) (map[string]int, error) {
	return m.CountGrouped(ctx, field, store.IssueFilter{CreatedBefore: asOf})
}

func (m *mockIssueStore) CountIssues(ctx context.Context, asOf time.Time) (int, error) {
	return m.Count(ctx, store.IssueFilter{CreatedBefore: asOf})
}

// recordingSink collects relayed events. full makes every Enqueue fail.
type recordingSink struct {
	mu     sync.Mutex
	events []event.Eventer
	full   bool
}

func (s *recordingSink) Enqueue(ev event.Eventer) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.full {
		return false
	}
	s.events = append(s.events, ev)
	return true
}

func (s *recordingSink) Events() []event.Eventer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]event.Eventer(nil), s.events...)
}

type stubJob struct {
	triggerFn func(ctx context.Context) (*model.AggregationResult, error)
	status    model.JobStatus
}

func (j *stubJob) Trigger(ctx context.Context) (*model.AggregationResult, error) {
	if j.triggerFn != nil {
		return j.triggerFn(ctx)
	}
	return &model.AggregationResult{}, nil
}

func (j *stubJob) Status() model.JobStatus { return j.status }
