package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/trackly/trackly-api/internal/domain/event"
	"github.com/trackly/trackly-api/internal/domain/model"
	"github.com/trackly/trackly-api/internal/domain/policy"
	"github.com/trackly/trackly-api/internal/metrics"
	"github.com/trackly/trackly-api/internal/service/dto"
	"github.com/trackly/trackly-api/internal/service/mapper"
	"github.com/trackly/trackly-api/internal/store"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/trackly/trackly-api/internal/service"

// EventSink accepts committed mutations for fan-out. Enqueue must not block.
type EventSink interface {
	Enqueue(ev event.Eventer) bool
}

type IssueService struct {
	issues  store.IssueStore
	sink    EventSink
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

func NewIssueService(issues store.IssueStore, sink EventSink, logger *slog.Logger, m *metrics.Metrics) *IssueService {
	return &IssueService{
		issues:  issues,
		sink:    sink,
		logger:  logger,
		metrics: m,
		tracer:  otel.Tracer(tracerName),
	}
}

func (s *IssueService) Create(ctx context.Context, actor model.Identity, in dto.IssueCreate) (*model.Issue, error) {
	ctx, span := s.tracer.Start(ctx, "IssueService.Create")
	defer span.End()

	if err := validate(in); err != nil {
		return nil, err
	}

	issue := mapper.NewIssue(in, actor.UserID)
	if err := s.issues.Create(ctx, issue); err != nil {
		span.RecordError(err)
		return nil, fromStore(err, "Issue")
	}
	span.SetAttributes(attribute.String("issue.id", issue.ID.String()))

	s.metrics.IssuesTotal.WithLabelValues(string(issue.Severity), actor.Role.String()).Inc()
	s.emit(event.NewIssueCreated(*issue, actor))
	return issue, nil
}

func (s *IssueService) Update(ctx context.Context, actor model.Identity, id uuid.UUID, in dto.IssueUpdate) (*model.Issue, error) {
	ctx, span := s.tracer.Start(ctx, "IssueService.Update",
		trace.WithAttributes(attribute.String("issue.id", id.String())))
	defer span.End()

	if err := validate(in); err != nil {
		return nil, err
	}

	issue, err := s.issues.Get(ctx, id)
	if err != nil {
		return nil, fromStore(err, "Issue")
	}
	if !policy.CanModifyIssue(actor, issue.CreatedBy) {
		return nil, ErrForbidden
	}

	mapper.ApplyIssueUpdate(issue, in, actor.UserID)
	if err := s.issues.Update(ctx, issue); err != nil {
		span.RecordError(err)
		return nil, fromStore(err, "Issue")
	}

	s.emit(event.NewIssueUpdated(*issue, actor))
	return issue, nil
}

// Delete removes the issue. The event carries the state read before the delete.
func (s *IssueService) Delete(ctx context.Context, actor model.Identity, id uuid.UUID) error {
	ctx, span := s.tracer.Start(ctx, "IssueService.Delete",
		trace.WithAttributes(attribute.String("issue.id", id.String())))
	defer span.End()

	issue, err := s.issues.Get(ctx, id)
	if err != nil {
		return fromStore(err, "Issue")
	}
	if !policy.CanDeleteIssue(actor, issue.CreatedBy) {
		return ErrForbidden
	}

	snapshot := *issue
	if err := s.issues.Delete(ctx, id); err != nil {
		span.RecordError(err)
		return fromStore(err, "Issue")
	}

	s.emit(event.NewIssueDeleted(snapshot, actor))
	return nil
}

func (s *IssueService) Get(ctx context.Context, actor model.Identity, id uuid.UUID) (*model.Issue, error) {
	issue, err := s.issues.Get(ctx, id)
	if err != nil {
		return nil, fromStore(err, "Issue")
	}
	if !policy.CanAccessIssue(actor, issue.CreatedBy) {
		return nil, ErrForbidden
	}
	return issue, nil
}

// List pages through issues newest first. Reporters only see their own.
func (s *IssueService) List(ctx context.Context, actor model.Identity, q dto.IssueQuery) ([]*model.Issue, error) {
	if q.Limit == 0 {
		q.Limit = 100
	}
	if err := validate(q); err != nil {
		return nil, err
	}

	f := s.scope(actor)
	f.Status = model.IssueStatus(q.Status)
	f.Limit, f.Offset = q.Limit, q.Skip

	issues, err := s.issues.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	return issues, nil
}

// ListByCreator lists the issues of one user; reporters may only ask for themselves.
func (s *IssueService) ListByCreator(ctx context.Context, actor model.Identity, creator uuid.UUID, skip, limit int) ([]*model.Issue, error) {
	if !policy.CanAccessIssue(actor, creator) {
		return nil, ErrForbidden
	}
	skip, limit, err := window(skip, limit)
	if err != nil {
		return nil, err
	}

	issues, err := s.issues.List(ctx, store.IssueFilter{CreatedBy: creator, Limit: limit, Offset: skip})
	if err != nil {
		return nil, fmt.Errorf("list issues of %s: %w", creator, err)
	}
	return issues, nil
}

func (s *IssueService) Count(ctx context.Context, actor model.Identity) (int, error) {
	n, err := s.issues.Count(ctx, s.scope(actor))
	if err != nil {
		return 0, fmt.Errorf("count issues: %w", err)
	}
	return n, nil
}

// CountByStatus returns a count for every status, zero when absent.
func (s *IssueService) CountByStatus(ctx context.Context, actor model.Identity) (map[model.IssueStatus]int, error) {
	raw, err := s.issues.CountGrouped(ctx, store.FieldStatus, s.scope(actor))
	if err != nil {
		return nil, fmt.Errorf("count issues by status: %w", err)
	}
	out, _ := model.NewCounts()
	for k := range out {
		out[k] = raw[string(k)]
	}
	return out, nil
}

// CountBySeverity returns a count for every severity, zero when absent.
func (s *IssueService) CountBySeverity(ctx context.Context, actor model.Identity) (map[model.IssueSeverity]int, error) {
	raw, err := s.issues.CountGrouped(ctx, store.FieldSeverity, s.scope(actor))
	if err != nil {
		return nil, fmt.Errorf("count issues by severity: %w", err)
	}
	_, out := model.NewCounts()
	for k := range out {
		out[k] = raw[string(k)]
	}
	return out, nil
}

func (s *IssueService) scope(actor model.Identity) store.IssueFilter {
	if policy.IsMaintainerOrAdmin(actor) {
		return store.IssueFilter{}
	}
	return store.IssueFilter{CreatedBy: actor.UserID}
}

// emit hands a committed mutation to the relay. A full relay only costs live delivery.
func (s *IssueService) emit(ev event.Eventer) {
	if s.sink.Enqueue(ev) {
		return
	}
	s.logger.Warn("[ISSUE] event not relayed",
		slog.String("event_id", ev.GetID()),
		slog.String("type", ev.GetKind().String()),
	)
}
