package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/trackly/trackly-api/internal/domain/event"
	"github.com/trackly/trackly-api/internal/domain/model"
	"github.com/trackly/trackly-api/internal/metrics"
	"github.com/trackly/trackly-api/internal/service"
	"github.com/trackly/trackly-api/internal/service/dto"
	"github.com/trackly/trackly-api/internal/store"
)

func strPtr(s string) *string { return &s }

var _ = Describe("IssueService", func() {
	var (
		svc       *service.IssueService
		mockStore *mockIssueStore
		sink      *recordingSink
		m         *metrics.Metrics
		ctx       context.Context

		admin     model.Identity
		reporter  model.Identity
		otherUser model.Identity
	)

	BeforeEach(func() {
		ctx = context.Background()
		mockStore = &mockIssueStore{}
		sink = &recordingSink{}
		m = metrics.New(prometheus.NewRegistry())
		svc = service.NewIssueService(mockStore, sink, slog.New(slog.NewTextHandler(io.Discard, nil)), m)

		admin = model.Identity{UserID: uuid.New(), Name: "Ada", Role: model.RoleAdmin}
		reporter = model.Identity{UserID: uuid.New(), Name: "Rae", Role: model.RoleReporter}
		otherUser = model.Identity{UserID: uuid.New(), Name: "Otto", Role: model.RoleReporter}
	})

	existing := func(creator uuid.UUID) *model.Issue {
		issue := model.NewIssue("login broken", "500 on submit", model.SeverityHigh, creator, "")
		mockStore.getFn = func(_ context.Context, id uuid.UUID) (*model.Issue, error) {
			if id != issue.ID {
				return nil, store.ErrNotFound
			}
			cp := *issue
			return &cp, nil
		}
		return issue
	}

	Describe("Create", func() {
		It("persists, counts and relays an issue_created event", func() {
			var persisted *model.Issue
			mockStore.createFn = func(_ context.Context, issue *model.Issue) error {
				persisted = issue
				return nil
			}

			issue, err := svc.Create(ctx, reporter, dto.IssueCreate{Title: "crash", Description: "on start", Severity: "CRITICAL"})

			Expect(err).NotTo(HaveOccurred())
			Expect(persisted).To(Equal(issue))
			Expect(issue.Status).To(Equal(model.StatusOpen))
			Expect(issue.CreatedBy).To(Equal(reporter.UserID))

			events := sink.Events()
			Expect(events).To(HaveLen(1))
			Expect(events[0].GetKind()).To(Equal(event.IssueCreated))
			Expect(events[0].GetUserID()).To(Equal(reporter.UserID))

			Expect(testutil.ToFloat64(m.IssuesTotal.WithLabelValues("CRITICAL", "REPORTER"))).To(Equal(1.0))
		})

		It("emits nothing when persistence fails", func() {
			mockStore.createFn = func(context.Context, *model.Issue) error {
				return errors.New("disk full")
			}

			_, err := svc.Create(ctx, reporter, dto.IssueCreate{Title: "crash", Description: "on start"})

			Expect(err).To(MatchError(ContainSubstring("disk full")))
			Expect(sink.Events()).To(BeEmpty())
		})

		It("rejects invalid input before touching the store", func() {
			mockStore.createFn = func(context.Context, *model.Issue) error {
				Fail("store must not be called")
				return nil
			}

			_, err := svc.Create(ctx, reporter, dto.IssueCreate{Description: "no title"})

			Expect(errors.Is(err, service.ErrInvalidInput)).To(BeTrue())
		})

		It("still succeeds when the relay is full", func() {
			sink.full = true

			issue, err := svc.Create(ctx, reporter, dto.IssueCreate{Title: "crash", Description: "on start"})

			Expect(err).NotTo(HaveOccurred())
			Expect(issue).NotTo(BeNil())
		})
	})

	Describe("Update", func() {
		It("applies present fields and relays issue_updated", func() {
			issue := existing(reporter.UserID)
			var saved *model.Issue
			mockStore.updateFn = func(_ context.Context, i *model.Issue) error {
				saved = i
				return nil
			}

			got, err := svc.Update(ctx, admin, issue.ID, dto.IssueUpdate{Status: strPtr("TRIAGED")})

			Expect(err).NotTo(HaveOccurred())
			Expect(got.Status).To(Equal(model.StatusTriaged))
			Expect(got.Title).To(Equal(issue.Title))
			Expect(saved.UpdatedBy).To(Equal(admin.UserID))

			events := sink.Events()
			Expect(events).To(HaveLen(1))
			Expect(events[0].GetKind()).To(Equal(event.IssueUpdated))
		})

		It("forbids reporters from editing someone else's issue", func() {
			issue := existing(otherUser.UserID)

			_, err := svc.Update(ctx, reporter, issue.ID, dto.IssueUpdate{Title: strPtr("mine now")})

			Expect(errors.Is(err, service.ErrForbidden)).To(BeTrue())
			Expect(sink.Events()).To(BeEmpty())
		})

		It("maps a missing issue to ErrNotFound", func() {
			_, err := svc.Update(ctx, admin, uuid.New(), dto.IssueUpdate{Title: strPtr("x")})

			Expect(errors.Is(err, service.ErrNotFound)).To(BeTrue())
		})
	})

	Describe("Delete", func() {
		It("relays the snapshot taken before deletion", func() {
			issue := existing(reporter.UserID)
			deleted := false
			mockStore.deleteFn = func(context.Context, uuid.UUID) error {
				deleted = true
				return nil
			}

			Expect(svc.Delete(ctx, reporter, issue.ID)).To(Succeed())
			Expect(deleted).To(BeTrue())

			events := sink.Events()
			Expect(events).To(HaveLen(1))
			Expect(events[0].GetKind()).To(Equal(event.IssueDeleted))
			payload, ok := events[0].GetPayload().(model.Issue)
			Expect(ok).To(BeTrue())
			Expect(payload.ID).To(Equal(issue.ID))
			Expect(payload.Title).To(Equal(issue.Title))
		})

		It("does not let maintainers delete other people's issues", func() {
			issue := existing(reporter.UserID)
			maintainer := model.Identity{UserID: uuid.New(), Role: model.RoleMaintainer}

			err := svc.Delete(ctx, maintainer, issue.ID)

			Expect(errors.Is(err, service.ErrForbidden)).To(BeTrue())
			Expect(sink.Events()).To(BeEmpty())
		})

		It("does not let maintainers delete issues they filed themselves", func() {
			maintainer := model.Identity{UserID: uuid.New(), Role: model.RoleMaintainer}
			issue := existing(maintainer.UserID)

			err := svc.Delete(ctx, maintainer, issue.ID)

			Expect(errors.Is(err, service.ErrForbidden)).To(BeTrue())
			Expect(sink.Events()).To(BeEmpty())
		})

		It("emits nothing when the delete fails", func() {
			issue := existing(reporter.UserID)
			mockStore.deleteFn = func(context.Context, uuid.UUID) error { return store.ErrNotFound }

			err := svc.Delete(ctx, admin, issue.ID)

			Expect(errors.Is(err, service.ErrNotFound)).To(BeTrue())
			Expect(sink.Events()).To(BeEmpty())
		})
	})

	Describe("List", func() {
		It("scopes reporters to their own issues", func() {
			var filter store.IssueFilter
			mockStore.listFn = func(_ context.Context, f store.IssueFilter) ([]*model.Issue, error) {
				filter = f
				return nil, nil
			}

			_, err := svc.List(ctx, reporter, dto.IssueQuery{Status: "OPEN"})

			Expect(err).NotTo(HaveOccurred())
			Expect(filter.CreatedBy).To(Equal(reporter.UserID))
			Expect(filter.Status).To(Equal(model.StatusOpen))
			Expect(filter.Limit).To(Equal(100))
		})

		It("lets staff see everything", func() {
			var filter store.IssueFilter
			mockStore.listFn = func(_ context.Context, f store.IssueFilter) ([]*model.Issue, error) {
				filter = f
				return nil, nil
			}

			_, err := svc.List(ctx, admin, dto.IssueQuery{Skip: 5, Limit: 10})

			Expect(err).NotTo(HaveOccurred())
			Expect(filter.CreatedBy).To(Equal(uuid.Nil))
			Expect(filter.Offset).To(Equal(5))
		})

		It("rejects a page larger than 1000", func() {
			_, err := svc.List(ctx, admin, dto.IssueQuery{Limit: 1001})

			Expect(errors.Is(err, service.ErrInvalidInput)).To(BeTrue())
		})
	})

	Describe("CountByStatus", func() {
		It("reports zero for statuses without issues", func() {
			mockStore.countGroupedFn = func(_ context.Context, field store.Field, _ store.IssueFilter) (map[string]int, error) {
				Expect(field).To(Equal(store.FieldStatus))
				return map[string]int{"OPEN": 3}, nil
			}

			counts, err := svc.CountByStatus(ctx, admin)

			Expect(err).NotTo(HaveOccurred())
			Expect(counts).To(HaveLen(4))
			Expect(counts[model.StatusOpen]).To(Equal(3))
			Expect(counts[model.StatusDone]).To(BeZero())
		})
	})
})
