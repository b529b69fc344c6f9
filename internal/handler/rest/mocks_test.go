package rest_test

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/trackly/trackly-api/internal/domain/model"
	"github.com/trackly/trackly-api/internal/service"
	"github.com/trackly/trackly-api/internal/service/dto"
)

type mockAuthService struct {
	signupFn  func(ctx context.Context, req dto.SignupRequest) (*dto.LoginResponse, error)
	loginFn   func(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	refreshFn func(ctx context.Context, req dto.RefreshRequest) (*dto.RefreshResponse, error)
	meFn      func(ctx context.Context, actor model.Identity) (*model.User, error)
}

func (m *mockAuthService) Signup(ctx context.Context, req dto.SignupRequest) (*dto.LoginResponse, error) {
	if m.signupFn != nil {
		return m.signupFn(ctx, req)
	}
	return nil, nil
}

func (m *mockAuthService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, req)
	}
	return &dto.LoginResponse{}, nil
}

func (m *mockAuthService) Refresh(ctx context.Context, req dto.RefreshRequest) (*dto.RefreshResponse, error) {
	if m.refreshFn != nil {
		return m.refreshFn(ctx, req)
	}
	return nil, nil
}

func (m *mockAuthService) Me(ctx context.Context, actor model.Identity) (*model.User, error) {
	if m.meFn != nil {
		return m.meFn(ctx, actor)
	}
	return &model.User{ID: actor.UserID, FullName: actor.Name, Role: actor.Role}, nil
}

type mockUserService struct {
	listFn       func(ctx context.Context, actor model.Identity, skip, limit int) ([]*model.User, error)
	getFn        func(ctx context.Context, actor model.Identity, id uuid.UUID) (*model.User, error)
	getByEmailFn func(ctx context.Context, actor model.Identity, email string) (*model.User, error)
	updateFn     func(ctx context.Context, actor model.Identity, id uuid.UUID, req dto.UserUpdate) (*model.User, error)
	deleteFn     func(ctx context.Context, actor model.Identity, id uuid.UUID) error
	countFn      func(ctx context.Context, actor model.Identity) (int, error)
}

func (m *mockUserService) List(ctx context.Context, actor model.Identity, skip, limit int) ([]*model.User, error) {
	if m.listFn != nil {
		return m.listFn(ctx, actor, skip, limit)
	}
	return nil, nil
}

func (m *mockUserService) Get(ctx context.Context, actor model.Identity, id uuid.UUID) (*model.User, error) {
	if m.getFn != nil {
		return m.getFn(ctx, actor, id)
	}
	return nil, service.ErrNotFound
}

func (m *mockUserService) GetByEmail(ctx context.Context, actor model.Identity, email string) (*model.User, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, actor, email)
	}
	return nil, service.ErrNotFound
}

func (m *mockUserService) Update(ctx context.Context, actor model.Identity, id uuid.UUID, req dto.UserUpdate) (*model.User, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, actor, id, req)
	}
	return nil, nil
}

func (m *mockUserService) Delete(ctx context.Context, actor model.Identity, id uuid.UUID) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, actor, id)
	}
	return nil
}

func (m *mockUserService) Count(ctx context.Context, actor model.Identity) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx, actor)
	}
	return 0, nil
}

type mockIssueService struct {
	createFn          func(ctx context.Context, actor model.Identity, in dto.IssueCreate) (*model.Issue, error)
	updateFn          func(ctx context.Context, actor model.Identity, id uuid.UUID, in dto.IssueUpdate) (*model.Issue, error)
	deleteFn          func(ctx context.Context, actor model.Identity, id uuid.UUID) error
	getFn             func(ctx context.Context, actor model.Identity, id uuid.UUID) (*model.Issue, error)
	listFn            func(ctx context.Context, actor model.Identity, q dto.IssueQuery) ([]*model.Issue, error)
	listByCreatorFn   func(ctx context.Context, actor model.Identity, creator uuid.UUID, skip, limit int) ([]*model.Issue, error)
	countFn           func(ctx context.Context, actor model.Identity) (int, error)
	countByStatusFn   func(ctx context.Context, actor model.Identity) (map[model.IssueStatus]int, error)
	countBySeverityFn func(ctx context.Context, actor model.Identity) (map[model.IssueSeverity]int, error)
}

func (m *mockIssueService) Create(ctx context.Context, actor model.Identity, in dto.IssueCreate) (*model.Issue, error) {
	if m.createFn != nil {
		return m.createFn(ctx, actor, in)
	}
	return nil, nil
}

func (m *mockIssueService) Update(ctx context.Context, actor model.Identity, id uuid.UUID, in dto.IssueUpdate) (*model.Issue, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, actor, id, in)
	}
	return nil, nil
}

func (m *mockIssueService) Delete(ctx context.Context, actor model.Identity, id uuid.UUID) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, actor, id)
	}
	return nil
}

func (m *mockIssueService) Get(ctx context.Context, actor model.Identity, id uuid.UUID) (*model.Issue, error) {
	if m.getFn != nil {
		return m.getFn(ctx, actor, id)
	}
	return nil, service.ErrNotFound
}

func (m *mockIssueService) List(ctx context.Context, actor model.Identity, q dto.IssueQuery) ([]*model.Issue, error) {
	if m.listFn != nil {
		return m.listFn(ctx, actor, q)
	}
	return nil, nil
}

func (m *mockIssueService) ListByCreator(ctx context.Context, actor model.Identity, creator uuid.UUID, skip, limit int) ([]*model.Issue, error) {
	if m.listByCreatorFn != nil {
		return m.listByCreatorFn(ctx, actor, creator, skip, limit)
	}
	return nil, nil
}

func (m *mockIssueService) Count(ctx context.Context, actor model.Identity) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx, actor)
	}
	return 0, nil
}

func (m *mockIssueService) CountByStatus(ctx context.Context, actor model.Identity) (map[model.IssueStatus]int, error) {
	if m.countByStatusFn != nil {
		return m.countByStatusFn(ctx, actor)
	}
	return nil, nil
}

func (m *mockIssueService) CountBySeverity(ctx context.Context, actor model.Identity) (map[model.IssueSeverity]int, error) {
	if m.countBySeverityFn != nil {
		return m.countBySeverityFn(ctx, actor)
	}
	return nil, nil
}

type mockFileService struct {
	uploadFn func(ctx context.Context, actor model.Identity, filename, contentType string, r io.Reader) (*model.File, error)
	listFn   func(ctx context.Context, skip, limit int) (*dto.FileList, error)
	countFn  func(ctx context.Context) (int, error)
	getFn    func(ctx context.Context, id string) (*model.File, error)
	openFn   func(ctx context.Context, id string) (*model.File, io.ReadSeekCloser, error)
	deleteFn func(ctx context.Context, actor model.Identity, id string) error
}

func (m *mockFileService) Upload(ctx context.Context, actor model.Identity, filename, contentType string, r io.Reader) (*model.File, error) {
	if m.uploadFn != nil {
		return m.uploadFn(ctx, actor, filename, contentType, r)
	}
	return nil, nil
}

func (m *mockFileService) List(ctx context.Context, skip, limit int) (*dto.FileList, error) {
	if m.listFn != nil {
		return m.listFn(ctx, skip, limit)
	}
	return &dto.FileList{}, nil
}

func (m *mockFileService) Count(ctx context.Context) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx)
	}
	return 0, nil
}

func (m *mockFileService) Get(ctx context.Context, id string) (*model.File, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, service.ErrNotFound
}

func (m *mockFileService) Open(ctx context.Context, id string) (*model.File, io.ReadSeekCloser, error) {
	if m.openFn != nil {
		return m.openFn(ctx, id)
	}
	return nil, nil, service.ErrNotFound
}

func (m *mockFileService) Delete(ctx context.Context, actor model.Identity, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, actor, id)
	}
	return nil
}

type mockStatsService struct {
	listDailyFn func(ctx context.Context, actor model.Identity, limit int) ([]*model.DailyStatsSnapshot, error)
	getDailyFn  func(ctx context.Context, actor model.Identity, date string) (*model.DailyStatsSnapshot, error)
	summaryFn   func(ctx context.Context, actor model.Identity) (*model.StatsSummary, error)
	triggerFn   func(ctx context.Context, actor model.Identity) (*model.AggregationResult, error)
	statusFn    func(actor model.Identity) (model.JobStatus, error)
}

func (m *mockStatsService) ListDaily(ctx context.Context, actor model.Identity, limit int) ([]*model.DailyStatsSnapshot, error) {
	if m.listDailyFn != nil {
		return m.listDailyFn(ctx, actor, limit)
	}
	return nil, nil
}

func (m *mockStatsService) GetDaily(ctx context.Context, actor model.Identity, date string) (*model.DailyStatsSnapshot, error) {
	if m.getDailyFn != nil {
		return m.getDailyFn(ctx, actor, date)
	}
	return nil, service.ErrNotFound
}

func (m *mockStatsService) Summary(ctx context.Context, actor model.Identity) (*model.StatsSummary, error) {
	if m.summaryFn != nil {
		return m.summaryFn(ctx, actor)
	}
	return &model.StatsSummary{}, nil
}

func (m *mockStatsService) Trigger(ctx context.Context, actor model.Identity) (*model.AggregationResult, error) {
	if m.triggerFn != nil {
		return m.triggerFn(ctx, actor)
	}
	return nil, nil
}

func (m *mockStatsService) SchedulerStatus(actor model.Identity) (model.JobStatus, error) {
	if m.statusFn != nil {
		return m.statusFn(actor)
	}
	return model.JobStatus{}, nil
}

type stubHub struct{ stats model.HubStats }

func (s stubHub) Stats() model.HubStats { return s.stats }

// tokenAuth maps bearer tokens to identities.
type tokenAuth map[string]model.Identity

func (t tokenAuth) Authenticate(_ context.Context, token string) (model.Identity, error) {
	id, ok := t[token]
	if !ok {
		return model.Identity{}, service.ErrUnauthorized
	}
	return id, nil
}
