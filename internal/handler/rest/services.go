// Package rest is the JSON API: auth, users, issues, files and statistics.
// Handlers depend on the narrow interfaces below; the concrete services
// live in internal/service.
package rest

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/trackly/trackly-api/internal/domain/model"
	"github.com/trackly/trackly-api/internal/service"
	"github.com/trackly/trackly-api/internal/service/dto"
)

type AuthService interface {
	Signup(ctx context.Context, req dto.SignupRequest) (*dto.LoginResponse, error)
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	Refresh(ctx context.Context, req dto.RefreshRequest) (*dto.RefreshResponse, error)
	Me(ctx context.Context, actor model.Identity) (*model.User, error)
}

type UserService interface {
	List(ctx context.Context, actor model.Identity, skip, limit int) ([]*model.User, error)
	Get(ctx context.Context, actor model.Identity, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, actor model.Identity, email string) (*model.User, error)
	Update(ctx context.Context, actor model.Identity, id uuid.UUID, req dto.UserUpdate) (*model.User, error)
	Delete(ctx context.Context, actor model.Identity, id uuid.UUID) error
	Count(ctx context.Context, actor model.Identity) (int, error)
}

type IssueService interface {
	Create(ctx context.Context, actor model.Identity, in dto.IssueCreate) (*model.Issue, error)
	Update(ctx context.Context, actor model.Identity, id uuid.UUID, in dto.IssueUpdate) (*model.Issue, error)
	Delete(ctx context.Context, actor model.Identity, id uuid.UUID) error
	Get(ctx context.Context, actor model.Identity, id uuid.UUID) (*model.Issue, error)
	List(ctx context.Context, actor model.Identity, q dto.IssueQuery) ([]*model.Issue, error)
	ListByCreator(ctx context.Context, actor model.Identity, creator uuid.UUID, skip, limit int) ([]*model.Issue, error)
	Count(ctx context.Context, actor model.Identity) (int, error)
	CountByStatus(ctx context.Context, actor model.Identity) (map[model.IssueStatus]int, error)
	CountBySeverity(ctx context.Context, actor model.Identity) (map[model.IssueSeverity]int, error)
}

type FileService interface {
	Upload(ctx context.Context, actor model.Identity, filename, contentType string, r io.Reader) (*model.File, error)
	List(ctx context.Context, skip, limit int) (*dto.FileList, error)
	Count(ctx context.Context) (int, error)
	Get(ctx context.Context, id string) (*model.File, error)
	Open(ctx context.Context, id string) (*model.File, io.ReadSeekCloser, error)
	Delete(ctx context.Context, actor model.Identity, id string) error
}

type StatsService interface {
	ListDaily(ctx context.Context, actor model.Identity, limit int) ([]*model.DailyStatsSnapshot, error)
	GetDaily(ctx context.Context, actor model.Identity, date string) (*model.DailyStatsSnapshot, error)
	Summary(ctx context.Context, actor model.Identity) (*model.StatsSummary, error)
	Trigger(ctx context.Context, actor model.Identity) (*model.AggregationResult, error)
	SchedulerStatus(actor model.Identity) (model.JobStatus, error)
}

var (
	_ AuthService  = (*service.AuthService)(nil)
	_ UserService  = (*service.UserService)(nil)
	_ IssueService = (*service.IssueService)(nil)
	_ FileService  = (*service.FileService)(nil)
	_ StatsService = (*service.StatsService)(nil)
)
