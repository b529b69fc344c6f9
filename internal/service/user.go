package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/trackly/trackly-api/internal/domain/model"
	"github.com/trackly/trackly-api/internal/domain/policy"
	"github.com/trackly/trackly-api/internal/service/dto"
	"github.com/trackly/trackly-api/internal/store"
)

type UserService struct {
	users      store.UserStore
	identities IdentityResolver
	logger     *slog.Logger
}

func NewUserService(users store.UserStore, identities IdentityResolver, logger *slog.Logger) *UserService {
	return &UserService{users: users, identities: identities, logger: logger}
}

func (s *UserService) List(ctx context.Context, actor model.Identity, skip, limit int) ([]*model.User, error) {
	if !policy.IsAdmin(actor) {
		return nil, ErrForbidden
	}
	skip, limit, err := window(skip, limit)
	if err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *UserService) Get(ctx context.Context, actor model.Identity, id uuid.UUID) (*model.User, error) {
	if !policy.CanAccessUser(actor, id) {
		return nil, ErrForbidden
	}
	u, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, fromStore(err, "User")
	}
	return u, nil
}

func (s *UserService) GetByEmail(ctx context.Context, actor model.Identity, email string) (*model.User, error) {
	if !policy.IsAdmin(actor) {
		return nil, ErrForbidden
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fromStore(err, "User")
	}
	return u, nil
}

// Update changes the profile of id. Only admins may change a role.
func (s *UserService) Update(ctx context.Context, actor model.Identity, id uuid.UUID, req dto.UserUpdate) (*model.User, error) {
	if !policy.CanAccessUser(actor, id) {
		return nil, ErrForbidden
	}
	if err := validate(req); err != nil {
		return nil, err
	}
	if req.Role != nil && !policy.CanChangeRole(actor) {
		return nil, fmt.Errorf("%w: only admins can change roles", ErrForbidden)
	}

	u, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, fromStore(err, "User")
	}
	if req.FullName != nil {
		u.FullName = *req.FullName
	}
	if req.Role != nil {
		u.Role = model.Role(*req.Role)
	}
	u.UpdatedAt = time.Now().UTC()

	if err := s.users.Update(ctx, u); err != nil {
		return nil, fromStore(err, "User")
	}
	// Open streams keep the role they connected with; new requests see the change.
	s.identities.Invalidate(id)

	if req.Role != nil {
		s.logger.Info("[USER] role changed",
			slog.String("user_id", id.String()),
			slog.String("role", u.Role.String()),
			slog.String("by", actor.UserID.String()),
		)
	}
	return u, nil
}

func (s *UserService) Delete(ctx context.Context, actor model.Identity, id uuid.UUID) error {
	if !policy.IsAdmin(actor) {
		return ErrForbidden
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return fromStore(err, "User")
	}
	s.identities.Invalidate(id)
	return nil
}

func (s *UserService) Count(ctx context.Context, actor model.Identity) (int, error) {
	if !policy.IsAdmin(actor) {
		return 0, ErrForbidden
	}
	n, err := s.users.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// window applies the default page size and checks the bounds of a list request.
func window(skip, limit int) (int, int, error) {
	if limit == 0 {
		limit = 100
	}
	if skip < 0 {
		return 0, 0, invalidf("skip must not be negative")
	}
	if limit < 1 || limit > 1000 {
		return 0, 0, invalidf("limit must be between 1 and 1000")
	}
	return skip, limit, nil
}
