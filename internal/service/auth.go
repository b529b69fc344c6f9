package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/trackly/trackly-api/infra/auth"
	"github.com/trackly/trackly-api/internal/domain/model"
	"github.com/trackly/trackly-api/internal/metrics"
	"github.com/trackly/trackly-api/internal/service/dto"
	"github.com/trackly/trackly-api/internal/store"
)

const bearer = "bearer"

var errCredentials = fmt.Errorf("%w: Could not validate credentials", ErrUnauthorized)

// Authenticator verifies bearer credentials for HTTP requests and stream sessions.
type Authenticator interface {
	Authenticate(ctx context.Context, rawToken string) (model.Identity, error)
}

type AuthService struct {
	users      store.UserStore
	tokens     *auth.TokenIssuer
	hasher     *auth.Hasher
	identities IdentityResolver
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

func NewAuthService(users store.UserStore, tokens *auth.TokenIssuer, hasher *auth.Hasher,
	identities IdentityResolver, logger *slog.Logger, m *metrics.Metrics,
) *AuthService {
	return &AuthService{
		users:      users,
		tokens:     tokens,
		hasher:     hasher,
		identities: identities,
		logger:     logger,
		metrics:    m,
	}
}

// Signup registers a new account and logs it in. The role defaults to REPORTER.
func (s *AuthService) Signup(ctx context.Context, req dto.SignupRequest) (*dto.LoginResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	role := model.RoleReporter
	if req.Role != "" {
		role = model.Role(req.Role)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("signup: %w", err)
	}

	now := time.Now().UTC()
	u := &model.User{
		ID:           uuid.New(),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		FullName:     req.FullName,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, fmt.Errorf("%w: Email already registered", ErrInvalidInput)
		}
		return nil, fmt.Errorf("signup: %w", err)
	}

	s.logger.Info("[AUTH] user registered",
		slog.String("user_id", u.ID.String()),
		slog.String("role", role.String()),
	)

	tokens, err := s.issuePair(u)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{User: u, Tokens: *tokens}, nil
}

// Login checks the password and issues an access and refresh token pair.
func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	u, err := s.users.GetByEmail(ctx, req.Email)
	if err == nil {
		err = s.hasher.Compare(u.PasswordHash, req.Password)
	}
	if err != nil {
		s.metrics.LoginsTotal.WithLabelValues("failure", "password").Inc()
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, fmt.Errorf("%w: Invalid email or password", ErrUnauthorized)
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	tokens, err := s.issuePair(u)
	if err != nil {
		return nil, err
	}
	s.metrics.LoginsTotal.WithLabelValues("success", "password").Inc()
	return &dto.LoginResponse{User: u, Tokens: *tokens}, nil
}

// Refresh exchanges a refresh token for a new access token.
func (s *AuthService) Refresh(ctx context.Context, req dto.RefreshRequest) (*dto.RefreshResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	claims, err := s.tokens.Parse(req.RefreshToken, auth.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: Invalid refresh token", ErrUnauthorized)
	}
	id, err := claims.UserID()
	if err != nil {
		return nil, fmt.Errorf("%w: Invalid refresh token", ErrUnauthorized)
	}

	u, err := s.users.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: User not found", ErrUnauthorized)
		}
		return nil, fmt.Errorf("refresh: %w", err)
	}

	access, err := s.tokens.IssueAccess(u)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}
	return &dto.RefreshResponse{
		AccessToken: access,
		TokenType:   bearer,
		ExpiresIn:   int(s.tokens.AccessTTL().Seconds()),
	}, nil
}

// Me returns the account of the caller.
func (s *AuthService) Me(ctx context.Context, actor model.Identity) (*model.User, error) {
	u, err := s.users.Get(ctx, actor.UserID)
	if err != nil {
		return nil, fromStore(err, "User")
	}
	return u, nil
}

// Authenticate verifies an access token and resolves the current identity.
// The role comes from the user store, not from the token.
func (s *AuthService) Authenticate(ctx context.Context, rawToken string) (model.Identity, error) {
	if rawToken == "" {
		return model.Identity{}, fmt.Errorf("%w: Not authenticated", ErrUnauthorized)
	}

	claims, err := s.tokens.Parse(rawToken, auth.AccessToken)
	if err != nil {
		return model.Identity{}, errCredentials
	}
	id, err := claims.UserID()
	if err != nil {
		return model.Identity{}, errCredentials
	}
	return s.identities.Resolve(ctx, id)
}

func (s *AuthService) issuePair(u *model.User) (*dto.TokenResponse, error) {
	access, err := s.tokens.IssueAccess(u)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.tokens.IssueRefresh(u)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	return &dto.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    bearer,
		ExpiresIn:    int(s.tokens.AccessTTL().Seconds()),
	}, nil
}
