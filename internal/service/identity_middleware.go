package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/trackly/trackly-api/internal/domain/model"
)

// identityMiddleware adds timing and failure logging to an IdentityResolver.
type identityMiddleware struct {
	next   IdentityResolver
	logger *slog.Logger
}

func NewIdentityMiddleware(next IdentityResolver, logger *slog.Logger) IdentityResolver {
	return &identityMiddleware{next: next, logger: logger}
}

func (m *identityMiddleware) Resolve(ctx context.Context, userID uuid.UUID) (model.Identity, error) {
	start := time.Now()

	id, err := m.next.Resolve(ctx, userID)
	if err != nil {
		m.logger.Warn("[IDENTITY] resolve failed",
			slog.String("user_id", userID.String()),
			slog.Any("err", err),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	}
	return id, err
}

func (m *identityMiddleware) Invalidate(userID uuid.UUID) {
	m.logger.Debug("[IDENTITY] invalidated", slog.String("user_id", userID.String()))
	m.next.Invalidate(userID)
}
