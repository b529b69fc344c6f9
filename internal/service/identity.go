package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/trackly/trackly-api/internal/domain/model"
	"github.com/trackly/trackly-api/internal/store"
)

// IdentityResolver turns a token subject into the caller identity.
type IdentityResolver interface {
	Resolve(ctx context.Context, userID uuid.UUID) (model.Identity, error)
	// Invalidate drops a cached identity after its user changed.
	Invalidate(userID uuid.UUID)
}

// CachedIdentityResolver reads users through an LRU cache of hot identities.
type CachedIdentityResolver struct {
	users store.UserStore
	cache *lru.Cache[uuid.UUID, model.Identity]
}

func NewIdentityResolver(users store.UserStore, size int) (*CachedIdentityResolver, error) {
	if size <= 0 {
		size = 1024
	}
	cache, err := lru.New[uuid.UUID, model.Identity](size)
	if err != nil {
		return nil, fmt.Errorf("identity cache: %w", err)
	}
	return &CachedIdentityResolver{users: users, cache: cache}, nil
}

func (r *CachedIdentityResolver) Resolve(ctx context.Context, userID uuid.UUID) (model.Identity, error) {
	if userID == uuid.Nil {
		return model.Identity{}, ErrUnauthorized
	}
	if id, ok := r.cache.Get(userID); ok {
		return id, nil
	}

	u, err := r.users.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// A token for a removed account is no longer valid.
			return model.Identity{}, fmt.Errorf("%w: User not found", ErrUnauthorized)
		}
		return model.Identity{}, err
	}

	id := u.Identity()
	r.cache.Add(userID, id)
	return id, nil
}

func (r *CachedIdentityResolver) Invalidate(userID uuid.UUID) {
	r.cache.Remove(userID)
}
