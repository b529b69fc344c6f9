package rest

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/trackly/trackly-api/infra/server/http/interceptors"
	"github.com/trackly/trackly-api/internal/domain/model"
	"github.com/trackly/trackly-api/internal/service"
)

// actor is the identity the auth interceptor stored. Routes reaching a
// handler without one are a wiring bug, so the zero value is refused.
func actor(r *http.Request) (model.Identity, error) {
	id, ok := interceptors.GetIdentity(r.Context())
	if !ok {
		return model.Identity{}, service.ErrUnauthorized
	}
	return id, nil
}

func pathUUID(r *http.Request, name, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s not found", service.ErrNotFound, what)
	}
	return id, nil
}

// queryInt returns def when the parameter is absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", service.ErrInvalidInput, name)
	}
	return n, nil
}

// page reads skip and limit. Range checks belong to the services.
func page(r *http.Request) (skip, limit int, err error) {
	if skip, err = queryInt(r, "skip", 0); err != nil {
		return 0, 0, err
	}
	if limit, err = queryInt(r, "limit", 100); err != nil {
		return 0, 0, err
	}
	return skip, limit, nil
}

type message struct {
	Message string `json:"message"`
}
