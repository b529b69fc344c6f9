package stream

import (
	"net/http"

	"github.com/trackly/trackly-api/infra/server/http/interceptors"
	"github.com/trackly/trackly-api/internal/domain/model"
	"github.com/trackly/trackly-api/internal/handler/marshaller"
	"github.com/trackly/trackly-api/internal/service"
)

// Credential returns the bearer token of a stream request. Browsers cannot
// set headers on EventSource or WebSocket, so the token query parameter comes
// first and the Authorization header is the fallback.
func Credential(r *http.Request) string {
	if t := r.URL.Query().Get("token"); t != "" {
		return t
	}
	return interceptors.BearerToken(r)
}

// Authorize resolves the caller before any subscriber exists. On failure it
// writes the 401 response and reports false.
func Authorize(w http.ResponseWriter, r *http.Request, authn service.Authenticator) (model.Identity, bool) {
	identity, err := authn.Authenticate(r.Context(), Credential(r))
	if err != nil {
		marshaller.Error(w, err)
		return model.Identity{}, false
	}
	return identity, true
}
