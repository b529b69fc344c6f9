package interceptors

import (
	"context"
	"net/http"
	"strings"

	"github.com/trackly/trackly-api/internal/domain/model"
	"github.com/trackly/trackly-api/internal/handler/marshaller"
	"github.com/trackly/trackly-api/internal/service"
)

type contextKey string

const (
	// IdentityContextKey is the key used to store/retrieve model.Identity from context
	IdentityContextKey contextKey = "identity"
)

// NewAuthInterceptor rejects requests without a valid bearer token and puts
// the resolved identity into the request context.
func NewAuthInterceptor(authn service.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// [PRE_AUTH] Validate identity before the handler runs
			identity, err := authn.Authenticate(r.Context(), BearerToken(r))
			if err != nil {
				marshaller.Error(w, err)
				return
			}

			// [ENRICHMENT] Inject the identity into the context for downstream handlers
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// BearerToken returns the token of an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func WithIdentity(ctx context.Context, identity model.Identity) context.Context {
	return context.WithValue(ctx, IdentityContextKey, identity)
}

// GetIdentity is a helper to extract the identity from context safely.
func GetIdentity(ctx context.Context) (model.Identity, bool) {
	identity, ok := ctx.Value(IdentityContextKey).(model.Identity)
	return identity, ok
}
