package ws

import (
	"context"
	"net/http"

	"social-chat/auth"
	"social-chat/domain"
	"social-chat/errors"
)

type contextKey string

const identityKey contextKey = "identity"

// Authenticate validates the bearer credential of each request and injects
// the resolved identity into the request context for downstream handlers.
func Authenticate(verifier auth.IVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := verifier.Verify(r.Header.Get("Authorization"))
			if err != nil {
				writeError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), identity)))
		})
	}
}

func withIdentity(ctx context.Context, identity domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

func identityFrom(ctx context.Context) (domain.Identity, error) {
	identity, ok := ctx.Value(identityKey).(domain.Identity)
	if !ok {
		return domain.Identity{}, errors.ErrMissingCredential
	}
	return identity, nil
}
