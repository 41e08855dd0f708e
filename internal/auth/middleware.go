package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/nkamath/calshare/libs/httpx"
)

type ctxKey struct{}

// UserID returns the authenticated owner's user ID, or "" if the request
// did not pass through RequireBearer.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// RequireBearer rejects requests without a valid Authorization bearer
// token and stores the token's user ID in the request context.
func RequireBearer(signer *Signer) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(raw, "Bearer ")
			if !ok || token == "" {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}
			claims, err := signer.Verify(token)
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), ctxKey{}, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
