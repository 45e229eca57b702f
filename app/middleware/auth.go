package middleware

import (
	"context"
	"net/http"
	"strings"

	"folio/app/logging"
)

type userKey struct{}

// TokenVerifier checks a session token and returns its user
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// AdminAuth rejects requests without a valid session token, read from the
// named cookie or an "Authorization: Bearer" header.
func AdminAuth(verifier TokenVerifier, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				if c, err := r.Cookie(cookieName); err == nil {
					token = c.Value
				}
			}
			if token == "" {
				unauthorized(w, r)
				return
			}
			user, err := verifier.Verify(token)
			if err != nil {
				logging.Ctx(r.Context()).Debug().Err(err).Msg("rejected session token")
				unauthorized(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey{}, user)))
		})
	}
}

// UserFromContext returns the authenticated admin, or "".
func UserFromContext(ctx context.Context) string {
	user, _ := ctx.Value(userKey{}).(string)
	return user
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

func unauthorized(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
		return
	}
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}
