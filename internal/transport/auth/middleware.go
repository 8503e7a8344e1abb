package auth

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/kauan1212/pix-zap-cobran-sub000/internal/domain"
)

type ctxKey string

const UserIDKey ctxKey = "userID"

// TokenResolver resolves a bearer token to a personal access token record.
type TokenResolver interface {
	FindTokenByPlainToken(ctx context.Context, plainToken string) (*domain.PersonalAccessToken, error)
}

// Middleware authenticates requests by personal access token, taken from
// the Authorization header or, for websocket dials, the token query param.
// The resolved user id is put on the request context; handlers trust it
// and never re-validate credentials.
func Middleware(tokens TokenResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var pat *domain.PersonalAccessToken

			authHeader := r.Header.Get("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				plainToken := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
				if plainToken != "" {
					p, err := tokens.FindTokenByPlainToken(r.Context(), plainToken)
					if err == nil {
						pat = p
					}
				}
			}

			if pat == nil {
				if token := r.URL.Query().Get("token"); token != "" {
					p, err := tokens.FindTokenByPlainToken(r.Context(), token)
					if err == nil {
						pat = p
					}
				}
			}

			if pat == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if pat.ExpiresAt != nil && pat.ExpiresAt.Before(time.Now()) {
				log.Printf("[AUTH] token %d expired at %v", pat.ID, pat.ExpiresAt)
				http.Error(w, "Token expired", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, pat.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetUserID(ctx context.Context) (int64, error) {
	userID, ok := ctx.Value(UserIDKey).(int64)
	if !ok {
		return 0, errors.New("userID not found in context")
	}
	return userID, nil
}

// WithUserID returns a context carrying an authenticated user id. Used by
// handler tests and the websocket fallback path.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}
