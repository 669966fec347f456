// pkg/middleware/auth.go
package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"subtrack/pkg/jwt"
)

type ctxKey string

// UserIDKey: ключ контекста, под которым лежит ID пользователя (int64)
const UserIDKey ctxKey = "user_id"

// TokenParser проверяет access-токен (pkg/jwt.Manager).
type TokenParser interface {
	Parse(token string) (*jwt.Claims, error)
}

// JWTAuth пропускает запрос только с валидным заголовком "Authorization: Bearer <token>"
func JWTAuth(parser TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			scheme, token, ok := strings.Cut(auth, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
				WriteError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := parser.Parse(strings.TrimSpace(token))
			if err != nil {
				WriteError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserID достаёт ID пользователя, положенный JWTAuth.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(UserIDKey).(int64)
	return id, ok
}

// BasicAuth возвращает middleware для базовой аутентификации (используется для /metrics)
func BasicAuth(username, password string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok || password == "" || !constantTimeEqual(user, username) || !constantTimeEqual(pass, password) {
				w.Header().Set("WWW-Authenticate", `Basic realm="metrics"`)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func constantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
