package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/templui/quizline/internal/ctxkeys"
	"github.com/templui/quizline/internal/service"
	"github.com/templui/quizline/internal/ui"
)

// AuthMiddleware resolves a bearer token to the current user and adds it to
// the context. Requests without a valid token continue anonymously; routes
// that need a user are wrapped in RequireAuth. A failed user lookup is a 500.
func AuthMiddleware(authService *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			// the user is reloaded so deleted or demoted accounts take effect at once
			user, err := authService.Authenticate(r.Context(), token)
			if errors.Is(err, service.ErrInvalidToken) {
				next.ServeHTTP(w, r)
				return
			}
			if err != nil {
				slog.Error("failed to authenticate request",
					"error", err,
					"request_id", ctxkeys.RequestID(r.Context()),
				)
				ui.Error(w, http.StatusInternalServerError, "internal server error")
				return
			}

			ctx := ctxkeys.WithUser(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := ctxkeys.User(r.Context())
		if user == nil {
			ui.Error(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	}
}

// RequireAdmin rejects anonymous requests with 401 and non-admins with 403.
func RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		user := ctxkeys.User(r.Context())
		if !user.IsAdmin {
			ui.Error(w, http.StatusForbidden, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
