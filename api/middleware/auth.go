package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/lessonfolio/lessonfolio-backend/api/responses"
	pkgAuth "github.com/lessonfolio/lessonfolio-backend/pkg/auth"
	"github.com/lessonfolio/lessonfolio-backend/pkg/config"
	pkgerrors "github.com/lessonfolio/lessonfolio-backend/pkg/errors"
	"github.com/lessonfolio/lessonfolio-backend/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the teacher identity.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := context.WithValue(r.Context(), ctxTeacherID, claims.TeacherID.String())

			if logg != nil {
				ctx = logg.WithTeacherID(ctx, claims.TeacherID.String())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
