package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/angelmondragon/storefront-backend/api/responses"
	pkgAuth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the claims.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r.Header.Get("Authorization"))
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "Access denied. No token provided."))
				return
			}

			ctx, err := authenticate(r.Context(), cfg, logg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth attaches the identity when a valid token is present and
// otherwise lets the request through anonymously.
func OptionalAuth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r.Header.Get("Authorization"))
			if token != "" {
				if ctx, err := authenticate(r.Context(), cfg, logg, token); err == nil {
					r = r.WithContext(ctx)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func authenticate(ctx context.Context, cfg config.JWTConfig, logg *logger.Logger, token string) (context.Context, error) {
	claims, err := pkgAuth.ParseAccessToken(cfg, token)
	if err != nil {
		msg := "Invalid token"
		if errors.Is(err, pkgAuth.ErrTokenExpired) {
			msg = "Token expired"
		}
		return ctx, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, msg)
	}

	ctx = WithIdentity(ctx, claims.UserID, claims.Role)
	if logg != nil {
		ctx = logg.WithUserID(ctx, claims.UserID.String())
		ctx = logg.WithRole(ctx, string(claims.Role))
	}
	return ctx, nil
}

func bearerToken(raw string) string {
	token := strings.TrimSpace(raw)
	if len(token) >= 7 && strings.EqualFold(token[:7], "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	return token
}
