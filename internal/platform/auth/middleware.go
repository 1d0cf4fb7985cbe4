package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	UserIDKey      contextKey = "user_id"
	UserRoleKey    contextKey = "user_role"
	TokenJTIKey    contextKey = "token_jti"
	TokenExpiryKey contextKey = "token_expiry"
)

// Middleware returns echo middleware that authenticates requests with a
// bearer token issued by this server. Revoked tokens (logged-out sessions)
// are rejected even before their natural expiry.
func Middleware(issuer *TokenIssuer, revoked RevocationChecker) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}

			claims, err := issuer.Parse(parts[1])
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			if revoked != nil && claims.ID != "" {
				isRevoked, err := revoked.IsRevoked(c.Request().Context(), claims.ID)
				if err != nil {
					return echo.NewHTTPError(http.StatusServiceUnavailable, "authorization check failed")
				}
				if isRevoked {
					return echo.NewHTTPError(http.StatusUnauthorized, "token has been revoked")
				}
			}

			ctx := c.Request().Context()
			ctx = context.WithValue(ctx, UserIDKey, claims.Subject)
			ctx = context.WithValue(ctx, UserRoleKey, claims.Role)
			ctx = context.WithValue(ctx, TokenJTIKey, claims.ID)
			if claims.ExpiresAt != nil {
				ctx = context.WithValue(ctx, TokenExpiryKey, claims.ExpiresAt.Time)
			}
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

func UserIDFromContext(ctx context.Context) string {
	uid, _ := ctx.Value(UserIDKey).(string)
	return uid
}

func RoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(UserRoleKey).(string)
	return role
}

func JTIFromContext(ctx context.Context) string {
	jti, _ := ctx.Value(TokenJTIKey).(string)
	return jti
}

// ExpiryFromContext returns the authenticated token's natural expiry, or the
// zero time when no token is present.
func ExpiryFromContext(ctx context.Context) time.Time {
	exp, _ := ctx.Value(TokenExpiryKey).(time.Time)
	return exp
}
