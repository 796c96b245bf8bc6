package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	UserIDKey   contextKey = "user_id"
	UserRoleKey contextKey = "user_role"
)

// DevUserID is the identity given to anonymous callers in development mode.
const DevUserID = "dev-user"

type SessionConfig struct {
	// SigningKey verifies HS256 session tokens.
	SigningKey []byte
	// Dev grants anonymous requests an admin session.
	Dev bool
}

// Session parses an optional bearer session token and stores the caller's
// identity on the request context. Requests without an Authorization header
// continue anonymously; a malformed or invalid token is rejected with 401.
func Session(cfg SessionConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if IsPublicPath(c.Request().URL.Path) {
				return next(c)
			}

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				if cfg.Dev {
					setSession(c, DevUserID, RoleAdmin)
				}
				return next(c)
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}

			claims, err := ParseToken(parts[1], cfg.SigningKey)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			setSession(c, claims.Subject, claims.Role)
			return next(c)
		}
	}
}

func setSession(c echo.Context, userID, role string) {
	ctx := WithSession(c.Request().Context(), userID, role)
	c.SetRequest(c.Request().WithContext(ctx))
}

// WithSession returns a copy of ctx carrying the caller's identity.
func WithSession(ctx context.Context, userID, role string) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, userID)
	return context.WithValue(ctx, UserRoleKey, role)
}

func UserIDFromContext(ctx context.Context) string {
	uid, _ := ctx.Value(UserIDKey).(string)
	return uid
}

func RoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(UserRoleKey).(string)
	return role
}
