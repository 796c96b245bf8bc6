package auth

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const (
	RolePatient = "patient"
	RoleDoctor  = "doctor"
	RoleAdmin   = "admin"
)

// Rule restricts the paths matching Pattern to callers holding one of Roles.
// Pattern uses path.Match syntax; a trailing "/**" matches the prefix and
// everything below it.
type Rule struct {
	Pattern string
	Roles   []string
}

// RoleResolver looks up a user's role when the session does not carry one.
type RoleResolver interface {
	RoleOf(ctx context.Context, userID string) (string, error)
}

// DefaultRules gates the routes that need an authenticated caller.
func DefaultRules() []Rule {
	return []Rule{
		{Pattern: "/appointments/update-status", Roles: []string{RolePatient, RoleDoctor}},
		{Pattern: "/video-token", Roles: []string{RolePatient, RoleDoctor}},
		{Pattern: "/audit/**", Roles: []string{RolePatient, RoleDoctor}},
		{Pattern: "/init", Roles: []string{RoleAdmin}},
	}
}

// Matches reports whether p falls under the rule's pattern.
func (r Rule) Matches(p string) bool {
	if prefix, ok := strings.CutSuffix(r.Pattern, "/**"); ok {
		return p == prefix || strings.HasPrefix(p, prefix+"/")
	}
	ok, err := path.Match(r.Pattern, p)
	return err == nil && ok
}

// Allows reports whether role satisfies the rule. Admin always does.
func (r Rule) Allows(role string) bool {
	if role == RoleAdmin {
		return true
	}
	for _, allowed := range r.Roles {
		if allowed == role {
			return true
		}
	}
	return false
}

// Guard enforces the first rule matching the request path. Unmatched paths
// pass through untouched.
func Guard(rules []Rule, roles RoleResolver, logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := c.Request().URL.Path
			var rule *Rule
			for i := range rules {
				if rules[i].Matches(p) {
					rule = &rules[i]
					break
				}
			}
			if rule == nil {
				return next(c)
			}

			ctx := c.Request().Context()
			userID := UserIDFromContext(ctx)
			if userID == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}

			role := RoleFromContext(ctx)
			if role == "" && roles != nil {
				resolved, err := roles.RoleOf(ctx, userID)
				if err != nil {
					logger.Warn().Err(err).Str("user_id", userID).Msg("role lookup failed")
				}
				role = resolved
			}

			if !rule.Allows(role) {
				return echo.NewHTTPError(http.StatusForbidden,
					fmt.Sprintf("required role: %s", strings.Join(rule.Roles, " or ")))
			}
			return next(c)
		}
	}
}
