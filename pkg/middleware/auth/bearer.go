package middleware

import (
	"context"
	"net/http"

	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/tokens"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

const tokenContextKey = "token"

// SessionChecker reports whether the session behind an access token is
// still usable (not revoked, not expired).
type SessionChecker interface {
	SessionActive(ctx context.Context, sessionID uuid.UUID) (bool, error)
}

type BearerAuth struct {
	sessions SessionChecker
	jwt      echo.MiddlewareFunc
}

func NewBearerAuth(secret []byte, sessions SessionChecker) *BearerAuth {
	return &BearerAuth{
		sessions: sessions,
		jwt: echojwt.WithConfig(echojwt.Config{
			SigningKey:    secret,
			SigningMethod: "HS256",
			ContextKey:    tokenContextKey,
			TokenLookup:   "header:Authorization:Bearer ",
			NewClaimsFunc: func(echo.Context) jwt.Claims { return new(tokens.AccessClaims) },
			ErrorHandler: func(c echo.Context, err error) error {
				logging.FromContext(c.Request().Context()).Warn("auth_failed", "status", 401, "reason", "invalid bearer token", "error", err)
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or missing access token")
			},
		}),
	}
}

// RequireAuth verifies the bearer token and its session, then stores
// user_id, is_admin and session_id on the echo context.
func (m *BearerAuth) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return m.jwt(m.checkSession(next))
}

func (m *BearerAuth) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return m.RequireAuth(func(c echo.Context) error {
		if isAdmin, _ := c.Get("is_admin").(bool); !isAdmin {
			logging.FromContext(c.Request().Context()).Warn("auth_failed", "status", 403, "reason", "admin access required")
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}
		return next(c)
	})
}

func (m *BearerAuth) checkSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		l := logging.FromContext(ctx).With("handler", "auth.bearer")

		token, ok := c.Get(tokenContextKey).(*jwt.Token)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or missing access token")
		}
		claims, ok := token.Claims.(*tokens.AccessClaims)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or missing access token")
		}
		if _, err := uuid.Parse(claims.Subject); err != nil {
			l.Warn("auth_failed", "status", 401, "reason", "subject is not a uuid", "error", err)
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or missing access token")
		}
		sid, err := uuid.Parse(claims.SessionID)
		if err != nil {
			l.Warn("auth_failed", "status", 401, "reason", "session id is not a uuid", "error", err)
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or missing access token")
		}

		if m.sessions != nil {
			active, err := m.sessions.SessionActive(ctx, sid)
			if err != nil {
				l.Error("auth_failed", "status", 500, "reason", "cannot check session", "error", err)
				return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
			}
			if !active {
				l.Warn("auth_failed", "status", 401, "reason", "session revoked or expired", "session_id", sid)
				return echo.NewHTTPError(http.StatusUnauthorized, "session expired")
			}
		}

		c.Set("user_id", claims.Subject)
		c.Set("is_admin", claims.IsAdmin)
		c.Set("session_id", claims.SessionID)
		return next(c)
	}
}
