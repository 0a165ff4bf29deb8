package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jsalmeida/ecommerce-api/internal/repo"
	"github.com/jsalmeida/ecommerce-api/internal/tokens"
)

const (
	userIDKey = "user_id"
	jtiKey    = "session_jti"
)

type SessionAuth struct {
	Repo   *repo.GormRepo
	Secret []byte
}

func NewSessionAuth(r *repo.GormRepo, secret []byte) *SessionAuth {
	return &SessionAuth{Repo: r, Secret: secret}
}

// RequireSession authenticates the request from the session cookie. The
// token must verify, the session row must be live, and the user behind it
// must still exist.
func (m *SessionAuth) RequireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		cookie, err := c.Cookie(tokens.SessionCookie)
		if err != nil || cookie.Value == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized. No active session")
		}

		claims, err := tokens.SessionClaimsFromToken(cookie.Value, m.Secret)
		if err != nil {
			c.SetCookie(tokens.DeleteCookie(tokens.SessionCookie, "/"))
			return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized. No active session")
		}

		ctx := c.Request().Context()
		session, err := m.Repo.ActiveSession(ctx, claims.ID)
		if err != nil || session.TokenHash != tokens.Sha256Hex(cookie.Value) {
			c.SetCookie(tokens.DeleteCookie(tokens.SessionCookie, "/"))
			return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized. No active session")
		}

		userID, err := claims.UserID()
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized. No active session")
		}
		if _, err := m.Repo.GetUserByID(ctx, userID); err != nil {
			c.SetCookie(tokens.DeleteCookie(tokens.SessionCookie, "/"))
			return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized. No active session")
		}

		c.Set(userIDKey, userID)
		c.Set(jtiKey, claims.ID)

		return next(c)
	}
}

// CurrentUserID reads the identity RequireSession stashed on the context.
func CurrentUserID(c echo.Context) (uint, error) {
	v, ok := c.Get(userIDKey).(uint)
	if !ok {
		return 0, errors.New("no authenticated user on context")
	}
	return v, nil
}

func CurrentJTI(c echo.Context) (string, error) {
	v, ok := c.Get(jtiKey).(string)
	if !ok || v == "" {
		return "", errors.New("no session on context")
	}
	return v, nil
}
