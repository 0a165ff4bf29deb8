package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/jsalmeida/ecommerce-api/internal/logging"
	"github.com/jsalmeida/ecommerce-api/internal/middleware"
	"github.com/jsalmeida/ecommerce-api/internal/service"
	"github.com/jsalmeida/ecommerce-api/internal/tokens"
	"github.com/jsalmeida/ecommerce-api/internal/transport"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.CredentialsRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 401, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized. Invalid credentials")
	}

	res, err := h.Svc.Login(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized. Invalid credentials")
		}
		l.Error("login_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	c.SetCookie(tokens.CreateCookie(tokens.SessionCookie, res.Token, "/", res.ExpiresAt))

	return c.JSON(http.StatusOK, echo.Map{"message": "Logged in successfully"})
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	jti, err := middleware.CurrentJTI(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized. No active session")
	}

	if err := h.Svc.Logout(ctx, jti); err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized. No active session")
		}
		l.Error("logout_error", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	c.SetCookie(tokens.DeleteCookie(tokens.SessionCookie, "/"))

	return c.JSON(http.StatusOK, echo.Map{"message": "Logout successfully"})
}
