package httpserver

import (
	"net/http"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/labstack/echo/v4"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req transport.RegisterRequest
	if err := bindAndValidate(c, &req); err != nil {
		l.Warn("register_error", "status", 400, "reason", "invalid body", "error", err)
		return err
	}

	user, err := h.Svc.Register(ctx, req)
	if err != nil {
		return respondError(c, l, "register_error", err)
	}

	l.Info("register_success", "user_id", user.ID)
	return c.JSON(http.StatusCreated, user)
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		l.Warn("login_error", "status", 400, "reason", "invalid body", "error", err)
		return err
	}

	res, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return respondError(c, l, "login_error", err)
	}
	return c.JSON(http.StatusOK, tokenResponse(res))
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.refresh")

	var req transport.RefreshRequest
	if err := bindAndValidate(c, &req); err != nil {
		l.Warn("refresh_error", "status", 400, "reason", "invalid body", "error", err)
		return err
	}

	res, err := h.Svc.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return respondError(c, l, "refresh_error", err)
	}
	return c.JSON(http.StatusOK, tokenResponse(res))
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	sid, err := sessionID(c)
	if err != nil {
		l.Warn("logout_error", "status", 401, "reason", "no session on context")
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := h.Svc.Logout(ctx, sid); err != nil {
		return respondError(c, l, "logout_error", err)
	}

	l.Info("logout_success", "session_id", sid)
	return c.JSON(http.StatusOK, map[string]string{"message": "logged out"})
}

func (h *AuthHTTP) ForgotPassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.forgot_password")

	var req transport.ForgotPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		l.Warn("forgot_password_error", "status", 400, "reason", "invalid body", "error", err)
		return err
	}
	if err := h.Svc.ForgotPassword(ctx, req.Email); err != nil {
		return respondError(c, l, "forgot_password_error", err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "password reset link sent"})
}

func (h *AuthHTTP) ResetPassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.reset_password")

	var req transport.ResetPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		l.Warn("reset_password_error", "status", 400, "reason", "invalid body", "error", err)
		return err
	}
	if err := h.Svc.ResetPassword(ctx, c.Param("token"), req.Password); err != nil {
		return respondError(c, l, "reset_password_error", err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "password updated"})
}

func tokenResponse(res *service.LoginResult) transport.TokenResponse {
	return transport.TokenResponse{
		AccessToken:      res.AccessToken,
		RefreshToken:     res.RefreshToken,
		TokenType:        "Bearer",
		AccessExpiresAt:  res.AccessExp.Unix(),
		RefreshExpiresAt: res.RefreshExp.Unix(),
		IsAdmin:          res.IsAdmin,
	}
}
