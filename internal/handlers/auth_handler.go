package handlers

import (
	stderrors "errors"
	"net/http"
	"strings"

	"finance-ledger/internal/dto"
	"finance-ledger/internal/errors"
	"finance-ledger/internal/logging"
	"finance-ledger/internal/services"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService services.AuthServiceInterface
	logger      *logrus.Entry
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(authService services.AuthServiceInterface, logger logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logging.WithComponent(logger, "auth_handler"),
	}
}

// Register creates a user together with a zero-balance account.
//
// POST /api/v1/auth/register
//
//	201: dto.RegisterResponse
//	400: VALIDATION_001, USER_002 (duplicate email)
//	500: SYSTEM_001
func (h *AuthHandler) Register(c echo.Context) error {
	var req dto.RegisterRequest

	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationInvalidFormat)
	}

	if err := c.Validate(req); err != nil {
		return err
	}

	user, account, err := h.authService.Register(&req, getClientIP(c), c.Request().UserAgent())
	if err != nil {
		var tooShort *services.PasswordTooShortError
		switch {
		case stderrors.Is(err, services.ErrUserAlreadyExists):
			return SendError(c, errors.UserAlreadyExists)
		case stderrors.Is(err, services.ErrPasswordEmpty),
			stderrors.Is(err, services.ErrPasswordTooLong),
			stderrors.As(err, &tooShort):
			return SendError(c, errors.ValidationGeneral, errors.WithDetails("password: "+err.Error()))
		}
		return SendSystemError(c, h.logger, err)
	}

	return c.JSON(http.StatusCreated, dto.RegisterResponse{
		User:    dto.NewUserResponse(user),
		Account: dto.NewAccountResponse(account),
	})
}

// Login exchanges credentials for an access and a refresh token.
//
// POST /api/v1/auth/login
//
//	200: dto.TokenResponse
//	400: VALIDATION_004 (missing email or password)
//	401: AUTH_001, AUTH_006 (locked)
func (h *AuthHandler) Login(c echo.Context) error {
	var req dto.LoginRequest

	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationInvalidFormat)
	}

	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return SendError(c, errors.ValidationCredentials)
	}

	tokens, err := h.authService.Login(&req, getClientIP(c), c.Request().UserAgent())
	if err != nil {
		switch {
		case stderrors.Is(err, services.ErrAccountLocked):
			return SendError(c, errors.AuthAccountLocked)
		case stderrors.Is(err, services.ErrInvalidCredentials):
			return SendError(c, errors.AuthInvalidCredentials)
		}
		return SendSystemError(c, h.logger, err)
	}

	return c.JSON(http.StatusOK, tokens)
}

// RefreshToken rotates the refresh token and issues a new access token.
//
// POST /api/v1/auth/refresh
//
//	200: dto.TokenResponse
//	400: VALIDATION_001
//	401: AUTH_007
func (h *AuthHandler) RefreshToken(c echo.Context) error {
	var req dto.RefreshTokenRequest

	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationInvalidFormat)
	}

	if err := c.Validate(req); err != nil {
		return err
	}

	tokens, err := h.authService.RefreshTokens(req.RefreshToken, getClientIP(c), c.Request().UserAgent())
	if err != nil {
		if stderrors.Is(err, services.ErrInvalidRefreshToken) {
			return SendError(c, errors.AuthInvalidRefreshToken)
		}
		return SendSystemError(c, h.logger, err)
	}

	return c.JSON(http.StatusOK, tokens)
}

// Logout revokes the presented access token and the given refresh token, or
// every refresh token of the user when none is given. The route sits behind
// RequireAuth.
//
// POST /api/v1/auth/logout
//
//	200: {"message": "Logout successful"}
//	401: AUTH_002, AUTH_004
func (h *AuthHandler) Logout(c echo.Context) error {
	if c.Request().Header.Get("Authorization") == "" {
		return SendError(c, errors.AuthMissingToken)
	}

	accessToken := bearerToken(c)
	if accessToken == "" {
		return SendError(c, errors.AuthInvalidTokenFormat)
	}

	var req dto.LogoutRequest
	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationInvalidFormat)
	}

	if err := h.authService.Logout(accessToken, req.RefreshToken, getClientIP(c), c.Request().UserAgent()); err != nil {
		return SendSystemError(c, h.logger, err)
	}

	return c.JSON(http.StatusOK, dto.MessageResponse{Message: "Logout successful"})
}
