package handlers

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"finance-ledger/internal/dto"
	"finance-ledger/internal/logging"
	"finance-ledger/internal/models"
	"finance-ledger/internal/services"
	"finance-ledger/internal/services/service_mocks"

	"github.com/go-playground/validator/v10"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type AuthHandlerSuite struct {
	suite.Suite
	ctrl        *gomock.Controller
	authService *service_mocks.MockAuthServiceInterface
	handler     *AuthHandler
	echo        *echo.Echo
}

func TestAuthHandlerSuite(t *testing.T) {
	suite.Run(t, new(AuthHandlerSuite))
}

func (s *AuthHandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.authService = service_mocks.NewMockAuthServiceInterface(s.ctrl)
	s.handler = NewAuthHandler(s.authService, logging.Discard())
	s.echo = newTestEcho()
}

func (s *AuthHandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *AuthHandlerSuite) registerBody() dto.RegisterRequest {
	return dto.RegisterRequest{Name: "Ada Lovelace", Email: "ada@example.com", Password: "correct-horse"}
}

func (s *AuthHandlerSuite) TestRegister_Success() {
	user := &models.User{ID: uuid.New(), Name: "Ada Lovelace", Email: "ada@example.com", Role: models.RoleUser}
	account := &models.Account{ID: uuid.New(), UserID: user.ID, Balance: decimal.Zero}

	s.authService.EXPECT().
		Register(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(req *dto.RegisterRequest, _, _ string) (*models.User, *models.Account, error) {
			s.Equal("ada@example.com", req.Email)
			return user, account, nil
		})

	c, rec := newRequest(s.echo, http.MethodPost, "/api/v1/auth/register", s.registerBody())
	s.Require().NoError(s.handler.Register(c))

	s.Equal(http.StatusCreated, rec.Code)
	var body dto.RegisterResponse
	s.Require().NoError(decodeJSON(rec, &body))
	s.Equal(user.ID, body.User.ID)
	s.Equal(account.ID, body.Account.ID)
	s.Equal("0.00", body.Account.Balance)
}

func (s *AuthHandlerSuite) TestRegister_InvalidJSON() {
	c, rec := newRequest(s.echo, http.MethodPost, "/api/v1/auth/register", "{not json")
	s.Require().NoError(s.handler.Register(c))

	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("VALIDATION_003", decodeError(rec).Code)
}

func (s *AuthHandlerSuite) TestRegister_ValidationError() {
	body := s.registerBody()
	body.Email = "not-an-email"

	c, _ := newRequest(s.echo, http.MethodPost, "/api/v1/auth/register", body)
	err := s.handler.Register(c)

	var validationErrors validator.ValidationErrors
	s.Require().True(errors.As(err, &validationErrors))
	s.Equal("email", validationErrors[0].Field())
}

func (s *AuthHandlerSuite) TestRegister_DuplicateEmail() {
	s.authService.EXPECT().Register(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, nil, services.ErrUserAlreadyExists)

	c, rec := newRequest(s.echo, http.MethodPost, "/api/v1/auth/register", s.registerBody())
	s.Require().NoError(s.handler.Register(c))

	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("USER_002", decodeError(rec).Code)
	s.Equal("USER_002", c.Get(ErrorCodeContextKey))
}

func (s *AuthHandlerSuite) TestRegister_WeakPassword() {
	s.authService.EXPECT().Register(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, nil, &services.PasswordTooShortError{MinLength: 8})

	c, rec := newRequest(s.echo, http.MethodPost, "/api/v1/auth/register", s.registerBody())
	s.Require().NoError(s.handler.Register(c))

	s.Equal(http.StatusBadRequest, rec.Code)
	detail := decodeError(rec)
	s.Equal("VALIDATION_001", detail.Code)
	s.Equal([]string{"password: password must be at least 8 characters"}, detail.Details)
}

func (s *AuthHandlerSuite) TestRegister_ServiceFailure() {
	s.authService.EXPECT().Register(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, nil, errors.New("pq: connection reset"))

	c, rec := newRequest(s.echo, http.MethodPost, "/api/v1/auth/register", s.registerBody())
	s.Require().NoError(s.handler.Register(c))

	s.Equal(http.StatusInternalServerError, rec.Code)
	s.NotContains(rec.Body.String(), "connection reset")
	s.Equal("test-trace", decodeError(rec).TraceID)
}

func (s *AuthHandlerSuite) TestLogin_Success() {
	tokens := &dto.TokenResponse{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		ExpiresAt:    time.Now().Add(time.Hour).UTC(),
	}
	s.authService.EXPECT().Login(gomock.Any(), gomock.Any(), gomock.Any()).Return(tokens, nil)

	c, rec := newRequest(s.echo, http.MethodPost, "/api/v1/auth/login",
		dto.LoginRequest{Email: "ada@example.com", Password: "correct-horse"})
	s.Require().NoError(s.handler.Login(c))

	s.Equal(http.StatusOK, rec.Code)
	var body dto.TokenResponse
	s.Require().NoError(decodeJSON(rec, &body))
	s.Equal("access", body.AccessToken)
	s.Equal("refresh", body.RefreshToken)
}

func (s *AuthHandlerSuite) TestLogin_MissingCredentials() {
	for _, req := range []dto.LoginRequest{
		{Email: "", Password: "secret"},
		{Email: "ada@example.com", Password: ""},
		{Email: "   ", Password: "secret"},
	} {
		c, rec := newRequest(s.echo, http.MethodPost, "/api/v1/auth/login", req)
		s.Require().NoError(s.handler.Login(c))

		s.Equal(http.StatusBadRequest, rec.Code)
		s.Equal("VALIDATION_004", decodeError(rec).Code)
	}
}

func (s *AuthHandlerSuite) TestLogin_Failures() {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"invalid credentials", services.ErrInvalidCredentials, http.StatusUnauthorized, "AUTH_001"},
		{"locked", services.ErrAccountLocked, http.StatusUnauthorized, "AUTH_006"},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, "SYSTEM_001"},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.authService.EXPECT().Login(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, tc.err)

			c, rec := newRequest(s.echo, http.MethodPost, "/api/v1/auth/login",
				dto.LoginRequest{Email: "ada@example.com", Password: "wrong"})
			s.Require().NoError(s.handler.Login(c))

			s.Equal(tc.status, rec.Code)
			s.Equal(tc.code, decodeError(rec).Code)
		})
	}
}

func (s *AuthHandlerSuite) TestRefreshToken() {
	s.Run("success", func() {
		s.authService.EXPECT().RefreshTokens("old-refresh", gomock.Any(), gomock.Any()).
			Return(&dto.TokenResponse{AccessToken: "new-access", RefreshToken: "new-refresh"}, nil)

		c, rec := newRequest(s.echo, http.MethodPost, "/api/v1/auth/refresh",
			dto.RefreshTokenRequest{RefreshToken: "old-refresh"})
		s.Require().NoError(s.handler.RefreshToken(c))

		s.Equal(http.StatusOK, rec.Code)
		s.Contains(rec.Body.String(), "new-refresh")
	})

	s.Run("invalid token", func() {
		s.authService.EXPECT().RefreshTokens("stale", gomock.Any(), gomock.Any()).
			Return(nil, services.ErrInvalidRefreshToken)

		c, rec := newRequest(s.echo, http.MethodPost, "/api/v1/auth/refresh",
			dto.RefreshTokenRequest{RefreshToken: "stale"})
		s.Require().NoError(s.handler.RefreshToken(c))

		s.Equal(http.StatusUnauthorized, rec.Code)
		s.Equal("AUTH_007", decodeError(rec).Code)
	})

	s.Run("missing token", func() {
		c, _ := newRequest(s.echo, http.MethodPost, "/api/v1/auth/refresh", dto.RefreshTokenRequest{})
		err := s.handler.RefreshToken(c)

		var validationErrors validator.ValidationErrors
		s.True(errors.As(err, &validationErrors))
	})
}

func (s *AuthHandlerSuite) TestLogout() {
	s.Run("success", func() {
		s.authService.EXPECT().Logout("access-token", "refresh-token", gomock.Any(), gomock.Any()).Return(nil)

		c, rec := newRequest(s.echo, http.MethodPost, "/api/v1/auth/logout",
			dto.LogoutRequest{RefreshToken: "refresh-token"})
		c.Request().Header.Set("Authorization", "Bearer access-token")
		s.Require().NoError(s.handler.Logout(c))

		s.Equal(http.StatusOK, rec.Code)
		s.JSONEq(`{"message":"Logout successful"}`, rec.Body.String())
	})

	s.Run("without refresh token", func() {
		s.authService.EXPECT().Logout("access-token", "", gomock.Any(), gomock.Any()).Return(nil)

		c, rec := newRequest(s.echo, http.MethodPost, "/api/v1/auth/logout", nil)
		c.Request().Header.Set("Authorization", "Bearer access-token")
		s.Require().NoError(s.handler.Logout(c))

		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("missing header", func() {
		c, rec := newRequest(s.echo, http.MethodPost, "/api/v1/auth/logout", nil)
		s.Require().NoError(s.handler.Logout(c))

		s.Equal(http.StatusUnauthorized, rec.Code)
		s.Equal("AUTH_002", decodeError(rec).Code)
	})

	s.Run("malformed header", func() {
		c, rec := newRequest(s.echo, http.MethodPost, "/api/v1/auth/logout", nil)
		c.Request().Header.Set("Authorization", "Token abc")
		s.Require().NoError(s.handler.Logout(c))

		s.Equal(http.StatusUnauthorized, rec.Code)
		s.Equal("AUTH_004", decodeError(rec).Code)
	})
}
