package handlers

import (
	stderrors "errors"
	"net/http"

	"finance-ledger/internal/dto"
	"finance-ledger/internal/errors"
	"finance-ledger/internal/logging"
	"finance-ledger/internal/services"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// UserHandler serves user profiles
type UserHandler struct {
	userService services.UserServiceInterface
	logger      *logrus.Entry
}

func NewUserHandler(userService services.UserServiceInterface, logger logrus.FieldLogger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logging.WithComponent(logger, "user_handler"),
	}
}

// ListUsers returns a page of users. Admin only.
//
// GET /api/v1/users?offset=&limit=
func (h *UserHandler) ListUsers(c echo.Context) error {
	offset, limit := services.NormalizePage(getIntParam(c, "offset", 0), getIntParam(c, "limit", services.DefaultPageSize))

	users, total, err := h.userService.ListUsers(offset, limit)
	if err != nil {
		return SendSystemError(c, h.logger, err, errors.UserListFailed)
	}

	response := dto.UsersListResponse{
		Users:  make([]dto.UserResponse, 0, len(users)),
		Total:  total,
		Offset: offset,
		Limit:  limit,
	}
	for _, user := range users {
		response.Users = append(response.Users, dto.NewUserResponse(user))
	}

	return c.JSON(http.StatusOK, response)
}

// GetMe returns the authenticated user's profile.
//
// GET /api/v1/users/me
func (h *UserHandler) GetMe(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	user, err := h.userService.GetUser(userID)
	if err != nil {
		if stderrors.Is(err, services.ErrUserNotFound) {
			return SendError(c, errors.UserNotFound)
		}
		return SendSystemError(c, h.logger, err)
	}

	return c.JSON(http.StatusOK, dto.NewUserResponse(user))
}
