package handlers

import (
	stderrors "errors"
	"net/http"

	"finance-ledger/internal/dto"
	"finance-ledger/internal/errors"
	"finance-ledger/internal/logging"
	"finance-ledger/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// AccountHandler handles account-related HTTP requests
type AccountHandler struct {
	accountService services.AccountServiceInterface
	logger         *logrus.Entry
}

func NewAccountHandler(accountService services.AccountServiceInterface, logger logrus.FieldLogger) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		logger:         logging.WithComponent(logger, "account_handler"),
	}
}

// CreateAccount opens an account for the caller, or for user_id when the
// caller is an admin.
//
// POST /api/v1/accounts
//
//	201: dto.AccountResponse
//	400: VALIDATION_001, ACCOUNT_005
//	403: AUTH_005 (user_id of someone else, caller not admin)
//	404: USER_001
//	500: ACCOUNT_002
func (h *AccountHandler) CreateAccount(c echo.Context) error {
	callerID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	var req dto.CreateAccountRequest
	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationInvalidFormat)
	}

	if err := c.Validate(req); err != nil {
		return err
	}

	ownerID := callerID
	if req.UserID != "" {
		ownerID, err = uuid.Parse(req.UserID)
		if err != nil {
			return SendError(c, errors.ValidationInvalidID, errors.WithDetails("user_id"))
		}
		if ownerID != callerID && !getIsAdminFromContext(c) {
			return SendError(c, errors.AuthInsufficientPermission)
		}
	}

	openingBalance := decimal.Zero
	if req.Balance != nil {
		openingBalance = *req.Balance
	}

	account, err := h.accountService.CreateAccount(c.Request().Context(), ownerID, openingBalance)
	if err != nil {
		switch {
		case stderrors.Is(err, services.ErrUserNotFound):
			return SendError(c, errors.UserNotFound)
		case stderrors.Is(err, services.ErrInvalidOpeningBalance):
			return SendError(c, errors.AccountInvalidBalance, errors.WithDetails(err.Error()))
		}
		return SendSystemError(c, h.logger, err, errors.AccountCreateFailed)
	}

	return c.JSON(http.StatusCreated, dto.NewAccountResponse(account))
}

// ListAccounts returns the caller's accounts.
//
// GET /api/v1/accounts
func (h *AccountHandler) ListAccounts(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	accounts, err := h.accountService.ListAccounts(c.Request().Context(), userID)
	if err != nil {
		return SendSystemError(c, h.logger, err, errors.AccountGetFailed)
	}

	return c.JSON(http.StatusOK, dto.NewAccountListResponse(accounts))
}

// GetAccount returns one of the caller's accounts with its owner.
//
// GET /api/v1/accounts/:id
func (h *AccountHandler) GetAccount(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	accountID, err := parseUUIDParam(c, "id")
	if err != nil {
		return SendError(c, errors.ValidationInvalidID, errors.WithDetails("Invalid account ID"))
	}

	account, err := h.accountService.GetAccount(c.Request().Context(), accountID, userID)
	if err != nil {
		if stderrors.Is(err, services.ErrAccountNotFound) {
			return SendError(c, errors.AccountNotFound)
		}
		return SendSystemError(c, h.logger, err, errors.AccountGetFailed)
	}

	return c.JSON(http.StatusOK, dto.NewAccountResponse(account))
}

// GetBalance returns only the balance, read through the cache.
//
// GET /api/v1/accounts/:id/balance
func (h *AccountHandler) GetBalance(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	accountID, err := parseUUIDParam(c, "id")
	if err != nil {
		return SendError(c, errors.ValidationInvalidID, errors.WithDetails("Invalid account ID"))
	}

	balance, err := h.accountService.GetBalance(c.Request().Context(), accountID, userID)
	if err != nil {
		if stderrors.Is(err, services.ErrAccountNotFound) {
			return SendError(c, errors.AccountNotFound)
		}
		return SendSystemError(c, h.logger, err, errors.AccountBalanceFailed)
	}

	return c.JSON(http.StatusOK, dto.BalanceResponse{Balance: dto.FormatMoney(balance)})
}
