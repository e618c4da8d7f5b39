package handlers

import (
	stderrors "errors"
	"net/http"
	"strings"

	"finance-ledger/internal/dto"
	"finance-ledger/internal/errors"
	"finance-ledger/internal/logging"
	"finance-ledger/internal/models"
	"finance-ledger/internal/services"
	"finance-ledger/internal/validation"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// TransactionHandler handles transaction-related HTTP requests
type TransactionHandler struct {
	transactionService services.TransactionServiceInterface
	logger             *logrus.Entry
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(transactionService services.TransactionServiceInterface, logger logrus.FieldLogger) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		logger:             logging.WithComponent(logger, "transaction_handler"),
	}
}

// CreateTransaction records a deposit or a withdrawal and moves the account
// balance with it.
//
// POST /api/v1/transactions
//
//	201: dto.TransactionResponse
//	400: VALIDATION_001, TRANSACTION_002, TRANSACTION_003
//	404: ACCOUNT_001, CATEGORY_001
//	500: TRANSACTION_004
func (h *TransactionHandler) CreateTransaction(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	var req dto.CreateTransactionRequest
	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationInvalidFormat)
	}

	if err := c.Validate(req); err != nil {
		return err
	}

	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		return SendError(c, errors.ValidationInvalidID, errors.WithDetails("Invalid account ID"))
	}
	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		return SendError(c, errors.ValidationInvalidID, errors.WithDetails("Invalid category ID"))
	}

	input := models.TransactionInput{
		Description: strings.TrimSpace(req.Description),
		Amount:      req.Amount,
		Type:        strings.ToLower(strings.TrimSpace(req.Type)),
		AccountID:   accountID,
		CategoryID:  categoryID,
	}
	if req.Date != "" {
		date, _, err := validation.ParseDate(req.Date)
		if err != nil {
			return SendError(c, errors.ValidationInvalidDate)
		}
		input.Date = &date
	}

	transaction, err := h.transactionService.CreateTransaction(c.Request().Context(), userID, input)
	if err != nil {
		return h.sendLedgerError(c, err, errors.TransactionCreateFailed)
	}

	return c.JSON(http.StatusCreated, dto.NewTransactionResponse(transaction))
}

// ListTransactions returns the caller's transactions, newest first.
//
// GET /api/v1/transactions?account_id=&category_id=&type=&startDate=&endDate=&offset=&limit=
func (h *TransactionHandler) ListTransactions(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	filters := models.TransactionFilters{UserID: userID}

	if raw := c.QueryParam("account_id"); raw != "" {
		if filters.AccountID, err = uuid.Parse(raw); err != nil {
			return SendError(c, errors.ValidationInvalidID, errors.WithDetails("Invalid account ID"))
		}
	}
	if raw := c.QueryParam("category_id"); raw != "" {
		if filters.CategoryID, err = uuid.Parse(raw); err != nil {
			return SendError(c, errors.ValidationInvalidID, errors.WithDetails("Invalid category ID"))
		}
	}
	filters.Type = strings.ToLower(strings.TrimSpace(c.QueryParam("type")))

	if errCode, ok := applyPeriod(c, &filters); !ok {
		return SendError(c, errCode)
	}

	return h.list(c, filters)
}

// TransactionsByCategory
//
// GET /api/v1/transactions/by-category/:category_id
func (h *TransactionHandler) TransactionsByCategory(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	categoryID, err := parseUUIDParam(c, "category_id")
	if err != nil {
		return SendError(c, errors.ValidationInvalidID, errors.WithDetails("Invalid category ID"))
	}

	return h.list(c, models.TransactionFilters{UserID: userID, CategoryID: categoryID})
}

// TransactionsByPeriod requires at least one bound. A date-only endDate
// covers the whole day.
//
// GET /api/v1/transactions/by-period?startDate=&endDate=
func (h *TransactionHandler) TransactionsByPeriod(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	if c.QueryParam("startDate") == "" && c.QueryParam("endDate") == "" {
		return SendError(c, errors.ValidationRequiredField, errors.WithDetails("startDate or endDate is required"))
	}

	filters := models.TransactionFilters{UserID: userID}
	if errCode, ok := applyPeriod(c, &filters); !ok {
		return SendError(c, errCode)
	}

	return h.list(c, filters)
}

// TransactionsByType
//
// GET /api/v1/transactions/by-type?type=deposit|withdrawal
func (h *TransactionHandler) TransactionsByType(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	transactionType := strings.ToLower(strings.TrimSpace(c.QueryParam("type")))
	if !models.IsValidTransactionType(transactionType) {
		return SendError(c, errors.ValidationInvalidType)
	}

	return h.list(c, models.TransactionFilters{UserID: userID, Type: transactionType})
}

// GetTransaction
//
// GET /api/v1/transactions/:id
func (h *TransactionHandler) GetTransaction(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	transactionID, err := parseUUIDParam(c, "id")
	if err != nil {
		return SendError(c, errors.ValidationInvalidID, errors.WithDetails("Invalid transaction ID"))
	}

	transaction, err := h.transactionService.GetTransaction(c.Request().Context(), transactionID, userID)
	if err != nil {
		if stderrors.Is(err, services.ErrTransactionNotFound) {
			return SendError(c, errors.TransactionNotFound)
		}
		return SendSystemError(c, h.logger, err, errors.TransactionListFailed)
	}

	return c.JSON(http.StatusOK, dto.NewTransactionResponse(transaction))
}

// UpdateTransaction changes the given fields and moves the balance effect
// from the old state to the new one.
//
// PUT /api/v1/transactions/:id
//
//	200: dto.TransactionResponse
//	400: VALIDATION_001, TRANSACTION_002, TRANSACTION_003
//	404: TRANSACTION_001, ACCOUNT_001, CATEGORY_001
//	500: TRANSACTION_005
func (h *TransactionHandler) UpdateTransaction(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	transactionID, err := parseUUIDParam(c, "id")
	if err != nil {
		return SendError(c, errors.ValidationInvalidID, errors.WithDetails("Invalid transaction ID"))
	}

	var req dto.UpdateTransactionRequest
	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationInvalidFormat)
	}

	if err := c.Validate(req); err != nil {
		return err
	}

	update, errCode, ok := toTransactionUpdate(req)
	if !ok {
		return SendError(c, errCode)
	}
	if update.IsEmpty() {
		return SendError(c, errors.ValidationGeneral, errors.WithDetails("No fields to update"))
	}

	transaction, err := h.transactionService.UpdateTransaction(c.Request().Context(), transactionID, userID, update)
	if err != nil {
		return h.sendLedgerError(c, err, errors.TransactionUpdateFailed)
	}

	return c.JSON(http.StatusOK, dto.NewTransactionResponse(transaction))
}

// DeleteTransaction reverts the balance effect and removes the row.
//
// DELETE /api/v1/transactions/:id
//
//	200: {"message": "Transaction deleted successfully"}
//	404: TRANSACTION_001
//	500: TRANSACTION_006
func (h *TransactionHandler) DeleteTransaction(c echo.Context) error {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		return SendError(c, errors.AuthMissingToken)
	}

	transactionID, err := parseUUIDParam(c, "id")
	if err != nil {
		return SendError(c, errors.ValidationInvalidID, errors.WithDetails("Invalid transaction ID"))
	}

	if err := h.transactionService.DeleteTransaction(c.Request().Context(), transactionID, userID); err != nil {
		return h.sendLedgerError(c, err, errors.TransactionDeleteFailed)
	}

	return c.JSON(http.StatusOK, dto.MessageResponse{Message: "Transaction deleted successfully"})
}

func (h *TransactionHandler) list(c echo.Context, filters models.TransactionFilters) error {
	filters.Offset, filters.Limit = services.NormalizePage(
		getIntParam(c, "offset", 0),
		getIntParam(c, "limit", services.DefaultPageSize),
	)

	transactions, total, err := h.transactionService.ListTransactions(c.Request().Context(), filters)
	if err != nil {
		switch {
		case stderrors.Is(err, services.ErrInvalidTransactionType):
			return SendError(c, errors.ValidationInvalidType)
		case stderrors.Is(err, services.ErrInvalidDateRange):
			return SendError(c, errors.ValidationInvalidRange)
		}
		return SendSystemError(c, h.logger, err, errors.TransactionListFailed)
	}

	return c.JSON(http.StatusOK, dto.NewTransactionListResponse(transactions, total, filters.Offset, filters.Limit))
}

func (h *TransactionHandler) sendLedgerError(c echo.Context, err error, fallback errors.ErrorCode) error {
	switch {
	case stderrors.Is(err, services.ErrTransactionNotFound):
		return SendError(c, errors.TransactionNotFound)
	case stderrors.Is(err, services.ErrAccountNotFound):
		return SendError(c, errors.AccountNotFound)
	case stderrors.Is(err, services.ErrCategoryNotFound):
		return SendError(c, errors.CategoryNotFound)
	case stderrors.Is(err, services.ErrInvalidTransactionType):
		return SendError(c, errors.TransactionInvalidType)
	case stderrors.Is(err, services.ErrInvalidAmount):
		return SendError(c, errors.TransactionInvalidAmount, errors.WithDetails(err.Error()))
	}
	return SendSystemError(c, h.logger, err, fallback)
}

// applyPeriod reads startDate and endDate into filters.
func applyPeriod(c echo.Context, filters *models.TransactionFilters) (errors.ErrorCode, bool) {
	start, end, err := validation.ParseDateRange(c.QueryParam("startDate"), c.QueryParam("endDate"))
	if err != nil {
		if stderrors.Is(err, validation.ErrInvalidDateRange) {
			return errors.ValidationInvalidRange, false
		}
		return errors.ValidationInvalidDate, false
	}
	filters.StartDate, filters.EndDate = start, end
	return "", true
}

func toTransactionUpdate(req dto.UpdateTransactionRequest) (models.TransactionUpdate, errors.ErrorCode, bool) {
	update := models.TransactionUpdate{
		Amount: req.Amount,
	}

	if req.Description != nil {
		description := strings.TrimSpace(*req.Description)
		update.Description = &description
	}
	if req.Type != nil {
		transactionType := strings.ToLower(strings.TrimSpace(*req.Type))
		update.Type = &transactionType
	}
	if req.Date != nil {
		date, _, err := validation.ParseDate(*req.Date)
		if err != nil {
			return update, errors.ValidationInvalidDate, false
		}
		update.Date = &date
	}
	if req.AccountID != nil {
		accountID, err := uuid.Parse(*req.AccountID)
		if err != nil {
			return update, errors.ValidationInvalidID, false
		}
		update.AccountID = &accountID
	}
	if req.CategoryID != nil {
		categoryID, err := uuid.Parse(*req.CategoryID)
		if err != nil {
			return update, errors.ValidationInvalidID, false
		}
		update.CategoryID = &categoryID
	}

	return update, "", true
}
