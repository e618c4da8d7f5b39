package dto

import (
	"time"

	"finance-ledger/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction Request DTOs

// CreateTransactionRequest records a deposit or withdrawal. Date defaults to
// now and accepts YYYY-MM-DD or RFC3339.
type CreateTransactionRequest struct {
	Description string          `json:"description" validate:"max=255"`
	Amount      decimal.Decimal `json:"amount" validate:"positive_amount"`
	Date        string          `json:"date" validate:"omitempty,ledger_date"`
	Type        string          `json:"type" validate:"required,transaction_type"`
	AccountID   string          `json:"account_id" validate:"required,uuid"`
	CategoryID  string          `json:"category_id" validate:"required,uuid"`
}

// UpdateTransactionRequest changes only the fields that are present
type UpdateTransactionRequest struct {
	Description *string          `json:"description" validate:"omitempty,max=255"`
	Amount      *decimal.Decimal `json:"amount" validate:"omitempty,positive_amount"`
	Date        *string          `json:"date" validate:"omitempty,ledger_date"`
	Type        *string          `json:"type" validate:"omitempty,transaction_type"`
	AccountID   *string          `json:"account_id" validate:"omitempty,uuid"`
	CategoryID  *string          `json:"category_id" validate:"omitempty,uuid"`
}

// Transaction Response DTOs

// TransactionResponse includes the owner, account and category
type TransactionResponse struct {
	ID          uuid.UUID        `json:"id"`
	Description string           `json:"description"`
	Amount      string           `json:"amount"`
	Date        time.Time        `json:"date"`
	Type        string           `json:"type"`
	UserID      uuid.UUID        `json:"user_id"`
	AccountID   uuid.UUID        `json:"account_id"`
	CategoryID  uuid.UUID        `json:"category_id"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	User        *UserSummary     `json:"user,omitempty"`
	Account     *AccountSummary  `json:"account,omitempty"`
	Category    *CategorySummary `json:"category,omitempty"`
}

// TransactionListResponse represents a paginated list of transactions
type TransactionListResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	Total        int64                 `json:"total"`
	Offset       int                   `json:"offset"`
	Limit        int                   `json:"limit"`
}

// MessageResponse carries a confirmation message
type MessageResponse struct {
	Message string `json:"message"`
}

func NewTransactionResponse(t *models.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:          t.ID,
		Description: t.Description,
		Amount:      FormatMoney(t.Amount),
		Date:        t.Date,
		Type:        t.Type,
		UserID:      t.UserID,
		AccountID:   t.AccountID,
		CategoryID:  t.CategoryID,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		User:        NewUserSummary(t.User),
		Account:     NewAccountSummary(t.Account),
		Category:    NewCategorySummary(t.Category),
	}
}

func NewTransactionListResponse(transactions []models.Transaction, total int64, offset, limit int) TransactionListResponse {
	out := make([]TransactionResponse, 0, len(transactions))
	for i := range transactions {
		out = append(out, NewTransactionResponse(&transactions[i]))
	}
	return TransactionListResponse{Transactions: out, Total: total, Offset: offset, Limit: limit}
}
