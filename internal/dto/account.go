package dto

import (
	"time"

	"finance-ledger/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account Request DTOs

// CreateAccountRequest opens an account. UserID defaults to the caller; only
// admins may open accounts for someone else.
type CreateAccountRequest struct {
	Balance *decimal.Decimal `json:"balance"`
	UserID  string           `json:"user_id" validate:"omitempty,uuid"`
}

// Account Response DTOs

// AccountResponse represents a single account in API responses
type AccountResponse struct {
	ID        uuid.UUID    `json:"id"`
	UserID    uuid.UUID    `json:"user_id"`
	Balance   string       `json:"balance"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
	User      *UserSummary `json:"user,omitempty"`
}

// AccountListResponse lists the caller's accounts
type AccountListResponse struct {
	Accounts []AccountResponse `json:"accounts"`
	Total    int               `json:"total"`
}

// BalanceResponse carries only the current balance
type BalanceResponse struct {
	Balance string `json:"balance"`
}

// AccountSummary is the account embedded in transaction responses
type AccountSummary struct {
	ID      uuid.UUID `json:"id"`
	Balance string    `json:"balance"`
}

func NewAccountResponse(account *models.Account) AccountResponse {
	return AccountResponse{
		ID:        account.ID,
		UserID:    account.UserID,
		Balance:   FormatMoney(account.Balance),
		CreatedAt: account.CreatedAt,
		UpdatedAt: account.UpdatedAt,
		User:      NewUserSummary(account.User),
	}
}

func NewAccountListResponse(accounts []models.Account) AccountListResponse {
	out := make([]AccountResponse, 0, len(accounts))
	for i := range accounts {
		out = append(out, NewAccountResponse(&accounts[i]))
	}
	return AccountListResponse{Accounts: out, Total: len(out)}
}

func NewAccountSummary(account *models.Account) *AccountSummary {
	if account == nil {
		return nil
	}
	return &AccountSummary{ID: account.ID, Balance: FormatMoney(account.Balance)}
}

// FormatMoney renders an amount with exactly two decimal places.
func FormatMoney(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}
