package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CategorySpending is one row of the per-category spending ranking.
type CategorySpending struct {
	CategoryID       uuid.UUID       `json:"category_id"`
	CategoryName     string          `json:"category_name"`
	TotalSpent       decimal.Decimal `json:"totalSpent"`
	TransactionCount int64           `json:"transactionCount"`
}

// SpendingFilters scopes a spending ranking to one user, an optional date
// window and one transaction type.
type SpendingFilters struct {
	UserID    uuid.UUID
	StartDate *time.Time
	EndDate   *time.Time
	Type      string
}
