package dto

import (
	"finance-ledger/internal/models"

	"github.com/google/uuid"
)

// SpendingRankingItem is one category's total for the requested window
type SpendingRankingItem struct {
	CategoryID       uuid.UUID `json:"category_id"`
	CategoryName     string    `json:"category_name"`
	TotalSpent       string    `json:"totalSpent"`
	TransactionCount int64     `json:"transactionCount"`
}

// RankingPeriod echoes the requested bounds; absent bounds are null
type RankingPeriod struct {
	StartDate *string `json:"startDate"`
	EndDate   *string `json:"endDate"`
}

type RankingFilters struct {
	Period RankingPeriod `json:"period"`
	Type   string        `json:"type"`
}

// SpendingRankingResponse lists categories by total, largest first
type SpendingRankingResponse struct {
	Ranking         []SpendingRankingItem `json:"ranking"`
	TotalCategories int                   `json:"totalCategories"`
	Filters         RankingFilters        `json:"filters"`
}

func NewSpendingRankingResponse(rows []models.CategorySpending, filters RankingFilters) *SpendingRankingResponse {
	ranking := make([]SpendingRankingItem, 0, len(rows))
	for _, row := range rows {
		ranking = append(ranking, SpendingRankingItem{
			CategoryID:       row.CategoryID,
			CategoryName:     row.CategoryName,
			TotalSpent:       FormatMoney(row.TotalSpent),
			TransactionCount: row.TransactionCount,
		})
	}

	return &SpendingRankingResponse{
		Ranking:         ranking,
		TotalCategories: len(ranking),
		Filters:         filters,
	}
}
