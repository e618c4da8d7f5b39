package dto

import (
	"time"

	"finance-ledger/internal/models"

	"github.com/google/uuid"
)

type CreateCategoryRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type CategoryResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type CategoryListResponse struct {
	Categories []CategoryResponse `json:"categories"`
	Total      int                `json:"total"`
}

// CategorySummary is the category embedded in transaction responses
type CategorySummary struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

func NewCategoryResponse(category *models.Category) CategoryResponse {
	return CategoryResponse{ID: category.ID, Name: category.Name, CreatedAt: category.CreatedAt}
}

func NewCategoryListResponse(categories []models.Category) CategoryListResponse {
	out := make([]CategoryResponse, 0, len(categories))
	for i := range categories {
		out = append(out, NewCategoryResponse(&categories[i]))
	}
	return CategoryListResponse{Categories: out, Total: len(out)}
}

func NewCategorySummary(category *models.Category) *CategorySummary {
	if category == nil {
		return nil
	}
	return &CategorySummary{ID: category.ID, Name: category.Name}
}
