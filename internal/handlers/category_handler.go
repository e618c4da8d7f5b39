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

// CategoryHandler handles the shared category catalogue
type CategoryHandler struct {
	categoryService services.CategoryServiceInterface
	logger          *logrus.Entry
}

func NewCategoryHandler(categoryService services.CategoryServiceInterface, logger logrus.FieldLogger) *CategoryHandler {
	return &CategoryHandler{
		categoryService: categoryService,
		logger:          logging.WithComponent(logger, "category_handler"),
	}
}

// CreateCategory
//
// POST /api/v1/categories
//
//	201: dto.CategoryResponse
//	400: VALIDATION_010, CATEGORY_002 (duplicate name)
//	500: CATEGORY_003
func (h *CategoryHandler) CreateCategory(c echo.Context) error {
	var req dto.CreateCategoryRequest

	if err := c.Bind(&req); err != nil {
		return SendError(c, errors.ValidationInvalidFormat)
	}

	if err := c.Validate(req); err != nil {
		return err
	}

	category, err := h.categoryService.CreateCategory(req.Name)
	if err != nil {
		switch {
		case stderrors.Is(err, services.ErrCategoryAlreadyExists):
			return SendError(c, errors.CategoryAlreadyExists)
		case stderrors.Is(err, services.ErrInvalidCategoryName):
			return SendError(c, errors.ValidationInvalidCategory)
		}
		return SendSystemError(c, h.logger, err, errors.CategoryCreateFailed)
	}

	return c.JSON(http.StatusCreated, dto.NewCategoryResponse(category))
}

// ListCategories
//
// GET /api/v1/categories
func (h *CategoryHandler) ListCategories(c echo.Context) error {
	categories, err := h.categoryService.ListCategories()
	if err != nil {
		return SendSystemError(c, h.logger, err, errors.CategoryListFailed)
	}

	return c.JSON(http.StatusOK, dto.NewCategoryListResponse(categories))
}

// GetCategoryByName matches the name exactly after trimming.
//
// GET /api/v1/categories/by-name?name=
func (h *CategoryHandler) GetCategoryByName(c echo.Context) error {
	category, err := h.categoryService.GetCategoryByName(c.QueryParam("name"))
	if err != nil {
		if stderrors.Is(err, services.ErrCategoryNotFound) {
			return SendError(c, errors.CategoryNotFound)
		}
		return SendSystemError(c, h.logger, err, errors.CategoryGetFailed)
	}

	return c.JSON(http.StatusOK, dto.NewCategoryResponse(category))
}
