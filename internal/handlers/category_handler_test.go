package handlers

import (
	"errors"
	"net/http"
	"testing"

	"finance-ledger/internal/dto"
	"finance-ledger/internal/logging"
	"finance-ledger/internal/models"
	"finance-ledger/internal/services"
	"finance-ledger/internal/services/service_mocks"

	"github.com/go-playground/validator/v10"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/suite"
)

type CategoryHandlerSuite struct {
	suite.Suite
	ctrl            *gomock.Controller
	categoryService *service_mocks.MockCategoryServiceInterface
	handler         *CategoryHandler
	echo            *echo.Echo
}

func TestCategoryHandlerSuite(t *testing.T) {
	suite.Run(t, new(CategoryHandlerSuite))
}

func (s *CategoryHandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.categoryService = service_mocks.NewMockCategoryServiceInterface(s.ctrl)
	s.handler = NewCategoryHandler(s.categoryService, logging.Discard())
	s.echo = newTestEcho()
}

func (s *CategoryHandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *CategoryHandlerSuite) TestCreateCategory_Success() {
	category := &models.Category{ID: uuid.New(), Name: "Groceries"}
	s.categoryService.EXPECT().CreateCategory("Groceries").Return(category, nil)

	c, rec := newRequest(s.echo, http.MethodPost, "/api/v1/categories", dto.CreateCategoryRequest{Name: "Groceries"})
	s.Require().NoError(s.handler.CreateCategory(c))

	s.Equal(http.StatusCreated, rec.Code)
	var body dto.CategoryResponse
	s.Require().NoError(decodeJSON(rec, &body))
	s.Equal(category.ID, body.ID)
	s.Equal("Groceries", body.Name)
}

func (s *CategoryHandlerSuite) TestCreateCategory_MissingName() {
	c, _ := newRequest(s.echo, http.MethodPost, "/api/v1/categories", dto.CreateCategoryRequest{})
	err := s.handler.CreateCategory(c)

	var validationErrors validator.ValidationErrors
	s.Require().True(errors.As(err, &validationErrors))
	s.Equal("name", validationErrors[0].Field())
}

func (s *CategoryHandlerSuite) TestCreateCategory_ServiceErrors() {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"duplicate", services.ErrCategoryAlreadyExists, http.StatusBadRequest, "CATEGORY_002"},
		{"blank after trim", services.ErrInvalidCategoryName, http.StatusBadRequest, "VALIDATION_010"},
		{"unexpected", errors.New("db down"), http.StatusInternalServerError, "CATEGORY_003"},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.categoryService.EXPECT().CreateCategory(gomock.Any()).Return(nil, tc.err)

			c, rec := newRequest(s.echo, http.MethodPost, "/api/v1/categories", dto.CreateCategoryRequest{Name: "Rent"})
			s.Require().NoError(s.handler.CreateCategory(c))

			s.Equal(tc.status, rec.Code)
			s.Equal(tc.code, decodeError(rec).Code)
		})
	}
}

func (s *CategoryHandlerSuite) TestListCategories() {
	s.categoryService.EXPECT().ListCategories().Return([]models.Category{
		{ID: uuid.New(), Name: "Groceries"},
		{ID: uuid.New(), Name: "Rent"},
	}, nil)

	c, rec := newRequest(s.echo, http.MethodGet, "/api/v1/categories", nil)
	s.Require().NoError(s.handler.ListCategories(c))

	s.Equal(http.StatusOK, rec.Code)
	var body dto.CategoryListResponse
	s.Require().NoError(decodeJSON(rec, &body))
	s.Equal(2, body.Total)
	s.Equal("Groceries", body.Categories[0].Name)
}

func (s *CategoryHandlerSuite) TestListCategories_Failure() {
	s.categoryService.EXPECT().ListCategories().Return(nil, errors.New("db down"))

	c, rec := newRequest(s.echo, http.MethodGet, "/api/v1/categories", nil)
	s.Require().NoError(s.handler.ListCategories(c))

	s.Equal(http.StatusInternalServerError, rec.Code)
	s.Equal("CATEGORY_004", decodeError(rec).Code)
}

func (s *CategoryHandlerSuite) TestGetCategoryByName() {
	s.Run("found", func() {
		s.categoryService.EXPECT().GetCategoryByName("Rent").
			Return(&models.Category{ID: uuid.New(), Name: "Rent"}, nil)

		c, rec := newRequest(s.echo, http.MethodGet, "/api/v1/categories/by-name?name=Rent", nil)
		s.Require().NoError(s.handler.GetCategoryByName(c))

		s.Equal(http.StatusOK, rec.Code)
		s.Contains(rec.Body.String(), `"name":"Rent"`)
	})

	s.Run("missing", func() {
		s.categoryService.EXPECT().GetCategoryByName("Travel").Return(nil, services.ErrCategoryNotFound)

		c, rec := newRequest(s.echo, http.MethodGet, "/api/v1/categories/by-name?name=Travel", nil)
		s.Require().NoError(s.handler.GetCategoryByName(c))

		s.Equal(http.StatusNotFound, rec.Code)
		s.Equal("CATEGORY_001", decodeError(rec).Code)
	})
}
