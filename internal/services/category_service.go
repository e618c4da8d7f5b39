package services

import (
	"errors"
	"fmt"
	"strings"

	"finance-ledger/internal/models"
	"finance-ledger/internal/repositories"

	"github.com/sirupsen/logrus"
)

var (
	ErrCategoryNotFound      = errors.New("category not found")
	ErrCategoryAlreadyExists = errors.New("category already exists")
	ErrInvalidCategoryName   = errors.New("invalid category name")
)

type categoryService struct {
	categoryRepo repositories.CategoryRepositoryInterface
	auditRepo    repositories.AuditLogRepositoryInterface
	logger       logrus.FieldLogger
}

// NewCategoryService creates a new CategoryServiceInterface instance
func NewCategoryService(
	categoryRepo repositories.CategoryRepositoryInterface,
	auditRepo repositories.AuditLogRepositoryInterface,
	logger logrus.FieldLogger,
) CategoryServiceInterface {
	return &categoryService{
		categoryRepo: categoryRepo,
		auditRepo:    auditRepo,
		logger:       logger.WithField("component", "categories"),
	}
}

func (s *categoryService) CreateCategory(name string) (*models.Category, error) {
	category := &models.Category{Name: strings.TrimSpace(name)}
	if err := category.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCategoryName, err)
	}

	if err := s.categoryRepo.Create(category); err != nil {
		if errors.Is(err, repositories.ErrCategoryAlreadyExists) {
			return nil, ErrCategoryAlreadyExists
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	if err := s.auditRepo.Create(&models.AuditLog{
		Action:     models.AuditActionCategoryAdded,
		Resource:   models.AuditResourceCategory,
		ResourceID: category.ID.String(),
		Metadata:   models.JSONMap{"name": category.Name},
	}); err != nil {
		s.logger.WithError(err).WithField("action", models.AuditActionCategoryAdded).Error("failed to create audit log")
	}

	return category, nil
}

func (s *categoryService) ListCategories() ([]models.Category, error) {
	categories, err := s.categoryRepo.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (s *categoryService) GetCategoryByName(name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrCategoryNotFound
	}

	category, err := s.categoryRepo.GetByName(name)
	if err != nil {
		if errors.Is(err, repositories.ErrCategoryNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return category, nil
}
