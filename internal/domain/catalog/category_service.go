// internal/domain/catalog/category_service.go
package catalog

import (
	"errors"
	"fmt"

	"github.com/your-org/flowershop-backend/internal/domain/audit"
	"github.com/your-org/flowershop-backend/internal/pkg/apperr"
	"gorm.io/gorm"
)

// CategoryService handles category business logic
type CategoryService struct {
	db       *gorm.DB
	recorder audit.Recorder
}

// NewCategoryService creates a new category service
func NewCategoryService(db *gorm.DB, recorder audit.Recorder) *CategoryService {
	return &CategoryService{
		db:       db,
		recorder: recorder,
	}
}

// CategoryCreateRequest represents category creation data
type CategoryCreateRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description" binding:"max=500"`
	IsActive    *bool  `json:"is_active"`
}

// CategoryUpdateRequest represents category update data
type CategoryUpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

// CategoryWithBouquetCount represents a category with its bouquet count
type CategoryWithBouquetCount struct {
	Category
	BouquetCount int64 `json:"bouquet_count"`
}

// GetCategories retrieves all categories, inactive ones only when asked
func (s *CategoryService) GetCategories(includeInactive bool) ([]Category, error) {
	var categories []Category

	query := s.db.Model(&Category{}).Order("name ASC")
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}

	if err := query.Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve categories: %w", err)
	}

	return categories, nil
}

// GetCategoriesWithBouquetCount retrieves categories with bouquet counts
func (s *CategoryService) GetCategoriesWithBouquetCount(includeInactive bool) ([]CategoryWithBouquetCount, error) {
	categories, err := s.GetCategories(includeInactive)
	if err != nil {
		return nil, err
	}

	result := make([]CategoryWithBouquetCount, 0, len(categories))
	for _, cat := range categories {
		var count int64
		s.db.Model(&Bouquet{}).Where("category_id = ?", cat.ID).Count(&count)
		result = append(result, CategoryWithBouquetCount{
			Category:     cat,
			BouquetCount: count,
		})
	}

	return result, nil
}

// GetCategory retrieves a single category by ID
func (s *CategoryService) GetCategory(id uint) (*Category, error) {
	var category Category
	if err := s.db.First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("category")
		}
		return nil, fmt.Errorf("failed to retrieve category: %w", err)
	}
	return &category, nil
}

// CreateCategory creates a new category with a unique name
func (s *CategoryService) CreateCategory(req *CategoryCreateRequest, changedBy string) (*Category, error) {
	var existing Category
	if err := s.db.Where("name = ?", req.Name).First(&existing).Error; err == nil {
		return nil, apperr.Validationf("category %q already exists", req.Name)
	}

	category := &Category{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    true,
	}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}

	if err := s.db.Create(category).Error; err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	s.recorder.Record(category.TableName(), category.ID, audit.ActionCreate, nil,
		map[string]interface{}{"name": category.Name, "is_active": category.IsActive}, changedBy)

	return category, nil
}

// UpdateCategory updates an existing category; only provided fields change
func (s *CategoryService) UpdateCategory(id uint, req *CategoryUpdateRequest, changedBy string) (*Category, error) {
	var category Category
	if err := s.db.First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("category")
		}
		return nil, fmt.Errorf("failed to find category: %w", err)
	}

	oldData := map[string]interface{}{"name": category.Name, "is_active": category.IsActive}

	updates := make(map[string]interface{})
	if req.Name != nil {
		var existing Category
		if err := s.db.Where("name = ? AND id <> ?", *req.Name, id).First(&existing).Error; err == nil {
			return nil, apperr.Validationf("category %q already exists", *req.Name)
		}
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) > 0 {
		if err := s.db.Model(&category).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update category: %w", err)
		}
	}

	if err := s.db.First(&category, id).Error; err != nil {
		return nil, fmt.Errorf("failed to reload category: %w", err)
	}

	s.recorder.Record(category.TableName(), category.ID, audit.ActionUpdate, oldData,
		map[string]interface{}{"name": category.Name, "is_active": category.IsActive}, changedBy)

	return &category, nil
}

// DeleteCategory soft deletes a category without bouquets
func (s *CategoryService) DeleteCategory(id uint, changedBy string) error {
	var category Category
	if err := s.db.First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("category")
		}
		return fmt.Errorf("failed to find category: %w", err)
	}

	var bouquetCount int64
	s.db.Model(&Bouquet{}).Where("category_id = ?", id).Count(&bouquetCount)
	if bouquetCount > 0 {
		return apperr.Validationf("cannot delete category with existing bouquets")
	}

	if err := s.db.Delete(&category).Error; err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}

	s.recorder.Record(category.TableName(), category.ID, audit.ActionDelete,
		map[string]interface{}{"name": category.Name}, nil, changedBy)

	return nil
}
