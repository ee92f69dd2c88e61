// internal/domain/catalog/service.go
package catalog

import (
	"errors"
	"fmt"
	"math"

	"github.com/your-org/flowershop-backend/internal/domain/audit"
	"github.com/your-org/flowershop-backend/internal/pkg/apperr"
	"gorm.io/gorm"
)

// Service handles bouquet catalog operations
type Service struct {
	db       *gorm.DB
	recorder audit.Recorder
}

// NewService creates a new catalog service
func NewService(db *gorm.DB, recorder audit.Recorder) *Service {
	return &Service{
		db:       db,
		recorder: recorder,
	}
}

// BouquetListRequest represents the catalog listing query
type BouquetListRequest struct {
	Page        int    `form:"page"`
	Limit       int    `form:"limit"`
	CategoryID  *uint  `form:"category_id"`
	Search      string `form:"search"`
	MinPrice    *int64 `form:"min_price"`
	MaxPrice    *int64 `form:"max_price"`
	InStock     *bool  `form:"in_stock"`
	OnlyDeleted bool   `form:"only_deleted"`
	SortBy      string `form:"sort_by"`
	SortOrder   string `form:"sort_order"`
}

// BouquetListResponse represents a page of bouquets
type BouquetListResponse struct {
	Bouquets   []Bouquet  `json:"bouquets"`
	Pagination Pagination `json:"pagination"`
}

// Pagination represents pagination information
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// CreateBouquetRequest represents the admin create payload
type CreateBouquetRequest struct {
	Name          string `json:"name" binding:"required,max=200"`
	Description   string `json:"description" binding:"max=1000"`
	Price         int64  `json:"price" binding:"required,gt=0"`
	ImageURL      string `json:"image_url"`
	CategoryID    uint   `json:"category_id" binding:"required"`
	StockQuantity int    `json:"stock_quantity" binding:"gte=0"`
}

// UpdateBouquetRequest represents the admin update payload
type UpdateBouquetRequest struct {
	Name          *string `json:"name"`
	Description   *string `json:"description"`
	Price         *int64  `json:"price"`
	ImageURL      *string `json:"image_url"`
	CategoryID    *uint   `json:"category_id"`
	StockQuantity *int    `json:"stock_quantity"`
	InStock       *bool   `json:"in_stock"`
}

type bouquetSnapshot struct {
	Name          string `json:"name"`
	Price         int64  `json:"price"`
	CategoryID    uint   `json:"category_id"`
	InStock       bool   `json:"in_stock"`
	StockQuantity int    `json:"stock_quantity"`
}

func snapshotOf(b *Bouquet) bouquetSnapshot {
	return bouquetSnapshot{
		Name:          b.Name,
		Price:         b.Price,
		CategoryID:    b.CategoryID,
		InStock:       b.InStock,
		StockQuantity: b.StockQuantity,
	}
}

// GetBouquets returns bouquets filtered by category, search text, price
// range and stock status. Soft-deleted rows are excluded unless the caller
// asks for the deleted view (admin manage screens).
func (s *Service) GetBouquets(req *BouquetListRequest, includeDeleted bool) (*BouquetListResponse, error) {
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 20
	}

	query := s.db.Model(&Bouquet{}).Preload("Category")

	switch {
	case includeDeleted && req.OnlyDeleted:
		query = query.Unscoped().Where("bouquets.deleted_at IS NOT NULL")
	case includeDeleted:
		query = query.Unscoped()
	}

	if req.CategoryID != nil {
		query = query.Where("category_id = ?", *req.CategoryID)
	}
	if req.Search != "" {
		searchTerm := "%" + req.Search + "%"
		query = query.Where("LOWER(name) LIKE LOWER(?) OR LOWER(description) LIKE LOWER(?)", searchTerm, searchTerm)
	}
	if req.MinPrice != nil {
		query = query.Where("price >= ?", *req.MinPrice)
	}
	if req.MaxPrice != nil {
		query = query.Where("price <= ?", *req.MaxPrice)
	}
	if req.InStock != nil {
		query = query.Where("in_stock = ?", *req.InStock)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count bouquets: %w", err)
	}

	var bouquets []Bouquet
	offset := (req.Page - 1) * req.Limit
	if err := query.Order(buildOrderClause(req.SortBy, req.SortOrder)).
		Offset(offset).Limit(req.Limit).Find(&bouquets).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch bouquets: %w", err)
	}

	totalPages := int((total + int64(req.Limit) - 1) / int64(req.Limit))

	return &BouquetListResponse{
		Bouquets: bouquets,
		Pagination: Pagination{
			Page:       req.Page,
			Limit:      req.Limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    req.Page < totalPages,
			HasPrev:    req.Page > 1,
		},
	}, nil
}

// GetBouquet returns a single bouquet by ID
func (s *Service) GetBouquet(id uint) (*Bouquet, error) {
	var bouquet Bouquet
	if err := s.db.Preload("Category").First(&bouquet, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("bouquet")
		}
		return nil, fmt.Errorf("failed to fetch bouquet: %w", err)
	}
	return &bouquet, nil
}

// CreateBouquet creates a new bouquet in an existing category
func (s *Service) CreateBouquet(req *CreateBouquetRequest, changedBy string) (*Bouquet, error) {
	if req.Price <= 0 {
		return nil, apperr.Validationf("price must be greater than zero")
	}

	var category Category
	if err := s.db.First(&category, req.CategoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("category")
		}
		return nil, fmt.Errorf("failed to fetch category: %w", err)
	}

	bouquet := &Bouquet{
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		ImageURL:      req.ImageURL,
		CategoryID:    req.CategoryID,
		StockQuantity: req.StockQuantity,
		InStock:       req.StockQuantity > 0,
	}

	if err := s.db.Create(bouquet).Error; err != nil {
		return nil, fmt.Errorf("failed to create bouquet: %w", err)
	}

	s.recorder.Record(bouquet.TableName(), bouquet.ID, audit.ActionCreate, nil, snapshotOf(bouquet), changedBy)

	bouquet.Category = &category
	return bouquet, nil
}

// UpdateBouquet updates an existing bouquet; only provided fields change
func (s *Service) UpdateBouquet(id uint, req *UpdateBouquetRequest, changedBy string) (*Bouquet, error) {
	var bouquet Bouquet
	if err := s.db.First(&bouquet, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("bouquet")
		}
		return nil, fmt.Errorf("failed to fetch bouquet: %w", err)
	}

	oldData := snapshotOf(&bouquet)

	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Price != nil {
		if *req.Price <= 0 {
			return nil, apperr.Validationf("price must be greater than zero")
		}
		updates["price"] = *req.Price
	}
	if req.ImageURL != nil {
		updates["image_url"] = *req.ImageURL
	}
	if req.CategoryID != nil {
		var category Category
		if err := s.db.First(&category, *req.CategoryID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.NotFound("category")
			}
			return nil, fmt.Errorf("failed to fetch category: %w", err)
		}
		updates["category_id"] = *req.CategoryID
	}
	if req.StockQuantity != nil {
		if *req.StockQuantity < 0 {
			return nil, apperr.Validationf("stock quantity cannot be negative")
		}
		updates["stock_quantity"] = *req.StockQuantity
		updates["in_stock"] = *req.StockQuantity > 0
	}
	if req.InStock != nil {
		updates["in_stock"] = *req.InStock
	}

	if len(updates) > 0 {
		if err := s.db.Model(&bouquet).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update bouquet: %w", err)
		}
	}

	if err := s.db.Preload("Category").First(&bouquet, id).Error; err != nil {
		return nil, fmt.Errorf("failed to reload bouquet: %w", err)
	}

	s.recorder.Record(bouquet.TableName(), bouquet.ID, audit.ActionUpdate, oldData, snapshotOf(&bouquet), changedBy)

	return &bouquet, nil
}

// DeleteBouquet soft deletes a bouquet
func (s *Service) DeleteBouquet(id uint, changedBy string) error {
	var bouquet Bouquet
	if err := s.db.First(&bouquet, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("bouquet")
		}
		return fmt.Errorf("failed to fetch bouquet: %w", err)
	}

	if err := s.db.Delete(&bouquet).Error; err != nil {
		return fmt.Errorf("failed to delete bouquet: %w", err)
	}

	s.recorder.Record(bouquet.TableName(), bouquet.ID, audit.ActionDelete, snapshotOf(&bouquet), nil, changedBy)

	return nil
}

// RestoreBouquet clears the soft-delete flag
func (s *Service) RestoreBouquet(id uint, changedBy string) error {
	var bouquet Bouquet
	if err := s.db.Unscoped().First(&bouquet, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("bouquet")
		}
		return fmt.Errorf("failed to fetch bouquet: %w", err)
	}

	if err := s.db.Unscoped().Model(&bouquet).Update("deleted_at", nil).Error; err != nil {
		return fmt.Errorf("failed to restore bouquet: %w", err)
	}

	s.recorder.Record(bouquet.TableName(), bouquet.ID, audit.ActionUpdate,
		map[string]string{"status": "deleted"}, map[string]string{"status": "active"}, changedBy)

	return nil
}

// UpdateStock replaces the stock counter. The in-stock flag follows the
// quantity: zero stock marks the bouquet unavailable.
func (s *Service) UpdateStock(id uint, quantity int, changedBy string) (*Bouquet, error) {
	if quantity < 0 {
		return nil, apperr.Validationf("stock quantity cannot be negative")
	}

	var bouquet Bouquet
	if err := s.db.First(&bouquet, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("bouquet")
		}
		return nil, fmt.Errorf("failed to fetch bouquet: %w", err)
	}

	oldData := snapshotOf(&bouquet)

	updates := map[string]interface{}{
		"stock_quantity": quantity,
		"in_stock":       quantity > 0,
	}
	if err := s.db.Model(&bouquet).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update stock: %w", err)
	}

	bouquet.StockQuantity = quantity
	bouquet.InStock = quantity > 0

	s.recorder.Record(bouquet.TableName(), bouquet.ID, audit.ActionUpdate, oldData, snapshotOf(&bouquet), changedBy)

	return &bouquet, nil
}

// UpdatePricesByCategory applies a percentage adjustment to every active
// bouquet in a category and returns the number of bouquets changed.
func (s *Service) UpdatePricesByCategory(categoryID uint, percentChange float64, changedBy string) (int, error) {
	if percentChange <= -100 {
		return 0, apperr.Validationf("price change cannot be -100%% or lower")
	}

	var category Category
	if err := s.db.First(&category, categoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, apperr.NotFound("category")
		}
		return 0, fmt.Errorf("failed to fetch category: %w", err)
	}

	var bouquets []Bouquet
	if err := s.db.Where("category_id = ?", categoryID).Find(&bouquets).Error; err != nil {
		return 0, fmt.Errorf("failed to fetch bouquets: %w", err)
	}

	factor := 1 + percentChange/100

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	for i := range bouquets {
		newPrice := int64(math.Round(float64(bouquets[i].Price) * factor))
		if newPrice < 1 {
			newPrice = 1
		}
		if err := tx.Model(&bouquets[i]).Update("price", newPrice).Error; err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("failed to update price for bouquet %d: %w", bouquets[i].ID, err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return 0, fmt.Errorf("failed to commit price update: %w", err)
	}

	s.recorder.Record(category.TableName(), category.ID, audit.ActionUpdate,
		map[string]interface{}{"percent_change": percentChange},
		map[string]interface{}{"bouquets_updated": len(bouquets)}, changedBy)

	return len(bouquets), nil
}

// buildOrderClause builds the ORDER BY clause from a whitelist of sortable
// fields; unknown input falls back to newest-first.
func buildOrderClause(sortBy, sortOrder string) string {
	allowedFields := map[string]bool{
		"name":           true,
		"price":          true,
		"created_at":     true,
		"stock_quantity": true,
	}

	if !allowedFields[sortBy] {
		sortBy = "created_at"
	}
	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = "desc"
	}

	return fmt.Sprintf("%s %s", sortBy, sortOrder)
}
