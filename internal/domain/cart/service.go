// internal/domain/cart/service.go
package cart

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/your-org/flowershop-backend/internal/domain/catalog"
	"github.com/your-org/flowershop-backend/internal/pkg/apperr"
	"gorm.io/gorm"
)

const countCacheTTL = 5 * time.Minute

// Service handles shopping cart business logic. The Redis client is
// optional; when nil, item counts are always read from the database.
type Service struct {
	db    *gorm.DB
	redis *redis.Client
}

// NewService creates a new cart service
func NewService(db *gorm.DB, redisClient *redis.Client) *Service {
	return &Service{
		db:    db,
		redis: redisClient,
	}
}

// AddToCartRequest represents add to cart data
type AddToCartRequest struct {
	BouquetID uint `json:"bouquet_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required"`
}

// UpdateCartItemRequest represents cart item update data. A quantity of
// zero or less removes the line.
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// GetCart returns the user's cart, creating it lazily on first access.
func (s *Service) GetCart(userID uint) (*Cart, error) {
	cart, err := s.getOrCreateCart(s.db, userID)
	if err != nil {
		return nil, err
	}

	if err := s.db.Preload("Items.Bouquet").First(cart, cart.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	return cart, nil
}

// AddToCart adds a bouquet to the user's cart. Adding a bouquet that is
// already in the cart increments the existing line instead of duplicating
// it; new lines snapshot the current catalog price.
func (s *Service) AddToCart(userID uint, req *AddToCartRequest) (*Cart, error) {
	if req.Quantity < 1 {
		return nil, apperr.Validationf("quantity must be at least 1")
	}

	var bouquet catalog.Bouquet
	if err := s.db.First(&bouquet, req.BouquetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("bouquet")
		}
		return nil, fmt.Errorf("failed to fetch bouquet: %w", err)
	}
	if !bouquet.InStock {
		return nil, apperr.Validationf("bouquet %q is out of stock", bouquet.Name)
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	cart, err := s.getOrCreateCart(tx, userID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	var item CartItem
	err = tx.Where("cart_id = ? AND bouquet_id = ?", cart.ID, req.BouquetID).First(&item).Error
	switch {
	case err == nil:
		item.Quantity += req.Quantity
		item.Subtotal = item.UnitPrice * int64(item.Quantity)
		if err := tx.Save(&item).Error; err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to update cart item: %w", err)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		item = CartItem{
			CartID:    cart.ID,
			BouquetID: req.BouquetID,
			Quantity:  req.Quantity,
			UnitPrice: bouquet.Price,
			Subtotal:  bouquet.Price * int64(req.Quantity),
		}
		if err := tx.Create(&item).Error; err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to create cart item: %w", err)
		}
	default:
		tx.Rollback()
		return nil, fmt.Errorf("failed to fetch cart item: %w", err)
	}

	if err := s.recalculateTotals(tx, cart.ID); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit cart update: %w", err)
	}

	s.InvalidateCountCache(userID)

	return s.GetCart(userID)
}

// UpdateCartItem replaces a line's quantity. A quantity of zero or less is
// equivalent to removing the line.
func (s *Service) UpdateCartItem(userID, bouquetID uint, quantity int) (*Cart, error) {
	if quantity <= 0 {
		if err := s.RemoveFromCart(userID, bouquetID); err != nil {
			return nil, err
		}
		return s.GetCart(userID)
	}

	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var cart Cart
	if err := tx.Where("user_id = ?", userID).First(&cart).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("cart item")
		}
		return nil, fmt.Errorf("failed to fetch cart: %w", err)
	}

	var item CartItem
	if err := tx.Where("cart_id = ? AND bouquet_id = ?", cart.ID, bouquetID).First(&item).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("cart item")
		}
		return nil, fmt.Errorf("failed to fetch cart item: %w", err)
	}

	item.Quantity = quantity
	item.Subtotal = item.UnitPrice * int64(quantity)
	if err := tx.Save(&item).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to update cart item: %w", err)
	}

	if err := s.recalculateTotals(tx, cart.ID); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit cart update: %w", err)
	}

	s.InvalidateCountCache(userID)

	return s.GetCart(userID)
}

// RemoveFromCart deletes a line if present; removing an absent line is a
// no-op.
func (s *Service) RemoveFromCart(userID, bouquetID uint) error {
	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var cart Cart
	if err := tx.Where("user_id = ?", userID).First(&cart).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("failed to fetch cart: %w", err)
	}

	if err := tx.Where("cart_id = ? AND bouquet_id = ?", cart.ID, bouquetID).Delete(&CartItem{}).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to remove cart item: %w", err)
	}

	if err := s.recalculateTotals(tx, cart.ID); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit cart update: %w", err)
	}

	s.InvalidateCountCache(userID)

	return nil
}

// ClearCart removes every line and zeroes the totals. The cart row itself
// is kept.
func (s *Service) ClearCart(userID uint) error {
	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var cart Cart
	if err := tx.Where("user_id = ?", userID).First(&cart).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("failed to fetch cart: %w", err)
	}

	if err := tx.Where("cart_id = ?", cart.ID).Delete(&CartItem{}).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	if err := tx.Model(&Cart{}).Where("id = ?", cart.ID).
		Updates(map[string]interface{}{"total_amount": 0, "total_items": 0}).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to reset cart totals: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit cart clear: %w", err)
	}

	s.InvalidateCountCache(userID)

	return nil
}

// GetCartItemCount returns the total quantity across all lines. Missing
// carts and lookup failures count as zero so the badge never errors.
func (s *Service) GetCartItemCount(userID uint) int {
	ctx := context.Background()

	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, countCacheKey(userID)).Result(); err == nil {
			if count, err := strconv.Atoi(cached); err == nil {
				return count
			}
		}
	}

	var cart Cart
	if err := s.db.Where("user_id = ?", userID).First(&cart).Error; err != nil {
		return 0
	}

	if s.redis != nil {
		s.redis.Set(ctx, countCacheKey(userID), cart.TotalItems, countCacheTTL)
	}

	return cart.TotalItems
}

// getOrCreateCart loads the user's cart, creating it on first access.
func (s *Service) getOrCreateCart(db *gorm.DB, userID uint) (*Cart, error) {
	var cart Cart
	err := db.Where("user_id = ?", userID).First(&cart).Error
	if err == nil {
		return &cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to fetch cart: %w", err)
	}

	cart = Cart{UserID: userID}
	if err := db.Create(&cart).Error; err != nil {
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}
	return &cart, nil
}

// recalculateTotals rewrites the cart's stored aggregates from its lines.
func (s *Service) recalculateTotals(tx *gorm.DB, cartID uint) error {
	var totals struct {
		Amount int64
		Items  int
	}
	if err := tx.Model(&CartItem{}).
		Select("COALESCE(SUM(subtotal), 0) AS amount, COALESCE(SUM(quantity), 0) AS items").
		Where("cart_id = ?", cartID).
		Scan(&totals).Error; err != nil {
		return fmt.Errorf("failed to sum cart lines: %w", err)
	}

	if err := tx.Model(&Cart{}).Where("id = ?", cartID).
		Updates(map[string]interface{}{
			"total_amount": totals.Amount,
			"total_items":  totals.Items,
		}).Error; err != nil {
		return fmt.Errorf("failed to update cart totals: %w", err)
	}

	return nil
}

// InvalidateCountCache drops the cached item count for a user. Order
// placement clears the cart rows itself, so the handler calls this after a
// successful checkout.
func (s *Service) InvalidateCountCache(userID uint) {
	if s.redis != nil {
		s.redis.Del(context.Background(), countCacheKey(userID))
	}
}

func countCacheKey(userID uint) string {
	return fmt.Sprintf("cart:count:%d", userID)
}
