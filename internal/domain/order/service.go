// internal/domain/order/service.go
package order

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/flowershop-backend/internal/domain/audit"
	"github.com/your-org/flowershop-backend/internal/domain/cart"
	"github.com/your-org/flowershop-backend/internal/domain/catalog"
	"github.com/your-org/flowershop-backend/internal/pkg/apperr"
	"gorm.io/gorm"
)

// EventPublisher delivers best-effort order lifecycle events to the
// message broker. Publishing failures never fail the triggering operation.
type EventPublisher interface {
	PublishOrderEvent(orderID uint, eventType string) error
}

// Event types emitted after order mutations.
const (
	EventCreated       = "created"
	EventStatusUpdated = "status_updated"
	EventCancelled     = "cancelled"
)

// Service handles order placement and fulfillment
type Service struct {
	db        *gorm.DB
	recorder  audit.Recorder
	publisher EventPublisher
	logger    *logrus.Logger
}

// NewService creates a new order service. publisher may be nil when the
// broker is disabled.
func NewService(db *gorm.DB, recorder audit.Recorder, publisher EventPublisher, logger *logrus.Logger) *Service {
	return &Service{
		db:        db,
		recorder:  recorder,
		publisher: publisher,
		logger:    logger,
	}
}

// PlaceOrderRequest represents checkout data
type PlaceOrderRequest struct {
	RecipientName   string     `json:"recipient_name" binding:"required,max=100"`
	RecipientPhone  string     `json:"recipient_phone" binding:"required,max=30"`
	RecipientEmail  string     `json:"recipient_email" binding:"omitempty,email"`
	DeliveryAddress string     `json:"delivery_address" binding:"required,max=500"`
	DeliveryDate    *time.Time `json:"delivery_date"`
	Notes           string     `json:"notes" binding:"max=1000"`
}

// OrderListRequest represents the admin order listing query
type OrderListRequest struct {
	Page        int    `form:"page"`
	Limit       int    `form:"limit"`
	Status      string `form:"status"`
	UserID      *uint  `form:"user_id"`
	Search      string `form:"search"`
	DateFrom    string `form:"date_from"`
	DateTo      string `form:"date_to"`
	OnlyDeleted bool   `form:"only_deleted"`
	SortBy      string `form:"sort_by"`
	SortOrder   string `form:"sort_order"`
}

// OrderListResponse represents a page of orders
type OrderListResponse struct {
	Orders     []Order    `json:"orders"`
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

type orderSnapshot struct {
	OrderNumber string `json:"order_number"`
	Status      Status `json:"status"`
	TotalAmount int64  `json:"total_amount"`
	ItemCount   int    `json:"item_count"`
}

func snapshotOf(o *Order) orderSnapshot {
	return orderSnapshot{
		OrderNumber: o.OrderNumber,
		Status:      o.Status,
		TotalAmount: o.TotalAmount,
		ItemCount:   len(o.Items),
	}
}

// PlaceOrder converts the user's cart into a pending order. The whole
// sequence runs in one transaction: stock validation, order creation with
// current-price snapshots, conditional stock decrements and the cart clear
// either all commit or all roll back.
//
// The decrement uses "stock_quantity >= ?" in its WHERE clause and checks
// rows affected, so two concurrent placements of the last unit cannot both
// succeed.
func (s *Service) PlaceOrder(userID uint, req *PlaceOrderRequest, changedBy string) (*Order, error) {
	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var userCart cart.Cart
	if err := tx.Where("user_id = ?", userID).First(&userCart).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperr.EmptyCartError{}
		}
		return nil, fmt.Errorf("failed to fetch cart: %w", err)
	}

	var lines []cart.CartItem
	if err := tx.Where("cart_id = ?", userCart.ID).Find(&lines).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to fetch cart items: %w", err)
	}
	if len(lines) == 0 {
		tx.Rollback()
		return nil, &apperr.EmptyCartError{}
	}

	newOrder := &Order{
		OrderNumber:     GenerateOrderNumber(),
		UserID:          userID,
		Status:          StatusPending,
		RecipientName:   req.RecipientName,
		RecipientPhone:  req.RecipientPhone,
		RecipientEmail:  req.RecipientEmail,
		DeliveryAddress: req.DeliveryAddress,
		DeliveryDate:    req.DeliveryDate,
		Notes:           req.Notes,
	}

	for _, line := range lines {
		var bouquet catalog.Bouquet
		if err := tx.First(&bouquet, line.BouquetID).Error; err != nil {
			tx.Rollback()
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.NotFound("bouquet")
			}
			return nil, fmt.Errorf("failed to fetch bouquet: %w", err)
		}

		if !bouquet.HasStock(line.Quantity) {
			tx.Rollback()
			return nil, &apperr.InsufficientStockError{
				BouquetID: bouquet.ID,
				Name:      bouquet.Name,
				Requested: line.Quantity,
				Available: bouquet.StockQuantity,
			}
		}

		// Conditional decrement; loses gracefully when a concurrent
		// placement took the stock between the read above and here.
		res := tx.Model(&catalog.Bouquet{}).
			Where("id = ? AND stock_quantity >= ?", line.BouquetID, line.Quantity).
			UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", line.Quantity))
		if res.Error != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to decrement stock: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			// Lost the race; the read above is stale, so report what is left now
			var available int
			if err := tx.Model(&catalog.Bouquet{}).
				Where("id = ?", line.BouquetID).
				Select("stock_quantity").Scan(&available).Error; err != nil {
				available = 0
			}
			tx.Rollback()
			return nil, &apperr.InsufficientStockError{
				BouquetID: bouquet.ID,
				Name:      bouquet.Name,
				Requested: line.Quantity,
				Available: available,
			}
		}

		if err := tx.Model(&catalog.Bouquet{}).
			Where("id = ? AND stock_quantity <= 0", line.BouquetID).
			UpdateColumn("in_stock", false).Error; err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to update stock flag: %w", err)
		}

		newOrder.Items = append(newOrder.Items, OrderItem{
			BouquetID: bouquet.ID,
			Name:      bouquet.Name,
			Quantity:  line.Quantity,
			UnitPrice: bouquet.Price,
			Subtotal:  bouquet.Price * int64(line.Quantity),
		})
	}

	newOrder.CalculateTotal()

	if err := tx.Create(newOrder).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if err := tx.Where("cart_id = ?", userCart.ID).Delete(&cart.CartItem{}).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to clear cart: %w", err)
	}
	if err := tx.Model(&cart.Cart{}).Where("id = ?", userCart.ID).
		Updates(map[string]interface{}{"total_amount": 0, "total_items": 0}).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to reset cart totals: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit order: %w", err)
	}

	s.recorder.Record(newOrder.TableName(), newOrder.ID, audit.ActionCreate, nil, snapshotOf(newOrder), changedBy)
	s.publishEvent(newOrder.ID, EventCreated)

	return newOrder, nil
}

// CancelOrder cancels a non-terminal order and restores the stock its
// lines consumed, all in one transaction.
func (s *Service) CancelOrder(orderID uint, changedBy string) (*Order, error) {
	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var o Order
	if err := tx.Preload("Items").First(&o, orderID).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("order")
		}
		return nil, fmt.Errorf("failed to fetch order: %w", err)
	}

	if !o.CanBeCancelled() {
		tx.Rollback()
		return nil, apperr.IllegalStatef("order %s cannot be cancelled in status %s", o.OrderNumber, o.Status)
	}

	oldData := snapshotOf(&o)

	for _, item := range o.Items {
		if err := tx.Model(&catalog.Bouquet{}).
			Where("id = ?", item.BouquetID).
			UpdateColumn("stock_quantity", gorm.Expr("stock_quantity + ?", item.Quantity)).Error; err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to restore stock: %w", err)
		}
		if err := tx.Model(&catalog.Bouquet{}).
			Where("id = ? AND stock_quantity > 0", item.BouquetID).
			UpdateColumn("in_stock", true).Error; err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to update stock flag: %w", err)
		}
	}

	if err := tx.Model(&o).Updates(map[string]interface{}{
		"status":     StatusCancelled,
		"updated_at": time.Now(),
	}).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit cancellation: %w", err)
	}

	o.Status = StatusCancelled

	s.recorder.Record(o.TableName(), o.ID, audit.ActionUpdate, oldData, snapshotOf(&o), changedBy)
	s.publishEvent(o.ID, EventCancelled)

	return &o, nil
}

// UpdateOrderStatus overwrites the order status. The transition graph is
// intentionally not enforced here so back-office staff can correct
// mis-keyed states; CancelOrder is the only guarded transition.
func (s *Service) UpdateOrderStatus(orderID uint, status Status, changedBy string) (*Order, error) {
	if !status.Valid() {
		return nil, apperr.Validationf("invalid order status %q", status)
	}

	var o Order
	if err := s.db.Preload("Items").First(&o, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("order")
		}
		return nil, fmt.Errorf("failed to fetch order: %w", err)
	}

	oldData := snapshotOf(&o)

	if err := s.db.Model(&o).Updates(map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}).Error; err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	o.Status = status

	s.recorder.Record(o.TableName(), o.ID, audit.ActionUpdate, oldData, snapshotOf(&o), changedBy)
	s.publishEvent(o.ID, EventStatusUpdated)

	return &o, nil
}

// GetOrder returns an order with its items
func (s *Service) GetOrder(orderID uint) (*Order, error) {
	var o Order
	if err := s.db.Preload("Items").First(&o, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("order")
		}
		return nil, fmt.Errorf("failed to fetch order: %w", err)
	}
	return &o, nil
}

// GetUserOrder returns an order only if it belongs to the given user
func (s *Service) GetUserOrder(userID, orderID uint) (*Order, error) {
	var o Order
	if err := s.db.Preload("Items").
		Where("id = ? AND user_id = ?", orderID, userID).
		First(&o).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("order")
		}
		return nil, fmt.Errorf("failed to fetch order: %w", err)
	}
	return &o, nil
}

// GetUserOrders returns the user's orders, newest first
func (s *Service) GetUserOrders(userID uint, page, limit int) (*OrderListResponse, error) {
	req := &OrderListRequest{Page: page, Limit: limit, UserID: &userID}
	return s.ListOrders(req)
}

// ListOrders returns orders filtered by status, user, search text and date
// range.
func (s *Service) ListOrders(req *OrderListRequest) (*OrderListResponse, error) {
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 20
	}

	query := s.db.Model(&Order{}).Preload("Items")

	if req.OnlyDeleted {
		query = query.Unscoped().Where("orders.deleted_at IS NOT NULL")
	}
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	if req.UserID != nil {
		query = query.Where("user_id = ?", *req.UserID)
	}
	if req.Search != "" {
		searchTerm := "%" + req.Search + "%"
		query = query.Where("order_number LIKE ? OR LOWER(recipient_name) LIKE LOWER(?)", searchTerm, searchTerm)
	}
	if req.DateFrom != "" {
		if from, err := time.Parse("2006-01-02", req.DateFrom); err == nil {
			query = query.Where("created_at >= ?", from)
		}
	}
	if req.DateTo != "" {
		if to, err := time.Parse("2006-01-02", req.DateTo); err == nil {
			query = query.Where("created_at < ?", to.AddDate(0, 0, 1))
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	var orders []Order
	offset := (req.Page - 1) * req.Limit
	if err := query.Order(buildOrderClause(req.SortBy, req.SortOrder)).
		Offset(offset).Limit(req.Limit).Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch orders: %w", err)
	}

	totalPages := int((total + int64(req.Limit) - 1) / int64(req.Limit))

	return &OrderListResponse{
		Orders: orders,
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

// DeleteOrder soft deletes an order (admin housekeeping; stock is not
// touched, use CancelOrder for that)
func (s *Service) DeleteOrder(orderID uint, changedBy string) error {
	var o Order
	if err := s.db.First(&o, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("order")
		}
		return fmt.Errorf("failed to fetch order: %w", err)
	}

	if err := s.db.Delete(&o).Error; err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}

	s.recorder.Record(o.TableName(), o.ID, audit.ActionDelete, snapshotOf(&o), nil, changedBy)

	return nil
}

// RestoreOrder clears the soft-delete flag
func (s *Service) RestoreOrder(orderID uint, changedBy string) error {
	var o Order
	if err := s.db.Unscoped().First(&o, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("order")
		}
		return fmt.Errorf("failed to fetch order: %w", err)
	}

	if err := s.db.Unscoped().Model(&o).Update("deleted_at", nil).Error; err != nil {
		return fmt.Errorf("failed to restore order: %w", err)
	}

	s.recorder.Record(o.TableName(), o.ID, audit.ActionUpdate,
		map[string]string{"status": "deleted"}, map[string]string{"status": "active"}, changedBy)

	return nil
}

func (s *Service) publishEvent(orderID uint, eventType string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishOrderEvent(orderID, eventType); err != nil {
		s.logger.WithFields(logrus.Fields{
			"order_id":   orderID,
			"event_type": eventType,
			"error":      err.Error(),
		}).Warn("failed to publish order event")
	}
}

// buildOrderClause builds the ORDER BY clause from a whitelist of sortable
// fields; unknown input falls back to newest-first.
func buildOrderClause(sortBy, sortOrder string) string {
	allowedFields := map[string]bool{
		"created_at":   true,
		"total_amount": true,
		"status":       true,
		"order_number": true,
	}

	if !allowedFields[sortBy] {
		sortBy = "created_at"
	}
	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = "desc"
	}

	return fmt.Sprintf("%s %s", sortBy, sortOrder)
}
