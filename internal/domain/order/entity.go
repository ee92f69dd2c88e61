// internal/domain/order/entity.go
package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Status represents the fulfillment state of an order.
//
// The intended lifecycle is pending -> confirmed -> in_progress -> completed,
// with cancellation possible from any non-terminal state. The service layer
// does not enforce this graph on direct status updates; completed and
// cancelled are the only states treated as terminal.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are expected from s.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Order is a placed order. Items and their price snapshots are fixed at
// creation; TotalAmount always equals the sum of item subtotals.
type Order struct {
	ID              uint           `json:"id" gorm:"primaryKey"`
	OrderNumber     string         `json:"order_number" gorm:"uniqueIndex;not null;size:50"`
	UserID          uint           `json:"user_id" gorm:"index;not null"`
	Status          Status         `json:"status" gorm:"not null;default:'pending';size:20"`
	TotalAmount     int64          `json:"total_amount" gorm:"not null;default:0"`
	RecipientName   string         `json:"recipient_name" gorm:"not null;size:100"`
	RecipientPhone  string         `json:"recipient_phone" gorm:"not null;size:30"`
	RecipientEmail  string         `json:"recipient_email" gorm:"size:255"`
	DeliveryAddress string         `json:"delivery_address" gorm:"not null;size:500"`
	DeliveryDate    *time.Time     `json:"delivery_date"`
	Notes           string         `json:"notes" gorm:"size:1000"`
	Items           []OrderItem    `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName returns the table name for Order model
func (Order) TableName() string {
	return "orders"
}

// CanBeCancelled reports whether the order may still be cancelled.
func (o *Order) CanBeCancelled() bool {
	return !o.Status.IsTerminal()
}

// CalculateTotal recomputes TotalAmount from the item subtotals.
func (o *Order) CalculateTotal() {
	var total int64
	for i := range o.Items {
		total += o.Items[i].Subtotal
	}
	o.TotalAmount = total
}

// GenerateOrderNumber produces a human-readable unique order number.
func GenerateOrderNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
	return fmt.Sprintf("ORD-%s-%s", time.Now().Format("20060102"), suffix)
}

// OrderItem is one line of a placed order. Name and UnitPrice snapshot the
// bouquet at order-creation time, independent of later catalog changes.
type OrderItem struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	OrderID   uint      `json:"order_id" gorm:"index;not null"`
	BouquetID uint      `json:"bouquet_id" gorm:"not null"`
	Name      string    `json:"name" gorm:"not null;size:200"`
	Quantity  int       `json:"quantity" gorm:"not null"`
	UnitPrice int64     `json:"unit_price" gorm:"not null"`
	Subtotal  int64     `json:"subtotal" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the table name for OrderItem model
func (OrderItem) TableName() string {
	return "order_items"
}
