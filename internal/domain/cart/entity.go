// internal/domain/cart/entity.go
package cart

import (
	"time"

	"github.com/your-org/flowershop-backend/internal/domain/catalog"
)

// Cart is the per-user shopping cart. It is created lazily on first access
// and never deleted, only cleared. TotalAmount and TotalItems are stored
// redundantly and recomputed after every mutation.
type Cart struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	UserID      uint       `json:"user_id" gorm:"uniqueIndex;not null"`
	TotalAmount int64      `json:"total_amount" gorm:"not null;default:0"`
	TotalItems  int        `json:"total_items" gorm:"not null;default:0"`
	Items       []CartItem `json:"items" gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TableName returns the table name for Cart model
func (Cart) TableName() string {
	return "carts"
}

// RecalculateTotals recomputes the stored aggregates from the loaded lines.
func (c *Cart) RecalculateTotals() {
	var amount int64
	var items int
	for i := range c.Items {
		c.Items[i].Subtotal = c.Items[i].UnitPrice * int64(c.Items[i].Quantity)
		amount += c.Items[i].Subtotal
		items += c.Items[i].Quantity
	}
	c.TotalAmount = amount
	c.TotalItems = items
}

// CartItem is one (bouquet, quantity) line. UnitPrice is snapshotted when
// the line is created; Subtotal is recomputed on every mutation.
type CartItem struct {
	ID        uint             `json:"id" gorm:"primaryKey"`
	CartID    uint             `json:"cart_id" gorm:"uniqueIndex:idx_cart_items_cart_bouquet;not null"`
	BouquetID uint             `json:"bouquet_id" gorm:"uniqueIndex:idx_cart_items_cart_bouquet;not null"`
	Quantity  int              `json:"quantity" gorm:"not null"`
	UnitPrice int64            `json:"unit_price" gorm:"not null"`
	Subtotal  int64            `json:"subtotal" gorm:"not null"`
	Bouquet   *catalog.Bouquet `json:"bouquet,omitempty" gorm:"foreignKey:BouquetID"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// TableName returns the table name for CartItem model
func (CartItem) TableName() string {
	return "cart_items"
}
