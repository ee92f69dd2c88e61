// internal/domain/catalog/entity.go
package catalog

import (
	"time"

	"gorm.io/gorm"
)

// Category represents a bouquet category
type Category struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	Name        string         `json:"name" gorm:"uniqueIndex;not null;size:100"`
	Description string         `json:"description" gorm:"size:500"`
	IsActive    bool           `json:"is_active" gorm:"not null"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName returns the table name for Category model
func (Category) TableName() string {
	return "categories"
}

// Bouquet represents a product in the catalog. Price is stored in cents.
type Bouquet struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	Name          string         `json:"name" gorm:"not null;size:200"`
	Description   string         `json:"description" gorm:"size:1000"`
	Price         int64          `json:"price" gorm:"not null"`
	ImageURL      string         `json:"image_url" gorm:"size:500"`
	InStock       bool           `json:"in_stock" gorm:"not null"`
	StockQuantity int            `json:"stock_quantity" gorm:"not null;default:0"`
	CategoryID    uint           `json:"category_id" gorm:"index;not null"`
	Category      *Category      `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName returns the table name for Bouquet model
func (Bouquet) TableName() string {
	return "bouquets"
}

// HasStock reports whether the bouquet can satisfy the requested quantity.
func (b *Bouquet) HasStock(quantity int) bool {
	return b.InStock && b.StockQuantity >= quantity
}

// Review represents a customer review of a bouquet. One review per user
// per bouquet.
type Review struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	BouquetID uint      `json:"bouquet_id" gorm:"uniqueIndex:idx_reviews_bouquet_user;not null"`
	UserID    uint      `json:"user_id" gorm:"uniqueIndex:idx_reviews_bouquet_user;not null"`
	Rating    int       `json:"rating" gorm:"not null"`
	Comment   string    `json:"comment" gorm:"size:1000"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the table name for Review model
func (Review) TableName() string {
	return "reviews"
}
