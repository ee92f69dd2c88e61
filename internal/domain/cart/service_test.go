// internal/domain/cart/service_test.go
package cart

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/flowershop-backend/internal/domain/catalog"
	"github.com/your-org/flowershop-backend/internal/pkg/apperr"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&catalog.Category{}, &catalog.Bouquet{}, &Cart{}, &CartItem{}))
	return db
}

func seedBouquet(t *testing.T, db *gorm.DB, name string, price int64, stock int) *catalog.Bouquet {
	t.Helper()

	category := catalog.Category{Name: "Roses " + name, IsActive: true}
	require.NoError(t, db.Create(&category).Error)

	bouquet := catalog.Bouquet{
		Name:          name,
		Price:         price,
		CategoryID:    category.ID,
		InStock:       stock > 0,
		StockQuantity: stock,
	}
	require.NoError(t, db.Create(&bouquet).Error)
	return &bouquet
}

func TestAddToCartCreatesLineWithPriceSnapshot(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, nil)
	bouquet := seedBouquet(t, db, "Dozen Red Roses", 5999, 10)

	got, err := svc.AddToCart(1, &AddToCartRequest{BouquetID: bouquet.ID, Quantity: 2})
	require.NoError(t, err)

	require.Len(t, got.Items, 1)
	assert.Equal(t, bouquet.ID, got.Items[0].BouquetID)
	assert.Equal(t, 2, got.Items[0].Quantity)
	assert.Equal(t, int64(5999), got.Items[0].UnitPrice)
	assert.Equal(t, int64(11998), got.Items[0].Subtotal)
	assert.Equal(t, int64(11998), got.TotalAmount)
	assert.Equal(t, 2, got.TotalItems)
}

func TestAddToCartMergesExistingLine(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, nil)
	bouquet := seedBouquet(t, db, "Blush Garden", 7499, 10)

	_, err := svc.AddToCart(1, &AddToCartRequest{BouquetID: bouquet.ID, Quantity: 1})
	require.NoError(t, err)

	got, err := svc.AddToCart(1, &AddToCartRequest{BouquetID: bouquet.ID, Quantity: 2})
	require.NoError(t, err)

	require.Len(t, got.Items, 1)
	assert.Equal(t, 3, got.Items[0].Quantity)
	assert.Equal(t, int64(3*7499), got.Items[0].Subtotal)
	assert.Equal(t, int64(3*7499), got.TotalAmount)
	assert.Equal(t, 3, got.TotalItems)
}

func TestAddToCartRejectsZeroQuantity(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, nil)
	bouquet := seedBouquet(t, db, "Sunny Day", 4599, 5)

	_, err := svc.AddToCart(1, &AddToCartRequest{BouquetID: bouquet.ID, Quantity: 0})

	var validationErr *apperr.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestAddToCartUnknownBouquet(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, nil)

	_, err := svc.AddToCart(1, &AddToCartRequest{BouquetID: 999, Quantity: 1})

	var notFoundErr *apperr.NotFoundError
	require.ErrorAs(t, err, &notFoundErr)
}

func TestAddToCartOutOfStockBouquet(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, nil)
	bouquet := seedBouquet(t, db, "Sold Out Mix", 4599, 0)

	_, err := svc.AddToCart(1, &AddToCartRequest{BouquetID: bouquet.ID, Quantity: 1})

	var validationErr *apperr.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestUpdateCartItemReplacesQuantity(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, nil)
	bouquet := seedBouquet(t, db, "Peony Mix", 8999, 10)

	_, err := svc.AddToCart(1, &AddToCartRequest{BouquetID: bouquet.ID, Quantity: 5})
	require.NoError(t, err)

	got, err := svc.UpdateCartItem(1, bouquet.ID, 2)
	require.NoError(t, err)

	require.Len(t, got.Items, 1)
	assert.Equal(t, 2, got.Items[0].Quantity)
	assert.Equal(t, int64(2*8999), got.TotalAmount)
	assert.Equal(t, 2, got.TotalItems)
}

func TestUpdateCartItemZeroQuantityRemovesLine(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, nil)
	bouquet := seedBouquet(t, db, "Tulip Mix", 3999, 10)

	_, err := svc.AddToCart(1, &AddToCartRequest{BouquetID: bouquet.ID, Quantity: 2})
	require.NoError(t, err)

	got, err := svc.UpdateCartItem(1, bouquet.ID, 0)
	require.NoError(t, err)

	assert.Empty(t, got.Items)
	assert.Equal(t, int64(0), got.TotalAmount)
	assert.Equal(t, 0, got.TotalItems)
}

func TestUpdateCartItemMissingLine(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, nil)
	bouquet := seedBouquet(t, db, "Lily Mix", 6499, 10)

	_, err := svc.GetCart(1)
	require.NoError(t, err)

	_, err = svc.UpdateCartItem(1, bouquet.ID, 2)

	var notFoundErr *apperr.NotFoundError
	require.ErrorAs(t, err, &notFoundErr)
}

func TestRemoveFromCartAbsentLineIsNoop(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, nil)

	require.NoError(t, svc.RemoveFromCart(1, 42))
}

func TestClearCartKeepsCartRow(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, nil)
	first := seedBouquet(t, db, "First", 1000, 10)
	second := seedBouquet(t, db, "Second", 2000, 10)

	_, err := svc.AddToCart(1, &AddToCartRequest{BouquetID: first.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = svc.AddToCart(1, &AddToCartRequest{BouquetID: second.ID, Quantity: 3})
	require.NoError(t, err)

	require.NoError(t, svc.ClearCart(1))

	got, err := svc.GetCart(1)
	require.NoError(t, err)
	assert.Empty(t, got.Items)
	assert.Equal(t, int64(0), got.TotalAmount)
	assert.Equal(t, 0, got.TotalItems)

	var count int64
	require.NoError(t, db.Model(&Cart{}).Where("user_id = ?", 1).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCartTotalsTrackMutations(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, nil)
	roses := seedBouquet(t, db, "Roses Dozen", 5999, 20)
	lilies := seedBouquet(t, db, "Lilies", 4500, 20)

	_, err := svc.AddToCart(7, &AddToCartRequest{BouquetID: roses.ID, Quantity: 2})
	require.NoError(t, err)
	_, err = svc.AddToCart(7, &AddToCartRequest{BouquetID: lilies.ID, Quantity: 1})
	require.NoError(t, err)

	got, err := svc.UpdateCartItem(7, roses.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(5999+4500), got.TotalAmount)
	assert.Equal(t, 2, got.TotalItems)

	require.NoError(t, svc.RemoveFromCart(7, lilies.ID))

	got, err = svc.GetCart(7)
	require.NoError(t, err)
	assert.Equal(t, int64(5999), got.TotalAmount)
	assert.Equal(t, 1, got.TotalItems)
	assert.Equal(t, 1, svc.GetCartItemCount(7))
}

func TestGetCartItemCountMissingCart(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, nil)

	assert.Equal(t, 0, svc.GetCartItemCount(12345))
}

func TestCartsAreIsolatedPerUser(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, nil)
	bouquet := seedBouquet(t, db, "Shared Bouquet", 2500, 50)

	_, err := svc.AddToCart(1, &AddToCartRequest{BouquetID: bouquet.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = svc.AddToCart(2, &AddToCartRequest{BouquetID: bouquet.ID, Quantity: 4})
	require.NoError(t, err)

	first, err := svc.GetCart(1)
	require.NoError(t, err)
	second, err := svc.GetCart(2)
	require.NoError(t, err)

	assert.Equal(t, 1, first.TotalItems)
	assert.Equal(t, 4, second.TotalItems)
}
