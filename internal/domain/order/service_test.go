// internal/domain/order/service_test.go
package order

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/flowershop-backend/internal/domain/cart"
	"github.com/your-org/flowershop-backend/internal/domain/catalog"
	"github.com/your-org/flowershop-backend/internal/pkg/apperr"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type recordedCall struct {
	TableName string
	RecordID  uint
	Action    string
	ChangedBy string
}

type recorderStub struct {
	calls []recordedCall
}

func (r *recorderStub) Record(tableName string, recordID uint, action string, oldData, newData interface{}, changedBy string) {
	r.calls = append(r.calls, recordedCall{
		TableName: tableName,
		RecordID:  recordID,
		Action:    action,
		ChangedBy: changedBy,
	})
}

type publishedEvent struct {
	OrderID   uint
	EventType string
}

type publisherStub struct {
	events []publishedEvent
	err    error
}

func (p *publisherStub) PublishOrderEvent(orderID uint, eventType string) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, publishedEvent{OrderID: orderID, EventType: eventType})
	return nil
}

type fixture struct {
	db        *gorm.DB
	svc       *Service
	recorder  *recorderStub
	publisher *publisherStub
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&catalog.Category{}, &catalog.Bouquet{},
		&cart.Cart{}, &cart.CartItem{},
		&Order{}, &OrderItem{},
	))

	recorder := &recorderStub{}
	publisher := &publisherStub{}
	log := logrus.New()

	return &fixture{
		db:        db,
		svc:       NewService(db, recorder, publisher, log),
		recorder:  recorder,
		publisher: publisher,
	}
}

func (f *fixture) seedBouquet(t *testing.T, name string, price int64, stock int) *catalog.Bouquet {
	t.Helper()

	category := catalog.Category{Name: "Category " + name, IsActive: true}
	require.NoError(t, f.db.Create(&category).Error)

	bouquet := catalog.Bouquet{
		Name:          name,
		Price:         price,
		CategoryID:    category.ID,
		InStock:       stock > 0,
		StockQuantity: stock,
	}
	require.NoError(t, f.db.Create(&bouquet).Error)
	return &bouquet
}

func (f *fixture) seedCart(t *testing.T, userID uint, lines map[*catalog.Bouquet]int) *cart.Cart {
	t.Helper()

	userCart := cart.Cart{UserID: userID}
	require.NoError(t, f.db.Create(&userCart).Error)

	for bouquet, qty := range lines {
		item := cart.CartItem{
			CartID:    userCart.ID,
			BouquetID: bouquet.ID,
			Quantity:  qty,
			UnitPrice: bouquet.Price,
			Subtotal:  bouquet.Price * int64(qty),
		}
		require.NoError(t, f.db.Create(&item).Error)
	}
	return &userCart
}

func placeRequest() *PlaceOrderRequest {
	return &PlaceOrderRequest{
		RecipientName:   "Jamie Doe",
		RecipientPhone:  "+15551234567",
		DeliveryAddress: "1 Garden Lane",
	}
}

func TestPlaceOrderNoCart(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.PlaceOrder(1, placeRequest(), "jamie@example.com")

	var emptyErr *apperr.EmptyCartError
	require.ErrorAs(t, err, &emptyErr)
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	f := newFixture(t)
	f.seedCart(t, 1, nil)

	_, err := f.svc.PlaceOrder(1, placeRequest(), "jamie@example.com")

	var emptyErr *apperr.EmptyCartError
	require.ErrorAs(t, err, &emptyErr)
}

func TestPlaceOrderSuccess(t *testing.T) {
	f := newFixture(t)
	roses := f.seedBouquet(t, "Dozen Roses", 5999, 10)
	lilies := f.seedBouquet(t, "Lilies", 4500, 5)
	f.seedCart(t, 1, map[*catalog.Bouquet]int{roses: 2, lilies: 1})

	placed, err := f.svc.PlaceOrder(1, placeRequest(), "jamie@example.com")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(placed.OrderNumber, "ORD-"))
	assert.Equal(t, StatusPending, placed.Status)
	assert.Equal(t, int64(2*5999+4500), placed.TotalAmount)
	require.Len(t, placed.Items, 2)

	// Stock decremented
	var reloaded catalog.Bouquet
	require.NoError(t, f.db.First(&reloaded, roses.ID).Error)
	assert.Equal(t, 8, reloaded.StockQuantity)
	assert.True(t, reloaded.InStock)

	// Cart cleared
	var lineCount int64
	require.NoError(t, f.db.Model(&cart.CartItem{}).Count(&lineCount).Error)
	assert.Equal(t, int64(0), lineCount)

	var userCart cart.Cart
	require.NoError(t, f.db.Where("user_id = ?", 1).First(&userCart).Error)
	assert.Equal(t, int64(0), userCart.TotalAmount)
	assert.Equal(t, 0, userCart.TotalItems)

	// Audit and event
	require.Len(t, f.recorder.calls, 1)
	assert.Equal(t, "orders", f.recorder.calls[0].TableName)
	assert.Equal(t, "CREATE", f.recorder.calls[0].Action)
	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, EventCreated, f.publisher.events[0].EventType)
}

func TestPlaceOrderUsesCurrentCatalogPrice(t *testing.T) {
	f := newFixture(t)
	roses := f.seedBouquet(t, "Roses", 5000, 10)
	f.seedCart(t, 1, map[*catalog.Bouquet]int{roses: 1})

	// Price changed after the line was added to the cart
	require.NoError(t, f.db.Model(&catalog.Bouquet{}).Where("id = ?", roses.ID).
		Update("price", 6000).Error)

	placed, err := f.svc.PlaceOrder(1, placeRequest(), "")
	require.NoError(t, err)

	require.Len(t, placed.Items, 1)
	assert.Equal(t, int64(6000), placed.Items[0].UnitPrice)
	assert.Equal(t, int64(6000), placed.TotalAmount)
}

func TestPlaceOrderInsufficientStockRollsBack(t *testing.T) {
	f := newFixture(t)
	roses := f.seedBouquet(t, "Roses", 5999, 5)
	scarce := f.seedBouquet(t, "Rare Orchid", 19999, 1)
	f.seedCart(t, 1, map[*catalog.Bouquet]int{roses: 2, scarce: 3})

	_, err := f.svc.PlaceOrder(1, placeRequest(), "")

	var stockErr *apperr.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, scarce.ID, stockErr.BouquetID)
	assert.Equal(t, 3, stockErr.Requested)
	assert.Equal(t, 1, stockErr.Available)

	// Nothing committed: stock untouched, cart intact, no order rows
	var reloaded catalog.Bouquet
	require.NoError(t, f.db.First(&reloaded, roses.ID).Error)
	assert.Equal(t, 5, reloaded.StockQuantity)

	var lineCount int64
	require.NoError(t, f.db.Model(&cart.CartItem{}).Count(&lineCount).Error)
	assert.Equal(t, int64(2), lineCount)

	var orderCount int64
	require.NoError(t, f.db.Model(&Order{}).Count(&orderCount).Error)
	assert.Equal(t, int64(0), orderCount)

	assert.Empty(t, f.publisher.events)
}

func TestPlaceOrderLastUnitMarksOutOfStock(t *testing.T) {
	f := newFixture(t)
	last := f.seedBouquet(t, "Last One", 2500, 1)
	f.seedCart(t, 1, map[*catalog.Bouquet]int{last: 1})

	_, err := f.svc.PlaceOrder(1, placeRequest(), "")
	require.NoError(t, err)

	var reloaded catalog.Bouquet
	require.NoError(t, f.db.First(&reloaded, last.ID).Error)
	assert.Equal(t, 0, reloaded.StockQuantity)
	assert.False(t, reloaded.InStock)
}

func TestCancelOrderRestoresStock(t *testing.T) {
	f := newFixture(t)
	roses := f.seedBouquet(t, "Roses", 5999, 3)
	f.seedCart(t, 1, map[*catalog.Bouquet]int{roses: 3})

	placed, err := f.svc.PlaceOrder(1, placeRequest(), "")
	require.NoError(t, err)

	var afterPlace catalog.Bouquet
	require.NoError(t, f.db.First(&afterPlace, roses.ID).Error)
	require.Equal(t, 0, afterPlace.StockQuantity)
	require.False(t, afterPlace.InStock)

	cancelled, err := f.svc.CancelOrder(placed.ID, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)

	var afterCancel catalog.Bouquet
	require.NoError(t, f.db.First(&afterCancel, roses.ID).Error)
	assert.Equal(t, 3, afterCancel.StockQuantity)
	assert.True(t, afterCancel.InStock)

	assert.Equal(t, EventCancelled, f.publisher.events[len(f.publisher.events)-1].EventType)
}

func TestCancelOrderRejectsTerminalStates(t *testing.T) {
	f := newFixture(t)
	roses := f.seedBouquet(t, "Roses", 5999, 10)
	f.seedCart(t, 1, map[*catalog.Bouquet]int{roses: 1})

	placed, err := f.svc.PlaceOrder(1, placeRequest(), "")
	require.NoError(t, err)

	for _, terminal := range []Status{StatusCompleted, StatusCancelled} {
		require.NoError(t, f.db.Model(&Order{}).Where("id = ?", placed.ID).
			Update("status", terminal).Error)

		_, err := f.svc.CancelOrder(placed.ID, "")

		var stateErr *apperr.IllegalStateError
		require.ErrorAs(t, err, &stateErr, "status %s", terminal)
	}
}

func TestCancelOrderMissing(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CancelOrder(999, "")

	var notFoundErr *apperr.NotFoundError
	require.ErrorAs(t, err, &notFoundErr)
}

func TestUpdateOrderStatus(t *testing.T) {
	f := newFixture(t)
	roses := f.seedBouquet(t, "Roses", 5999, 10)
	f.seedCart(t, 1, map[*catalog.Bouquet]int{roses: 1})

	placed, err := f.svc.PlaceOrder(1, placeRequest(), "")
	require.NoError(t, err)

	updated, err := f.svc.UpdateOrderStatus(placed.ID, StatusConfirmed, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, updated.Status)

	var reloaded Order
	require.NoError(t, f.db.First(&reloaded, placed.ID).Error)
	assert.Equal(t, StatusConfirmed, reloaded.Status)

	assert.Equal(t, EventStatusUpdated, f.publisher.events[len(f.publisher.events)-1].EventType)
}

func TestUpdateOrderStatusRejectsUnknownValue(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.UpdateOrderStatus(1, Status("shipped"), "")

	var validationErr *apperr.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestGetUserOrderEnforcesOwnership(t *testing.T) {
	f := newFixture(t)
	roses := f.seedBouquet(t, "Roses", 5999, 10)
	f.seedCart(t, 1, map[*catalog.Bouquet]int{roses: 1})

	placed, err := f.svc.PlaceOrder(1, placeRequest(), "")
	require.NoError(t, err)

	got, err := f.svc.GetUserOrder(1, placed.ID)
	require.NoError(t, err)
	assert.Equal(t, placed.OrderNumber, got.OrderNumber)

	_, err = f.svc.GetUserOrder(2, placed.ID)
	var notFoundErr *apperr.NotFoundError
	require.ErrorAs(t, err, &notFoundErr)
}

func TestListOrdersFiltersByStatus(t *testing.T) {
	f := newFixture(t)
	roses := f.seedBouquet(t, "Roses", 5999, 20)

	f.seedCart(t, 1, map[*catalog.Bouquet]int{roses: 1})
	first, err := f.svc.PlaceOrder(1, placeRequest(), "")
	require.NoError(t, err)

	f.seedCart(t, 2, map[*catalog.Bouquet]int{roses: 1})
	_, err = f.svc.PlaceOrder(2, placeRequest(), "")
	require.NoError(t, err)

	_, err = f.svc.UpdateOrderStatus(first.ID, StatusCompleted, "")
	require.NoError(t, err)

	completed, err := f.svc.ListOrders(&OrderListRequest{Status: string(StatusCompleted)})
	require.NoError(t, err)
	require.Len(t, completed.Orders, 1)
	assert.Equal(t, first.ID, completed.Orders[0].ID)

	all, err := f.svc.ListOrders(&OrderListRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.Pagination.Total)
}

func TestDeleteAndRestoreOrder(t *testing.T) {
	f := newFixture(t)
	roses := f.seedBouquet(t, "Roses", 5999, 10)
	f.seedCart(t, 1, map[*catalog.Bouquet]int{roses: 2})

	placed, err := f.svc.PlaceOrder(1, placeRequest(), "")
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteOrder(placed.ID, "admin@example.com"))

	// Soft delete leaves stock alone
	var bouquet catalog.Bouquet
	require.NoError(t, f.db.First(&bouquet, roses.ID).Error)
	assert.Equal(t, 8, bouquet.StockQuantity)

	_, err = f.svc.GetOrder(placed.ID)
	var notFoundErr *apperr.NotFoundError
	require.ErrorAs(t, err, &notFoundErr)

	deleted, err := f.svc.ListOrders(&OrderListRequest{OnlyDeleted: true})
	require.NoError(t, err)
	require.Len(t, deleted.Orders, 1)

	require.NoError(t, f.svc.RestoreOrder(placed.ID, "admin@example.com"))

	restored, err := f.svc.GetOrder(placed.ID)
	require.NoError(t, err)
	assert.Equal(t, placed.OrderNumber, restored.OrderNumber)
}

func TestPlaceOrderLastUnitContention(t *testing.T) {
	f := newFixture(t)
	last := f.seedBouquet(t, "Last Unit", 2500, 1)
	f.seedCart(t, 1, map[*catalog.Bouquet]int{last: 1})
	f.seedCart(t, 2, map[*catalog.Bouquet]int{last: 1})

	results := make(chan error, 2)
	var wg sync.WaitGroup
	for _, userID := range []uint{1, 2} {
		wg.Add(1)
		go func(id uint) {
			defer wg.Done()
			_, err := f.svc.PlaceOrder(id, placeRequest(), "")
			results <- err
		}(userID)
	}
	wg.Wait()
	close(results)

	var successes, stockFailures int
	for err := range results {
		if err == nil {
			successes++
			continue
		}
		var stockErr *apperr.InsufficientStockError
		require.ErrorAs(t, err, &stockErr)
		assert.GreaterOrEqual(t, stockErr.Available, 0)
		assert.Less(t, stockErr.Available, stockErr.Requested)
		stockFailures++
	}

	// Exactly one placement gets the unit
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, stockFailures)

	var reloaded catalog.Bouquet
	require.NoError(t, f.db.First(&reloaded, last.ID).Error)
	assert.Equal(t, 0, reloaded.StockQuantity)
	assert.False(t, reloaded.InStock)

	var orderCount int64
	require.NoError(t, f.db.Model(&Order{}).Count(&orderCount).Error)
	assert.Equal(t, int64(1), orderCount)
}

func TestPublishFailureDoesNotFailOperation(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = fmt.Errorf("broker unavailable")
	roses := f.seedBouquet(t, "Roses", 5999, 10)
	f.seedCart(t, 1, map[*catalog.Bouquet]int{roses: 1})

	placed, err := f.svc.PlaceOrder(1, placeRequest(), "")
	require.NoError(t, err)
	assert.NotZero(t, placed.ID)
}

func TestGenerateOrderNumberFormat(t *testing.T) {
	first := GenerateOrderNumber()
	second := GenerateOrderNumber()

	assert.Regexp(t, `^ORD-\d{8}-[0-9A-F]{8}$`, first)
	assert.NotEqual(t, first, second)
}

func TestStatusHelpers(t *testing.T) {
	assert.True(t, StatusPending.Valid())
	assert.False(t, Status("shipped").Valid())

	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, StatusInProgress.IsTerminal())

	o := Order{Status: StatusConfirmed}
	assert.True(t, o.CanBeCancelled())
	o.Status = StatusCompleted
	assert.False(t, o.CanBeCancelled())
}
