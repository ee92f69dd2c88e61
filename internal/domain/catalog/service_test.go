// internal/domain/catalog/service_test.go
package catalog

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/flowershop-backend/internal/pkg/apperr"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type nopRecorder struct{}

func (nopRecorder) Record(tableName string, recordID uint, action string, oldData, newData interface{}, changedBy string) {
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&Category{}, &Bouquet{}, &Review{}))
	return db
}

func seedCategory(t *testing.T, db *gorm.DB, name string) *Category {
	t.Helper()

	category := Category{Name: name, IsActive: true}
	require.NoError(t, db.Create(&category).Error)
	return &category
}

func TestCreateBouquet(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, nopRecorder{})
	category := seedCategory(t, db, "Roses")

	got, err := svc.CreateBouquet(&CreateBouquetRequest{
		Name:          "Dozen Red Roses",
		Description:   "Classic dozen",
		Price:         5999,
		CategoryID:    category.ID,
		StockQuantity: 10,
	}, "admin@example.com")
	require.NoError(t, err)

	assert.NotZero(t, got.ID)
	assert.Equal(t, int64(5999), got.Price)
	assert.True(t, got.InStock)
	require.NotNil(t, got.Category)
	assert.Equal(t, "Roses", got.Category.Name)
}

func TestCreateBouquetZeroStockStartsOutOfStock(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, nopRecorder{})
	category := seedCategory(t, db, "Roses")

	got, err := svc.CreateBouquet(&CreateBouquetRequest{
		Name:       "Preorder Mix",
		Price:      4999,
		CategoryID: category.ID,
	}, "")
	require.NoError(t, err)

	assert.False(t, got.InStock)
	assert.Equal(t, 0, got.StockQuantity)

	// The false flag must survive the insert, not get replaced by a column default
	var stored Bouquet
	require.NoError(t, db.First(&stored, got.ID).Error)
	assert.False(t, stored.InStock)

	inStock := true
	available, err := svc.GetBouquets(&BouquetListRequest{InStock: &inStock}, false)
	require.NoError(t, err)
	assert.Equal(t, int64(0), available.Pagination.Total)
}

func TestCreateCategoryInactivePersists(t *testing.T) {
	db := newTestDB(t)
	svc := NewCategoryService(db, nopRecorder{})

	inactive := false
	created, err := svc.CreateCategory(&CategoryCreateRequest{
		Name:     "Archived",
		IsActive: &inactive,
	}, "")
	require.NoError(t, err)
	assert.False(t, created.IsActive)

	var stored Category
	require.NoError(t, db.First(&stored, created.ID).Error)
	assert.False(t, stored.IsActive)
}

func TestCreateBouquetUnknownCategory(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, nopRecorder{})

	_, err := svc.CreateBouquet(&CreateBouquetRequest{
		Name:       "Orphan",
		Price:      1000,
		CategoryID: 999,
	}, "")

	var notFoundErr *apperr.NotFoundError
	require.ErrorAs(t, err, &notFoundErr)
	assert.Contains(t, err.Error(), "category")
}

func TestCreateBouquetRejectsNonPositivePrice(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, nopRecorder{})
	category := seedCategory(t, db, "Roses")

	_, err := svc.CreateBouquet(&CreateBouquetRequest{
		Name:       "Free Flowers",
		Price:      0,
		CategoryID: category.ID,
	}, "")

	var validationErr *apperr.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestUpdateBouquetPartialFields(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, nopRecorder{})
	category := seedCategory(t, db, "Roses")

	created, err := svc.CreateBouquet(&CreateBouquetRequest{
		Name:          "Spring Mix",
		Description:   "Seasonal",
		Price:         4500,
		CategoryID:    category.ID,
		StockQuantity: 5,
	}, "")
	require.NoError(t, err)

	newPrice := int64(4999)
	got, err := svc.UpdateBouquet(created.ID, &UpdateBouquetRequest{Price: &newPrice}, "")
	require.NoError(t, err)

	assert.Equal(t, int64(4999), got.Price)
	assert.Equal(t, "Spring Mix", got.Name)
	assert.Equal(t, "Seasonal", got.Description)
	assert.Equal(t, 5, got.StockQuantity)
}

func TestUpdateBouquetStockQuantitySyncsFlag(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, nopRecorder{})
	category := seedCategory(t, db, "Roses")

	created, err := svc.CreateBouquet(&CreateBouquetRequest{
		Name:          "Peonies",
		Price:         8999,
		CategoryID:    category.ID,
		StockQuantity: 5,
	}, "")
	require.NoError(t, err)

	zero := 0
	got, err := svc.UpdateBouquet(created.ID, &UpdateBouquetRequest{StockQuantity: &zero}, "")
	require.NoError(t, err)
	assert.False(t, got.InStock)

	three := 3
	got, err = svc.UpdateBouquet(created.ID, &UpdateBouquetRequest{StockQuantity: &three}, "")
	require.NoError(t, err)
	assert.True(t, got.InStock)
}

func TestUpdateBouquetRejectsBadPrice(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, nopRecorder{})
	category := seedCategory(t, db, "Roses")

	created, err := svc.CreateBouquet(&CreateBouquetRequest{
		Name:       "Tulips",
		Price:      3500,
		CategoryID: category.ID,
	}, "")
	require.NoError(t, err)

	bad := int64(-100)
	_, err = svc.UpdateBouquet(created.ID, &UpdateBouquetRequest{Price: &bad}, "")

	var validationErr *apperr.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestDeleteAndRestoreBouquet(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, nopRecorder{})
	category := seedCategory(t, db, "Roses")

	created, err := svc.CreateBouquet(&CreateBouquetRequest{
		Name:          "Lilies",
		Price:         4500,
		CategoryID:    category.ID,
		StockQuantity: 2,
	}, "")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteBouquet(created.ID, "admin@example.com"))

	_, err = svc.GetBouquet(created.ID)
	var notFoundErr *apperr.NotFoundError
	require.ErrorAs(t, err, &notFoundErr)

	deleted, err := svc.GetBouquets(&BouquetListRequest{OnlyDeleted: true}, true)
	require.NoError(t, err)
	require.Len(t, deleted.Bouquets, 1)
	assert.Equal(t, created.ID, deleted.Bouquets[0].ID)

	require.NoError(t, svc.RestoreBouquet(created.ID, "admin@example.com"))

	restored, err := svc.GetBouquet(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lilies", restored.Name)
}

func TestUpdateStock(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, nopRecorder{})
	category := seedCategory(t, db, "Roses")

	created, err := svc.CreateBouquet(&CreateBouquetRequest{
		Name:          "Orchids",
		Price:         12999,
		CategoryID:    category.ID,
		StockQuantity: 4,
	}, "")
	require.NoError(t, err)

	got, err := svc.UpdateStock(created.ID, 0, "")
	require.NoError(t, err)
	assert.Equal(t, 0, got.StockQuantity)
	assert.False(t, got.InStock)

	got, err = svc.UpdateStock(created.ID, 7, "")
	require.NoError(t, err)
	assert.Equal(t, 7, got.StockQuantity)
	assert.True(t, got.InStock)

	_, err = svc.UpdateStock(created.ID, -1, "")
	var validationErr *apperr.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestUpdatePricesByCategory(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, nopRecorder{})
	roses := seedCategory(t, db, "Roses")
	other := seedCategory(t, db, "Sympathy")

	first, err := svc.CreateBouquet(&CreateBouquetRequest{
		Name: "A", Price: 1000, CategoryID: roses.ID, StockQuantity: 1,
	}, "")
	require.NoError(t, err)
	second, err := svc.CreateBouquet(&CreateBouquetRequest{
		Name: "B", Price: 3333, CategoryID: roses.ID, StockQuantity: 1,
	}, "")
	require.NoError(t, err)
	untouched, err := svc.CreateBouquet(&CreateBouquetRequest{
		Name: "C", Price: 2000, CategoryID: other.ID, StockQuantity: 1,
	}, "")
	require.NoError(t, err)

	count, err := svc.UpdatePricesByCategory(roses.ID, 10, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	reloaded, err := svc.GetBouquet(first.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1100), reloaded.Price)

	reloaded, err = svc.GetBouquet(second.ID)
	require.NoError(t, err)
	// 3333 * 1.10 = 3666.3, rounded
	assert.Equal(t, int64(3666), reloaded.Price)

	reloaded, err = svc.GetBouquet(untouched.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), reloaded.Price)
}

func TestUpdatePricesByCategoryFloorsAtOneCent(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, nopRecorder{})
	category := seedCategory(t, db, "Clearance")

	created, err := svc.CreateBouquet(&CreateBouquetRequest{
		Name: "Cheap", Price: 2, CategoryID: category.ID, StockQuantity: 1,
	}, "")
	require.NoError(t, err)

	_, err = svc.UpdatePricesByCategory(category.ID, -99, "")
	require.NoError(t, err)

	reloaded, err := svc.GetBouquet(created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), reloaded.Price)
}

func TestUpdatePricesByCategoryRejectsFullMarkdown(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, nopRecorder{})
	category := seedCategory(t, db, "Roses")

	_, err := svc.UpdatePricesByCategory(category.ID, -100, "")

	var validationErr *apperr.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestGetBouquetsFilters(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, nopRecorder{})
	roses := seedCategory(t, db, "Roses")
	lilies := seedCategory(t, db, "Lilies")

	seed := []struct {
		name     string
		price    int64
		stock    int
		category uint
	}{
		{"Red Roses", 5999, 10, roses.ID},
		{"White Roses", 6499, 0, roses.ID},
		{"Stargazer Lilies", 4500, 3, lilies.ID},
	}
	for _, s := range seed {
		_, err := svc.CreateBouquet(&CreateBouquetRequest{
			Name: s.name, Price: s.price, CategoryID: s.category, StockQuantity: s.stock,
		}, "")
		require.NoError(t, err)
	}

	byCategory, err := svc.GetBouquets(&BouquetListRequest{CategoryID: &roses.ID}, false)
	require.NoError(t, err)
	assert.Equal(t, int64(2), byCategory.Pagination.Total)

	inStock := true
	available, err := svc.GetBouquets(&BouquetListRequest{InStock: &inStock}, false)
	require.NoError(t, err)
	assert.Equal(t, int64(2), available.Pagination.Total)

	maxPrice := int64(5000)
	cheap, err := svc.GetBouquets(&BouquetListRequest{MaxPrice: &maxPrice}, false)
	require.NoError(t, err)
	require.Len(t, cheap.Bouquets, 1)
	assert.Equal(t, "Stargazer Lilies", cheap.Bouquets[0].Name)

	searched, err := svc.GetBouquets(&BouquetListRequest{Search: "roses"}, false)
	require.NoError(t, err)
	assert.Equal(t, int64(2), searched.Pagination.Total)
}

func TestGetBouquetsSortWhitelist(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, nopRecorder{})
	category := seedCategory(t, db, "Roses")

	for i, price := range []int64{3000, 1000, 2000} {
		_, err := svc.CreateBouquet(&CreateBouquetRequest{
			Name: fmt.Sprintf("Bouquet %d", i), Price: price, CategoryID: category.ID, StockQuantity: 1,
		}, "")
		require.NoError(t, err)
	}

	sorted, err := svc.GetBouquets(&BouquetListRequest{SortBy: "price", SortOrder: "asc"}, false)
	require.NoError(t, err)
	require.Len(t, sorted.Bouquets, 3)
	assert.Equal(t, int64(1000), sorted.Bouquets[0].Price)
	assert.Equal(t, int64(3000), sorted.Bouquets[2].Price)

	// Unknown sort field falls back instead of injecting into SQL
	_, err = svc.GetBouquets(&BouquetListRequest{SortBy: "price; DROP TABLE bouquets"}, false)
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&Bouquet{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)
}

func TestCategoryLifecycle(t *testing.T) {
	db := newTestDB(t)
	svc := NewCategoryService(db, nopRecorder{})

	created, err := svc.CreateCategory(&CategoryCreateRequest{
		Name:        "Wedding",
		Description: "Bridal arrangements",
	}, "admin@example.com")
	require.NoError(t, err)
	assert.True(t, created.IsActive)

	_, err = svc.CreateCategory(&CategoryCreateRequest{Name: "Wedding"}, "")
	var validationErr *apperr.ValidationError
	require.ErrorAs(t, err, &validationErr)

	inactive := false
	updated, err := svc.UpdateCategory(created.ID, &CategoryUpdateRequest{IsActive: &inactive}, "")
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	active, err := svc.GetCategories(false)
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := svc.GetCategories(true)
	require.NoError(t, err)
	require.Len(t, all, 1)

	require.NoError(t, svc.DeleteCategory(created.ID, ""))

	_, err = svc.GetCategory(created.ID)
	var notFoundErr *apperr.NotFoundError
	require.ErrorAs(t, err, &notFoundErr)
}

func TestDeleteCategoryWithBouquetsRejected(t *testing.T) {
	db := newTestDB(t)
	categorySvc := NewCategoryService(db, nopRecorder{})
	bouquetSvc := NewService(db, nopRecorder{})

	category, err := categorySvc.CreateCategory(&CategoryCreateRequest{Name: "Roses"}, "")
	require.NoError(t, err)

	_, err = bouquetSvc.CreateBouquet(&CreateBouquetRequest{
		Name: "Red Roses", Price: 5999, CategoryID: category.ID, StockQuantity: 1,
	}, "")
	require.NoError(t, err)

	err = categorySvc.DeleteCategory(category.ID, "")
	var validationErr *apperr.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestCategoriesWithBouquetCount(t *testing.T) {
	db := newTestDB(t)
	categorySvc := NewCategoryService(db, nopRecorder{})
	bouquetSvc := NewService(db, nopRecorder{})

	roses := seedCategory(t, db, "Roses")
	seedCategory(t, db, "Empty")

	for _, name := range []string{"A", "B"} {
		_, err := bouquetSvc.CreateBouquet(&CreateBouquetRequest{
			Name: name, Price: 1000, CategoryID: roses.ID, StockQuantity: 1,
		}, "")
		require.NoError(t, err)
	}

	got, err := categorySvc.GetCategoriesWithBouquetCount(false)
	require.NoError(t, err)
	require.Len(t, got, 2)

	counts := map[string]int64{}
	for _, c := range got {
		counts[c.Name] = c.BouquetCount
	}
	assert.Equal(t, int64(2), counts["Roses"])
	assert.Equal(t, int64(0), counts["Empty"])
}

func TestCreateReview(t *testing.T) {
	db := newTestDB(t)
	bouquetSvc := NewService(db, nopRecorder{})
	reviewSvc := NewReviewService(db)
	category := seedCategory(t, db, "Roses")

	bouquet, err := bouquetSvc.CreateBouquet(&CreateBouquetRequest{
		Name: "Red Roses", Price: 5999, CategoryID: category.ID, StockQuantity: 5,
	}, "")
	require.NoError(t, err)

	review, err := reviewSvc.CreateReview(1, bouquet.ID, &CreateReviewRequest{
		Rating:  5,
		Comment: "Beautiful arrangement",
	})
	require.NoError(t, err)
	assert.Equal(t, 5, review.Rating)

	// Second review from the same user is rejected
	_, err = reviewSvc.CreateReview(1, bouquet.ID, &CreateReviewRequest{Rating: 3})
	var validationErr *apperr.ValidationError
	require.ErrorAs(t, err, &validationErr)

	// Another user is fine
	_, err = reviewSvc.CreateReview(2, bouquet.ID, &CreateReviewRequest{Rating: 4})
	require.NoError(t, err)

	got, err := reviewSvc.GetBouquetReviews(bouquet.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Count)
	assert.InDelta(t, 4.5, got.AverageRating, 0.001)
}

func TestCreateReviewValidation(t *testing.T) {
	db := newTestDB(t)
	reviewSvc := NewReviewService(db)

	_, err := reviewSvc.CreateReview(1, 1, &CreateReviewRequest{Rating: 6})
	var validationErr *apperr.ValidationError
	require.ErrorAs(t, err, &validationErr)

	_, err = reviewSvc.CreateReview(1, 999, &CreateReviewRequest{Rating: 4})
	var notFoundErr *apperr.NotFoundError
	require.ErrorAs(t, err, &notFoundErr)
}
