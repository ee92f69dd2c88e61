// internal/domain/report/service.go
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const dashboardCacheKey = "report:dashboard"
const dashboardCacheTTL = time.Minute

// Service produces sales and activity reports from raw SQL aggregates.
// Cancelled and soft-deleted orders are excluded from revenue figures.
type Service struct {
	db    *gorm.DB
	redis *redis.Client
}

// NewService creates a new report service. redisClient may be nil; the
// dashboard is then computed on every request.
func NewService(db *gorm.DB, redisClient *redis.Client) *Service {
	return &Service{
		db:    db,
		redis: redisClient,
	}
}

// DashboardStats represents the admin dashboard headline numbers
type DashboardStats struct {
	TotalUsers        int64           `json:"total_users"`
	TotalOrders       int64           `json:"total_orders"`
	TotalRevenue      int64           `json:"total_revenue"`
	PendingOrders     int64           `json:"pending_orders"`
	MonthlyRevenue    int64           `json:"monthly_revenue"`
	PopularCategories []CategorySales `json:"popular_categories"`
}

// CategorySales represents order volume per category
type CategorySales struct {
	CategoryName string `json:"category_name"`
	OrderCount   int64  `json:"order_count"`
}

// DailySales represents one day of the sales report
type DailySales struct {
	Day               string `json:"day"`
	OrderCount        int64  `json:"order_count"`
	TotalRevenue      int64  `json:"total_revenue"`
	AverageOrderValue int64  `json:"average_order_value"`
}

// BouquetStats represents sales figures for one bouquet
type BouquetStats struct {
	BouquetID   uint   `json:"bouquet_id"`
	Name        string `json:"name"`
	UnitsSold   int64  `json:"units_sold"`
	Revenue     int64  `json:"revenue"`
	OrderCount  int64  `json:"order_count"`
	StockLeft   int    `json:"stock_left"`
	InStock     bool   `json:"in_stock"`
	AveragePaid int64  `json:"average_paid"`
}

// MonthlyRevenue represents one month of the revenue series
type MonthlyRevenue struct {
	Month             string `json:"month"`
	TotalRevenue      int64  `json:"total_revenue"`
	TotalOrders       int64  `json:"total_orders"`
	AverageOrderValue int64  `json:"average_order_value"`
}

// CustomerLoyalty represents order volume and spend per customer
type CustomerLoyalty struct {
	UserID     uint   `json:"user_id"`
	Email      string `json:"email"`
	OrderCount int64  `json:"order_count"`
	TotalSpent int64  `json:"total_spent"`
	LastOrder  string `json:"last_order"`
}

// GetDashboardStats returns the headline numbers, served from the Redis
// cache when fresh.
func (s *Service) GetDashboardStats() (*DashboardStats, error) {
	ctx := context.Background()

	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, dashboardCacheKey).Result(); err == nil {
			var stats DashboardStats
			if err := json.Unmarshal([]byte(cached), &stats); err == nil {
				return &stats, nil
			}
		}
	}

	stats := &DashboardStats{}

	if err := s.db.Raw(`SELECT COUNT(*) FROM users WHERE deleted_at IS NULL`).
		Scan(&stats.TotalUsers).Error; err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	if err := s.db.Raw(`SELECT COUNT(*) FROM orders WHERE deleted_at IS NULL`).
		Scan(&stats.TotalOrders).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	if err := s.db.Raw(`
		SELECT COALESCE(SUM(total_amount), 0)
		FROM orders
		WHERE status <> 'cancelled' AND deleted_at IS NULL`).
		Scan(&stats.TotalRevenue).Error; err != nil {
		return nil, fmt.Errorf("failed to sum revenue: %w", err)
	}

	if err := s.db.Raw(`
		SELECT COUNT(*)
		FROM orders
		WHERE status = 'pending' AND deleted_at IS NULL`).
		Scan(&stats.PendingOrders).Error; err != nil {
		return nil, fmt.Errorf("failed to count pending orders: %w", err)
	}

	monthStart := time.Now().UTC().Truncate(24 * time.Hour)
	monthStart = time.Date(monthStart.Year(), monthStart.Month(), 1, 0, 0, 0, 0, time.UTC)
	if err := s.db.Raw(`
		SELECT COALESCE(SUM(total_amount), 0)
		FROM orders
		WHERE status <> 'cancelled' AND deleted_at IS NULL AND created_at >= ?`, monthStart).
		Scan(&stats.MonthlyRevenue).Error; err != nil {
		return nil, fmt.Errorf("failed to sum monthly revenue: %w", err)
	}

	popular, err := s.getPopularCategories(5)
	if err != nil {
		return nil, err
	}
	stats.PopularCategories = popular

	if s.redis != nil {
		if data, err := json.Marshal(stats); err == nil {
			s.redis.Set(ctx, dashboardCacheKey, data, dashboardCacheTTL)
		}
	}

	return stats, nil
}

// GetSalesReport returns per-day order counts and revenue over a date range.
func (s *Service) GetSalesReport(dateFrom, dateTo time.Time) ([]DailySales, error) {
	rows, err := s.db.Raw(`
		SELECT
			DATE(o.created_at) AS day,
			COUNT(*) AS order_count,
			COALESCE(SUM(o.total_amount), 0) AS total_revenue
		FROM orders o
		WHERE o.status <> 'cancelled'
		  AND o.deleted_at IS NULL
		  AND o.created_at >= ?
		  AND o.created_at < ?
		GROUP BY DATE(o.created_at)
		ORDER BY day DESC`, dateFrom, dateTo.AddDate(0, 0, 1)).Rows()
	if err != nil {
		return nil, fmt.Errorf("failed to run sales report: %w", err)
	}
	defer rows.Close()

	var report []DailySales
	for rows.Next() {
		var entry DailySales
		if err := rows.Scan(&entry.Day, &entry.OrderCount, &entry.TotalRevenue); err != nil {
			return nil, fmt.Errorf("failed to scan sales report row: %w", err)
		}
		if entry.OrderCount > 0 {
			entry.AverageOrderValue = entry.TotalRevenue / entry.OrderCount
		}
		report = append(report, entry)
	}

	return report, rows.Err()
}

// GetBouquetStatistics returns units sold and revenue per bouquet.
func (s *Service) GetBouquetStatistics() ([]BouquetStats, error) {
	rows, err := s.db.Raw(`
		SELECT
			b.id,
			b.name,
			COALESCE(SUM(oi.quantity), 0) AS units_sold,
			COALESCE(SUM(oi.subtotal), 0) AS revenue,
			COUNT(DISTINCT o.id) AS order_count,
			b.stock_quantity,
			b.in_stock
		FROM bouquets b
		LEFT JOIN order_items oi ON oi.bouquet_id = b.id
		LEFT JOIN orders o ON o.id = oi.order_id
			AND o.status <> 'cancelled' AND o.deleted_at IS NULL
		WHERE b.deleted_at IS NULL
		GROUP BY b.id, b.name, b.stock_quantity, b.in_stock
		ORDER BY revenue DESC`).Rows()
	if err != nil {
		return nil, fmt.Errorf("failed to run bouquet statistics: %w", err)
	}
	defer rows.Close()

	var report []BouquetStats
	for rows.Next() {
		var entry BouquetStats
		if err := rows.Scan(&entry.BouquetID, &entry.Name, &entry.UnitsSold,
			&entry.Revenue, &entry.OrderCount, &entry.StockLeft, &entry.InStock); err != nil {
			return nil, fmt.Errorf("failed to scan bouquet statistics row: %w", err)
		}
		if entry.UnitsSold > 0 {
			entry.AveragePaid = entry.Revenue / entry.UnitsSold
		}
		report = append(report, entry)
	}

	return report, rows.Err()
}

// GetPopularBouquets returns the top-selling bouquets by units sold.
func (s *Service) GetPopularBouquets(limit int) ([]BouquetStats, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	stats, err := s.GetBouquetStatistics()
	if err != nil {
		return nil, err
	}

	// Re-rank by units sold; statistics come back ordered by revenue.
	for i := 1; i < len(stats); i++ {
		for j := i; j > 0 && stats[j].UnitsSold > stats[j-1].UnitsSold; j-- {
			stats[j], stats[j-1] = stats[j-1], stats[j]
		}
	}

	if len(stats) > limit {
		stats = stats[:limit]
	}
	return stats, nil
}

// GetMonthlyRevenue returns a month-by-month revenue series for the last
// N months.
func (s *Service) GetMonthlyRevenue(months int) ([]MonthlyRevenue, error) {
	if months <= 0 || months > 60 {
		months = 12
	}
	since := time.Now().UTC().AddDate(0, -months, 0)

	rows, err := s.db.Raw(`
		SELECT
			TO_CHAR(created_at, 'YYYY-MM') AS month,
			COALESCE(SUM(total_amount), 0) AS total_revenue,
			COUNT(*) AS total_orders
		FROM orders
		WHERE status <> 'cancelled'
		  AND deleted_at IS NULL
		  AND created_at >= ?
		GROUP BY TO_CHAR(created_at, 'YYYY-MM')
		ORDER BY month DESC`, since).Rows()
	if err != nil {
		return nil, fmt.Errorf("failed to run monthly revenue report: %w", err)
	}
	defer rows.Close()

	var report []MonthlyRevenue
	for rows.Next() {
		var entry MonthlyRevenue
		if err := rows.Scan(&entry.Month, &entry.TotalRevenue, &entry.TotalOrders); err != nil {
			return nil, fmt.Errorf("failed to scan monthly revenue row: %w", err)
		}
		if entry.TotalOrders > 0 {
			entry.AverageOrderValue = entry.TotalRevenue / entry.TotalOrders
		}
		report = append(report, entry)
	}

	return report, rows.Err()
}

// GetCustomerLoyalty returns order count and spend per customer, biggest
// spenders first.
func (s *Service) GetCustomerLoyalty(limit int) ([]CustomerLoyalty, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	rows, err := s.db.Raw(`
		SELECT
			u.id,
			u.email,
			COUNT(o.id) AS order_count,
			COALESCE(SUM(o.total_amount), 0) AS total_spent,
			COALESCE(TO_CHAR(MAX(o.created_at), 'YYYY-MM-DD'), '') AS last_order
		FROM users u
		JOIN orders o ON o.user_id = u.id
			AND o.status <> 'cancelled' AND o.deleted_at IS NULL
		WHERE u.deleted_at IS NULL
		GROUP BY u.id, u.email
		ORDER BY total_spent DESC
		LIMIT ?`, limit).Rows()
	if err != nil {
		return nil, fmt.Errorf("failed to run customer loyalty report: %w", err)
	}
	defer rows.Close()

	var report []CustomerLoyalty
	for rows.Next() {
		var entry CustomerLoyalty
		if err := rows.Scan(&entry.UserID, &entry.Email, &entry.OrderCount,
			&entry.TotalSpent, &entry.LastOrder); err != nil {
			return nil, fmt.Errorf("failed to scan customer loyalty row: %w", err)
		}
		report = append(report, entry)
	}

	return report, rows.Err()
}

func (s *Service) getPopularCategories(limit int) ([]CategorySales, error) {
	rows, err := s.db.Raw(`
		SELECT c.name, COUNT(oi.id) AS order_count
		FROM categories c
		JOIN bouquets b ON b.category_id = c.id
		JOIN order_items oi ON oi.bouquet_id = b.id
		JOIN orders o ON o.id = oi.order_id
			AND o.status <> 'cancelled' AND o.deleted_at IS NULL
		WHERE c.deleted_at IS NULL
		GROUP BY c.name
		ORDER BY order_count DESC
		LIMIT ?`, limit).Rows()
	if err != nil {
		return nil, fmt.Errorf("failed to run popular categories report: %w", err)
	}
	defer rows.Close()

	categories := make([]CategorySales, 0, limit)
	for rows.Next() {
		var entry CategorySales
		if err := rows.Scan(&entry.CategoryName, &entry.OrderCount); err != nil {
			return nil, fmt.Errorf("failed to scan popular categories row: %w", err)
		}
		categories = append(categories, entry)
	}

	return categories, rows.Err()
}
