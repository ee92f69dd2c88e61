// internal/interfaces/http/handlers/report.go
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/your-org/flowershop-backend/internal/domain/report"
	"gorm.io/gorm"
)

// ReportHandler handles admin reporting endpoints
type ReportHandler struct {
	reportService *report.Service
}

// NewReportHandler creates a new report handler
func NewReportHandler(db *gorm.DB, redisClient *redis.Client) *ReportHandler {
	return &ReportHandler{
		reportService: report.NewService(db, redisClient),
	}
}

// GetDashboard handles GET /admin/reports/dashboard
func (h *ReportHandler) GetDashboard(c *gin.Context) {
	stats, err := h.reportService.GetDashboardStats()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Dashboard stats retrieved successfully",
		"data":    stats,
	})
}

// GetSalesReport handles GET /admin/reports/sales
func (h *ReportHandler) GetSalesReport(c *gin.Context) {
	dateTo := time.Now().UTC()
	dateFrom := dateTo.AddDate(0, 0, -30)

	if fromParam := c.Query("date_from"); fromParam != "" {
		parsed, err := time.Parse("2006-01-02", fromParam)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date_from, expected YYYY-MM-DD"})
			return
		}
		dateFrom = parsed
	}
	if toParam := c.Query("date_to"); toParam != "" {
		parsed, err := time.Parse("2006-01-02", toParam)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date_to, expected YYYY-MM-DD"})
			return
		}
		dateTo = parsed
	}

	sales, err := h.reportService.GetSalesReport(dateFrom, dateTo)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Sales report retrieved successfully",
		"data":    sales,
	})
}

// GetBouquetStatistics handles GET /admin/reports/bouquets
func (h *ReportHandler) GetBouquetStatistics(c *gin.Context) {
	stats, err := h.reportService.GetBouquetStatistics()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Bouquet statistics retrieved successfully",
		"data":    stats,
	})
}

// GetPopularBouquets handles GET /admin/reports/popular
func (h *ReportHandler) GetPopularBouquets(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	popular, err := h.reportService.GetPopularBouquets(limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Popular bouquets retrieved successfully",
		"data":    popular,
	})
}

// GetMonthlyRevenue handles GET /admin/reports/revenue
func (h *ReportHandler) GetMonthlyRevenue(c *gin.Context) {
	months, _ := strconv.Atoi(c.DefaultQuery("months", "12"))

	revenue, err := h.reportService.GetMonthlyRevenue(months)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Monthly revenue retrieved successfully",
		"data":    revenue,
	})
}

// GetCustomerLoyalty handles GET /admin/reports/customers
func (h *ReportHandler) GetCustomerLoyalty(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	customers, err := h.reportService.GetCustomerLoyalty(limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Customer loyalty report retrieved successfully",
		"data":    customers,
	})
}
