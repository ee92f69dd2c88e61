// internal/interfaces/http/handlers/bouquet.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/flowershop-backend/internal/domain/audit"
	"github.com/your-org/flowershop-backend/internal/domain/catalog"
	"github.com/your-org/flowershop-backend/internal/interfaces/http/middleware"
	"gorm.io/gorm"
)

// BouquetHandler handles bouquet catalog endpoints
type BouquetHandler struct {
	catalogService *catalog.Service
	reviewService  *catalog.ReviewService
}

// NewBouquetHandler creates a new bouquet handler
func NewBouquetHandler(db *gorm.DB, recorder audit.Recorder) *BouquetHandler {
	return &BouquetHandler{
		catalogService: catalog.NewService(db, recorder),
		reviewService:  catalog.NewReviewService(db),
	}
}

// GetBouquets handles GET /bouquets
func (h *BouquetHandler) GetBouquets(c *gin.Context) {
	var req catalog.BouquetListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid query parameters",
			"details": err.Error(),
		})
		return
	}

	// Deleted records are only visible through the admin listing
	response, err := h.catalogService.GetBouquets(&req, false)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Bouquets retrieved successfully",
		"data":    response,
	})
}

// GetBouquet handles GET /bouquets/:id
func (h *BouquetHandler) GetBouquet(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	bouquet, err := h.catalogService.GetBouquet(id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Bouquet retrieved successfully",
		"data":    bouquet,
	})
}

// GetBouquetReviews handles GET /bouquets/:id/reviews
func (h *BouquetHandler) GetBouquetReviews(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	response, err := h.reviewService.GetBouquetReviews(id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Reviews retrieved successfully",
		"data":    response,
	})
}

// CreateReview handles POST /bouquets/:id/reviews
func (h *BouquetHandler) CreateReview(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req catalog.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	review, err := h.reviewService.CreateReview(userID, id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Review created successfully",
		"data":    review,
	})
}

// AdminListBouquets handles GET /admin/bouquets
func (h *BouquetHandler) AdminListBouquets(c *gin.Context) {
	var req catalog.BouquetListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid query parameters",
			"details": err.Error(),
		})
		return
	}

	response, err := h.catalogService.GetBouquets(&req, true)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Bouquets retrieved successfully",
		"data":    response,
	})
}

// CreateBouquet handles POST /admin/bouquets
func (h *BouquetHandler) CreateBouquet(c *gin.Context) {
	var req catalog.CreateBouquetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	email, _ := middleware.GetUserEmailFromContext(c)
	bouquet, err := h.catalogService.CreateBouquet(&req, email)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Bouquet created successfully",
		"data":    bouquet,
	})
}

// UpdateBouquet handles PUT /admin/bouquets/:id
func (h *BouquetHandler) UpdateBouquet(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req catalog.UpdateBouquetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	email, _ := middleware.GetUserEmailFromContext(c)
	bouquet, err := h.catalogService.UpdateBouquet(id, &req, email)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Bouquet updated successfully",
		"data":    bouquet,
	})
}

// DeleteBouquet handles DELETE /admin/bouquets/:id
func (h *BouquetHandler) DeleteBouquet(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	email, _ := middleware.GetUserEmailFromContext(c)
	if err := h.catalogService.DeleteBouquet(id, email); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Bouquet deleted successfully",
	})
}

// RestoreBouquet handles POST /admin/bouquets/:id/restore
func (h *BouquetHandler) RestoreBouquet(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	email, _ := middleware.GetUserEmailFromContext(c)
	if err := h.catalogService.RestoreBouquet(id, email); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Bouquet restored successfully",
	})
}

// UpdateStock handles PUT /admin/bouquets/:id/stock
func (h *BouquetHandler) UpdateStock(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Quantity *int `json:"quantity" binding:"required,min=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	email, _ := middleware.GetUserEmailFromContext(c)
	bouquet, err := h.catalogService.UpdateStock(id, *req.Quantity, email)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Stock updated successfully",
		"data":    bouquet,
	})
}

// UpdatePricesByCategory handles PUT /admin/categories/:id/prices
func (h *BouquetHandler) UpdatePricesByCategory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		PercentChange *float64 `json:"percent_change" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	email, _ := middleware.GetUserEmailFromContext(c)
	updated, err := h.catalogService.UpdatePricesByCategory(id, *req.PercentChange, email)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Prices updated successfully",
		"data": gin.H{
			"updated_count": updated,
		},
	})
}
