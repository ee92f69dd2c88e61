// internal/interfaces/http/handlers/common.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/your-org/flowershop-backend/internal/pkg/apperr"
)

// respondError maps domain errors to HTTP status codes
func respondError(c *gin.Context, err error) {
	var validationErr *apperr.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": validationErr.Message,
		})
		return
	}

	var notFoundErr *apperr.NotFoundError
	if errors.As(err, &notFoundErr) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": notFoundErr.Error(),
		})
		return
	}

	var emptyCartErr *apperr.EmptyCartError
	if errors.As(err, &emptyCartErr) {
		c.JSON(http.StatusConflict, gin.H{
			"error": emptyCartErr.Error(),
		})
		return
	}

	var stockErr *apperr.InsufficientStockError
	if errors.As(err, &stockErr) {
		c.JSON(http.StatusConflict, gin.H{
			"error": stockErr.Error(),
			"details": gin.H{
				"bouquet_id": stockErr.BouquetID,
				"name":       stockErr.Name,
				"requested":  stockErr.Requested,
				"available":  stockErr.Available,
			},
		})
		return
	}

	var stateErr *apperr.IllegalStateError
	if errors.As(err, &stateErr) {
		c.JSON(http.StatusConflict, gin.H{
			"error": stateErr.Message,
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{
		"error": "Internal server error",
	})
}

// parseIDParam parses a numeric path parameter
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	idParam := c.Param(name)
	id, err := strconv.ParseUint(idParam, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid " + name,
		})
		return 0, false
	}
	return uint(id), true
}
