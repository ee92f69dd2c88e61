// internal/interfaces/http/handlers/invoice.go
package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/flowershop-backend/internal/config"
	"github.com/your-org/flowershop-backend/internal/domain/audit"
	"github.com/your-org/flowershop-backend/internal/domain/order"
	"github.com/your-org/flowershop-backend/internal/interfaces/http/middleware"
	"github.com/your-org/flowershop-backend/internal/pkg/pdf"
	"gorm.io/gorm"
)

// InvoiceHandler handles invoice generation endpoints
type InvoiceHandler struct {
	orderService *order.Service
	pdfService   *pdf.Service
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(db *gorm.DB, cfg *config.Config, recorder audit.Recorder, publisher order.EventPublisher, logger *logrus.Logger) *InvoiceHandler {
	return &InvoiceHandler{
		orderService: order.NewService(db, recorder, publisher, logger),
		pdfService:   pdf.NewService(cfg),
	}
}

// GetInvoice handles GET /orders/:id/invoice
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	o, err := h.orderService.GetUserOrder(userID, orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.writeInvoice(c, o)
}

// AdminGetInvoice handles GET /admin/orders/:id/invoice
func (h *InvoiceHandler) AdminGetInvoice(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	o, err := h.orderService.GetOrder(orderID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.writeInvoice(c, o)
}

func (h *InvoiceHandler) writeInvoice(c *gin.Context, o *order.Order) {
	buf, err := h.pdfService.GenerateInvoice(o)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to generate invoice",
		})
		return
	}

	filename := fmt.Sprintf("invoice-%s.pdf", o.OrderNumber)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
