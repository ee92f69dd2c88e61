// internal/interfaces/http/handlers/user_admin.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/flowershop-backend/internal/domain/audit"
	"github.com/your-org/flowershop-backend/internal/domain/user"
	"github.com/your-org/flowershop-backend/internal/interfaces/http/middleware"
	"gorm.io/gorm"
)

// UserAdminHandler handles back-office user management endpoints
type UserAdminHandler struct {
	adminService *user.AdminService
}

// NewUserAdminHandler creates a new admin user handler
func NewUserAdminHandler(db *gorm.DB, recorder audit.Recorder) *UserAdminHandler {
	return &UserAdminHandler{
		adminService: user.NewAdminService(db, recorder),
	}
}

// ListUsers handles GET /admin/users
func (h *UserAdminHandler) ListUsers(c *gin.Context) {
	var req user.UserListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid query parameters",
			"details": err.Error(),
		})
		return
	}

	response, err := h.adminService.ListUsers(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Users retrieved successfully",
		"data":    response,
	})
}

// GetUser handles GET /admin/users/:id
func (h *UserAdminHandler) GetUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	u, err := h.adminService.GetUser(id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User retrieved successfully",
		"data":    u,
	})
}

// SetActive handles PUT /admin/users/:id/active
func (h *UserAdminHandler) SetActive(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		IsActive *bool `json:"is_active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	email, _ := middleware.GetUserEmailFromContext(c)
	u, err := h.adminService.SetActive(id, *req.IsActive, email)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User updated successfully",
		"data":    u,
	})
}

// SetAdmin handles PUT /admin/users/:id/admin
func (h *UserAdminHandler) SetAdmin(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		IsAdmin *bool `json:"is_admin" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	email, _ := middleware.GetUserEmailFromContext(c)
	u, err := h.adminService.SetAdmin(id, *req.IsAdmin, email)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User updated successfully",
		"data":    u,
	})
}

// DeleteUser handles DELETE /admin/users/:id
func (h *UserAdminHandler) DeleteUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	email, _ := middleware.GetUserEmailFromContext(c)
	if err := h.adminService.DeleteUser(id, email); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User deleted successfully",
	})
}

// RestoreUser handles POST /admin/users/:id/restore
func (h *UserAdminHandler) RestoreUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	email, _ := middleware.GetUserEmailFromContext(c)
	if err := h.adminService.RestoreUser(id, email); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User restored successfully",
	})
}
