// internal/domain/user/admin_service.go
package user

import (
	"errors"
	"fmt"

	"github.com/your-org/flowershop-backend/internal/domain/audit"
	"github.com/your-org/flowershop-backend/internal/pkg/apperr"
	"gorm.io/gorm"
)

// AdminService handles back-office user management
type AdminService struct {
	db       *gorm.DB
	recorder audit.Recorder
}

// NewAdminService creates a new admin user service
func NewAdminService(db *gorm.DB, recorder audit.Recorder) *AdminService {
	return &AdminService{
		db:       db,
		recorder: recorder,
	}
}

// UserListRequest represents the admin user listing query
type UserListRequest struct {
	Page        int    `form:"page"`
	Limit       int    `form:"limit"`
	Search      string `form:"search"`
	IsActive    *bool  `form:"is_active"`
	IsAdmin     *bool  `form:"is_admin"`
	OnlyDeleted bool   `form:"only_deleted"`
}

// UserListResponse represents a page of users
type UserListResponse struct {
	Users      []User     `json:"users"`
	Pagination Pagination `json:"pagination"`
}

// Pagination represents pagination information
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

type userSnapshot struct {
	Email    string `json:"email"`
	IsActive bool   `json:"is_active"`
	IsAdmin  bool   `json:"is_admin"`
}

// ListUsers returns users filtered by search text, active and admin flags.
func (s *AdminService) ListUsers(req *UserListRequest) (*UserListResponse, error) {
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 20
	}

	query := s.db.Model(&User{})

	if req.OnlyDeleted {
		query = query.Unscoped().Where("users.deleted_at IS NOT NULL")
	}
	if req.Search != "" {
		searchTerm := "%" + req.Search + "%"
		query = query.Where(
			"LOWER(email) LIKE LOWER(?) OR LOWER(first_name) LIKE LOWER(?) OR LOWER(last_name) LIKE LOWER(?)",
			searchTerm, searchTerm, searchTerm)
	}
	if req.IsActive != nil {
		query = query.Where("is_active = ?", *req.IsActive)
	}
	if req.IsAdmin != nil {
		query = query.Where("is_admin = ?", *req.IsAdmin)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	var users []User
	offset := (req.Page - 1) * req.Limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(req.Limit).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch users: %w", err)
	}

	for i := range users {
		users[i].Password = ""
	}

	totalPages := int((total + int64(req.Limit) - 1) / int64(req.Limit))

	return &UserListResponse{
		Users: users,
		Pagination: Pagination{
			Page:       req.Page,
			Limit:      req.Limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    req.Page < totalPages,
			HasPrev:    req.Page > 1,
		},
	}, nil
}

// GetUser returns a single user by ID
func (s *AdminService) GetUser(id uint) (*User, error) {
	var user User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user")
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	user.Password = ""
	return &user, nil
}

// SetActive activates or deactivates an account
func (s *AdminService) SetActive(id uint, active bool, changedBy string) (*User, error) {
	return s.setFlag(id, "is_active", active, changedBy)
}

// SetAdmin grants or revokes admin rights
func (s *AdminService) SetAdmin(id uint, admin bool, changedBy string) (*User, error) {
	return s.setFlag(id, "is_admin", admin, changedBy)
}

func (s *AdminService) setFlag(id uint, column string, value bool, changedBy string) (*User, error) {
	var user User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user")
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	oldData := userSnapshot{Email: user.Email, IsActive: user.IsActive, IsAdmin: user.IsAdmin}

	if err := s.db.Model(&user).Update(column, value).Error; err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	if err := s.db.First(&user, id).Error; err != nil {
		return nil, fmt.Errorf("failed to reload user: %w", err)
	}

	s.recorder.Record(user.TableName(), user.ID, audit.ActionUpdate, oldData,
		userSnapshot{Email: user.Email, IsActive: user.IsActive, IsAdmin: user.IsAdmin}, changedBy)

	user.Password = ""
	return &user, nil
}

// DeleteUser soft deletes an account
func (s *AdminService) DeleteUser(id uint, changedBy string) error {
	var user User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("user")
		}
		return fmt.Errorf("failed to fetch user: %w", err)
	}

	if err := s.db.Delete(&user).Error; err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.recorder.Record(user.TableName(), user.ID, audit.ActionDelete,
		userSnapshot{Email: user.Email, IsActive: user.IsActive, IsAdmin: user.IsAdmin}, nil, changedBy)

	return nil
}

// RestoreUser clears the soft-delete flag
func (s *AdminService) RestoreUser(id uint, changedBy string) error {
	var user User
	if err := s.db.Unscoped().First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("user")
		}
		return fmt.Errorf("failed to fetch user: %w", err)
	}

	if err := s.db.Unscoped().Model(&user).Update("deleted_at", nil).Error; err != nil {
		return fmt.Errorf("failed to restore user: %w", err)
	}

	s.recorder.Record(user.TableName(), user.ID, audit.ActionUpdate,
		map[string]string{"status": "deleted"}, map[string]string{"status": "active"}, changedBy)

	return nil
}
