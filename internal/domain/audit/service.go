// internal/domain/audit/service.go
package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Recorder is the collaborator mutating services notify after each
// create/update/delete. Implementations must never fail the triggering
// operation: recording problems are logged and swallowed.
type Recorder interface {
	Record(tableName string, recordID uint, action string, oldData, newData interface{}, changedBy string)
}

// Service persists audit records and serves the admin audit log views.
type Service struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewService creates a new audit service
func NewService(db *gorm.DB, logger *logrus.Logger) *Service {
	return &Service{
		db:     db,
		logger: logger,
	}
}

// Record writes one audit row. Old and new data are serialized to JSON;
// values that fail to serialize are recorded as their Go string form so a
// marshalling problem never loses the audit trail entirely.
func (s *Service) Record(tableName string, recordID uint, action string, oldData, newData interface{}, changedBy string) {
	if changedBy == "" {
		changedBy = "system"
	}

	entry := &Log{
		Table:     tableName,
		RecordID:  recordID,
		Action:    action,
		OldData:   marshalSnapshot(oldData),
		NewData:   marshalSnapshot(newData),
		ChangedBy: changedBy,
		ChangedAt: time.Now(),
	}

	if err := s.db.Create(entry).Error; err != nil {
		s.logger.WithFields(logrus.Fields{
			"table_name": tableName,
			"record_id":  recordID,
			"action":     action,
			"error":      err.Error(),
		}).Warn("failed to write audit record")
	}
}

func marshalSnapshot(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

// ListRequest represents the admin audit log query
type ListRequest struct {
	Page      int    `form:"page"`
	Limit     int    `form:"limit"`
	TableName string `form:"table_name"`
	Action    string `form:"action"`
	ChangedBy string `form:"changed_by"`
	DateFrom  string `form:"date_from"`
	DateTo    string `form:"date_to"`
}

// ListResponse represents a page of audit records
type ListResponse struct {
	Logs       []Log      `json:"logs"`
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

// GetLogs returns audit records filtered by table, action, user and date range.
func (s *Service) GetLogs(req *ListRequest) (*ListResponse, error) {
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 50
	}

	query := s.db.Model(&Log{})

	if req.TableName != "" {
		query = query.Where("table_name = ?", req.TableName)
	}
	if req.Action != "" {
		query = query.Where("action = ?", req.Action)
	}
	if req.ChangedBy != "" {
		query = query.Where("changed_by = ?", req.ChangedBy)
	}
	if req.DateFrom != "" {
		if from, err := time.Parse("2006-01-02", req.DateFrom); err == nil {
			query = query.Where("changed_at >= ?", from)
		}
	}
	if req.DateTo != "" {
		if to, err := time.Parse("2006-01-02", req.DateTo); err == nil {
			query = query.Where("changed_at < ?", to.AddDate(0, 0, 1))
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count audit records: %w", err)
	}

	var logs []Log
	offset := (req.Page - 1) * req.Limit
	if err := query.Order("changed_at DESC").Offset(offset).Limit(req.Limit).Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch audit records: %w", err)
	}

	totalPages := int((total + int64(req.Limit) - 1) / int64(req.Limit))

	return &ListResponse{
		Logs: logs,
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
