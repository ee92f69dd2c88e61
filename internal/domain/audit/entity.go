// internal/domain/audit/entity.go
package audit

import "time"

// Actions recorded in the audit log.
const (
	ActionCreate = "CREATE"
	ActionUpdate = "UPDATE"
	ActionDelete = "DELETE"
)

// Log is one append-only audit record. OldData and NewData hold JSON
// snapshots of the mutated record before and after the change.
type Log struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Table     string    `json:"table_name" gorm:"column:table_name;index;not null;size:100"`
	RecordID  uint      `json:"record_id" gorm:"index;not null"`
	Action    string    `json:"action" gorm:"index;not null;size:20"`
	OldData   string    `json:"old_data" gorm:"type:text"`
	NewData   string    `json:"new_data" gorm:"type:text"`
	ChangedBy string    `json:"changed_by" gorm:"index;size:255"`
	ChangedAt time.Time `json:"changed_at" gorm:"index;not null"`
}

// TableName returns the table name for Log model
func (Log) TableName() string {
	return "audit_logs"
}
