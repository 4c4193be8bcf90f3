package leaverequest

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Request is the mutable side of the ledger: it transitions exactly once out
// of pending, and an approval links it to the Usage it produced.
type Request struct {
	ID            uuid.UUID      `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID     uuid.UUID      `gorm:"column:company_id;type:uuid;not null;index"`
	EmployeeID    uuid.UUID      `gorm:"column:employee_id;type:uuid;not null;index"`
	StartDate     time.Time      `gorm:"column:start_date;type:date;not null"`
	EndDate       time.Time      `gorm:"column:end_date;type:date;not null"`
	LeaveType     string         `gorm:"column:leave_type;type:varchar(10);not null"`
	TotalDays     float64        `gorm:"column:total_days;not null"`
	Reason        *string        `gorm:"column:reason;type:text"`
	Status        string         `gorm:"column:status;type:varchar(10);not null;default:pending;index"`
	ApprovedBy    *uuid.UUID     `gorm:"column:approved_by;type:uuid"`
	ApprovedAt    *time.Time     `gorm:"column:approved_at"`
	ApprovalNotes *string        `gorm:"column:approval_notes;type:text"`
	UsageID       *uuid.UUID     `gorm:"column:usage_id;type:uuid"`
	CreatedAt     time.Time      `gorm:"column:created_at"`
	UpdatedAt     time.Time      `gorm:"column:updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (Request) TableName() string {
	return "annual_leave_requests"
}
