package attendance

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Attendance statuses. Absence split: "absent" is an excused absence,
// "unauthorized_absence" is not, and only the latter pair breaks a perfect
// month for monthly accrual.
const (
	StatusPresent             = "present"
	StatusLate                = "late"
	StatusEarlyLeave          = "early_leave"
	StatusAbsent              = "absent"
	StatusUnauthorizedAbsence = "unauthorized_absence"
	StatusOnLeave             = "on_leave"
)

type Attendance struct {
	ID            uuid.UUID      `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID     uuid.UUID      `gorm:"column:company_id;type:uuid;not null;index"`
	EmployeeID    uuid.UUID      `gorm:"column:employee_id;type:uuid;not null;index"`
	WorkDate      time.Time      `gorm:"column:work_date;type:date;not null;index"`
	CheckIn       *time.Time     `gorm:"column:check_in;type:timestamptz"`
	CheckOut      *time.Time     `gorm:"column:check_out;type:timestamptz"`
	Status        string         `gorm:"column:status;type:varchar(30);not null;default:present"`
	WorkHours     float64        `gorm:"column:work_hours;not null;default:0"`
	OvertimeHours float64        `gorm:"column:overtime_hours;not null;default:0"`
	Notes         *string        `gorm:"column:notes;type:text"`
	CreatedAt     time.Time      `gorm:"column:created_at"`
	UpdatedAt     time.Time      `gorm:"column:updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"column:deleted_at;index"`
	Employee      *EmployeeRef   `gorm:"foreignKey:EmployeeID;references:ID"`
}

func (Attendance) TableName() string {
	return "attendances"
}

type EmployeeRef struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	EmployeeNumber string    `gorm:"column:employee_number"`
	FullName       string    `gorm:"column:full_name"`
}

func (EmployeeRef) TableName() string {
	return "employees"
}
