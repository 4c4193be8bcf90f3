package workschedule

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WorkSchedule holds one weekday row per employee. DayOfWeek runs
// 0=Monday through 6=Sunday.
type WorkSchedule struct {
	ID           uuid.UUID      `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID    uuid.UUID      `gorm:"column:company_id;type:uuid;not null;index"`
	EmployeeID   uuid.UUID      `gorm:"column:employee_id;type:uuid;not null;uniqueIndex:uq_schedule_employee_day"`
	DayOfWeek    int            `gorm:"column:day_of_week;not null;uniqueIndex:uq_schedule_employee_day"`
	StartTime    string         `gorm:"column:start_time;type:varchar(5);not null;default:'09:00'"`
	EndTime      string         `gorm:"column:end_time;type:varchar(5);not null;default:'18:00'"`
	IsWorkingDay bool           `gorm:"column:is_working_day;not null;default:true"`
	CreatedAt    time.Time      `gorm:"column:created_at"`
	UpdatedAt    time.Time      `gorm:"column:updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (WorkSchedule) TableName() string {
	return "work_schedules"
}
