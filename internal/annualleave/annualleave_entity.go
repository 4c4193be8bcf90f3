package annualleave

import (
	"time"

	"github.com/google/uuid"
)

const (
	GrantTypeAnnual  = "annual"
	GrantTypeMonthly = "monthly"

	GrantBasisHireDate   = "hire_date"
	GrantBasisFiscalYear = "fiscal_year"

	LeaveTypeFull    = "full"
	LeaveTypeHalf    = "half"
	LeaveTypeQuarter = "quarter"
)

// DaysForLeaveType returns the per-day deduction for a leave type, or false
// for an unrecognized type.
func DaysForLeaveType(leaveType string) (float64, bool) {
	switch leaveType {
	case LeaveTypeFull:
		return 1.0, true
	case LeaveTypeHalf:
		return 0.5, true
	case LeaveTypeQuarter:
		return 0.25, true
	default:
		return 0, false
	}
}

// Grant is one immutable accrual event. GrantPeriod is 1-12 for monthly
// grants and 0 for whole-year grants; a NULL here would make the unique key
// stop enforcing, since Postgres treats NULLs as distinct in unique indexes.
type Grant struct {
	ID                  uuid.UUID  `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID           uuid.UUID  `gorm:"column:company_id;type:uuid;not null;index"`
	EmployeeID          uuid.UUID  `gorm:"column:employee_id;type:uuid;not null;uniqueIndex:uq_leave_grant_key"`
	Year                int        `gorm:"column:year;not null;uniqueIndex:uq_leave_grant_key"`
	GrantType           string     `gorm:"column:grant_type;type:varchar(10);not null;uniqueIndex:uq_leave_grant_key"`
	GrantBasis          string     `gorm:"column:grant_basis;type:varchar(15);not null;uniqueIndex:uq_leave_grant_key"`
	GrantPeriod         int        `gorm:"column:grant_period;not null;default:0;uniqueIndex:uq_leave_grant_key"`
	GrantDate           time.Time  `gorm:"column:grant_date;type:date;not null"`
	TotalDays           float64    `gorm:"column:total_days;not null"`
	IsPerfectAttendance bool       `gorm:"column:is_perfect_attendance;not null;default:false"`
	Note                *string    `gorm:"column:note;type:text"`
	CreatedBy           *uuid.UUID `gorm:"column:created_by;type:uuid"`
	CreatedAt           time.Time  `gorm:"column:created_at"`
}

func (Grant) TableName() string {
	return "annual_leave_grants"
}

// Usage is one immutable consumption event, optionally traceable back to the
// leave request that produced it.
type Usage struct {
	ID              uuid.UUID  `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID       uuid.UUID  `gorm:"column:company_id;type:uuid;not null;index"`
	EmployeeID      uuid.UUID  `gorm:"column:employee_id;type:uuid;not null;index"`
	UsageDate       time.Time  `gorm:"column:usage_date;type:date;not null;index"`
	UsedDays        float64    `gorm:"column:used_days;not null"`
	LeaveType       string     `gorm:"column:leave_type;type:varchar(10);not null"`
	LinkedRequestID *uuid.UUID `gorm:"column:linked_request_id;type:uuid"`
	Note            *string    `gorm:"column:note;type:text"`
	CreatedBy       *uuid.UUID `gorm:"column:created_by;type:uuid"`
	CreatedAt       time.Time  `gorm:"column:created_at"`
}

func (Usage) TableName() string {
	return "annual_leave_usages"
}
