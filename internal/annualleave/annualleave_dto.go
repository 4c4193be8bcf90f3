package annualleave

type CreateGrantRequest struct {
	EmployeeID string   `json:"employee_id" binding:"required,uuid"`
	Year       int      `json:"year" binding:"required,min=2000,max=2100"`
	TotalDays  float64  `json:"total_days" binding:"required,gt=0"`
	GrantDate  string   `json:"grant_date"`
	GrantBasis string   `json:"grant_basis" binding:"omitempty,oneof=hire_date fiscal_year"`
	Note       *string  `json:"note"`
}

type RecordUsageRequest struct {
	EmployeeID string  `json:"employee_id" binding:"required,uuid"`
	UsageDate  string  `json:"usage_date" binding:"required"`
	LeaveType  string  `json:"leave_type" binding:"omitempty,oneof=full half quarter"`
	UsedDays   float64 `json:"used_days"`
	Note       *string `json:"note"`
}

type AutoGrantRequest struct {
	Year       int    `json:"year"`
	GrantBasis string `json:"grant_basis" binding:"omitempty,oneof=hire_date fiscal_year"`
}

type GrantResponse struct {
	ID                  string  `json:"id"`
	EmployeeID          string  `json:"employee_id"`
	Year                int     `json:"year"`
	GrantType           string  `json:"grant_type"`
	GrantBasis          string  `json:"grant_basis"`
	GrantPeriod         int     `json:"grant_period,omitempty"`
	GrantDate           string  `json:"grant_date"`
	TotalDays           float64 `json:"total_days"`
	IsPerfectAttendance bool    `json:"is_perfect_attendance"`
	Note                *string `json:"note,omitempty"`
}

type UsageResponse struct {
	ID              string  `json:"id"`
	EmployeeID      string  `json:"employee_id"`
	UsageDate       string  `json:"usage_date"`
	UsedDays        float64 `json:"used_days"`
	LeaveType       string  `json:"leave_type"`
	LinkedRequestID *string `json:"linked_request_id,omitempty"`
	Note            *string `json:"note,omitempty"`
}

type BalanceResponse struct {
	EmployeeID  string  `json:"employee_id"`
	Year        int     `json:"year"`
	Granted     float64 `json:"granted"`
	Used        float64 `json:"used"`
	PendingHold float64 `json:"pending_hold"`
	Remaining   float64 `json:"remaining"`
}

// AccrualFailure records one employee the batch run could not process.
type AccrualFailure struct {
	EmployeeID string `json:"employee_id"`
	Reason     string `json:"reason"`
}

type AccrualResultResponse struct {
	Year             int              `json:"year"`
	GrantBasis       string           `json:"grant_basis"`
	ProcessedCount   int              `json:"processed_count"`
	TotalGrantedDays float64          `json:"total_granted_days"`
	Failures         []AccrualFailure `json:"failures"`
}
