package attendance

type CheckInRequest struct {
	Notes *string `json:"notes"`
}

type CheckOutRequest struct {
	Notes *string `json:"notes"`
}

// CreateRecordRequest is the admin back-entry form: times are optional so a
// full-day absence can be recorded, and status may be forced instead of
// derived from the schedule.
type CreateRecordRequest struct {
	EmployeeID string  `json:"employee_id" binding:"required,uuid"`
	WorkDate   string  `json:"work_date" binding:"required"`
	CheckIn    *string `json:"check_in"`
	CheckOut   *string `json:"check_out"`
	Status     string  `json:"status" binding:"omitempty,oneof=present late early_leave absent unauthorized_absence on_leave"`
	Notes      *string `json:"notes"`
}

type AttendanceResponse struct {
	ID            string  `json:"id"`
	CompanyID     string  `json:"company_id"`
	EmployeeID    string  `json:"employee_id"`
	EmployeeName  string  `json:"employee_name,omitempty"`
	WorkDate      string  `json:"work_date"`
	CheckIn       *string `json:"check_in,omitempty"`
	CheckOut      *string `json:"check_out,omitempty"`
	Status        string  `json:"status"`
	WorkHours     float64 `json:"work_hours"`
	OvertimeHours float64 `json:"overtime_hours"`
	Notes         *string `json:"notes,omitempty"`
}
