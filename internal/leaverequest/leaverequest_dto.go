package leaverequest

type CreateRequest struct {
	EmployeeID string  `json:"employee_id" binding:"required,uuid"`
	StartDate  string  `json:"start_date" binding:"required"`
	EndDate    string  `json:"end_date" binding:"required"`
	LeaveType  string  `json:"leave_type" binding:"required,oneof=full half quarter"`
	Reason     *string `json:"reason"`
}

type ApproveRequest struct {
	Notes *string `json:"notes"`
}

type RejectRequest struct {
	Notes *string `json:"notes"`
}

type RequestResponse struct {
	ID            string  `json:"id"`
	EmployeeID    string  `json:"employee_id"`
	StartDate     string  `json:"start_date"`
	EndDate       string  `json:"end_date"`
	LeaveType     string  `json:"leave_type"`
	TotalDays     float64 `json:"total_days"`
	Reason        *string `json:"reason,omitempty"`
	Status        string  `json:"status"`
	ApprovedBy    *string `json:"approved_by,omitempty"`
	ApprovedAt    *string `json:"approved_at,omitempty"`
	ApprovalNotes *string `json:"approval_notes,omitempty"`
	UsageID       *string `json:"usage_id,omitempty"`
}

type StatisticsResponse struct {
	TotalRequests    int64   `json:"total_requests"`
	PendingRequests  int64   `json:"pending_requests"`
	ApprovedRequests int64   `json:"approved_requests"`
	RejectedRequests int64   `json:"rejected_requests"`
	ApprovalRate     float64 `json:"approval_rate"`
	MonthRequests    int64   `json:"month_requests"`
	MonthApproved    int64   `json:"month_approved"`
}
