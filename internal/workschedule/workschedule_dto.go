package workschedule

type UpsertScheduleRequest struct {
	EmployeeID   string `json:"employee_id" binding:"required,uuid"`
	DayOfWeek    int    `json:"day_of_week"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	IsWorkingDay *bool  `json:"is_working_day"`
}

type ScheduleResponse struct {
	ID           string `json:"id"`
	EmployeeID   string `json:"employee_id"`
	DayOfWeek    int    `json:"day_of_week"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	IsWorkingDay bool   `json:"is_working_day"`
}
