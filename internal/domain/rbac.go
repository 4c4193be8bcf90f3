package domain

type EnforceRequest struct {
	EmployeeID string
	CompanyID  string
	Resource   string
	Action     string
}

type EmployeeRole struct {
	EmployeeID string
	RoleID     string
}

type RolePermission struct {
	RoleID   string
	Resource string
	Action   string
}
