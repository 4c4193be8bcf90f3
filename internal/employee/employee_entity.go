package employee

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Employee struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID      uuid.UUID  `gorm:"type:uuid;not null;index"`
	UserID         *uuid.UUID `gorm:"type:uuid;index"`
	EmployeeNumber string     `gorm:"type:varchar(30);not null;uniqueIndex:uq_employee_number"`
	FullName       string     `gorm:"type:varchar(120);not null"`
	Email          string     `gorm:"type:varchar(120);not null;uniqueIndex:uq_employee_email"`
	HireDate       time.Time  `gorm:"type:date;not null"`
	IsActive       bool       `gorm:"not null;default:true;index"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (Employee) TableName() string {
	return "employees"
}
