package auth

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID  uuid.UUID  `gorm:"column:company_id;type:uuid;not null;index"`
	EmployeeID *uuid.UUID `gorm:"column:employee_id;type:uuid;uniqueIndex"`
	Name       string     `gorm:"column:name;type:varchar(255);not null"`
	Email      string     `gorm:"column:email;type:varchar(255);uniqueIndex;not null"`
	Password   string     `gorm:"column:password;type:varchar(255);not null"`
	Role       string     `gorm:"column:role;type:varchar(50);not null;default:'EMPLOYEE'"`
	IsActive   bool       `gorm:"column:is_active;default:true"`
	CreatedAt  time.Time  `gorm:"column:created_at"`
	UpdatedAt  time.Time  `gorm:"column:updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"column:deleted_at;index"`
}

func (User) TableName() string {
	return "users"
}
