package rbac

import (
	"github.com/kikoon-ek/hr-erp/internal/domain"

	"gorm.io/gorm"
)

type Repository interface {
	GetEmployeeRoles(companyID string) ([]domain.EmployeeRole, error)
	GetRolePermissions(companyID string) ([]domain.RolePermission, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetEmployeeRoles(companyID string) ([]domain.EmployeeRole, error) {
	var roles []domain.EmployeeRole
	err := r.db.
		Table("employee_roles").
		Select("employee_id::text AS employee_id, role_id::text AS role_id").
		Where("company_id = ?", companyID).
		Scan(&roles).Error
	return roles, err
}

func (r *repository) GetRolePermissions(companyID string) ([]domain.RolePermission, error) {
	var perms []domain.RolePermission
	err := r.db.
		Table("role_permissions").
		Select("role_id::text AS role_id, resource, action").
		Where("company_id = ?", companyID).
		Scan(&perms).Error
	return perms, err
}
