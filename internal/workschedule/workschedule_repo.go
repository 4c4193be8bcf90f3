package workschedule

import (
	"context"
	"database/sql"

	"github.com/kikoon-ek/hr-erp/internal/tenant"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Upsert(ctx context.Context, s *WorkSchedule) error
	FindByEmployee(ctx context.Context, companyID, employeeID string) ([]WorkSchedule, error)
	FindByEmployeeAndDay(ctx context.Context, companyID, employeeID string, dayOfWeek int) (*WorkSchedule, error)
	DeleteByEmployeeAndDay(ctx context.Context, companyID, employeeID string, dayOfWeek int) error
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

func (r *repository) Upsert(ctx context.Context, s *WorkSchedule) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "employee_id"}, {Name: "day_of_week"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"start_time", "end_time", "is_working_day", "updated_at",
			}),
		}).
		Create(s).Error
}

func (r *repository) FindByEmployee(ctx context.Context, companyID, employeeID string) ([]WorkSchedule, error) {
	var rows []WorkSchedule
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("employee_id = ?", employeeID).
		Order("day_of_week ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) FindByEmployeeAndDay(ctx context.Context, companyID, employeeID string, dayOfWeek int) (*WorkSchedule, error) {
	var s WorkSchedule
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("employee_id = ?", employeeID).
		Where("day_of_week = ?", dayOfWeek).
		First(&s).Error
	return &s, err
}

func (r *repository) DeleteByEmployeeAndDay(ctx context.Context, companyID, employeeID string, dayOfWeek int) error {
	return r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("employee_id = ?", employeeID).
		Where("day_of_week = ?", dayOfWeek).
		Delete(&WorkSchedule{}).Error
}
