package annualleave

import (
	"context"
	"database/sql"
	"time"

	"github.com/kikoon-ek/hr-erp/internal/tenant"

	"gorm.io/gorm"
)

type GrantFilter struct {
	EmployeeID string
	Year       int
}

type UsageFilter struct {
	EmployeeID string
	From       *time.Time
	To         *time.Time
}

// Repository is the grant/usage ledger. Balance aggregation and the per
// employee lock run as raw SQL through the current transaction so accrual
// and approval decisions read their own writes.
type Repository interface {
	WithTx(tx *sql.Tx) Repository

	CreateGrant(ctx context.Context, g *Grant) error
	CreateUsage(ctx context.Context, u *Usage) error
	HasGrant(ctx context.Context, companyID, employeeID string, year int, grantType, grantBasis string, grantPeriod int) (bool, error)
	ListGrants(ctx context.Context, companyID string, filter GrantFilter) ([]Grant, error)
	ListUsages(ctx context.Context, companyID string, filter UsageFilter) ([]Usage, error)

	SumGrantedDays(ctx context.Context, companyID, employeeID string, year int) (float64, error)
	SumUsedDays(ctx context.Context, companyID, employeeID string, year int) (float64, error)
	SumPendingRequestDays(ctx context.Context, companyID, employeeID string, year int, excludeRequestID *string) (float64, error)

	AttendanceYearStats(ctx context.Context, companyID, employeeID string, year int) (attended, total int64, err error)
	IsMonthPerfect(ctx context.Context, companyID, employeeID string, year, month int) (bool, error)

	// LockEmployee takes the per-employee row lock that serializes
	// balance-affecting writes. Only meaningful inside a transaction.
	LockEmployee(ctx context.Context, companyID, employeeID string) error
}

type repository struct {
	db    *gorm.DB
	sqlDB *sql.DB
	tx    *sql.Tx
}

func NewRepository(db *gorm.DB, sqlDB *sql.DB) Repository {
	return &repository{db: db, sqlDB: sqlDB}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, sqlDB: r.sqlDB, tx: tx}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *repository) querier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.sqlDB
}

func (r *repository) CreateGrant(ctx context.Context, g *Grant) error {
	query := `
        INSERT INTO annual_leave_grants (
            id, company_id, employee_id, year, grant_type, grant_basis, grant_period,
            grant_date, total_days, is_perfect_attendance, note, created_by, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now())
    `
	_, err := r.querier().ExecContext(
		ctx, query,
		g.ID, g.CompanyID, g.EmployeeID, g.Year, g.GrantType, g.GrantBasis, g.GrantPeriod,
		g.GrantDate.Format("2006-01-02"), g.TotalDays, g.IsPerfectAttendance, g.Note, g.CreatedBy,
	)
	return err
}

func (r *repository) CreateUsage(ctx context.Context, u *Usage) error {
	query := `
        INSERT INTO annual_leave_usages (
            id, company_id, employee_id, usage_date, used_days, leave_type,
            linked_request_id, note, created_by, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
    `
	_, err := r.querier().ExecContext(
		ctx, query,
		u.ID, u.CompanyID, u.EmployeeID, u.UsageDate.Format("2006-01-02"), u.UsedDays,
		u.LeaveType, u.LinkedRequestID, u.Note, u.CreatedBy,
	)
	return err
}

func (r *repository) HasGrant(ctx context.Context, companyID, employeeID string, year int, grantType, grantBasis string, grantPeriod int) (bool, error) {
	query := `
        SELECT COUNT(*)
        FROM annual_leave_grants
        WHERE company_id = $1
          AND employee_id = $2
          AND year = $3
          AND grant_type = $4
          AND grant_basis = $5
          AND grant_period = $6
    `
	var count int64
	err := r.querier().QueryRowContext(ctx, query, companyID, employeeID, year, grantType, grantBasis, grantPeriod).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) ListGrants(ctx context.Context, companyID string, filter GrantFilter) ([]Grant, error) {
	q := r.db.WithContext(ctx).Scopes(tenant.Scope(companyID))
	if filter.EmployeeID != "" {
		q = q.Where("employee_id = ?", filter.EmployeeID)
	}
	if filter.Year != 0 {
		q = q.Where("year = ?", filter.Year)
	}

	var rows []Grant
	err := q.Order("year DESC, grant_date DESC").Find(&rows).Error
	return rows, err
}

func (r *repository) ListUsages(ctx context.Context, companyID string, filter UsageFilter) ([]Usage, error) {
	q := r.db.WithContext(ctx).Scopes(tenant.Scope(companyID))
	if filter.EmployeeID != "" {
		q = q.Where("employee_id = ?", filter.EmployeeID)
	}
	if filter.From != nil {
		q = q.Where("usage_date >= ?", filter.From.Format("2006-01-02"))
	}
	if filter.To != nil {
		q = q.Where("usage_date <= ?", filter.To.Format("2006-01-02"))
	}

	var rows []Usage
	err := q.Order("usage_date DESC").Find(&rows).Error
	return rows, err
}

func (r *repository) SumGrantedDays(ctx context.Context, companyID, employeeID string, year int) (float64, error) {
	query := `
        SELECT COALESCE(SUM(total_days), 0)
        FROM annual_leave_grants
        WHERE company_id = $1 AND employee_id = $2 AND year = $3
    `
	var sum float64
	err := r.querier().QueryRowContext(ctx, query, companyID, employeeID, year).Scan(&sum)
	return sum, err
}

func (r *repository) SumUsedDays(ctx context.Context, companyID, employeeID string, year int) (float64, error) {
	query := `
        SELECT COALESCE(SUM(used_days), 0)
        FROM annual_leave_usages
        WHERE company_id = $1
          AND employee_id = $2
          AND EXTRACT(YEAR FROM usage_date) = $3
    `
	var sum float64
	err := r.querier().QueryRowContext(ctx, query, companyID, employeeID, year).Scan(&sum)
	return sum, err
}

func (r *repository) SumPendingRequestDays(ctx context.Context, companyID, employeeID string, year int, excludeRequestID *string) (float64, error) {
	query := `
        SELECT COALESCE(SUM(total_days), 0)
        FROM annual_leave_requests
        WHERE company_id = $1
          AND employee_id = $2
          AND status = 'pending'
          AND start_date <= $3
          AND end_date >= $4
          AND ($5::uuid IS NULL OR id <> $5)
          AND deleted_at IS NULL
    `
	yearEnd := time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
	yearStart := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC).Format("2006-01-02")

	var sum float64
	err := r.querier().QueryRowContext(ctx, query, companyID, employeeID, yearEnd, yearStart, excludeRequestID).Scan(&sum)
	return sum, err
}

func (r *repository) AttendanceYearStats(ctx context.Context, companyID, employeeID string, year int) (int64, int64, error) {
	query := `
        SELECT
            COUNT(*) FILTER (WHERE status IN ('present', 'late')),
            COUNT(*)
        FROM attendances
        WHERE company_id = $1
          AND employee_id = $2
          AND work_date >= $3
          AND work_date <= $4
          AND deleted_at IS NULL
    `
	from := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
	to := time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC).Format("2006-01-02")

	var attended, total int64
	err := r.querier().QueryRowContext(ctx, query, companyID, employeeID, from, to).Scan(&attended, &total)
	return attended, total, err
}

func (r *repository) IsMonthPerfect(ctx context.Context, companyID, employeeID string, year, month int) (bool, error) {
	query := `
        SELECT
            COUNT(*),
            COUNT(*) FILTER (WHERE status IN ('absent', 'unauthorized_absence'))
        FROM attendances
        WHERE company_id = $1
          AND employee_id = $2
          AND work_date >= $3
          AND work_date < $4
          AND deleted_at IS NULL
    `
	monthStart := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	nextMonth := monthStart.AddDate(0, 1, 0)

	var total, absences int64
	err := r.querier().QueryRowContext(
		ctx, query,
		companyID, employeeID,
		monthStart.Format("2006-01-02"), nextMonth.Format("2006-01-02"),
	).Scan(&total, &absences)
	if err != nil {
		return false, err
	}

	// A month with no records at all fails closed.
	return total > 0 && absences == 0, nil
}

func (r *repository) LockEmployee(ctx context.Context, companyID, employeeID string) error {
	query := `SELECT id FROM employees WHERE company_id = $1 AND id = $2 FOR UPDATE`
	var id string
	return r.querier().QueryRowContext(ctx, query, companyID, employeeID).Scan(&id)
}
