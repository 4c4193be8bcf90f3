package leaverequest

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/kikoon-ek/hr-erp/internal/tenant"

	"gorm.io/gorm"
)

type ListFilter struct {
	EmployeeID string
	Status     string
	Year       int
}

type StatusCounts struct {
	Total    int64
	Pending  int64
	Approved int64
	Rejected int64
}

// Repository mixes gorm reads with raw SQL writes: everything that runs
// inside the approval transaction goes through the querier so it shares the
// per-employee lock.
type Repository interface {
	WithTx(tx *sql.Tx) Repository

	Create(ctx context.Context, r *Request) error
	FindByIDAndCompany(ctx context.Context, companyID, id string) (*Request, error)
	MarkProcessed(ctx context.Context, r *Request) error
	SoftDelete(ctx context.Context, companyID, id string) error
	HasOverlapping(ctx context.Context, companyID, employeeID string, start, end time.Time) (bool, error)
	ListByCompany(ctx context.Context, companyID string, filter ListFilter) ([]Request, error)
	CountByStatus(ctx context.Context, companyID string) (StatusCounts, error)
	CountSince(ctx context.Context, companyID string, since time.Time) (total, approved int64, err error)
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
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *repository) querier() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.sqlDB
}

func (r *repository) Create(ctx context.Context, req *Request) error {
	query := `
        INSERT INTO annual_leave_requests (
            id, company_id, employee_id, start_date, end_date, leave_type,
            total_days, reason, status, created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
    `
	_, err := r.querier().ExecContext(
		ctx, query,
		req.ID, req.CompanyID, req.EmployeeID,
		req.StartDate.Format("2006-01-02"), req.EndDate.Format("2006-01-02"),
		req.LeaveType, req.TotalDays, req.Reason, req.Status,
	)
	return err
}

func (r *repository) FindByIDAndCompany(ctx context.Context, companyID, id string) (*Request, error) {
	query := `
        SELECT id, company_id, employee_id, start_date, end_date, leave_type,
               total_days, reason, status, approved_by, approved_at, approval_notes, usage_id
        FROM annual_leave_requests
        WHERE company_id = $1 AND id = $2 AND deleted_at IS NULL
    `
	var req Request
	err := r.querier().QueryRowContext(ctx, query, companyID, id).Scan(
		&req.ID, &req.CompanyID, &req.EmployeeID, &req.StartDate, &req.EndDate,
		&req.LeaveType, &req.TotalDays, &req.Reason, &req.Status,
		&req.ApprovedBy, &req.ApprovedAt, &req.ApprovalNotes, &req.UsageID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, err
	}
	return &req, nil
}

func (r *repository) MarkProcessed(ctx context.Context, req *Request) error {
	query := `
        UPDATE annual_leave_requests
        SET status = $1, approved_by = $2, approved_at = $3, approval_notes = $4,
            usage_id = $5, updated_at = now()
        WHERE id = $6 AND status = 'pending' AND deleted_at IS NULL
    `
	res, err := r.querier().ExecContext(
		ctx, query,
		req.Status, req.ApprovedBy, req.ApprovedAt, req.ApprovalNotes, req.UsageID, req.ID,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) SoftDelete(ctx context.Context, companyID, id string) error {
	query := `
        UPDATE annual_leave_requests
        SET deleted_at = now(), updated_at = now()
        WHERE company_id = $1 AND id = $2 AND deleted_at IS NULL
    `
	_, err := r.querier().ExecContext(ctx, query, companyID, id)
	return err
}

func (r *repository) HasOverlapping(ctx context.Context, companyID, employeeID string, start, end time.Time) (bool, error) {
	query := `
        SELECT COUNT(*)
        FROM annual_leave_requests
        WHERE company_id = $1
          AND employee_id = $2
          AND status IN ('pending', 'approved')
          AND start_date <= $3
          AND end_date >= $4
          AND deleted_at IS NULL
    `
	var count int64
	err := r.querier().QueryRowContext(
		ctx, query,
		companyID, employeeID,
		end.Format("2006-01-02"), start.Format("2006-01-02"),
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) ListByCompany(ctx context.Context, companyID string, filter ListFilter) ([]Request, error) {
	q := r.db.WithContext(ctx).Scopes(tenant.Scope(companyID))
	if filter.EmployeeID != "" {
		q = q.Where("employee_id = ?", filter.EmployeeID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Year != 0 {
		yearStart := time.Date(filter.Year, 1, 1, 0, 0, 0, 0, time.UTC)
		yearEnd := time.Date(filter.Year, 12, 31, 0, 0, 0, 0, time.UTC)
		q = q.Where("start_date <= ? AND end_date >= ?",
			yearEnd.Format("2006-01-02"), yearStart.Format("2006-01-02"))
	}

	var rows []Request
	err := q.Order("created_at DESC").Find(&rows).Error
	return rows, err
}

func (r *repository) CountByStatus(ctx context.Context, companyID string) (StatusCounts, error) {
	query := `
        SELECT
            COUNT(*),
            COUNT(*) FILTER (WHERE status = 'pending'),
            COUNT(*) FILTER (WHERE status = 'approved'),
            COUNT(*) FILTER (WHERE status = 'rejected')
        FROM annual_leave_requests
        WHERE company_id = $1 AND deleted_at IS NULL
    `
	var counts StatusCounts
	err := r.querier().QueryRowContext(ctx, query, companyID).Scan(
		&counts.Total, &counts.Pending, &counts.Approved, &counts.Rejected,
	)
	return counts, err
}

func (r *repository) CountSince(ctx context.Context, companyID string, since time.Time) (int64, int64, error) {
	query := `
        SELECT
            COUNT(*),
            COUNT(*) FILTER (WHERE status = 'approved')
        FROM annual_leave_requests
        WHERE company_id = $1 AND created_at >= $2 AND deleted_at IS NULL
    `
	var total, approved int64
	err := r.querier().QueryRowContext(ctx, query, companyID, since).Scan(&total, &approved)
	return total, approved, err
}
