package leaverequest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kikoon-ek/hr-erp/internal/annualleave"
	"github.com/kikoon-ek/hr-erp/internal/audit"
	leaverequesterrors "github.com/kikoon-ek/hr-erp/internal/leaverequest/errors"
	"github.com/kikoon-ek/hr-erp/internal/shared/contextutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service interface {
	Create(ctx context.Context, companyID, actorID string, req CreateRequest) (RequestResponse, error)
	Approve(ctx context.Context, companyID, actorID, requestID string, req ApproveRequest) (RequestResponse, error)
	Reject(ctx context.Context, companyID, actorID, requestID string, req RejectRequest) (RequestResponse, error)
	Delete(ctx context.Context, companyID, actorID, requestID string) error
	GetAll(ctx context.Context, companyID string, filter ListFilter) ([]RequestResponse, error)
	GetStatistics(ctx context.Context, companyID string) (StatisticsResponse, error)
}

type service struct {
	db        *sql.DB
	repo      Repository
	ledger    annualleave.Repository
	employees annualleave.EmployeeDirectory
	audit     audit.Recorder
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(
	db *sql.DB,
	repo Repository,
	ledger annualleave.Repository,
	employees annualleave.EmployeeDirectory,
	auditRec audit.Recorder,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("leaverequest.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leaverequest.service")
	}
	return &service{
		db:        db,
		repo:      repo,
		ledger:    ledger,
		employees: employees,
		audit:     auditRec,
		logger:    l,
		now:       time.Now,
	}
}

// NewServiceWithClock pins the service clock for deterministic tests.
func NewServiceWithClock(
	db *sql.DB,
	repo Repository,
	ledger annualleave.Repository,
	employees annualleave.EmployeeDirectory,
	auditRec audit.Recorder,
	now func() time.Time,
	logger ...*zap.Logger,
) Service {
	svc := NewService(db, repo, ledger, employees, auditRec, logger...).(*service)
	svc.now = now
	return svc
}

// TotalDays applies the leave-type multiplier to the inclusive calendar span.
// A 3-day half request therefore costs 1.5 days; the multiplier compounds
// with the span by policy.
func TotalDays(leaveType string, start, end time.Time) (float64, error) {
	multiplier, ok := annualleave.DaysForLeaveType(leaveType)
	if !ok {
		return 0, leaverequesterrors.ErrInvalidLeaveType
	}
	span := int(end.Sub(start).Hours()/24) + 1
	return multiplier * float64(span), nil
}

func (s *service) Create(ctx context.Context, companyID, actorID string, req CreateRequest) (RequestResponse, error) {
	companyUUID, err := uuid.Parse(companyID)
	if err != nil {
		return RequestResponse{}, leaverequesterrors.ErrInvalidCompanyID
	}
	employeeUUID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		return RequestResponse{}, leaverequesterrors.ErrInvalidEmployeeID
	}

	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return RequestResponse{}, leaverequesterrors.ErrInvalidDateFormat
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return RequestResponse{}, leaverequesterrors.ErrInvalidDateFormat
	}
	if start.After(end) {
		return RequestResponse{}, leaverequesterrors.ErrInvalidDateRange
	}

	today := s.now().UTC().Truncate(24 * time.Hour)
	if start.Before(today) {
		return RequestResponse{}, leaverequesterrors.ErrPastStartDate
	}

	totalDays, err := TotalDays(req.LeaveType, start, end)
	if err != nil {
		return RequestResponse{}, err
	}

	if _, err := s.employees.FindByIDAndCompany(ctx, companyID, req.EmployeeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RequestResponse{}, leaverequesterrors.ErrEmployeeNotFound
		}
		return RequestResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return RequestResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	ledgerTx := s.ledger.WithTx(tx)

	if err := ledgerTx.LockEmployee(ctx, companyID, req.EmployeeID); err != nil {
		return RequestResponse{}, err
	}

	balance, err := annualleave.BalanceWithin(ctx, ledgerTx, companyID, req.EmployeeID, start.Year(), nil)
	if err != nil {
		return RequestResponse{}, err
	}
	if totalDays > balance.Remaining {
		return RequestResponse{}, leaverequesterrors.ErrInsufficientBalance
	}

	overlap, err := qtx.HasOverlapping(ctx, companyID, req.EmployeeID, start, end)
	if err != nil {
		return RequestResponse{}, err
	}
	if overlap {
		return RequestResponse{}, leaverequesterrors.ErrOverlappingRequest
	}

	row := &Request{
		ID:         uuid.New(),
		CompanyID:  companyUUID,
		EmployeeID: employeeUUID,
		StartDate:  start,
		EndDate:    end,
		LeaveType:  req.LeaveType,
		TotalDays:  totalDays,
		Reason:     req.Reason,
		Status:     StatusPending,
	}

	if err := qtx.Create(ctx, row); err != nil {
		return RequestResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		return RequestResponse{}, err
	}

	s.audit.Record(ctx, audit.Entry{
		Action:     "CREATE",
		EntityType: "leave_request",
		EntityID:   row.ID.String(),
		CompanyID:  companyID,
		ActorID:    actorID,
		Message: fmt.Sprintf("Leave requested: employee %s, %s to %s, %.2f days",
			req.EmployeeID, req.StartDate, req.EndDate, totalDays),
	})

	s.logger.Info("leave request created",
		zap.String("request_id", contextutil.GetRequestID(ctx)),
		zap.String("leave_request_id", row.ID.String()),
		zap.Float64("total_days", totalDays),
	)
	return mapToResponse(*row), nil
}

// Approve re-validates the balance under the per-employee lock, then writes
// the Usage and the status flip in one transaction. The request's own
// pending hold is excluded from the check so it is not counted against
// itself.
func (s *service) Approve(ctx context.Context, companyID, actorID, requestID string, req ApproveRequest) (RequestResponse, error) {
	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return RequestResponse{}, leaverequesterrors.ErrInvalidRequestID
	}
	if _, err := uuid.Parse(requestID); err != nil {
		return RequestResponse{}, leaverequesterrors.ErrInvalidRequestID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return RequestResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	ledgerTx := s.ledger.WithTx(tx)

	row, err := qtx.FindByIDAndCompany(ctx, companyID, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RequestResponse{}, leaverequesterrors.ErrRequestNotFound
		}
		return RequestResponse{}, err
	}
	if row.Status != StatusPending {
		return RequestResponse{}, leaverequesterrors.ErrAlreadyProcessed
	}

	if err := ledgerTx.LockEmployee(ctx, companyID, row.EmployeeID.String()); err != nil {
		return RequestResponse{}, err
	}

	exclude := requestID
	balance, err := annualleave.BalanceWithin(ctx, ledgerTx, companyID, row.EmployeeID.String(), row.StartDate.Year(), &exclude)
	if err != nil {
		return RequestResponse{}, err
	}
	if row.TotalDays > balance.Remaining {
		return RequestResponse{}, leaverequesterrors.ErrInsufficientBalance
	}

	usage := &annualleave.Usage{
		ID:              uuid.New(),
		CompanyID:       row.CompanyID,
		EmployeeID:      row.EmployeeID,
		UsageDate:       row.StartDate,
		UsedDays:        row.TotalDays,
		LeaveType:       row.LeaveType,
		LinkedRequestID: &row.ID,
		Note:            row.Reason,
		CreatedBy:       &actorUUID,
	}
	if err := ledgerTx.CreateUsage(ctx, usage); err != nil {
		return RequestResponse{}, err
	}

	approvedAt := s.now().UTC()
	row.Status = StatusApproved
	row.ApprovedBy = &actorUUID
	row.ApprovedAt = &approvedAt
	row.ApprovalNotes = req.Notes
	row.UsageID = &usage.ID

	if err := qtx.MarkProcessed(ctx, row); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RequestResponse{}, leaverequesterrors.ErrAlreadyProcessed
		}
		return RequestResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		return RequestResponse{}, err
	}

	s.audit.Record(ctx, audit.Entry{
		Action:     "APPROVE",
		EntityType: "leave_request",
		EntityID:   row.ID.String(),
		CompanyID:  companyID,
		ActorID:    actorID,
		Message: fmt.Sprintf("Leave request approved: employee %s, %s to %s, %.2f days",
			row.EmployeeID, row.StartDate.Format("2006-01-02"), row.EndDate.Format("2006-01-02"), row.TotalDays),
	})

	return mapToResponse(*row), nil
}

func (s *service) Reject(ctx context.Context, companyID, actorID, requestID string, req RejectRequest) (RequestResponse, error) {
	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return RequestResponse{}, leaverequesterrors.ErrInvalidRequestID
	}
	if _, err := uuid.Parse(requestID); err != nil {
		return RequestResponse{}, leaverequesterrors.ErrInvalidRequestID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return RequestResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	row, err := qtx.FindByIDAndCompany(ctx, companyID, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RequestResponse{}, leaverequesterrors.ErrRequestNotFound
		}
		return RequestResponse{}, err
	}
	if row.Status != StatusPending {
		return RequestResponse{}, leaverequesterrors.ErrAlreadyProcessed
	}

	processedAt := s.now().UTC()
	row.Status = StatusRejected
	row.ApprovedBy = &actorUUID
	row.ApprovedAt = &processedAt
	row.ApprovalNotes = req.Notes

	if err := qtx.MarkProcessed(ctx, row); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RequestResponse{}, leaverequesterrors.ErrAlreadyProcessed
		}
		return RequestResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		return RequestResponse{}, err
	}

	s.audit.Record(ctx, audit.Entry{
		Action:     "REJECT",
		EntityType: "leave_request",
		EntityID:   row.ID.String(),
		CompanyID:  companyID,
		ActorID:    actorID,
		Message: fmt.Sprintf("Leave request rejected: employee %s, %s to %s",
			row.EmployeeID, row.StartDate.Format("2006-01-02"), row.EndDate.Format("2006-01-02")),
	})

	return mapToResponse(*row), nil
}

func (s *service) Delete(ctx context.Context, companyID, actorID, requestID string) error {
	if _, err := uuid.Parse(requestID); err != nil {
		return leaverequesterrors.ErrInvalidRequestID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	row, err := qtx.FindByIDAndCompany(ctx, companyID, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return leaverequesterrors.ErrRequestNotFound
		}
		return err
	}
	if row.Status != StatusPending {
		return leaverequesterrors.ErrOnlyPendingDeletable
	}

	if err := qtx.SoftDelete(ctx, companyID, requestID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	s.audit.Record(ctx, audit.Entry{
		Action:     "DELETE",
		EntityType: "leave_request",
		EntityID:   requestID,
		CompanyID:  companyID,
		ActorID:    actorID,
		Message: fmt.Sprintf("Leave request deleted: employee %s, %s to %s, %.2f days",
			row.EmployeeID, row.StartDate.Format("2006-01-02"), row.EndDate.Format("2006-01-02"), row.TotalDays),
	})

	return nil
}

func (s *service) GetAll(ctx context.Context, companyID string, filter ListFilter) ([]RequestResponse, error) {
	rows, err := s.repo.ListByCompany(ctx, companyID, filter)
	if err != nil {
		return nil, err
	}
	res := make([]RequestResponse, len(rows))
	for i, r := range rows {
		res[i] = mapToResponse(r)
	}
	return res, nil
}

func (s *service) GetStatistics(ctx context.Context, companyID string) (StatisticsResponse, error) {
	counts, err := s.repo.CountByStatus(ctx, companyID)
	if err != nil {
		return StatisticsResponse{}, err
	}

	now := s.now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthTotal, monthApproved, err := s.repo.CountSince(ctx, companyID, monthStart)
	if err != nil {
		return StatisticsResponse{}, err
	}

	approvalRate := 0.0
	if counts.Total > 0 {
		approvalRate = float64(counts.Approved) / float64(counts.Total) * 100
	}

	return StatisticsResponse{
		TotalRequests:    counts.Total,
		PendingRequests:  counts.Pending,
		ApprovedRequests: counts.Approved,
		RejectedRequests: counts.Rejected,
		ApprovalRate:     approvalRate,
		MonthRequests:    monthTotal,
		MonthApproved:    monthApproved,
	}, nil
}

func mapToResponse(r Request) RequestResponse {
	resp := RequestResponse{
		ID:            r.ID.String(),
		EmployeeID:    r.EmployeeID.String(),
		StartDate:     r.StartDate.Format("2006-01-02"),
		EndDate:       r.EndDate.Format("2006-01-02"),
		LeaveType:     r.LeaveType,
		TotalDays:     r.TotalDays,
		Reason:        r.Reason,
		Status:        r.Status,
		ApprovalNotes: r.ApprovalNotes,
	}
	if r.ApprovedBy != nil {
		v := r.ApprovedBy.String()
		resp.ApprovedBy = &v
	}
	if r.ApprovedAt != nil {
		v := r.ApprovedAt.Format(time.RFC3339)
		resp.ApprovedAt = &v
	}
	if r.UsageID != nil {
		v := r.UsageID.String()
		resp.UsageID = &v
	}
	return resp
}
