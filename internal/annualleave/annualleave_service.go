package annualleave

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	annualleaveerrors "github.com/kikoon-ek/hr-erp/internal/annualleave/errors"
	"github.com/kikoon-ek/hr-erp/internal/audit"
	"github.com/kikoon-ek/hr-erp/internal/employee"
	"github.com/kikoon-ek/hr-erp/internal/shared/contextutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// EmployeeDirectory is the slice of the employee repository the ledger
// needs: roster iteration for accrual runs and hire-date lookups.
type EmployeeDirectory interface {
	FindByIDAndCompany(ctx context.Context, companyID string, id string) (*employee.Employee, error)
	FindActiveByCompany(ctx context.Context, companyID string) ([]employee.Employee, error)
}

type Service interface {
	CreateGrant(ctx context.Context, companyID, actorID string, req CreateGrantRequest) (GrantResponse, error)
	RecordUsage(ctx context.Context, companyID, actorID string, req RecordUsageRequest) (UsageResponse, error)
	GetBalance(ctx context.Context, companyID, employeeID string, year int) (BalanceResponse, error)
	GetGrants(ctx context.Context, companyID string, filter GrantFilter) ([]GrantResponse, error)
	GetUsages(ctx context.Context, companyID string, filter UsageFilter) ([]UsageResponse, error)
	RunAccrual(ctx context.Context, companyID, actorID string, req AutoGrantRequest) (AccrualResultResponse, error)
}

type service struct {
	db        *sql.DB
	repo      Repository
	employees EmployeeDirectory
	audit     audit.Recorder
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(db *sql.DB, repo Repository, employees EmployeeDirectory, auditRec audit.Recorder, logger ...*zap.Logger) Service {
	l := zap.L().Named("annualleave.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("annualleave.service")
	}
	return &service{
		db:        db,
		repo:      repo,
		employees: employees,
		audit:     auditRec,
		logger:    l,
		now:       time.Now,
	}
}

// NewServiceWithClock pins the service clock for deterministic tests.
func NewServiceWithClock(db *sql.DB, repo Repository, employees EmployeeDirectory, auditRec audit.Recorder, now func() time.Time, logger ...*zap.Logger) Service {
	svc := NewService(db, repo, employees, auditRec, logger...).(*service)
	svc.now = now
	return svc
}

func (s *service) CreateGrant(ctx context.Context, companyID, actorID string, req CreateGrantRequest) (GrantResponse, error) {
	companyUUID, err := uuid.Parse(companyID)
	if err != nil {
		return GrantResponse{}, annualleaveerrors.ErrInvalidCompanyID
	}
	employeeUUID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		return GrantResponse{}, annualleaveerrors.ErrInvalidEmployeeID
	}

	grantDate := s.now().UTC().Truncate(24 * time.Hour)
	if req.GrantDate != "" {
		grantDate, err = time.Parse("2006-01-02", req.GrantDate)
		if err != nil {
			return GrantResponse{}, annualleaveerrors.ErrInvalidDateFormat
		}
	}

	basis := req.GrantBasis
	if basis == "" {
		basis = GrantBasisHireDate
	}

	if _, err := s.employees.FindByIDAndCompany(ctx, companyID, req.EmployeeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return GrantResponse{}, annualleaveerrors.ErrEmployeeNotFound
		}
		return GrantResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return GrantResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	if err := qtx.LockEmployee(ctx, companyID, req.EmployeeID); err != nil {
		return GrantResponse{}, err
	}

	exists, err := qtx.HasGrant(ctx, companyID, req.EmployeeID, req.Year, GrantTypeAnnual, basis, 0)
	if err != nil {
		return GrantResponse{}, err
	}
	if exists {
		return GrantResponse{}, annualleaveerrors.ErrDuplicateGrant
	}

	actorUUID := parseActor(actorID)
	g := &Grant{
		ID:         uuid.New(),
		CompanyID:  companyUUID,
		EmployeeID: employeeUUID,
		Year:       req.Year,
		GrantType:  GrantTypeAnnual,
		GrantBasis: basis,
		GrantDate:  grantDate,
		TotalDays:  req.TotalDays,
		Note:       req.Note,
		CreatedBy:  actorUUID,
	}

	if err := qtx.CreateGrant(ctx, g); err != nil {
		return GrantResponse{}, mapLedgerError(err)
	}
	if err := tx.Commit(); err != nil {
		return GrantResponse{}, err
	}

	s.audit.Record(ctx, audit.Entry{
		Action:     "CREATE",
		EntityType: "annual_leave_grant",
		EntityID:   g.ID.String(),
		CompanyID:  companyID,
		ActorID:    actorID,
		Message:    fmt.Sprintf("Leave granted: employee %s, year %d, %.1f days", req.EmployeeID, req.Year, req.TotalDays),
	})

	s.logger.Info("manual grant created",
		zap.String("request_id", contextutil.GetRequestID(ctx)),
		zap.String("employee_id", req.EmployeeID),
		zap.Int("year", req.Year),
		zap.Float64("total_days", req.TotalDays),
	)
	return mapGrantToResponse(*g), nil
}

func (s *service) RecordUsage(ctx context.Context, companyID, actorID string, req RecordUsageRequest) (UsageResponse, error) {
	companyUUID, err := uuid.Parse(companyID)
	if err != nil {
		return UsageResponse{}, annualleaveerrors.ErrInvalidCompanyID
	}
	employeeUUID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		return UsageResponse{}, annualleaveerrors.ErrInvalidEmployeeID
	}
	usageDate, err := time.Parse("2006-01-02", req.UsageDate)
	if err != nil {
		return UsageResponse{}, annualleaveerrors.ErrInvalidDateFormat
	}

	leaveType := req.LeaveType
	if leaveType == "" {
		leaveType = LeaveTypeFull
	}
	typeDays, ok := DaysForLeaveType(leaveType)
	if !ok {
		return UsageResponse{}, annualleaveerrors.ErrInvalidLeaveType
	}
	usedDays := req.UsedDays
	if usedDays == 0 {
		usedDays = typeDays
	}
	if usedDays != typeDays {
		return UsageResponse{}, annualleaveerrors.ErrUsageDaysMismatch
	}

	if _, err := s.employees.FindByIDAndCompany(ctx, companyID, req.EmployeeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return UsageResponse{}, annualleaveerrors.ErrEmployeeNotFound
		}
		return UsageResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return UsageResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	if err := qtx.LockEmployee(ctx, companyID, req.EmployeeID); err != nil {
		return UsageResponse{}, err
	}

	balance, err := balanceInTx(ctx, qtx, companyID, req.EmployeeID, usageDate.Year(), nil)
	if err != nil {
		return UsageResponse{}, err
	}
	if usedDays > balance.Remaining {
		return UsageResponse{}, annualleaveerrors.ErrInsufficientBalance
	}

	u := &Usage{
		ID:         uuid.New(),
		CompanyID:  companyUUID,
		EmployeeID: employeeUUID,
		UsageDate:  usageDate,
		UsedDays:   usedDays,
		LeaveType:  leaveType,
		Note:       req.Note,
		CreatedBy:  parseActor(actorID),
	}

	if err := qtx.CreateUsage(ctx, u); err != nil {
		return UsageResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		return UsageResponse{}, err
	}

	s.audit.Record(ctx, audit.Entry{
		Action:     "CREATE",
		EntityType: "annual_leave_usage",
		EntityID:   u.ID.String(),
		CompanyID:  companyID,
		ActorID:    actorID,
		Message:    fmt.Sprintf("Leave used: employee %s, %s, %.2f days (%s)", req.EmployeeID, req.UsageDate, usedDays, leaveType),
	})

	return mapUsageToResponse(*u), nil
}

func (s *service) GetBalance(ctx context.Context, companyID, employeeID string, year int) (BalanceResponse, error) {
	if _, err := uuid.Parse(employeeID); err != nil {
		return BalanceResponse{}, annualleaveerrors.ErrInvalidEmployeeID
	}
	if year == 0 {
		year = s.now().UTC().Year()
	}

	if _, err := s.employees.FindByIDAndCompany(ctx, companyID, employeeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return BalanceResponse{}, annualleaveerrors.ErrEmployeeNotFound
		}
		return BalanceResponse{}, err
	}

	return balanceInTx(ctx, s.repo, companyID, employeeID, year, nil)
}

// balanceInTx aggregates one employee/year balance through the given
// repository view, which may be transaction-bound. excludeRequestID removes a
// request's own hold so approval does not double count it.
func balanceInTx(ctx context.Context, repo Repository, companyID, employeeID string, year int, excludeRequestID *string) (BalanceResponse, error) {
	granted, err := repo.SumGrantedDays(ctx, companyID, employeeID, year)
	if err != nil {
		return BalanceResponse{}, err
	}
	used, err := repo.SumUsedDays(ctx, companyID, employeeID, year)
	if err != nil {
		return BalanceResponse{}, err
	}
	pending, err := repo.SumPendingRequestDays(ctx, companyID, employeeID, year, excludeRequestID)
	if err != nil {
		return BalanceResponse{}, err
	}

	return BalanceResponse{
		EmployeeID:  employeeID,
		Year:        year,
		Granted:     granted,
		Used:        used,
		PendingHold: pending,
		Remaining:   granted - used - pending,
	}, nil
}

// BalanceWithin exposes the transaction-bound balance aggregation to the
// request workflow, which runs it under its own lock.
func BalanceWithin(ctx context.Context, repo Repository, companyID, employeeID string, year int, excludeRequestID *string) (BalanceResponse, error) {
	return balanceInTx(ctx, repo, companyID, employeeID, year, excludeRequestID)
}

func (s *service) GetGrants(ctx context.Context, companyID string, filter GrantFilter) ([]GrantResponse, error) {
	rows, err := s.repo.ListGrants(ctx, companyID, filter)
	if err != nil {
		return nil, err
	}
	res := make([]GrantResponse, len(rows))
	for i, g := range rows {
		res[i] = mapGrantToResponse(g)
	}
	return res, nil
}

func (s *service) GetUsages(ctx context.Context, companyID string, filter UsageFilter) ([]UsageResponse, error) {
	rows, err := s.repo.ListUsages(ctx, companyID, filter)
	if err != nil {
		return nil, err
	}
	res := make([]UsageResponse, len(rows))
	for i, u := range rows {
		res[i] = mapUsageToResponse(u)
	}
	return res, nil
}

func parseActor(actorID string) *uuid.UUID {
	if actorID == "" {
		return nil
	}
	id, err := uuid.Parse(actorID)
	if err != nil {
		return nil
	}
	return &id
}

func mapGrantToResponse(g Grant) GrantResponse {
	return GrantResponse{
		ID:                  g.ID.String(),
		EmployeeID:          g.EmployeeID.String(),
		Year:                g.Year,
		GrantType:           g.GrantType,
		GrantBasis:          g.GrantBasis,
		GrantPeriod:         g.GrantPeriod,
		GrantDate:           g.GrantDate.Format("2006-01-02"),
		TotalDays:           g.TotalDays,
		IsPerfectAttendance: g.IsPerfectAttendance,
		Note:                g.Note,
	}
}

func mapUsageToResponse(u Usage) UsageResponse {
	resp := UsageResponse{
		ID:         u.ID.String(),
		EmployeeID: u.EmployeeID.String(),
		UsageDate:  u.UsageDate.Format("2006-01-02"),
		UsedDays:   u.UsedDays,
		LeaveType:  u.LeaveType,
		Note:       u.Note,
	}
	if u.LinkedRequestID != nil {
		v := u.LinkedRequestID.String()
		resp.LinkedRequestID = &v
	}
	return resp
}
