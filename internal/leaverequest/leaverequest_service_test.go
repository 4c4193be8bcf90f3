package leaverequest_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/kikoon-ek/hr-erp/internal/annualleave"
	"github.com/kikoon-ek/hr-erp/internal/audit"
	"github.com/kikoon-ek/hr-erp/internal/employee"
	"github.com/kikoon-ek/hr-erp/internal/leaverequest"
	leaverequesterrors "github.com/kikoon-ek/hr-erp/internal/leaverequest/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type fakeRequestRepository struct {
	withTxFn         func(tx *sql.Tx) leaverequest.Repository
	createFn         func(ctx context.Context, r *leaverequest.Request) error
	findFn           func(ctx context.Context, companyID, id string) (*leaverequest.Request, error)
	markProcessedFn  func(ctx context.Context, r *leaverequest.Request) error
	softDeleteFn     func(ctx context.Context, companyID, id string) error
	hasOverlappingFn func(ctx context.Context, companyID, employeeID string, start, end time.Time) (bool, error)
	listFn           func(ctx context.Context, companyID string, filter leaverequest.ListFilter) ([]leaverequest.Request, error)
	countByStatusFn  func(ctx context.Context, companyID string) (leaverequest.StatusCounts, error)
	countSinceFn     func(ctx context.Context, companyID string, since time.Time) (int64, int64, error)
}

func (f *fakeRequestRepository) WithTx(tx *sql.Tx) leaverequest.Repository {
	if f.withTxFn != nil {
		return f.withTxFn(tx)
	}
	return f
}

func (f *fakeRequestRepository) Create(ctx context.Context, r *leaverequest.Request) error {
	if f.createFn != nil {
		return f.createFn(ctx, r)
	}
	return nil
}

func (f *fakeRequestRepository) FindByIDAndCompany(ctx context.Context, companyID, id string) (*leaverequest.Request, error) {
	if f.findFn != nil {
		return f.findFn(ctx, companyID, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRequestRepository) MarkProcessed(ctx context.Context, r *leaverequest.Request) error {
	if f.markProcessedFn != nil {
		return f.markProcessedFn(ctx, r)
	}
	return nil
}

func (f *fakeRequestRepository) SoftDelete(ctx context.Context, companyID, id string) error {
	if f.softDeleteFn != nil {
		return f.softDeleteFn(ctx, companyID, id)
	}
	return nil
}

func (f *fakeRequestRepository) HasOverlapping(ctx context.Context, companyID, employeeID string, start, end time.Time) (bool, error) {
	if f.hasOverlappingFn != nil {
		return f.hasOverlappingFn(ctx, companyID, employeeID, start, end)
	}
	return false, nil
}

func (f *fakeRequestRepository) ListByCompany(ctx context.Context, companyID string, filter leaverequest.ListFilter) ([]leaverequest.Request, error) {
	if f.listFn != nil {
		return f.listFn(ctx, companyID, filter)
	}
	return nil, nil
}

func (f *fakeRequestRepository) CountByStatus(ctx context.Context, companyID string) (leaverequest.StatusCounts, error) {
	if f.countByStatusFn != nil {
		return f.countByStatusFn(ctx, companyID)
	}
	return leaverequest.StatusCounts{}, nil
}

func (f *fakeRequestRepository) CountSince(ctx context.Context, companyID string, since time.Time) (int64, int64, error) {
	if f.countSinceFn != nil {
		return f.countSinceFn(ctx, companyID, since)
	}
	return 0, 0, nil
}

// fakeBalanceLedger covers only the methods the request flow touches. The
// rest return zero values.
type fakeBalanceLedger struct {
	createUsageFn           func(ctx context.Context, u *annualleave.Usage) error
	sumGrantedDaysFn        func(ctx context.Context, companyID, employeeID string, year int) (float64, error)
	sumUsedDaysFn           func(ctx context.Context, companyID, employeeID string, year int) (float64, error)
	sumPendingRequestDaysFn func(ctx context.Context, companyID, employeeID string, year int, excludeRequestID *string) (float64, error)
	lockEmployeeFn          func(ctx context.Context, companyID, employeeID string) error
}

func (f *fakeBalanceLedger) WithTx(tx *sql.Tx) annualleave.Repository { return f }

func (f *fakeBalanceLedger) CreateGrant(ctx context.Context, g *annualleave.Grant) error { return nil }

func (f *fakeBalanceLedger) CreateUsage(ctx context.Context, u *annualleave.Usage) error {
	if f.createUsageFn != nil {
		return f.createUsageFn(ctx, u)
	}
	return nil
}

func (f *fakeBalanceLedger) HasGrant(ctx context.Context, companyID, employeeID string, year int, grantType, grantBasis string, grantPeriod int) (bool, error) {
	return false, nil
}

func (f *fakeBalanceLedger) ListGrants(ctx context.Context, companyID string, filter annualleave.GrantFilter) ([]annualleave.Grant, error) {
	return nil, nil
}

func (f *fakeBalanceLedger) ListUsages(ctx context.Context, companyID string, filter annualleave.UsageFilter) ([]annualleave.Usage, error) {
	return nil, nil
}

func (f *fakeBalanceLedger) SumGrantedDays(ctx context.Context, companyID, employeeID string, year int) (float64, error) {
	if f.sumGrantedDaysFn != nil {
		return f.sumGrantedDaysFn(ctx, companyID, employeeID, year)
	}
	return 0, nil
}

func (f *fakeBalanceLedger) SumUsedDays(ctx context.Context, companyID, employeeID string, year int) (float64, error) {
	if f.sumUsedDaysFn != nil {
		return f.sumUsedDaysFn(ctx, companyID, employeeID, year)
	}
	return 0, nil
}

func (f *fakeBalanceLedger) SumPendingRequestDays(ctx context.Context, companyID, employeeID string, year int, excludeRequestID *string) (float64, error) {
	if f.sumPendingRequestDaysFn != nil {
		return f.sumPendingRequestDaysFn(ctx, companyID, employeeID, year, excludeRequestID)
	}
	return 0, nil
}

func (f *fakeBalanceLedger) AttendanceYearStats(ctx context.Context, companyID, employeeID string, year int) (int64, int64, error) {
	return 0, 0, nil
}

func (f *fakeBalanceLedger) IsMonthPerfect(ctx context.Context, companyID, employeeID string, year, month int) (bool, error) {
	return false, nil
}

func (f *fakeBalanceLedger) LockEmployee(ctx context.Context, companyID, employeeID string) error {
	if f.lockEmployeeFn != nil {
		return f.lockEmployeeFn(ctx, companyID, employeeID)
	}
	return nil
}

type fakeEmployeeDirectory struct {
	findByIDAndCompanyFn func(ctx context.Context, companyID, id string) (*employee.Employee, error)
}

func (f *fakeEmployeeDirectory) FindByIDAndCompany(ctx context.Context, companyID, id string) (*employee.Employee, error) {
	if f.findByIDAndCompanyFn != nil {
		return f.findByIDAndCompanyFn(ctx, companyID, id)
	}
	return &employee.Employee{}, nil
}

func (f *fakeEmployeeDirectory) FindActiveByCompany(ctx context.Context, companyID string) ([]employee.Employee, error) {
	return nil, nil
}

type fakeAuditRecorder struct {
	entries []audit.Entry
}

func (f *fakeAuditRecorder) Record(ctx context.Context, entry audit.Entry) {
	f.entries = append(f.entries, entry)
}

type requestServiceDeps struct {
	db        *sql.DB
	sqlMock   sqlmock.Sqlmock
	repo      *fakeRequestRepository
	ledger    *fakeBalanceLedger
	directory *fakeEmployeeDirectory
	audit     *fakeAuditRecorder
}

func setupRequestTest(t *testing.T, now time.Time) (*requestServiceDeps, leaverequest.Service) {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)

	repo := &fakeRequestRepository{}
	ledger := &fakeBalanceLedger{}
	directory := &fakeEmployeeDirectory{}
	auditRec := &fakeAuditRecorder{}
	svc := leaverequest.NewServiceWithClock(db, repo, ledger, directory, auditRec, func() time.Time { return now })

	return &requestServiceDeps{
		db:        db,
		sqlMock:   sqlMock,
		repo:      repo,
		ledger:    ledger,
		directory: directory,
		audit:     auditRec,
	}, svc
}

func expectTx(t *testing.T, mock sqlmock.Sqlmock, commit bool) {
	t.Helper()
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

func TestLeaveRequestService_Create(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New().String()
	actorID := uuid.New().String()
	employeeID := uuid.New().String()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("success half day type over three days", func(t *testing.T) {
		deps, svc := setupRequestTest(t, now)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)

		deps.ledger.sumGrantedDaysFn = func(ctx context.Context, _, _ string, _ int) (float64, error) {
			return 15, nil
		}

		var created *leaverequest.Request
		deps.repo.createFn = func(ctx context.Context, r *leaverequest.Request) error {
			created = r
			return nil
		}

		resp, err := svc.Create(ctx, companyID, actorID, leaverequest.CreateRequest{
			EmployeeID: employeeID,
			StartDate:  "2026-03-10",
			EndDate:    "2026-03-12",
			LeaveType:  "half",
		})
		assert.NoError(t, err)
		assert.NotNil(t, created)
		assert.Equal(t, 1.5, resp.TotalDays)
		assert.Equal(t, leaverequest.StatusPending, resp.Status)
		assert.Len(t, deps.audit.entries, 1)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative insufficient balance", func(t *testing.T) {
		deps, svc := setupRequestTest(t, now)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)

		// Granted 5, used 3, another 1.5 pending: only 0.5 remains.
		deps.ledger.sumGrantedDaysFn = func(ctx context.Context, _, _ string, _ int) (float64, error) {
			return 5, nil
		}
		deps.ledger.sumUsedDaysFn = func(ctx context.Context, _, _ string, _ int) (float64, error) {
			return 3, nil
		}
		deps.ledger.sumPendingRequestDaysFn = func(ctx context.Context, _, _ string, _ int, exclude *string) (float64, error) {
			assert.Nil(t, exclude)
			return 1.5, nil
		}

		created := false
		deps.repo.createFn = func(ctx context.Context, r *leaverequest.Request) error {
			created = true
			return nil
		}

		_, err := svc.Create(ctx, companyID, actorID, leaverequest.CreateRequest{
			EmployeeID: employeeID,
			StartDate:  "2026-03-10",
			EndDate:    "2026-03-10",
			LeaveType:  "full",
		})
		assert.ErrorIs(t, err, leaverequesterrors.ErrInsufficientBalance)
		assert.False(t, created)
		assert.Empty(t, deps.audit.entries)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative overlapping request", func(t *testing.T) {
		deps, svc := setupRequestTest(t, now)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)

		deps.ledger.sumGrantedDaysFn = func(ctx context.Context, _, _ string, _ int) (float64, error) {
			return 15, nil
		}
		deps.repo.hasOverlappingFn = func(ctx context.Context, _, _ string, _, _ time.Time) (bool, error) {
			return true, nil
		}

		_, err := svc.Create(ctx, companyID, actorID, leaverequest.CreateRequest{
			EmployeeID: employeeID,
			StartDate:  "2026-03-10",
			EndDate:    "2026-03-11",
			LeaveType:  "full",
		})
		assert.ErrorIs(t, err, leaverequesterrors.ErrOverlappingRequest)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative start date in the past", func(t *testing.T) {
		deps, svc := setupRequestTest(t, now)
		defer deps.db.Close()

		_, err := svc.Create(ctx, companyID, actorID, leaverequest.CreateRequest{
			EmployeeID: employeeID,
			StartDate:  "2026-02-27",
			EndDate:    "2026-02-28",
			LeaveType:  "full",
		})
		assert.ErrorIs(t, err, leaverequesterrors.ErrPastStartDate)
	})

	t.Run("negative end before start", func(t *testing.T) {
		deps, svc := setupRequestTest(t, now)
		defer deps.db.Close()

		_, err := svc.Create(ctx, companyID, actorID, leaverequest.CreateRequest{
			EmployeeID: employeeID,
			StartDate:  "2026-03-12",
			EndDate:    "2026-03-10",
			LeaveType:  "full",
		})
		assert.ErrorIs(t, err, leaverequesterrors.ErrInvalidDateRange)
	})

	t.Run("negative unknown employee", func(t *testing.T) {
		deps, svc := setupRequestTest(t, now)
		defer deps.db.Close()

		deps.directory.findByIDAndCompanyFn = func(ctx context.Context, _, _ string) (*employee.Employee, error) {
			return nil, gorm.ErrRecordNotFound
		}

		_, err := svc.Create(ctx, companyID, actorID, leaverequest.CreateRequest{
			EmployeeID: employeeID,
			StartDate:  "2026-03-10",
			EndDate:    "2026-03-10",
			LeaveType:  "full",
		})
		assert.ErrorIs(t, err, leaverequesterrors.ErrEmployeeNotFound)
	})
}

func pendingRequest(companyID, employeeID string) *leaverequest.Request {
	return &leaverequest.Request{
		ID:         uuid.New(),
		CompanyID:  uuid.MustParse(companyID),
		EmployeeID: uuid.MustParse(employeeID),
		StartDate:  time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC),
		LeaveType:  "half",
		TotalDays:  1.5,
		Status:     leaverequest.StatusPending,
	}
}

func TestLeaveRequestService_Approve(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New().String()
	approverID := uuid.New().String()
	employeeID := uuid.New().String()
	now := time.Date(2026, 3, 5, 14, 0, 0, 0, time.UTC)

	t.Run("success creates usage and flips status", func(t *testing.T) {
		deps, svc := setupRequestTest(t, now)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)

		req := pendingRequest(companyID, employeeID)
		deps.repo.findFn = func(ctx context.Context, _, id string) (*leaverequest.Request, error) {
			return req, nil
		}
		deps.ledger.sumGrantedDaysFn = func(ctx context.Context, _, _ string, _ int) (float64, error) {
			return 15, nil
		}
		deps.ledger.sumPendingRequestDaysFn = func(ctx context.Context, _, _ string, _ int, exclude *string) (float64, error) {
			// The request under approval must not count against itself.
			if assert.NotNil(t, exclude) {
				assert.Equal(t, req.ID.String(), *exclude)
			}
			return 0, nil
		}

		var usage *annualleave.Usage
		deps.ledger.createUsageFn = func(ctx context.Context, u *annualleave.Usage) error {
			usage = u
			return nil
		}

		var processed *leaverequest.Request
		deps.repo.markProcessedFn = func(ctx context.Context, r *leaverequest.Request) error {
			processed = r
			return nil
		}

		resp, err := svc.Approve(ctx, companyID, approverID, req.ID.String(), leaverequest.ApproveRequest{})
		assert.NoError(t, err)
		assert.Equal(t, leaverequest.StatusApproved, resp.Status)
		if assert.NotNil(t, usage) {
			assert.Equal(t, 1.5, usage.UsedDays)
			assert.Equal(t, "half", usage.LeaveType)
			if assert.NotNil(t, usage.LinkedRequestID) {
				assert.Equal(t, req.ID, *usage.LinkedRequestID)
			}
		}
		if assert.NotNil(t, processed) {
			assert.Equal(t, leaverequest.StatusApproved, processed.Status)
			if assert.NotNil(t, processed.UsageID) {
				assert.Equal(t, usage.ID, *processed.UsageID)
			}
		}
		assert.Len(t, deps.audit.entries, 1)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative insufficient balance keeps request pending", func(t *testing.T) {
		deps, svc := setupRequestTest(t, now)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)

		req := pendingRequest(companyID, employeeID)
		deps.repo.findFn = func(ctx context.Context, _, id string) (*leaverequest.Request, error) {
			return req, nil
		}
		deps.ledger.sumGrantedDaysFn = func(ctx context.Context, _, _ string, _ int) (float64, error) {
			return 5, nil
		}
		deps.ledger.sumUsedDaysFn = func(ctx context.Context, _, _ string, _ int) (float64, error) {
			return 4, nil
		}

		usageCreated := false
		deps.ledger.createUsageFn = func(ctx context.Context, u *annualleave.Usage) error {
			usageCreated = true
			return nil
		}
		processed := false
		deps.repo.markProcessedFn = func(ctx context.Context, r *leaverequest.Request) error {
			processed = true
			return nil
		}

		_, err := svc.Approve(ctx, companyID, approverID, req.ID.String(), leaverequest.ApproveRequest{})
		assert.ErrorIs(t, err, leaverequesterrors.ErrInsufficientBalance)
		assert.False(t, usageCreated)
		assert.False(t, processed)
		assert.Empty(t, deps.audit.entries)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative already processed", func(t *testing.T) {
		deps, svc := setupRequestTest(t, now)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)

		req := pendingRequest(companyID, employeeID)
		req.Status = leaverequest.StatusApproved
		deps.repo.findFn = func(ctx context.Context, _, id string) (*leaverequest.Request, error) {
			return req, nil
		}

		_, err := svc.Approve(ctx, companyID, approverID, req.ID.String(), leaverequest.ApproveRequest{})
		assert.ErrorIs(t, err, leaverequesterrors.ErrAlreadyProcessed)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative not found", func(t *testing.T) {
		deps, svc := setupRequestTest(t, now)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)

		_, err := svc.Approve(ctx, companyID, approverID, uuid.New().String(), leaverequest.ApproveRequest{})
		assert.ErrorIs(t, err, leaverequesterrors.ErrRequestNotFound)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestLeaveRequestService_Reject(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New().String()
	approverID := uuid.New().String()
	employeeID := uuid.New().String()
	now := time.Date(2026, 3, 5, 14, 0, 0, 0, time.UTC)

	t.Run("success", func(t *testing.T) {
		deps, svc := setupRequestTest(t, now)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)

		req := pendingRequest(companyID, employeeID)
		deps.repo.findFn = func(ctx context.Context, _, id string) (*leaverequest.Request, error) {
			return req, nil
		}

		notes := "insufficient coverage that week"
		resp, err := svc.Reject(ctx, companyID, approverID, req.ID.String(), leaverequest.RejectRequest{Notes: &notes})
		assert.NoError(t, err)
		assert.Equal(t, leaverequest.StatusRejected, resp.Status)
		if assert.NotNil(t, resp.ApprovalNotes) {
			assert.Equal(t, notes, *resp.ApprovalNotes)
		}
		assert.Len(t, deps.audit.entries, 1)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative malformed request id", func(t *testing.T) {
		deps, svc := setupRequestTest(t, now)
		defer deps.db.Close()

		_, err := svc.Reject(ctx, companyID, approverID, "not-a-uuid", leaverequest.RejectRequest{})
		assert.ErrorIs(t, err, leaverequesterrors.ErrInvalidRequestID)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative rejecting twice", func(t *testing.T) {
		deps, svc := setupRequestTest(t, now)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)

		req := pendingRequest(companyID, employeeID)
		req.Status = leaverequest.StatusRejected
		deps.repo.findFn = func(ctx context.Context, _, id string) (*leaverequest.Request, error) {
			return req, nil
		}

		_, err := svc.Reject(ctx, companyID, approverID, req.ID.String(), leaverequest.RejectRequest{})
		assert.ErrorIs(t, err, leaverequesterrors.ErrAlreadyProcessed)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestLeaveRequestService_Delete(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New().String()
	actorID := uuid.New().String()
	employeeID := uuid.New().String()
	now := time.Date(2026, 3, 5, 14, 0, 0, 0, time.UTC)

	t.Run("success pending request", func(t *testing.T) {
		deps, svc := setupRequestTest(t, now)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)

		req := pendingRequest(companyID, employeeID)
		deps.repo.findFn = func(ctx context.Context, _, id string) (*leaverequest.Request, error) {
			return req, nil
		}

		deleted := false
		deps.repo.softDeleteFn = func(ctx context.Context, _, id string) error {
			deleted = true
			assert.Equal(t, req.ID.String(), id)
			return nil
		}

		err := svc.Delete(ctx, companyID, actorID, req.ID.String())
		assert.NoError(t, err)
		assert.True(t, deleted)
		assert.Len(t, deps.audit.entries, 1)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative malformed request id", func(t *testing.T) {
		deps, svc := setupRequestTest(t, now)
		defer deps.db.Close()

		err := svc.Delete(ctx, companyID, actorID, "not-a-uuid")
		assert.ErrorIs(t, err, leaverequesterrors.ErrInvalidRequestID)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative approved request is immutable", func(t *testing.T) {
		deps, svc := setupRequestTest(t, now)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)

		req := pendingRequest(companyID, employeeID)
		req.Status = leaverequest.StatusApproved
		deps.repo.findFn = func(ctx context.Context, _, id string) (*leaverequest.Request, error) {
			return req, nil
		}

		deleted := false
		deps.repo.softDeleteFn = func(ctx context.Context, _, _ string) error {
			deleted = true
			return nil
		}

		err := svc.Delete(ctx, companyID, actorID, req.ID.String())
		assert.ErrorIs(t, err, leaverequesterrors.ErrOnlyPendingDeletable)
		assert.False(t, deleted)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestLeaveRequestService_GetStatistics(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New().String()
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

	t.Run("success", func(t *testing.T) {
		deps, svc := setupRequestTest(t, now)
		defer deps.db.Close()

		deps.repo.countByStatusFn = func(ctx context.Context, _ string) (leaverequest.StatusCounts, error) {
			return leaverequest.StatusCounts{Total: 8, Pending: 2, Approved: 5, Rejected: 1}, nil
		}
		deps.repo.countSinceFn = func(ctx context.Context, _ string, since time.Time) (int64, int64, error) {
			assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), since)
			return 3, 2, nil
		}

		resp, err := svc.GetStatistics(ctx, companyID)
		assert.NoError(t, err)
		assert.Equal(t, int64(8), resp.TotalRequests)
		assert.Equal(t, 62.5, resp.ApprovalRate)
		assert.Equal(t, int64(3), resp.MonthRequests)
		assert.Equal(t, int64(2), resp.MonthApproved)
	})

	t.Run("negative zero requests means zero rate", func(t *testing.T) {
		deps, svc := setupRequestTest(t, now)
		defer deps.db.Close()

		resp, err := svc.GetStatistics(ctx, companyID)
		assert.NoError(t, err)
		assert.Equal(t, 0.0, resp.ApprovalRate)
	})

	t.Run("negative count error", func(t *testing.T) {
		deps, svc := setupRequestTest(t, now)
		defer deps.db.Close()

		deps.repo.countByStatusFn = func(ctx context.Context, _ string) (leaverequest.StatusCounts, error) {
			return leaverequest.StatusCounts{}, errors.New("connection reset")
		}

		_, err := svc.GetStatistics(ctx, companyID)
		assert.Error(t, err)
	})
}
