package annualleave_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/kikoon-ek/hr-erp/internal/annualleave"
	annualleaveerrors "github.com/kikoon-ek/hr-erp/internal/annualleave/errors"
	"github.com/kikoon-ek/hr-erp/internal/audit"
	"github.com/kikoon-ek/hr-erp/internal/employee"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeLedgerRepository struct {
	withTxFn                func(tx *sql.Tx) annualleave.Repository
	createGrantFn           func(ctx context.Context, g *annualleave.Grant) error
	createUsageFn           func(ctx context.Context, u *annualleave.Usage) error
	hasGrantFn              func(ctx context.Context, companyID, employeeID string, year int, grantType, grantBasis string, grantPeriod int) (bool, error)
	listGrantsFn            func(ctx context.Context, companyID string, filter annualleave.GrantFilter) ([]annualleave.Grant, error)
	listUsagesFn            func(ctx context.Context, companyID string, filter annualleave.UsageFilter) ([]annualleave.Usage, error)
	sumGrantedDaysFn        func(ctx context.Context, companyID, employeeID string, year int) (float64, error)
	sumUsedDaysFn           func(ctx context.Context, companyID, employeeID string, year int) (float64, error)
	sumPendingRequestDaysFn func(ctx context.Context, companyID, employeeID string, year int, excludeRequestID *string) (float64, error)
	attendanceYearStatsFn   func(ctx context.Context, companyID, employeeID string, year int) (int64, int64, error)
	isMonthPerfectFn        func(ctx context.Context, companyID, employeeID string, year, month int) (bool, error)
	lockEmployeeFn          func(ctx context.Context, companyID, employeeID string) error
}

func (f *fakeLedgerRepository) WithTx(tx *sql.Tx) annualleave.Repository {
	if f.withTxFn != nil {
		return f.withTxFn(tx)
	}
	return f
}

func (f *fakeLedgerRepository) CreateGrant(ctx context.Context, g *annualleave.Grant) error {
	if f.createGrantFn != nil {
		return f.createGrantFn(ctx, g)
	}
	return nil
}

func (f *fakeLedgerRepository) CreateUsage(ctx context.Context, u *annualleave.Usage) error {
	if f.createUsageFn != nil {
		return f.createUsageFn(ctx, u)
	}
	return nil
}

func (f *fakeLedgerRepository) HasGrant(ctx context.Context, companyID, employeeID string, year int, grantType, grantBasis string, grantPeriod int) (bool, error) {
	if f.hasGrantFn != nil {
		return f.hasGrantFn(ctx, companyID, employeeID, year, grantType, grantBasis, grantPeriod)
	}
	return false, nil
}

func (f *fakeLedgerRepository) ListGrants(ctx context.Context, companyID string, filter annualleave.GrantFilter) ([]annualleave.Grant, error) {
	if f.listGrantsFn != nil {
		return f.listGrantsFn(ctx, companyID, filter)
	}
	return nil, nil
}

func (f *fakeLedgerRepository) ListUsages(ctx context.Context, companyID string, filter annualleave.UsageFilter) ([]annualleave.Usage, error) {
	if f.listUsagesFn != nil {
		return f.listUsagesFn(ctx, companyID, filter)
	}
	return nil, nil
}

func (f *fakeLedgerRepository) SumGrantedDays(ctx context.Context, companyID, employeeID string, year int) (float64, error) {
	if f.sumGrantedDaysFn != nil {
		return f.sumGrantedDaysFn(ctx, companyID, employeeID, year)
	}
	return 0, nil
}

func (f *fakeLedgerRepository) SumUsedDays(ctx context.Context, companyID, employeeID string, year int) (float64, error) {
	if f.sumUsedDaysFn != nil {
		return f.sumUsedDaysFn(ctx, companyID, employeeID, year)
	}
	return 0, nil
}

func (f *fakeLedgerRepository) SumPendingRequestDays(ctx context.Context, companyID, employeeID string, year int, excludeRequestID *string) (float64, error) {
	if f.sumPendingRequestDaysFn != nil {
		return f.sumPendingRequestDaysFn(ctx, companyID, employeeID, year, excludeRequestID)
	}
	return 0, nil
}

func (f *fakeLedgerRepository) AttendanceYearStats(ctx context.Context, companyID, employeeID string, year int) (int64, int64, error) {
	if f.attendanceYearStatsFn != nil {
		return f.attendanceYearStatsFn(ctx, companyID, employeeID, year)
	}
	return 0, 0, nil
}

func (f *fakeLedgerRepository) IsMonthPerfect(ctx context.Context, companyID, employeeID string, year, month int) (bool, error) {
	if f.isMonthPerfectFn != nil {
		return f.isMonthPerfectFn(ctx, companyID, employeeID, year, month)
	}
	return false, nil
}

func (f *fakeLedgerRepository) LockEmployee(ctx context.Context, companyID, employeeID string) error {
	if f.lockEmployeeFn != nil {
		return f.lockEmployeeFn(ctx, companyID, employeeID)
	}
	return nil
}

type fakeEmployeeDirectory struct {
	findByIDAndCompanyFn  func(ctx context.Context, companyID, id string) (*employee.Employee, error)
	findActiveByCompanyFn func(ctx context.Context, companyID string) ([]employee.Employee, error)
}

func (f *fakeEmployeeDirectory) FindByIDAndCompany(ctx context.Context, companyID, id string) (*employee.Employee, error) {
	if f.findByIDAndCompanyFn != nil {
		return f.findByIDAndCompanyFn(ctx, companyID, id)
	}
	return &employee.Employee{}, nil
}

func (f *fakeEmployeeDirectory) FindActiveByCompany(ctx context.Context, companyID string) ([]employee.Employee, error) {
	if f.findActiveByCompanyFn != nil {
		return f.findActiveByCompanyFn(ctx, companyID)
	}
	return nil, nil
}

type fakeAuditRecorder struct {
	entries []audit.Entry
}

func (f *fakeAuditRecorder) Record(ctx context.Context, entry audit.Entry) {
	f.entries = append(f.entries, entry)
}

type ledgerServiceDeps struct {
	db        *sql.DB
	sqlMock   sqlmock.Sqlmock
	repo      *fakeLedgerRepository
	directory *fakeEmployeeDirectory
	audit     *fakeAuditRecorder
}

func setupLedgerTest(t *testing.T, now time.Time) (*ledgerServiceDeps, annualleave.Service) {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)

	repo := &fakeLedgerRepository{}
	directory := &fakeEmployeeDirectory{}
	auditRec := &fakeAuditRecorder{}
	svc := annualleave.NewServiceWithClock(db, repo, directory, auditRec, func() time.Time { return now })

	return &ledgerServiceDeps{db: db, sqlMock: sqlMock, repo: repo, directory: directory, audit: auditRec}, svc
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

func TestAnnualLeaveService_CreateGrant(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New().String()
	actorID := uuid.New().String()
	employeeID := uuid.New().String()

	t.Run("success", func(t *testing.T) {
		now := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
		deps, svc := setupLedgerTest(t, now)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)

		var created *annualleave.Grant
		deps.repo.createGrantFn = func(ctx context.Context, g *annualleave.Grant) error {
			created = g
			return nil
		}

		resp, err := svc.CreateGrant(ctx, companyID, actorID, annualleave.CreateGrantRequest{
			EmployeeID: employeeID,
			Year:       2026,
			TotalDays:  15,
		})
		assert.NoError(t, err)
		assert.NotNil(t, created)
		assert.Equal(t, annualleave.GrantTypeAnnual, resp.GrantType)
		assert.Equal(t, annualleave.GrantBasisHireDate, resp.GrantBasis)
		assert.Equal(t, 15.0, resp.TotalDays)
		assert.Len(t, deps.audit.entries, 1)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative duplicate grant", func(t *testing.T) {
		now := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
		deps, svc := setupLedgerTest(t, now)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)

		deps.repo.hasGrantFn = func(ctx context.Context, cid, eid string, year int, grantType, basis string, period int) (bool, error) {
			return true, nil
		}

		_, err := svc.CreateGrant(ctx, companyID, actorID, annualleave.CreateGrantRequest{
			EmployeeID: employeeID,
			Year:       2026,
			TotalDays:  15,
		})
		assert.ErrorIs(t, err, annualleaveerrors.ErrDuplicateGrant)
		assert.Empty(t, deps.audit.entries)
	})
}

func TestAnnualLeaveService_RecordUsage(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New().String()
	actorID := uuid.New().String()
	employeeID := uuid.New().String()

	t.Run("success half day", func(t *testing.T) {
		now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
		deps, svc := setupLedgerTest(t, now)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)

		deps.repo.sumGrantedDaysFn = func(ctx context.Context, cid, eid string, year int) (float64, error) {
			return 15, nil
		}
		deps.repo.sumUsedDaysFn = func(ctx context.Context, cid, eid string, year int) (float64, error) {
			return 3, nil
		}

		var created *annualleave.Usage
		deps.repo.createUsageFn = func(ctx context.Context, u *annualleave.Usage) error {
			created = u
			return nil
		}

		resp, err := svc.RecordUsage(ctx, companyID, actorID, annualleave.RecordUsageRequest{
			EmployeeID: employeeID,
			UsageDate:  "2026-04-10",
			LeaveType:  "half",
		})
		assert.NoError(t, err)
		assert.NotNil(t, created)
		assert.Equal(t, 0.5, resp.UsedDays)
		assert.Equal(t, "half", resp.LeaveType)
	})

	t.Run("negative insufficient balance", func(t *testing.T) {
		now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
		deps, svc := setupLedgerTest(t, now)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)

		deps.repo.sumGrantedDaysFn = func(ctx context.Context, cid, eid string, year int) (float64, error) {
			return 5, nil
		}
		deps.repo.sumUsedDaysFn = func(ctx context.Context, cid, eid string, year int) (float64, error) {
			return 4, nil
		}
		deps.repo.sumPendingRequestDaysFn = func(ctx context.Context, cid, eid string, year int, exclude *string) (float64, error) {
			return 0.75, nil
		}

		created := false
		deps.repo.createUsageFn = func(ctx context.Context, u *annualleave.Usage) error {
			created = true
			return nil
		}

		_, err := svc.RecordUsage(ctx, companyID, actorID, annualleave.RecordUsageRequest{
			EmployeeID: employeeID,
			UsageDate:  "2026-04-10",
			LeaveType:  "full",
		})
		assert.ErrorIs(t, err, annualleaveerrors.ErrInsufficientBalance)
		assert.False(t, created)
	})

	t.Run("negative used_days mismatching leave_type", func(t *testing.T) {
		now := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
		deps, svc := setupLedgerTest(t, now)
		defer deps.db.Close()

		_, err := svc.RecordUsage(ctx, companyID, actorID, annualleave.RecordUsageRequest{
			EmployeeID: employeeID,
			UsageDate:  "2026-04-10",
			LeaveType:  "quarter",
			UsedDays:   1.0,
		})
		assert.ErrorIs(t, err, annualleaveerrors.ErrUsageDaysMismatch)
	})
}

func TestAnnualLeaveService_GetBalance(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New().String()
	employeeID := uuid.New().String()

	t.Run("remaining is granted minus used minus pending", func(t *testing.T) {
		now := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
		deps, svc := setupLedgerTest(t, now)
		defer deps.db.Close()

		deps.repo.sumGrantedDaysFn = func(ctx context.Context, cid, eid string, year int) (float64, error) {
			assert.Equal(t, 2025, year)
			return 16, nil
		}
		deps.repo.sumUsedDaysFn = func(ctx context.Context, cid, eid string, year int) (float64, error) {
			return 4.5, nil
		}
		deps.repo.sumPendingRequestDaysFn = func(ctx context.Context, cid, eid string, year int, exclude *string) (float64, error) {
			assert.Nil(t, exclude)
			return 2, nil
		}

		resp, err := svc.GetBalance(ctx, companyID, employeeID, 2025)
		assert.NoError(t, err)
		assert.Equal(t, 16.0, resp.Granted)
		assert.Equal(t, 4.5, resp.Used)
		assert.Equal(t, 2.0, resp.PendingHold)
		assert.Equal(t, 9.5, resp.Remaining)
	})

	t.Run("zero rows everywhere is a zero balance", func(t *testing.T) {
		now := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
		deps, svc := setupLedgerTest(t, now)
		defer deps.db.Close()

		resp, err := svc.GetBalance(ctx, companyID, employeeID, 0)
		assert.NoError(t, err)
		assert.Equal(t, 2026, resp.Year)
		assert.Zero(t, resp.Remaining)
	})
}

func TestAnnualLeaveService_RunAccrual(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New().String()
	actorID := uuid.New().String()

	newEmployee := func(hire time.Time) employee.Employee {
		return employee.Employee{
			ID:        uuid.New(),
			CompanyID: uuid.MustParse(companyID),
			HireDate:  hire,
			IsActive:  true,
		}
	}

	t.Run("first-year employee routes through monthly path on fiscal run", func(t *testing.T) {
		// Hired 2024-06-15, run on 2025-01-10: tenure well under a year.
		now := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
		deps, svc := setupLedgerTest(t, now)
		defer deps.db.Close()

		emp := newEmployee(time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC))
		deps.directory.findActiveByCompanyFn = func(ctx context.Context, cid string) ([]employee.Employee, error) {
			return []employee.Employee{emp}, nil
		}

		expectTx(t, deps.sqlMock, true)

		// Jun-Nov 2024 were perfect, December was not.
		deps.repo.isMonthPerfectFn = func(ctx context.Context, cid, eid string, year, month int) (bool, error) {
			return month >= 6 && month <= 11, nil
		}

		var grants []annualleave.Grant
		deps.repo.createGrantFn = func(ctx context.Context, g *annualleave.Grant) error {
			grants = append(grants, *g)
			return nil
		}

		result, err := svc.RunAccrual(ctx, companyID, actorID, annualleave.AutoGrantRequest{
			Year:       2024,
			GrantBasis: "fiscal_year",
		})
		assert.NoError(t, err)
		assert.Equal(t, 6, result.ProcessedCount)
		assert.Equal(t, 6.0, result.TotalGrantedDays)
		assert.Empty(t, result.Failures)

		for _, g := range grants {
			assert.Equal(t, annualleave.GrantTypeMonthly, g.GrantType)
			assert.Equal(t, annualleave.GrantBasisHireDate, g.GrantBasis)
			assert.Equal(t, 1.0, g.TotalDays)
			assert.NotZero(t, g.GrantPeriod)
		}
	})

	t.Run("fiscal run grants lump sum for tenured employee", func(t *testing.T) {
		now := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
		deps, svc := setupLedgerTest(t, now)
		defer deps.db.Close()

		// Hired 2020-03-01: tenure to 2025-12-31 is about 5.8 years.
		emp := newEmployee(time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC))
		deps.directory.findActiveByCompanyFn = func(ctx context.Context, cid string) ([]employee.Employee, error) {
			return []employee.Employee{emp}, nil
		}

		expectTx(t, deps.sqlMock, true)

		deps.repo.attendanceYearStatsFn = func(ctx context.Context, cid, eid string, year int) (int64, int64, error) {
			assert.Equal(t, 2025, year)
			return 230, 240, nil
		}

		var created *annualleave.Grant
		deps.repo.createGrantFn = func(ctx context.Context, g *annualleave.Grant) error {
			created = g
			return nil
		}

		result, err := svc.RunAccrual(ctx, companyID, actorID, annualleave.AutoGrantRequest{
			Year:       2026,
			GrantBasis: "fiscal_year",
		})
		assert.NoError(t, err)
		assert.Equal(t, 1, result.ProcessedCount)
		assert.Equal(t, 17.0, result.TotalGrantedDays)
		assert.NotNil(t, created)
		assert.Equal(t, annualleave.GrantBasisFiscalYear, created.GrantBasis)
		assert.Equal(t, 0, created.GrantPeriod)
		assert.Equal(t, "2026-01-01", created.GrantDate.Format("2006-01-02"))
		assert.True(t, created.IsPerfectAttendance)
	})

	t.Run("re-run is a no-op once grants exist", func(t *testing.T) {
		now := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
		deps, svc := setupLedgerTest(t, now)
		defer deps.db.Close()

		emp := newEmployee(time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC))
		deps.directory.findActiveByCompanyFn = func(ctx context.Context, cid string) ([]employee.Employee, error) {
			return []employee.Employee{emp}, nil
		}

		expectTx(t, deps.sqlMock, true)

		deps.repo.hasGrantFn = func(ctx context.Context, cid, eid string, year int, grantType, basis string, period int) (bool, error) {
			return true, nil
		}
		deps.repo.createGrantFn = func(ctx context.Context, g *annualleave.Grant) error {
			t.Fatal("no grant should be created on re-run")
			return nil
		}

		result, err := svc.RunAccrual(ctx, companyID, actorID, annualleave.AutoGrantRequest{
			Year:       2026,
			GrantBasis: "fiscal_year",
		})
		assert.NoError(t, err)
		assert.Zero(t, result.ProcessedCount)
		assert.Zero(t, result.TotalGrantedDays)
	})

	t.Run("single employee failure does not abort the run", func(t *testing.T) {
		now := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
		deps, svc := setupLedgerTest(t, now)
		defer deps.db.Close()

		bad := newEmployee(time.Date(2019, 5, 1, 0, 0, 0, 0, time.UTC))
		good := newEmployee(time.Date(2021, 2, 1, 0, 0, 0, 0, time.UTC))
		deps.directory.findActiveByCompanyFn = func(ctx context.Context, cid string) ([]employee.Employee, error) {
			return []employee.Employee{bad, good}, nil
		}

		// One transaction per employee: the first rolls back, the second commits.
		expectTx(t, deps.sqlMock, false)
		expectTx(t, deps.sqlMock, true)

		deps.repo.lockEmployeeFn = func(ctx context.Context, cid, eid string) error {
			if eid == bad.ID.String() {
				return errors.New("lock timeout")
			}
			return nil
		}
		deps.repo.attendanceYearStatsFn = func(ctx context.Context, cid, eid string, year int) (int64, int64, error) {
			return 240, 240, nil
		}

		result, err := svc.RunAccrual(ctx, companyID, actorID, annualleave.AutoGrantRequest{
			Year:       2026,
			GrantBasis: "hire_date",
		})
		assert.NoError(t, err)
		assert.Len(t, result.Failures, 1)
		assert.Equal(t, bad.ID.String(), result.Failures[0].EmployeeID)
		assert.Equal(t, 1, result.ProcessedCount)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}
