package employee_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/kikoon-ek/hr-erp/internal/audit"
	"github.com/kikoon-ek/hr-erp/internal/employee"
	employeeerrors "github.com/kikoon-ek/hr-erp/internal/employee/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeEmployeeRepository struct {
	withTxFn              func(tx *sql.Tx) employee.Repository
	createFn              func(ctx context.Context, e *employee.Employee) error
	findAllByCompanyFn    func(ctx context.Context, companyID string) ([]employee.Employee, error)
	findActiveByCompanyFn func(ctx context.Context, companyID string) ([]employee.Employee, error)
	findByIDAndCompanyFn  func(ctx context.Context, companyID, id string) (*employee.Employee, error)
	updateFn              func(ctx context.Context, e *employee.Employee) error
	deleteFn              func(ctx context.Context, companyID, id string) error
}

func (f *fakeEmployeeRepository) WithTx(tx *sql.Tx) employee.Repository {
	if f.withTxFn != nil {
		return f.withTxFn(tx)
	}
	return f
}

func (f *fakeEmployeeRepository) Create(ctx context.Context, e *employee.Employee) error {
	if f.createFn != nil {
		return f.createFn(ctx, e)
	}
	return nil
}

func (f *fakeEmployeeRepository) FindAllByCompany(ctx context.Context, companyID string) ([]employee.Employee, error) {
	if f.findAllByCompanyFn != nil {
		return f.findAllByCompanyFn(ctx, companyID)
	}
	return nil, nil
}

func (f *fakeEmployeeRepository) FindActiveByCompany(ctx context.Context, companyID string) ([]employee.Employee, error) {
	if f.findActiveByCompanyFn != nil {
		return f.findActiveByCompanyFn(ctx, companyID)
	}
	return nil, nil
}

func (f *fakeEmployeeRepository) FindByIDAndCompany(ctx context.Context, companyID, id string) (*employee.Employee, error) {
	if f.findByIDAndCompanyFn != nil {
		return f.findByIDAndCompanyFn(ctx, companyID, id)
	}
	return nil, nil
}

func (f *fakeEmployeeRepository) Update(ctx context.Context, e *employee.Employee) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, e)
	}
	return nil
}

func (f *fakeEmployeeRepository) Delete(ctx context.Context, companyID, id string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, companyID, id)
	}
	return nil
}

type fakeCounterRepository struct {
	getNextValueFn func(ctx context.Context, companyID, counterType string) (int64, error)
}

func (f *fakeCounterRepository) GetNextValue(ctx context.Context, companyID, counterType string) (int64, error) {
	if f.getNextValueFn != nil {
		return f.getNextValueFn(ctx, companyID, counterType)
	}
	return 1, nil
}

type fakeAuditRecorder struct {
	entries []audit.Entry
}

func (f *fakeAuditRecorder) Record(ctx context.Context, entry audit.Entry) {
	f.entries = append(f.entries, entry)
}

type employeeServiceDeps struct {
	db        *sql.DB
	sqlMock   sqlmock.Sqlmock
	redisMock redismock.ClientMock
	service   employee.Service
	repo      *fakeEmployeeRepository
	counter   *fakeCounterRepository
	audit     *fakeAuditRecorder
}

func setupEmployeeServiceTest(t *testing.T) *employeeServiceDeps {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)

	rdb, redisMock := redismock.NewClientMock()

	repo := &fakeEmployeeRepository{}
	counterRepo := &fakeCounterRepository{}
	auditRec := &fakeAuditRecorder{}
	svc := employee.NewService(db, repo, counterRepo, rdb, auditRec)

	return &employeeServiceDeps{
		db:        db,
		sqlMock:   sqlMock,
		redisMock: redisMock,
		service:   svc,
		repo:      repo,
		counter:   counterRepo,
		audit:     auditRec,
	}
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

func TestEmployeeService_Create(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New().String()
	actorID := uuid.New().String()

	t.Run("success with generated employee number", func(t *testing.T) {
		deps := setupEmployeeServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		deps.redisMock.ExpectDel(employee.GetEmployeeOptionsKey(companyID)).SetVal(1)

		deps.counter.getNextValueFn = func(ctx context.Context, cid, counterType string) (int64, error) {
			assert.Equal(t, companyID, cid)
			assert.Equal(t, "employee_number", counterType)
			return 42, nil
		}

		var created *employee.Employee
		deps.repo.createFn = func(ctx context.Context, e *employee.Employee) error {
			created = e
			return nil
		}

		resp, err := deps.service.Create(ctx, companyID, actorID, employee.CreateEmployeeRequest{
			FullName: "Jane Smith",
			Email:    "jane@example.com",
			HireDate: "2024-06-15",
		})

		assert.NoError(t, err)
		assert.NotNil(t, created)
		assert.Equal(t, "EMP-00042", resp.EmployeeNumber)
		assert.Equal(t, "2024-06-15", resp.HireDate)
		assert.True(t, resp.IsActive)
		assert.Len(t, deps.audit.entries, 1)
		assert.Equal(t, "CREATE", deps.audit.entries[0].Action)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("success with explicit employee number skips counter", func(t *testing.T) {
		deps := setupEmployeeServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		deps.redisMock.ExpectDel(employee.GetEmployeeOptionsKey(companyID)).SetVal(1)

		deps.counter.getNextValueFn = func(ctx context.Context, cid, counterType string) (int64, error) {
			t.Fatal("counter should not be called when number is provided")
			return 0, nil
		}

		resp, err := deps.service.Create(ctx, companyID, actorID, employee.CreateEmployeeRequest{
			EmployeeNumber: "EMP-99999",
			FullName:       "John Doe",
			Email:          "john@example.com",
			HireDate:       "2020-01-02",
		})

		assert.NoError(t, err)
		assert.Equal(t, "EMP-99999", resp.EmployeeNumber)
	})

	t.Run("negative invalid hire date", func(t *testing.T) {
		deps := setupEmployeeServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.Create(ctx, companyID, actorID, employee.CreateEmployeeRequest{
			FullName: "Jane Smith",
			Email:    "jane@example.com",
			HireDate: "15-06-2024",
		})

		assert.ErrorIs(t, err, employeeerrors.ErrInvalidHireDate)
	})

	t.Run("negative invalid company id", func(t *testing.T) {
		deps := setupEmployeeServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.Create(ctx, "not-a-uuid", actorID, employee.CreateEmployeeRequest{
			FullName: "Jane Smith",
			Email:    "jane@example.com",
			HireDate: "2024-06-15",
		})

		assert.ErrorIs(t, err, employeeerrors.ErrInvalidCompanyID)
	})

	t.Run("negative repository error rolls back", func(t *testing.T) {
		deps := setupEmployeeServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)

		deps.repo.createFn = func(ctx context.Context, e *employee.Employee) error {
			return errors.New("insert failed")
		}

		_, err := deps.service.Create(ctx, companyID, actorID, employee.CreateEmployeeRequest{
			FullName: "Jane Smith",
			Email:    "jane@example.com",
			HireDate: "2024-06-15",
		})

		assert.Error(t, err)
		assert.Empty(t, deps.audit.entries)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestEmployeeService_GetOptions(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New().String()
	cacheKey := employee.GetEmployeeOptionsKey(companyID)

	t.Run("cache hit skips repository", func(t *testing.T) {
		deps := setupEmployeeServiceTest(t)
		defer deps.db.Close()

		cached := []employee.EmployeeOption{
			{ID: uuid.New().String(), EmployeeNumber: "EMP-00001", FullName: "Jane Smith"},
		}
		payload, err := json.Marshal(cached)
		assert.NoError(t, err)
		deps.redisMock.ExpectGet(cacheKey).SetVal(string(payload))

		deps.repo.findActiveByCompanyFn = func(ctx context.Context, cid string) ([]employee.Employee, error) {
			t.Fatal("repository should not be hit on cache hit")
			return nil, nil
		}

		options, err := deps.service.GetOptions(ctx, companyID)
		assert.NoError(t, err)
		assert.Equal(t, cached, options)
		assert.NoError(t, deps.redisMock.ExpectationsWereMet())
	})

	t.Run("cache miss loads and stores", func(t *testing.T) {
		deps := setupEmployeeServiceTest(t)
		defer deps.db.Close()

		deps.redisMock.ExpectGet(cacheKey).RedisNil()

		rows := []employee.Employee{
			{ID: uuid.New(), EmployeeNumber: "EMP-00001", FullName: "Jane Smith"},
			{ID: uuid.New(), EmployeeNumber: "EMP-00002", FullName: "John Doe"},
		}
		deps.repo.findActiveByCompanyFn = func(ctx context.Context, cid string) ([]employee.Employee, error) {
			assert.Equal(t, companyID, cid)
			return rows, nil
		}

		deps.redisMock.Regexp().ExpectSet(cacheKey, `.*`, 5*time.Minute).SetVal("OK")

		options, err := deps.service.GetOptions(ctx, companyID)
		assert.NoError(t, err)
		assert.Len(t, options, 2)
		assert.Equal(t, "EMP-00001", options[0].EmployeeNumber)
	})

	t.Run("negative repository failure", func(t *testing.T) {
		deps := setupEmployeeServiceTest(t)
		defer deps.db.Close()

		deps.redisMock.ExpectGet(cacheKey).RedisNil()
		deps.repo.findActiveByCompanyFn = func(ctx context.Context, cid string) ([]employee.Employee, error) {
			return nil, errors.New("db down")
		}

		_, err := deps.service.GetOptions(ctx, companyID)
		assert.Error(t, err)
	})
}

func TestEmployeeService_Deactivate(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New().String()
	actorID := uuid.New().String()
	employeeID := uuid.New()

	t.Run("success", func(t *testing.T) {
		deps := setupEmployeeServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		deps.redisMock.ExpectDel(employee.GetEmployeeOptionsKey(companyID)).SetVal(1)

		deps.repo.findByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*employee.Employee, error) {
			return &employee.Employee{ID: employeeID, EmployeeNumber: "EMP-00007", FullName: "Jane Smith", IsActive: true}, nil
		}

		var updated *employee.Employee
		deps.repo.updateFn = func(ctx context.Context, e *employee.Employee) error {
			updated = e
			return nil
		}

		err := deps.service.Deactivate(ctx, companyID, actorID, employeeID.String())
		assert.NoError(t, err)
		assert.NotNil(t, updated)
		assert.False(t, updated.IsActive)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}
