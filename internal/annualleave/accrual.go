package annualleave

import (
	"context"
	"fmt"
	"time"

	annualleaveerrors "github.com/kikoon-ek/hr-erp/internal/annualleave/errors"
	"github.com/kikoon-ek/hr-erp/internal/audit"
	"github.com/kikoon-ek/hr-erp/internal/employee"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const daysPerYear = 365.25

// RunAccrual grants leave for every active employee of the company. One
// employee failing never aborts the run: each employee gets their own
// transaction and failures are collected into the result.
func (s *service) RunAccrual(ctx context.Context, companyID, actorID string, req AutoGrantRequest) (AccrualResultResponse, error) {
	if _, err := uuid.Parse(companyID); err != nil {
		return AccrualResultResponse{}, annualleaveerrors.ErrInvalidCompanyID
	}

	year := req.Year
	if year == 0 {
		year = s.now().UTC().Year()
	}
	basis := req.GrantBasis
	if basis == "" {
		basis = GrantBasisHireDate
	}
	if basis != GrantBasisHireDate && basis != GrantBasisFiscalYear {
		return AccrualResultResponse{}, annualleaveerrors.ErrInvalidGrantBasis
	}

	roster, err := s.employees.FindActiveByCompany(ctx, companyID)
	if err != nil {
		return AccrualResultResponse{}, err
	}

	result := AccrualResultResponse{
		Year:       year,
		GrantBasis: basis,
		Failures:   []AccrualFailure{},
	}

	for i := range roster {
		emp := &roster[i]
		count, days, err := s.accrueForEmployee(ctx, companyID, actorID, emp, year, basis)
		if err != nil {
			s.logger.Warn("accrual failed for employee",
				zap.String("employee_id", emp.ID.String()),
				zap.Int("year", year),
				zap.Error(err),
			)
			result.Failures = append(result.Failures, AccrualFailure{
				EmployeeID: emp.ID.String(),
				Reason:     err.Error(),
			})
			continue
		}
		result.ProcessedCount += count
		result.TotalGrantedDays += days
	}

	s.audit.Record(ctx, audit.Entry{
		Action:     "CREATE",
		EntityType: "annual_leave_accrual_run",
		CompanyID:  companyID,
		ActorID:    actorID,
		Message: fmt.Sprintf("Accrual run for %d (%s basis): %d grants, %.1f days, %d failures",
			year, basis, result.ProcessedCount, result.TotalGrantedDays, len(result.Failures)),
		Meta: map[string]any{
			"year":               year,
			"grant_basis":        basis,
			"processed_count":    result.ProcessedCount,
			"total_granted_days": result.TotalGrantedDays,
		},
	})

	return result, nil
}

// accrueForEmployee runs one employee's accrual inside its own transaction,
// behind the per-employee row lock so it serializes against concurrent
// request approvals.
func (s *service) accrueForEmployee(ctx context.Context, companyID, actorID string, emp *employee.Employee, year int, basis string) (int, float64, error) {
	if emp.HireDate.IsZero() {
		return 0, 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	if err := qtx.LockEmployee(ctx, companyID, emp.ID.String()); err != nil {
		return 0, 0, err
	}

	today := s.now().UTC()
	yearsOfService := today.Sub(emp.HireDate).Hours() / 24 / daysPerYear

	var count int
	var days float64

	// First-year employees always accrue monthly on the hire-date basis,
	// even when a fiscal-year run requested them.
	if basis == GrantBasisFiscalYear && yearsOfService >= 1.0 {
		count, days, err = s.grantFiscalYear(ctx, qtx, companyID, actorID, emp, year)
	} else if yearsOfService < 1.0 {
		count, days, err = s.grantMonthly(ctx, qtx, companyID, actorID, emp, year)
	} else {
		count, days, err = s.grantOnAnniversary(ctx, qtx, companyID, actorID, emp, year)
	}
	if err != nil {
		return 0, 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, err
	}
	return count, days, nil
}

// grantMonthly awards one day per perfect calendar month. Already-granted
// months are skipped, so re-running a year tops up newly completed months
// without duplicating earlier ones.
func (s *service) grantMonthly(ctx context.Context, repo Repository, companyID, actorID string, emp *employee.Employee, year int) (int, float64, error) {
	var count int
	var days float64

	for month := 1; month <= 12; month++ {
		exists, err := repo.HasGrant(ctx, companyID, emp.ID.String(), year, GrantTypeMonthly, GrantBasisHireDate, month)
		if err != nil {
			return 0, 0, err
		}
		if exists {
			continue
		}

		perfect, err := repo.IsMonthPerfect(ctx, companyID, emp.ID.String(), year, month)
		if err != nil {
			return 0, 0, err
		}
		if !perfect {
			continue
		}

		note := fmt.Sprintf("Perfect attendance leave for month %d (1 day)", month)
		g := &Grant{
			ID:                  uuid.New(),
			CompanyID:           emp.CompanyID,
			EmployeeID:          emp.ID,
			Year:                year,
			GrantType:           GrantTypeMonthly,
			GrantBasis:          GrantBasisHireDate,
			GrantPeriod:         month,
			GrantDate:           time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC),
			TotalDays:           1.0,
			IsPerfectAttendance: true,
			Note:                &note,
			CreatedBy:           parseActor(actorID),
		}
		if err := repo.CreateGrant(ctx, g); err != nil {
			return 0, 0, mapLedgerError(err)
		}

		count++
		days += 1.0
	}

	return count, days, nil
}

// grantOnAnniversary writes the annual hire-date grant. Tenure counts whole
// calendar years from the hire year, the attendance rate comes from the
// prior year.
func (s *service) grantOnAnniversary(ctx context.Context, repo Repository, companyID, actorID string, emp *employee.Employee, year int) (int, float64, error) {
	exists, err := repo.HasGrant(ctx, companyID, emp.ID.String(), year, GrantTypeAnnual, GrantBasisHireDate, 0)
	if err != nil {
		return 0, 0, err
	}
	if exists {
		return 0, 0, nil
	}

	yearsOfService := float64(year - emp.HireDate.Year())
	rate, err := s.attendanceRate(ctx, repo, companyID, emp.ID.String(), year-1)
	if err != nil {
		return 0, 0, err
	}

	entitled := EntitlementDays(yearsOfService, rate)
	if entitled <= 0 {
		return 0, 0, nil
	}

	anniversary := time.Date(year, emp.HireDate.Month(), emp.HireDate.Day(), 0, 0, 0, 0, time.UTC)
	note := fmt.Sprintf("Service anniversary leave: %.0f years, %d days (attendance %.1f%%)", yearsOfService, entitled, rate)
	g := &Grant{
		ID:                  uuid.New(),
		CompanyID:           emp.CompanyID,
		EmployeeID:          emp.ID,
		Year:                year,
		GrantType:           GrantTypeAnnual,
		GrantBasis:          GrantBasisHireDate,
		GrantDate:           anniversary,
		TotalDays:           float64(entitled),
		IsPerfectAttendance: rate >= perfectAttendanceThreshold,
		Note:                &note,
		CreatedBy:           parseActor(actorID),
	}
	if err := repo.CreateGrant(ctx, g); err != nil {
		return 0, 0, mapLedgerError(err)
	}

	return 1, float64(entitled), nil
}

// grantFiscalYear writes the January 1 grant. Tenure is measured to Dec 31
// of the prior year, matching the fiscal cutoff.
func (s *service) grantFiscalYear(ctx context.Context, repo Repository, companyID, actorID string, emp *employee.Employee, year int) (int, float64, error) {
	exists, err := repo.HasGrant(ctx, companyID, emp.ID.String(), year, GrantTypeAnnual, GrantBasisFiscalYear, 0)
	if err != nil {
		return 0, 0, err
	}
	if exists {
		return 0, 0, nil
	}

	endOfPriorYear := time.Date(year-1, 12, 31, 0, 0, 0, 0, time.UTC)
	yearsOfService := endOfPriorYear.Sub(emp.HireDate).Hours() / 24 / daysPerYear

	rate, err := s.attendanceRate(ctx, repo, companyID, emp.ID.String(), year-1)
	if err != nil {
		return 0, 0, err
	}

	entitled := EntitlementDays(yearsOfService, rate)
	if entitled <= 0 {
		return 0, 0, nil
	}

	note := fmt.Sprintf("Fiscal-year leave: tenure %.1f years, %d days (attendance %.1f%%)", yearsOfService, entitled, rate)
	g := &Grant{
		ID:                  uuid.New(),
		CompanyID:           emp.CompanyID,
		EmployeeID:          emp.ID,
		Year:                year,
		GrantType:           GrantTypeAnnual,
		GrantBasis:          GrantBasisFiscalYear,
		GrantDate:           time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC),
		TotalDays:           float64(entitled),
		IsPerfectAttendance: rate >= perfectAttendanceThreshold,
		Note:                &note,
		CreatedBy:           parseActor(actorID),
	}
	if err := repo.CreateGrant(ctx, g); err != nil {
		return 0, 0, mapLedgerError(err)
	}

	return 1, float64(entitled), nil
}

// attendanceRate is attended-over-recorded for the year; an employee with no
// records at all rates 0, which forces the sub-threshold entitlement branch.
func (s *service) attendanceRate(ctx context.Context, repo Repository, companyID, employeeID string, year int) (float64, error) {
	attended, total, err := repo.AttendanceYearStats(ctx, companyID, employeeID, year)
	if err != nil {
		return 0, err
	}
	if total == 0 {
		return 0, nil
	}
	return float64(attended) / float64(total) * 100, nil
}
