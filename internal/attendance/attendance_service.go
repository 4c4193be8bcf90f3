package attendance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	attendanceerrors "github.com/kikoon-ek/hr-erp/internal/attendance/errors"
	"github.com/kikoon-ek/hr-erp/internal/audit"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultStartTime = "09:00"
	defaultEndTime   = "18:00"

	// Lunch break is deducted once the raw span reaches this many hours.
	lunchThresholdHours = 6.0
	lunchBreakHours     = 1.0

	standardWorkHours = 8.0
)

// SchedulePolicy yields the expected working window for an employee on a
// given date. Implementations fall back to company defaults when the
// employee has no schedule row for that weekday.
type SchedulePolicy interface {
	WorkingWindow(ctx context.Context, companyID, employeeID string, date time.Time) (start, end string, isWorkingDay bool, err error)
}

type Service interface {
	CheckIn(ctx context.Context, companyID, employeeID string, req CheckInRequest) (AttendanceResponse, error)
	CheckOut(ctx context.Context, companyID, employeeID string, req CheckOutRequest) (AttendanceResponse, error)
	CreateRecord(ctx context.Context, companyID, actorID string, req CreateRecordRequest) (AttendanceResponse, error)
	GetAll(ctx context.Context, companyID, actorID string, canReadAll bool, filter ListFilter) ([]AttendanceResponse, error)
}

type service struct {
	db       *sql.DB
	repo     Repository
	schedule SchedulePolicy
	audit    audit.Recorder
	logger   *zap.Logger
	now      func() time.Time
}

func NewService(db *sql.DB, repo Repository, schedule SchedulePolicy, auditRec audit.Recorder, logger ...*zap.Logger) Service {
	l := zap.L().Named("attendance.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("attendance.service")
	}
	return &service{
		db:       db,
		repo:     repo,
		schedule: schedule,
		audit:    auditRec,
		logger:   l,
		now:      time.Now,
	}
}

// NewServiceWithClock pins the service clock for deterministic tests.
func NewServiceWithClock(db *sql.DB, repo Repository, schedule SchedulePolicy, auditRec audit.Recorder, now func() time.Time, logger ...*zap.Logger) Service {
	svc := NewService(db, repo, schedule, auditRec, logger...).(*service)
	svc.now = now
	return svc
}

func (s *service) CheckIn(ctx context.Context, companyID, employeeID string, req CheckInRequest) (AttendanceResponse, error) {
	companyUUID, err := uuid.Parse(companyID)
	if err != nil {
		return AttendanceResponse{}, attendanceerrors.ErrInvalidCompanyID
	}
	employeeUUID, err := uuid.Parse(employeeID)
	if err != nil {
		return AttendanceResponse{}, attendanceerrors.ErrInvalidEmployeeID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return AttendanceResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	now := s.now().UTC()
	today := now.Truncate(24 * time.Hour)

	_, err = qtx.FindByEmployeeAndDate(ctx, companyID, employeeID, today)
	if err == nil {
		return AttendanceResponse{}, attendanceerrors.ErrAlreadyCheckedIn
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return AttendanceResponse{}, err
	}

	start, _, _, err := s.workingWindow(ctx, companyID, employeeID, today)
	if err != nil {
		return AttendanceResponse{}, err
	}

	status := StatusPresent
	if clockAfter(now, today, start) {
		status = StatusLate
	}

	row := &Attendance{
		ID:         uuid.New(),
		CompanyID:  companyUUID,
		EmployeeID: employeeUUID,
		WorkDate:   today,
		CheckIn:    &now,
		Status:     status,
		Notes:      req.Notes,
	}

	if err := qtx.Create(ctx, row); err != nil {
		return AttendanceResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		return AttendanceResponse{}, err
	}

	s.logger.Info("check-in recorded",
		zap.String("employee_id", employeeID),
		zap.String("work_date", today.Format("2006-01-02")),
		zap.String("status", status),
	)
	return mapToResponse(*row), nil
}

func (s *service) CheckOut(ctx context.Context, companyID, employeeID string, req CheckOutRequest) (AttendanceResponse, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return AttendanceResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	now := s.now().UTC()
	today := now.Truncate(24 * time.Hour)

	row, err := qtx.FindByEmployeeAndDate(ctx, companyID, employeeID, today)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AttendanceResponse{}, attendanceerrors.ErrNoCheckInRecord
		}
		return AttendanceResponse{}, err
	}
	if row.CheckIn == nil {
		return AttendanceResponse{}, attendanceerrors.ErrNoCheckInRecord
	}
	if row.CheckOut != nil {
		return AttendanceResponse{}, attendanceerrors.ErrAlreadyCheckedOut
	}

	start, end, _, err := s.workingWindow(ctx, companyID, employeeID, today)
	if err != nil {
		return AttendanceResponse{}, err
	}

	row.CheckOut = &now
	row.WorkHours = calculateWorkHours(*row.CheckIn, now)
	if row.WorkHours > standardWorkHours {
		row.OvertimeHours = row.WorkHours - standardWorkHours
	}
	row.Status = determineStatus(row.CheckIn, row.CheckOut, today, start, end)
	if req.Notes != nil {
		row.Notes = req.Notes
	}

	if err := qtx.Update(ctx, row); err != nil {
		return AttendanceResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		return AttendanceResponse{}, err
	}

	s.logger.Info("check-out recorded",
		zap.String("employee_id", employeeID),
		zap.Float64("work_hours", row.WorkHours),
		zap.String("status", row.Status),
	)
	return mapToResponse(*row), nil
}

func (s *service) CreateRecord(ctx context.Context, companyID, actorID string, req CreateRecordRequest) (AttendanceResponse, error) {
	companyUUID, err := uuid.Parse(companyID)
	if err != nil {
		return AttendanceResponse{}, attendanceerrors.ErrInvalidCompanyID
	}
	employeeUUID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		return AttendanceResponse{}, attendanceerrors.ErrInvalidEmployeeID
	}
	workDate, err := time.Parse("2006-01-02", req.WorkDate)
	if err != nil {
		return AttendanceResponse{}, attendanceerrors.ErrInvalidWorkDate
	}

	checkIn, err := parseTimeOnDate(workDate, req.CheckIn)
	if err != nil {
		return AttendanceResponse{}, err
	}
	checkOut, err := parseTimeOnDate(workDate, req.CheckOut)
	if err != nil {
		return AttendanceResponse{}, err
	}
	if checkIn != nil && checkOut != nil && !checkOut.After(*checkIn) {
		return AttendanceResponse{}, attendanceerrors.ErrCheckOutBeforeCheckIn
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return AttendanceResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	_, err = qtx.FindByEmployeeAndDate(ctx, companyID, req.EmployeeID, workDate)
	if err == nil {
		return AttendanceResponse{}, attendanceerrors.ErrRecordAlreadyExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return AttendanceResponse{}, err
	}

	start, end, _, err := s.workingWindow(ctx, companyID, req.EmployeeID, workDate)
	if err != nil {
		return AttendanceResponse{}, err
	}

	status := req.Status
	if status == "" {
		status = determineStatus(checkIn, checkOut, workDate, start, end)
	}

	row := &Attendance{
		ID:         uuid.New(),
		CompanyID:  companyUUID,
		EmployeeID: employeeUUID,
		WorkDate:   workDate,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		Status:     status,
		Notes:      req.Notes,
	}
	if checkIn != nil && checkOut != nil {
		row.WorkHours = calculateWorkHours(*checkIn, *checkOut)
		if row.WorkHours > standardWorkHours {
			row.OvertimeHours = row.WorkHours - standardWorkHours
		}
	}

	if err := qtx.Create(ctx, row); err != nil {
		return AttendanceResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		return AttendanceResponse{}, err
	}

	s.audit.Record(ctx, audit.Entry{
		Action:     "CREATE",
		EntityType: "attendance_record",
		EntityID:   row.ID.String(),
		CompanyID:  companyID,
		ActorID:    actorID,
		Message:    fmt.Sprintf("Attendance record created for %s on %s (%s)", req.EmployeeID, req.WorkDate, status),
	})

	return mapToResponse(*row), nil
}

func (s *service) GetAll(ctx context.Context, companyID, actorID string, canReadAll bool, filter ListFilter) ([]AttendanceResponse, error) {
	if !canReadAll {
		if _, err := uuid.Parse(actorID); err != nil {
			return nil, attendanceerrors.ErrInvalidEmployeeID
		}
		filter.EmployeeID = actorID
	}

	rows, err := s.repo.FindAllByCompany(ctx, companyID, filter)
	if err != nil {
		return nil, err
	}
	res := make([]AttendanceResponse, len(rows))
	for i, r := range rows {
		res[i] = mapToResponse(r)
	}
	return res, nil
}

func (s *service) workingWindow(ctx context.Context, companyID, employeeID string, date time.Time) (string, string, bool, error) {
	if s.schedule == nil {
		return defaultStartTime, defaultEndTime, true, nil
	}
	return s.schedule.WorkingWindow(ctx, companyID, employeeID, date)
}

// calculateWorkHours measures the raw span and deducts the lunch break once
// the span reaches six hours. A non-positive span yields zero.
func calculateWorkHours(checkIn, checkOut time.Time) float64 {
	if !checkOut.After(checkIn) {
		return 0
	}
	hours := checkOut.Sub(checkIn).Hours()
	if hours >= lunchThresholdHours {
		hours -= lunchBreakHours
	}
	if hours < 0 {
		return 0
	}
	return hours
}

// determineStatus derives the record status from the actual clock times
// against the scheduled window. A missing check-in means absent; lateness
// outranks an early leave when both apply.
func determineStatus(checkIn, checkOut *time.Time, date time.Time, startHHMM, endHHMM string) string {
	if checkIn == nil {
		return StatusAbsent
	}

	isLate := clockAfter(*checkIn, date, startHHMM)
	if checkOut == nil {
		if isLate {
			return StatusLate
		}
		return StatusPresent
	}

	isEarlyLeave := clockBefore(*checkOut, date, endHHMM)
	switch {
	case isLate:
		return StatusLate
	case isEarlyLeave:
		return StatusEarlyLeave
	default:
		return StatusPresent
	}
}

func clockAfter(t time.Time, date time.Time, hhmm string) bool {
	ref, err := combineDateTime(date, hhmm)
	if err != nil {
		return false
	}
	return t.After(ref)
}

func clockBefore(t time.Time, date time.Time, hhmm string) bool {
	ref, err := combineDateTime(date, hhmm)
	if err != nil {
		return false
	}
	return t.Before(ref)
}

func combineDateTime(date time.Time, hhmm string) (time.Time, error) {
	parsed, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), parsed.Hour(), parsed.Minute(), 0, 0, time.UTC), nil
}

func parseTimeOnDate(date time.Time, hhmm *string) (*time.Time, error) {
	if hhmm == nil || *hhmm == "" {
		return nil, nil
	}
	t, err := combineDateTime(date, *hhmm)
	if err != nil {
		return nil, attendanceerrors.ErrInvalidTimeFormat
	}
	return &t, nil
}

func mapToResponse(a Attendance) AttendanceResponse {
	resp := AttendanceResponse{
		ID:            a.ID.String(),
		CompanyID:     a.CompanyID.String(),
		EmployeeID:    a.EmployeeID.String(),
		WorkDate:      a.WorkDate.Format("2006-01-02"),
		Status:        a.Status,
		WorkHours:     a.WorkHours,
		OvertimeHours: a.OvertimeHours,
		Notes:         a.Notes,
	}
	if a.Employee != nil {
		resp.EmployeeName = a.Employee.FullName
	}
	if a.CheckIn != nil {
		v := a.CheckIn.Format(time.RFC3339)
		resp.CheckIn = &v
	}
	if a.CheckOut != nil {
		v := a.CheckOut.Format(time.RFC3339)
		resp.CheckOut = &v
	}
	return resp
}
