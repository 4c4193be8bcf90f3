package workschedule

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/kikoon-ek/hr-erp/internal/shared/contextutil"
	workscheduleerrors "github.com/kikoon-ek/hr-erp/internal/workschedule/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultStartTime = "09:00"
	defaultEndTime   = "18:00"
)

type Service interface {
	Upsert(ctx context.Context, companyID string, req UpsertScheduleRequest) (ScheduleResponse, error)
	GetByEmployee(ctx context.Context, companyID, employeeID string) ([]ScheduleResponse, error)
	Delete(ctx context.Context, companyID, employeeID string, dayOfWeek int) error

	// WorkingWindow satisfies the attendance schedule policy. Weekday
	// mapping follows the schedule rows: 0=Monday through 6=Sunday.
	WorkingWindow(ctx context.Context, companyID, employeeID string, date time.Time) (string, string, bool, error)
}

type service struct {
	db     *sql.DB
	repo   Repository
	logger *zap.Logger
}

func NewService(db *sql.DB, repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("workschedule.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("workschedule.service")
	}
	return &service{db: db, repo: repo, logger: l}
}

func (s *service) Upsert(ctx context.Context, companyID string, req UpsertScheduleRequest) (ScheduleResponse, error) {
	companyUUID, err := uuid.Parse(companyID)
	if err != nil {
		return ScheduleResponse{}, workscheduleerrors.ErrInvalidCompanyID
	}
	employeeUUID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		return ScheduleResponse{}, workscheduleerrors.ErrInvalidEmployeeID
	}
	if req.DayOfWeek < 0 || req.DayOfWeek > 6 {
		return ScheduleResponse{}, workscheduleerrors.ErrInvalidDayOfWeek
	}

	start := req.StartTime
	if start == "" {
		start = defaultStartTime
	}
	end := req.EndTime
	if end == "" {
		end = defaultEndTime
	}
	startParsed, err := time.Parse("15:04", start)
	if err != nil {
		return ScheduleResponse{}, workscheduleerrors.ErrInvalidTimeFormat
	}
	endParsed, err := time.Parse("15:04", end)
	if err != nil {
		return ScheduleResponse{}, workscheduleerrors.ErrInvalidTimeFormat
	}
	if !endParsed.After(startParsed) {
		return ScheduleResponse{}, workscheduleerrors.ErrEndBeforeStart
	}

	isWorking := true
	if req.IsWorkingDay != nil {
		isWorking = *req.IsWorkingDay
	}

	row := &WorkSchedule{
		ID:           uuid.New(),
		CompanyID:    companyUUID,
		EmployeeID:   employeeUUID,
		DayOfWeek:    req.DayOfWeek,
		StartTime:    start,
		EndTime:      end,
		IsWorkingDay: isWorking,
	}

	if err := s.repo.Upsert(ctx, row); err != nil {
		s.logger.Error("upsert work schedule failed",
			zap.String("request_id", contextutil.GetRequestID(ctx)),
			zap.Error(err),
		)
		return ScheduleResponse{}, err
	}

	return mapToResponse(*row), nil
}

func (s *service) GetByEmployee(ctx context.Context, companyID, employeeID string) ([]ScheduleResponse, error) {
	rows, err := s.repo.FindByEmployee(ctx, companyID, employeeID)
	if err != nil {
		return nil, err
	}
	res := make([]ScheduleResponse, len(rows))
	for i, r := range rows {
		res[i] = mapToResponse(r)
	}
	return res, nil
}

func (s *service) Delete(ctx context.Context, companyID, employeeID string, dayOfWeek int) error {
	if dayOfWeek < 0 || dayOfWeek > 6 {
		return workscheduleerrors.ErrInvalidDayOfWeek
	}
	_, err := s.repo.FindByEmployeeAndDay(ctx, companyID, employeeID, dayOfWeek)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return workscheduleerrors.ErrScheduleNotFound
		}
		return err
	}
	return s.repo.DeleteByEmployeeAndDay(ctx, companyID, employeeID, dayOfWeek)
}

func (s *service) WorkingWindow(ctx context.Context, companyID, employeeID string, date time.Time) (string, string, bool, error) {
	row, err := s.repo.FindByEmployeeAndDay(ctx, companyID, employeeID, scheduleDay(date))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return defaultStartTime, defaultEndTime, true, nil
		}
		return "", "", false, err
	}
	return row.StartTime, row.EndTime, row.IsWorkingDay, nil
}

// scheduleDay converts Go's Sunday-based weekday to the Monday-based
// index used by the schedule rows.
func scheduleDay(date time.Time) int {
	return (int(date.Weekday()) + 6) % 7
}

func mapToResponse(s WorkSchedule) ScheduleResponse {
	return ScheduleResponse{
		ID:           s.ID.String(),
		EmployeeID:   s.EmployeeID.String(),
		DayOfWeek:    s.DayOfWeek,
		StartTime:    s.StartTime,
		EndTime:      s.EndTime,
		IsWorkingDay: s.IsWorkingDay,
	}
}
