package annualleaveerrors

import (
	"net/http"

	"github.com/kikoon-ek/hr-erp/internal/shared/apperror"
)

var (
	ErrInvalidCompanyID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid company id",
		http.StatusBadRequest,
	)
	ErrInvalidEmployeeID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid employee id",
		http.StatusBadRequest,
	)
	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrInvalidLeaveType = apperror.New(
		apperror.CodeInvalidInput,
		"leave_type must be one of full, half, quarter",
		http.StatusBadRequest,
	)
	ErrInvalidGrantBasis = apperror.New(
		apperror.CodeInvalidInput,
		"grant_basis must be hire_date or fiscal_year",
		http.StatusBadRequest,
	)
	ErrUsageDaysMismatch = apperror.New(
		apperror.CodeInvalidInput,
		"used_days does not match the leave_type deduction",
		http.StatusBadRequest,
	)
	ErrEmployeeNotFound = apperror.New(
		apperror.CodeNotFound,
		"employee not found",
		http.StatusNotFound,
	)
	ErrDuplicateGrant = apperror.New(
		apperror.CodeConflict,
		"a grant already exists for this employee, year and basis",
		http.StatusConflict,
	)
	ErrInsufficientBalance = apperror.New(
		apperror.CodeInsufficientBalance,
		"insufficient remaining leave balance",
		http.StatusUnprocessableEntity,
	)
)
