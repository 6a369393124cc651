package payroll

import "timekeep/internal/platform/apperr"

var (
	ErrNoWageConfigured = apperr.New(apperr.KindUnconfigured, "no_wage_configured", "no wage configured for user")
	ErrWageNotFound     = apperr.New(apperr.KindNotFound, "wage_not_found", "wage profile not found")
	ErrUserNotFound     = apperr.New(apperr.KindNotFound, "user_not_found", "user not found")
	ErrRecordNotFound   = apperr.New(apperr.KindNotFound, "payroll_record_not_found", "payroll record not found")
	ErrPayrollExists    = apperr.New(apperr.KindInvalidState, "payroll_exists", "payroll already generated for this period")
)
