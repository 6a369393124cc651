package requests

import "timekeep/internal/platform/apperr"

var (
	ErrRequestNotFound    = apperr.New(apperr.KindNotFound, "request_not_found", "request not found")
	ErrAlreadyResolved    = apperr.New(apperr.KindInvalidState, "already_resolved", "request already resolved")
	ErrSelfResolution     = apperr.New(apperr.KindForbidden, "self_resolution", "requests cannot be resolved by their requester")
	ErrNotApprover        = apperr.New(apperr.KindForbidden, "forbidden", "insufficient permissions")
	ErrCounterpartUnknown = apperr.New(apperr.KindNotFound, "counterpart_not_found", "counterpart user not found")
	ErrInvalidDecision    = apperr.New(apperr.KindValidation, "validation_error", "decision must be APPROVED or REJECTED")
	ErrInvalidHalfDay     = apperr.New(apperr.KindValidation, "validation_error", "invalid half-day range")
	ErrEndBeforeStart     = apperr.New(apperr.KindValidation, "validation_error", "endDate must be on or after startDate")
)
