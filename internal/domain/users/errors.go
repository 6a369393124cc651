package users

import "timekeep/internal/platform/apperr"

var (
	ErrUserNotFound       = apperr.New(apperr.KindNotFound, "user_not_found", "user not found")
	ErrManagerNotFound    = apperr.New(apperr.KindNotFound, "manager_not_found", "manager not found")
	ErrEmailTaken         = apperr.New(apperr.KindConflict, "email_taken", "email already registered")
	ErrInvalidCredentials = apperr.New(apperr.KindUnauthorized, "invalid_credentials", "invalid email or password")
	ErrUserArchived       = apperr.New(apperr.KindInvalidState, "user_archived", "user is archived")
	ErrSelfManager        = apperr.New(apperr.KindValidation, "self_manager", "user cannot manage themselves")
	ErrInvalidRole        = apperr.New(apperr.KindValidation, "invalid_role", "role must be one of EMPLOYEE, MANAGER, SUPERVISOR, ADMIN")
)
