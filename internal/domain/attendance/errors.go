package attendance

import "timekeep/internal/platform/apperr"

var (
	ErrAlreadyClockedIn   = apperr.New(apperr.KindInvalidState, "already_clocked_in", "already clocked in today")
	ErrNoOpenSession      = apperr.New(apperr.KindInvalidState, "no_open_session", "no clock-in record found for today")
	ErrAlreadyClockedOut  = apperr.New(apperr.KindInvalidState, "already_clocked_out", "already clocked out today")
	ErrNoActiveSession    = apperr.New(apperr.KindInvalidState, "no_active_session", "no active clock session for today")
	ErrSessionClosed      = apperr.New(apperr.KindInvalidState, "session_closed", "clock session already closed")
	ErrBreakAlreadyActive = apperr.New(apperr.KindInvalidState, "break_already_active", "a break is already in progress")
	ErrNoActiveBreak      = apperr.New(apperr.KindInvalidState, "no_active_break", "no break in progress")
	ErrInconsistentBreaks = apperr.New(apperr.KindInvalidState, "inconsistent_breaks", "break time exceeds clocked time")
	ErrSessionNotFound    = apperr.New(apperr.KindNotFound, "session_not_found", "clock session not found")
)
