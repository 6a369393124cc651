package requests

import (
	"time"

	"timekeep/internal/domain/auth"
)

const dateLayout = "2006-01-02"

// CalculateDays returns the inclusive day count between start and end.
func CalculateDays(start, end time.Time) (float64, error) {
	if end.Before(start) {
		return 0, ErrEndBeforeStart
	}
	return end.Sub(start).Hours()/24 + 1, nil
}

// CalculateLeaveDays is CalculateDays less half a day for each half-day boundary.
func CalculateLeaveDays(start, end time.Time, startHalf, endHalf bool) (float64, error) {
	days, err := CalculateDays(start, end)
	if err != nil {
		return 0, err
	}
	if start.Equal(end) && startHalf && endHalf {
		return 0, ErrInvalidHalfDay
	}
	if startHalf {
		days -= 0.5
	}
	if endHalf {
		days -= 0.5
	}
	if days <= 0 {
		return 0, ErrInvalidHalfDay
	}
	return days, nil
}

// CheckResolution reports whether actor may move req to decision.
func CheckResolution(req Request, actor auth.UserContext, decision Status) error {
	if decision != StatusApproved && decision != StatusRejected {
		return ErrInvalidDecision
	}
	if !auth.CanApprove(actor.Role) {
		return ErrNotApprover
	}
	if req.RequesterID == actor.UserID {
		return ErrSelfResolution
	}
	if req.Status != StatusPending {
		return ErrAlreadyResolved
	}
	return nil
}
