package attendance

import (
	"context"
	"time"

	"timekeep/internal/platform/apperr"
)

type Service struct {
	store  StoreAPI
	policy Policy
	Now    func() time.Time
}

func NewService(store StoreAPI, policy Policy) *Service {
	return &Service{store: store, policy: policy, Now: time.Now}
}

func (s *Service) Policy() Policy {
	return s.policy
}

// mutate runs fn under the user's transaction lock and returns the touched
// session with its breaks.
func (s *Service) mutate(ctx context.Context, userID string, fn func(ctx context.Context, tx Tx, now time.Time) (Session, error)) (Session, error) {
	now := s.Now()
	var out Session
	err := s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		if err := tx.LockUser(ctx, userID); err != nil {
			return err
		}
		sess, err := fn(ctx, tx, now)
		if err != nil {
			return err
		}
		breaks, err := tx.Breaks(ctx, sess.ID)
		if err != nil {
			return err
		}
		sess.Breaks = breaks
		out = sess
		return nil
	})
	return out, err
}

// ClockIn opens today's session, creating it when it does not exist yet.
func (s *Service) ClockIn(ctx context.Context, userID string) (Session, error) {
	return s.mutate(ctx, userID, func(ctx context.Context, tx Tx, now time.Time) (Session, error) {
		sess, found, err := tx.SessionForDay(ctx, userID, s.policy.WorkDate(now))
		if err != nil {
			return Session{}, err
		}
		switch {
		case !found:
			return tx.CreateSession(ctx, userID, s.policy.WorkDate(now), now)
		case !sess.ClockedIn():
			return tx.SetClockIn(ctx, sess.ID, now)
		default:
			return Session{}, ErrAlreadyClockedIn
		}
	})
}

func (s *Service) ClockOut(ctx context.Context, userID string) (Session, error) {
	return s.mutate(ctx, userID, func(ctx context.Context, tx Tx, now time.Time) (Session, error) {
		sess, found, err := tx.SessionForDay(ctx, userID, s.policy.WorkDate(now))
		if err != nil {
			return Session{}, err
		}
		if !found || !sess.ClockedIn() {
			return Session{}, ErrNoOpenSession
		}
		if sess.Closed() {
			return Session{}, ErrAlreadyClockedOut
		}
		at := now
		if at.Before(*sess.ClockIn) {
			at = *sess.ClockIn
		}
		return tx.SetClockOut(ctx, sess.ID, at)
	})
}

func (s *Service) StartBreak(ctx context.Context, userID string) (Session, error) {
	return s.mutate(ctx, userID, func(ctx context.Context, tx Tx, now time.Time) (Session, error) {
		sess, found, err := tx.SessionForDay(ctx, userID, s.policy.WorkDate(now))
		if err != nil {
			return Session{}, err
		}
		if !found || !sess.ClockedIn() {
			return Session{}, ErrNoActiveSession
		}
		if sess.Closed() {
			return Session{}, ErrSessionClosed
		}
		if _, active, err := tx.ActiveBreak(ctx, userID); err != nil {
			return Session{}, err
		} else if active {
			return Session{}, ErrBreakAlreadyActive
		}
		if _, err := tx.CreateBreak(ctx, sess.ID, userID, now); err != nil {
			return Session{}, err
		}
		return sess, nil
	})
}

// EndBreak closes the user's active break. A break still open after its
// session was clocked out ends at the clock-out time.
func (s *Service) EndBreak(ctx context.Context, userID string) (Session, error) {
	return s.mutate(ctx, userID, func(ctx context.Context, tx Tx, now time.Time) (Session, error) {
		active, found, err := tx.ActiveBreak(ctx, userID)
		if err != nil {
			return Session{}, err
		}
		if !found {
			return Session{}, ErrNoActiveBreak
		}
		sess, err := tx.SessionByID(ctx, active.SessionID)
		if err != nil {
			return Session{}, err
		}
		end := now
		if sess.ClockOut != nil && end.After(*sess.ClockOut) {
			end = *sess.ClockOut
		}
		if end.Before(active.StartedAt) {
			end = active.StartedAt
		}
		if _, err := tx.EndBreak(ctx, active.ID, end); err != nil {
			return Session{}, err
		}
		return sess, nil
	})
}

// window resolves a YYYY-MM-DD range, defaulting either side to the trailing window.
func (s *Service) window(from, to string) (string, string, error) {
	defFrom, defTo := s.policy.Window(s.Now())
	if from == "" {
		from = defFrom
	}
	if to == "" {
		to = defTo
	}
	start, err := s.policy.ParseDate(from)
	if err != nil {
		return "", "", apperr.Validation("from must be a date in YYYY-MM-DD format")
	}
	end, err := s.policy.ParseDate(to)
	if err != nil {
		return "", "", apperr.Validation("to must be a date in YYYY-MM-DD format")
	}
	if end.Before(start) {
		return "", "", apperr.Validation("from must be on or before to")
	}
	return from, to, nil
}

// MyRecords lists sessions in [from, to] with display hours.
func (s *Service) MyRecords(ctx context.Context, userID, from, to string) ([]Record, error) {
	from, to, err := s.window(from, to)
	if err != nil {
		return nil, err
	}
	sessions, err := s.store.ListSessions(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	records := make([]Record, 0, len(sessions))
	for _, sess := range sessions {
		records = append(records, s.policy.Record(sess))
	}
	return records, nil
}

// OvertimeReport sums daily overtime over the trailing window.
func (s *Service) OvertimeReport(ctx context.Context, userID string) (OvertimeReport, error) {
	from, to := s.policy.Window(s.Now())
	sessions, err := s.store.ListSessions(ctx, userID, from, to)
	if err != nil {
		return OvertimeReport{}, err
	}

	report := OvertimeReport{
		UserID:    userID,
		From:      from,
		To:        to,
		Threshold: s.policy.DailyOvertimeHours,
		Entries:   make([]OvertimeEntry, 0, len(sessions)),
	}
	var totalHours, totalOvertime float64
	for _, sess := range sessions {
		hours, err := SessionHours(sess)
		if err != nil {
			return OvertimeReport{}, apperr.New(apperr.KindInvalidState, ErrInconsistentBreaks.Code, ErrInconsistentBreaks.Message+" on "+sess.WorkDate)
		}
		overtime := s.policy.Overtime(hours)
		totalHours += hours
		totalOvertime += overtime
		report.Entries = append(report.Entries, OvertimeEntry{
			WorkDate:      sess.WorkDate,
			HoursWorked:   RoundHours(hours),
			OvertimeHours: RoundHours(overtime),
		})
	}
	report.TotalHours = RoundHours(totalHours)
	report.TotalOvertime = RoundHours(totalOvertime)
	return report, nil
}

// WorkedHours totals worked hours over the trailing window at full precision.
func (s *Service) WorkedHours(ctx context.Context, userID string) (WorkSummary, error) {
	from, to := s.policy.Window(s.Now())
	sessions, err := s.store.ListSessions(ctx, userID, from, to)
	if err != nil {
		return WorkSummary{}, err
	}
	summary := WorkSummary{UserID: userID, From: from, To: to, Sessions: len(sessions)}
	for _, sess := range sessions {
		hours, err := SessionHours(sess)
		if err != nil {
			return WorkSummary{}, err
		}
		summary.Hours += hours
	}
	return summary, nil
}
