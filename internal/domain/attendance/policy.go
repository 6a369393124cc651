package attendance

import "time"

const (
	DefaultDailyOvertimeHours = 8
	DefaultWindowDays         = 30
	dateLayout                = "2006-01-02"
)

type Policy struct {
	DailyOvertimeHours float64
	WindowDays         int
	Location           *time.Location
}

func DefaultPolicy() Policy {
	return Policy{
		DailyOvertimeHours: DefaultDailyOvertimeHours,
		WindowDays:         DefaultWindowDays,
		Location:           time.Local,
	}
}

func (p Policy) location() *time.Location {
	if p.Location == nil {
		return time.Local
	}
	return p.Location
}

// Day returns local midnight of t's calendar day.
func (p Policy) Day(t time.Time) time.Time {
	loc := p.location()
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// WorkDate is the session date t belongs to.
func (p Policy) WorkDate(t time.Time) string {
	return p.Day(t).Format(dateLayout)
}

// Window is the trailing window [today - WindowDays, today], inclusive.
func (p Policy) Window(now time.Time) (from, to string) {
	today := p.Day(now)
	return today.AddDate(0, 0, -p.WindowDays).Format(dateLayout), today.Format(dateLayout)
}

// ParseDate parses a YYYY-MM-DD date in the policy location.
func (p Policy) ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, value, p.location())
}

func (p Policy) Overtime(hours float64) float64 {
	return DailyOvertime(hours, p.DailyOvertimeHours)
}

// Record derives the display hours of sess. Sessions whose breaks exceed the
// clocked time are flagged, not hidden.
func (p Policy) Record(sess Session) Record {
	hours := HoursWorked(sess, sess.Breaks)
	return Record{
		Session:       sess,
		HoursWorked:   RoundHours(hours),
		DailyOvertime: RoundHours(p.Overtime(hours)),
		Inconsistent:  hours < 0,
	}
}
