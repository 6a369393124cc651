package attendance

import "time"

// Session is one user's clock-in/clock-out pairing for a calendar day.
// WorkDate is the YYYY-MM-DD day in the configured location.
type Session struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	WorkDate  string     `json:"workDate"`
	ClockIn   *time.Time `json:"clockIn,omitempty"`
	ClockOut  *time.Time `json:"clockOut,omitempty"`
	Breaks    []Break    `json:"breaks"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (s Session) ClockedIn() bool {
	return s.ClockIn != nil
}

func (s Session) Closed() bool {
	return s.ClockOut != nil
}

// Open reports whether the session is clocked in and not yet clocked out.
func (s Session) Open() bool {
	return s.ClockedIn() && !s.Closed()
}

type Break struct {
	ID        string     `json:"id"`
	SessionID string     `json:"sessionId"`
	UserID    string     `json:"userId"`
	StartedAt time.Time  `json:"startedAt"`
	EndedAt   *time.Time `json:"endedAt,omitempty"`
}

func (b Break) Active() bool {
	return b.EndedAt == nil
}

// Record is a session with its derived hours, as shown to the user.
type Record struct {
	Session
	HoursWorked   float64 `json:"hoursWorked"`
	DailyOvertime float64 `json:"dailyOvertime"`
	Inconsistent  bool    `json:"inconsistent,omitempty"`
}

type OvertimeEntry struct {
	WorkDate      string  `json:"workDate"`
	HoursWorked   float64 `json:"hoursWorked"`
	OvertimeHours float64 `json:"overtimeHours"`
}

type OvertimeReport struct {
	UserID        string          `json:"userId"`
	From          string          `json:"from"`
	To            string          `json:"to"`
	Threshold     float64         `json:"threshold"`
	Entries       []OvertimeEntry `json:"entries"`
	TotalHours    float64         `json:"totalHours"`
	TotalOvertime float64         `json:"totalOvertime"`
}

// WorkSummary is the worked time a user accumulated within a window.
type WorkSummary struct {
	UserID   string  `json:"userId"`
	From     string  `json:"from"`
	To       string  `json:"to"`
	Sessions int     `json:"sessions"`
	Hours    float64 `json:"hours"`
}
