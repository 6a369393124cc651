package attendancehandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"timekeep/internal/domain/attendance"
	"timekeep/internal/domain/audit"
	"timekeep/internal/domain/auth"
	"timekeep/internal/transport/http/api"
	"timekeep/internal/transport/http/middleware"
	"timekeep/internal/transport/http/shared"
)

type Handler struct {
	Service *attendance.Service
	Audit   shared.AuditRecorder
}

func NewHandler(service *attendance.Service, recorder shared.AuditRecorder) *Handler {
	return &Handler{Service: service, Audit: recorder}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/clock-in", h.handleClockIn)
		r.Post("/clock-out", h.handleClockOut)
		r.Post("/break-start", h.handleBreakStart)
		r.Post("/break-end", h.handleBreakEnd)
		r.Get("/my-records", h.handleMyRecords)
		r.Get("/overtime-report", h.handleOvertimeReport)
	})
}

func (h *Handler) handleClockIn(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	sess, err := h.Service.ClockIn(r.Context(), user.UserID)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	shared.Audit(r, h.Audit, user.UserID, audit.Event{
		EntityType: "clock_session",
		EntityID:   sess.ID,
		Payload:    audit.ClockPayload{Action: "clock_in", WorkDate: sess.WorkDate, ClockIn: sess.ClockIn},
	})
	api.Success(w, h.Service.Policy().Record(sess), requestID)
}

func (h *Handler) handleClockOut(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	sess, err := h.Service.ClockOut(r.Context(), user.UserID)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	shared.Audit(r, h.Audit, user.UserID, audit.Event{
		EntityType: "clock_session",
		EntityID:   sess.ID,
		Payload:    audit.ClockPayload{Action: "clock_out", WorkDate: sess.WorkDate, ClockIn: sess.ClockIn, ClockOut: sess.ClockOut},
	})
	api.Success(w, h.Service.Policy().Record(sess), requestID)
}

func (h *Handler) handleBreakStart(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	sess, err := h.Service.StartBreak(r.Context(), user.UserID)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	if brk, ok := lastBreak(sess); ok {
		shared.Audit(r, h.Audit, user.UserID, audit.Event{
			EntityType: "break_period",
			EntityID:   brk.ID,
			Payload:    audit.BreakPayload{Action: "break_start", SessionID: sess.ID, StartedAt: brk.StartedAt},
		})
	}
	api.Success(w, h.Service.Policy().Record(sess), requestID)
}

func (h *Handler) handleBreakEnd(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	sess, err := h.Service.EndBreak(r.Context(), user.UserID)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	if brk, ok := lastEndedBreak(sess); ok {
		shared.Audit(r, h.Audit, user.UserID, audit.Event{
			EntityType: "break_period",
			EntityID:   brk.ID,
			Payload:    audit.BreakPayload{Action: "break_end", SessionID: sess.ID, StartedAt: brk.StartedAt, EndedAt: brk.EndedAt},
		})
	}
	api.Success(w, h.Service.Policy().Record(sess), requestID)
}

func (h *Handler) handleMyRecords(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	query := r.URL.Query()

	validator := shared.NewValidator()
	from := validator.OptionalDate("from", query.Get("from"))
	to := validator.OptionalDate("to", query.Get("to"))
	validator.DateOrder("from", from, "to", to)
	if validator.Reject(w, requestID) {
		return
	}

	records, err := h.Service.MyRecords(r.Context(), user.UserID, query.Get("from"), query.Get("to"))
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Success(w, records, requestID)
}

func (h *Handler) handleOvertimeReport(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	target := r.URL.Query().Get("userId")
	if target == "" {
		target = user.UserID
	}
	if target != user.UserID && !auth.CanViewTeam(user.Role) {
		api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", requestID)
		return
	}

	report, err := h.Service.OvertimeReport(r.Context(), target)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Success(w, report, requestID)
}

// lastBreak is the most recently started break of sess.
func lastBreak(sess attendance.Session) (attendance.Break, bool) {
	var out attendance.Break
	found := false
	for _, b := range sess.Breaks {
		if !found || b.StartedAt.After(out.StartedAt) {
			out, found = b, true
		}
	}
	return out, found
}

func lastEndedBreak(sess attendance.Session) (attendance.Break, bool) {
	var out attendance.Break
	found := false
	for _, b := range sess.Breaks {
		if b.EndedAt == nil {
			continue
		}
		if !found || b.EndedAt.After(*out.EndedAt) || (b.EndedAt.Equal(*out.EndedAt) && b.StartedAt.After(out.StartedAt)) {
			out, found = b, true
		}
	}
	return out, found
}
