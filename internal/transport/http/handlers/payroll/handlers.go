package payrollhandler

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"timekeep/internal/domain/audit"
	"timekeep/internal/domain/auth"
	"timekeep/internal/domain/payroll"
	"timekeep/internal/transport/http/api"
	"timekeep/internal/transport/http/middleware"
	"timekeep/internal/transport/http/shared"
)

type Handler struct {
	Service *payroll.Service
	Audit   shared.AuditRecorder
}

func NewHandler(service *payroll.Service, recorder shared.AuditRecorder) *Handler {
	return &Handler{Service: service, Audit: recorder}
}

type wageRequest struct {
	UserID        string   `json:"userId"`
	HourlyRate    *float64 `json:"hourlyRate"`
	MonthlySalary *float64 `json:"monthlySalary"`
	AnnualSalary  *float64 `json:"annualSalary"`
	Currency      string   `json:"currency"`
}

type deductionRequest struct {
	UserID string  `json:"userId"`
	Name   string  `json:"name"`
	Type   string  `json:"type"`
	Amount float64 `json:"amount"`
}

type bonusRequest struct {
	UserID string  `json:"userId"`
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

type generateRequest struct {
	UserID string `json:"userId"`
	Period string `json:"period"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(auth.IsAdmin))
		r.Post("/employee-wages", h.handleUpsertWage)
		r.Post("/deductions", h.handleAddDeduction)
		r.Post("/bonuses", h.handleAddBonus)
		r.Post("/payroll-generate", h.handleGenerate)
	})
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/employee-wages/{userId}", h.handleGetWage)
		r.Get("/payroll-records/{userId}", h.handleListRecords)
		r.Get("/payroll-records/{userId}/{recordId}/payslip", h.handlePayslip)
	})
}

// selfOrAdmin refuses access to another user's pay data unless the caller is an admin.
func selfOrAdmin(w http.ResponseWriter, r *http.Request, userID string) bool {
	user, _ := middleware.GetUser(r.Context())
	if user.UserID == userID || user.IsAdmin() {
		return true
	}
	api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", middleware.GetRequestID(r.Context()))
	return false
}

func requireUserID(w http.ResponseWriter, userID, requestID string) bool {
	validator := shared.NewValidator()
	validator.Required("userId", userID, "userId is required")
	return !validator.Reject(w, requestID)
}

func basisLabel(p payroll.WageProfile) string {
	basis, err := payroll.ResolvePayBasis(p)
	if err != nil {
		return ""
	}
	return string(basis.Kind)
}

func (h *Handler) handleUpsertWage(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	var payload wageRequest
	if !shared.Bind(w, r, &payload, requestID) || !requireUserID(w, payload.UserID, requestID) {
		return
	}

	profile, err := h.Service.UpsertWage(r.Context(), payroll.WageInput{
		UserID:        payload.UserID,
		HourlyRate:    payload.HourlyRate,
		MonthlySalary: payload.MonthlySalary,
		AnnualSalary:  payload.AnnualSalary,
		Currency:      payload.Currency,
	})
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	shared.Audit(r, h.Audit, actor.UserID, audit.Event{
		EntityType: "wage_profile",
		EntityID:   profile.ID,
		Payload:    audit.WagePayload{Action: "wage_set", Basis: basisLabel(profile)},
	})
	api.Success(w, profile, requestID)
}

func (h *Handler) handleGetWage(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	userID := chi.URLParam(r, "userId")
	if !selfOrAdmin(w, r, userID) {
		return
	}

	profile, err := h.Service.GetWage(r.Context(), userID)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Success(w, profile, requestID)
}

func (h *Handler) handleAddDeduction(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	var payload deductionRequest
	if !shared.Bind(w, r, &payload, requestID) || !requireUserID(w, payload.UserID, requestID) {
		return
	}
	validator := shared.NewValidator()
	validator.Required("type", payload.Type, "type is required")
	validator.Enum("type", payload.Type, []string{string(payroll.DeductionFixed), string(payroll.DeductionPercentage)}, "type must be fixed or percentage")
	if validator.Reject(w, requestID) {
		return
	}

	deduction, err := h.Service.AddDeduction(r.Context(), payroll.DeductionInput{
		UserID: payload.UserID,
		Name:   payload.Name,
		Kind:   payroll.DeductionKind(payload.Type),
		Amount: payload.Amount,
	})
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	shared.Audit(r, h.Audit, actor.UserID, audit.Event{
		EntityType: "deduction",
		EntityID:   deduction.ID,
		Payload:    audit.WagePayload{Action: "deduction_added", Name: deduction.Name, Amount: deduction.Amount, Basis: string(deduction.Kind)},
	})
	api.Created(w, deduction, requestID)
}

func (h *Handler) handleAddBonus(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	var payload bonusRequest
	if !shared.Bind(w, r, &payload, requestID) || !requireUserID(w, payload.UserID, requestID) {
		return
	}

	bonus, err := h.Service.AddBonus(r.Context(), payroll.BonusInput{
		UserID: payload.UserID,
		Name:   payload.Name,
		Amount: payload.Amount,
	})
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	shared.Audit(r, h.Audit, actor.UserID, audit.Event{
		EntityType: "bonus",
		EntityID:   bonus.ID,
		Payload:    audit.WagePayload{Action: "bonus_added", Name: bonus.Name, Amount: bonus.Amount},
	})
	api.Created(w, bonus, requestID)
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())

	var payload generateRequest
	if !shared.Bind(w, r, &payload, requestID) || !requireUserID(w, payload.UserID, requestID) {
		return
	}

	record, err := h.Service.GeneratePayroll(r.Context(), payload.UserID, payload.Period)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	shared.Audit(r, h.Audit, actor.UserID, audit.Event{
		EntityType: "payroll_record",
		EntityID:   record.ID,
		Payload: audit.PayrollPayload{
			Period:   record.Period,
			PayBasis: string(record.PayBasis),
			GrossPay: record.GrossPay,
			NetPay:   record.NetPay,
			Hours:    record.HoursWorked,
		},
	})
	api.Created(w, record, requestID)
}

func (h *Handler) handleListRecords(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	userID := chi.URLParam(r, "userId")
	if !selfOrAdmin(w, r, userID) {
		return
	}

	records, err := h.Service.ListRecords(r.Context(), userID)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Success(w, records, requestID)
}

func (h *Handler) handlePayslip(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	userID := chi.URLParam(r, "userId")
	recordID := chi.URLParam(r, "recordId")
	if !selfOrAdmin(w, r, userID) {
		return
	}

	var buf bytes.Buffer
	if err := h.Service.WritePayslip(r.Context(), &buf, userID, recordID); err != nil {
		api.FailErr(w, err, requestID)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=payslip-"+recordID+".pdf")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Str("record_id", recordID).Msg("payslip write failed")
	}
}
