package requestshandler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"timekeep/internal/domain/audit"
	"timekeep/internal/domain/auth"
	"timekeep/internal/domain/requests"
	"timekeep/internal/transport/http/api"
	"timekeep/internal/transport/http/middleware"
	"timekeep/internal/transport/http/shared"
)

type Handler struct {
	Service *requests.Service
	Audit   shared.AuditRecorder
}

func NewHandler(service *requests.Service, recorder shared.AuditRecorder) *Handler {
	return &Handler{Service: service, Audit: recorder}
}

type leaveRequest struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	StartHalf bool   `json:"startHalf"`
	EndHalf   bool   `json:"endHalf"`
	Reason    string `json:"reason"`
}

type shiftSwapRequest struct {
	CounterpartUserID string `json:"counterpartUserId"`
	ShiftDate         string `json:"shiftDate"`
	CounterpartDate   string `json:"counterpartDate"`
	Reason            string `json:"reason"`
}

type approvalRequest struct {
	Subject     string `json:"subject"`
	Description string `json:"description"`
}

type resolveRequest struct {
	Note string `json:"note"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	h.mount(r, "/leave-requests", requests.KindLeave, h.handleCreateLeave)
	h.mount(r, "/shift-swap-requests", requests.KindShiftSwap, h.handleCreateShiftSwap)
	h.mount(r, "/approval-requests", requests.KindApproval, h.handleCreateApproval)
}

func (h *Handler) mount(r chi.Router, path string, kind requests.Kind, create http.HandlerFunc) {
	r.Route(path, func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/", h.handleList(kind))
		r.Post("/", create)
		r.With(middleware.RequireRole(auth.CanApprove)).Post("/{id}/approve", h.handleResolve(kind, requests.StatusApproved))
		r.With(middleware.RequireRole(auth.CanApprove)).Post("/{id}/reject", h.handleResolve(kind, requests.StatusRejected))
	})
}

func (h *Handler) created(w http.ResponseWriter, r *http.Request, req requests.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	shared.Audit(r, h.Audit, req.RequesterID, audit.Event{
		EntityType: "request",
		EntityID:   req.ID,
		Payload:    audit.RequestCreatedPayload{RequestKind: string(req.Kind)},
	})
	api.Created(w, req, requestID)
}

func (h *Handler) handleCreateLeave(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload leaveRequest
	if !shared.Bind(w, r, &payload, requestID) {
		return
	}

	validator := shared.NewValidator()
	start, _ := validator.Date("startDate", payload.StartDate)
	end, _ := validator.Date("endDate", payload.EndDate)
	validator.DateOrder("startDate", start, "endDate", end)
	if validator.Reject(w, requestID) {
		return
	}
	req, err := h.Service.CreateLeave(r.Context(), user.UserID, requests.LeaveInput{
		StartDate: payload.StartDate,
		EndDate:   payload.EndDate,
		StartHalf: payload.StartHalf,
		EndHalf:   payload.EndHalf,
		Reason:    payload.Reason,
	})
	h.created(w, r, req, err)
}

func (h *Handler) handleCreateShiftSwap(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload shiftSwapRequest
	if !shared.Bind(w, r, &payload, requestID) {
		return
	}

	validator := shared.NewValidator()
	validator.Required("counterpartUserId", payload.CounterpartUserID, "is required")
	validator.Date("shiftDate", payload.ShiftDate)
	validator.OptionalDate("counterpartDate", payload.CounterpartDate)
	if validator.Reject(w, requestID) {
		return
	}
	req, err := h.Service.CreateShiftSwap(r.Context(), user.UserID, requests.ShiftSwapInput{
		CounterpartUserID: payload.CounterpartUserID,
		ShiftDate:         payload.ShiftDate,
		CounterpartDate:   payload.CounterpartDate,
		Reason:            payload.Reason,
	})
	h.created(w, r, req, err)
}

func (h *Handler) handleCreateApproval(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var payload approvalRequest
	if !shared.Bind(w, r, &payload, middleware.GetRequestID(r.Context())) {
		return
	}
	req, err := h.Service.CreateApproval(r.Context(), user.UserID, requests.ApprovalInput{
		Subject:     payload.Subject,
		Description: payload.Description,
	})
	h.created(w, r, req, err)
}

func (h *Handler) handleList(kind requests.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := middleware.GetRequestID(r.Context())
		user, _ := middleware.GetUser(r.Context())
		query := r.URL.Query()
		page := shared.ParsePagination(r, 50, 200)
		all, _ := strconv.ParseBool(query.Get("all"))

		filter := requests.ListFilter{Kind: kind, Limit: page.Limit, Offset: page.Offset}
		if raw := strings.ToUpper(strings.TrimSpace(query.Get("status"))); raw != "" {
			status := requests.Status(raw)
			if status != requests.StatusPending && !status.Terminal() {
				shared.FailValidation(w, requestID, []shared.ValidationIssue{{Field: "status", Reason: "must be PENDING, APPROVED or REJECTED"}})
				return
			}
			filter.Status = status
		}

		result, err := h.Service.List(r.Context(), user, filter, all)
		if err != nil {
			api.FailErr(w, err, requestID)
			return
		}
		w.Header().Set("X-Total-Count", strconv.Itoa(result.Total))
		api.Success(w, result, requestID)
	}
}

func (h *Handler) handleResolve(kind requests.Kind, decision requests.Status) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := middleware.GetRequestID(r.Context())
		user, _ := middleware.GetUser(r.Context())

		var payload resolveRequest
		if err := shared.DecodeJSON(r, &payload); err != nil && !errors.Is(err, shared.ErrEmptyBody) {
			api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
			return
		}

		req, err := h.Service.Resolve(r.Context(), user, kind, chi.URLParam(r, "id"), decision, payload.Note)
		if err != nil {
			api.FailErr(w, err, requestID)
			return
		}
		shared.Audit(r, h.Audit, user.UserID, audit.Event{
			EntityType: "request",
			EntityID:   req.ID,
			Payload: audit.RequestResolvedPayload{
				RequestKind: string(req.Kind),
				Status:      string(req.Status),
				RequesterID: req.RequesterID,
				Note:        req.ResolutionNote,
			},
		})
		api.Success(w, req, requestID)
	}
}
