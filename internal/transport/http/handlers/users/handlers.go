package usershandler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"timekeep/internal/domain/audit"
	"timekeep/internal/domain/auth"
	"timekeep/internal/domain/users"
	"timekeep/internal/transport/http/api"
	"timekeep/internal/transport/http/middleware"
	"timekeep/internal/transport/http/shared"
)

type Handler struct {
	Service *users.Service
	Audit   shared.AuditRecorder
}

func NewHandler(service *users.Service, recorder shared.AuditRecorder) *Handler {
	return &Handler{Service: service, Audit: recorder}
}

type roleRequest struct {
	Role string `json:"role"`
}

type departmentRequest struct {
	Department string `json:"department"`
	ManagerID  string `json:"managerId"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.With(middleware.RequireRole(auth.CanViewTeam)).Get("/", h.handleList)
		r.With(middleware.RequireRole(auth.IsAdmin)).Patch("/{id}/role", h.handleUpdateRole)
		r.With(middleware.RequireRole(auth.IsAdmin)).Patch("/{id}/department", h.handleUpdateDepartment)
		r.With(middleware.RequireRole(auth.IsAdmin)).Post("/{id}/archive", h.handleArchive)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 50, 200)
	includeArchived, _ := strconv.ParseBool(r.URL.Query().Get("includeArchived"))

	result, err := h.Service.List(r.Context(), users.ListFilter{
		IncludeArchived: includeArchived,
		Limit:           page.Limit,
		Offset:          page.Offset,
	})
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(result.Total))
	api.Success(w, result, requestID)
}

func (h *Handler) handleUpdateRole(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())
	id := chi.URLParam(r, "id")

	var payload roleRequest
	if !shared.Bind(w, r, &payload, requestID) {
		return
	}

	before, err := h.Service.Get(r.Context(), id)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	updated, err := h.Service.UpdateRole(r.Context(), id, payload.Role)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	shared.Audit(r, h.Audit, actor.UserID, audit.Event{
		EntityType: "user",
		EntityID:   updated.ID,
		Payload:    audit.RoleChangePayload{From: string(before.Role), To: string(updated.Role)},
	})
	api.Success(w, updated, requestID)
}

func (h *Handler) handleUpdateDepartment(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())
	id := chi.URLParam(r, "id")

	var payload departmentRequest
	if !shared.Bind(w, r, &payload, requestID) {
		return
	}

	updated, err := h.Service.UpdateDepartment(r.Context(), id, payload.Department, payload.ManagerID)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	shared.Audit(r, h.Audit, actor.UserID, audit.Event{
		EntityType: "user",
		EntityID:   updated.ID,
		Payload:    audit.UserPayload{Action: "department_changed", Department: updated.Department, ManagerID: updated.ManagerID},
	})
	api.Success(w, updated, requestID)
}

func (h *Handler) handleArchive(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	actor, _ := middleware.GetUser(r.Context())
	id := chi.URLParam(r, "id")
	if id == actor.UserID {
		api.Fail(w, http.StatusConflict, "self_archive", "administrators cannot archive themselves", requestID)
		return
	}

	archived, err := h.Service.Archive(r.Context(), id)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	shared.Audit(r, h.Audit, actor.UserID, audit.Event{
		EntityType: "user",
		EntityID:   archived.ID,
		Payload:    audit.UserPayload{Action: "archived"},
	})
	api.Success(w, archived, requestID)
}
