package authhandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"timekeep/internal/domain/audit"
	"timekeep/internal/domain/users"
	"timekeep/internal/transport/http/api"
	"timekeep/internal/transport/http/middleware"
	"timekeep/internal/transport/http/shared"
)

type Handler struct {
	Users *users.Service
	Audit shared.AuditRecorder
}

func NewHandler(usersSvc *users.Service, recorder shared.AuditRecorder) *Handler {
	return &Handler{Users: usersSvc, Audit: recorder}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/register", h.HandleRegister)
	r.Post("/login", h.HandleLogin)
	r.With(middleware.RequireAuth).Get("/me", h.HandleMe)
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload registerRequest
	if !shared.Bind(w, r, &payload, requestID) {
		return
	}

	validator := shared.NewValidator()
	validator.Required("name", payload.Name, "name is required")
	validator.Required("email", payload.Email, "email is required")
	validator.Required("password", payload.Password, "password is required")
	if validator.Reject(w, requestID) {
		return
	}

	user, err := h.Users.Register(r.Context(), users.RegisterInput{
		Name:     payload.Name,
		Email:    payload.Email,
		Password: payload.Password,
	})
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	shared.Audit(r, h.Audit, user.ID, audit.Event{
		EntityType: "user",
		EntityID:   user.ID,
		Payload:    audit.UserPayload{Action: "registered"},
	})
	api.Created(w, user, requestID)
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	var payload loginRequest
	if !shared.Bind(w, r, &payload, requestID) {
		return
	}
	if payload.Email == "" || payload.Password == "" {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password", requestID)
		return
	}

	session, err := h.Users.Authenticate(r.Context(), payload.Email, payload.Password)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Success(w, session, requestID)
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	identity, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", requestID)
		return
	}
	user, err := h.Users.Get(r.Context(), identity.UserID)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	api.Success(w, user, requestID)
}
