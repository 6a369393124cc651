package audithandler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"timekeep/internal/domain/audit"
	"timekeep/internal/domain/auth"
	"timekeep/internal/transport/http/api"
	"timekeep/internal/transport/http/middleware"
	"timekeep/internal/transport/http/shared"
)

type Lister interface {
	List(ctx context.Context, filter audit.Filter) ([]audit.Entry, int, error)
}

type Handler struct {
	Events Lister
}

func NewHandler(events Lister) *Handler {
	return &Handler{Events: events}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/audit", func(r chi.Router) {
		r.With(middleware.RequireRole(auth.IsAdmin)).Get("/events", h.handleListEvents)
	})
}

func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 100, 500)
	query := r.URL.Query()
	filter := audit.Filter{
		Kind:       query.Get("kind"),
		EntityType: query.Get("entityType"),
		EntityID:   query.Get("entityId"),
		ActorID:    query.Get("actorId"),
		Limit:      page.Limit,
		Offset:     page.Offset,
	}

	events, total, err := h.Events.List(r.Context(), filter)
	if err != nil {
		api.FailErr(w, err, requestID)
		return
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Success(w, events, requestID)
}
