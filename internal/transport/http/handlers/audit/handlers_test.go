package audithandler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"timekeep/internal/domain/audit"
	"timekeep/internal/domain/auth"
	"timekeep/internal/transport/http/middleware"
)

type stubLister struct {
	got audit.Filter
}

func (s *stubLister) List(_ context.Context, filter audit.Filter) ([]audit.Entry, int, error) {
	s.got = filter
	return []audit.Entry{{ID: "e1", Kind: "attendance.clock_in", EntityType: "clock_session", EntityID: "s1"}}, 7, nil
}

func TestListEventsPassesFilter(t *testing.T) {
	lister := &stubLister{}
	r := chi.NewRouter()
	NewHandler(lister).RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/audit/events?kind=payroll.generated&actorId=a1&limit=10&offset=5", nil)
	req = req.WithContext(middleware.WithUser(req.Context(), auth.UserContext{UserID: "a1", Role: auth.RoleAdmin}))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-Total-Count") != "7" {
		t.Fatalf("expected total header, got %q", rec.Header().Get("X-Total-Count"))
	}
	if lister.got.Kind != "payroll.generated" || lister.got.ActorID != "a1" || lister.got.Limit != 10 || lister.got.Offset != 5 {
		t.Fatalf("unexpected filter: %+v", lister.got)
	}
}

func TestListEventsAdminOnly(t *testing.T) {
	r := chi.NewRouter()
	NewHandler(&stubLister{}).RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/audit/events", nil)
	req = req.WithContext(middleware.WithUser(req.Context(), auth.UserContext{UserID: "m1", Role: auth.RoleManager}))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}
