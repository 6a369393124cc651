package usershandler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"timekeep/internal/domain/audit"
	"timekeep/internal/domain/auth"
	"timekeep/internal/domain/users"
	"timekeep/internal/transport/http/middleware"
)

type memUsers struct {
	byID map[string]users.User
}

func (m *memUsers) Create(_ context.Context, u users.User) (users.User, error) {
	m.byID[u.ID] = u
	return u, nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (users.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return users.User{}, users.ErrUserNotFound
	}
	return u, nil
}

func (m *memUsers) GetByEmail(context.Context, string) (users.User, error) {
	return users.User{}, users.ErrUserNotFound
}

func (m *memUsers) List(_ context.Context, filter users.ListFilter) ([]users.User, int, error) {
	var out []users.User
	for _, id := range []string{"admin", "emp", "mgr"} {
		u, ok := m.byID[id]
		if ok && (filter.IncludeArchived || !u.Archived()) {
			out = append(out, u)
		}
	}
	return out, len(out), nil
}

func (m *memUsers) UpdateRole(_ context.Context, id string, role auth.Role) (users.User, error) {
	u := m.byID[id]
	u.Role = role
	m.byID[id] = u
	return u, nil
}

func (m *memUsers) UpdateDepartment(_ context.Context, id, department, managerID string) (users.User, error) {
	u := m.byID[id]
	u.Department = department
	u.ManagerID = managerID
	m.byID[id] = u
	return u, nil
}

func (m *memUsers) Archive(_ context.Context, id string, at time.Time) (users.User, error) {
	u := m.byID[id]
	u.ArchivedAt = &at
	m.byID[id] = u
	return u, nil
}

type captureRecorder struct {
	events []audit.Event
}

func (c *captureRecorder) Record(_ context.Context, ev audit.Event) error {
	c.events = append(c.events, ev)
	return nil
}

var (
	admin    = auth.UserContext{UserID: "admin", Role: auth.RoleAdmin}
	manager  = auth.UserContext{UserID: "mgr", Role: auth.RoleManager}
	employee = auth.UserContext{UserID: "emp", Role: auth.RoleEmployee}
)

func setup() (http.Handler, *memUsers, *captureRecorder) {
	store := &memUsers{byID: map[string]users.User{
		"admin": {ID: "admin", Name: "Admin", Role: auth.RoleAdmin},
		"emp":   {ID: "emp", Name: "Emp", Role: auth.RoleEmployee},
		"mgr":   {ID: "mgr", Name: "Mgr", Role: auth.RoleManager},
	}}
	recorder := &captureRecorder{}
	r := chi.NewRouter()
	NewHandler(users.NewService(store, "secret", time.Hour), recorder).RegisterRoutes(r)
	return r, store, recorder
}

func serve(h http.Handler, as *auth.UserContext, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if as != nil {
		req = req.WithContext(middleware.WithUser(req.Context(), *as))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestListRequiresTeamRole(t *testing.T) {
	router, _, _ := setup()
	if rec := serve(router, &employee, http.MethodGet, "/users", ""); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for employee, got %d", rec.Code)
	}
	rec := serve(router, &manager, http.MethodGet, "/users", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for manager, got %d", rec.Code)
	}
	if rec.Header().Get("X-Total-Count") != "3" {
		t.Fatalf("expected total count header, got %q", rec.Header().Get("X-Total-Count"))
	}
}

func TestUpdateRoleRecordsAudit(t *testing.T) {
	router, store, recorder := setup()
	if rec := serve(router, &manager, http.MethodPatch, "/users/emp/role", `{"role":"SUPERVISOR"}`); rec.Code != http.StatusForbidden {
		t.Fatalf("expected non-admin to be refused, got %d", rec.Code)
	}

	rec := serve(router, &admin, http.MethodPatch, "/users/emp/role", `{"role":"supervisor"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if store.byID["emp"].Role != auth.RoleSupervisor {
		t.Fatalf("expected role change, got %s", store.byID["emp"].Role)
	}
	if len(recorder.events) != 1 {
		t.Fatalf("expected one audit event, got %d", len(recorder.events))
	}
	change, ok := recorder.events[0].Payload.(audit.RoleChangePayload)
	if !ok || change.From != "EMPLOYEE" || change.To != "SUPERVISOR" || recorder.events[0].ActorID != "admin" {
		t.Fatalf("unexpected audit event: %+v", recorder.events[0])
	}

	rec = serve(router, &admin, http.MethodPatch, "/users/emp/role", `{"role":"OWNER"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown role, got %d", rec.Code)
	}
	rec = serve(router, &admin, http.MethodPatch, "/users/nobody/role", `{"role":"ADMIN"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown user, got %d", rec.Code)
	}
}

func TestUpdateDepartment(t *testing.T) {
	router, store, _ := setup()
	rec := serve(router, &admin, http.MethodPatch, "/users/emp/department", `{"department":"Ops","managerId":"mgr"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if store.byID["emp"].ManagerID != "mgr" || store.byID["emp"].Department != "Ops" {
		t.Fatalf("unexpected user: %+v", store.byID["emp"])
	}

	rec = serve(router, &admin, http.MethodPatch, "/users/emp/department", `{"department":"Ops","managerId":"ghost"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown manager, got %d", rec.Code)
	}
}

func TestArchive(t *testing.T) {
	router, store, _ := setup()
	if rec := serve(router, &admin, http.MethodPost, "/users/admin/archive", ""); rec.Code != http.StatusConflict {
		t.Fatalf("expected self archive to be refused, got %d", rec.Code)
	}

	rec := serve(router, &admin, http.MethodPost, "/users/emp/archive", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !store.byID["emp"].Archived() {
		t.Fatal("expected user archived")
	}

	rec = serve(router, &admin, http.MethodPost, "/users/emp/archive", "")
	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	if rec.Code != http.StatusConflict || env.Error.Code != "user_archived" {
		t.Fatalf("expected 409 user_archived, got %d %s", rec.Code, env.Error.Code)
	}

	rec = serve(router, &manager, http.MethodGet, "/users?includeArchived=true", "")
	if rec.Header().Get("X-Total-Count") != "3" {
		t.Fatalf("expected archived users listed on request, got %q", rec.Header().Get("X-Total-Count"))
	}
	rec = serve(router, &manager, http.MethodGet, "/users", "")
	if rec.Header().Get("X-Total-Count") != "2" {
		t.Fatalf("expected archived users hidden by default, got %q", rec.Header().Get("X-Total-Count"))
	}
}
