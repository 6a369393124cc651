package requestshandler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"timekeep/internal/domain/audit"
	"timekeep/internal/domain/auth"
	"timekeep/internal/domain/requests"
	"timekeep/internal/transport/http/middleware"
)

type memStore struct {
	byID  map[string]requests.Request
	order []string
}

func (m *memStore) UserActive(_ context.Context, userID string) (bool, error) {
	return userID == "emp2" || userID == "emp" || userID == "mgr", nil
}

func (m *memStore) Create(_ context.Context, requesterID string, details requests.Details) (requests.Request, error) {
	req := requests.Request{
		ID:          fmt.Sprintf("r%d", len(m.order)+1),
		Kind:        details.Kind(),
		RequesterID: requesterID,
		Status:      requests.StatusPending,
		Details:     details,
	}
	m.byID[req.ID] = req
	m.order = append(m.order, req.ID)
	return req, nil
}

func (m *memStore) Get(_ context.Context, id string) (requests.Request, error) {
	req, ok := m.byID[id]
	if !ok {
		return requests.Request{}, requests.ErrRequestNotFound
	}
	return req, nil
}

func (m *memStore) List(_ context.Context, filter requests.ListFilter) ([]requests.Request, int, error) {
	var out []requests.Request
	for _, id := range m.order {
		req := m.byID[id]
		if req.Kind != filter.Kind || (filter.RequesterID != "" && req.RequesterID != filter.RequesterID) {
			continue
		}
		if filter.Status != "" && req.Status != filter.Status {
			continue
		}
		out = append(out, req)
	}
	return out, len(out), nil
}

func (m *memStore) Resolve(_ context.Context, id string, status requests.Status, resolverID, note string, at time.Time) (requests.Request, error) {
	req := m.byID[id]
	if req.Status != requests.StatusPending {
		return requests.Request{}, requests.ErrAlreadyResolved
	}
	req.Status, req.ResolverID, req.ResolutionNote, req.ResolvedAt = status, resolverID, note, &at
	m.byID[id] = req
	return req, nil
}

type captureRecorder struct {
	events []audit.Event
}

func (c *captureRecorder) Record(_ context.Context, ev audit.Event) error {
	c.events = append(c.events, ev)
	return nil
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error struct {
		Code    string `json:"code"`
		Details struct {
			Fields []struct {
				Field string `json:"field"`
			} `json:"fields"`
		} `json:"details"`
	} `json:"error"`
}

func fieldNames(env envelope) []string {
	var out []string
	for _, f := range env.Error.Details.Fields {
		out = append(out, f.Field)
	}
	return out
}

type requestView struct {
	ID             string         `json:"id"`
	Kind           string         `json:"kind"`
	Status         string         `json:"status"`
	Details        map[string]any `json:"details"`
	ResolutionNote string         `json:"resolutionNote"`
}

type pageView struct {
	Items []requestView `json:"items"`
	Total int           `json:"total"`
}

var (
	employee = auth.UserContext{UserID: "emp", Role: auth.RoleEmployee}
	manager  = auth.UserContext{UserID: "mgr", Role: auth.RoleManager}
)

func setup() (http.Handler, *captureRecorder) {
	recorder := &captureRecorder{}
	r := chi.NewRouter()
	NewHandler(requests.NewService(&memStore{byID: map[string]requests.Request{}}), recorder).RegisterRoutes(r)
	return r, recorder
}

func call(t *testing.T, h http.Handler, as *auth.UserContext, method, path, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if as != nil {
		req = req.WithContext(middleware.WithUser(req.Context(), *as))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return rec.Code, env
}

func TestLeaveRequestLifecycle(t *testing.T) {
	router, recorder := setup()

	status, env := call(t, router, &employee, http.MethodPost, "/leave-requests", `{"startDate":"2024-06-03","endDate":"2024-06-05","reason":"trip"}`)
	if status != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", status, env.Error.Code)
	}
	var created requestView
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Status != "PENDING" || created.Kind != "leave" || created.Details["days"] != float64(3) {
		t.Fatalf("unexpected request: %+v", created)
	}

	if status, _ := call(t, router, &employee, http.MethodPost, "/leave-requests/"+created.ID+"/approve", ""); status != http.StatusForbidden {
		t.Fatalf("expected employee to be refused approval, got %d", status)
	}

	status, env = call(t, router, &manager, http.MethodPost, "/leave-requests/"+created.ID+"/approve", `{"note":"enjoy"}`)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", status, env.Error.Code)
	}
	var resolved requestView
	_ = json.Unmarshal(env.Data, &resolved)
	if resolved.Status != "APPROVED" || resolved.ResolutionNote != "enjoy" {
		t.Fatalf("unexpected resolution: %+v", resolved)
	}

	status, env = call(t, router, &manager, http.MethodPost, "/leave-requests/"+created.ID+"/reject", "")
	if status != http.StatusConflict || env.Error.Code != "already_resolved" {
		t.Fatalf("expected 409 already_resolved, got %d %s", status, env.Error.Code)
	}

	if len(recorder.events) != 2 {
		t.Fatalf("expected create and resolve audit events, got %d", len(recorder.events))
	}
	payload, ok := recorder.events[1].Payload.(audit.RequestResolvedPayload)
	if !ok || payload.Status != "APPROVED" || payload.RequesterID != "emp" || recorder.events[1].ActorID != "mgr" {
		t.Fatalf("unexpected resolve event: %+v", recorder.events[1])
	}
}

func TestResolveRules(t *testing.T) {
	router, _ := setup()

	_, env := call(t, router, &manager, http.MethodPost, "/approval-requests", `{"subject":"New laptop"}`)
	var own requestView
	_ = json.Unmarshal(env.Data, &own)
	status, env := call(t, router, &manager, http.MethodPost, "/approval-requests/"+own.ID+"/approve", "")
	if status != http.StatusForbidden || env.Error.Code != "self_resolution" {
		t.Fatalf("expected 403 self_resolution, got %d %s", status, env.Error.Code)
	}

	status, env = call(t, router, &manager, http.MethodPost, "/leave-requests/"+own.ID+"/approve", "")
	if status != http.StatusNotFound {
		t.Fatalf("expected kind mismatch to be not found, got %d %s", status, env.Error.Code)
	}
	status, _ = call(t, router, &manager, http.MethodPost, "/approval-requests/r999/reject", "")
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown request, got %d", status)
	}
}

func TestShiftSwapValidation(t *testing.T) {
	router, _ := setup()

	status, _ := call(t, router, &employee, http.MethodPost, "/shift-swap-requests", `{"counterpartUserId":"emp2","shiftDate":"2024-06-07"}`)
	if status != http.StatusCreated {
		t.Fatalf("expected 201, got %d", status)
	}
	status, env := call(t, router, &employee, http.MethodPost, "/shift-swap-requests", `{"counterpartUserId":"ghost","shiftDate":"2024-06-07"}`)
	if status != http.StatusNotFound || env.Error.Code != "counterpart_not_found" {
		t.Fatalf("expected 404 counterpart_not_found, got %d %s", status, env.Error.Code)
	}
	status, _ = call(t, router, &employee, http.MethodPost, "/leave-requests", `{"startDate":"2024-06-05","endDate":"2024-06-03"}`)
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for end before start, got %d", status)
	}
}

func TestCreateReportsFieldIssues(t *testing.T) {
	router, _ := setup()
	tests := []struct {
		name   string
		path   string
		body   string
		fields []string
	}{
		{name: "leave bad start", path: "/leave-requests", body: `{"startDate":"06/03/2024","endDate":"2024-06-05"}`, fields: []string{"startDate"}},
		{name: "leave end before start", path: "/leave-requests", body: `{"startDate":"2024-06-05","endDate":"2024-06-03"}`, fields: []string{"endDate", "startDate"}},
		{name: "leave timestamp", path: "/leave-requests", body: `{"startDate":"2024-06-03T00:00:00Z","endDate":"2024-06-05"}`, fields: []string{"startDate"}},
		{name: "swap missing fields", path: "/shift-swap-requests", body: `{"counterpartDate":"tomorrow"}`, fields: []string{"counterpartDate", "counterpartUserId", "shiftDate"}},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			status, env := call(t, router, &employee, http.MethodPost, tc.path, tc.body)
			if status != http.StatusBadRequest || env.Error.Code != "validation_error" {
				t.Fatalf("expected 400 validation_error, got %d %s", status, env.Error.Code)
			}
			got := fieldNames(env)
			if strings.Join(got, ",") != strings.Join(tc.fields, ",") {
				t.Fatalf("expected fields %v, got %v", tc.fields, got)
			}
		})
	}
}

func TestListScopes(t *testing.T) {
	router, _ := setup()
	call(t, router, &employee, http.MethodPost, "/approval-requests", `{"subject":"Desk"}`)
	call(t, router, &manager, http.MethodPost, "/approval-requests", `{"subject":"Chair"}`)

	_, env := call(t, router, &employee, http.MethodGet, "/approval-requests", "")
	var page pageView
	_ = json.Unmarshal(env.Data, &page)
	if page.Total != 1 {
		t.Fatalf("expected own requests only, got %d", page.Total)
	}

	if status, _ := call(t, router, &employee, http.MethodGet, "/approval-requests?all=true", ""); status != http.StatusForbidden {
		t.Fatalf("expected employee to be refused all requests, got %d", status)
	}

	_, env = call(t, router, &manager, http.MethodGet, "/approval-requests?all=true&status=pending", "")
	_ = json.Unmarshal(env.Data, &page)
	if page.Total != 2 {
		t.Fatalf("expected approver to see all pending requests, got %d", page.Total)
	}

	if status, _ := call(t, router, &manager, http.MethodGet, "/approval-requests?status=LOST", ""); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", status)
	}
	if status, _ := call(t, router, nil, http.MethodGet, "/approval-requests", ""); status != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity, got %d", status)
	}
}
