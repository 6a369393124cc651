package shared

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	if got := ClientIP(req); got != "10.0.0.1" {
		t.Fatalf("expected remote addr host, got %q", got)
	}

	req.Header.Set("X-Real-IP", "10.0.0.2")
	if got := ClientIP(req); got != "10.0.0.2" {
		t.Fatalf("expected real ip, got %q", got)
	}

	req.Header.Set("X-Forwarded-For", "192.168.1.9, 10.0.0.3")
	if got := ClientIP(req); got != "192.168.1.9" {
		t.Fatalf("expected first forwarded hop, got %q", got)
	}
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"ada"}`))
	if err := DecodeJSON(req, &dst); err != nil || dst.Name != "ada" {
		t.Fatalf("unexpected result %v %+v", err, dst)
	}

	req = httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"ada","extra":1}`))
	if err := DecodeJSON(req, &dst); err == nil {
		t.Fatal("expected unknown field error")
	}

	req = httptest.NewRequest("POST", "/", strings.NewReader(``))
	if err := DecodeJSON(req, &dst); err != ErrEmptyBody {
		t.Fatalf("expected empty body error, got %v", err)
	}
}

func TestValidatorCollectsIssues(t *testing.T) {
	v := NewValidator()
	v.Required("email", " ", "is required")
	v.Enum("type", "bogus", []string{"fixed", "percentage"}, "must be fixed or percentage")
	start, _ := v.Date("startDate", "2024-05-10")
	end, _ := v.Date("endDate", "2024-05-01")
	v.DateOrder("startDate", start, "endDate", end)

	issues := v.Issues()
	if len(issues) != 4 {
		t.Fatalf("expected 4 issues, got %+v", issues)
	}
	if issues[0].Field != "email" {
		t.Fatalf("expected sorted issues, got %+v", issues)
	}
}

func TestValidatorOptionalDate(t *testing.T) {
	v := NewValidator()
	if got := v.OptionalDate("from", " "); !got.IsZero() || v.HasIssues() {
		t.Fatalf("expected blank date to be skipped, got %v %+v", got, v.Issues())
	}
	if got := v.OptionalDate("from", "2024-05-01"); got.Day() != 1 || v.HasIssues() {
		t.Fatalf("expected parsed date, got %v", got)
	}
	v.OptionalDate("to", "2024-05-01T00:00:00Z")
	if issues := v.Issues(); len(issues) != 1 || issues[0].Field != "to" {
		t.Fatalf("expected timestamp rejected, got %+v", issues)
	}
}

func TestParseDay(t *testing.T) {
	loc := time.FixedZone("X", 3*3600)
	day, err := ParseDay("2024-05-01", loc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if day.Location() != loc || day.Hour() != 0 {
		t.Fatalf("expected midnight in loc, got %v", day)
	}
	if _, err := ParseDay("05/01/2024", loc); err == nil {
		t.Fatal("expected parse error")
	}
}
