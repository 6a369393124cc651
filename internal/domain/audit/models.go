package audit

import (
	"encoding/json"
	"time"
)

// Payload is the typed body of an audit event. Each variant names its own kind.
type Payload interface {
	Kind() string
}

type ClockPayload struct {
	Action   string     `json:"action"`
	WorkDate string     `json:"workDate"`
	ClockIn  *time.Time `json:"clockIn,omitempty"`
	ClockOut *time.Time `json:"clockOut,omitempty"`
}

func (p ClockPayload) Kind() string { return "attendance." + p.Action }

type BreakPayload struct {
	Action    string     `json:"action"`
	SessionID string     `json:"sessionId"`
	StartedAt time.Time  `json:"startedAt"`
	EndedAt   *time.Time `json:"endedAt,omitempty"`
}

func (p BreakPayload) Kind() string { return "attendance." + p.Action }

type WagePayload struct {
	Action string  `json:"action"`
	Name   string  `json:"name,omitempty"`
	Amount float64 `json:"amount,omitempty"`
	Basis  string  `json:"basis,omitempty"`
}

func (p WagePayload) Kind() string { return "payroll." + p.Action }

type PayrollPayload struct {
	Period   string  `json:"period"`
	PayBasis string  `json:"payBasis"`
	GrossPay float64 `json:"grossPay"`
	NetPay   float64 `json:"netPay"`
	Hours    float64 `json:"hoursWorked"`
}

func (PayrollPayload) Kind() string { return "payroll.generated" }

type RequestCreatedPayload struct {
	RequestKind string `json:"requestKind"`
}

func (RequestCreatedPayload) Kind() string { return "request.created" }

type RequestResolvedPayload struct {
	RequestKind string `json:"requestKind"`
	Status      string `json:"status"`
	RequesterID string `json:"requesterId"`
	Note        string `json:"note,omitempty"`
}

func (RequestResolvedPayload) Kind() string { return "request.resolved" }

type RoleChangePayload struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func (RoleChangePayload) Kind() string { return "user.role_changed" }

type UserPayload struct {
	Action     string `json:"action"`
	Department string `json:"department,omitempty"`
	ManagerID  string `json:"managerId,omitempty"`
}

func (p UserPayload) Kind() string { return "user." + p.Action }

// RawPayload carries unstructured data under a caller-chosen kind.
type RawPayload struct {
	EventKind string         `json:"-"`
	Data      map[string]any `json:"data"`
}

func (p RawPayload) Kind() string {
	if p.EventKind == "" {
		return "raw"
	}
	return p.EventKind
}

func (p RawPayload) MarshalJSON() ([]byte, error) {
	if p.Data == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(p.Data)
}

type Event struct {
	ActorID    string
	EntityType string
	EntityID   string
	RequestID  string
	IP         string
	Payload    Payload
}

// Entry is a stored event as read back.
type Entry struct {
	ID         string          `json:"id"`
	ActorID    string          `json:"actorId,omitempty"`
	Kind       string          `json:"kind"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	RequestID  string          `json:"requestId,omitempty"`
	IP         string          `json:"ip,omitempty"`
	Payload    json.RawMessage `json:"payload"`
	CreatedAt  time.Time       `json:"createdAt"`
}

type Filter struct {
	Kind       string
	EntityType string
	EntityID   string
	ActorID    string
	Limit      int
	Offset     int
}
