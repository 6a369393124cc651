package requests

import (
	"encoding/json"
	"fmt"
	"time"
)

type Kind string

const (
	KindLeave     Kind = "leave"
	KindShiftSwap Kind = "shift_swap"
	KindApproval  Kind = "approval"
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Details is the typed payload of a request; each kind has exactly one.
type Details interface {
	Kind() Kind
}

type LeaveDetails struct {
	StartDate string  `json:"startDate"`
	EndDate   string  `json:"endDate"`
	StartHalf bool    `json:"startHalf,omitempty"`
	EndHalf   bool    `json:"endHalf,omitempty"`
	Days      float64 `json:"days"`
	Reason    string  `json:"reason,omitempty"`
}

func (LeaveDetails) Kind() Kind { return KindLeave }

type ShiftSwapDetails struct {
	CounterpartUserID string `json:"counterpartUserId"`
	ShiftDate         string `json:"shiftDate"`
	CounterpartDate   string `json:"counterpartDate,omitempty"`
	Reason            string `json:"reason,omitempty"`
}

func (ShiftSwapDetails) Kind() Kind { return KindShiftSwap }

type ApprovalDetails struct {
	Subject     string `json:"subject"`
	Description string `json:"description,omitempty"`
}

func (ApprovalDetails) Kind() Kind { return KindApproval }

// DecodeDetails restores the typed payload stored for kind.
func DecodeDetails(kind Kind, raw []byte) (Details, error) {
	switch kind {
	case KindLeave:
		var d LeaveDetails
		err := decodeJSON(raw, &d)
		return d, err
	case KindShiftSwap:
		var d ShiftSwapDetails
		err := decodeJSON(raw, &d)
		return d, err
	case KindApproval:
		var d ApprovalDetails
		err := decodeJSON(raw, &d)
		return d, err
	}
	return nil, fmt.Errorf("unknown request kind %q", kind)
}

func decodeJSON(raw []byte, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

type Request struct {
	ID             string     `json:"id"`
	Kind           Kind       `json:"kind"`
	RequesterID    string     `json:"requesterId"`
	Status         Status     `json:"status"`
	Details        Details    `json:"details"`
	ResolverID     string     `json:"resolverId,omitempty"`
	ResolutionNote string     `json:"resolutionNote,omitempty"`
	ResolvedAt     *time.Time `json:"resolvedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

type LeaveInput struct {
	StartDate string
	EndDate   string
	StartHalf bool
	EndHalf   bool
	Reason    string
}

type ShiftSwapInput struct {
	CounterpartUserID string
	ShiftDate         string
	CounterpartDate   string
	Reason            string
}

type ApprovalInput struct {
	Subject     string
	Description string
}

type ListFilter struct {
	Kind        Kind
	RequesterID string
	Status      Status
	Limit       int
	Offset      int
}

type Page struct {
	Items []Request `json:"items"`
	Total int       `json:"total"`
}
