package requests

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"timekeep/internal/domain/auth"
	"timekeep/internal/platform/apperr"
)

const (
	maxReasonLength  = 1000
	maxSubjectLength = 200
)

type Service struct {
	store StoreAPI
	Now   func() time.Time
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store, Now: time.Now}
}

func tooLong(s string, max int) bool {
	return utf8.RuneCountInString(s) > max
}

func parseDate(field, value string) (time.Time, error) {
	parsed, err := time.Parse(dateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, apperr.Validation(field + " must be a valid date in YYYY-MM-DD format")
	}
	return parsed, nil
}

func (s *Service) CreateLeave(ctx context.Context, requesterID string, in LeaveInput) (Request, error) {
	start, err := parseDate("startDate", in.StartDate)
	if err != nil {
		return Request{}, err
	}
	end, err := parseDate("endDate", in.EndDate)
	if err != nil {
		return Request{}, err
	}
	days, err := CalculateLeaveDays(start, end, in.StartHalf, in.EndHalf)
	if err != nil {
		return Request{}, err
	}
	reason := strings.TrimSpace(in.Reason)
	if tooLong(reason, maxReasonLength) {
		return Request{}, apperr.Validation("reason must be at most 1000 characters")
	}
	return s.store.Create(ctx, requesterID, LeaveDetails{
		StartDate: start.Format(dateLayout),
		EndDate:   end.Format(dateLayout),
		StartHalf: in.StartHalf,
		EndHalf:   in.EndHalf,
		Days:      days,
		Reason:    reason,
	})
}

func (s *Service) CreateShiftSwap(ctx context.Context, requesterID string, in ShiftSwapInput) (Request, error) {
	counterpart := strings.TrimSpace(in.CounterpartUserID)
	if counterpart == "" {
		return Request{}, apperr.Validation("counterpartUserId is required")
	}
	if counterpart == requesterID {
		return Request{}, apperr.Validation("counterpartUserId must be another user")
	}
	shiftDate, err := parseDate("shiftDate", in.ShiftDate)
	if err != nil {
		return Request{}, err
	}
	details := ShiftSwapDetails{
		CounterpartUserID: counterpart,
		ShiftDate:         shiftDate.Format(dateLayout),
		Reason:            strings.TrimSpace(in.Reason),
	}
	if strings.TrimSpace(in.CounterpartDate) != "" {
		counterpartDate, err := parseDate("counterpartDate", in.CounterpartDate)
		if err != nil {
			return Request{}, err
		}
		details.CounterpartDate = counterpartDate.Format(dateLayout)
	}
	if tooLong(details.Reason, maxReasonLength) {
		return Request{}, apperr.Validation("reason must be at most 1000 characters")
	}

	active, err := s.store.UserActive(ctx, counterpart)
	if err != nil {
		return Request{}, err
	}
	if !active {
		return Request{}, ErrCounterpartUnknown
	}
	return s.store.Create(ctx, requesterID, details)
}

func (s *Service) CreateApproval(ctx context.Context, requesterID string, in ApprovalInput) (Request, error) {
	subject := strings.TrimSpace(in.Subject)
	if subject == "" || tooLong(subject, maxSubjectLength) {
		return Request{}, apperr.Validation("subject is required and must be at most 200 characters")
	}
	description := strings.TrimSpace(in.Description)
	if tooLong(description, maxReasonLength) {
		return Request{}, apperr.Validation("description must be at most 1000 characters")
	}
	return s.store.Create(ctx, requesterID, ApprovalDetails{Subject: subject, Description: description})
}

// List returns the actor's own requests of kind. Approvers may pass all to
// see every requester's.
func (s *Service) List(ctx context.Context, actor auth.UserContext, filter ListFilter, all bool) (Page, error) {
	if all && !auth.CanApprove(actor.Role) {
		return Page{}, ErrNotApprover
	}
	if !all {
		filter.RequesterID = actor.UserID
	}
	items, total, err := s.store.List(ctx, filter)
	if err != nil {
		return Page{}, err
	}
	if items == nil {
		items = []Request{}
	}
	return Page{Items: items, Total: total}, nil
}

// Resolve approves or rejects a pending request of kind on behalf of actor.
func (s *Service) Resolve(ctx context.Context, actor auth.UserContext, kind Kind, id string, decision Status, note string) (Request, error) {
	req, err := s.store.Get(ctx, id)
	if err != nil {
		return Request{}, err
	}
	if req.Kind != kind {
		return Request{}, ErrRequestNotFound
	}
	if err := CheckResolution(req, actor, decision); err != nil {
		return Request{}, err
	}
	note = strings.TrimSpace(note)
	if tooLong(note, maxReasonLength) {
		return Request{}, apperr.Validation("note must be at most 1000 characters")
	}
	resolved, err := s.store.Resolve(ctx, id, decision, actor.UserID, note, s.Now())
	if errors.Is(err, ErrAlreadyResolved) {
		return Request{}, ErrAlreadyResolved
	}
	return resolved, err
}
