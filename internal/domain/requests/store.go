package requests

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"timekeep/internal/platform/apperr"
	"timekeep/internal/platform/querier"
)

const requestColumns = `id::text, kind, requester_id::text, status, details, COALESCE(resolver_id::text, ''),
           COALESCE(resolution_note, ''), resolved_at, created_at`

type Store struct {
	DB      querier.Querier
	Timeout time.Duration
}

func NewStore(db querier.Querier, timeout time.Duration) *Store {
	return &Store{DB: db, Timeout: timeout}
}

func scanRequest(row pgx.Row) (Request, error) {
	var req Request
	var kind, status string
	var raw []byte
	if err := row.Scan(&req.ID, &kind, &req.RequesterID, &status, &raw, &req.ResolverID,
		&req.ResolutionNote, &req.ResolvedAt, &req.CreatedAt); err != nil {
		return Request{}, err
	}
	req.Kind, req.Status = Kind(kind), Status(status)
	details, err := DecodeDetails(req.Kind, raw)
	if err != nil {
		return Request{}, err
	}
	req.Details = details
	return req, nil
}

func (s *Store) UserActive(ctx context.Context, userID string) (bool, error) {
	ctx, cancel := querier.Bound(ctx, s.Timeout)
	defer cancel()

	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FROM users WHERE id = $1::uuid AND archived_at IS NULL
  `, userID).Scan(&count)
	if err != nil {
		if errors.Is(apperr.FromDB(err, ErrCounterpartUnknown, nil), ErrCounterpartUnknown) {
			return false, nil
		}
		return false, apperr.FromDB(err, nil, nil)
	}
	return count > 0, nil
}

func (s *Store) Create(ctx context.Context, requesterID string, details Details) (Request, error) {
	ctx, cancel := querier.Bound(ctx, s.Timeout)
	defer cancel()

	raw, err := json.Marshal(details)
	if err != nil {
		return Request{}, err
	}
	req, err := scanRequest(s.DB.QueryRow(ctx, `
    INSERT INTO requests (kind, requester_id, details)
    VALUES ($1,$2::uuid,$3)
    RETURNING `+requestColumns, string(details.Kind()), requesterID, raw))
	if err != nil {
		return Request{}, apperr.FromDB(err, nil, nil)
	}
	return req, nil
}

func (s *Store) Get(ctx context.Context, id string) (Request, error) {
	ctx, cancel := querier.Bound(ctx, s.Timeout)
	defer cancel()

	req, err := scanRequest(s.DB.QueryRow(ctx, `SELECT `+requestColumns+` FROM requests WHERE id = $1::uuid`, id))
	if err != nil {
		return Request{}, apperr.FromDB(err, ErrRequestNotFound, nil)
	}
	return req, nil
}

func (s *Store) List(ctx context.Context, filter ListFilter) ([]Request, int, error) {
	ctx, cancel := querier.Bound(ctx, s.Timeout)
	defer cancel()

	const where = `
    WHERE kind = $1
      AND ($2 = '' OR requester_id::text = $2)
      AND ($3 = '' OR status = $3)`

	var total int
	if err := s.DB.QueryRow(ctx, `SELECT COUNT(1) FROM requests`+where,
		string(filter.Kind), filter.RequesterID, string(filter.Status)).Scan(&total); err != nil {
		return nil, 0, apperr.FromDB(err, nil, nil)
	}

	rows, err := s.DB.Query(ctx, `SELECT `+requestColumns+` FROM requests`+where+`
    ORDER BY created_at DESC, id
    LIMIT $4 OFFSET $5
  `, string(filter.Kind), filter.RequesterID, string(filter.Status), filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, apperr.FromDB(err, nil, nil)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Request, error) {
		return scanRequest(row)
	})
	if err != nil {
		return nil, 0, apperr.FromDB(err, nil, nil)
	}
	return items, total, nil
}

func (s *Store) Resolve(ctx context.Context, id string, status Status, resolverID, note string, at time.Time) (Request, error) {
	ctx, cancel := querier.Bound(ctx, s.Timeout)
	defer cancel()

	req, err := scanRequest(s.DB.QueryRow(ctx, `
    UPDATE requests
    SET status = $2, resolver_id = $3::uuid, resolution_note = NULLIF($4, ''), resolved_at = $5
    WHERE id = $1::uuid AND status = 'PENDING'
    RETURNING `+requestColumns, id, string(status), resolverID, note, at))
	if err != nil {
		return Request{}, apperr.FromDB(err, ErrAlreadyResolved, nil)
	}
	return req, nil
}
