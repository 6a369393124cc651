package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"timekeep/internal/platform/apperr"
	"timekeep/internal/platform/querier"
)

type StoreAPI interface {
	Insert(ctx context.Context, entry Entry) error
	List(ctx context.Context, filter Filter) ([]Entry, int, error)
}

type Store struct {
	DB      querier.Querier
	Timeout time.Duration
}

func NewStore(db querier.Querier, timeout time.Duration) *Store {
	return &Store{DB: db, Timeout: timeout}
}

func (s *Store) Insert(ctx context.Context, e Entry) error {
	ctx, cancel := querier.Bound(ctx, s.Timeout)
	defer cancel()

	_, err := s.DB.Exec(ctx, `
    INSERT INTO audit_events (id, actor_id, kind, entity_type, entity_id, request_id, ip, payload, created_at)
    VALUES ($1::uuid, NULLIF($2, '')::uuid, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), $8, $9)
  `, e.ID, e.ActorID, e.Kind, e.EntityType, e.EntityID, e.RequestID, e.IP, []byte(e.Payload), e.CreatedAt)
	return apperr.FromDB(err, nil, nil)
}

func buildWhere(filter Filter) (string, []any) {
	where := " WHERE 1=1"
	var args []any
	add := func(clause, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		where += fmt.Sprintf(" AND "+clause, len(args))
	}
	add("kind = $%d", filter.Kind)
	add("entity_type = $%d", filter.EntityType)
	add("entity_id = $%d", filter.EntityID)
	add("actor_id::text = $%d", filter.ActorID)
	return where, args
}

func (s *Store) List(ctx context.Context, filter Filter) ([]Entry, int, error) {
	ctx, cancel := querier.Bound(ctx, s.Timeout)
	defer cancel()

	where, args := buildWhere(filter)
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM audit_events"+where, args...).Scan(&total); err != nil {
		return nil, 0, apperr.FromDB(err, nil, nil)
	}

	query := `SELECT id::text, COALESCE(actor_id::text, ''), kind, entity_type, entity_id,
           COALESCE(request_id, ''), COALESCE(ip, ''), payload, created_at
    FROM audit_events` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	rows, err := s.DB.Query(ctx, query, append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		return nil, 0, apperr.FromDB(err, nil, nil)
	}
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Entry, error) {
		var e Entry
		var payload []byte
		err := row.Scan(&e.ID, &e.ActorID, &e.Kind, &e.EntityType, &e.EntityID, &e.RequestID, &e.IP, &payload, &e.CreatedAt)
		e.Payload = payload
		return e, err
	})
	if err != nil {
		return nil, 0, apperr.FromDB(err, nil, nil)
	}
	return entries, total, nil
}
