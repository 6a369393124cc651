package attendance

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"timekeep/internal/platform/apperr"
	"timekeep/internal/platform/querier"
)

const (
	sessionColumns = `id::text, user_id::text, work_date::text, clock_in, clock_out, created_at, updated_at`
	breakColumns   = `id::text, session_id::text, user_id::text, started_at, ended_at`
)

type Store struct {
	DB      querier.Querier
	Timeout time.Duration
}

func NewStore(db querier.Querier, timeout time.Duration) *Store {
	return &Store{DB: db, Timeout: timeout}
}

// InTx runs fn in one transaction bounded by the store timeout. The
// transaction commits only when fn returns nil.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	ctx, cancel := querier.Bound(ctx, s.Timeout)
	defer cancel()

	pgTx, err := s.DB.Begin(ctx)
	if err != nil {
		return apperr.FromDB(err, nil, nil)
	}
	defer func() { _ = pgTx.Rollback(ctx) }()

	if err := fn(ctx, &txStore{tx: pgTx}); err != nil {
		return apperr.FromDB(err, nil, nil)
	}
	if err := pgTx.Commit(ctx); err != nil {
		return apperr.FromDB(err, nil, nil)
	}
	return nil
}

func (s *Store) ListSessions(ctx context.Context, userID, from, to string) ([]Session, error) {
	ctx, cancel := querier.Bound(ctx, s.Timeout)
	defer cancel()

	rows, err := s.DB.Query(ctx, `
    SELECT `+sessionColumns+`
    FROM clock_sessions
    WHERE user_id = $1::uuid AND work_date BETWEEN $2::date AND $3::date
    ORDER BY work_date
  `, userID, from, to)
	if err != nil {
		return nil, apperr.FromDB(err, nil, nil)
	}
	sessions, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Session, error) {
		return scanSession(row)
	})
	if err != nil {
		return nil, apperr.FromDB(err, nil, nil)
	}
	if len(sessions) == 0 {
		return sessions, nil
	}

	ids := make([]string, 0, len(sessions))
	index := make(map[string]int, len(sessions))
	for i, sess := range sessions {
		ids = append(ids, sess.ID)
		index[sess.ID] = i
	}

	breakRows, err := s.DB.Query(ctx, `
    SELECT `+breakColumns+`
    FROM break_periods
    WHERE session_id::text = ANY($1)
    ORDER BY started_at
  `, ids)
	if err != nil {
		return nil, apperr.FromDB(err, nil, nil)
	}
	breaks, err := pgx.CollectRows(breakRows, func(row pgx.CollectableRow) (Break, error) {
		return scanBreak(row)
	})
	if err != nil {
		return nil, apperr.FromDB(err, nil, nil)
	}
	for _, b := range breaks {
		i := index[b.SessionID]
		sessions[i].Breaks = append(sessions[i].Breaks, b)
	}
	return sessions, nil
}

func scanSession(row pgx.Row) (Session, error) {
	var sess Session
	err := row.Scan(&sess.ID, &sess.UserID, &sess.WorkDate, &sess.ClockIn, &sess.ClockOut, &sess.CreatedAt, &sess.UpdatedAt)
	sess.Breaks = []Break{}
	return sess, err
}

func scanBreak(row pgx.Row) (Break, error) {
	var b Break
	err := row.Scan(&b.ID, &b.SessionID, &b.UserID, &b.StartedAt, &b.EndedAt)
	return b, err
}

type txStore struct {
	tx pgx.Tx
}

func (t *txStore) LockUser(ctx context.Context, userID string) error {
	_, err := t.tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, userID)
	return apperr.FromDB(err, nil, nil)
}

func (t *txStore) SessionForDay(ctx context.Context, userID, workDate string) (Session, bool, error) {
	sess, err := scanSession(t.tx.QueryRow(ctx, `
    SELECT `+sessionColumns+`
    FROM clock_sessions
    WHERE user_id = $1::uuid AND work_date = $2::date
  `, userID, workDate))
	if errors.Is(err, pgx.ErrNoRows) {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, apperr.FromDB(err, nil, nil)
	}
	return sess, true, nil
}

func (t *txStore) SessionByID(ctx context.Context, sessionID string) (Session, error) {
	sess, err := scanSession(t.tx.QueryRow(ctx, `
    SELECT `+sessionColumns+` FROM clock_sessions WHERE id = $1::uuid
  `, sessionID))
	if err != nil {
		return Session{}, apperr.FromDB(err, ErrSessionNotFound, nil)
	}
	return sess, nil
}

func (t *txStore) CreateSession(ctx context.Context, userID, workDate string, clockIn time.Time) (Session, error) {
	sess, err := scanSession(t.tx.QueryRow(ctx, `
    INSERT INTO clock_sessions (user_id, work_date, clock_in)
    VALUES ($1::uuid, $2::date, $3)
    RETURNING `+sessionColumns, userID, workDate, clockIn))
	if err != nil {
		return Session{}, apperr.FromDB(err, nil, ErrAlreadyClockedIn)
	}
	return sess, nil
}

func (t *txStore) SetClockIn(ctx context.Context, sessionID string, at time.Time) (Session, error) {
	sess, err := scanSession(t.tx.QueryRow(ctx, `
    UPDATE clock_sessions SET clock_in = $2, updated_at = now()
    WHERE id = $1::uuid AND clock_in IS NULL
    RETURNING `+sessionColumns, sessionID, at))
	if err != nil {
		return Session{}, apperr.FromDB(err, ErrAlreadyClockedIn, nil)
	}
	return sess, nil
}

func (t *txStore) SetClockOut(ctx context.Context, sessionID string, at time.Time) (Session, error) {
	sess, err := scanSession(t.tx.QueryRow(ctx, `
    UPDATE clock_sessions SET clock_out = $2, updated_at = now()
    WHERE id = $1::uuid AND clock_in IS NOT NULL AND clock_out IS NULL
    RETURNING `+sessionColumns, sessionID, at))
	if err != nil {
		return Session{}, apperr.FromDB(err, ErrAlreadyClockedOut, nil)
	}
	return sess, nil
}

func (t *txStore) ActiveBreak(ctx context.Context, userID string) (Break, bool, error) {
	b, err := scanBreak(t.tx.QueryRow(ctx, `
    SELECT `+breakColumns+`
    FROM break_periods
    WHERE user_id = $1::uuid AND ended_at IS NULL
  `, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Break{}, false, nil
	}
	if err != nil {
		return Break{}, false, apperr.FromDB(err, nil, nil)
	}
	return b, true, nil
}

func (t *txStore) CreateBreak(ctx context.Context, sessionID, userID string, at time.Time) (Break, error) {
	b, err := scanBreak(t.tx.QueryRow(ctx, `
    INSERT INTO break_periods (session_id, user_id, started_at)
    VALUES ($1::uuid, $2::uuid, $3)
    RETURNING `+breakColumns, sessionID, userID, at))
	if err != nil {
		return Break{}, apperr.FromDB(err, nil, ErrBreakAlreadyActive)
	}
	return b, nil
}

func (t *txStore) EndBreak(ctx context.Context, breakID string, at time.Time) (Break, error) {
	b, err := scanBreak(t.tx.QueryRow(ctx, `
    UPDATE break_periods SET ended_at = $2
    WHERE id = $1::uuid AND ended_at IS NULL
    RETURNING `+breakColumns, breakID, at))
	if err != nil {
		return Break{}, apperr.FromDB(err, ErrNoActiveBreak, nil)
	}
	return b, nil
}

func (t *txStore) Breaks(ctx context.Context, sessionID string) ([]Break, error) {
	rows, err := t.tx.Query(ctx, `
    SELECT `+breakColumns+`
    FROM break_periods
    WHERE session_id = $1::uuid
    ORDER BY started_at
  `, sessionID)
	if err != nil {
		return nil, apperr.FromDB(err, nil, nil)
	}
	breaks, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Break, error) {
		return scanBreak(row)
	})
	if err != nil {
		return nil, apperr.FromDB(err, nil, nil)
	}
	return breaks, nil
}
