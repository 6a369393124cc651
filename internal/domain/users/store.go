package users

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"timekeep/internal/domain/auth"
	"timekeep/internal/platform/apperr"
	"timekeep/internal/platform/querier"
)

const userColumns = `id::text, name, email, password_hash, role, COALESCE(department, ''),
           COALESCE(manager_id::text, ''), archived_at, created_at, updated_at`

type Store struct {
	DB      querier.Querier
	Timeout time.Duration
}

func NewStore(db querier.Querier, timeout time.Duration) *Store {
	return &Store{DB: db, Timeout: timeout}
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	var role string
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &u.Department,
		&u.ManagerID, &u.ArchivedAt, &u.CreatedAt, &u.UpdatedAt)
	u.Role = auth.Role(role)
	return u, err
}

func (s *Store) Create(ctx context.Context, user User) (User, error) {
	ctx, cancel := querier.Bound(ctx, s.Timeout)
	defer cancel()

	row := s.DB.QueryRow(ctx, `
    INSERT INTO users (name, email, password_hash, role)
    VALUES ($1,$2,$3,$4)
    RETURNING `+userColumns, user.Name, user.Email, user.PasswordHash, string(user.Role))
	created, err := scanUser(row)
	if err != nil {
		return User{}, apperr.FromDB(err, nil, ErrEmailTaken)
	}
	return created, nil
}

func (s *Store) GetByID(ctx context.Context, id string) (User, error) {
	ctx, cancel := querier.Bound(ctx, s.Timeout)
	defer cancel()

	u, err := scanUser(s.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1::uuid`, id))
	if err != nil {
		return User{}, apperr.FromDB(err, ErrUserNotFound, nil)
	}
	return u, nil
}

func (s *Store) GetByEmail(ctx context.Context, email string) (User, error) {
	ctx, cancel := querier.Bound(ctx, s.Timeout)
	defer cancel()

	u, err := scanUser(s.DB.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
	if err != nil {
		return User{}, apperr.FromDB(err, ErrUserNotFound, nil)
	}
	return u, nil
}

func (s *Store) List(ctx context.Context, filter ListFilter) ([]User, int, error) {
	ctx, cancel := querier.Bound(ctx, s.Timeout)
	defer cancel()

	var total int
	if err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FROM users WHERE $1 OR archived_at IS NULL
  `, filter.IncludeArchived).Scan(&total); err != nil {
		return nil, 0, apperr.FromDB(err, nil, nil)
	}

	rows, err := s.DB.Query(ctx, `
    SELECT `+userColumns+`
    FROM users
    WHERE $1 OR archived_at IS NULL
    ORDER BY created_at, id
    LIMIT $2 OFFSET $3
  `, filter.IncludeArchived, filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, apperr.FromDB(err, nil, nil)
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperr.FromDB(err, nil, nil)
	}
	return out, total, nil
}

func (s *Store) UpdateRole(ctx context.Context, id string, role auth.Role) (User, error) {
	ctx, cancel := querier.Bound(ctx, s.Timeout)
	defer cancel()

	u, err := scanUser(s.DB.QueryRow(ctx, `
    UPDATE users SET role = $2, updated_at = now()
    WHERE id = $1::uuid
    RETURNING `+userColumns, id, string(role)))
	if err != nil {
		return User{}, apperr.FromDB(err, ErrUserNotFound, nil)
	}
	return u, nil
}

func (s *Store) UpdateDepartment(ctx context.Context, id, department, managerID string) (User, error) {
	ctx, cancel := querier.Bound(ctx, s.Timeout)
	defer cancel()

	u, err := scanUser(s.DB.QueryRow(ctx, `
    UPDATE users
    SET department = NULLIF($2, ''), manager_id = NULLIF($3, '')::uuid, updated_at = now()
    WHERE id = $1::uuid
    RETURNING `+userColumns, id, department, managerID))
	if err != nil {
		return User{}, apperr.FromDB(err, ErrUserNotFound, nil)
	}
	return u, nil
}

func (s *Store) Archive(ctx context.Context, id string, at time.Time) (User, error) {
	ctx, cancel := querier.Bound(ctx, s.Timeout)
	defer cancel()

	u, err := scanUser(s.DB.QueryRow(ctx, `
    UPDATE users SET archived_at = COALESCE(archived_at, $2), updated_at = now()
    WHERE id = $1::uuid
    RETURNING `+userColumns, id, at))
	if err != nil {
		return User{}, apperr.FromDB(err, ErrUserNotFound, nil)
	}
	return u, nil
}
