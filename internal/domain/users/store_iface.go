package users

import (
	"context"
	"time"

	"timekeep/internal/domain/auth"
)

type StoreAPI interface {
	Create(ctx context.Context, user User) (User, error)
	GetByID(ctx context.Context, id string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	List(ctx context.Context, filter ListFilter) ([]User, int, error)
	UpdateRole(ctx context.Context, id string, role auth.Role) (User, error)
	UpdateDepartment(ctx context.Context, id, department, managerID string) (User, error)
	Archive(ctx context.Context, id string, at time.Time) (User, error)
}
