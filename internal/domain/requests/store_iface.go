package requests

import (
	"context"
	"time"
)

type StoreAPI interface {
	UserActive(ctx context.Context, userID string) (bool, error)
	Create(ctx context.Context, requesterID string, details Details) (Request, error)
	Get(ctx context.Context, id string) (Request, error)
	List(ctx context.Context, filter ListFilter) ([]Request, int, error)
	// Resolve moves a PENDING request to status. It reports ErrAlreadyResolved
	// when the request is no longer pending.
	Resolve(ctx context.Context, id string, status Status, resolverID, note string, at time.Time) (Request, error)
}
