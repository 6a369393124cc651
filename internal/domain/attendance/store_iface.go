package attendance

import (
	"context"
	"time"
)

// Tx is the set of reads and writes one attendance mutation performs inside a
// single transaction. LockUser serializes concurrent mutations for a user.
type Tx interface {
	LockUser(ctx context.Context, userID string) error
	SessionForDay(ctx context.Context, userID, workDate string) (Session, bool, error)
	SessionByID(ctx context.Context, sessionID string) (Session, error)
	CreateSession(ctx context.Context, userID, workDate string, clockIn time.Time) (Session, error)
	SetClockIn(ctx context.Context, sessionID string, at time.Time) (Session, error)
	SetClockOut(ctx context.Context, sessionID string, at time.Time) (Session, error)
	ActiveBreak(ctx context.Context, userID string) (Break, bool, error)
	CreateBreak(ctx context.Context, sessionID, userID string, at time.Time) (Break, error)
	EndBreak(ctx context.Context, breakID string, at time.Time) (Break, error)
	Breaks(ctx context.Context, sessionID string) ([]Break, error)
}

type StoreAPI interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// ListSessions returns the user's sessions with breaks for work dates in
	// [from, to], oldest first.
	ListSessions(ctx context.Context, userID, from, to string) ([]Session, error)
}
