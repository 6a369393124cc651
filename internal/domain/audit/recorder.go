package audit

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

type Recorder struct {
	store StoreAPI
	Now   func() time.Time
	NewID func() string
}

func NewRecorder(store StoreAPI) *Recorder {
	return &Recorder{store: store, Now: time.Now, NewID: uuid.NewString}
}

// Record serializes the event payload and stores it.
func (r *Recorder) Record(ctx context.Context, ev Event) error {
	if ev.Payload == nil {
		return errors.New("audit event without payload")
	}
	body, err := json.Marshal(ev.Payload)
	if err != nil {
		return err
	}
	return r.store.Insert(ctx, Entry{
		ID:         r.NewID(),
		ActorID:    ev.ActorID,
		Kind:       ev.Payload.Kind(),
		EntityType: ev.EntityType,
		EntityID:   ev.EntityID,
		RequestID:  ev.RequestID,
		IP:         ev.IP,
		Payload:    body,
		CreatedAt:  r.Now(),
	})
}

func (r *Recorder) List(ctx context.Context, filter Filter) ([]Entry, int, error) {
	entries, total, err := r.store.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, total, nil
}
