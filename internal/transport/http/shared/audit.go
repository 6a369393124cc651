package shared

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"timekeep/internal/domain/audit"
	"timekeep/internal/platform/requestctx"
)

type AuditRecorder interface {
	Record(ctx context.Context, ev audit.Event) error
}

// Audit records ev for the request. Failures are logged and never reach the client.
func Audit(r *http.Request, recorder AuditRecorder, actorID string, ev audit.Event) {
	if recorder == nil {
		return
	}
	ev.ActorID = actorID
	ev.RequestID = requestctx.GetRequestID(r.Context())
	ev.IP = ClientIP(r)
	if err := recorder.Record(r.Context(), ev); err != nil {
		kind := ""
		if ev.Payload != nil {
			kind = ev.Payload.Kind()
		}
		zerolog.Ctx(r.Context()).Warn().Err(err).Str("kind", kind).Str("entity_id", ev.EntityID).Msg("audit record failed")
	}
}
