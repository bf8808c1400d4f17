package projection

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/louisbranch/userhub/internal/userhub/domain/event"
	"github.com/louisbranch/userhub/internal/userhub/domain/session"
	"github.com/louisbranch/userhub/internal/userhub/storage"
)

func applySessionCreated(ctx context.Context, uow storage.UnitOfWork, evt event.Event) error {
	var payload session.CreatePayload
	if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
		return fmt.Errorf("decode %s payload: %w", evt.Type, err)
	}
	return uow.PutSession(ctx, storage.SessionRecord{
		ID:             evt.StreamID,
		CreatedAt:      payload.CreatedAt,
		LastAccessedAt: payload.CreatedAt,
	})
}

func applySessionEnded(ctx context.Context, uow storage.UnitOfWork, evt event.Event) error {
	var payload session.EndedPayload
	if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
		return fmt.Errorf("decode %s payload: %w", evt.Type, err)
	}
	record, err := uow.GetSession(ctx, evt.StreamID)
	if err != nil {
		return fmt.Errorf("load session %s: %w", evt.StreamID, err)
	}
	record.Closed = true
	if payload.EndedAt.After(record.LastAccessedAt) {
		record.LastAccessedAt = payload.EndedAt
	}
	return uow.PutSession(ctx, record)
}
