package projection

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/louisbranch/userhub/internal/userhub/domain/event"
	"github.com/louisbranch/userhub/internal/userhub/domain/user"
	"github.com/louisbranch/userhub/internal/userhub/storage"
)

func applyUserCreated(ctx context.Context, uow storage.UnitOfWork, evt event.Event) error {
	var payload user.CreatedPayload
	if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
		return fmt.Errorf("decode %s payload: %w", evt.Type, err)
	}
	return uow.PutUser(ctx, storage.UserRecord{
		ID:            evt.StreamID,
		UserName:      payload.UserName,
		Email:         payload.Email,
		CreatedAt:     payload.CreatedAt,
		LastUpdatedAt: payload.CreatedAt,
	})
}

func applyUserPasswordAdded(ctx context.Context, uow storage.UnitOfWork, evt event.Event) error {
	var payload user.PasswordAddedPayload
	if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
		return fmt.Errorf("decode %s payload: %w", evt.Type, err)
	}
	record, err := uow.GetUser(ctx, evt.StreamID)
	if err != nil {
		return fmt.Errorf("load user %s: %w", evt.StreamID, err)
	}
	record.PasswordHash = payload.PasswordHash
	record.LastUpdatedAt = payload.AddedAt
	return uow.PutUser(ctx, record)
}

func applyUserDeactivated(ctx context.Context, uow storage.UnitOfWork, evt event.Event) error {
	var payload user.DeactivatedPayload
	if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
		return fmt.Errorf("decode %s payload: %w", evt.Type, err)
	}
	record, err := uow.GetUser(ctx, evt.StreamID)
	if err != nil {
		return fmt.Errorf("load user %s: %w", evt.StreamID, err)
	}
	record.Deactivated = true
	record.LastUpdatedAt = payload.DeactivatedAt
	return uow.PutUser(ctx, record)
}

func applyUserEmailChanged(ctx context.Context, uow storage.UnitOfWork, evt event.Event) error {
	var payload user.EmailChangedPayload
	if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
		return fmt.Errorf("decode %s payload: %w", evt.Type, err)
	}
	record, err := uow.GetUser(ctx, evt.StreamID)
	if err != nil {
		return fmt.Errorf("load user %s: %w", evt.StreamID, err)
	}
	record.Email = payload.NewEmail
	record.LastUpdatedAt = payload.ChangedAt
	return uow.PutUser(ctx, record)
}
