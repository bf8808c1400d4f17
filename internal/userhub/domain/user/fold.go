package user

import (
	"encoding/json"
	"fmt"

	"github.com/louisbranch/userhub/internal/userhub/domain/event"
)

// FoldHandledTypes returns the event types handled by the user fold function.
func FoldHandledTypes() []event.Type {
	return []event.Type{
		EventTypeCreated,
		EventTypePasswordAdded,
		EventTypeDeactivated,
		EventTypeEmailChanged,
	}
}

// Fold applies an event to user state. It returns an error if the event type
// is not a user stream event or if a payload cannot be unmarshalled.
func Fold(state State, evt event.Event) (State, error) {
	switch evt.Type {
	case EventTypeCreated:
		var payload CreatedPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return state, fmt.Errorf("user fold %s: %w", evt.Type, err)
		}
		state.Exists = true
		state.UserID = payload.UserID
		state.UserName = payload.UserName
		state.Email = payload.Email
		state.CreatedAt = payload.CreatedAt
	case EventTypePasswordAdded:
		state.HasPassword = true
	case EventTypeDeactivated:
		state.Deactivated = true
	case EventTypeEmailChanged:
		var payload EmailChangedPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return state, fmt.Errorf("user fold %s: %w", evt.Type, err)
		}
		state.Email = payload.NewEmail
	default:
		return state, fmt.Errorf("user fold: unhandled event type %s", evt.Type)
	}
	return state, nil
}
