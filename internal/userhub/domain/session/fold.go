package session

import (
	"encoding/json"
	"fmt"

	"github.com/louisbranch/userhub/internal/userhub/domain/event"
)

// FoldHandledTypes returns the event types handled by the session fold function.
func FoldHandledTypes() []event.Type {
	return []event.Type{
		EventTypeCreated,
		EventTypeEnded,
	}
}

// Fold applies an event to session state. It returns an error if the event
// type is not a session stream event or if a payload cannot be unmarshalled.
func Fold(state State, evt event.Event) (State, error) {
	switch evt.Type {
	case EventTypeCreated:
		var payload CreatePayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return state, fmt.Errorf("session fold %s: %w", evt.Type, err)
		}
		state.Exists = true
		state.Closed = false
		state.SessionID = payload.SessionID
		state.CreatedAt = payload.CreatedAt
	case EventTypeEnded:
		var payload EndedPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return state, fmt.Errorf("session fold %s: %w", evt.Type, err)
		}
		state.Closed = true
		state.EndedAt = payload.EndedAt
		state.EndReason = payload.Reason
		if payload.SessionID != "" {
			state.SessionID = payload.SessionID
		}
	default:
		return state, fmt.Errorf("session fold: unhandled event type %s", evt.Type)
	}
	return state, nil
}
