// Package projection folds journal events into the session and user
// documents served by the read side.
package projection

import (
	"context"
	"fmt"

	"github.com/louisbranch/userhub/internal/userhub/domain/event"
	"github.com/louisbranch/userhub/internal/userhub/domain/session"
	"github.com/louisbranch/userhub/internal/userhub/domain/user"
	"github.com/louisbranch/userhub/internal/userhub/storage"
)

// applyFunc folds one event into projection documents inside the caller's
// transaction.
type applyFunc func(ctx context.Context, uow storage.UnitOfWork, evt event.Event) error

// Applier dispatches events to projection handlers. The handler table is
// built once and read-only afterwards.
type Applier struct {
	handlers map[event.Type]applyFunc
}

// NewApplier builds the applier with every projection handler registered.
func NewApplier() *Applier {
	return &Applier{
		handlers: map[event.Type]applyFunc{
			session.EventTypeCreated:    applySessionCreated,
			session.EventTypeEnded:      applySessionEnded,
			user.EventTypeCreated:       applyUserCreated,
			user.EventTypePasswordAdded: applyUserPasswordAdded,
			user.EventTypeDeactivated:   applyUserDeactivated,
			user.EventTypeEmailChanged:  applyUserEmailChanged,
		},
	}
}

// Apply folds a single event. An event type without a registered handler is
// an error: silently skipping events would let projections drift from the
// journal.
func (a *Applier) Apply(ctx context.Context, uow storage.UnitOfWork, evt event.Event) error {
	handler, ok := a.handlers[evt.Type]
	if !ok {
		return fmt.Errorf("no projection handler registered for event type %s", evt.Type)
	}
	if evt.StreamID == "" {
		return fmt.Errorf("projection apply %s: stream id is required", evt.Type)
	}
	return handler(ctx, uow, evt)
}

// HandledTypes returns the event types the applier folds, for diagnostics.
func (a *Applier) HandledTypes() []event.Type {
	types := make([]event.Type, 0, len(a.handlers))
	for t := range a.handlers {
		types = append(types, t)
	}
	return types
}
