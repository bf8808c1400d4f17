package projection

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/userhub/internal/userhub/domain/event"
	"github.com/louisbranch/userhub/internal/userhub/storage"
)

const replayPageSize = 200

// ErrUnknownProjection indicates a rebuild request named a projection that
// does not exist.
var ErrUnknownProjection = errors.New("unknown projection")

// Descriptor names a rebuildable projection and the stream type that feeds it.
type Descriptor struct {
	Name   string
	Stream event.StreamType
}

// Descriptors returns the rebuildable projections in replay order.
func Descriptors() []Descriptor {
	return []Descriptor{
		{Name: "Session", Stream: event.StreamTypeSession},
		{Name: "User", Stream: event.StreamTypeUser},
	}
}

// Rebuild truncates the named projection and replays its journal inside the
// caller's unit of work. An empty or "all" name rebuilds every projection.
// The whole rebuild shares one transaction, so it is all-or-nothing.
//
// Session activity bookkeeping is not event-sourced; after a rebuild,
// last_accessed_at reflects lifecycle events only.
func (a *Applier) Rebuild(ctx context.Context, uow storage.UnitOfWork, name string) (map[string]int64, error) {
	name = strings.TrimSpace(name)
	rebuildAll := name == "" || strings.EqualFold(name, "all")

	stats := make(map[string]int64)
	matched := false
	for _, descriptor := range Descriptors() {
		if !rebuildAll && !strings.EqualFold(descriptor.Name, name) {
			continue
		}
		matched = true
		if err := a.rebuildOne(ctx, uow, descriptor); err != nil {
			return nil, err
		}
		stats[descriptor.Name] = 1
	}
	if !matched {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProjection, name)
	}
	return stats, nil
}

func (a *Applier) rebuildOne(ctx context.Context, uow storage.UnitOfWork, descriptor Descriptor) error {
	switch descriptor.Stream {
	case event.StreamTypeSession:
		if err := uow.DeleteAllSessions(ctx); err != nil {
			return err
		}
	case event.StreamTypeUser:
		if err := uow.DeleteAllUsers(ctx); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown stream type: %s", descriptor.Stream)
	}

	var afterID int64
	for {
		entries, err := uow.ListEvents(ctx, descriptor.Stream, afterID, replayPageSize)
		if err != nil {
			return fmt.Errorf("replay %s: %w", descriptor.Name, err)
		}
		if len(entries) == 0 {
			return nil
		}
		for _, entry := range entries {
			if err := a.Apply(ctx, uow, entry.Event); err != nil {
				return fmt.Errorf("replay %s: %w", descriptor.Name, err)
			}
			afterID = entry.ID
		}
	}
}
