package service

import (
	"context"
	"errors"

	apperrors "github.com/louisbranch/userhub/internal/platform/errors"
	"github.com/louisbranch/userhub/internal/userhub/domain/command"
	"github.com/louisbranch/userhub/internal/userhub/engine"
	"github.com/louisbranch/userhub/internal/userhub/projection"
	"github.com/louisbranch/userhub/internal/userhub/storage"
)

const commandTypeRebuild command.Type = "projection.rebuild"

// RebuildCommands truncates and replays projections from the journal.
type RebuildCommands struct {
	pipeline *engine.Pipeline
	registry *command.Registry
	applier  *projection.Applier
}

// RebuildProjections rebuilds the named projection, or all of them when name
// is empty or "all". The rebuild runs in one unit of work, so readers never
// observe a partially rebuilt document set. Result data is the per-projection
// rebuild stats map.
func (r *RebuildCommands) RebuildProjections(ctx context.Context, sessionID, name string) command.Result {
	return dispatch(ctx, r.pipeline, r.registry, commandTypeRebuild, sessionID,
		func(ctx context.Context, uow storage.UnitOfWork, sess storage.SessionRecord) (command.Result, error) {
			stats, err := r.applier.Rebuild(ctx, uow, name)
			if err != nil {
				if errors.Is(err, projection.ErrUnknownProjection) {
					return command.Fail(apperrors.CodeValidationFailed, err.Error()), nil
				}
				return command.Result{}, err
			}
			return command.OK(stats), nil
		})
}
