// Package service exposes the command and query surface of userhub.
package service

import (
	"context"
	"fmt"
	"log"
	"time"

	apperrors "github.com/louisbranch/userhub/internal/platform/errors"
	"github.com/louisbranch/userhub/internal/platform/id"
	"github.com/louisbranch/userhub/internal/userhub/auth/password"
	"github.com/louisbranch/userhub/internal/userhub/domain/command"
	"github.com/louisbranch/userhub/internal/userhub/domain/event"
	"github.com/louisbranch/userhub/internal/userhub/domain/session"
	"github.com/louisbranch/userhub/internal/userhub/domain/user"
	"github.com/louisbranch/userhub/internal/userhub/engine"
	"github.com/louisbranch/userhub/internal/userhub/projection"
	"github.com/louisbranch/userhub/internal/userhub/storage"
)

// Options overrides the default time source, id generator, and hasher.
// Zero values select production defaults.
type Options struct {
	Clock  func() time.Time
	NewID  func() (string, error)
	Hasher password.Hasher
}

// Services bundles the full command and query surface over one store.
type Services struct {
	Sessions *SessionCommands
	Users    *UserCommands
	Rebuild  *RebuildCommands
	Queries  *Queries
}

// New wires the services over store. The projection applier is installed so
// events fold into documents at commit time.
func New(store storage.Store, applier *projection.Applier, logger *log.Logger, opts Options) (*Services, error) {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = id.NewID
	}
	if opts.Hasher == nil {
		opts.Hasher = password.NewBcryptHasher()
	}

	registry, err := NewCommandRegistry()
	if err != nil {
		return nil, fmt.Errorf("build command registry: %w", err)
	}
	pipeline := engine.NewPipeline(store, logger).WithClock(opts.Clock)

	return &Services{
		Sessions: &SessionCommands{
			pipeline: pipeline,
			registry: registry,
			clock:    opts.Clock,
			newID:    opts.NewID,
		},
		Users: &UserCommands{
			pipeline: pipeline,
			registry: registry,
			clock:    opts.Clock,
			newID:    opts.NewID,
			hasher:   opts.Hasher,
		},
		Rebuild: &RebuildCommands{
			pipeline: pipeline,
			registry: registry,
			applier:  applier,
		},
		Queries: &Queries{store: store},
	}, nil
}

// dispatch routes a command through the pipeline mode its registered
// definition declares. Commands marked RequiresSession go through the guard;
// the rest run unvalidated with a zero session record.
func dispatch(ctx context.Context, pipeline *engine.Pipeline, registry *command.Registry, cmdType command.Type, sessionID string, handler engine.SessionHandler) command.Result {
	def, ok := registry.Definition(cmdType)
	if !ok {
		return command.Fail(apperrors.CodeValidationFailed, command.ErrTypeUnknown.Error())
	}
	if !def.RequiresSession {
		return pipeline.Execute(ctx, string(cmdType), func(ctx context.Context, uow storage.UnitOfWork) (command.Result, error) {
			return handler(ctx, uow, storage.SessionRecord{})
		})
	}
	return pipeline.ExecuteInSession(ctx, string(cmdType), engine.SessionContext{ID: sessionID}, handler)
}

func foldSessionState(events []event.Event) (session.State, error) {
	state := session.State{}
	for _, evt := range events {
		next, err := session.Fold(state, evt)
		if err != nil {
			return session.State{}, err
		}
		state = next
	}
	return state, nil
}

func foldUserState(events []event.Event) (user.State, error) {
	state := user.State{}
	for _, evt := range events {
		next, err := user.Fold(state, evt)
		if err != nil {
			return user.State{}, err
		}
		state = next
	}
	return state, nil
}
