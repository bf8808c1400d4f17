package service

import (
	"context"
	"encoding/json"
	"time"

	apperrors "github.com/louisbranch/userhub/internal/platform/errors"
	"github.com/louisbranch/userhub/internal/userhub/domain/command"
	"github.com/louisbranch/userhub/internal/userhub/domain/event"
	"github.com/louisbranch/userhub/internal/userhub/domain/session"
	"github.com/louisbranch/userhub/internal/userhub/engine"
	"github.com/louisbranch/userhub/internal/userhub/storage"
)

// SessionCommands executes session lifecycle commands.
type SessionCommands struct {
	pipeline *engine.Pipeline
	registry *command.Registry
	clock    func() time.Time
	newID    func() (string, error)
}

// CreateSession opens a new session and returns its id as result data. It is
// the only command that does not require an acting session.
func (s *SessionCommands) CreateSession(ctx context.Context) command.Result {
	return dispatch(ctx, s.pipeline, s.registry, session.CommandTypeCreate, "", func(ctx context.Context, uow storage.UnitOfWork, _ storage.SessionRecord) (command.Result, error) {
		sessionID, err := s.newID()
		if err != nil {
			return command.Result{}, err
		}

		payloadJSON, _ := json.Marshal(session.CreatePayload{SessionID: sessionID})
		cmd, err := s.registry.ValidateForDecision(command.Command{
			Type:        session.CommandTypeCreate,
			PayloadJSON: payloadJSON,
		})
		if err != nil {
			return command.Fail(apperrors.CodeValidationFailed, err.Error()), nil
		}

		events, err := uow.LoadStream(ctx, event.StreamTypeSession, sessionID)
		if err != nil {
			return command.Result{}, err
		}
		state, err := foldSessionState(events)
		if err != nil {
			return command.Result{}, err
		}

		decision := session.Decide(state, cmd, s.clock)
		if len(decision.Rejections) > 0 {
			return command.FailRejection(decision.Rejections[0]), nil
		}
		for _, evt := range decision.Events {
			if err := uow.AppendEvent(evt); err != nil {
				return command.Result{}, err
			}
		}
		return command.OK(sessionID), nil
	})
}

// EndSession closes the acting session with an optional reason.
func (s *SessionCommands) EndSession(ctx context.Context, sessionID, reason string) command.Result {
	return dispatch(ctx, s.pipeline, s.registry, session.CommandTypeEnd, sessionID,
		func(ctx context.Context, uow storage.UnitOfWork, sess storage.SessionRecord) (command.Result, error) {
			payloadJSON, _ := json.Marshal(session.EndPayload{Reason: reason})
			cmd, err := s.registry.ValidateForDecision(command.Command{
				Type:        session.CommandTypeEnd,
				SessionID:   sess.ID,
				PayloadJSON: payloadJSON,
			})
			if err != nil {
				return command.Fail(apperrors.CodeValidationFailed, err.Error()), nil
			}

			events, err := uow.LoadStream(ctx, event.StreamTypeSession, sess.ID)
			if err != nil {
				return command.Result{}, err
			}
			state, err := foldSessionState(events)
			if err != nil {
				return command.Result{}, err
			}

			decision := session.Decide(state, cmd, s.clock)
			if len(decision.Rejections) > 0 {
				return command.FailRejection(decision.Rejections[0]), nil
			}
			for _, evt := range decision.Events {
				if err := uow.AppendEvent(evt); err != nil {
					return command.Result{}, err
				}
			}
			return command.OK(nil), nil
		})
}
