package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	apperrors "github.com/louisbranch/userhub/internal/platform/errors"
	"github.com/louisbranch/userhub/internal/userhub/auth/password"
	"github.com/louisbranch/userhub/internal/userhub/domain/command"
	"github.com/louisbranch/userhub/internal/userhub/domain/event"
	"github.com/louisbranch/userhub/internal/userhub/domain/user"
	"github.com/louisbranch/userhub/internal/userhub/engine"
	"github.com/louisbranch/userhub/internal/userhub/storage"
)

// UserCommands executes user account commands. Every command here is
// session-scoped.
type UserCommands struct {
	pipeline *engine.Pipeline
	registry *command.Registry
	clock    func() time.Time
	newID    func() (string, error)
	hasher   password.Hasher
}

// CreateUser registers a new account and returns the new user id as result
// data. The projection lookup gives a friendly failure for taken names; the
// unique indexes remain the authority under concurrency.
func (u *UserCommands) CreateUser(ctx context.Context, sessionID, userName, email string) command.Result {
	return dispatch(ctx, u.pipeline, u.registry, user.CommandTypeCreate, sessionID,
		func(ctx context.Context, uow storage.UnitOfWork, sess storage.SessionRecord) (command.Result, error) {
			userID, err := u.newID()
			if err != nil {
				return command.Result{}, err
			}
			userName = strings.TrimSpace(userName)
			email = strings.TrimSpace(email)

			payloadJSON, _ := json.Marshal(user.CreatePayload{UserID: userID, UserName: userName, Email: email})
			cmd, err := u.registry.ValidateForDecision(command.Command{
				Type:        user.CommandTypeCreate,
				SessionID:   sess.ID,
				PayloadJSON: payloadJSON,
			})
			if err != nil {
				return command.Fail(apperrors.CodeValidationFailed, err.Error()), nil
			}

			lookup, err := u.lookupUniqueness(ctx, uow, userName, email)
			if err != nil {
				return command.Result{}, err
			}

			decision := user.Decide(user.State{}, cmd, lookup, u.clock)
			if len(decision.Rejections) > 0 {
				return command.FailRejection(decision.Rejections[0]), nil
			}
			for _, evt := range decision.Events {
				if err := uow.AppendEvent(evt); err != nil {
					return command.Result{}, err
				}
			}
			return command.OK(userID), nil
		})
}

// AddPasswordAuthentication attaches password authentication to an existing
// user. Only the bcrypt hash of the plaintext ever reaches the journal.
func (u *UserCommands) AddPasswordAuthentication(ctx context.Context, sessionID, userID, plaintext string) command.Result {
	return dispatch(ctx, u.pipeline, u.registry, user.CommandTypeAddPassword, sessionID,
		func(ctx context.Context, uow storage.UnitOfWork, sess storage.SessionRecord) (command.Result, error) {
			if err := user.ValidatePassword(plaintext); err != nil {
				return command.Fail(apperrors.CodeValidationFailed, err.Error()), nil
			}
			hash, err := u.hasher.Hash(plaintext)
			if err != nil {
				return command.Result{}, err
			}

			payloadJSON, _ := json.Marshal(user.AddPasswordPayload{UserID: userID, PasswordHash: hash})
			cmd, err := u.registry.ValidateForDecision(command.Command{
				Type:        user.CommandTypeAddPassword,
				SessionID:   sess.ID,
				PayloadJSON: payloadJSON,
			})
			if err != nil {
				return command.Fail(apperrors.CodeValidationFailed, err.Error()), nil
			}

			state, err := u.loadUserState(ctx, uow, userID)
			if err != nil {
				return command.Result{}, err
			}

			decision := user.Decide(state, cmd, user.Lookup{}, u.clock)
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

// DeactivateUser disables an account. Deactivating an already-deactivated
// user succeeds without appending a new event.
func (u *UserCommands) DeactivateUser(ctx context.Context, sessionID, userID string) command.Result {
	return dispatch(ctx, u.pipeline, u.registry, user.CommandTypeDeactivate, sessionID,
		func(ctx context.Context, uow storage.UnitOfWork, sess storage.SessionRecord) (command.Result, error) {
			payloadJSON, _ := json.Marshal(user.DeactivatePayload{UserID: userID})
			cmd, err := u.registry.ValidateForDecision(command.Command{
				Type:        user.CommandTypeDeactivate,
				SessionID:   sess.ID,
				PayloadJSON: payloadJSON,
			})
			if err != nil {
				return command.Fail(apperrors.CodeValidationFailed, err.Error()), nil
			}

			state, err := u.loadUserState(ctx, uow, userID)
			if err != nil {
				return command.Result{}, err
			}

			decision := user.Decide(state, cmd, user.Lookup{}, u.clock)
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

// ChangeUserEmail replaces an account's contact address.
func (u *UserCommands) ChangeUserEmail(ctx context.Context, sessionID, userID, newEmail string) command.Result {
	return dispatch(ctx, u.pipeline, u.registry, user.CommandTypeChangeEmail, sessionID,
		func(ctx context.Context, uow storage.UnitOfWork, sess storage.SessionRecord) (command.Result, error) {
			newEmail = strings.TrimSpace(newEmail)

			payloadJSON, _ := json.Marshal(user.ChangeEmailPayload{UserID: userID, NewEmail: newEmail})
			cmd, err := u.registry.ValidateForDecision(command.Command{
				Type:        user.CommandTypeChangeEmail,
				SessionID:   sess.ID,
				PayloadJSON: payloadJSON,
			})
			if err != nil {
				return command.Fail(apperrors.CodeValidationFailed, err.Error()), nil
			}

			state, err := u.loadUserState(ctx, uow, userID)
			if err != nil {
				return command.Result{}, err
			}

			var lookup user.Lookup
			existing, err := uow.GetUserByEmail(ctx, newEmail)
			switch {
			case err == nil:
				lookup.EmailTaken = existing.ID != userID
			case errors.Is(err, storage.ErrNotFound):
				// email is free
			default:
				return command.Result{}, err
			}

			decision := user.Decide(state, cmd, lookup, u.clock)
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

func (u *UserCommands) loadUserState(ctx context.Context, uow storage.UnitOfWork, userID string) (user.State, error) {
	events, err := uow.LoadStream(ctx, event.StreamTypeUser, userID)
	if err != nil {
		return user.State{}, err
	}
	return foldUserState(events)
}

func (u *UserCommands) lookupUniqueness(ctx context.Context, uow storage.UnitOfWork, userName, email string) (user.Lookup, error) {
	var lookup user.Lookup

	if _, err := uow.GetUserByName(ctx, userName); err == nil {
		lookup.UserNameTaken = true
	} else if !errors.Is(err, storage.ErrNotFound) {
		return user.Lookup{}, err
	}

	if _, err := uow.GetUserByEmail(ctx, email); err == nil {
		lookup.EmailTaken = true
	} else if !errors.Is(err, storage.ErrNotFound) {
		return user.Lookup{}, err
	}

	return lookup, nil
}
