package engine

import (
	"context"
	"errors"
	"strings"

	apperrors "github.com/louisbranch/userhub/internal/platform/errors"
	"github.com/louisbranch/userhub/internal/userhub/storage"
)

// Session guard failure messages, surfaced verbatim to callers.
const (
	messageMissingSessionID = "SessionId is missing"
	messageInvalidSessionID = "Invalid SessionId"
	messageSessionClosed    = "Session is closed"
)

// Guard resolves the acting session before session-scoped commands run. It
// reads through the unit of work so the check shares the command's
// transaction snapshot.
type Guard struct{}

// LoadActive resolves sessionID to a live session record. It fails with a
// missing, invalid, or closed session error; liveness is decided solely by
// the session document.
func (Guard) LoadActive(ctx context.Context, uow storage.UnitOfWork, sessionID string) (storage.SessionRecord, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return storage.SessionRecord{}, apperrors.New(apperrors.CodeMissingSessionID, messageMissingSessionID)
	}
	record, err := uow.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.SessionRecord{}, apperrors.New(apperrors.CodeInvalidSessionID, messageInvalidSessionID)
		}
		return storage.SessionRecord{}, apperrors.Wrap(apperrors.CodeInternal, "load session", err)
	}
	if record.Closed {
		return storage.SessionRecord{}, apperrors.New(apperrors.CodeSessionClosed, messageSessionClosed)
	}
	return record, nil
}

// Validate reports whether sessionID resolves to a live session.
func (g Guard) Validate(ctx context.Context, uow storage.UnitOfWork, sessionID string) bool {
	_, err := g.LoadActive(ctx, uow, sessionID)
	return err == nil
}
