// Package storage defines the persistence contracts for the journal and the
// session and user projections.
package storage

import (
	"context"
	"time"

	apperrors "github.com/louisbranch/userhub/internal/platform/errors"
	"github.com/louisbranch/userhub/internal/userhub/domain/event"
)

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")
	// ErrUniqueViolation indicates a unique constraint rejected a write.
	// Command execution translates it into a race condition failure.
	ErrUniqueViolation = apperrors.New(apperrors.CodeUniqueViolation, "unique constraint violated")
)

// SessionRecord is the session projection document.
type SessionRecord struct {
	ID             string
	CreatedAt      time.Time
	LastAccessedAt time.Time
	Closed         bool
}

// UserRecord is the user projection document. PasswordHash is empty until
// password authentication has been added.
type UserRecord struct {
	ID            string
	UserName      string
	Email         string
	PasswordHash  string
	Deactivated   bool
	CreatedAt     time.Time
	LastUpdatedAt time.Time
}

// JournalEntry pairs a journal event with its global append order.
type JournalEntry struct {
	ID    int64
	Event event.Event
}

// SessionReader reads the session projection.
type SessionReader interface {
	GetSession(ctx context.Context, id string) (SessionRecord, error)
}

// UserReader reads the user projection.
type UserReader interface {
	GetUser(ctx context.Context, id string) (UserRecord, error)
	GetUserByName(ctx context.Context, userName string) (UserRecord, error)
	GetUserByEmail(ctx context.Context, email string) (UserRecord, error)
	ListUsers(ctx context.Context, limit, offset int) ([]UserRecord, error)
}

// EventReader reads the journal in global append order.
type EventReader interface {
	ListEvents(ctx context.Context, streamType event.StreamType, afterID int64, limit int) ([]JournalEntry, error)
	LoadStream(ctx context.Context, streamType event.StreamType, streamID string) ([]event.Event, error)
}

// UnitOfWork scopes one command execution to a single transaction. Events
// staged with AppendEvent are not written until Commit, which assigns stream
// sequence numbers, persists the events, and folds them into projections
// before the transaction commits.
type UnitOfWork interface {
	SessionReader
	UserReader
	EventReader

	PutSession(ctx context.Context, record SessionRecord) error
	PutUser(ctx context.Context, record UserRecord) error
	// TouchSession advances the session's last-accessed time. It never moves
	// the time backwards.
	TouchSession(ctx context.Context, id string, at time.Time) error
	DeleteAllSessions(ctx context.Context) error
	DeleteAllUsers(ctx context.Context) error

	AppendEvent(evt event.Event) error
	Pending() []event.Event
	DiscardPending()

	Commit(ctx context.Context) error
	// Rollback releases the transaction. It is a no-op after Commit.
	Rollback() error
}

// Applier folds a committed-in-transaction event into projection documents.
type Applier interface {
	Apply(ctx context.Context, uow UnitOfWork, evt event.Event) error
}

// Store opens units of work and serves read-side queries outside of command
// execution.
type Store interface {
	SessionReader
	UserReader
	EventReader

	Begin(ctx context.Context) (UnitOfWork, error)
	Close() error
}
