package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/louisbranch/userhub/internal/userhub/domain/event"
	"github.com/louisbranch/userhub/internal/userhub/storage"
)

// unitOfWork scopes a single command execution to one SQLite transaction.
// Events accumulate in pending until Commit assigns sequence numbers, writes
// the journal rows, and folds projections inside the same transaction.
type unitOfWork struct {
	store   *Store
	tx      *sql.Tx
	pending []event.Event
	done    bool
}

func (u *unitOfWork) GetSession(ctx context.Context, id string) (storage.SessionRecord, error) {
	return getSession(ctx, u.tx, id)
}

func (u *unitOfWork) GetUser(ctx context.Context, id string) (storage.UserRecord, error) {
	return getUser(ctx, u.tx, id)
}

func (u *unitOfWork) GetUserByName(ctx context.Context, userName string) (storage.UserRecord, error) {
	return getUserByName(ctx, u.tx, userName)
}

func (u *unitOfWork) GetUserByEmail(ctx context.Context, email string) (storage.UserRecord, error) {
	return getUserByEmail(ctx, u.tx, email)
}

func (u *unitOfWork) ListUsers(ctx context.Context, limit, offset int) ([]storage.UserRecord, error) {
	return listUsers(ctx, u.tx, limit, offset)
}

func (u *unitOfWork) ListEvents(ctx context.Context, streamType event.StreamType, afterID int64, limit int) ([]storage.JournalEntry, error) {
	return listEvents(ctx, u.tx, streamType, afterID, limit)
}

func (u *unitOfWork) LoadStream(ctx context.Context, streamType event.StreamType, streamID string) ([]event.Event, error) {
	return loadStream(ctx, u.tx, streamType, streamID)
}

// PutSession upserts a session projection document.
func (u *unitOfWork) PutSession(ctx context.Context, record storage.SessionRecord) error {
	closed := 0
	if record.Closed {
		closed = 1
	}
	_, err := u.tx.ExecContext(ctx, `
INSERT INTO sessions (id, created_at, last_accessed_at, closed)
VALUES (?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    created_at = excluded.created_at,
    last_accessed_at = excluded.last_accessed_at,
    closed = excluded.closed`,
		record.ID, toMillis(record.CreatedAt), toMillis(record.LastAccessedAt), closed)
	if err != nil {
		if isConstraintError(err) {
			return fmt.Errorf("put session %s: %w", record.ID, storage.ErrUniqueViolation)
		}
		return fmt.Errorf("put session %s: %w", record.ID, err)
	}
	return nil
}

// PutUser upserts a user projection document. Unique index violations on
// user_name or email surface as storage.ErrUniqueViolation.
func (u *unitOfWork) PutUser(ctx context.Context, record storage.UserRecord) error {
	deactivated := 0
	if record.Deactivated {
		deactivated = 1
	}
	_, err := u.tx.ExecContext(ctx, `
INSERT INTO users (id, user_name, email, password_hash, deactivated, created_at, last_updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    user_name = excluded.user_name,
    email = excluded.email,
    password_hash = excluded.password_hash,
    deactivated = excluded.deactivated,
    created_at = excluded.created_at,
    last_updated_at = excluded.last_updated_at`,
		record.ID, record.UserName, record.Email, record.PasswordHash, deactivated,
		toMillis(record.CreatedAt), toMillis(record.LastUpdatedAt))
	if err != nil {
		if isConstraintError(err) {
			return fmt.Errorf("put user %s: %w", record.ID, storage.ErrUniqueViolation)
		}
		return fmt.Errorf("put user %s: %w", record.ID, err)
	}
	return nil
}

// TouchSession advances last_accessed_at without ever moving it backwards.
func (u *unitOfWork) TouchSession(ctx context.Context, id string, at time.Time) error {
	result, err := u.tx.ExecContext(ctx, `
UPDATE sessions SET last_accessed_at = MAX(last_accessed_at, ?) WHERE id = ?`,
		toMillis(at), id)
	if err != nil {
		return fmt.Errorf("touch session %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("touch session %s: %w", id, err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (u *unitOfWork) DeleteAllSessions(ctx context.Context) error {
	if _, err := u.tx.ExecContext(ctx, "DELETE FROM sessions"); err != nil {
		return fmt.Errorf("delete sessions: %w", err)
	}
	return nil
}

func (u *unitOfWork) DeleteAllUsers(ctx context.Context) error {
	if _, err := u.tx.ExecContext(ctx, "DELETE FROM users"); err != nil {
		return fmt.Errorf("delete users: %w", err)
	}
	return nil
}

// AppendEvent validates and stages an event for the next Commit.
func (u *unitOfWork) AppendEvent(evt event.Event) error {
	validated, err := event.ValidateForAppend(evt)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	u.pending = append(u.pending, validated)
	return nil
}

// Pending returns the staged events in append order.
func (u *unitOfWork) Pending() []event.Event {
	return append([]event.Event(nil), u.pending...)
}

// DiscardPending drops all staged events without touching the transaction.
func (u *unitOfWork) DiscardPending() {
	u.pending = nil
}

// Commit writes staged events, folds them into projections, and commits the
// transaction. A unique index violation anywhere in that sequence surfaces
// as storage.ErrUniqueViolation.
func (u *unitOfWork) Commit(ctx context.Context) error {
	if u.done {
		return fmt.Errorf("unit of work already finished")
	}

	for _, evt := range u.pending {
		seq, err := u.nextSeq(ctx, evt.StreamType, evt.StreamID)
		if err != nil {
			return err
		}
		evt.Seq = seq

		_, err = u.tx.ExecContext(ctx, `
INSERT INTO events (stream_type, stream_id, seq, event_type, session_id, timestamp, payload)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
			string(evt.StreamType), evt.StreamID, evt.Seq, string(evt.Type),
			evt.SessionID, toMillis(evt.Timestamp), string(evt.PayloadJSON))
		if err != nil {
			if isConstraintError(err) {
				return fmt.Errorf("append %s to %s/%s: %w", evt.Type, evt.StreamType, evt.StreamID, storage.ErrUniqueViolation)
			}
			return fmt.Errorf("append %s to %s/%s: %w", evt.Type, evt.StreamType, evt.StreamID, err)
		}

		if u.store.applier != nil {
			if err := u.store.applier.Apply(ctx, u, evt); err != nil {
				return fmt.Errorf("apply projection for %s: %w", evt.Type, err)
			}
		}
	}
	u.pending = nil

	if err := u.tx.Commit(); err != nil {
		if isConstraintError(err) {
			return fmt.Errorf("commit: %w", storage.ErrUniqueViolation)
		}
		return fmt.Errorf("commit: %w", err)
	}
	u.done = true
	return nil
}

// Rollback releases the transaction. It is a no-op after Commit.
func (u *unitOfWork) Rollback() error {
	if u.done {
		return nil
	}
	u.done = true
	if err := u.tx.Rollback(); err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

func (u *unitOfWork) nextSeq(ctx context.Context, streamType event.StreamType, streamID string) (uint64, error) {
	var seq uint64
	row := u.tx.QueryRowContext(ctx, `
SELECT COALESCE(MAX(seq), 0) + 1 FROM events WHERE stream_type = ? AND stream_id = ?`,
		string(streamType), streamID)
	if err := row.Scan(&seq); err != nil {
		return 0, fmt.Errorf("next seq for %s/%s: %w", streamType, streamID, err)
	}
	return seq, nil
}
