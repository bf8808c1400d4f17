// Package sqlite provides the SQLite-backed implementation of the userhub
// storage contracts.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/louisbranch/userhub/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/userhub/internal/userhub/domain/event"
	"github.com/louisbranch/userhub/internal/userhub/storage"
	"github.com/louisbranch/userhub/internal/userhub/storage/sqlite/migrations"
)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// fromMillis reverses toMillis for persisted millisecond timestamps.
func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// querier abstracts *sql.DB and *sql.Tx so read queries serve both the
// store's read side and transaction-scoped units of work.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store provides a SQLite-backed store implementing all storage interfaces.
type Store struct {
	sqlDB   *sql.DB
	applier storage.Applier
}

// Open boots the SQLite store at the provided path and applies embedded
// migrations before the store is handed to higher layers.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{sqlDB: sqlDB}, nil
}

// SetApplier installs the projection applier invoked for every event at
// commit time. It must be called before the first unit of work is opened.
func (s *Store) SetApplier(applier storage.Applier) {
	if s == nil {
		return
	}
	s.applier = applier
}

// Close closes the underlying SQLite database.
//
// Close is intentionally nil-safe so callers can defer it in all startup paths.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Begin opens a unit of work backed by a single SQLite transaction.
func (s *Store) Begin(ctx context.Context) (storage.UnitOfWork, error) {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &unitOfWork{store: s, tx: tx}, nil
}

// GetSession reads a session projection document.
func (s *Store) GetSession(ctx context.Context, id string) (storage.SessionRecord, error) {
	return getSession(ctx, s.sqlDB, id)
}

// GetUser reads a user projection document by id.
func (s *Store) GetUser(ctx context.Context, id string) (storage.UserRecord, error) {
	return getUser(ctx, s.sqlDB, id)
}

// GetUserByName reads a user projection document by account name.
func (s *Store) GetUserByName(ctx context.Context, userName string) (storage.UserRecord, error) {
	return getUserByName(ctx, s.sqlDB, userName)
}

// GetUserByEmail reads a user projection document by contact address.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (storage.UserRecord, error) {
	return getUserByEmail(ctx, s.sqlDB, email)
}

// ListUsers pages through user projection documents ordered by account name.
func (s *Store) ListUsers(ctx context.Context, limit, offset int) ([]storage.UserRecord, error) {
	return listUsers(ctx, s.sqlDB, limit, offset)
}

// ListEvents pages through the journal for a stream type in global append order.
func (s *Store) ListEvents(ctx context.Context, streamType event.StreamType, afterID int64, limit int) ([]storage.JournalEntry, error) {
	return listEvents(ctx, s.sqlDB, streamType, afterID, limit)
}

// LoadStream returns all events of one stream in sequence order.
func (s *Store) LoadStream(ctx context.Context, streamType event.StreamType, streamID string) ([]event.Event, error) {
	return loadStream(ctx, s.sqlDB, streamType, streamID)
}

func getSession(ctx context.Context, q querier, id string) (storage.SessionRecord, error) {
	row := q.QueryRowContext(ctx, `
SELECT id, created_at, last_accessed_at, closed
FROM sessions WHERE id = ?`, id)

	var record storage.SessionRecord
	var createdAt, lastAccessedAt int64
	var closed int
	if err := row.Scan(&record.ID, &createdAt, &lastAccessedAt, &closed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.SessionRecord{}, storage.ErrNotFound
		}
		return storage.SessionRecord{}, fmt.Errorf("get session: %w", err)
	}
	record.CreatedAt = fromMillis(createdAt)
	record.LastAccessedAt = fromMillis(lastAccessedAt)
	record.Closed = closed != 0
	return record, nil
}

func scanUser(row *sql.Row, op string) (storage.UserRecord, error) {
	var record storage.UserRecord
	var deactivated int
	var createdAt, lastUpdatedAt int64
	if err := row.Scan(&record.ID, &record.UserName, &record.Email, &record.PasswordHash, &deactivated, &createdAt, &lastUpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.UserRecord{}, storage.ErrNotFound
		}
		return storage.UserRecord{}, fmt.Errorf("%s: %w", op, err)
	}
	record.Deactivated = deactivated != 0
	record.CreatedAt = fromMillis(createdAt)
	record.LastUpdatedAt = fromMillis(lastUpdatedAt)
	return record, nil
}

const userColumns = "id, user_name, email, password_hash, deactivated, created_at, last_updated_at"

func getUser(ctx context.Context, q querier, id string) (storage.UserRecord, error) {
	row := q.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	return scanUser(row, "get user")
}

func getUserByName(ctx context.Context, q querier, userName string) (storage.UserRecord, error) {
	row := q.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE user_name = ?", userName)
	return scanUser(row, "get user by name")
}

func getUserByEmail(ctx context.Context, q querier, email string) (storage.UserRecord, error) {
	row := q.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", email)
	return scanUser(row, "get user by email")
}

func listUsers(ctx context.Context, q querier, limit, offset int) ([]storage.UserRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := q.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY user_name LIMIT ? OFFSET ?", limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var records []storage.UserRecord
	for rows.Next() {
		var record storage.UserRecord
		var deactivated int
		var createdAt, lastUpdatedAt int64
		if err := rows.Scan(&record.ID, &record.UserName, &record.Email, &record.PasswordHash, &deactivated, &createdAt, &lastUpdatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		record.Deactivated = deactivated != 0
		record.CreatedAt = fromMillis(createdAt)
		record.LastUpdatedAt = fromMillis(lastUpdatedAt)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return records, nil
}

func listEvents(ctx context.Context, q querier, streamType event.StreamType, afterID int64, limit int) ([]storage.JournalEntry, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := q.QueryContext(ctx, `
SELECT id, stream_type, stream_id, seq, event_type, session_id, timestamp, payload
FROM events
WHERE stream_type = ? AND id > ?
ORDER BY id
LIMIT ?`, string(streamType), afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var entries []storage.JournalEntry
	for rows.Next() {
		entry, err := scanJournalEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return entries, nil
}

func loadStream(ctx context.Context, q querier, streamType event.StreamType, streamID string) ([]event.Event, error) {
	rows, err := q.QueryContext(ctx, `
SELECT id, stream_type, stream_id, seq, event_type, session_id, timestamp, payload
FROM events
WHERE stream_type = ? AND stream_id = ?
ORDER BY seq`, string(streamType), streamID)
	if err != nil {
		return nil, fmt.Errorf("load stream: %w", err)
	}
	defer rows.Close()

	var events []event.Event
	for rows.Next() {
		entry, err := scanJournalEntry(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, entry.Event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load stream: %w", err)
	}
	return events, nil
}

func scanJournalEntry(rows *sql.Rows) (storage.JournalEntry, error) {
	var entry storage.JournalEntry
	var streamType, eventType, payload string
	var timestamp int64
	if err := rows.Scan(&entry.ID, &streamType, &entry.Event.StreamID, &entry.Event.Seq, &eventType, &entry.Event.SessionID, &timestamp, &payload); err != nil {
		return storage.JournalEntry{}, fmt.Errorf("scan event: %w", err)
	}
	entry.Event.StreamType = event.StreamType(streamType)
	entry.Event.Type = event.Type(eventType)
	entry.Event.Timestamp = fromMillis(timestamp)
	entry.Event.PayloadJSON = []byte(payload)
	return entry, nil
}

func isConstraintError(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlite3.SQLITE_CONSTRAINT || code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}
