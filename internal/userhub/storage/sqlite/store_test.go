package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/louisbranch/userhub/internal/userhub/domain/event"
	"github.com/louisbranch/userhub/internal/userhub/storage"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testTime() time.Time {
	return time.Date(2026, time.February, 1, 12, 0, 0, 0, time.UTC)
}

func sessionEvent(streamID string, seqHint int) event.Event {
	return event.Event{
		StreamType:  event.StreamTypeSession,
		StreamID:    streamID,
		Type:        "session.created",
		SessionID:   streamID,
		Timestamp:   testTime().Add(time.Duration(seqHint) * time.Second),
		PayloadJSON: []byte(`{"session_id":"` + streamID + `"}`),
	}
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open("  "); err == nil {
		t.Fatal("expected missing path to fail")
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "test.db")
	first, err := Open(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	second, err := Open(path)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	_ = second.Close()
}

func TestSessionRoundTripAndTouch(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	uow, err := store.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	record := storage.SessionRecord{ID: "sess-1", CreatedAt: testTime(), LastAccessedAt: testTime()}
	if err := uow.PutSession(ctx, record); err != nil {
		t.Fatalf("put session: %v", err)
	}
	if err := uow.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}

	got, err := store.GetSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.Closed || !got.CreatedAt.Equal(testTime()) {
		t.Fatalf("unexpected record: %+v", got)
	}

	uow, err = store.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	later := testTime().Add(time.Minute)
	if err := uow.TouchSession(ctx, "sess-1", later); err != nil {
		t.Fatalf("touch: %v", err)
	}
	// Touch never moves the clock backwards.
	if err := uow.TouchSession(ctx, "sess-1", testTime().Add(-time.Hour)); err != nil {
		t.Fatalf("backwards touch: %v", err)
	}
	if err := uow.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}

	got, err = store.GetSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if !got.LastAccessedAt.Equal(later) {
		t.Fatalf("last accessed = %v, want %v", got.LastAccessedAt, later)
	}

	uow, err = store.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer func() { _ = uow.Rollback() }()
	if err := uow.TouchSession(ctx, "missing", later); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("touch missing error = %v, want not found", err)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	if _, err := store.GetSession(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("error = %v, want not found", err)
	}
}

func TestUserUniqueIndexes(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	put := func(record storage.UserRecord) error {
		uow, err := store.Begin(ctx)
		if err != nil {
			t.Fatalf("begin: %v", err)
		}
		if err := uow.PutUser(ctx, record); err != nil {
			_ = uow.Rollback()
			return err
		}
		return uow.Commit(ctx)
	}

	alice := storage.UserRecord{ID: "user-1", UserName: "alice", Email: "alice@example.com", CreatedAt: testTime(), LastUpdatedAt: testTime()}
	if err := put(alice); err != nil {
		t.Fatalf("put user: %v", err)
	}

	sameName := storage.UserRecord{ID: "user-2", UserName: "alice", Email: "other@example.com", CreatedAt: testTime(), LastUpdatedAt: testTime()}
	if err := put(sameName); !errors.Is(err, storage.ErrUniqueViolation) {
		t.Fatalf("duplicate name error = %v, want unique violation", err)
	}

	sameEmail := storage.UserRecord{ID: "user-3", UserName: "bob", Email: "alice@example.com", CreatedAt: testTime(), LastUpdatedAt: testTime()}
	if err := put(sameEmail); !errors.Is(err, storage.ErrUniqueViolation) {
		t.Fatalf("duplicate email error = %v, want unique violation", err)
	}

	got, err := store.GetUserByName(ctx, "alice")
	if err != nil {
		t.Fatalf("get by name: %v", err)
	}
	if got.ID != "user-1" {
		t.Fatalf("id = %s, want user-1", got.ID)
	}
	got, err = store.GetUserByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if got.ID != "user-1" {
		t.Fatalf("id = %s, want user-1", got.ID)
	}
}

func TestListUsersPaging(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	uow, err := store.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	names := []string{"carol", "alice", "bob"}
	for i, name := range names {
		record := storage.UserRecord{
			ID:            "user-" + name,
			UserName:      name,
			Email:         name + "@example.com",
			CreatedAt:     testTime().Add(time.Duration(i) * time.Second),
			LastUpdatedAt: testTime(),
		}
		if err := uow.PutUser(ctx, record); err != nil {
			t.Fatalf("put user %s: %v", name, err)
		}
	}
	if err := uow.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}

	page, err := store.ListUsers(ctx, 2, 0)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(page) != 2 || page[0].UserName != "alice" || page[1].UserName != "bob" {
		t.Fatalf("unexpected first page: %+v", page)
	}
	page, err = store.ListUsers(ctx, 2, 2)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(page) != 1 || page[0].UserName != "carol" {
		t.Fatalf("unexpected second page: %+v", page)
	}
}

func TestAppendAssignsSequence(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	uow, err := store.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := uow.AppendEvent(sessionEvent("sess-1", 0)); err != nil {
		t.Fatalf("append: %v", err)
	}
	ended := sessionEvent("sess-1", 1)
	ended.Type = "session.ended"
	if err := uow.AppendEvent(ended); err != nil {
		t.Fatalf("append: %v", err)
	}
	if got := len(uow.Pending()); got != 2 {
		t.Fatalf("pending = %d, want 2", got)
	}
	if err := uow.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}

	events, err := store.LoadStream(ctx, event.StreamTypeSession, "sess-1")
	if err != nil {
		t.Fatalf("load stream: %v", err)
	}
	if len(events) != 2 || events[0].Seq != 1 || events[1].Seq != 2 {
		t.Fatalf("unexpected stream: %+v", events)
	}

	uow, err = store.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	third := sessionEvent("sess-1", 2)
	third.Type = "session.reopened"
	if err := uow.AppendEvent(third); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := uow.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}

	events, err = store.LoadStream(ctx, event.StreamTypeSession, "sess-1")
	if err != nil {
		t.Fatalf("load stream: %v", err)
	}
	if len(events) != 3 || events[2].Seq != 3 {
		t.Fatalf("unexpected stream after second commit: %+v", events)
	}
}

func TestListEventsPaging(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	uow, err := store.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	for i := 0; i < 5; i++ {
		evt := sessionEvent("sess-"+string(rune('a'+i)), i)
		if err := uow.AppendEvent(evt); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if err := uow.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}

	var seen int
	var afterID int64
	for {
		entries, err := store.ListEvents(ctx, event.StreamTypeSession, afterID, 2)
		if err != nil {
			t.Fatalf("list events: %v", err)
		}
		if len(entries) == 0 {
			break
		}
		for _, entry := range entries {
			if entry.ID <= afterID {
				t.Fatalf("entries out of order: %+v", entries)
			}
			afterID = entry.ID
			seen++
		}
	}
	if seen != 5 {
		t.Fatalf("seen = %d, want 5", seen)
	}
}

func TestRollbackDiscardsWork(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	uow, err := store.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := uow.PutSession(ctx, storage.SessionRecord{ID: "sess-1", CreatedAt: testTime(), LastAccessedAt: testTime()}); err != nil {
		t.Fatalf("put session: %v", err)
	}
	if err := uow.AppendEvent(sessionEvent("sess-1", 0)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := uow.Rollback(); err != nil {
		t.Fatalf("rollback: %v", err)
	}

	if _, err := store.GetSession(ctx, "sess-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found after rollback, got %v", err)
	}
	events, err := store.LoadStream(ctx, event.StreamTypeSession, "sess-1")
	if err != nil {
		t.Fatalf("load stream: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected empty stream, got %+v", events)
	}
}

type recordingApplier struct {
	applied []event.Event
}

func (r *recordingApplier) Apply(ctx context.Context, uow storage.UnitOfWork, evt event.Event) error {
	r.applied = append(r.applied, evt)
	return nil
}

func TestApplierRunsAtCommit(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	applier := &recordingApplier{}
	store.SetApplier(applier)
	ctx := context.Background()

	uow, err := store.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := uow.AppendEvent(sessionEvent("sess-1", 0)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if len(applier.applied) != 0 {
		t.Fatal("applier must not run before commit")
	}
	if err := uow.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}

	if len(applier.applied) != 1 {
		t.Fatalf("applied = %d, want 1", len(applier.applied))
	}
	if applier.applied[0].Seq != 1 {
		t.Fatalf("applied seq = %d, want 1", applier.applied[0].Seq)
	}
}
