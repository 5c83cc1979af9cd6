package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cleanhub/cleanhub-go/gateway"
)

func newTestStore(t *testing.T, handler http.Handler) *Store {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewStore(gateway.New(server.URL, nil, 2*time.Second, ""))
}

func seeded(items ...Notification) func(*Store) {
	return func(s *Store) {
		s.Mutate(func() { s.items = items })
	}
}

func TestFetchAllAndUnreadCount(t *testing.T) {
	s := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"data": []Notification{
			{ID: "1", Message: "new booking", IsRead: false},
			{ID: "2", Message: "payment received", IsRead: true},
			{ID: "3", Message: "review posted", IsRead: false},
		}})
	}))

	list, err := s.FetchAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 notifications, got %d", len(list))
	}
	if s.UnreadCount() != 2 {
		t.Errorf("expected 2 unread, got %d", s.UnreadCount())
	}
}

func TestMarkAsReadFlipsOptimistically(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	s := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/notifications/1/read" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		close(entered)
		<-release
		w.Write([]byte(`{}`))
	}))
	seeded(Notification{ID: "1", Message: "hi"})(s)

	done := make(chan error, 1)
	go func() { done <- s.MarkAsRead(context.Background(), "1") }()

	// The flip lands before the PATCH resolves.
	<-entered
	if s.UnreadCount() != 0 {
		t.Error("expected optimistic flip before the call resolves")
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}

	items := s.Items()
	if !items[0].IsRead || items[0].ReadAt == nil {
		t.Errorf("expected read flag and timestamp set, got %+v", items[0])
	}
}

func TestMarkAsReadRollsBackOnFailure(t *testing.T) {
	s := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message":"boom"}`))
	}))
	seeded(Notification{ID: "1", Message: "hi"})(s)

	err := s.MarkAsRead(context.Background(), "1")
	if err == nil {
		t.Fatal("expected error")
	}

	items := s.Items()
	if items[0].IsRead || items[0].ReadAt != nil {
		t.Errorf("expected flip rolled back, got %+v", items[0])
	}
	if s.UnreadCount() != 1 {
		t.Errorf("expected 1 unread after rollback, got %d", s.UnreadCount())
	}
}

func TestMarkAsReadUnknownID(t *testing.T) {
	s := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("unknown id must not reach the backend")
	}))

	if err := s.MarkAsRead(context.Background(), "99"); !errors.Is(err, ErrUnknownNotification) {
		t.Fatalf("expected ErrUnknownNotification, got %v", err)
	}
}

func TestMarkAsReadAlreadyRead(t *testing.T) {
	called := 0
	s := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called++
		w.Write([]byte(`{}`))
	}))
	now := time.Now()
	seeded(Notification{ID: "1", IsRead: true, ReadAt: &now})(s)

	if err := s.MarkAsRead(context.Background(), "1"); err != nil {
		t.Fatal(err)
	}
	// Idempotent re-read still confirms with the backend.
	if called != 1 {
		t.Errorf("expected one call, got %d", called)
	}
	if items := s.Items(); !items[0].IsRead {
		t.Errorf("read flag must stay set, got %+v", items[0])
	}
}

func TestMarkAllReadAfterConfirm(t *testing.T) {
	var path string
	s := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Write([]byte(`{}`))
	}))
	seeded(Notification{ID: "1"}, Notification{ID: "2"})(s)

	if err := s.MarkAllRead(context.Background()); err != nil {
		t.Fatal(err)
	}
	if path != "/notifications/read-all" {
		t.Errorf("unexpected path %q", path)
	}
	if s.UnreadCount() != 0 {
		t.Errorf("expected all read, %d unread left", s.UnreadCount())
	}
}

func TestMarkAllReadFailureLeavesFlags(t *testing.T) {
	s := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message":"boom"}`))
	}))
	seeded(Notification{ID: "1"}, Notification{ID: "2"})(s)

	if err := s.MarkAllRead(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if s.UnreadCount() != 2 {
		t.Errorf("flags must not flip without confirmation, %d unread", s.UnreadCount())
	}
}

func TestDeleteRemovesAfterConfirm(t *testing.T) {
	s := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	seeded(Notification{ID: "1"}, Notification{ID: "2"})(s)

	if err := s.Delete(context.Background(), "1"); err != nil {
		t.Fatal(err)
	}
	items := s.Items()
	if len(items) != 1 || items[0].ID != "2" {
		t.Fatalf("expected notification 1 removed, got %+v", items)
	}
}

func TestApplyPrependsAndDedupes(t *testing.T) {
	s := NewStore(nil)
	seeded(Notification{ID: "1", Message: "old"})(s)

	s.Apply(Notification{ID: "2", Message: "fresh"})
	items := s.Items()
	if len(items) != 2 || items[0].ID != "2" {
		t.Fatalf("expected new notification prepended, got %+v", items)
	}

	s.Apply(Notification{ID: "1", Message: "updated"})
	items = s.Items()
	if len(items) != 2 || items[1].Message != "updated" {
		t.Fatalf("expected in-place replacement by id, got %+v", items)
	}
}

func TestApplyNotifiesWatchers(t *testing.T) {
	s := NewStore(nil)
	ch := s.Watch()

	s.Apply(Notification{ID: "1"})
	select {
	case <-ch:
	default:
		t.Fatal("expected a tick after Apply")
	}
}
