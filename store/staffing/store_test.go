package staffing

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

func TestFetchAllAndForBooking(t *testing.T) {
	var path string
	s := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		json.NewEncoder(w).Encode([]Assignment{
			{ID: "a1", BookingID: "b1", StaffID: "s1"},
			{ID: "a2", BookingID: "b2", StaffID: "s1"},
			{ID: "a3", BookingID: "b1", StaffID: "s2"},
		})
	}))

	if _, err := s.FetchAll(context.Background(), "12"); err != nil {
		t.Fatal(err)
	}
	if path != "/owner/12/assignments" {
		t.Errorf("unexpected path %q", path)
	}
	if got := s.ForBooking("b1"); len(got) != 2 {
		t.Fatalf("expected 2 assignments for b1, got %+v", got)
	}
}

func TestAssignAppends(t *testing.T) {
	var method, path string
	s := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		var req AssignRequest
		json.NewDecoder(r.Body).Decode(&req)
		json.NewEncoder(w).Encode(Assignment{ID: "a9", BookingID: "b1", StaffID: "s1", StaffName: "Ana"})
	}))

	assignment, err := s.Assign(context.Background(), "12", AssignRequest{BookingID: "b1", StaffID: "s1"})
	if err != nil {
		t.Fatal(err)
	}
	if method != http.MethodPost || path != "/owner/12/assignments" {
		t.Errorf("unexpected request %s %s", method, path)
	}
	if assignment.StaffName != "Ana" {
		t.Fatalf("unexpected assignment %+v", assignment)
	}
	if got := s.Items(); len(got) != 1 {
		t.Fatalf("expected append, got %+v", got)
	}
}

func TestAssignValidation(t *testing.T) {
	called := false
	s := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	_, err := s.Assign(context.Background(), "12", AssignRequest{BookingID: "b1"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	var gwErr *gateway.Error
	if !errors.As(err, &gwErr) || gwErr.Kind != gateway.KindValidation {
		t.Fatalf("expected validation kind, got %v", err)
	}
	if called {
		t.Error("invalid payload must not reach the backend")
	}
}

func TestUnassignRemovesAfterConfirm(t *testing.T) {
	var path string
	s := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Write([]byte(`{}`))
	}))

	s.Mutate(func() {
		s.items = []Assignment{{ID: "a1", BookingID: "b1"}, {ID: "a2", BookingID: "b2"}}
	})

	if err := s.Unassign(context.Background(), "12", "a1"); err != nil {
		t.Fatal(err)
	}
	if path != "/owner/12/assignments/a1" {
		t.Errorf("unexpected path %q", path)
	}
	if got := s.Items(); len(got) != 1 || got[0].ID != "a2" {
		t.Fatalf("expected a1 removed, got %+v", got)
	}
}

func TestUnassignFailureKeepsEntry(t *testing.T) {
	s := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"message":"booking already started"}`))
	}))

	s.Mutate(func() { s.items = []Assignment{{ID: "a1"}} })

	if err := s.Unassign(context.Background(), "12", "a1"); err == nil {
		t.Fatal("expected error")
	}
	if got := s.Items(); len(got) != 1 {
		t.Fatalf("entry must stay until the backend confirms, got %+v", got)
	}
}
