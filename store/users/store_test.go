package users

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
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

func TestFetchStaffEnvelope(t *testing.T) {
	var path string
	s := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Write([]byte(`{"users":[{"id":1,"first_name":"Ana"},{"id":"2","first_name":"Bek"}],"count":14}`))
	}))

	list, err := s.FetchStaff(context.Background(), "12")
	if err != nil {
		t.Fatal(err)
	}

	if path != "/owner/12/users" {
		t.Errorf("unexpected path %q", path)
	}
	if len(list) != 2 || list[0].ID != "1" || list[1].ID != "2" {
		t.Fatalf("expected mixed-type ids normalized, got %+v", list)
	}
	if s.Count() != 14 {
		t.Errorf("expected server count cached, got %d", s.Count())
	}
}

func TestFetchStaffFailurePreservesStale(t *testing.T) {
	fail := false
	s := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte(`{"message":"upstream"}`))
			return
		}
		w.Write([]byte(`{"users":[{"id":1}],"count":1}`))
	}))

	if _, err := s.FetchStaff(context.Background(), "12"); err != nil {
		t.Fatal(err)
	}

	fail = true
	if _, err := s.FetchStaff(context.Background(), "12"); err == nil {
		t.Fatal("expected fetch error")
	}

	if got := s.Items(); len(got) != 1 || got[0].ID != "1" {
		t.Fatalf("stale items must survive, got %+v", got)
	}
	if s.Count() != 1 {
		t.Errorf("stale count must survive, got %d", s.Count())
	}
	if s.Err() == nil {
		t.Error("expected error recorded in state")
	}
}

func TestCreateStaffAppendsAndCounts(t *testing.T) {
	s := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.Write([]byte(`{"users":[{"id":1}],"count":1}`))
			return
		}
		var req CreateStaffRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Email != "s@x.com" {
			t.Errorf("unexpected request %+v", req)
		}
		json.NewEncoder(w).Encode(map[string]any{"data": User{ID: "2", FirstName: "Sam"}})
	}))

	if _, err := s.FetchStaff(context.Background(), "12"); err != nil {
		t.Fatal(err)
	}

	user, err := s.CreateStaff(context.Background(), "12", CreateStaffRequest{
		FirstName: "Sam", LastName: "Lee", Email: "s@x.com", Password: "secret1",
	})
	if err != nil {
		t.Fatal(err)
	}
	if user.ID != "2" {
		t.Fatalf("unexpected user %+v", user)
	}
	if got := s.Items(); len(got) != 2 {
		t.Fatalf("expected append, got %+v", got)
	}
	if s.Count() != 2 {
		t.Errorf("expected count bumped, got %d", s.Count())
	}
}

func TestDeleteStaffRemovesAfterConfirm(t *testing.T) {
	var deletePath string
	s := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			deletePath = r.URL.Path
			w.Write([]byte(`{}`))
			return
		}
		w.Write([]byte(`{"users":[{"id":1},{"id":2}],"count":2}`))
	}))

	if _, err := s.FetchStaff(context.Background(), "12"); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteStaff(context.Background(), "12", "1"); err != nil {
		t.Fatal(err)
	}

	if deletePath != "/owner/12/users/1" {
		t.Errorf("unexpected delete path %q", deletePath)
	}
	got := s.Items()
	if len(got) != 1 || got[0].ID != "2" {
		t.Fatalf("expected staff 1 removed, got %+v", got)
	}
	if s.Count() != 1 {
		t.Errorf("expected count dropped, got %d", s.Count())
	}
}

func TestUpdateProfileJSON(t *testing.T) {
	var contentType, method string
	s := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		method = r.Method
		json.NewEncoder(w).Encode(User{ID: "1", FirstName: "New"})
	}))

	s.Mutate(func() { s.items = []User{{ID: "1", FirstName: "Old"}} })

	user, err := s.UpdateProfile(context.Background(), "1", UpdateProfileRequest{FirstName: "New"}, nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if user.FirstName != "New" {
		t.Fatalf("unexpected user %+v", user)
	}
	if method != http.MethodPut || contentType != "application/json" {
		t.Errorf("expected plain JSON PUT without avatar, got %s %s", method, contentType)
	}
	if got, _ := s.Get("1"); got.FirstName != "New" {
		t.Errorf("expected cached entry replaced, got %+v", got)
	}
}

func TestUpdateProfileWithAvatarGoesMultipart(t *testing.T) {
	var method string
	var override []string
	var avatars int
	s := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		if err := r.ParseMultipartForm(4 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		} else {
			override = r.MultipartForm.Value["_method"]
			avatars = len(r.MultipartForm.File["image"])
		}
		json.NewEncoder(w).Encode(User{ID: "1"})
	}))

	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatal(err)
	}

	_, err := s.UpdateProfile(context.Background(), "1", UpdateProfileRequest{FirstName: "New"}, &buf, "a.png")
	if err != nil {
		t.Fatal(err)
	}

	if method != http.MethodPost {
		t.Errorf("expected multipart PUT to go out as POST, got %s", method)
	}
	if len(override) != 1 || override[0] != "PUT" {
		t.Errorf("expected method override, got %v", override)
	}
	if avatars != 1 {
		t.Errorf("expected one image part, got %d", avatars)
	}
}

func TestUpdateProfileRejectsBadAvatar(t *testing.T) {
	called := false
	s := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	avatar := strings.NewReader("not really decodable")
	_, err := s.UpdateProfile(context.Background(), "1", UpdateProfileRequest{FirstName: "New"}, avatar, "a.png")
	if err == nil {
		t.Fatal("expected image prep to reject a non-image")
	}
	var gwErr *gateway.Error
	if !errors.As(err, &gwErr) || gwErr.Kind != gateway.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if called {
		t.Error("rejected avatar must not produce a request")
	}
	if s.Loading() {
		t.Error("expected loading cleared after local failure")
	}
}
