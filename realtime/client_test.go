package realtime

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cleanhub/cleanhub-go/gateway"
	"github.com/cleanhub/cleanhub-go/store/notifications"
)

var upgrader = websocket.Upgrader{}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestListenDispatchesEvents(t *testing.T) {
	var gotPath, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		conn.WriteJSON(Event{
			Type:         EventNotificationNew,
			Notification: &notifications.Notification{ID: "n1", Message: "new booking"},
		})
		conn.WriteJSON(Event{Type: EventBookingUpdated, BookingID: "b1"})
		// Hold the connection open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(server.Close)

	var mu sync.Mutex
	var events []Event
	received := make(chan struct{}, 2)
	client := New(wsURL(server), gateway.TokenSourceFunc(func() string { return "tok" }), func(ev Event) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
		received <- struct{}{}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- client.Listen(ctx, "12") }()

	for i := 0; i < 2; i++ {
		select {
		case <-received:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for events")
		}
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}

	if gotPath != "/notifications/12" {
		t.Errorf("unexpected dial path %q", gotPath)
	}
	if gotAuth != "Bearer tok" {
		t.Errorf("expected bearer header at dial time, got %q", gotAuth)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %+v", events)
	}
	if events[0].Type != EventNotificationNew || events[0].Notification.ID != "n1" {
		t.Errorf("unexpected first event %+v", events[0])
	}
	if events[1].Type != EventBookingUpdated || events[1].BookingID != "b1" {
		t.Errorf("unexpected second event %+v", events[1])
	}
}

func TestListenReconnectsAfterDrop(t *testing.T) {
	var mu sync.Mutex
	dials := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		dials++
		n := dials
		mu.Unlock()

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		if n == 1 {
			// Drop the first connection immediately.
			return
		}
		conn.WriteJSON(Event{Type: EventNotificationNew, Notification: &notifications.Notification{ID: "n2"}})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(server.Close)

	received := make(chan Event, 1)
	client := New(wsURL(server), nil, func(ev Event) { received <- ev })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Listen(ctx, "12")

	select {
	case ev := <-received:
		if ev.Notification == nil || ev.Notification.ID != "n2" {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("expected a redial to deliver the event")
	}

	mu.Lock()
	defer mu.Unlock()
	if dials < 2 {
		t.Errorf("expected at least 2 dials, got %d", dials)
	}
}

func TestSkipsUndecodableFrames(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.WriteMessage(websocket.TextMessage, []byte("not json"))
		conn.WriteJSON(Event{Type: EventBookingUpdated, BookingID: "b9"})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(server.Close)

	received := make(chan Event, 1)
	client := New(wsURL(server), nil, func(ev Event) { received <- ev })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Listen(ctx, "12")

	select {
	case ev := <-received:
		if ev.BookingID != "b9" {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("a bad frame must not kill the read loop")
	}
}

func TestCloseStopsListen(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(server.Close)

	client := New(wsURL(server), nil, nil)

	done := make(chan error, 1)
	go func() { done <- client.Listen(context.Background(), "12") }()

	// Give the dial a moment to land before closing.
	time.Sleep(100 * time.Millisecond)
	if err := client.Close(); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-done:
		if !errors.Is(err, ErrClosed) {
			t.Fatalf("expected ErrClosed, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Close must stop the listen loop")
	}

	if err := client.Listen(context.Background(), "12"); !errors.Is(err, ErrClosed) {
		t.Fatalf("closed client must refuse to listen, got %v", err)
	}
}
