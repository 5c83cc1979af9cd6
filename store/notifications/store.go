// Package notifications is the store for user notifications. Fetching
// is pull-only; realtime pushes enter through Apply, wired by the
// consumer from the realtime channel.
package notifications

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cleanhub/cleanhub-go/gateway"
	"github.com/cleanhub/cleanhub-go/store"
)

var ErrUnknownNotification = errors.New("notification not in store")

// Store caches the last fetched notification collection.
type Store struct {
	store.Cell

	gw *gateway.Gateway

	items []Notification
}

// NewStore creates an empty notifications store.
func NewStore(gw *gateway.Gateway) *Store {
	return &Store{gw: gw}
}

// Items returns a copy of the cached collection.
func (s *Store) Items() []Notification {
	var items []Notification
	s.Read(func() {
		items = append([]Notification(nil), s.items...)
	})
	return items
}

// UnreadCount counts cached notifications not yet read.
func (s *Store) UnreadCount() int {
	count := 0
	s.Read(func() {
		for _, n := range s.items {
			if !n.IsRead {
				count++
			}
		}
	})
	return count
}

// Clear drops all cached notifications.
func (s *Store) Clear() {
	s.Mutate(func() {
		s.items = nil
	})
}

// FetchAll loads the notification list. On success the collection is
// replaced wholesale; on failure stale items stay put.
func (s *Store) FetchAll(ctx context.Context) ([]Notification, error) {
	token := s.Begin()

	payload, err := s.gw.Send(ctx, http.MethodGet, "/notifications", nil)
	if err != nil {
		s.Settle(token, err, nil)
		return nil, err
	}

	var list []Notification
	if decodeErr := payload.Decode(&list); decodeErr != nil {
		err = &gateway.Error{Kind: gateway.KindTransport, Message: "decode notification list", Err: decodeErr}
		s.Settle(token, err, nil)
		return nil, err
	}

	s.Settle(token, nil, func() {
		s.items = list
	})
	return list, nil
}

// MarkAsRead flips a notification's read flag optimistically, before
// the PATCH resolves, then rolls the flip back if the call fails.
func (s *Store) MarkAsRead(ctx context.Context, id store.ID) error {
	var prevReadAt *time.Time
	found := false
	s.Mutate(func() {
		for i := range s.items {
			if s.items[i].ID == id {
				if s.items[i].IsRead {
					// Already read, nothing to flip.
					found = true
					return
				}
				prevReadAt = s.items[i].ReadAt
				now := time.Now()
				s.items[i].IsRead = true
				s.items[i].ReadAt = &now
				found = true
				return
			}
		}
	})
	if !found {
		return ErrUnknownNotification
	}

	token := s.Begin()
	_, err := s.gw.Send(ctx, http.MethodPatch, "/notifications/"+id.String()+"/read", nil)
	s.Settle(token, err, nil)

	if err != nil {
		// Roll the optimistic flip back so state matches the server.
		s.Mutate(func() {
			for i := range s.items {
				if s.items[i].ID == id {
					s.items[i].IsRead = false
					s.items[i].ReadAt = prevReadAt
					return
				}
			}
		})
		return err
	}
	return nil
}

// MarkAllRead flips every cached notification after the backend
// confirms.
func (s *Store) MarkAllRead(ctx context.Context) error {
	token := s.Begin()

	_, err := s.gw.Send(ctx, http.MethodPatch, "/notifications/read-all", nil)
	if err != nil {
		s.Settle(token, err, nil)
		return err
	}

	s.Settle(token, nil, func() {
		now := time.Now()
		for i := range s.items {
			if !s.items[i].IsRead {
				s.items[i].IsRead = true
				s.items[i].ReadAt = &now
			}
		}
	})
	return nil
}

// Delete removes a notification. The cached entry goes away only
// after the backend confirms.
func (s *Store) Delete(ctx context.Context, id store.ID) error {
	token := s.Begin()

	_, err := s.gw.Send(ctx, http.MethodDelete, "/notifications/"+id.String(), nil)
	if err != nil {
		s.Settle(token, err, nil)
		return err
	}

	s.Settle(token, nil, func() {
		for i := range s.items {
			if s.items[i].ID == id {
				s.items = append(s.items[:i], s.items[i+1:]...)
				break
			}
		}
	})
	return nil
}

// Apply ingests a notification delivered out-of-band by the realtime
// channel, prepending it unless the id is already cached.
func (s *Store) Apply(n Notification) {
	s.Mutate(func() {
		for i := range s.items {
			if s.items[i].ID == n.ID {
				s.items[i] = n
				return
			}
		}
		s.items = append([]Notification{n}, s.items...)
	})
}
