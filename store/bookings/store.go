// Package bookings is the store for appointments, for both the
// customer view and the owner view, including the aggregate stats the
// list endpoints return alongside the bookings.
package bookings

import (
	"context"
	"net/http"

	"github.com/cleanhub/cleanhub-go/gateway"
	"github.com/cleanhub/cleanhub-go/internal/pkg/validator"
	"github.com/cleanhub/cleanhub-go/store"
)

// Store caches the last fetched booking collection and stats.
type Store struct {
	store.Cell

	gw *gateway.Gateway

	items    []Booking
	stats    Stats
	selected *Booking
}

// NewStore creates an empty bookings store.
func NewStore(gw *gateway.Gateway) *Store {
	return &Store{gw: gw}
}

// Items returns a copy of the cached collection.
func (s *Store) Items() []Booking {
	var items []Booking
	s.Read(func() {
		items = append([]Booking(nil), s.items...)
	})
	return items
}

// Stats returns the aggregate counters from the last fetch.
func (s *Store) Stats() Stats {
	var stats Stats
	s.Read(func() { stats = s.stats })
	return stats
}

// Selected returns a copy of the last fetched single booking.
func (s *Store) Selected() *Booking {
	var selected *Booking
	s.Read(func() {
		if s.selected != nil {
			b := *s.selected
			selected = &b
		}
	})
	return selected
}

// Get looks up a cached booking by id.
func (s *Store) Get(id store.ID) (Booking, bool) {
	var booking Booking
	var ok bool
	s.Read(func() {
		for _, b := range s.items {
			if b.ID == id {
				booking = b
				ok = true
				return
			}
		}
	})
	return booking, ok
}

// Clear drops all cached bookings and stats.
func (s *Store) Clear() {
	s.Mutate(func() {
		s.items = nil
		s.stats = Stats{}
		s.selected = nil
	})
}

// FetchAll loads the authenticated user's bookings.
func (s *Store) FetchAll(ctx context.Context) ([]Booking, error) {
	return s.fetchList(ctx, "/bookings")
}

// FetchForOwner loads all bookings across an owner's services.
func (s *Store) FetchForOwner(ctx context.Context, ownerID store.ID) ([]Booking, error) {
	return s.fetchList(ctx, "/owner/"+ownerID.String()+"/bookings")
}

// fetchList loads a booking list endpoint. Both endpoints answer with
// the bespoke {"bookings", "related_bookings_stats"} envelope. On
// success the collection and stats are replaced wholesale; on failure
// stale data stays put.
func (s *Store) fetchList(ctx context.Context, path string) ([]Booking, error) {
	token := s.Begin()

	payload, err := s.gw.Send(ctx, http.MethodGet, path, nil)
	if err != nil {
		s.Settle(token, err, nil)
		return nil, err
	}

	var env listEnvelope
	if decodeErr := payload.Decode(&env); decodeErr != nil {
		err = &gateway.Error{Kind: gateway.KindTransport, Message: "decode booking list", Err: decodeErr}
		s.Settle(token, err, nil)
		return nil, err
	}

	s.Settle(token, nil, func() {
		s.items = env.Bookings
		if env.Stats != nil {
			s.stats = *env.Stats
		}
	})
	return env.Bookings, nil
}

// FetchOne loads a single booking into Selected.
func (s *Store) FetchOne(ctx context.Context, id store.ID) (*Booking, error) {
	token := s.Begin()

	payload, err := s.gw.Send(ctx, http.MethodGet, "/bookings/"+id.String(), nil)
	if err != nil {
		s.Settle(token, err, nil)
		return nil, err
	}

	var booking Booking
	if decodeErr := payload.Decode(&booking); decodeErr != nil {
		err = &gateway.Error{Kind: gateway.KindTransport, Message: "decode booking", Err: decodeErr}
		s.Settle(token, err, nil)
		return nil, err
	}

	s.Settle(token, nil, func() {
		s.selected = &booking
	})
	return &booking, nil
}

// Create books a service and appends the new booking to the
// collection. The id comes from the backend; the client never
// fabricates one.
func (s *Store) Create(ctx context.Context, req CreateRequest) (*Booking, error) {
	if fields := validator.Validate(req); fields != nil {
		err := gateway.NewValidationError(fields)
		s.Fail(err)
		return nil, err
	}

	token := s.Begin()
	payload, err := s.gw.Send(ctx, http.MethodPost, "/bookings", req)
	if err != nil {
		s.Settle(token, err, nil)
		return nil, err
	}

	var booking Booking
	if decodeErr := payload.Decode(&booking); decodeErr != nil {
		err = &gateway.Error{Kind: gateway.KindTransport, Message: "decode created booking", Err: decodeErr}
		s.Settle(token, err, nil)
		return nil, err
	}

	s.Settle(token, nil, func() {
		s.items = append(s.items, booking)
		s.stats.Total++
	})
	return &booking, nil
}

// UpdateStatus sets a booking's status to a backend-defined value and
// patches the cached entry on success.
func (s *Store) UpdateStatus(ctx context.Context, id store.ID, status string) (*Booking, error) {
	token := s.Begin()

	payload, err := s.gw.Send(ctx, http.MethodPatch, "/bookings/"+id.String()+"/status", statusRequest{Status: status})
	if err != nil {
		s.Settle(token, err, nil)
		return nil, err
	}

	var booking Booking
	if decodeErr := payload.Decode(&booking); decodeErr != nil {
		err = &gateway.Error{Kind: gateway.KindTransport, Message: "decode updated booking", Err: decodeErr}
		s.Settle(token, err, nil)
		return nil, err
	}

	s.Settle(token, nil, func() {
		for i := range s.items {
			if s.items[i].ID == booking.ID {
				s.items[i] = booking
				break
			}
		}
		if s.selected != nil && s.selected.ID == booking.ID {
			s.selected = &booking
		}
	})
	return &booking, nil
}

// Cancel asks the backend to cancel a booking.
func (s *Store) Cancel(ctx context.Context, id store.ID) (*Booking, error) {
	return s.UpdateStatus(ctx, id, StatusCancelled)
}

// Delete removes a booking. The cached entry goes away only after the
// backend confirms.
func (s *Store) Delete(ctx context.Context, id store.ID) error {
	token := s.Begin()

	_, err := s.gw.Send(ctx, http.MethodDelete, "/bookings/"+id.String(), nil)
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
