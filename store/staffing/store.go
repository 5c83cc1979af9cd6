// Package staffing is the store for staff assignments: the link
// records between an owner's bookings and the staff who work them.
package staffing

import (
	"context"
	"net/http"
	"time"

	"github.com/cleanhub/cleanhub-go/gateway"
	"github.com/cleanhub/cleanhub-go/internal/pkg/validator"
	"github.com/cleanhub/cleanhub-go/store"
)

// Assignment links a booking to a staff member under an owner.
type Assignment struct {
	ID        store.ID   `json:"id"`
	BookingID store.ID   `json:"booking_id"`
	StaffID   store.ID   `json:"staff_id"`
	StaffName string     `json:"staff_name,omitempty"` // joined server-side
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// AssignRequest assigns a staff member to a booking.
type AssignRequest struct {
	BookingID string `json:"booking_id" validate:"required"`
	StaffID   string `json:"staff_id" validate:"required"`
}

// Store caches the last fetched assignment collection for one owner.
type Store struct {
	store.Cell

	gw *gateway.Gateway

	items []Assignment
}

// NewStore creates an empty staffing store.
func NewStore(gw *gateway.Gateway) *Store {
	return &Store{gw: gw}
}

// Items returns a copy of the cached collection.
func (s *Store) Items() []Assignment {
	var items []Assignment
	s.Read(func() {
		items = append([]Assignment(nil), s.items...)
	})
	return items
}

// ForBooking returns cached assignments for a booking.
func (s *Store) ForBooking(bookingID store.ID) []Assignment {
	var items []Assignment
	s.Read(func() {
		for _, a := range s.items {
			if a.BookingID == bookingID {
				items = append(items, a)
			}
		}
	})
	return items
}

// Clear drops all cached assignments.
func (s *Store) Clear() {
	s.Mutate(func() {
		s.items = nil
	})
}

// FetchAll loads an owner's assignments.
func (s *Store) FetchAll(ctx context.Context, ownerID store.ID) ([]Assignment, error) {
	token := s.Begin()

	payload, err := s.gw.Send(ctx, http.MethodGet, "/owner/"+ownerID.String()+"/assignments", nil)
	if err != nil {
		s.Settle(token, err, nil)
		return nil, err
	}

	var list []Assignment
	if decodeErr := payload.Decode(&list); decodeErr != nil {
		err = &gateway.Error{Kind: gateway.KindTransport, Message: "decode assignment list", Err: decodeErr}
		s.Settle(token, err, nil)
		return nil, err
	}

	s.Settle(token, nil, func() {
		s.items = list
	})
	return list, nil
}

// Assign links a staff member to a booking and appends the created
// assignment locally.
func (s *Store) Assign(ctx context.Context, ownerID store.ID, req AssignRequest) (*Assignment, error) {
	if fields := validator.Validate(req); fields != nil {
		err := gateway.NewValidationError(fields)
		s.Fail(err)
		return nil, err
	}

	token := s.Begin()
	payload, err := s.gw.Send(ctx, http.MethodPost, "/owner/"+ownerID.String()+"/assignments", req)
	if err != nil {
		s.Settle(token, err, nil)
		return nil, err
	}

	var assignment Assignment
	if decodeErr := payload.Decode(&assignment); decodeErr != nil {
		err = &gateway.Error{Kind: gateway.KindTransport, Message: "decode created assignment", Err: decodeErr}
		s.Settle(token, err, nil)
		return nil, err
	}

	s.Settle(token, nil, func() {
		s.items = append(s.items, assignment)
	})
	return &assignment, nil
}

// Unassign removes an assignment. The cached entry goes away only
// after the backend confirms.
func (s *Store) Unassign(ctx context.Context, ownerID, assignmentID store.ID) error {
	token := s.Begin()

	_, err := s.gw.Send(ctx, http.MethodDelete, "/owner/"+ownerID.String()+"/assignments/"+assignmentID.String(), nil)
	if err != nil {
		s.Settle(token, err, nil)
		return err
	}

	s.Settle(token, nil, func() {
		for i := range s.items {
			if s.items[i].ID == assignmentID {
				s.items = append(s.items[:i], s.items[i+1:]...)
				break
			}
		}
	})
	return nil
}
