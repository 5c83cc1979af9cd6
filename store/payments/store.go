// Package payments is the store for payment records tied to bookings.
package payments

import (
	"context"
	"net/http"
	"time"

	"github.com/cleanhub/cleanhub-go/gateway"
	"github.com/cleanhub/cleanhub-go/internal/pkg/validator"
	"github.com/cleanhub/cleanhub-go/store"
)

// Payment represents a payment for a booking.
type Payment struct {
	ID        store.ID   `json:"id"`
	BookingID store.ID   `json:"booking_id"`
	Amount    float64    `json:"amount"`
	Date      string     `json:"date"`
	Status    string     `json:"status"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// CreateRequest records a payment for a booking.
type CreateRequest struct {
	BookingID string  `json:"booking_id" validate:"required"`
	Amount    float64 `json:"amount" validate:"required,gte=0"`
	Method    string  `json:"method,omitempty" validate:"omitempty,max=50"`
}

// Store caches the last fetched payment collection.
type Store struct {
	store.Cell

	gw *gateway.Gateway

	items    []Payment
	selected *Payment
}

// NewStore creates an empty payments store.
func NewStore(gw *gateway.Gateway) *Store {
	return &Store{gw: gw}
}

// Items returns a copy of the cached collection.
func (s *Store) Items() []Payment {
	var items []Payment
	s.Read(func() {
		items = append([]Payment(nil), s.items...)
	})
	return items
}

// Selected returns a copy of the last fetched single payment.
func (s *Store) Selected() *Payment {
	var selected *Payment
	s.Read(func() {
		if s.selected != nil {
			p := *s.selected
			selected = &p
		}
	})
	return selected
}

// Clear drops all cached payments.
func (s *Store) Clear() {
	s.Mutate(func() {
		s.items = nil
		s.selected = nil
	})
}

// FetchAll loads the payment list, owner-scoped when ownerID is set.
func (s *Store) FetchAll(ctx context.Context, ownerID store.ID) ([]Payment, error) {
	path := "/payments"
	if !ownerID.IsZero() {
		path = "/owner/" + ownerID.String() + "/payments"
	}

	token := s.Begin()
	payload, err := s.gw.Send(ctx, http.MethodGet, path, nil)
	if err != nil {
		s.Settle(token, err, nil)
		return nil, err
	}

	var list []Payment
	if decodeErr := payload.Decode(&list); decodeErr != nil {
		err = &gateway.Error{Kind: gateway.KindTransport, Message: "decode payment list", Err: decodeErr}
		s.Settle(token, err, nil)
		return nil, err
	}

	s.Settle(token, nil, func() {
		s.items = list
	})
	return list, nil
}

// FetchOne loads a single payment into Selected.
func (s *Store) FetchOne(ctx context.Context, id store.ID) (*Payment, error) {
	token := s.Begin()

	payload, err := s.gw.Send(ctx, http.MethodGet, "/payments/"+id.String(), nil)
	if err != nil {
		s.Settle(token, err, nil)
		return nil, err
	}

	var payment Payment
	if decodeErr := payload.Decode(&payment); decodeErr != nil {
		err = &gateway.Error{Kind: gateway.KindTransport, Message: "decode payment", Err: decodeErr}
		s.Settle(token, err, nil)
		return nil, err
	}

	s.Settle(token, nil, func() {
		s.selected = &payment
	})
	return &payment, nil
}

// Create records a payment and appends it to the collection.
func (s *Store) Create(ctx context.Context, req CreateRequest) (*Payment, error) {
	if fields := validator.Validate(req); fields != nil {
		err := gateway.NewValidationError(fields)
		s.Fail(err)
		return nil, err
	}

	token := s.Begin()
	payload, err := s.gw.Send(ctx, http.MethodPost, "/payments", req)
	if err != nil {
		s.Settle(token, err, nil)
		return nil, err
	}

	var payment Payment
	if decodeErr := payload.Decode(&payment); decodeErr != nil {
		err = &gateway.Error{Kind: gateway.KindTransport, Message: "decode created payment", Err: decodeErr}
		s.Settle(token, err, nil)
		return nil, err
	}

	s.Settle(token, nil, func() {
		s.items = append(s.items, payment)
	})
	return &payment, nil
}
