// Package users is the store for user entities: the customer's own
// profile plus owner-scoped staff lists.
package users

import (
	"context"
	"io"
	"net/http"

	"github.com/cleanhub/cleanhub-go/gateway"
	"github.com/cleanhub/cleanhub-go/internal/pkg/imageprep"
	"github.com/cleanhub/cleanhub-go/internal/pkg/validator"
	"github.com/cleanhub/cleanhub-go/store"
)

// Store caches the last fetched user collection.
type Store struct {
	store.Cell

	gw   *gateway.Gateway
	imgs *imageprep.Processor

	items    []User
	count    int
	selected *User
}

// NewStore creates an empty users store.
func NewStore(gw *gateway.Gateway) *Store {
	return &Store{
		gw:   gw,
		imgs: imageprep.NewProcessor(imageprep.DefaultConfig()),
	}
}

// Items returns a copy of the cached collection.
func (s *Store) Items() []User {
	var items []User
	s.Read(func() {
		items = append([]User(nil), s.items...)
	})
	return items
}

// Count returns the server-reported total from the last staff fetch.
func (s *Store) Count() int {
	var count int
	s.Read(func() { count = s.count })
	return count
}

// Selected returns a copy of the last fetched single user.
func (s *Store) Selected() *User {
	var selected *User
	s.Read(func() {
		if s.selected != nil {
			u := *s.selected
			selected = &u
		}
	})
	return selected
}

// Get looks up a cached user by id.
func (s *Store) Get(id store.ID) (User, bool) {
	var user User
	var ok bool
	s.Read(func() {
		for _, u := range s.items {
			if u.ID == id {
				user = u
				ok = true
				return
			}
		}
	})
	return user, ok
}

// Clear drops all cached users.
func (s *Store) Clear() {
	s.Mutate(func() {
		s.items = nil
		s.count = 0
		s.selected = nil
	})
}

// FetchStaff loads the owner-scoped staff list. The endpoint answers
// with the bespoke {"users", "count"} envelope. On success the
// collection is replaced wholesale; on failure stale items stay put.
func (s *Store) FetchStaff(ctx context.Context, ownerID store.ID) ([]User, error) {
	token := s.Begin()

	payload, err := s.gw.Send(ctx, http.MethodGet, "/owner/"+ownerID.String()+"/users", nil)
	if err != nil {
		s.Settle(token, err, nil)
		return nil, err
	}

	var env listEnvelope
	if decodeErr := payload.Decode(&env); decodeErr != nil {
		err = &gateway.Error{Kind: gateway.KindTransport, Message: "decode staff list", Err: decodeErr}
		s.Settle(token, err, nil)
		return nil, err
	}

	s.Settle(token, nil, func() {
		s.items = env.Users
		s.count = env.Count
	})
	return env.Users, nil
}

// FetchOne loads a single user into Selected.
func (s *Store) FetchOne(ctx context.Context, id store.ID) (*User, error) {
	token := s.Begin()

	payload, err := s.gw.Send(ctx, http.MethodGet, "/users/"+id.String(), nil)
	if err != nil {
		s.Settle(token, err, nil)
		return nil, err
	}

	var user User
	if decodeErr := payload.Decode(&user); decodeErr != nil {
		err = &gateway.Error{Kind: gateway.KindTransport, Message: "decode user", Err: decodeErr}
		s.Settle(token, err, nil)
		return nil, err
	}

	s.Settle(token, nil, func() {
		s.selected = &user
	})
	return &user, nil
}

// CreateStaff adds a staff member under an owner and appends the
// created user to the collection.
func (s *Store) CreateStaff(ctx context.Context, ownerID store.ID, req CreateStaffRequest) (*User, error) {
	if fields := validator.Validate(req); fields != nil {
		err := gateway.NewValidationError(fields)
		s.Fail(err)
		return nil, err
	}

	token := s.Begin()
	payload, err := s.gw.Send(ctx, http.MethodPost, "/owner/"+ownerID.String()+"/users", req)
	if err != nil {
		s.Settle(token, err, nil)
		return nil, err
	}

	var user User
	if decodeErr := payload.Decode(&user); decodeErr != nil {
		err = &gateway.Error{Kind: gateway.KindTransport, Message: "decode created staff", Err: decodeErr}
		s.Settle(token, err, nil)
		return nil, err
	}

	s.Settle(token, nil, func() {
		s.items = append(s.items, user)
		s.count++
	})
	return &user, nil
}

// UpdateProfile updates a user's profile. When an avatar is supplied
// the request goes out multipart with the method-override shim; the
// image is downsized client-side first. The matching cached entry is
// replaced on success.
func (s *Store) UpdateProfile(ctx context.Context, id store.ID, req UpdateProfileRequest, avatar io.Reader, avatarName string) (*User, error) {
	if fields := validator.Validate(req); fields != nil {
		err := gateway.NewValidationError(fields)
		s.Fail(err)
		return nil, err
	}

	var payload *gateway.Payload
	var err error

	token := s.Begin()
	if avatar != nil {
		file, prepErr := s.imgs.Prepare(avatar, "image", avatarName)
		if prepErr != nil {
			err = gateway.NewValidationError(map[string]string{"image": prepErr.Error()})
			s.Settle(token, err, nil)
			return nil, err
		}
		form := gateway.NewForm().AddFile(file)
		for k, v := range req.formFields() {
			form.Set(k, v)
		}
		payload, err = s.gw.SendForm(ctx, http.MethodPut, "/users/"+id.String(), form)
	} else {
		payload, err = s.gw.Send(ctx, http.MethodPut, "/users/"+id.String(), req)
	}
	if err != nil {
		s.Settle(token, err, nil)
		return nil, err
	}

	var user User
	if decodeErr := payload.Decode(&user); decodeErr != nil {
		err = &gateway.Error{Kind: gateway.KindTransport, Message: "decode updated user", Err: decodeErr}
		s.Settle(token, err, nil)
		return nil, err
	}

	s.Settle(token, nil, func() {
		for i := range s.items {
			if s.items[i].ID == user.ID {
				s.items[i] = user
				break
			}
		}
		if s.selected != nil && s.selected.ID == user.ID {
			s.selected = &user
		}
	})
	return &user, nil
}

// DeleteStaff removes a staff member. The cached entry goes away only
// after the backend confirms.
func (s *Store) DeleteStaff(ctx context.Context, ownerID, userID store.ID) error {
	token := s.Begin()

	_, err := s.gw.Send(ctx, http.MethodDelete, "/owner/"+ownerID.String()+"/users/"+userID.String(), nil)
	if err != nil {
		s.Settle(token, err, nil)
		return err
	}

	s.Settle(token, nil, func() {
		for i := range s.items {
			if s.items[i].ID == userID {
				s.items = append(s.items[:i], s.items[i+1:]...)
				s.count--
				break
			}
		}
	})
	return nil
}
