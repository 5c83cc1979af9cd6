// Package services is the store for the service catalog an owner
// offers and customers browse.
package services

import (
	"context"
	"io"
	"net/http"

	"github.com/cleanhub/cleanhub-go/gateway"
	"github.com/cleanhub/cleanhub-go/internal/pkg/imageprep"
	"github.com/cleanhub/cleanhub-go/internal/pkg/validator"
	"github.com/cleanhub/cleanhub-go/store"
)

// Image is a raw image attachment for create/update calls. The store
// downsizes it client-side before upload.
type Image struct {
	Reader io.Reader
	Name   string
}

// Store caches the last fetched service collection.
type Store struct {
	store.Cell

	gw   *gateway.Gateway
	imgs *imageprep.Processor

	items    []Service
	selected *Service
}

// NewStore creates an empty services store.
func NewStore(gw *gateway.Gateway) *Store {
	return &Store{
		gw:   gw,
		imgs: imageprep.NewProcessor(imageprep.DefaultConfig()),
	}
}

// Items returns a copy of the cached collection.
func (s *Store) Items() []Service {
	var items []Service
	s.Read(func() {
		items = append([]Service(nil), s.items...)
	})
	return items
}

// Selected returns a copy of the last fetched single service.
func (s *Store) Selected() *Service {
	var selected *Service
	s.Read(func() {
		if s.selected != nil {
			svc := *s.selected
			selected = &svc
		}
	})
	return selected
}

// Get looks up a cached service by id.
func (s *Store) Get(id store.ID) (Service, bool) {
	var svc Service
	var ok bool
	s.Read(func() {
		for _, item := range s.items {
			if item.ID == id {
				svc = item
				ok = true
				return
			}
		}
	})
	return svc, ok
}

// Clear drops all cached services.
func (s *Store) Clear() {
	s.Mutate(func() {
		s.items = nil
		s.selected = nil
	})
}

// FetchAll loads the public service list, owner-scoped when ownerID
// is set. On success the collection is replaced wholesale; on failure
// stale items stay put so the caller is never blanked.
func (s *Store) FetchAll(ctx context.Context, ownerID store.ID) ([]Service, error) {
	path := "/services"
	if !ownerID.IsZero() {
		path = "/owner/" + ownerID.String() + "/services"
	}

	token := s.Begin()
	payload, err := s.gw.Send(ctx, http.MethodGet, path, nil)
	if err != nil {
		s.Settle(token, err, nil)
		return nil, err
	}

	var list []Service
	if decodeErr := payload.Decode(&list); decodeErr != nil {
		err = &gateway.Error{Kind: gateway.KindTransport, Message: "decode service list", Err: decodeErr}
		s.Settle(token, err, nil)
		return nil, err
	}

	s.Settle(token, nil, func() {
		s.items = list
	})
	return list, nil
}

// FetchOne loads a single service into Selected.
func (s *Store) FetchOne(ctx context.Context, ownerID, serviceID store.ID) (*Service, error) {
	token := s.Begin()

	payload, err := s.gw.Send(ctx, http.MethodGet, "/services/"+ownerID.String()+"/"+serviceID.String(), nil)
	if err != nil {
		s.Settle(token, err, nil)
		return nil, err
	}

	var svc Service
	if decodeErr := payload.Decode(&svc); decodeErr != nil {
		err = &gateway.Error{Kind: gateway.KindTransport, Message: "decode service", Err: decodeErr}
		s.Settle(token, err, nil)
		return nil, err
	}

	s.Settle(token, nil, func() {
		s.selected = &svc
	})
	return &svc, nil
}

// Create adds a service and appends it to the collection. Image
// attachments switch the request to multipart.
func (s *Store) Create(ctx context.Context, req CreateRequest, images ...Image) (*Service, error) {
	if fields := validator.Validate(req); fields != nil {
		err := gateway.NewValidationError(fields)
		s.Fail(err)
		return nil, err
	}

	token := s.Begin()
	payload, err := s.send(ctx, http.MethodPost, "/services", req.formFields(), req, images)
	if err != nil {
		s.Settle(token, err, nil)
		return nil, err
	}

	var svc Service
	if decodeErr := payload.Decode(&svc); decodeErr != nil {
		err = &gateway.Error{Kind: gateway.KindTransport, Message: "decode created service", Err: decodeErr}
		s.Settle(token, err, nil)
		return nil, err
	}

	s.Settle(token, nil, func() {
		s.items = append(s.items, svc)
	})
	return &svc, nil
}

// Update patches a service in place, then refetches the owner's list
// to pick up server-derived fields (joined category and type names)
// the client cannot compute.
func (s *Store) Update(ctx context.Context, ownerID, serviceID store.ID, req UpdateRequest, images ...Image) (*Service, error) {
	if fields := validator.Validate(req); fields != nil {
		err := gateway.NewValidationError(fields)
		s.Fail(err)
		return nil, err
	}

	path := "/services/" + ownerID.String() + "/" + serviceID.String()

	token := s.Begin()
	payload, err := s.send(ctx, http.MethodPut, path, req.formFields(), req, images)
	if err != nil {
		s.Settle(token, err, nil)
		return nil, err
	}

	var svc Service
	if decodeErr := payload.Decode(&svc); decodeErr != nil {
		err = &gateway.Error{Kind: gateway.KindTransport, Message: "decode updated service", Err: decodeErr}
		s.Settle(token, err, nil)
		return nil, err
	}

	s.Settle(token, nil, func() {
		for i := range s.items {
			if s.items[i].ID == svc.ID {
				s.items[i] = svc
				break
			}
		}
		if s.selected != nil && s.selected.ID == svc.ID {
			s.selected = &svc
		}
	})

	// Confirmatory refetch; a failure here is recorded by FetchAll
	// itself and does not fail the update.
	_, _ = s.FetchAll(ctx, ownerID)
	return &svc, nil
}

// Delete removes a service. The cached entry goes away only after the
// backend confirms.
func (s *Store) Delete(ctx context.Context, ownerID, serviceID store.ID) error {
	token := s.Begin()

	_, err := s.gw.Send(ctx, http.MethodDelete, "/services/"+ownerID.String()+"/"+serviceID.String(), nil)
	if err != nil {
		s.Settle(token, err, nil)
		return err
	}

	s.Settle(token, nil, func() {
		for i := range s.items {
			if s.items[i].ID == serviceID {
				s.items = append(s.items[:i], s.items[i+1:]...)
				break
			}
		}
	})
	return nil
}

// send picks JSON or multipart depending on attachments.
func (s *Store) send(ctx context.Context, method, path string, formFields map[string]string, jsonBody interface{}, images []Image) (*gateway.Payload, error) {
	if len(images) == 0 {
		return s.gw.Send(ctx, method, path, jsonBody)
	}

	form := gateway.NewForm()
	for k, v := range formFields {
		form.Set(k, v)
	}
	for _, img := range images {
		file, err := s.imgs.Prepare(img.Reader, "images[]", img.Name)
		if err != nil {
			return nil, gateway.NewValidationError(map[string]string{"images": err.Error()})
		}
		form.AddFile(file)
	}
	return s.gw.SendForm(ctx, method, path, form)
}
