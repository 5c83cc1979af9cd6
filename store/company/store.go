// Package company is the store for the singleton-per-owner company
// info record.
package company

import (
	"context"
	"io"
	"net/http"

	"github.com/cleanhub/cleanhub-go/gateway"
	"github.com/cleanhub/cleanhub-go/internal/pkg/imageprep"
	"github.com/cleanhub/cleanhub-go/internal/pkg/validator"
	"github.com/cleanhub/cleanhub-go/store"
)

// Info is an owner's business metadata.
type Info struct {
	ID          store.ID `json:"id"`
	OwnerID     store.ID `json:"owner_id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Address     string   `json:"address"`
	Phone       string   `json:"phone"`
	Email       string   `json:"email"`
	Logo        string   `json:"logo"`
}

// UpdateRequest upserts the company record.
type UpdateRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=200"`
	Description string `json:"description" validate:"omitempty,max=5000"`
	Address     string `json:"address" validate:"omitempty,max=500"`
	Phone       string `json:"phone" validate:"omitempty,min=5,max=20"`
	Email       string `json:"email" validate:"omitempty,email"`
}

func (r UpdateRequest) formFields() map[string]string {
	fields := map[string]string{"name": r.Name}
	if r.Description != "" {
		fields["description"] = r.Description
	}
	if r.Address != "" {
		fields["address"] = r.Address
	}
	if r.Phone != "" {
		fields["phone"] = r.Phone
	}
	if r.Email != "" {
		fields["email"] = r.Email
	}
	return fields
}

// Store caches one owner's company record.
type Store struct {
	store.Cell

	gw   *gateway.Gateway
	imgs *imageprep.Processor

	info *Info
}

// NewStore creates an empty company store.
func NewStore(gw *gateway.Gateway) *Store {
	return &Store{
		gw:   gw,
		imgs: imageprep.NewProcessor(imageprep.DefaultConfig()),
	}
}

// Info returns a copy of the cached record, or nil before the first
// successful fetch.
func (s *Store) Info() *Info {
	var info *Info
	s.Read(func() {
		if s.info != nil {
			i := *s.info
			info = &i
		}
	})
	return info
}

// Clear drops the cached record.
func (s *Store) Clear() {
	s.Mutate(func() {
		s.info = nil
	})
}

// Fetch loads an owner's company record.
func (s *Store) Fetch(ctx context.Context, ownerID store.ID) (*Info, error) {
	token := s.Begin()

	payload, err := s.gw.Send(ctx, http.MethodGet, "/owner/"+ownerID.String()+"/company", nil)
	if err != nil {
		s.Settle(token, err, nil)
		return nil, err
	}

	var info Info
	if decodeErr := payload.Decode(&info); decodeErr != nil {
		err = &gateway.Error{Kind: gateway.KindTransport, Message: "decode company info", Err: decodeErr}
		s.Settle(token, err, nil)
		return nil, err
	}

	s.Settle(token, nil, func() {
		s.info = &info
	})
	return &info, nil
}

// Update upserts the company record. A logo attachment switches the
// request to multipart with the method-override shim.
func (s *Store) Update(ctx context.Context, ownerID store.ID, req UpdateRequest, logo io.Reader, logoName string) (*Info, error) {
	if fields := validator.Validate(req); fields != nil {
		err := gateway.NewValidationError(fields)
		s.Fail(err)
		return nil, err
	}

	path := "/owner/" + ownerID.String() + "/company"

	var payload *gateway.Payload
	var err error

	token := s.Begin()
	if logo != nil {
		file, prepErr := s.imgs.Prepare(logo, "logo", logoName)
		if prepErr != nil {
			err = gateway.NewValidationError(map[string]string{"logo": prepErr.Error()})
			s.Settle(token, err, nil)
			return nil, err
		}
		form := gateway.NewForm().AddFile(file)
		for k, v := range req.formFields() {
			form.Set(k, v)
		}
		payload, err = s.gw.SendForm(ctx, http.MethodPut, path, form)
	} else {
		payload, err = s.gw.Send(ctx, http.MethodPut, path, req)
	}
	if err != nil {
		s.Settle(token, err, nil)
		return nil, err
	}

	var info Info
	if decodeErr := payload.Decode(&info); decodeErr != nil {
		err = &gateway.Error{Kind: gateway.KindTransport, Message: "decode company info", Err: decodeErr}
		s.Settle(token, err, nil)
		return nil, err
	}

	s.Settle(token, nil, func() {
		s.info = &info
	})
	return &info, nil
}
