// Package catalog is the store for the service taxonomy: categories
// and the types beneath them. Reads are public; mutations go through
// the admin endpoints.
package catalog

import (
	"context"
	"io"
	"net/http"

	"github.com/cleanhub/cleanhub-go/gateway"
	"github.com/cleanhub/cleanhub-go/internal/pkg/imageprep"
	"github.com/cleanhub/cleanhub-go/internal/pkg/validator"
	"github.com/cleanhub/cleanhub-go/store"
)

// Store caches categories and types together; they share one loading
// flag per the single-flag-per-store convention.
type Store struct {
	store.Cell

	gw   *gateway.Gateway
	imgs *imageprep.Processor

	categories []Category
	types      []Type
}

// NewStore creates an empty catalog store.
func NewStore(gw *gateway.Gateway) *Store {
	return &Store{
		gw:   gw,
		imgs: imageprep.NewProcessor(imageprep.DefaultConfig()),
	}
}

// Categories returns a copy of the cached categories.
func (s *Store) Categories() []Category {
	var items []Category
	s.Read(func() {
		items = append([]Category(nil), s.categories...)
	})
	return items
}

// Types returns a copy of the cached types.
func (s *Store) Types() []Type {
	var items []Type
	s.Read(func() {
		items = append([]Type(nil), s.types...)
	})
	return items
}

// TypesFor returns cached types belonging to a category.
func (s *Store) TypesFor(categoryID store.ID) []Type {
	var items []Type
	s.Read(func() {
		for _, t := range s.types {
			if t.CategoryID == categoryID {
				items = append(items, t)
			}
		}
	})
	return items
}

// Clear drops the cached taxonomy.
func (s *Store) Clear() {
	s.Mutate(func() {
		s.categories = nil
		s.types = nil
	})
}

// FetchCategories loads the category list.
func (s *Store) FetchCategories(ctx context.Context) ([]Category, error) {
	token := s.Begin()

	payload, err := s.gw.Send(ctx, http.MethodGet, "/categories", nil)
	if err != nil {
		s.Settle(token, err, nil)
		return nil, err
	}

	var list []Category
	if decodeErr := payload.Decode(&list); decodeErr != nil {
		err = &gateway.Error{Kind: gateway.KindTransport, Message: "decode category list", Err: decodeErr}
		s.Settle(token, err, nil)
		return nil, err
	}

	s.Settle(token, nil, func() {
		s.categories = list
	})
	return list, nil
}

// FetchTypes loads the type list.
func (s *Store) FetchTypes(ctx context.Context) ([]Type, error) {
	token := s.Begin()

	payload, err := s.gw.Send(ctx, http.MethodGet, "/types", nil)
	if err != nil {
		s.Settle(token, err, nil)
		return nil, err
	}

	var list []Type
	if decodeErr := payload.Decode(&list); decodeErr != nil {
		err = &gateway.Error{Kind: gateway.KindTransport, Message: "decode type list", Err: decodeErr}
		s.Settle(token, err, nil)
		return nil, err
	}

	s.Settle(token, nil, func() {
		s.types = list
	})
	return list, nil
}

// CreateCategory adds a category via the admin endpoint and appends
// it locally. An image attachment switches the request to multipart.
func (s *Store) CreateCategory(ctx context.Context, req CategoryRequest, image io.Reader, imageName string) (*Category, error) {
	if fields := validator.Validate(req); fields != nil {
		err := gateway.NewValidationError(fields)
		s.Fail(err)
		return nil, err
	}

	token := s.Begin()
	payload, err := s.send(ctx, http.MethodPost, "/admin/categories", req.formFields(), req, image, imageName)
	if err != nil {
		s.Settle(token, err, nil)
		return nil, err
	}

	var category Category
	if decodeErr := payload.Decode(&category); decodeErr != nil {
		err = &gateway.Error{Kind: gateway.KindTransport, Message: "decode created category", Err: decodeErr}
		s.Settle(token, err, nil)
		return nil, err
	}

	s.Settle(token, nil, func() {
		s.categories = append(s.categories, category)
	})
	return &category, nil
}

// UpdateCategory updates a category addressed by slug and patches the
// cached entry.
func (s *Store) UpdateCategory(ctx context.Context, slug string, req CategoryRequest, image io.Reader, imageName string) (*Category, error) {
	if fields := validator.Validate(req); fields != nil {
		err := gateway.NewValidationError(fields)
		s.Fail(err)
		return nil, err
	}

	token := s.Begin()
	payload, err := s.send(ctx, http.MethodPut, "/admin/categories/"+slug, req.formFields(), req, image, imageName)
	if err != nil {
		s.Settle(token, err, nil)
		return nil, err
	}

	var category Category
	if decodeErr := payload.Decode(&category); decodeErr != nil {
		err = &gateway.Error{Kind: gateway.KindTransport, Message: "decode updated category", Err: decodeErr}
		s.Settle(token, err, nil)
		return nil, err
	}

	s.Settle(token, nil, func() {
		for i := range s.categories {
			if s.categories[i].ID == category.ID {
				s.categories[i] = category
				break
			}
		}
	})
	return &category, nil
}

// DeleteCategory removes a category addressed by slug.
func (s *Store) DeleteCategory(ctx context.Context, slug string) error {
	token := s.Begin()

	_, err := s.gw.Send(ctx, http.MethodDelete, "/admin/categories/"+slug, nil)
	if err != nil {
		s.Settle(token, err, nil)
		return err
	}

	s.Settle(token, nil, func() {
		for i := range s.categories {
			if s.categories[i].Slug == slug {
				s.categories = append(s.categories[:i], s.categories[i+1:]...)
				break
			}
		}
	})
	return nil
}

// CreateType adds a service type via the admin endpoint.
func (s *Store) CreateType(ctx context.Context, req TypeRequest, image io.Reader, imageName string) (*Type, error) {
	if fields := validator.Validate(req); fields != nil {
		err := gateway.NewValidationError(fields)
		s.Fail(err)
		return nil, err
	}

	token := s.Begin()
	payload, err := s.send(ctx, http.MethodPost, "/admin/types", req.formFields(), req, image, imageName)
	if err != nil {
		s.Settle(token, err, nil)
		return nil, err
	}

	var typ Type
	if decodeErr := payload.Decode(&typ); decodeErr != nil {
		err = &gateway.Error{Kind: gateway.KindTransport, Message: "decode created type", Err: decodeErr}
		s.Settle(token, err, nil)
		return nil, err
	}

	s.Settle(token, nil, func() {
		s.types = append(s.types, typ)
	})
	return &typ, nil
}

// DeleteType removes a service type.
func (s *Store) DeleteType(ctx context.Context, id store.ID) error {
	token := s.Begin()

	_, err := s.gw.Send(ctx, http.MethodDelete, "/admin/types/"+id.String(), nil)
	if err != nil {
		s.Settle(token, err, nil)
		return err
	}

	s.Settle(token, nil, func() {
		for i := range s.types {
			if s.types[i].ID == id {
				s.types = append(s.types[:i], s.types[i+1:]...)
				break
			}
		}
	})
	return nil
}

func (s *Store) send(ctx context.Context, method, path string, formFields map[string]string, jsonBody interface{}, image io.Reader, imageName string) (*gateway.Payload, error) {
	if image == nil {
		return s.gw.Send(ctx, method, path, jsonBody)
	}

	file, err := s.imgs.Prepare(image, "image", imageName)
	if err != nil {
		return nil, gateway.NewValidationError(map[string]string{"image": err.Error()})
	}

	form := gateway.NewForm().AddFile(file)
	for k, v := range formFields {
		form.Set(k, v)
	}
	return s.gw.SendForm(ctx, method, path, form)
}
