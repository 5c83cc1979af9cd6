// Package blogs is the store for the marketing blog posts admins
// publish.
package blogs

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/cleanhub/cleanhub-go/gateway"
	"github.com/cleanhub/cleanhub-go/internal/pkg/imageprep"
	"github.com/cleanhub/cleanhub-go/internal/pkg/validator"
	"github.com/cleanhub/cleanhub-go/store"
)

// Blog is a published post. Content is backend-sanitized rich text;
// the client treats it as an opaque string.
type Blog struct {
	ID        store.ID   `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Image     string     `json:"image"`
	Author    string     `json:"author"`
	Date      string     `json:"date"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// Request creates or updates a blog post.
type Request struct {
	Title   string `json:"title" validate:"required,min=2,max=300"`
	Content string `json:"content" validate:"required"`
	Author  string `json:"author" validate:"omitempty,max=200"`
}

func (r Request) formFields() map[string]string {
	fields := map[string]string{
		"title":   r.Title,
		"content": r.Content,
	}
	if r.Author != "" {
		fields["author"] = r.Author
	}
	return fields
}

// Store caches the last fetched blog collection.
type Store struct {
	store.Cell

	gw   *gateway.Gateway
	imgs *imageprep.Processor

	items    []Blog
	selected *Blog
}

// NewStore creates an empty blogs store.
func NewStore(gw *gateway.Gateway) *Store {
	return &Store{
		gw:   gw,
		imgs: imageprep.NewProcessor(imageprep.DefaultConfig()),
	}
}

// Items returns a copy of the cached collection.
func (s *Store) Items() []Blog {
	var items []Blog
	s.Read(func() {
		items = append([]Blog(nil), s.items...)
	})
	return items
}

// Selected returns a copy of the last fetched single post.
func (s *Store) Selected() *Blog {
	var selected *Blog
	s.Read(func() {
		if s.selected != nil {
			b := *s.selected
			selected = &b
		}
	})
	return selected
}

// Clear drops all cached posts.
func (s *Store) Clear() {
	s.Mutate(func() {
		s.items = nil
		s.selected = nil
	})
}

// FetchAll loads the blog list.
func (s *Store) FetchAll(ctx context.Context) ([]Blog, error) {
	token := s.Begin()

	payload, err := s.gw.Send(ctx, http.MethodGet, "/blogs", nil)
	if err != nil {
		s.Settle(token, err, nil)
		return nil, err
	}

	var list []Blog
	if decodeErr := payload.Decode(&list); decodeErr != nil {
		err = &gateway.Error{Kind: gateway.KindTransport, Message: "decode blog list", Err: decodeErr}
		s.Settle(token, err, nil)
		return nil, err
	}

	s.Settle(token, nil, func() {
		s.items = list
	})
	return list, nil
}

// FetchOne loads a single post into Selected.
func (s *Store) FetchOne(ctx context.Context, id store.ID) (*Blog, error) {
	token := s.Begin()

	payload, err := s.gw.Send(ctx, http.MethodGet, "/blogs/"+id.String(), nil)
	if err != nil {
		s.Settle(token, err, nil)
		return nil, err
	}

	var blog Blog
	if decodeErr := payload.Decode(&blog); decodeErr != nil {
		err = &gateway.Error{Kind: gateway.KindTransport, Message: "decode blog", Err: decodeErr}
		s.Settle(token, err, nil)
		return nil, err
	}

	s.Settle(token, nil, func() {
		s.selected = &blog
	})
	return &blog, nil
}

// Create publishes a post via the admin endpoint and appends it
// locally. A cover image switches the request to multipart.
func (s *Store) Create(ctx context.Context, req Request, image io.Reader, imageName string) (*Blog, error) {
	if fields := validator.Validate(req); fields != nil {
		err := gateway.NewValidationError(fields)
		s.Fail(err)
		return nil, err
	}

	token := s.Begin()
	payload, err := s.send(ctx, http.MethodPost, "/admin/blogs", req, image, imageName)
	if err != nil {
		s.Settle(token, err, nil)
		return nil, err
	}

	var blog Blog
	if decodeErr := payload.Decode(&blog); decodeErr != nil {
		err = &gateway.Error{Kind: gateway.KindTransport, Message: "decode created blog", Err: decodeErr}
		s.Settle(token, err, nil)
		return nil, err
	}

	s.Settle(token, nil, func() {
		s.items = append(s.items, blog)
	})
	return &blog, nil
}

// Update edits a post and patches the cached entry.
func (s *Store) Update(ctx context.Context, id store.ID, req Request, image io.Reader, imageName string) (*Blog, error) {
	if fields := validator.Validate(req); fields != nil {
		err := gateway.NewValidationError(fields)
		s.Fail(err)
		return nil, err
	}

	token := s.Begin()
	payload, err := s.send(ctx, http.MethodPut, "/admin/blogs/"+id.String(), req, image, imageName)
	if err != nil {
		s.Settle(token, err, nil)
		return nil, err
	}

	var blog Blog
	if decodeErr := payload.Decode(&blog); decodeErr != nil {
		err = &gateway.Error{Kind: gateway.KindTransport, Message: "decode updated blog", Err: decodeErr}
		s.Settle(token, err, nil)
		return nil, err
	}

	s.Settle(token, nil, func() {
		for i := range s.items {
			if s.items[i].ID == blog.ID {
				s.items[i] = blog
				break
			}
		}
		if s.selected != nil && s.selected.ID == blog.ID {
			s.selected = &blog
		}
	})
	return &blog, nil
}

// Delete removes a post. The cached entry goes away only after the
// backend confirms.
func (s *Store) Delete(ctx context.Context, id store.ID) error {
	token := s.Begin()

	_, err := s.gw.Send(ctx, http.MethodDelete, "/admin/blogs/"+id.String(), nil)
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

func (s *Store) send(ctx context.Context, method, path string, req Request, image io.Reader, imageName string) (*gateway.Payload, error) {
	if image == nil {
		return s.gw.Send(ctx, method, path, req)
	}

	file, err := s.imgs.Prepare(image, "image", imageName)
	if err != nil {
		return nil, gateway.NewValidationError(map[string]string{"image": err.Error()})
	}

	form := gateway.NewForm().AddFile(file)
	for k, v := range req.formFields() {
		form.Set(k, v)
	}
	return s.gw.SendForm(ctx, method, path, form)
}
