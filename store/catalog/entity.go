package catalog

import "github.com/cleanhub/cleanhub-go/store"

// Category is a top-level grouping of services, addressed by slug on
// the admin endpoints.
type Category struct {
	ID    store.ID `json:"id"`
	Name  string   `json:"name"`
	Slug  string   `json:"slug"`
	Image string   `json:"image"`
}

// Type is a service type under a category.
type Type struct {
	ID         store.ID `json:"id"`
	CategoryID store.ID `json:"category_id"`
	Name       string   `json:"name"`
	Image      string   `json:"image"`
}
