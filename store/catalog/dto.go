package catalog

// CategoryRequest creates or updates a category.
type CategoryRequest struct {
	Name string `json:"name" validate:"required,min=2,max=100"`
	Slug string `json:"slug" validate:"required,slug"`
}

func (r CategoryRequest) formFields() map[string]string {
	return map[string]string{
		"name": r.Name,
		"slug": r.Slug,
	}
}

// TypeRequest creates or updates a service type.
type TypeRequest struct {
	Name       string `json:"name" validate:"required,min=2,max=100"`
	CategoryID string `json:"category_id" validate:"required"`
}

func (r TypeRequest) formFields() map[string]string {
	return map[string]string{
		"name":        r.Name,
		"category_id": r.CategoryID,
	}
}
