package services

import "strconv"

// CreateRequest creates a service.
type CreateRequest struct {
	Name        string  `json:"name" validate:"required,min=2,max=200"`
	Description string  `json:"description" validate:"omitempty,max=5000"`
	BasePrice   float64 `json:"base_price" validate:"required,gte=0"`
	CategoryID  string  `json:"category_id" validate:"required"`
	TypeID      string  `json:"type_id" validate:"required"`
}

func (r CreateRequest) formFields() map[string]string {
	return map[string]string{
		"name":        r.Name,
		"description": r.Description,
		"base_price":  strconv.FormatFloat(r.BasePrice, 'f', 2, 64),
		"category_id": r.CategoryID,
		"type_id":     r.TypeID,
	}
}

// UpdateRequest updates a service. Zero fields are left unchanged by
// the backend.
type UpdateRequest struct {
	Name        string  `json:"name,omitempty" validate:"omitempty,min=2,max=200"`
	Description string  `json:"description,omitempty" validate:"omitempty,max=5000"`
	BasePrice   float64 `json:"base_price,omitempty" validate:"omitempty,gte=0"`
	CategoryID  string  `json:"category_id,omitempty"`
	TypeID      string  `json:"type_id,omitempty"`
}

func (r UpdateRequest) formFields() map[string]string {
	fields := map[string]string{}
	if r.Name != "" {
		fields["name"] = r.Name
	}
	if r.Description != "" {
		fields["description"] = r.Description
	}
	if r.BasePrice > 0 {
		fields["base_price"] = strconv.FormatFloat(r.BasePrice, 'f', 2, 64)
	}
	if r.CategoryID != "" {
		fields["category_id"] = r.CategoryID
	}
	if r.TypeID != "" {
		fields["type_id"] = r.TypeID
	}
	return fields
}
