package services

import (
	"time"

	"github.com/cleanhub/cleanhub-go/store"
)

// Service is a bookable cleaning service offered by an owner.
type Service struct {
	ID          store.ID   `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	BasePrice   float64    `json:"base_price"`
	Images      []string   `json:"images"`
	CategoryID  store.ID   `json:"category_id"`
	Category    string     `json:"category,omitempty"` // joined server-side
	TypeID      store.ID   `json:"type_id"`
	Type        string     `json:"type,omitempty"` // joined server-side
	OwnerID     store.ID   `json:"owner_id"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
}
