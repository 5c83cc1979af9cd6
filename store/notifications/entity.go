package notifications

import (
	"time"

	"github.com/cleanhub/cleanhub-go/store"
)

// Actor is the user who triggered a notification.
type Actor struct {
	ID    store.ID `json:"id"`
	Name  string   `json:"name"`
	Image string   `json:"image"`
}

// Notification represents a user notification.
type Notification struct {
	ID        store.ID   `json:"id"`
	Message   string     `json:"message"`
	Actor     *Actor     `json:"actor,omitempty"`
	IsRead    bool       `json:"is_read"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
