package bookings

import (
	"time"

	"github.com/cleanhub/cleanhub-go/store"
)

// Well-known status values. The authoritative enumeration and its
// transition rules live server-side; the client treats status as an
// opaque string and never validates or transitions it.
const (
	StatusPending   = "Pending"
	StatusConfirmed = "Confirmed"
	StatusCancelled = "Cancelled"
	StatusCompleted = "Completed"
)

// Booking represents an appointment for a service.
type Booking struct {
	ID        store.ID   `json:"id"`
	UserID    store.ID   `json:"user_id"`
	ServiceID store.ID   `json:"service_id"`
	Date      string     `json:"date"` // YYYY-MM-DD as supplied by the backend
	Time      string     `json:"time"` // HH:MM
	Status    string     `json:"status"`
	StaffIDs  []store.ID `json:"staff_ids,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`

	// Joined server-side for display.
	Customer    string `json:"customer,omitempty"`
	ServiceName string `json:"service_name,omitempty"`
}

// Stats are the aggregate counters the list endpoint returns next to
// the bookings.
type Stats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Confirmed int `json:"confirmed"`
	Cancelled int `json:"cancelled"`
	Completed int `json:"completed"`
}
