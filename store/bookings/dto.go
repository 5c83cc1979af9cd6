package bookings

// CreateRequest books a service.
type CreateRequest struct {
	ServiceID string `json:"service_id" validate:"required"`
	Date      string `json:"date" validate:"required"`
	Time      string `json:"time" validate:"required"`
	Notes     string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// statusRequest updates a booking's status.
type statusRequest struct {
	Status string `json:"status"`
}

// listEnvelope is the bespoke shape of the booking list endpoints:
// {"bookings": [...], "related_bookings_stats": {...}}.
type listEnvelope struct {
	Bookings []Booking `json:"bookings"`
	Stats    *Stats    `json:"related_bookings_stats"`
}
