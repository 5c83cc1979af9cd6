package users

import (
	"time"

	"github.com/cleanhub/cleanhub-go/store"
)

// Role values assigned by the backend.
const (
	RoleCustomer = "customer"
	RoleOwner    = "owner"
	RoleStaff    = "staff"
	RoleAdmin    = "admin"
)

// User represents a marketplace user: a customer, an owner, or a
// member of an owner's staff.
type User struct {
	ID        store.ID   `json:"id"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
	Image     string     `json:"image"`
	Role      string     `json:"role"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}
