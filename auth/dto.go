package auth

import (
	"github.com/cleanhub/cleanhub-go/store"
)

// User is the authenticated user's profile summary as returned by the
// login and register endpoints.
type User struct {
	ID        store.ID `json:"id"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	Phone     string   `json:"phone"`
	Image     string   `json:"image"`
	Role      string   `json:"role"`
}

// LoginRequest carries login credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest carries a signup payload.
type RegisterRequest struct {
	FirstName string `json:"first_name" validate:"required,min=2,max=100"`
	LastName  string `json:"last_name" validate:"required,min=2,max=100"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"omitempty,min=5,max=20"`
	Password  string `json:"password" validate:"required,min=6"`
	Role      string `json:"role" validate:"required,role"`
}

// authResponse is the token envelope returned by login and register.
type authResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}
