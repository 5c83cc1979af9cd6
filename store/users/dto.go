package users

// CreateStaffRequest adds a staff member under an owner.
type CreateStaffRequest struct {
	FirstName string `json:"first_name" validate:"required,min=2,max=100"`
	LastName  string `json:"last_name" validate:"required,min=2,max=100"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"omitempty,min=5,max=20"`
	Password  string `json:"password" validate:"required,min=6"`
}

// UpdateProfileRequest updates a user's own profile. Empty fields are
// left unchanged by the backend.
type UpdateProfileRequest struct {
	FirstName string `json:"first_name" validate:"omitempty,min=2,max=100"`
	LastName  string `json:"last_name" validate:"omitempty,min=2,max=100"`
	Phone     string `json:"phone" validate:"omitempty,min=5,max=20"`
}

func (r UpdateProfileRequest) formFields() map[string]string {
	fields := map[string]string{}
	if r.FirstName != "" {
		fields["first_name"] = r.FirstName
	}
	if r.LastName != "" {
		fields["last_name"] = r.LastName
	}
	if r.Phone != "" {
		fields["phone"] = r.Phone
	}
	return fields
}

// listEnvelope is the bespoke shape of the owner-scoped staff list
// endpoint: {"users": [...], "count": N}.
type listEnvelope struct {
	Users []User `json:"users"`
	Count int    `json:"count"`
}
