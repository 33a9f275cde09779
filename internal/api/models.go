package api

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ChangePasswordRequest defines the payload for PUT /api/auth/password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required,min=6,max=72"`
}

// CreateConfigRequest defines the payload for creating a configuration entry.
type CreateConfigRequest struct {
	Key         string `json:"key"         validate:"required,max=100"`
	Value       any    `json:"value"`
	Type        string `json:"type"        validate:"omitempty,oneof=string number boolean json"`
	Description string `json:"description"`
	Category    string `json:"category"    validate:"max=50"`
	Editable    *bool  `json:"editable"`
}

// UpdateConfigRequest defines the payload for updating a single key.
type UpdateConfigRequest struct {
	Value any `json:"value"`
}

// ConfigEntryUpdate is one element of a batch configuration update.
type ConfigEntryUpdate struct {
	Key   string `json:"key"   validate:"required"`
	Value any    `json:"value"`
}

// BatchConfigRequest defines the payload for PUT /api/config.
type BatchConfigRequest struct {
	Entries []ConfigEntryUpdate `json:"entries" validate:"required,min=1,dive"`
}

// MessageResponse is returned by endpoints that have no resource to return.
type MessageResponse struct {
	Message string `json:"message"`
}
