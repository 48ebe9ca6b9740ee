package handler

import (
	"time"

	"github.com/hits/carschool/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request / Response types ---

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type createUserRequest struct {
	FirstName string   `json:"first_name" validate:"required,max=100"`
	LastName  string   `json:"last_name"  validate:"required,max=100"`
	Age       int      `json:"age"        validate:"required,gte=14,max=120"`
	Phone     string   `json:"phone"      validate:"required,min=5,max=20"`
	Email     string   `json:"email"      validate:"required,email"`
	Password  string   `json:"password"   validate:"required,min=6"`
	Roles     []string `json:"roles"      validate:"required,min=1"`
}

type updateUserRequest struct {
	FirstName string   `json:"first_name" validate:"required,max=100"`
	LastName  string   `json:"last_name"  validate:"required,max=100"`
	Age       int      `json:"age"        validate:"required,gte=14,max=120"`
	Phone     string   `json:"phone"      validate:"required,min=5,max=20"`
	Email     string   `json:"email"      validate:"required,email"`
	Roles     []string `json:"roles"      validate:"required,min=1"`
}

type roleRequest struct {
	Role string `json:"role" validate:"required"`
}

type changeRolesRequest struct {
	Roles []string `json:"roles" validate:"required,min=1"`
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

type userResponse struct {
	ID        int64     `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Age       int       `json:"age"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	Roles     []string  `json:"roles"`
	Active    bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toUserResponse(u *domain.Identity) userResponse {
	return userResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Age:       u.Age,
		Phone:     u.Phone,
		Email:     u.Email,
		Roles:     u.Roles.Strings(),
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func toUserResponses(users []*domain.Identity) []userResponse {
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return out
}
