package auth

import (
	"github.com/angelmondragon/storefront-backend/internal/users"
)

// RegisterRequest is the signup payload.
type RegisterRequest struct {
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required,min=6,max=128"`
	FirstName string  `json:"firstName" validate:"required,max=50"`
	LastName  string  `json:"lastName" validate:"required,max=50"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=30"`
}

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type VerifyEmailRequest struct {
	Token string `json:"token" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,max=128"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	User  *users.UserDTO `json:"user"`
	Token string         `json:"token"`
}
