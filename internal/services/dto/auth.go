package dto

import "time"

type RegisterRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type RegisterResponse struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

type VerifyRequest struct {
	Email                string `json:"email" validate:"required,email"`
	PinCode              string `json:"pinCode" validate:"required,len=6,numeric"`
	Password             string `json:"password" validate:"required,min=8,max=72"`
	PasswordConfirmation string `json:"passwordConfirmation" validate:"required"`
}

type VerifyResponse struct {
	Message  string `json:"message"`
	Verified bool   `json:"verified"`
}

type ResendPinRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResult - токен в тело ответа не попадает, только в cookie
type LoginResult struct {
	UserID       string
	SessionToken string
	ExpiresAt    time.Time
	CookieName   string
}

type LoginResponse struct {
	UserID string `json:"userId"`
}

type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type PasswordResetConfirmRequest struct {
	Token                string `json:"token" validate:"required"`
	NewPassword          string `json:"newPassword" validate:"required,min=8,max=72"`
	PasswordConfirmation string `json:"passwordConfirmation" validate:"required"`
}

// SessionIdentity - то, что SessionGuard кладет в контекст запроса
type SessionIdentity struct {
	UserID       string
	SessionToken string
	ExpiresAt    time.Time
}

type MessageResponse struct {
	Message string `json:"message"`
}
