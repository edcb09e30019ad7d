package apperrors

import (
	"fmt"
	"net/http"
)

/*
Фабрики доменных ошибок. Каждый вызов возвращает новый экземпляр,
чтобы WithDetails/WithError не портили общие значения.
*/

const (
	DomainAuth  = "auth"
	DomainItem  = "item"
	DomainUser  = "user"
	DomainEmail = "email"
)

const notAuthorizedMessage = "Not authorized to take this action."

// =========================================================================
// Auth
// =========================================================================

func ErrInvalidDomain() *AppError {
	return New(CodeValidationFailed, DomainAuth, "Email must be a valid university email address.", http.StatusBadRequest)
}

func ErrUserAlreadyExists() *AppError {
	return New(CodeAlreadyExists, DomainAuth, "A user with this email already exists.", http.StatusBadRequest)
}

func ErrPasswordMismatch() *AppError {
	return New(CodeValidationFailed, DomainAuth, "Passwords do not match. Please ensure both password fields are identical.", http.StatusBadRequest)
}

func ErrUserNotFound() *AppError {
	return New(CodeNotFound, DomainUser, "Not found.", http.StatusNotFound)
}

// ErrInvalidPin - одна ошибка на отсутствие, истечение и несовпадение PIN
func ErrInvalidPin() *AppError {
	return New(CodeValidationFailed, DomainAuth, "Invalid PIN code. Please check your email and try again.", http.StatusBadRequest)
}

func ErrInvalidCredentials() *AppError {
	return New(CodeInvalidCredentials, DomainAuth, "Invalid email or password. Please check your credentials and try again.", http.StatusUnauthorized)
}

func ErrNotVerified() *AppError {
	return New(CodeNotVerified, DomainAuth, "Email address has not been verified. Please check your email for the verification PIN.", http.StatusForbidden)
}

func ErrAlreadyVerified() *AppError {
	return New(CodeConflict, DomainAuth, "Email address has already been verified.", http.StatusBadRequest)
}

func ErrInvalidOrExpiredToken() *AppError {
	return New(CodeInvalidToken, DomainAuth, "Invalid or expired reset token. Please request a new password reset link.", http.StatusBadRequest)
}

func ErrEmailDispatchFailed(err error, message string) *AppError {
	return Wrap(err, CodeExternalServiceError, DomainEmail, message, http.StatusInternalServerError)
}

func ErrNotAuthorized() *AppError {
	return NewUnauthorizedError(notAuthorizedMessage)
}

func ErrNotPermitted() *AppError {
	return NewForbiddenError(notAuthorizedMessage)
}

func ErrUserBlocked() *AppError {
	return NewForbiddenError(notAuthorizedMessage)
}

// =========================================================================
// Items
// =========================================================================

func ErrItemNotFound() *AppError {
	return New(CodeNotFound, DomainItem, "Not found.", http.StatusNotFound)
}

func ErrInvalidCategory(id string) *AppError {
	return New(CodeValidationFailed, DomainItem, fmt.Sprintf("Invalid category: %s.", id), http.StatusBadRequest)
}

func ErrInvalidCity(id string) *AppError {
	return New(CodeValidationFailed, DomainItem, fmt.Sprintf("Invalid city: %s.", id), http.StatusBadRequest)
}

func ErrInvalidPricing(message string) *AppError {
	return New(CodeValidationFailed, DomainItem, message, http.StatusBadRequest)
}

func ErrItemNotUpdatable() *AppError {
	return New(CodeInvalidStatus, DomainItem, "Item cannot be updated.", http.StatusBadRequest)
}

func ErrItemAlreadySold() *AppError {
	return New(CodeConflict, DomainItem, "This item has already been marked as sold.", http.StatusBadRequest)
}

func ErrBuyerNotFound() *AppError {
	return New(CodeValidationFailed, DomainItem, "Buyer with this email address not found in the system.", http.StatusBadRequest)
}

func ErrBuyerIsOwner() *AppError {
	return New(CodeValidationFailed, DomainItem, "You cannot mark yourself as the buyer of your own item.", http.StatusBadRequest)
}
