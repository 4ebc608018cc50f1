package model

import "fmt"

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeUnauthorised      = "UNAUTHORIZED"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeConflict          = "CONFLICT"
	ErrCodeInsufficientStock = "INSUFFICIENT_STOCK"
	ErrCodeInvalidTransition = "INVALID_TRANSITION"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates a user-facing input validation error.
func NewValidationError(message string) *DomainError {
	return NewDomainError(ErrCodeValidation, message)
}

// NewNotFoundError creates a not-found error with a custom message.
func NewNotFoundError(message string) *DomainError {
	return NewDomainError(ErrCodeNotFound, message)
}

// NewInsufficientStockError reports that a product cannot cover the requested quantity.
func NewInsufficientStockError(productName string) *DomainError {
	return NewDomainError(ErrCodeInsufficientStock, fmt.Sprintf("Insufficient stock for %s", productName))
}

// Common domain errors
var (
	ErrUnauthorised       = NewDomainError(ErrCodeUnauthorised, "Unauthorized")
	ErrForbidden          = NewDomainError(ErrCodeForbidden, "Forbidden")
	ErrInvalidCredentials = NewDomainError(ErrCodeUnauthorised, "Invalid email or password.")
	ErrProductNotFound    = NewDomainError(ErrCodeNotFound, "Product not found")
	ErrOrderNotFound      = NewDomainError(ErrCodeNotFound, "Order not found")
	ErrCartNotFound       = NewDomainError(ErrCodeNotFound, "Cart not found")
	ErrCartItemNotFound   = NewDomainError(ErrCodeNotFound, "Item not found")
	ErrUserNotFound       = NewDomainError(ErrCodeNotFound, "User not found")
	ErrEmailInUse         = NewDomainError(ErrCodeConflict, "Email already in use.")
	ErrInvalidQuantity    = NewDomainError(ErrCodeValidation, "Quantity must be greater than zero")
	ErrInsufficientStock  = NewDomainError(ErrCodeInsufficientStock, "Insufficient stock")
)
