package models

import (
	"fmt"
	"net/http"
)

// ErrorKind - категория ошибки, которую видит вызывающая сторона.
type ErrorKind string

const (
	ValidationError    ErrorKind = "ValidationError"    // Неверные или отсутствующие поля
	NotFoundError      ErrorKind = "NotFoundError"      // Сущность не найдена
	StateConflictError ErrorKind = "StateConflictError" // Сущность заблокирована или в терминальном состоянии
	Unauthenticated    ErrorKind = "Unauthenticated"    // Нет подтверждённого субъекта
)

// ErrorResponse описывает ошибку с кодом, типом и сообщением.
type ErrorResponse struct {
	StatusCode int       `json:"-"`
	Kind       ErrorKind `json:"kind"`
	Message    string    `json:"reason"`
	Details    any       `json:"details,omitempty"`
}

// NewErrorResponse создает новую ошибку с кодом и сообщением.
func NewErrorResponse(statusCode int, message string) *ErrorResponse {
	return &ErrorResponse{
		StatusCode: statusCode,
		Message:    message}
}

// NewValidationError создает ошибку валидации. details - нарушения по полям.
func NewValidationError(message string, details any) *ErrorResponse {
	return &ErrorResponse{
		StatusCode: http.StatusBadRequest,
		Kind:       ValidationError,
		Message:    message,
		Details:    details,
	}
}

// NewNotFoundError создает ошибку об отсутствующей сущности.
func NewNotFoundError(entity, id string) *ErrorResponse {
	return &ErrorResponse{
		StatusCode: http.StatusNotFound,
		Kind:       NotFoundError,
		Message:    fmt.Sprintf("%s %s not found", entity, id),
	}
}

// NewStateConflictError создает ошибку конфликта состояния. state - текущее состояние сущности.
func NewStateConflictError(message string, state any) *ErrorResponse {
	return &ErrorResponse{
		StatusCode: http.StatusConflict,
		Kind:       StateConflictError,
		Message:    message,
		Details:    state,
	}
}

// Реализация метода Error() для удовлетворения интерфейса error.
func (e *ErrorResponse) Error() string {
	return e.Message
}
