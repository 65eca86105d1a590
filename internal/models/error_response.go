package models

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind - вид ошибки предметной области.
type ErrorKind string

const (
	ValidationError     ErrorKind = "ValidationError"     // Некорректные или неполные входные данные
	NotFoundError       ErrorKind = "NotFoundError"       // Запрос на котировку не найден
	ForbiddenError      ErrorKind = "ForbiddenError"      // Поставщик не приглашён
	AuthenticationError ErrorKind = "AuthenticationError" // Неверная подпись токена
	ExpiredError        ErrorKind = "ExpiredError"        // Истёк срок токена или дедлайн
	ConflictError       ErrorKind = "ConflictError"       // Повторное предложение, повторная выдача победы
	ComplianceError     ErrorKind = "ComplianceError"     // Поставщик не прошёл предварительную проверку
	InternalError       ErrorKind = "InternalError"
)

var kindStatusCodes = map[ErrorKind]int{
	ValidationError:     http.StatusBadRequest,
	NotFoundError:       http.StatusNotFound,
	ForbiddenError:      http.StatusForbidden,
	AuthenticationError: http.StatusUnauthorized,
	ExpiredError:        http.StatusGone,
	ConflictError:       http.StatusConflict,
	ComplianceError:     http.StatusUnprocessableEntity,
	InternalError:       http.StatusInternalServerError,
}

// ErrorResponse описывает ошибку с кодом и сообщением.
type ErrorResponse struct {
	StatusCode int       `json:"-"`
	Kind       ErrorKind `json:"kind"`
	Message    string    `json:"reason"`
	Field      string    `json:"field,omitempty"`
	Details    []string  `json:"details,omitempty"`
}

// NewErrorResponse создает новую ошибку с кодом и сообщением.
func NewErrorResponse(statusCode int, message string) *ErrorResponse {
	kind := InternalError
	for k, code := range kindStatusCodes {
		if code == statusCode {
			kind = k
			break
		}
	}
	return &ErrorResponse{
		StatusCode: statusCode,
		Kind:       kind,
		Message:    message}
}

// NewKindError создает ошибку заданного вида.
func NewKindError(kind ErrorKind, message string) *ErrorResponse {
	code, ok := kindStatusCodes[kind]
	if !ok {
		code = http.StatusInternalServerError
	}
	return &ErrorResponse{StatusCode: code, Kind: kind, Message: message}
}

// NewValidationError создает ошибку валидации для конкретного поля.
func NewValidationError(field, format string, args ...any) *ErrorResponse {
	e := NewKindError(ValidationError, fmt.Sprintf(format, args...))
	e.Field = field
	return e
}

func NewNotFoundError(format string, args ...any) *ErrorResponse {
	return NewKindError(NotFoundError, fmt.Sprintf(format, args...))
}

func NewForbiddenError(format string, args ...any) *ErrorResponse {
	return NewKindError(ForbiddenError, fmt.Sprintf(format, args...))
}

func NewAuthenticationError(format string, args ...any) *ErrorResponse {
	return NewKindError(AuthenticationError, fmt.Sprintf(format, args...))
}

func NewExpiredError(format string, args ...any) *ErrorResponse {
	return NewKindError(ExpiredError, fmt.Sprintf(format, args...))
}

func NewConflictError(format string, args ...any) *ErrorResponse {
	return NewKindError(ConflictError, fmt.Sprintf(format, args...))
}

// NewComplianceError перечисляет все не пройденные проверки в Details.
func NewComplianceError(message string, failedChecks []string) *ErrorResponse {
	e := NewKindError(ComplianceError, message)
	e.Details = failedChecks
	return e
}

// Реализация метода Error() для удовлетворения интерфейса error.
func (e *ErrorResponse) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// KindOf возвращает вид ошибки или InternalError для посторонних ошибок.
func KindOf(err error) ErrorKind {
	var errorResponse *ErrorResponse
	if errors.As(err, &errorResponse) {
		return errorResponse.Kind
	}
	return InternalError
}

// IsKind проверяет, относится ли ошибка к заданному виду.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
