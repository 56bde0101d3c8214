package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/sometime-community/forum-auth/internal/domain"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewInternalError(err error) error {
	return newInternalError(err)
}

func newInternalError(err error) *DomainError {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

type kindMapping struct {
	kind    error
	code    string
	message string
	status  int
}

// Messages are fixed per kind so wrapped causes never reach the caller.
var kindMappings = []kindMapping{
	{domain.ErrInvalidCredential, "INVALID_CREDENTIAL", "invalid email or password", http.StatusUnauthorized},
	{domain.ErrRefreshTokenInvalid, "REFRESH_TOKEN_INVALID", "refresh token is invalid or expired", http.StatusUnauthorized},
	{domain.ErrAccessTokenMalformed, "ACCESS_TOKEN_MALFORMED", "access token is malformed", http.StatusBadRequest},
	{domain.ErrSessionMismatch, "SESSION_MISMATCH", "token does not match the active session", http.StatusConflict},
	{domain.ErrSessionNotFound, "SESSION_NOT_FOUND", "no active session", http.StatusUnauthorized},
	{domain.ErrUserNotFound, "USER_NOT_FOUND", "user not found", http.StatusNotFound},
	{domain.ErrEmailTaken, "CONFLICT", "email already registered", http.StatusConflict},
	{domain.ErrNickNameTaken, "CONFLICT", "nickname already taken", http.StatusConflict},
	{domain.ErrCodeNotFound, "VERIFICATION_FAILED", "verification failed", http.StatusBadRequest},
	{domain.ErrCodeExpired, "VERIFICATION_FAILED", "verification failed", http.StatusBadRequest},
	{domain.ErrCodeMismatch, "VERIFICATION_FAILED", "verification failed", http.StatusBadRequest},
	{domain.ErrDeliveryError, "DELIVERY_FAILED", "failed to send email", http.StatusBadGateway},
	{domain.ErrNotFound, "NOT_FOUND", "resource not found", http.StatusNotFound},
	{domain.ErrConflict, "CONFLICT", "resource already exists", http.StatusConflict},
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return &DomainError{
			Code:       http.StatusText(fiberErr.Code),
			Message:    fiberErr.Message,
			HTTPStatus: fiberErr.Code,
		}
	}
	for _, m := range kindMappings {
		if errors.Is(err, m.kind) {
			return &DomainError{Code: m.code, Message: m.message, HTTPStatus: m.status, Err: err}
		}
	}
	return newInternalError(err)
}

func MapError(err error) error {
	return ToDomainError(err)
}
