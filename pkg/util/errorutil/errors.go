package errorutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
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

const (
	CodeValidation   = "VALIDATION_FAILED"
	CodeInvalidJSON  = "INVALID_JSON"
	CodeNotFound     = "NOT_FOUND"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeMessaging    = "MESSAGING_UNAVAILABLE"
	CodeInternal     = "INTERNAL_ERROR"
)

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

func NewInvalidJSON(err error) error {
	return &DomainError{
		Code:       CodeInvalidJSON,
		Message:    "the request body contains invalid JSON",
		HTTPStatus: http.StatusBadRequest,
		Err:        err,
	}
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

// NewMessagingError reports that an event for ticketID could not be handed to the broker.
func NewMessagingError(ticketID string, err error) error {
	return &DomainError{
		Code:       CodeMessaging,
		Message:    "the messaging service is temporarily unavailable",
		HTTPStatus: http.StatusServiceUnavailable,
		Details:    map[string]any{"ticketId": ticketID},
		Err:        err,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// matcher converts err into a DomainError when it recognizes it.
type matcher func(err error) (*DomainError, bool)

// matchers are tried in order; the chain ends in ToDomainError's catch-all.
var matchers = []matcher{
	matchDomainError,
	matchJSONSyntax,
	matchFiberError,
}

func matchDomainError(err error) (*DomainError, bool) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr, true
	}
	return nil, false
}

func matchJSONSyntax(err error) (*DomainError, bool) {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return NewInvalidJSON(err).(*DomainError), true
	}
	return nil, false
}

func matchFiberError(err error) (*DomainError, bool) {
	var fiberErr *fiber.Error
	if !errors.As(err, &fiberErr) {
		return nil, false
	}
	code := http.StatusText(fiberErr.Code)
	switch fiberErr.Code {
	case http.StatusNotFound:
		code = CodeNotFound
	case http.StatusUnauthorized:
		code = CodeUnauthorized
	case http.StatusBadRequest:
		code = CodeValidation
	}
	return &DomainError{Code: code, Message: fiberErr.Message, HTTPStatus: fiberErr.Code, Err: err}, true
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	for _, match := range matchers {
		if domainErr, ok := match(err); ok {
			return domainErr
		}
	}
	return NewInternalError(err).(*DomainError)
}

func MapError(err error) error {
	return ToDomainError(err)
}
