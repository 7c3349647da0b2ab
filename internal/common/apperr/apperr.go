package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure so callers can react without parsing messages.
type Kind string

const (
	KindValidation Kind = "VALIDATION"
	KindRemote     Kind = "REMOTE"
	KindState      Kind = "STATE"
)

// Error is the structured failure returned by every public till operation.
type Error struct {
	Kind    Kind              `json:"kind"`
	Message string            `json:"error"`
	Status  int               `json:"status,omitempty"` // upstream HTTP status for remote errors
	Fields  map[string]string `json:"fields,omitempty"`
	Err     error             `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

func Validationf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func State(msg string) *Error {
	return &Error{Kind: KindState, Message: msg}
}

func Statef(format string, args ...interface{}) *Error {
	return &Error{Kind: KindState, Message: fmt.Sprintf(format, args...)}
}

// Remote maps an upstream HTTP status to a stable message.
func Remote(status int, fields map[string]string) *Error {
	return &Error{Kind: KindRemote, Message: RemoteMessage(status), Status: status, Fields: fields}
}

// Transport wraps a network failure where no status was received.
func Transport(err error) *Error {
	return &Error{Kind: KindRemote, Message: RemoteMessage(0), Err: err}
}

func RemoteMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid parameters"
	case http.StatusUnauthorized:
		return "authentication required"
	case http.StatusNotFound:
		return "not found"
	case http.StatusUnprocessableEntity:
		return "validation failed"
	case http.StatusInternalServerError:
		return "internal server error"
	default:
		return "request failed"
	}
}

// As returns the *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf reports the kind of err, or "" for unclassified errors.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return ""
}

// HTTPStatus picks the response code the local API uses for err.
func HTTPStatus(err error) int {
	e, ok := As(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindState:
		return http.StatusConflict
	case KindRemote:
		switch e.Status {
		case http.StatusUnauthorized, http.StatusNotFound, http.StatusUnprocessableEntity:
			return e.Status
		}
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
