package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"syscall"
)

// Kind classifies a gateway error.
type Kind string

const (
	// KindTransport covers connection, DNS and other network failures.
	KindTransport Kind = "transport"
	// KindTimeout covers deadline and timeout failures.
	KindTimeout Kind = "timeout"
	// KindHTTP covers non-2xx responses from the backend.
	KindHTTP Kind = "http"
	// KindValidation covers client-side validation failures raised
	// before any request is issued.
	KindValidation Kind = "validation"
)

// Error is the structured error returned by every gateway call.
type Error struct {
	Kind    Kind
	Status  int // HTTP status for KindHTTP, zero otherwise
	Code    string
	Message string
	Fields  map[string]string // field errors for KindValidation
	Err     error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindHTTP:
		if e.Code != "" {
			return fmt.Sprintf("%s (status=%d code=%s)", e.Message, e.Status, e.Code)
		}
		return fmt.Sprintf("%s (status=%d)", e.Message, e.Status)
	case KindValidation:
		return e.Message
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s: %v", e.Message, e.Err)
		}
		return e.Message
	}
}

func (e *Error) Unwrap() error { return e.Err }

// NewValidationError builds a validation error from field messages.
func NewValidationError(fields map[string]string) *Error {
	return &Error{
		Kind:    KindValidation,
		Code:    "VALIDATION_ERROR",
		Message: "validation failed",
		Fields:  fields,
	}
}

// IsUnauthorized reports whether err is an HTTP 401 from the backend.
func IsUnauthorized(err error) bool {
	var gwErr *Error
	return errors.As(err, &gwErr) && gwErr.Kind == KindHTTP && gwErr.Status == http.StatusUnauthorized
}

// IsNotFound reports whether err is an HTTP 404 from the backend.
func IsNotFound(err error) bool {
	var gwErr *Error
	return errors.As(err, &gwErr) && gwErr.Kind == KindHTTP && gwErr.Status == http.StatusNotFound
}

// errorEnvelope covers the message shapes the backend returns on
// failures: {"error":{"code","message"}} and {"message": "..."}.
type errorEnvelope struct {
	Message string `json:"message"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// decodeHTTPError extracts the backend-provided message when present,
// falling back to a generic message carrying the status.
func decodeHTTPError(status int, body []byte) *Error {
	e := &Error{Kind: KindHTTP, Status: status}

	var env errorEnvelope
	if json.Unmarshal(body, &env) == nil {
		if env.Error != nil && env.Error.Message != "" {
			e.Code = env.Error.Code
			e.Message = env.Error.Message
			return e
		}
		if env.Message != "" {
			e.Message = env.Message
			return e
		}
	}

	e.Message = fmt.Sprintf("request failed with status %d", status)
	return e
}

func classifyRequestError(ctx context.Context, err error) *Error {
	if isTimeoutError(ctx, err) {
		return &Error{Kind: KindTimeout, Message: "request timed out", Err: err}
	}
	if isNetworkError(err) {
		return &Error{Kind: KindTransport, Message: "network error", Err: err}
	}
	return &Error{Kind: KindTransport, Message: "request error", Err: err}
}

func isTimeoutError(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}

func isNetworkError(err error) bool {
	if err == nil {
		return false
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ENETUNREACH) ||
		errors.Is(err, syscall.EHOSTUNREACH) {
		return true
	}

	return false
}
