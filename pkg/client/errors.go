package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Common errors returned by the client.
var (
	// ErrRateLimited is returned when a request is refused locally because the
	// tracked rate limit budget is critical.
	ErrRateLimited = errors.New("request blocked: rate limit critical")
)

// ErrorClass represents a classification of request failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 responses and locally blocked requests.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassDecode represents response bodies that do not match the expected schema.
	ErrorClassDecode ErrorClass = "decode"
)

// maxErrorBody caps how much of a failed response body is kept in a StatusError.
const maxErrorBody = 4096

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	ErrorClass ErrorClass
	Method     string
	Path       string
	Message    string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("buildkite %s error (status %d): %s %s: %s",
		e.ErrorClass, e.StatusCode, e.Method, e.Path, e.Message)
}

// TransportError is returned when no response was received (DNS, TLS,
// connection reset, timeout).
type TransportError struct {
	Method string
	Path   string
	Err    error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("buildkite request %s %s: %v", e.Method, e.Path, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// DecodeError is returned when a response body cannot be decoded.
type DecodeError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode response from %s: %v", e.Path, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ClassifyError returns the class of an error produced by the client, or ""
// if err is nil or did not come from the client.
func ClassifyError(err error) ErrorClass {
	if err == nil {
		return ""
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.ErrorClass
	}

	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		return ErrorClassDecode
	}

	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return ErrorClassNetwork
	}

	if errors.Is(err, ErrRateLimited) {
		return ErrorClassRateLimit
	}

	return ""
}

// classifyStatus maps an HTTP status code to an error class.
func classifyStatus(statusCode int) ErrorClass {
	switch {
	case statusCode == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case statusCode >= 400 && statusCode < 500:
		return ErrorClassClient
	case statusCode >= 500:
		return ErrorClassServer
	case statusCode < 200 || statusCode >= 300:
		// unexpected 1xx/3xx that the transport did not resolve
		return ErrorClassClient
	default:
		return ""
	}
}

// errorMessage extracts the message of a Buildkite error body
// ({"message": "..."}), falling back to the raw body or the status text.
func errorMessage(statusCode int, body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}

	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}

	return http.StatusText(statusCode)
}
