// Package result defines the envelope every client call resolves to.
package result

import "time"

const (
	// StatusLocalValidation is reported for inputs rejected before any network call.
	StatusLocalValidation = 400

	unknownErrorMessage = "Unknown error"
)

// Envelope is the uniform return shape shared by the gateway, the session
// manager and every resource service. Data is meaningful only when Success
// is true, Error only when it is false.
type Envelope[T any] struct {
	Success bool       `json:"success"`
	Data    T          `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

// ErrorInfo describes a failed call.
type ErrorInfo struct {
	Message    string   `json:"message"`
	StatusCode int      `json:"statusCode,omitempty"`
	Timestamp  string   `json:"timestamp,omitempty"`
	Path       string   `json:"path,omitempty"`
	Args       []string `json:"args,omitempty"`
}

// OK wraps data in a successful envelope.
func OK[T any](data T) Envelope[T] {
	return Envelope[T]{Success: true, Data: data}
}

// Fail builds a failed envelope. A missing timestamp is stamped with the
// current time.
func Fail[T any](info ErrorInfo) Envelope[T] {
	if info.Message == "" {
		info.Message = unknownErrorMessage
	}
	if info.Timestamp == "" {
		info.Timestamp = Now()
	}
	return Envelope[T]{Success: false, Error: &info}
}

// Invalid reports a local validation failure for the given path.
func Invalid[T any](message, path string) Envelope[T] {
	return Fail[T](ErrorInfo{Message: message, StatusCode: StatusLocalValidation, Path: path})
}

// Forward carries the failure of e into an envelope of another type.
func Forward[U, T any](e Envelope[T]) Envelope[U] {
	if e.Error == nil {
		return Fail[U](ErrorInfo{})
	}
	return Fail[U](*e.Error)
}

// Map converts the data of a successful envelope; failures are forwarded.
func Map[T, U any](e Envelope[T], fn func(T) U) Envelope[U] {
	if !e.Success {
		return Forward[U](e)
	}
	return OK(fn(e.Data))
}

// Message returns the error message of a failed envelope, or "" on success.
func (e Envelope[T]) Message() string {
	if e.Success || e.Error == nil {
		return ""
	}
	return e.Error.Message
}

// StatusCode returns the HTTP or local status of a failed envelope.
func (e Envelope[T]) StatusCode() int {
	if e.Error == nil {
		return 0
	}
	return e.Error.StatusCode
}

// Now formats the current UTC time the way error timestamps are reported.
func Now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
