package uno

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode is the closed enumeration of standard error codes. The code is
// wire-visible on every error payload produced by the framework.
type ErrorCode string

const (
	ErrCodeAggregate        ErrorCode = "aggregateError"
	ErrCodeBadRequest       ErrorCode = "badRequest"
	ErrCodeConfiguration    ErrorCode = "configurationError"
	ErrCodeConflict         ErrorCode = "conflict"
	ErrCodeDependency       ErrorCode = "dependencyError"
	ErrCodeForbidden        ErrorCode = "forbidden"
	ErrCodeInternal         ErrorCode = "internalServerError"
	ErrCodeMethodNotAllowed ErrorCode = "methodNotAllowed"
	ErrCodeNotFound         ErrorCode = "notFound"
	ErrCodeOAuth            ErrorCode = "oauthError"
	ErrCodeUnauthorized     ErrorCode = "unauthorized"
	ErrCodeValidation       ErrorCode = "validationError"
)

// ErrorData is the wire representation of a failure. Details carries one
// entry per violated constraint for validation/aggregate errors and may
// nest recursively.
type ErrorData struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Target  string      `json:"target,omitempty"`
	Data    any         `json:"data,omitempty"`
	Details []ErrorData `json:"details,omitempty"`
}

// StatusCoder is the capability an error satisfies by exposing its mapped
// HTTP status. Every error raised by framework code implements it; errors
// crossing a boundary without it get reclassified.
type StatusCoder interface {
	StatusCode() int
}

// ResponsePayloader is the capability an error satisfies by carrying a
// custom response payload that replaces the default ErrorData body.
type ResponsePayloader interface {
	ResponsePayload() any
}

// Error is the immutable runtime representation of a classified failure.
// All fields are unexported; once constructed an Error cannot be mutated.
type Error struct {
	code    ErrorCode
	status  int
	message string
	target  string
	data    any
	details []ErrorData
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %s", e.code, e.message, e.cause.Error())
	}
	return fmt.Sprintf("[%s] %s", e.code, e.message)
}

// Code returns the standard error code.
func (e *Error) Code() ErrorCode { return e.code }

// StatusCode returns the mapped HTTP status.
func (e *Error) StatusCode() int { return e.status }

// Target identifies the subject of the failure (resource, dependency name).
func (e *Error) Target() string { return e.target }

// Message returns the human readable message.
func (e *Error) Message() string { return e.message }

// Details returns a copy of the per-constraint error entries.
func (e *Error) Details() []ErrorData {
	if e.details == nil {
		return nil
	}
	out := make([]ErrorData, len(e.details))
	copy(out, e.details)
	return out
}

// Unwrap exposes the originating error, if any, for errors.Is/As.
func (e *Error) Unwrap() error { return e.cause }

// ErrorData converts the error into its wire shape.
func (e *Error) ErrorData() ErrorData {
	return ErrorData{
		Code:    string(e.code),
		Message: e.message,
		Target:  e.target,
		Data:    e.data,
		Details: e.Details(),
	}
}

// BadRequestError indicates a malformed or unprocessable request.
func BadRequestError(message string) *Error {
	return &Error{code: ErrCodeBadRequest, status: http.StatusBadRequest, message: message}
}

// NotFoundError indicates the target resource does not exist.
func NotFoundError(target string) *Error {
	return &Error{code: ErrCodeNotFound, status: http.StatusNotFound, message: "not found", target: target}
}

// ValidationError aggregates one ErrorData per violated constraint.
func ValidationError(details ...ErrorData) *Error {
	return &Error{code: ErrCodeValidation, status: http.StatusBadRequest, message: "validation failed", details: details}
}

// DependencyError classifies a failure raised by an external dependency.
// The target names the dependency at fault.
func DependencyError(target string, cause error) *Error {
	return &Error{code: ErrCodeDependency, status: http.StatusBadGateway, message: "dependency call failed", target: target, cause: cause}
}

// ConflictError indicates the request conflicts with current state.
func ConflictError(message string) *Error {
	return &Error{code: ErrCodeConflict, status: http.StatusConflict, message: message}
}

// ConfigurationError indicates missing or invalid configuration.
func ConfigurationError(message string) *Error {
	return &Error{code: ErrCodeConfiguration, status: http.StatusInternalServerError, message: message}
}

// ForbiddenError indicates the caller may not access the target.
func ForbiddenError(target string) *Error {
	return &Error{code: ErrCodeForbidden, status: http.StatusForbidden, message: "forbidden", target: target}
}

// UnauthorizedError indicates the caller is not authenticated for the target.
func UnauthorizedError(target string) *Error {
	return &Error{code: ErrCodeUnauthorized, status: http.StatusUnauthorized, message: "unauthorized", target: target}
}

// MethodNotAllowedError indicates the route exists but not for this method.
func MethodNotAllowedError(method string) *Error {
	return &Error{code: ErrCodeMethodNotAllowed, status: http.StatusMethodNotAllowed, message: "method not allowed", target: method}
}

// InternalServerError classifies an unexpected failure.
func InternalServerError(cause error) *Error {
	return &Error{code: ErrCodeInternal, status: http.StatusInternalServerError, message: "internal server error", cause: cause}
}

// AggregateError bundles multiple failures into one.
func AggregateError(details ...ErrorData) *Error {
	return &Error{code: ErrCodeAggregate, status: http.StatusInternalServerError, message: "multiple errors occurred", details: details}
}

// OAuthPayload is the RFC 6749 shaped body an OAuthError responds with.
type OAuthPayload struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// OAuthErr is an Error carrying the custom OAuth response payload capability.
type OAuthErr struct {
	inner   *Error
	payload OAuthPayload
}

func (e *OAuthErr) Error() string        { return e.inner.Error() }
func (e *OAuthErr) Code() ErrorCode      { return e.inner.Code() }
func (e *OAuthErr) StatusCode() int      { return e.inner.StatusCode() }
func (e *OAuthErr) ErrorData() ErrorData { return e.inner.ErrorData() }
func (e *OAuthErr) Unwrap() error        { return e.inner }

// ResponsePayload returns the OAuth wire payload in place of ErrorData.
func (e *OAuthErr) ResponsePayload() any { return e.payload }

// OAuthError produces an oauthError with a custom RFC 6749 response body.
func OAuthError(oauthCode, description string) *OAuthErr {
	return &OAuthErr{
		inner:   &Error{code: ErrCodeOAuth, status: http.StatusBadRequest, message: "oauth error: " + oauthCode},
		payload: OAuthPayload{Error: oauthCode, ErrorDescription: description},
	}
}

// NormalizeError guarantees the status-code capability on any error reaching
// the provider boundary. Classified errors pass through untouched, everything
// else is reclassified as internalServerError.
func NormalizeError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(StatusCoder); ok {
		return err
	}
	return InternalServerError(err)
}

// ErrorDataOf extracts the wire shape from any error. Unclassified errors
// are normalized first.
func ErrorDataOf(err error) ErrorData {
	err = NormalizeError(err)
	var ed interface{ ErrorData() ErrorData }
	if errors.As(err, &ed) {
		return ed.ErrorData()
	}
	// StatusCoder from outside the framework, keep its status semantics
	// but synthesize the payload.
	return ErrorData{Code: string(ErrCodeInternal), Message: err.Error()}
}

// StatusCodeOf returns the mapped HTTP status of any error, falling back to
// 500 for unclassified errors.
func StatusCodeOf(err error) int {
	if sc, ok := err.(StatusCoder); ok {
		return sc.StatusCode()
	}
	return http.StatusInternalServerError
}
