package auth

import (
	"fmt"
	"net/http"
)

// DomainError is a structured, self-describing domain error used across the auth module.
// It carries HTTP/RFC7807-friendly metadata so a shared formatter can convert any domain
// error into a Problem response without enumerating error types.
type DomainError struct {
	// Code is a stable, machine-readable business code (e.g., "ErrInvalidOTP").
	Code string

	// HTTPStatus is the HTTP status suggested for this error.
	HTTPStatus int

	// Title is a short human summary; if empty the formatter will default to StatusText(HTTPStatus).
	Title string

	// Message is a human-readable message primarily for logs. When Detail is empty,
	// this is used as the public detail.
	Message string

	// Detail is a user-friendly, safe explanation for clients. If empty, Message is used.
	Detail string

	// TypeURI is an RFC7807 type URI for documentation, e.g., "urn:problem:auth/err-invalid-otp".
	TypeURI string

	// Context is an optional extension payload for clients.
	Context any

	// cause is the underlying error that triggered this one, if any.
	cause error
}

// Error satisfies the standard Go error interface.
func (e *DomainError) Error() string {
	msg := e.Detail
	if msg == "" {
		msg = e.Message
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.cause)
	}
	return msg
}

// Unwrap provides compatibility for Go's errors.Is and errors.As functions.
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Is enables errors.Is comparisons based on the stable Code rather than pointer identity.
// This ensures copies created via WithCause match their sentinel counterpart.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause returns a new instance of the DomainError, wrapping the provided cause.
func (e *DomainError) WithCause(err error) *DomainError {
	if err == nil {
		return e
	}
	cp := *e
	cp.cause = err
	return &cp
}

// WithDetail sets a public-friendly detail message for clients.
func (e *DomainError) WithDetail(detail string) *DomainError {
	cp := *e
	cp.Detail = detail
	return &cp
}

// --- RFC7807 mapping accessors (satisfy httpx.DomainProblem) ---

func (e *DomainError) ProblemCode() string { return e.Code }
func (e *DomainError) ProblemStatus() int {
	if e.HTTPStatus == 0 {
		return http.StatusInternalServerError
	}
	return e.HTTPStatus
}
func (e *DomainError) ProblemTitle() string { return e.Title }
func (e *DomainError) ProblemDetail() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Message
}
func (e *DomainError) ProblemTypeURI() string { return e.TypeURI }
func (e *DomainError) ProblemContext() any    { return e.Context }

// --- Pre-defined Domain Errors ---
// Account-enumeration-sensitive paths deliberately share generic wording so a
// caller cannot distinguish "no such account" from "wrong credentials".

var (
	ErrNotFound = &DomainError{
		Code:       "ErrNotFound",
		HTTPStatus: http.StatusNotFound,
		Title:      "Not Found",
		Message:    "user not found",
		Detail:     "Unable to process your request. Please try again.",
		TypeURI:    "urn:problem:auth/err-not-found",
	}

	ErrInvalidRole = &DomainError{
		Code:       "ErrInvalidRole",
		HTTPStatus: http.StatusBadRequest,
		Title:      "Bad Request",
		Message:    "invalid user role",
		Detail:     "Invalid user role.",
		TypeURI:    "urn:problem:auth/err-invalid-role",
	}

	ErrInvalidCredentials = &DomainError{
		Code:       "ErrInvalidCredentials",
		HTTPStatus: http.StatusUnauthorized,
		Title:      "Unauthorized",
		Message:    "invalid email or password",
		Detail:     "Invalid credentials.",
		TypeURI:    "urn:problem:auth/err-invalid-credentials",
	}

	// ErrOAuthOnlyAccount is returned when a credential login hits an account
	// with no password hash. The detail doubles as a UI hint.
	ErrOAuthOnlyAccount = &DomainError{
		Code:       "ErrOAuthOnlyAccount",
		HTTPStatus: http.StatusUnauthorized,
		Title:      "Unauthorized",
		Message:    "account has no password set",
		Detail:     "Please choose 'Continue with Google' to log in.",
		TypeURI:    "urn:problem:auth/err-oauth-only-account",
	}

	ErrInvalidOTP = &DomainError{
		Code:       "ErrInvalidOTP",
		HTTPStatus: http.StatusBadRequest,
		Title:      "Bad Request",
		Message:    "invalid one-time password",
		Detail:     "Invalid OTP.",
		TypeURI:    "urn:problem:auth/err-invalid-otp",
	}

	ErrOTPExpired = &DomainError{
		Code:       "ErrOTPExpired",
		HTTPStatus: http.StatusBadRequest,
		Title:      "Bad Request",
		Message:    "one-time password has expired",
		Detail:     "Code has expired.",
		TypeURI:    "urn:problem:auth/err-otp-expired",
	}

	ErrInvalidToken = &DomainError{
		Code:       "ErrInvalidToken",
		HTTPStatus: http.StatusBadRequest,
		Title:      "Bad Request",
		Message:    "the provided token is invalid",
		Detail:     "Invalid token.",
		TypeURI:    "urn:problem:auth/err-invalid-token",
	}

	ErrTokenExpired = &DomainError{
		Code:       "ErrTokenExpired",
		HTTPStatus: http.StatusBadRequest,
		Title:      "Bad Request",
		Message:    "the provided token has expired",
		Detail:     "Token has expired.",
		TypeURI:    "urn:problem:auth/err-token-expired",
	}

	ErrPasswordMismatch = &DomainError{
		Code:       "ErrPasswordMismatch",
		HTTPStatus: http.StatusBadRequest,
		Title:      "Bad Request",
		Message:    "passwords do not match",
		Detail:     "Passwords do not match. Please type the same password twice.",
		TypeURI:    "urn:problem:auth/err-password-mismatch",
	}

	// ErrEmailExists keeps a generic public detail so signup does not confirm
	// which addresses are registered.
	ErrEmailExists = &DomainError{
		Code:       "ErrEmailExists",
		HTTPStatus: http.StatusBadRequest,
		Title:      "Bad Request",
		Message:    "a user with this email already exists",
		Detail:     "Please try again or log in if you already have an account.",
		TypeURI:    "urn:problem:auth/err-email-exists",
	}

	// ErrConfig marks a missing shared secret. Operator-facing; it should
	// never occur in a correctly deployed system but is checked defensively
	// before any session issuance.
	ErrConfig = &DomainError{
		Code:       "ErrConfig",
		HTTPStatus: http.StatusInternalServerError,
		Title:      "Internal Server Error",
		Message:    "required secret is missing from configuration",
		Detail:     "Something went wrong!",
		TypeURI:    "urn:problem:auth/err-config",
	}

	// OAuth
	ErrUnsupportedOAuthProvider = &DomainError{
		Code:       "ErrUnsupportedOAuthProvider",
		HTTPStatus: http.StatusBadRequest,
		Title:      "Bad Request",
		Message:    "unsupported oauth provider",
		TypeURI:    "urn:problem:auth/err-unsupported-oauth-provider",
	}

	ErrOAuthStateInvalid = &DomainError{
		Code:       "ErrOAuthStateInvalid",
		HTTPStatus: http.StatusBadRequest,
		Title:      "Bad Request",
		Message:    "invalid oauth state",
		TypeURI:    "urn:problem:auth/err-oauth-state-invalid",
	}

	ErrOAuthExchangeFailed = &DomainError{
		Code:       "ErrOAuthExchangeFailed",
		HTTPStatus: http.StatusUnauthorized,
		Title:      "Unauthorized",
		Message:    "oauth authentication failed",
		TypeURI:    "urn:problem:auth/err-oauth-exchange-failed",
	}

	ErrOAuthEmailMissing = &DomainError{
		Code:       "ErrOAuthEmailMissing",
		HTTPStatus: http.StatusBadRequest,
		Title:      "Bad Request",
		Message:    "email not provided by oauth provider",
		TypeURI:    "urn:problem:auth/err-oauth-email-missing",
	}

	// Generic internal. Unexpected storage or session-boundary faults are
	// wrapped with this sentinel and propagated, never swallowed.
	ErrInternal = &DomainError{
		Code:       "ErrInternal",
		HTTPStatus: http.StatusInternalServerError,
		Title:      "Internal Server Error",
		Message:    "internal server error",
		Detail:     "Something went wrong!",
		TypeURI:    "urn:problem:auth/err-internal",
	}
)
