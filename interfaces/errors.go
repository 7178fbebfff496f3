package interfaces

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode identifies a gateway failure across the public boundary. The API
// layer maps codes to HTTP responses; the core treats them as opaque tags.
type ErrorCode string

const (
	ErrCodeInvalidPrivateKey              ErrorCode = "INVALID_PRIVATE_KEY"
	ErrCodeNoDID                          ErrorCode = "NO_DID"
	ErrCodeIAMInit                        ErrorCode = "IAM_INIT_ERROR"
	ErrCodeFetchClaimsFailed              ErrorCode = "FETCH_CLAIMS_FAILED"
	ErrCodeCreateUserClaimFailed          ErrorCode = "CREATE_USER_CLAIM_FAILED"
	ErrCodeCreateMessageBrokerClaimFailed ErrorCode = "CREATE_MESSAGEBROKER_CLAIM_FAILED"
	ErrCodeDiskPersistFailed              ErrorCode = "DISK_PERSIST_FAILED"
)

// GatewayError is the uniform failure envelope returned by every gateway
// operation. It carries a typed code, an HTTP-style status class for the API
// layer, and the underlying cause when one exists. No error is swallowed:
// nested failures are forwarded unchanged via Err.
type GatewayError struct {
	Code   ErrorCode
	Status int
	Err    error
}

// Error implements the error interface.
func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return string(e.Code)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *GatewayError) Unwrap() error {
	return e.Err
}

// BadRequest wraps a malformed-input failure (invalid key, missing DID).
func BadRequest(code ErrorCode, err error) *GatewayError {
	return &GatewayError{Code: code, Status: http.StatusBadRequest, Err: err}
}

// Internal wraps a remote or storage failure.
func Internal(code ErrorCode, err error) *GatewayError {
	return &GatewayError{Code: code, Status: http.StatusInternalServerError, Err: err}
}

// CodeOf extracts the error code from an error chain. Returns the empty
// code when the error is not a GatewayError.
func CodeOf(err error) ErrorCode {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr.Code
	}
	return ""
}

// StatusOf extracts the HTTP status class from an error chain, defaulting
// to 500 for untyped errors.
func StatusOf(err error) int {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr.Status
	}
	return http.StatusInternalServerError
}
