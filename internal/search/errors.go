package search

import "fmt"

// InvalidSearchError is a user-correctable problem with a search request.
type InvalidSearchError struct {
	Message string
	cause   error
}

// NewInvalidSearchError creates an InvalidSearchError with a formatted message.
func NewInvalidSearchError(format string, args ...any) *InvalidSearchError {
	return &InvalidSearchError{Message: fmt.Sprintf(format, args...)}
}

func (e *InvalidSearchError) Error() string { return e.Message }

func (e *InvalidSearchError) Unwrap() error { return e.cause }

// ConfigurationError reports dataset or catalog misconfiguration. It is not
// user-correctable and should surface as an internal fault.
type ConfigurationError struct {
	Message string
	cause   error
}

// NewConfigurationError creates a ConfigurationError with a formatted message.
func NewConfigurationError(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Message: fmt.Sprintf(format, args...)}
}

func (e *ConfigurationError) Error() string { return "configuration error: " + e.Message }

func (e *ConfigurationError) Unwrap() error { return e.cause }

// UnsupportedOperationError reports a capability that is not implemented for
// the requested dataset type.
type UnsupportedOperationError struct {
	Operation string
	cause     error
}

// NewUnsupportedOperationError creates an UnsupportedOperationError.
func NewUnsupportedOperationError(format string, args ...any) *UnsupportedOperationError {
	return &UnsupportedOperationError{Operation: fmt.Sprintf(format, args...)}
}

func (e *UnsupportedOperationError) Error() string {
	return "unsupported operation: " + e.Operation
}

func (e *UnsupportedOperationError) Unwrap() error { return e.cause }

// WrapInvalidSearch creates an InvalidSearchError with a formatted message
// that wraps cause.
func WrapInvalidSearch(cause error, format string, args ...any) *InvalidSearchError {
	return &InvalidSearchError{Message: fmt.Sprintf(format, args...), cause: cause}
}
