package bearer

import (
	"errors"
	"fmt"
	"net/http"
)

// Reasons a request is rejected. ErrInvalidCredential shares its message
// with ErrInvalidHeader so clients cannot tell a bad prefix from a bad key.
var (
	ErrMissingHeader     = errors.New("missing authorization header")
	ErrInvalidHeader     = errors.New("invalid authorization header")
	ErrInvalidCredential = errors.New("invalid authorization header")
	ErrNonBooleanResult  = errors.New("internal server error")
	// ErrInternal replaces causes that must not reach the client.
	ErrInternal = errors.New("internal server error")
)

// ConfigError is a construction-time failure. It is fatal to registration.
type ConfigError struct {
	code string
	msg  string
}

func (e *ConfigError) Error() string { return e.msg }

// Code returns the stable error code.
func (e *ConfigError) Code() string { return e.code }

var (
	ErrInvalidKeysType = &ConfigError{
		code: "BEARER_AUTH_INVALID_KEYS_TYPE",
		msg:  "options.keys has to be a set or a sequence of strings",
	}
	ErrInvalidKeyEntryType = &ConfigError{
		code: "BEARER_AUTH_INVALID_KEY_ENTRY_TYPE",
		msg:  "options.keys has to contain only non-empty string entries",
	}
	ErrInvalidHookPlacement = &ConfigError{
		code: "BEARER_AUTH_INVALID_HOOK",
		msg:  "options.hook must be onRequest, preParsing, none or a boolean",
	}
	ErrInvalidSpecCompliance = &ConfigError{
		code: "BEARER_AUTH_INVALID_SPEC",
		msg:  "options.specCompliance must be rfc6749 or rfc6750",
	}
	ErrInvalidLogLevel = &ConfigError{
		code: "BEARER_AUTH_INVALID_LOG_LEVEL",
		msg:  "logger does not support the requested level",
	}
	ErrInvalidContentType = &ConfigError{
		code: "BEARER_AUTH_INVALID_CONTENT_TYPE",
		msg:  "options.contentType is not a valid media type",
	}
	ErrConflictingAuth = &ConfigError{
		code: "BEARER_AUTH_CONFLICTING_AUTH",
		msg:  "options.auth and options.asyncAuth are mutually exclusive",
	}
)

// InvalidLogLevelError carries the offending level name.
type InvalidLogLevelError struct {
	Level string
}

func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("logger does not have level '%s'", e.Level)
}

func (e *InvalidLogLevelError) Code() string { return ErrInvalidLogLevel.code }

func (e *InvalidLogLevelError) Is(target error) bool { return target == ErrInvalidLogLevel }

// AuthError is what a manually invoked engine hands to its continuation.
// It carries everything needed to write the response.
type AuthError struct {
	Status int
	Err    error
}

func (e *AuthError) Error() string { return e.Err.Error() }

func (e *AuthError) Unwrap() error { return e.Err }

// Unauthorized reports whether the failure maps to 401.
func (e *AuthError) Unauthorized() bool { return e.Status == http.StatusUnauthorized }

// Outcome rebuilds the failed Outcome e was made from.
func (e *AuthError) Outcome() Outcome {
	if e.Unauthorized() {
		return unauthorized(e.Err)
	}
	return internalError(e.Err)
}
