package errors

import (
	"errors"
	"fmt"
)

// Config errors

type ErrConfigNotFound struct {
	Path string
}

func (e *ErrConfigNotFound) Error() string {
	return fmt.Sprintf("config file not found: %s", e.Path)
}

type ErrConfigParse struct {
	Err error
}

func (e *ErrConfigParse) Error() string {
	return fmt.Sprintf("failed to parse YAML: %v", e.Err)
}

func (e *ErrConfigParse) Unwrap() error {
	return e.Err
}

type ErrConfigValidation struct {
	Err error
}

func (e *ErrConfigValidation) Error() string {
	return fmt.Sprintf("config validation failed: %v", e.Err)
}

func (e *ErrConfigValidation) Unwrap() error {
	return e.Err
}

// ErrMissingCredentials is raised before any network call when the
// vendor client id or secret is not configured.
type ErrMissingCredentials struct {
	Field string
}

func (e *ErrMissingCredentials) Error() string {
	return fmt.Sprintf("missing Withings credential: %s", e.Field)
}

// Timeout errors

type ErrTimeout struct {
	Operation string
	Err       error
}

func (e *ErrTimeout) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s timed out: %v", e.Operation, e.Err)
	}
	return fmt.Sprintf("%s timed out", e.Operation)
}

func (e *ErrTimeout) Unwrap() error {
	return e.Err
}

// Authentication errors

type ErrAuthentication struct {
	Reason string
	Err    error
}

func (e *ErrAuthentication) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("authentication failed: %s", e.Reason)
}

func (e *ErrAuthentication) Unwrap() error {
	return e.Err
}

// API errors

type ErrAPI struct {
	Endpoint   string
	StatusCode int
	VendorCode int
	Message    string
	Err        error
}

func (e *ErrAPI) Error() string {
	switch {
	case e.VendorCode != 0:
		return fmt.Sprintf("Withings API error on %s: status %d: %s", e.Endpoint, e.VendorCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("Withings API error on %s: HTTP %d", e.Endpoint, e.StatusCode)
	default:
		return fmt.Sprintf("Withings API error on %s: %v", e.Endpoint, e.Err)
	}
}

func (e *ErrAPI) Unwrap() error {
	return e.Err
}

// Data errors

type ErrMalformedPayload struct {
	Field string
	Err   error
}

func (e *ErrMalformedPayload) Error() string {
	return fmt.Sprintf("malformed vendor payload at %s: %v", e.Field, e.Err)
}

func (e *ErrMalformedPayload) Unwrap() error {
	return e.Err
}

// Filesystem errors

type ErrDirectoryCreate struct {
	Path string
	Err  error
}

func (e *ErrDirectoryCreate) Error() string {
	return fmt.Sprintf("failed to create directory %s: %v", e.Path, e.Err)
}

func (e *ErrDirectoryCreate) Unwrap() error {
	return e.Err
}

type ErrFileRead struct {
	Path string
	Err  error
}

func (e *ErrFileRead) Error() string {
	return fmt.Sprintf("failed to read file %s: %v", e.Path, e.Err)
}

func (e *ErrFileRead) Unwrap() error {
	return e.Err
}

type ErrFileWrite struct {
	Path string
	Err  error
}

func (e *ErrFileWrite) Error() string {
	return fmt.Sprintf("failed to write file %s: %v", e.Path, e.Err)
}

func (e *ErrFileWrite) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether err is a timeout anywhere in its chain.
func IsTimeout(err error) bool {
	var te *ErrTimeout
	return errors.As(err, &te)
}

// IsAuthentication reports whether err is an authentication failure.
func IsAuthentication(err error) bool {
	var ae *ErrAuthentication
	return errors.As(err, &ae)
}

// IsUnauthorized reports whether err is an API error with HTTP 401.
func IsUnauthorized(err error) bool {
	var apiErr *ErrAPI
	return errors.As(err, &apiErr) && apiErr.StatusCode == 401
}
