package errors

import (
	"errors"
	"net"
	"strings"
)

// UserMessage translates any failure into a short message suitable for a
// non-technical end user. Raw error text is only ever shown in verbose
// mode by the CLI.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var mc *ErrMissingCredentials
	if errors.As(err, &mc) {
		return "Withings credentials are not configured. Run 'bodycomp credentials' first."
	}
	if IsTimeout(err) {
		return "Request timed out. Please try again."
	}
	if IsUnauthorized(err) || IsAuthentication(err) {
		return "Authentication expired. Please authenticate again."
	}

	var netErr net.Error
	if errors.As(err, &netErr) || isNetworkFailure(err) {
		return "Network connection failed. Please check your internet connection and try again."
	}

	var apiErr *ErrAPI
	if errors.As(err, &apiErr) {
		return "Cannot reach the Withings servers. Please try again later."
	}

	return "Import failed: " + err.Error()
}

func isNetworkFailure(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "connection refused") || strings.Contains(msg, "no such host")
}
