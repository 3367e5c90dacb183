// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package httperrors provides user-friendly error handling for HTTP requests.
// It classifies transport failures (timeout, DNS, refused connection, TLS, server errors)
// and turns them into short descriptions for history entries or longer pterm panels.
package httperrors

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"
	"syscall"
)

// Category is the coarse class of a transport failure.
type Category int

const (
	CategoryGeneric Category = iota
	CategoryTimeout
	CategoryDNS
	CategoryConnectionRefused
	CategoryTLS
	CategoryServer
	CategoryCanceled
)

// Classify returns the category of a transport error.
func Classify(err error) Category {
	switch {
	case err == nil:
		return CategoryGeneric
	case errors.Is(err, context.Canceled):
		return CategoryCanceled
	case isTimeoutError(err):
		return CategoryTimeout
	case isDNSError(err):
		return CategoryDNS
	case isConnectionRefusedError(err):
		return CategoryConnectionRefused
	case isSSLError(err):
		return CategoryTLS
	case isServerError(rootCause(err)):
		return CategoryServer
	}
	return CategoryGeneric
}

// Describe converts a transport error into a one-line, user-facing description.
// The underlying error text is appended so the cause stays visible.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var summary string
	switch Classify(err) {
	case CategoryCanceled:
		summary = "request canceled"
	case CategoryTimeout:
		summary = "the server took too long to respond"
	case CategoryDNS:
		summary = "cannot resolve the server address"
	case CategoryConnectionRefused:
		summary = "the server is not accepting connections"
	case CategoryTLS:
		summary = "secure connection failed"
	case CategoryServer:
		summary = "the server reported an internal error"
	default:
		summary = "cannot reach the server"
	}
	return summary + " (" + rootCause(err) + ")"
}

// rootCause strips url.Error decoration ("Get \"http://...\": ") down to the cause.
func rootCause(err error) string {
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Err != nil {
		return uerr.Err.Error()
	}
	return err.Error()
}

// isTimeoutError checks if the error is a timeout error.
func isTimeoutError(err error) bool {
	errStr := strings.ToLower(err.Error())
	if strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded") {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// isDNSError checks if the error is a DNS resolution error.
func isDNSError(err error) bool {
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

// isConnectionRefusedError checks if the error is a connection refused error.
func isConnectionRefusedError(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "connection refused")
}

// isSSLError checks if the error is an SSL/TLS error.
func isSSLError(err error) bool {
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "tls") ||
		strings.Contains(errStr, "ssl") ||
		strings.Contains(errStr, "certificate") ||
		strings.Contains(errStr, "handshake")
}

// isServerError checks if the error indicates a server-side problem (5xx errors).
func isServerError(errStr string) bool {
	lower := strings.ToLower(errStr)
	return strings.Contains(lower, "500") ||
		strings.Contains(lower, "502") ||
		strings.Contains(lower, "503") ||
		strings.Contains(lower, "504") ||
		strings.Contains(lower, "internal server error") ||
		strings.Contains(lower, "bad gateway") ||
		strings.Contains(lower, "service unavailable") ||
		strings.Contains(lower, "gateway timeout")
}

// ExtractHostFromURL extracts the hostname from a URL for error messages.
func ExtractHostFromURL(urlStr string) string {
	u, err := url.Parse(urlStr)
	if err != nil || u.Host == "" {
		return "server"
	}
	return u.Host
}
