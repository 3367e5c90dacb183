// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package httperrors

import (
	"github.com/pterm/pterm"
)

// Display shows a troubleshooting panel for a transport error.
// context describes what the CLI was doing, e.g. "uploading shop.db".
// host is the backend host as printed in hints.
func Display(err error, context, host string) {
	if err == nil {
		return
	}

	switch Classify(err) {
	case CategoryCanceled:
		pterm.Printf("Request canceled while %s\n", context)
		pterm.Println()
	case CategoryTimeout:
		showTimeoutError(context)
	case CategoryDNS:
		showDNSError(context, host)
	case CategoryConnectionRefused:
		showConnectionRefusedError(context, host)
	case CategoryTLS:
		showSSLError(context)
	case CategoryServer:
		showServerError(context, rootCause(err))
	default:
		showGenericError(context, rootCause(err))
	}
}

// showTimeoutError displays a user-friendly timeout error message.
func showTimeoutError(context string) {
	pterm.Printf("⏱️  Connection timeout while %s\n", context)
	pterm.Println()
	pterm.Println("The backend took too long to respond. This could mean:")
	pterm.Println("  • The question produced a slow query")
	pterm.Println("  • The language model is under heavy load")
	pterm.Println("  • The --timeout value is too small")
	pterm.Println()
	pterm.Println("Please try again in a few moments.")
	pterm.Println()
}

// showDNSError displays a user-friendly DNS error message.
func showDNSError(context, host string) {
	pterm.Printf("🌐 Cannot resolve %s while %s\n", host, context)
	pterm.Println()
	pterm.Println("Check the backend_url setting:")
	pterm.Println("  nlsql config show")
	pterm.Println()
}

// showConnectionRefusedError displays a user-friendly connection refused error message.
func showConnectionRefusedError(context, host string) {
	pterm.Printf("🔌 Connection refused by %s while %s\n", host, context)
	pterm.Println()
	pterm.Println("The backend is not running or is listening on a different port.")
	pterm.Println("Start it, or point the CLI elsewhere:")
	pterm.Println("  nlsql config set backend_url http://127.0.0.1:8000")
	pterm.Println()
}

// showSSLError displays a user-friendly SSL/TLS error message.
func showSSLError(context string) {
	pterm.Printf("🔒 Secure connection failed while %s\n", context)
	pterm.Println()
	pterm.Println("The backend certificate could not be verified.")
	pterm.Println("If the backend serves plain HTTP, use an http:// backend_url.")
	pterm.Println()
}

// showServerError displays a user-friendly server error message.
func showServerError(context, detail string) {
	pterm.Printf("⚠️  Backend error while %s\n", context)
	pterm.Println()
	pterm.Println("The backend reported an internal problem:")
	pterm.Println("  " + detail)
	pterm.Println()
}

// showGenericError displays a generic network error message.
func showGenericError(context, detail string) {
	pterm.Printf("❌ Network error while %s\n", context)
	pterm.Println()
	pterm.Println("  " + detail)
	pterm.Println()
}
