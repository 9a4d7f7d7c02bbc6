// Package utils provides small, dependency-light helpers shared by the genguard packages.
package utils

import (
	"strings"

	"github.com/turtacn/genguard/pkg/constants"
)

// ResolveIdentifier derives the per-caller identifier used by the rate limiter
// and the usage tracker.
//
// Precedence:
//  1. the client supplied fingerprint header, verbatim
//  2. the first entry of the forwarded-for chain, trimmed
//  3. the loopback fallback
//
// Callers sharing a network address without a fingerprint share limits.
func ResolveIdentifier(fingerprint, forwardedFor string) string {
	if fingerprint != "" {
		return fingerprint
	}

	if forwardedFor != "" {
		first, _, _ := strings.Cut(forwardedFor, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}

	return constants.FallbackIdentifier
}
