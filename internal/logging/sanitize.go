// Campus Relay - Room-Scoped Real-Time Event Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/campus-relay

package logging

import (
	"strings"
	"unicode"
)

// MaxLoggedValueLength bounds client-supplied strings written to the log.
const MaxLoggedValueLength = 128

// SanitizeValue makes a client-supplied string safe to log: control
// characters are replaced and the result is truncated.
//
//	logging.Warn().Str("room", logging.SanitizeValue(frame.Room)).Msg("join rejected")
func SanitizeValue(s string) string {
	if s == "" {
		return s
	}
	clean := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return '?'
		}
		return r
	}, s)
	return truncateString(clean, MaxLoggedValueLength)
}

// SanitizeUserID masks all but the first four characters of a user identifier.
func SanitizeUserID(userID string) string {
	userID = SanitizeValue(userID)
	if len(userID) <= 4 {
		return userID
	}
	return userID[:4] + "***"
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	// Back off to a rune boundary.
	cut := maxLen
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
