// Copyright 2016 Daniel Krawisz.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package idmgr

import (
	"strings"
)

// NormalizeUsername reduces a username to its standardized form.
//
// Strips whitespace at beginning and end. Capitalization is kept so that
// the username can be displayed the way the user entered it; backend
// requests use LookupKey instead.
func NormalizeUsername(username string) string {
	return strings.TrimSpace(username)
}

// NormalizePassword reduces a password to its standardized form.
//
// Strips whitespace at beginning and end.
func NormalizePassword(password string) string {
	return strings.TrimSpace(password)
}

// LookupKey returns the form of a username under which blob backends key
// their records. It is the lower-cased normalized username, distinct
// from the display form that NormalizeUsername preserves.
func LookupKey(username string) string {
	return strings.ToLower(NormalizeUsername(username))
}
