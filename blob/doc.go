// Copyright 2016 Daniel Krawisz.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package blob defines the decrypted user profile and the storage
// backends that hold its encrypted form.
//
// A profile is persisted as a JSON document encrypted with SalsaX20 and
// MAC'd with Poly1305, byte compatible with secretbox from NaCl. The key
// is derived from the user's password with PBKDF2. The contents of the
// encrypted record are arranged as such:
//
// Salt for PBKDF2 (32 bytes) || Nonce (24 bytes) || Encrypted data
//
// Both the nonce and salt are re-generated each time the profile is
// saved. This, along with a high number of PBKDF2 iterations (2^15),
// helps to ensure that an adversary with access to a backend record will
// have an extremely hard time trying to bruteforce it.
//
// Backends are tried in a fixed priority order on fetch, and a save goes
// to every configured backend. Records are keyed by the lookup form of
// the username, which is lower case; the display form of the username
// lives inside the profile's owner session, not here.
package blob
