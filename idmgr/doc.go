// Copyright 2016 Daniel Krawisz.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package idmgr manages the wallet's identity and session. It owns the
// mapping from a username and password to the decrypted user profile,
// and it keeps that profile synchronized with the configured storage
// backends for the life of the session.
//
// The Manager is the single writer of session state. Register, Login and
// Logout drive the state transitions; every transition is announced on
// an ordered notification channel so that the rest of the application
// can react to credential and account changes without reaching into the
// session directly.
//
// Profile mutation is explicit. Anything that changes the active profile
// either goes through one of the Manager's mutators or calls
// NotifyProfileMutated afterwards; the Manager then re-persists the full
// profile to every backend and announces completion. There is no
// debouncing: each mutation triggers its own save, and overlapping saves
// resolve last-writer-wins.
package idmgr
