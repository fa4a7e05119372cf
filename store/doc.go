// Copyright 2016 Daniel Krawisz.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package store persists the small pieces of local state that must
// survive a restart of the wallet: the remembered-login record written
// when persistent authentication is enabled, and the marker that says a
// user has logged in from this installation before.
//
// The store is deliberately not encrypted with a passphrase. The
// remembered-login record must be readable before any login has
// happened, which is exactly when no passphrase is available. Users who
// do not want credentials on disk leave persistent authentication off,
// in which case the record is never written.
package store
