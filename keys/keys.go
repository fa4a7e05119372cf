// Copyright 2016 Daniel Krawisz.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package keys generates master seeds and derives account identifiers
// from them. A master seed is random key material encoded in the
// checksummed Base58 format used for all keys exchanged with the wallet
// backends. The account identifier is obtained deterministically from
// the seed, so a profile can always be checked for consistency against
// the key material it carries.
package keys

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"

	"github.com/btcsuite/btcutil/base58"
	"golang.org/x/crypto/ripemd160"
)

const (
	// seedVersion is the Base58Check version byte under which master
	// seeds are encoded.
	seedVersion = 33

	// accountVersion is the Base58Check version byte under which
	// account identifiers are encoded.
	accountVersion = 0

	// seedSize is the number of random bytes in a generated master seed.
	seedSize = 16
)

// ErrBadSeed is returned when a master seed cannot be decoded, either
// because it is not valid Base58Check or because it was encoded under
// the wrong version byte.
var ErrBadSeed = errors.New("malformed master seed")

// GenerateMasterSeed creates a new master seed from cryptographically
// strong random material and returns it in Base58Check form.
func GenerateMasterSeed() (string, error) {
	var raw [seedSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return base58.CheckEncode(raw[:], seedVersion), nil
}

// DeriveAccountID derives the canonical account identifier for a master
// seed. The identifier is the RIPEMD160 hash of the SHA256 hash of the
// decoded seed, encoded in Base58Check form. The same seed always yields
// the same identifier.
func DeriveAccountID(seed string) (string, error) {
	raw, version, err := base58.CheckDecode(seed)
	if err != nil {
		return "", ErrBadSeed
	}
	if version != seedVersion || len(raw) == 0 {
		return "", ErrBadSeed
	}

	sha := sha256.Sum256(raw)
	ripe := ripemd160.New()
	ripe.Write(sha[:])
	return base58.CheckEncode(ripe.Sum(nil), accountVersion), nil
}
