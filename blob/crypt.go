// Copyright 2016 Daniel Krawisz.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blob

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"

	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// nonceSize is the size of the nonce (in bytes) used by secretbox.
	nonceSize = 24

	// saltLength is the desired length of salt used by PBKDF2.
	saltLength = 32

	// keySize is the size of the symmetric key for use with secretbox.
	keySize = 32

	// numIters is the number of iterations to be done by PBKDF2.
	numIters = 1 << 15
)

// ErrDecryptionFailed is returned when decryption of a profile record
// fails. This could be due to a wrong password or corrupt/tampered data.
var ErrDecryptionFailed = errors.New("invalid username or password")

// deriveKey is used to derive a 32 byte key for encryption/decryption
// operations with secretbox. It runs a large number of rounds of PBKDF2 on the
// password using the specified salt to arrive at the key.
func deriveKey(pass, salt []byte) *[keySize]byte {
	out := pbkdf2.Key(pass, salt, numIters, keySize, sha256.New)
	var key [keySize]byte
	copy(key[:], out)
	return &key
}

// encrypt seals the serialized profile under a key derived from pass.
// The salt and nonce are freshly generated and prepended to the output.
func encrypt(data, pass []byte) ([]byte, error) {
	salt := make([]byte, saltLength)
	var nonce [nonceSize]byte

	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, err
	}

	key := deriveKey(pass, salt)

	enc := make([]byte, saltLength+nonceSize)
	copy(enc[:saltLength], salt)
	copy(enc[saltLength:], nonce[:])

	return secretbox.Seal(enc, data, &nonce, key), nil
}

// decrypt undoes the operation done by encrypt. It reads the prepended
// salt and nonce and opens what follows with the derived key.
func decrypt(data, pass []byte) ([]byte, error) {
	if len(data) < saltLength+nonceSize+secretbox.Overhead {
		return nil, ErrDecryptionFailed
	}

	salt := data[:saltLength]
	var nonce [nonceSize]byte
	copy(nonce[:], data[saltLength:saltLength+nonceSize])

	key := deriveKey(pass, salt)

	out, ok := secretbox.Open(nil, data[saltLength+nonceSize:], &nonce, key)
	if !ok {
		return nil, ErrDecryptionFailed
	}
	return out, nil
}
