// Copyright 2016 Daniel Krawisz.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blob

import (
	"context"
	"time"

	"github.com/boltdb/bolt"
)

const (
	// dbTimeout is the time duration after which an attempted connection to the
	// database must time out.
	dbTimeout = time.Millisecond * 5
)

// profilesBucket holds one encrypted record per lookup key.
var profilesBucket = []byte("profiles")

// Local is the blob backend kept in a bolt database on disk. It serves
// as the fallback when the vault is unreachable and as the only backend
// for purely local installations.
type Local struct {
	db *bolt.DB
}

// OpenLocal opens or creates the local backend database at the given
// file.
func OpenLocal(file string) (*Local, error) {
	db, err := bolt.Open(file, 0600, &bolt.Options{Timeout: dbTimeout})
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(profilesBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Local{db: db}, nil
}

// Name returns the backend identifier used in logs and errors.
func (l *Local) Name() string {
	return "local"
}

// Fetch returns the encrypted record stored under key.
func (l *Local) Fetch(ctx context.Context, key string) ([]byte, error) {
	var enc []byte
	err := l.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(profilesBucket).Get([]byte(key))
		if v == nil {
			return ErrNotFound
		}
		// The slice is only valid for the life of the transaction.
		enc = make([]byte, len(v))
		copy(enc, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return enc, nil
}

// Store persists the encrypted record under key.
func (l *Local) Store(ctx context.Context, key string, enc []byte) error {
	return l.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(profilesBucket).Put([]byte(key), enc)
	})
}

// Close performs any necessary cleanups and then closes the backend.
func (l *Local) Close() error {
	return l.db.Close()
}
