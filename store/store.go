// Copyright 2016 Daniel Krawisz.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package store

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/boltdb/bolt"
)

const (
	// dbTimeout is the time duration after which an attempted connection to the
	// database must time out.
	dbTimeout = time.Millisecond * 5
)

// Buckets and keys for storing data in the database.
var (
	miscBucket = []byte("misc")

	// Used for storing the remembered-login record.
	authKey = []byte("wallet_auth")

	// Used for storing the returning-user marker.
	knownKey = []byte("wallet_known")
)

// ErrNotFound is returned when a record matching the query or no record at
// all is found in the database.
var ErrNotFound = errors.New("record not found")

// Login is a remembered credential pair. It is written only when
// persistent authentication is enabled.
type Login struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Store persists local wallet state to disk.
type Store struct {
	db *bolt.DB
}

// Open creates a new Store from the given file.
func Open(file string) (*Store, error) {
	db, err := bolt.Open(file, 0600, &bolt.Options{Timeout: dbTimeout})
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(miscBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close performs any necessary cleanups and then closes the store.
func (s *Store) Close() error {
	return s.db.Close()
}

// RememberLogin records the credential pair for restart restore.
func (s *Store) RememberLogin(l *Login) error {
	v, err := json.Marshal(l)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(miscBucket).Put(authKey, v)
	})
}

// RememberedLogin returns the stored credential pair, or ErrNotFound
// when none was remembered.
func (s *Store) RememberedLogin() (*Login, error) {
	var l *Login
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(miscBucket).Get(authKey)
		if v == nil {
			return ErrNotFound
		}
		l = &Login{}
		return json.Unmarshal(v, l)
	})
	if err != nil {
		return nil, err
	}
	return l, nil
}

// ForgetLogin removes any remembered credential pair. Removing a record
// that does not exist is not an error.
func (s *Store) ForgetLogin() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(miscBucket).Delete(authKey)
	})
}

// SetKnown records that a user has logged in from this installation.
func (s *Store) SetKnown() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(miscBucket).Put(knownKey, []byte{0x01})
	})
}

// Known reports whether a user has ever logged in from this
// installation.
func (s *Store) Known() bool {
	var known bool
	err := s.db.View(func(tx *bolt.Tx) error {
		known = tx.Bucket(miscBucket).Get(knownKey) != nil
		return nil
	})
	if err != nil {
		log.Warnf("Could not read returning-user marker: %v", err)
		return false
	}
	return known
}
