// Copyright 2016 Daniel Krawisz.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blob

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no record exists for the given
	// lookup key on a backend.
	ErrNotFound = errors.New("profile not found")

	// ErrNoBackends is returned when an operation is attempted with an
	// empty backend list.
	ErrNoBackends = errors.New("no backends configured")
)

// Backend is a storage provider capable of holding encrypted profile
// records keyed by the lookup form of a username. Implementations do not
// see plaintext; encryption happens in this package before a record
// reaches a backend.
type Backend interface {
	// Name identifies the backend in logs and errors.
	Name() string

	// Fetch returns the encrypted record stored under key, or
	// ErrNotFound when no such record exists.
	Fetch(ctx context.Context, key string) ([]byte, error)

	// Store persists the encrypted record under key, replacing any
	// previous record.
	Store(ctx context.Context, key string, enc []byte) error
}

// Get fetches and decrypts the profile stored under key. Backends are
// attempted in the given priority order and the first success resolves
// the call. The returned error is the one reported by the first backend
// when every backend fails.
func Get(ctx context.Context, backends []Backend, key, password string) (*Profile, error) {
	if len(backends) == 0 {
		return nil, ErrNoBackends
	}

	var firstErr error
	for _, b := range backends {
		enc, err := b.Fetch(ctx, key)
		if err != nil {
			log.Debugf("Fetch from %s backend failed: %v", b.Name(), err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		raw, err := decrypt(enc, []byte(password))
		if err != nil {
			log.Debugf("Could not decrypt record from %s backend: %v",
				b.Name(), err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		p := &Profile{}
		if err := json.Unmarshal(raw, p); err != nil {
			log.Debugf("Malformed record on %s backend: %v", b.Name(), err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		return p, nil
	}
	return nil, firstErr
}

// Set encrypts the profile and persists it to every backend in the list.
// It succeeds only when every backend accepted the record.
func Set(ctx context.Context, backends []Backend, key, password string, p *Profile) error {
	if len(backends) == 0 {
		return ErrNoBackends
	}

	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	enc, err := encrypt(raw, []byte(password))
	if err != nil {
		return err
	}

	for _, b := range backends {
		if err := b.Store(ctx, key, enc); err != nil {
			return fmt.Errorf("store to %s backend: %v", b.Name(), err)
		}
	}
	return nil
}
