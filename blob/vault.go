// Copyright 2016 Daniel Krawisz.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blob

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// defaultVaultPrefix namespaces profile records on a shared redis server.
const defaultVaultPrefix = "wallet:profile:"

// Vault is the remote blob backend, backed by a redis server. It is the
// primary backend; the local backend only serves as a fallback when the
// vault is unreachable.
type Vault struct {
	client *redis.Client
	prefix string
}

// NewVault creates a vault backend connected to the redis server at the
// given address.
func NewVault(addr, password string, db int) *Vault {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return NewVaultFromClient(client)
}

// NewVaultFromClient creates a vault backend from an existing client.
func NewVaultFromClient(client *redis.Client) *Vault {
	return &Vault{
		client: client,
		prefix: defaultVaultPrefix,
	}
}

// Name returns the backend identifier used in logs and errors.
func (v *Vault) Name() string {
	return "vault"
}

// Fetch returns the encrypted record stored under key.
func (v *Vault) Fetch(ctx context.Context, key string) ([]byte, error) {
	enc, err := v.client.Get(ctx, v.prefix+key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return enc, nil
}

// Store persists the encrypted record under key. Records do not expire;
// a profile lives until its owner overwrites it.
func (v *Vault) Store(ctx context.Context, key string, enc []byte) error {
	return v.client.Set(ctx, v.prefix+key, enc, 0).Err()
}

// Close closes the connection to the redis server.
func (v *Vault) Close() error {
	return v.client.Close()
}
