// Copyright 2016 Daniel Krawisz.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blob

import (
	"encoding/json"
	"time"
)

// Meta keys set on every freshly created profile.
const (
	MetaCreated  = "created"
	MetaModified = "modified"
)

// Contact is a single address book entry stored in the profile.
type Contact struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// Data holds the user data section of the profile. Once an account
// exists, MasterSeed and AccountID are both set; Contacts is always
// present, possibly empty.
//
// A stored profile may carry an account id that is the empty string,
// which is not the same thing as carrying no account id at all. The
// presence flags keep the two cases distinct across a decode.
type Data struct {
	MasterSeed string
	AccountID  string
	Contacts   []Contact

	hasMasterSeed bool
	hasAccountID  bool
}

// dataStore is a struct used for temporarily storing the serialized
// form of the profile data section.
type dataStore struct {
	MasterSeed *string   `json:"master_seed,omitempty"`
	AccountID  *string   `json:"account_id,omitempty"`
	Contacts   []Contact `json:"contacts"`
}

// MarshalJSON implements json.Marshaler. Identity fields are written
// whenever they were present on decode or have been given a value, so
// an empty account id survives a round trip.
func (d Data) MarshalJSON() ([]byte, error) {
	stored := dataStore{Contacts: d.Contacts}
	if d.hasMasterSeed || d.MasterSeed != "" {
		seed := d.MasterSeed
		stored.MasterSeed = &seed
	}
	if d.hasAccountID || d.AccountID != "" {
		id := d.AccountID
		stored.AccountID = &id
	}
	return json.Marshal(stored)
}

// UnmarshalJSON implements json.Unmarshaler. A field of the wrong type
// is a decode error; a field that is absent is recorded as absent.
func (d *Data) UnmarshalJSON(in []byte) error {
	var stored dataStore
	if err := json.Unmarshal(in, &stored); err != nil {
		return err
	}
	*d = Data{Contacts: stored.Contacts}
	if stored.MasterSeed != nil {
		d.MasterSeed = *stored.MasterSeed
		d.hasMasterSeed = true
	}
	if stored.AccountID != nil {
		d.AccountID = *stored.AccountID
		d.hasAccountID = true
	}
	return nil
}

// Profile is the decrypted user blob. It contains everything a user
// stores with the wallet: account identity, secret key material and
// contact metadata.
type Profile struct {
	Data Data              `json:"data"`
	Meta map[string]string `json:"meta"`
}

// New returns a fresh profile for a newly registered account.
func New(accountID, masterSeed string) *Profile {
	now := time.Now().UTC().Format(time.RFC3339)
	return &Profile{
		Data: Data{
			MasterSeed:    masterSeed,
			AccountID:     accountID,
			Contacts:      []Contact{},
			hasMasterSeed: true,
			hasAccountID:  true,
		},
		Meta: map[string]string{
			MetaCreated:  now,
			MetaModified: now,
		},
	}
}

// Default returns the profile held while no user is logged in. Right now
// this is equal to the minimum profile shape, but certain default values
// may be defined here in the future.
func Default() *Profile {
	return &Profile{
		Data: Data{Contacts: []Contact{}},
		Meta: map[string]string{},
	}
}

// Normalize fills in any absent minimum-shape fields without overwriting
// those that are present. It is applied to every profile accepted from a
// backend, so the rest of the program can rely on the containers being
// non-nil.
func (p *Profile) Normalize() {
	if p.Data.Contacts == nil {
		p.Data.Contacts = []Contact{}
	}
	if p.Meta == nil {
		p.Meta = map[string]string{}
	}
}

// Valid reports whether the profile carries the identity fields, as
// text, that a fetched profile must have before it may be promoted to
// session state. An account id that is the empty string is still text,
// so a profile can be valid while naming no account; HasAccount tells
// the two apart.
func (p *Profile) Valid() bool {
	return (p.Data.hasMasterSeed || p.Data.MasterSeed != "") &&
		(p.Data.hasAccountID || p.Data.AccountID != "")
}

// HasAccount reports whether the profile names an account.
func (p *Profile) HasAccount() bool {
	return p.Data.AccountID != ""
}

// Touch updates the modified timestamp. Mutators of the profile call it
// before handing the profile back for persistence.
func (p *Profile) Touch() {
	if p.Meta == nil {
		p.Meta = map[string]string{}
	}
	p.Meta[MetaModified] = time.Now().UTC().Format(time.RFC3339)
}

// Clone returns a deep copy of the profile. Saves operate on a clone so
// that an in-flight save never observes a half-applied mutation.
func (p *Profile) Clone() *Profile {
	c := &Profile{
		Data: Data{
			MasterSeed:    p.Data.MasterSeed,
			AccountID:     p.Data.AccountID,
			Contacts:      make([]Contact, len(p.Data.Contacts)),
			hasMasterSeed: p.Data.hasMasterSeed,
			hasAccountID:  p.Data.hasAccountID,
		},
		Meta: make(map[string]string, len(p.Meta)),
	}
	copy(c.Data.Contacts, p.Data.Contacts)
	for k, v := range p.Meta {
		c.Meta[k] = v
	}
	return c
}
