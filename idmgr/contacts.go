// Copyright 2016 Daniel Krawisz.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package idmgr

import (
	"errors"

	"github.com/yteriumR/ripple-client/blob"
)

// ErrUnknownContact is returned when a contact to be removed is not in
// the address book.
var ErrUnknownContact = errors.New("unknown contact")

// Contacts returns a copy of the active profile's address book.
func (m *Manager) Contacts() []blob.Contact {
	m.mutex.Lock()
	contacts := make([]blob.Contact, len(m.profile.Data.Contacts))
	copy(contacts, m.profile.Data.Contacts)
	m.mutex.Unlock()
	return contacts
}

// AddContact appends a contact to the active profile's address book and
// schedules a save.
func (m *Manager) AddContact(c blob.Contact) error {
	m.mutex.Lock()
	if !m.loginStatus {
		m.mutex.Unlock()
		return ErrNoSession
	}
	m.profile.Data.Contacts = append(m.profile.Data.Contacts, c)
	m.profile.Touch()
	m.mutex.Unlock()

	m.NotifyProfileMutated()
	return nil
}

// RemoveContact removes the contact with the given address from the
// address book and schedules a save.
func (m *Manager) RemoveContact(address string) error {
	m.mutex.Lock()
	if !m.loginStatus {
		m.mutex.Unlock()
		return ErrNoSession
	}

	contacts := m.profile.Data.Contacts
	found := -1
	for i, c := range contacts {
		if c.Address == address {
			found = i
			break
		}
	}
	if found < 0 {
		m.mutex.Unlock()
		return ErrUnknownContact
	}
	m.profile.Data.Contacts = append(contacts[:found], contacts[found+1:]...)
	m.profile.Touch()
	m.mutex.Unlock()

	m.NotifyProfileMutated()
	return nil
}
