// Copyright 2016 Daniel Krawisz.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package idmgr

import (
	"sync"
)

// EventKind identifies a notification emitted by the Manager.
type EventKind uint8

const (
	// EventUserChange is emitted when the session username is set or
	// cleared.
	EventUserChange EventKind = iota

	// EventAccountUnload is emitted when a previously loaded account is
	// about to be replaced. It always precedes the EventAccountLoad for
	// the replacement.
	EventAccountUnload

	// EventAccountLoad is emitted when an account is installed into the
	// session.
	EventAccountLoad

	// EventBlobUpdate is emitted whenever the active profile changes,
	// whether from a local mutation or from a backend fetch.
	EventBlobUpdate

	// EventBlobSave is emitted when a profile mutation has finished
	// persisting to the backends.
	EventBlobSave
)

// String returns the event kind as a human-readable string.
func (k EventKind) String() string {
	switch k {
	case EventUserChange:
		return "userchange"
	case EventAccountUnload:
		return "accountunload"
	case EventAccountLoad:
		return "accountload"
	case EventBlobUpdate:
		return "blobupdate"
	case EventBlobSave:
		return "blobsave"
	}
	return "unknown"
}

// Event is a single notification. Which payload fields are set depends
// on the kind: Username accompanies EventUserChange, Account accompanies
// the account events, and Secret accompanies EventAccountLoad only.
type Event struct {
	Kind     EventKind
	Username string
	Account  string
	Secret   string
}

// notifier fans events out to subscribers. Delivery is synchronous and
// in subscription order, so the orderings the Manager guarantees (unload
// before load, update before save) hold for every subscriber.
type notifier struct {
	mutex sync.Mutex
	subs  []func(Event)
}

// subscribe registers a handler for all future events. Handlers run on
// the goroutine that emitted the event and must not block for long.
func (n *notifier) subscribe(handler func(Event)) {
	n.mutex.Lock()
	n.subs = append(n.subs, handler)
	n.mutex.Unlock()
}

// emit delivers the event to every subscriber in subscription order.
func (n *notifier) emit(e Event) {
	n.mutex.Lock()
	subs := make([]func(Event), len(n.subs))
	copy(subs, n.subs)
	n.mutex.Unlock()

	for _, handler := range subs {
		handler(e)
	}
}
